package handler

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/remiblancher/sigalg/internal/api/dto"
	apierrors "github.com/remiblancher/sigalg/internal/api/errors"
	"github.com/remiblancher/sigalg/internal/audit"
	"github.com/remiblancher/sigalg/pkg/channelbinding"
	"github.com/remiblancher/sigalg/pkg/inspect"
	"github.com/remiblancher/sigalg/pkg/policy"
	"github.com/remiblancher/sigalg/pkg/sigalg"
)

// auditSource tags every audit event emitted by the API.
const auditSource = "api"

// Raw DER request bodies accepted by the inspect endpoint.
var rawContentTypes = map[string]inspect.Kind{
	"application/pkix-cert": inspect.KindCertificate,
	"application/pkcs10":    inspect.KindCertificateRequest,
	"application/pkix-crl":  inspect.KindRevocationList,
}

// SigAlgHandler serves classification, inspection and channel binding.
type SigAlgHandler struct {
	policy *policy.Policy
	logger *zap.Logger
}

// NewSigAlgHandler creates a handler that judges inputs against pol.
func NewSigAlgHandler(pol *policy.Policy, logger *zap.Logger) *SigAlgHandler {
	if pol == nil {
		pol = policy.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SigAlgHandler{policy: pol, logger: logger}
}

// Algorithms handles GET /api/v1/algorithms.
func (h *SigAlgHandler) Algorithms(w http.ResponseWriter, r *http.Request) {
	all := sigalg.All()
	resp := dto.AlgorithmListResponse{
		Policy:     h.policy.Name,
		Algorithms: make([]dto.AlgorithmInfo, 0, len(all)),
	}
	for _, alg := range all {
		info := dto.AlgorithmInfo{
			Name:    alg.String(),
			Family:  string(alg.Family()),
			OID:     alg.OID().String(),
			Hash:    hashName(alg),
			Weak:    alg.IsWeak(),
			Allowed: h.policy.Check(alg) == nil,
		}
		if c, ok := alg.COSEAlgorithm(); ok {
			info.COSE = int64(c)
		}
		if d, ok := sigalg.TLSServerEndpointDigest(alg); ok {
			info.BindingDigest = d.String()
		}
		resp.Algorithms = append(resp.Algorithms, info)
	}
	respond(w, r, http.StatusOK, resp)
}

// Classify handles POST /api/v1/classify.
func (h *SigAlgHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req dto.ClassifyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest(err.Error()))
		return
	}
	der, _, err := req.AlgorithmIdentifier.Decode()
	if err != nil {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest(err.Error()))
		return
	}

	obj := audit.Object{Type: string(inspect.KindAlgorithmIdentifier), Fingerprint: audit.Fingerprint(der)}
	sink := audit.SinkFor(auditSource, obj).WithActor(clientActor(r))
	report := inspect.Algorithm(der, sink)

	// The sink already recorded a rejection for every decoded but
	// unaccepted identifier.
	var event *audit.Event
	ctx := audit.Context{Algorithm: report.Signature.Name, OID: report.Signature.OID, Params: report.Signature.Parameters}
	switch {
	case report.Recognized():
		event = audit.NewEvent(audit.EventSigAlgClassified, audit.ResultSuccess)
	case len(report.Diagnostics) == 0:
		event = audit.NewEvent(audit.EventSigAlgRejected, audit.ResultFailure)
		ctx.Reason = "malformed AlgorithmIdentifier"
	}
	if event == nil {
		err = sink.Err()
	} else {
		err = h.record(r, sink, event.WithObject(obj), ctx)
	}
	if err != nil {
		h.auditFailed(w, err)
		return
	}

	decision, err := h.decide(r, obj, report)
	if err != nil {
		h.auditFailed(w, err)
		return
	}
	respond(w, r, http.StatusOK, dto.ClassifyResponse{Report: report, Policy: decision})
}

// Inspect handles POST /api/v1/certificates/inspect.
//
// The body is either an InspectRequest, or raw DER with one of the
// application/pkix-cert, application/pkcs10 or application/pkix-crl
// content types.
func (h *SigAlgHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	der, kind, apiErr := readInspectInput(r)
	if apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr)
		return
	}

	obj := audit.Object{Type: string(kind), Fingerprint: audit.Fingerprint(der)}
	sink := audit.SinkFor(auditSource, obj).WithActor(clientActor(r))
	report, err := inspect.Inspect(kind, der, sink)
	if err != nil {
		ctx := audit.Context{Reason: err.Error()}
		if aerr := h.record(r, sink, audit.NewEvent(audit.EventCertInspected, audit.ResultFailure).WithObject(obj), ctx); aerr != nil {
			h.auditFailed(w, aerr)
			return
		}
		status, apiErr := apierrors.MapError(err)
		respondError(w, status, apiErr)
		return
	}

	result := audit.ResultSuccess
	if !report.Recognized() {
		result = audit.ResultFailure
	}
	ctx := audit.Context{Algorithm: report.Signature.Name, OID: report.Signature.OID}
	if err := h.record(r, sink, audit.NewEvent(audit.EventCertInspected, result).WithObject(obj), ctx); err != nil {
		h.auditFailed(w, err)
		return
	}

	decision, err := h.decide(r, obj, report)
	if err != nil {
		h.auditFailed(w, err)
		return
	}
	respond(w, r, http.StatusOK, dto.InspectResponse{Report: report, Policy: decision})
}

// ChannelBinding handles POST /api/v1/channel-binding. Unlike classify and
// inspect, a policy refusal fails the request.
func (h *SigAlgHandler) ChannelBinding(w http.ResponseWriter, r *http.Request) {
	var req dto.ChannelBindingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest(err.Error()))
		return
	}
	der, pemType, err := req.Certificate.Decode()
	if err != nil {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest(err.Error()))
		return
	}
	if pemType != "" {
		if kind, ok := inspect.KindFromPEMType(pemType); !ok || kind != inspect.KindCertificate {
			respondError(w, http.StatusBadRequest, apierrors.NewBadRequest("PEM block is not a certificate: "+pemType))
			return
		}
	}

	obj := audit.Object{Type: string(inspect.KindCertificate), Fingerprint: audit.Fingerprint(der)}
	sink := audit.SinkFor(auditSource, obj).WithActor(clientActor(r))
	binding, err := channelbinding.Compute(der, sink)
	if err != nil {
		ctx := audit.Context{Reason: err.Error()}
		if aerr := h.record(r, sink, audit.NewEvent(audit.EventChannelBinding, audit.ResultFailure).WithObject(obj), ctx); aerr != nil {
			h.auditFailed(w, aerr)
			return
		}
		status, apiErr := apierrors.MapError(err)
		respondError(w, status, apiErr)
		return
	}

	if err := h.policy.Check(binding.Algorithm); err != nil {
		if aerr := h.violation(r, obj, err); aerr != nil {
			h.auditFailed(w, aerr)
			return
		}
		status, apiErr := apierrors.MapError(err)
		respondError(w, status, apiErr)
		return
	}

	ctx := audit.Context{Algorithm: binding.Algorithm.String(), Digest: binding.Digest.String()}
	if err := h.record(r, sink, audit.NewEvent(audit.EventChannelBinding, audit.ResultSuccess).WithObject(obj), ctx); err != nil {
		h.auditFailed(w, err)
		return
	}

	respond(w, r, http.StatusOK, dto.ChannelBindingResponse{
		Type:        channelbinding.Type,
		Algorithm:   binding.Algorithm.String(),
		Digest:      binding.Digest.String(),
		Value:       hex.EncodeToString(binding.Value),
		ValueBase64: base64.StdEncoding.EncodeToString(binding.Value),
	})
}

// hashName names the message digest. MD2 has no crypto.Hash value.
func hashName(alg sigalg.SignatureAlgorithm) string {
	if alg == sigalg.RSAPKCS1MD2 {
		return "MD2"
	}
	return alg.Hash().String()
}

// decide applies the policy to report and audits a refusal.
func (h *SigAlgHandler) decide(r *http.Request, obj audit.Object, report *inspect.Report) (dto.PolicyDecision, error) {
	decision := dto.PolicyDecision{Name: h.policy.Name, Allowed: true}
	err := h.policy.CheckReport(report)
	if err == nil {
		return decision, nil
	}

	decision.Allowed = false
	decision.Reason = err.Error()
	var violation *policy.ViolationError
	if errors.As(err, &violation) {
		decision.Reason = violation.Reason
	}
	return decision, h.violation(r, obj, err)
}

func (h *SigAlgHandler) violation(r *http.Request, obj audit.Object, err error) error {
	ctx := audit.Context{Policy: h.policy.Name, Reason: err.Error()}
	var violation *policy.ViolationError
	if errors.As(err, &violation) {
		ctx.Algorithm, ctx.Reason = violation.Algorithm, violation.Reason
	}
	h.logger.Info("policy violation",
		zap.String("policy", h.policy.Name),
		zap.String("algorithm", ctx.Algorithm),
		zap.String("reason", ctx.Reason),
		zap.String("fingerprint", obj.Fingerprint),
	)
	return h.record(r, nil, audit.NewEvent(audit.EventPolicyViolation, audit.ResultFailure).WithObject(obj), ctx)
}

// record writes event after any failure the sink already hit.
func (h *SigAlgHandler) record(r *http.Request, sink *audit.Sink, event *audit.Event, ctx audit.Context) error {
	if sink != nil {
		if err := sink.Err(); err != nil {
			return err
		}
	}
	ctx.Source = auditSource
	return audit.MustLog(event.WithActor(clientActor(r)).WithContext(ctx))
}

func (h *SigAlgHandler) auditFailed(w http.ResponseWriter, err error) {
	h.logger.Error("audit write failed", zap.Error(err))
	status, apiErr := apierrors.MapError(err)
	respondError(w, status, apiErr)
}

// clientActor identifies the remote peer in audit events.
func clientActor(r *http.Request) audit.Actor {
	return audit.Actor{Type: "client", ID: r.RemoteAddr}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func readInspectInput(r *http.Request) ([]byte, inspect.Kind, *dto.APIError) {
	if kind, ok := rawContentTypes[mediaType(r)]; ok {
		der, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, "", apierrors.NewBadRequest("failed to read body: " + err.Error())
		}
		if len(der) == 0 {
			return nil, "", apierrors.NewBadRequest("empty body")
		}
		return der, kind, nil
	}

	var req dto.InspectRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, "", apierrors.NewBadRequest(err.Error())
	}
	der, pemType, err := req.Data.Decode()
	if err != nil {
		return nil, "", apierrors.NewBadRequest(err.Error())
	}

	kind := inspect.KindCertificate
	if pemType != "" {
		k, ok := inspect.KindFromPEMType(pemType)
		if !ok {
			return nil, "", apierrors.NewBadRequest("unsupported PEM block type: " + pemType)
		}
		kind = k
	}
	if req.Kind != "" {
		k, err := inspect.ParseKind(req.Kind)
		if err != nil || k == inspect.KindAlgorithmIdentifier {
			return nil, "", apierrors.NewValidationError("unsupported kind", map[string]string{"kind": req.Kind})
		}
		kind = k
	}
	return der, kind, nil
}
