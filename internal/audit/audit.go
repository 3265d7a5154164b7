package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalWriter Writer = NopWriter{}
	enabled      bool
)

// Init installs w as the global audit writer. A nil writer disables
// auditing.
func Init(w Writer) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if w == nil {
		globalWriter, enabled = NopWriter{}, false
		return nil
	}
	globalWriter, enabled = w, true
	return nil
}

// InitFile installs a FileWriter for path. An empty path disables auditing.
func InitFile(path string) error {
	if path == "" {
		return Init(nil)
	}
	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	return Init(w)
}

// Close closes the global writer and disables auditing.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	err := globalWriter.Close()
	globalWriter, enabled = NopWriter{}, false
	return err
}

// Enabled reports whether auditing is active.
func Enabled() bool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return enabled
}

// Ready reports whether events can currently be recorded. It is true when
// auditing is disabled.
func Ready() bool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if fw, ok := globalWriter.(*FileWriter); ok {
		return fw.open()
	}
	return true
}

// Log writes event to the global writer.
func Log(event *Event) error {
	globalMu.RLock()
	w := globalWriter
	globalMu.RUnlock()
	return w.Write(event)
}

// MustLog is Log with an error suitable for failing the caller:
//
//	if err := audit.MustLog(event); err != nil {
//	    return err
//	}
func MustLog(event *Event) error {
	if err := Log(event); err != nil {
		return fmt.Errorf("audit log failed: %w", err)
	}
	return nil
}

// Fingerprint returns "sha256:<hex>" of der, the form used in Object.
func Fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	return HashPrefix + hex.EncodeToString(sum[:])
}

func resultOf(success bool) Result {
	if success {
		return ResultSuccess
	}
	return ResultFailure
}

// LogClassified records the outcome of classifying an AlgorithmIdentifier.
// Rejections are normally recorded through SinkFor, which has access to
// the raw OID and parameters; this records the overall result.
func LogClassified(source string, obj Object, algorithm string, success bool) error {
	eventType := EventSigAlgClassified
	if !success {
		eventType = EventSigAlgRejected
	}
	return MustLog(NewEvent(eventType, resultOf(success)).
		WithObject(obj).
		WithContext(Context{Source: source, Algorithm: algorithm}))
}

// LogInspected records a certificate, CSR or CRL inspection.
func LogInspected(source string, obj Object, algorithm string, success bool, reason string) error {
	return MustLog(NewEvent(EventCertInspected, resultOf(success)).
		WithObject(obj).
		WithContext(Context{Source: source, Algorithm: algorithm, Reason: reason}))
}

// LogChannelBinding records a tls-server-end-point computation.
func LogChannelBinding(source string, obj Object, algorithm, digest string, success bool, reason string) error {
	return MustLog(NewEvent(EventChannelBinding, resultOf(success)).
		WithObject(obj).
		WithContext(Context{Source: source, Algorithm: algorithm, Digest: digest, Reason: reason}))
}

// LogPolicyViolation records an input refused by a policy.
func LogPolicyViolation(source string, obj Object, policy, algorithm, reason string) error {
	return MustLog(NewEvent(EventPolicyViolation, ResultFailure).
		WithObject(obj).
		WithContext(Context{Source: source, Policy: policy, Algorithm: algorithm, Reason: reason}))
}

// LogServer records an API server start or stop.
func LogServer(eventType EventType, addr, policy string) error {
	return MustLog(NewEvent(eventType, ResultSuccess).
		WithActor(Actor{Type: "service", ID: "sigalg-server"}).
		WithObject(Object{Type: "server", Path: addr}).
		WithContext(Context{Source: "api", Policy: policy}))
}
