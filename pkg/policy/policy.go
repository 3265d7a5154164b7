package policy

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/remiblancher/sigalg/pkg/inspect"
	"github.com/remiblancher/sigalg/pkg/sigalg"
	"github.com/remiblancher/sigalg/policies"
)

// Policy restricts which classified algorithms are acceptable.
type Policy struct {
	Name        string
	Description string

	// Allow lists the accepted algorithms. Empty means the whole catalogue.
	Allow []sigalg.SignatureAlgorithm

	// Deny always wins over Allow.
	Deny []sigalg.SignatureAlgorithm

	// RejectWeakDigests refuses MD2, MD4, MD5 and SHA-1 based algorithms.
	RejectWeakDigests bool

	// RequireChannelBinding refuses algorithms without a
	// tls-server-end-point digest.
	RequireChannelBinding bool

	// RequireMatchingSignatures refuses certificates and CRLs whose
	// TBS signature field differs from the outer one.
	RequireMatchingSignatures bool
}

// policyYAML is the YAML representation of a Policy.
type policyYAML struct {
	Name                      string   `yaml:"name"`
	Description               string   `yaml:"description,omitempty"`
	Allow                     []string `yaml:"allow,omitempty"`
	Deny                      []string `yaml:"deny,omitempty"`
	RejectWeakDigests         bool     `yaml:"reject_weak_digests,omitempty"`
	RequireChannelBinding     bool     `yaml:"require_channel_binding,omitempty"`
	RequireMatchingSignatures bool     `yaml:"require_matching_signatures,omitempty"`
}

// Default returns the permissive policy that accepts the whole catalogue.
func Default() *Policy {
	return &Policy{
		Name:        "default",
		Description: "Accept every algorithm the classifier recognizes.",
	}
}

// Load reads a policy from a YAML file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML policy.
func Parse(data []byte) (*Policy, error) {
	var py policyYAML
	if err := yaml.Unmarshal(data, &py); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	p := &Policy{
		Name:                      py.Name,
		Description:               py.Description,
		RejectWeakDigests:         py.RejectWeakDigests,
		RequireChannelBinding:     py.RequireChannelBinding,
		RequireMatchingSignatures: py.RequireMatchingSignatures,
	}

	var err error
	if p.Allow, err = resolveNames("allow", py.Allow); err != nil {
		return nil, err
	}
	if p.Deny, err = resolveNames("deny", py.Deny); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func resolveNames(field string, names []string) ([]sigalg.SignatureAlgorithm, error) {
	var out []sigalg.SignatureAlgorithm
	for i, name := range names {
		alg, err := sigalg.ParseName(strings.TrimSpace(name))
		if err != nil {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Value:   name,
				Message: "not a known signature algorithm",
			}
		}
		out = append(out, alg)
	}
	return out, nil
}

// Builtin loads one of the embedded policies by name.
func Builtin(name string) (*Policy, error) {
	data, err := fs.ReadFile(policies.FS, name+".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, name)
	}
	return Parse(data)
}

// BuiltinNames lists the embedded policies in lexical order.
func BuiltinNames() []string {
	entries, err := fs.ReadDir(policies.FS, ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if path.Ext(e.Name()) == ".yaml" {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	return names
}

// Resolve loads ref as a built-in policy name, or as a file path when no
// built-in has that name. An empty ref yields Default.
func Resolve(ref string) (*Policy, error) {
	if ref == "" {
		return Default(), nil
	}
	if slices.Contains(BuiltinNames(), ref) {
		return Builtin(ref)
	}
	return Load(ref)
}

// Validate checks the policy for internal consistency.
func (p *Policy) Validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}
	for i, alg := range p.Allow {
		if !alg.Valid() {
			return &ValidationError{Field: fmt.Sprintf("allow[%d]", i), Value: alg.String(), Message: "not a catalogue entry"}
		}
	}
	for i, alg := range p.Deny {
		if !alg.Valid() {
			return &ValidationError{Field: fmt.Sprintf("deny[%d]", i), Value: alg.String(), Message: "not a catalogue entry"}
		}
	}
	if len(p.Allow) > 0 && len(p.Accepted()) == 0 {
		return &ValidationError{Field: "allow", Message: "every allowed algorithm is refused by another rule"}
	}
	return nil
}

// Marshal encodes the policy back to YAML.
func (p *Policy) Marshal() ([]byte, error) {
	py := policyYAML{
		Name:                      p.Name,
		Description:               p.Description,
		RejectWeakDigests:         p.RejectWeakDigests,
		RequireChannelBinding:     p.RequireChannelBinding,
		RequireMatchingSignatures: p.RequireMatchingSignatures,
	}
	for _, a := range p.Allow {
		py.Allow = append(py.Allow, a.String())
	}
	for _, a := range p.Deny {
		py.Deny = append(py.Deny, a.String())
	}
	return yaml.Marshal(&py)
}

// Check returns a *ViolationError wrapping ErrAlgorithmNotAllowed when alg
// is refused. sigalg.Unknown is always refused.
func (p *Policy) Check(alg sigalg.SignatureAlgorithm) error {
	if reason := p.refusal(alg); reason != "" {
		return &ViolationError{Policy: p.Name, Algorithm: alg.String(), Reason: reason, Err: ErrAlgorithmNotAllowed}
	}
	return nil
}

func (p *Policy) refusal(alg sigalg.SignatureAlgorithm) string {
	if !alg.Valid() {
		return "unrecognized signature algorithm"
	}
	if slices.Contains(p.Deny, alg) {
		return "explicitly denied"
	}
	if len(p.Allow) > 0 && !slices.Contains(p.Allow, alg) {
		return "not in the allow list"
	}
	if p.RejectWeakDigests && alg.IsWeak() {
		return "weak digest"
	}
	if p.RequireChannelBinding {
		if _, ok := sigalg.TLSServerEndpointDigest(alg); !ok {
			return "no tls-server-end-point digest"
		}
	}
	return ""
}

// Accepted lists the catalogue entries the policy accepts.
func (p *Policy) Accepted() []sigalg.SignatureAlgorithm {
	var out []sigalg.SignatureAlgorithm
	for _, alg := range sigalg.All() {
		if p.refusal(alg) == "" {
			out = append(out, alg)
		}
	}
	return out
}

// CheckReport applies the policy to every algorithm of an inspection
// report, and to the signature field match when required.
func (p *Policy) CheckReport(r *inspect.Report) error {
	for _, ar := range []*inspect.AlgorithmReport{r.Signature, r.TBSSignature} {
		if ar == nil {
			continue
		}
		if err := p.Check(ar.Algorithm()); err != nil {
			return err
		}
	}
	if p.RequireMatchingSignatures && r.SignaturesMatch != nil && !*r.SignaturesMatch {
		return &ViolationError{
			Policy:    p.Name,
			Algorithm: r.Signature.Name,
			Reason:    "TBS signature field differs from signatureAlgorithm",
			Err:       ErrSignatureMismatch,
		}
	}
	return nil
}
