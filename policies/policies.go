// Package policies provides the embedded built-in acceptance policies.
//
// Each file is a pkg/policy YAML document. Users can copy and customize
// them and pass the copy with --policy.
package policies

import "embed"

// FS contains all embedded policy YAML files.
//   - default.yaml - every catalogue algorithm
//   - modern.yaml  - no MD2/MD4/MD5/SHA-1 and matching signature fields
//   - tls13.yaml   - only algorithms TLS 1.3 can negotiate, with a binding
//   - legacy.yaml  - everything except MD2 and MD4
//
//go:embed *.yaml
var FS embed.FS
