// Package cli holds the input decoding and output rendering shared by the
// sigalg commands.
package cli

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/remiblancher/sigalg/pkg/inspect"
)

// Input is decoded DER plus what its encoding said about it.
type Input struct {
	DER []byte

	// Kind is set when the input was PEM with a recognized block type.
	Kind inspect.Kind

	// Source is the file path, "-" for stdin, or "argument".
	Source string
}

// ReadInput reads path, or stdin when path is "-", and decodes it.
func ReadInput(path string, stdin io.Reader) (*Input, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	in, err := DecodeInput(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	in.Source = path
	return in, nil
}

// DecodeInput accepts PEM, hex, base64 or raw DER, in that order of
// preference.
func DecodeInput(data []byte) (*Input, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	if block, _ := pem.Decode(trimmed); block != nil {
		kind, _ := inspect.KindFromPEMType(block.Type)
		return &Input{DER: block.Bytes, Kind: kind}, nil
	}

	compact := strings.Join(strings.Fields(string(trimmed)), "")
	if der, err := hex.DecodeString(compact); err == nil && looksLikeDER(der) {
		return &Input{DER: der}, nil
	}
	if der, err := base64.StdEncoding.DecodeString(compact); err == nil && looksLikeDER(der) {
		return &Input{DER: der}, nil
	}
	if looksLikeDER(data) {
		return &Input{DER: data}, nil
	}
	return nil, fmt.Errorf("input is not PEM, hex, base64 or DER")
}

// looksLikeDER checks for a leading SEQUENCE tag. Classification does the
// real validation.
func looksLikeDER(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x30
}

// KindOr returns in.Kind, or def when the input did not name one.
func (in *Input) KindOr(def inspect.Kind) inspect.Kind {
	if in.Kind != "" {
		return in.Kind
	}
	return def
}
