// Package dto provides Data Transfer Objects for the REST API.
package dto

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strings"
)

// BinaryData represents binary data with encoding metadata.
type BinaryData struct {
	// Data is the encoded content.
	Data string `json:"data"`

	// Encoding specifies the encoding format: "base64" (default), "hex" or "pem".
	Encoding string `json:"encoding,omitempty"`
}

// Decode returns the DER bytes and, for PEM input, the block type.
func (b *BinaryData) Decode() (der []byte, pemType string, err error) {
	if b == nil || b.Data == "" {
		return nil, "", fmt.Errorf("binary data is empty")
	}
	switch b.Encoding {
	case "base64", "":
		der, err = base64.StdEncoding.DecodeString(strings.TrimSpace(b.Data))
	case "hex":
		der, err = hex.DecodeString(strings.Join(strings.Fields(b.Data), ""))
	case "pem":
		block, _ := pem.Decode([]byte(b.Data))
		if block == nil {
			return nil, "", fmt.Errorf("failed to decode PEM block")
		}
		return block.Bytes, block.Type, nil
	default:
		return nil, "", fmt.Errorf("unsupported encoding: %s", b.Encoding)
	}
	if err != nil {
		return nil, "", fmt.Errorf("invalid %s data: %w", b.encoding(), err)
	}
	return der, "", nil
}

func (b *BinaryData) encoding() string {
	if b.Encoding == "" {
		return "base64"
	}
	return b.Encoding
}

// APIError represents a standardized error response.
type APIError struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details provides additional context about the error.
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Status is "ok" or "degraded".
	Status string `json:"status"`

	// Version is the server version.
	Version string `json:"version"`

	// Policy is the name of the acceptance policy in force.
	Policy string `json:"policy,omitempty"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	// Ready indicates if the server is ready to accept requests.
	Ready bool `json:"ready"`

	// Checks lists individual readiness checks.
	Checks map[string]bool `json:"checks,omitempty"`
}
