// Package errors provides error handling and HTTP status code mapping.
package errors

import (
	"errors"
	"net/http"

	"github.com/remiblancher/sigalg/internal/api/dto"
	"github.com/remiblancher/sigalg/pkg/channelbinding"
	"github.com/remiblancher/sigalg/pkg/policy"
	"github.com/remiblancher/sigalg/pkg/x509util"
)

// Error codes for API responses.
const (
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeNotFound               = "NOT_FOUND"
	CodeValidation             = "VALIDATION_ERROR"
	CodeInternal               = "INTERNAL_ERROR"
	CodeMalformedDER           = "MALFORMED_DER"
	CodeUnrecognizedAlgorithm  = "UNRECOGNIZED_ALGORITHM"
	CodeNoBindingDigest        = "NO_BINDING_DIGEST"
	CodePolicyViolation        = "POLICY_VIOLATION"
	CodeSignatureFieldMismatch = "SIGNATURE_FIELD_MISMATCH"
)

// MapError maps an internal error to an HTTP status code and APIError.
func MapError(err error) (int, *dto.APIError) {
	if err == nil {
		return http.StatusOK, nil
	}

	// Policy refusals carry structured context
	var violation *policy.ViolationError
	if errors.As(err, &violation) {
		code := CodePolicyViolation
		if errors.Is(err, policy.ErrSignatureMismatch) {
			code = CodeSignatureFieldMismatch
		}
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    code,
			Message: violation.Error(),
			Details: map[string]string{
				"policy":    violation.Policy,
				"algorithm": violation.Algorithm,
				"reason":    violation.Reason,
			},
		}
	}

	switch {
	case errors.Is(err, x509util.ErrMalformed):
		return http.StatusBadRequest, &dto.APIError{
			Code:    CodeMalformedDER,
			Message: err.Error(),
		}
	case errors.Is(err, channelbinding.ErrUnrecognizedAlgorithm):
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    CodeUnrecognizedAlgorithm,
			Message: err.Error(),
		}
	case errors.Is(err, channelbinding.ErrNoBindingDigest):
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    CodeNoBindingDigest,
			Message: err.Error(),
		}
	case errors.Is(err, policy.ErrAlgorithmNotAllowed):
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    CodePolicyViolation,
			Message: err.Error(),
		}
	case errors.Is(err, policy.ErrSignatureMismatch):
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    CodeSignatureFieldMismatch,
			Message: err.Error(),
		}
	}

	// Default internal error
	return http.StatusInternalServerError, &dto.APIError{
		Code:    CodeInternal,
		Message: "An internal error occurred",
	}
}

// NewBadRequest creates a bad request error.
func NewBadRequest(message string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeInvalidRequest,
		Message: message,
	}
}

// NewNotFound creates a not found error.
func NewNotFound(resource, id string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeNotFound,
		Message: resource + " not found",
		Details: map[string]string{"id": id},
	}
}

// NewValidationError creates a validation error.
func NewValidationError(message string, details map[string]string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeValidation,
		Message: message,
		Details: details,
	}
}
