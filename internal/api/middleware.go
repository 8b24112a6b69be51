package api

import (
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/yabaapp/yaba-server/internal/errors"
)

// EnvelopeVersion is the current response envelope version. Clients reject
// envelopes with a version they do not understand.
const EnvelopeVersion = 1

// APIEnvelope wraps every JSON response body.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope is the envelope for domain errors, which carry a code and
// optional details alongside the message.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// messageBody is implemented by response bodies that carry a human-readable
// message next to their payload, such as "Transaction successfully created".
type messageBody interface {
	envelope() (message string, data any)
}

// EnvelopeTransformer wraps response bodies in the versioned envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)

	var (
		apiErr    *APIError
		domainErr *domainerrors.Error
	)
	if err, ok := v.(error); ok {
		if errors.As(err, &domainErr) {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Error:   domainErr.Message,
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Details: domainErr.Details,
			}, nil
		}
		if errors.As(err, &apiErr) {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Error:   apiErr.Message,
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			}, nil
		}
		return APIEnvelope{Version: EnvelopeVersion, Success: false, Error: err.Error()}, nil
	}

	if mb, ok := v.(messageBody); ok {
		msg, data := mb.envelope()
		return APIEnvelope{Version: EnvelopeVersion, Success: code < 400, Message: msg, Data: data}, nil
	}

	return APIEnvelope{Version: EnvelopeVersion, Success: code < 400, Data: v}, nil
}
