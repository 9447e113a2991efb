package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/goccy/go-json"
)

// EnvelopeVersion is the value of the "v" field in every response.
const EnvelopeVersion = 1

// Envelope wraps successful responses.
type Envelope struct {
	Version int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorEnvelope wraps error responses. Error repeats Message for clients
// that only read a single string.
type ErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps every response body
// in Envelope, or ErrorEnvelope for errors.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case *APIError:
		return &ErrorEnvelope{
			Version: EnvelopeVersion,
			Error:   body.Message,
			Code:    body.Code,
			Message: body.Message,
			Details: body.Details,
		}, nil
	case *Envelope, *ErrorEnvelope:
		return v, nil
	default:
		return &Envelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
	}
}

// writeErrorEnvelope writes an error response outside of huma, for plain
// chi middleware.
func writeErrorEnvelope(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&ErrorEnvelope{
		Version: EnvelopeVersion,
		Error:   message,
		Code:    code,
		Message: message,
	})
}

// emptyResponse is the body of operations that return no data.
type emptyResponse struct {
	OK bool `json:"ok"`
}
