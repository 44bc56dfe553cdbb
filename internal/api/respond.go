package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mitchellh/mapstructure"
)

const maxBodyBytes = 1 << 20

// ErrBadRequest marks a body that is not a JSON object of the expected shape.
var ErrBadRequest = errors.New("bad request")

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, details any) {
	if s, ok := details.(string); ok && s == "" {
		details = nil
	}
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

// decodePayload reads a JSON object and decodes it into target with weak typing,
// so numbers sent as strings and strings sent as numbers are both accepted.
func decodePayload(w http.ResponseWriter, r *http.Request, target any) error {
	var payload map[string]any

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", ErrBadRequest, err)
	}
	if payload == nil {
		return fmt.Errorf("%w: body must be a JSON object", ErrBadRequest)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("create payload decoder: %w", err)
	}

	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	return nil
}
