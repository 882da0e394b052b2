package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"salesadmin/pkg/errors"
)

// maxJSONBody caps JSON request bodies
const maxJSONBody = 4 << 20

// respondJSON writes data as a JSON response
func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// decodeJSON reads a JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if err == io.EOF {
			return errors.NewValidationError("request body is required")
		}
		return errors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}

// resultAs unpacks a bus result into the handler's concrete result type
func resultAs[R any](result interface{}, err error) (R, error) {
	var zero R
	if err != nil {
		return zero, err
	}
	typed, ok := result.(R)
	if !ok {
		return zero, errors.NewInternalError(fmt.Sprintf("unexpected result type %T", result))
	}
	return typed, nil
}
