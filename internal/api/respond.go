package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/icp-engine/internal/apperr"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("error encoding response", zap.Error(err))
	}
}

// writeError maps an error to its HTTP status and a client-safe message.
// Non-operational failures log the full chain and surface a generic message
// in production.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperr.StatusCode(err)
	body := errorBody{
		Code:    "INTERNAL_ERROR",
		Message: apperr.ClientMessage(err, s.production),
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		body.Code = string(ae.Kind)
		if ae.Operational {
			body.Details = ae.Details
		}
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}

	writeJSON(w, status, errorResponse{Success: false, Error: body})
}
