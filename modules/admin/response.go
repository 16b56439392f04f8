package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/grimoire/pkg/logger"
)

// Envelope is the body of every response.
type Envelope struct {
	Data  any          `json:"data"`
	Error *ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.LogAttrs(r.Context(), slog.LevelWarn, "failed to write response",
			logger.Component("admin"),
			logger.Error(err),
		)
	}
}

func respond(w http.ResponseWriter, r *http.Request, log *slog.Logger, data any) {
	writeJSON(w, r, log, http.StatusOK, Envelope{Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, status int, code, msg string) {
	writeJSON(w, r, log, status, Envelope{Error: &ErrorDetail{Code: code, Message: msg}})
}
