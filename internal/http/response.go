package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vhtruong/product-catalog/internal/http/apierr"
)

type responder struct {
	logger *slog.Logger
}

func (re responder) respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if payload == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		re.logger.ErrorContext(r.Context(), "error encoding response",
			slog.Any("error", err))
	}
}

func (re responder) respondError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	logLevel := slog.LevelInfo
	if res.Status >= 500 {
		logLevel = slog.LevelError
	} else if res.Status >= 400 {
		logLevel = slog.LevelWarn
	}
	re.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	re.respondJSON(w, r, res.Status, res)
}
