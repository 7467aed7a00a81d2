package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/logger"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.New().WithError(err).Warn("failed to write response")
	}
}

// WriteError renders err in the {"error": {...}} envelope. Only the
// user-safe message leaves the process.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.New().WithError(err).Error("request failed", "method", r.Method, "path", r.URL.Path)
	}
	writeJSON(w, status, map[string]errorBody{
		"error": {
			Message:   apperr.Message(err),
			Code:      string(apperr.KindOf(err)),
			Retryable: apperr.Retryable(err),
		},
	})
}

func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return apperr.Validation("request body is required")
	} else if err != nil {
		return apperr.Validation("invalid JSON body")
	}
	return nil
}

func success(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}
