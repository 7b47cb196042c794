package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/parscrape/pkg/models"
)

// maxRequestBytes caps the size of a POST /scrape body.
const maxRequestBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response body")
	}
}

func writeError(w http.ResponseWriter, e *Error) {
	writeJSON(w, e.Status, models.ErrorResponse{
		Error:  e.Title(),
		Type:   string(e.Code),
		Detail: e.Detail,
	})
}

// decodeJSON reads a single JSON object from r into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) *Error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return validationError(http.StatusUnprocessableEntity, "invalid request body: empty body", err)
		}
		return validationError(http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err), err)
	}
	if dec.More() {
		return validationError(http.StatusUnprocessableEntity, "invalid request body: trailing data after JSON object", nil)
	}
	return nil
}
