package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"casamento-presentes/internal/gifts"
)

const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error        string `json:"error"`
	MaxAvailable *int   `json:"maxAvailable,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeReserveError maps an engine outcome to a status code. Internal details stay in
// the logs.
func writeReserveError(w http.ResponseWriter, err error) {
	body := errorResponse{Error: gifts.UserMessage(err)}

	var capErr *gifts.CapacityError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &capErr):
		status = http.StatusBadRequest
		remaining := capErr.Remaining
		body.MaxAvailable = &remaining
	case errors.Is(err, gifts.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, gifts.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, gifts.ErrConflict):
		status = http.StatusConflict
	}
	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after JSON body")
	}
	return nil
}
