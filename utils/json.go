package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error string `json:"error"`
}

// ReadJSON decodes a single JSON document from r into v.
// An empty body leaves v untouched
func ReadJSON(r io.Reader, v interface{}) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// WriteJSON writes v as JSON with the given status code
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error body with the given status code
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Error: message})
}
