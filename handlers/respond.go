// backend/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// Helper to respond with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshalling JSON response: %v", err)
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func respondWithError(w http.ResponseWriter, code int, message string) {
	log.Printf("API Error %d: %s", code, message)
	respondWithJSON(w, code, map[string]string{"error": message})
}

// kinder is implemented by the typed service errors: a machine-readable kind
// alongside a client-safe message.
type kinder interface {
	error
	Kind() string
}

// respondWithServiceError maps a typed service error to its HTTP status.
// Anything untyped is an opaque 500.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var k kinder
	if !errors.As(err, &k) {
		log.Printf("API Error 500 (untyped): %v", err)
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch k.Kind() {
	case "validation_error":
		status = http.StatusBadRequest
	case "not_found":
		status = http.StatusNotFound
	case "upstream_timeout", "upstream_failure":
		status = http.StatusServiceUnavailable
	case "conflict":
		status = http.StatusConflict
	}

	log.Printf("API Error %d (%s): %s", status, k.Kind(), k.Error())
	respondWithJSON(w, status, map[string]string{"error": k.Error(), "code": k.Kind()})
}
