// Package api defines the JSON response envelope shared by every endpoint:
// {"metadata":{"success":bool},"error":{code,message}|null,"data":...|null}.
package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// Metadata carries request-level response metadata.
type Metadata struct {
	Success bool `json:"success"`
}

// Error is the machine-readable error payload. Code is a stable identifier
// (e.g. "phone_not_found"); Message is safe to show to end users.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the top-level response body.
type Envelope struct {
	Metadata Metadata    `json:"metadata"`
	Error    *Error      `json:"error"`
	Data     interface{} `json:"data"`
}

// WriteSuccess writes a success envelope with the given status and data.
func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, Envelope{
		Metadata: Metadata{Success: true},
		Data:     data,
	})
}

// WriteError writes a failure envelope with the given status, code, and message.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{
		Metadata: Metadata{Success: false},
		Error:    &Error{Code: code, Message: message},
	})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("api: write response: %v", err)
	}
}
