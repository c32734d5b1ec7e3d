// Package httputil holds the JSON envelope shared by every API handler.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Response is the wire shape of all API replies. Status is "ok" or "error";
// exactly one of Data and Error is populated.
type Response struct {
	Status string       `json:"status"`
	Data   interface{}  `json:"data,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries a stable machine-readable code alongside the
// human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeEnvelope(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// WriteJSON replies with an "ok" envelope wrapping data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, Response{Status: "ok", Data: data})
}

// WriteError replies with an "error" envelope. code should be a stable
// SCREAMING_SNAKE identifier clients can switch on.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, Response{
		Status: "error",
		Error:  &ErrorDetail{Code: code, Message: message},
	})
}

// ReadJSON decodes a request body into dst and closes it.
func ReadJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
