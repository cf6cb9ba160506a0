// Package respond holds the JSON response helpers shared by HTTP handlers.
package respond

import (
	"encoding/json"
	"net/http"
)

// Result mirrors the acknowledgement shape clients already consume for writes.
type Result struct {
	Acknowledged  bool   `json:"acknowledged"`
	InsertedID    string `json:"insertedId,omitempty"`
	ModifiedCount int64  `json:"modifiedCount,omitempty"`
	DeletedCount  int64  `json:"deletedCount,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Inserted acknowledges a created record.
func Inserted(id string) Result {
	return Result{Acknowledged: true, InsertedID: id}
}

// Rejected reports a business-rule rejection that is not an HTTP error.
func Rejected(message string) Result {
	return Result{Acknowledged: false, Message: message}
}

// JSON writes payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Error writes {"message": msg} with the given status code.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// Decode reads a JSON request body into dst.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
