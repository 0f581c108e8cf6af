// Package httputil holds the JSON response and request helpers shared by every handler.
package httputil

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	dErrors "medbee/pkg/domain-errors"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// MessageResponse is the canonical error and acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationResponse lists individual field failures.
type ValidationResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, MessageResponse{Message: msg})
}

// WriteError maps a domain error to its HTTP status. Internal errors never
// leak their cause to the client.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	status := StatusFor(de.Code)
	if de.Code == dErrors.CodeValidation {
		WriteJSON(w, status, ValidationResponse{Message: de.Message, Errors: de.Details})
		return
	}
	if status == http.StatusInternalServerError && de.Message == "" {
		WriteMessage(w, status, "Internal server error")
		return
	}
	WriteMessage(w, status, de.Message)
}

// StatusFor returns the HTTP status for a domain error code.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes the request body into dst. An empty body decodes to the
// zero value so handlers can run their own required-field validation.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "Unable to read request body")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "Malformed JSON body")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid request body")
	}
	return nil
}
