package auth

import (
	"net/http"

	"medbee/pkg/platform/httputil"
)

// FailureMode renders a guard or gate denial. Each route group declares one.
type FailureMode interface {
	Deny(w http.ResponseWriter, r *http.Request, status int, message string)
}

type jsonFailure struct{}

// JSONFailure answers with the status and {"message": ...}.
func JSONFailure() FailureMode { return jsonFailure{} }

func (jsonFailure) Deny(w http.ResponseWriter, _ *http.Request, status int, message string) {
	httputil.WriteMessage(w, status, message)
}

type redirectFailure struct {
	location string
}

// RedirectFailure sends the browser to location regardless of the denial status.
func RedirectFailure(location string) FailureMode { return redirectFailure{location: location} }

func (f redirectFailure) Deny(w http.ResponseWriter, r *http.Request, _ int, _ string) {
	http.Redirect(w, r, f.location, http.StatusFound)
}
