package admin

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	authmodels "medbee/internal/auth/models"
	id "medbee/pkg/domain"
	dErrors "medbee/pkg/domain-errors"
	"medbee/pkg/platform/httputil"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/requestcontext"
)

const (
	LoginPath     = "/admin/login"
	DashboardPath = "/admin/dashboard"

	MsgInvalidCredentials = "Invalid credentials"
	MsgLoginFailed        = "An error occurred during login. Please try again."
	MsgMetricsFailed      = "Error retrieving admin metrics"
)

var loginForm = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>MedBee Admin</title></head>
<body>
<h1>MedBee Admin</h1>
{{if .}}<p class="error">{{.}}</p>{{end}}
<form method="POST" action="/admin/login">
<label>Email <input type="email" name="email" required></label>
<label>Password <input type="password" name="password" required></label>
<button type="submit">Log in</button>
</form>
</body>
</html>
`))

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*authmodels.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID id.UserID, ttl time.Duration) (string, error)
}

type Dashboards interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

// CookieConfig shapes the session cookie set on admin login.
type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler serves /admin. Its guard is expected to redirect to the login page.
type Handler struct {
	auth       Authenticator
	tokens     TokenIssuer
	dashboards Dashboards
	guard      *authmw.Guard
	cookie     CookieConfig
	logger     *slog.Logger
}

func NewHandler(auth Authenticator, tokens TokenIssuer, dashboards Dashboards, guard *authmw.Guard, cookie CookieConfig, logger *slog.Logger) *Handler {
	return &Handler{
		auth:       auth,
		tokens:     tokens,
		dashboards: dashboards,
		guard:      guard,
		cookie:     cookie,
		logger:     logger,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/login", h.handleLoginForm)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
	r.Get("/dashboard", h.guard.Admin(h.handleDashboard))
	r.Get("/api/metrics", h.guard.Admin(h.handleDashboard))
}

func (h *Handler) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, "")
}

// handleLogin accepts a form post or a JSON body. Only admins get a cookie.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	creds, err := readCredentials(r)
	if err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, MsgInvalidCredentials)
		return
	}

	user, err := h.auth.Authenticate(ctx, creds.Email, creds.Password)
	switch {
	case dErrors.HasCode(err, dErrors.CodeUnauthorized):
		h.renderLogin(w, r, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "admin login failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		h.renderLogin(w, r, http.StatusInternalServerError, MsgLoginFailed)
		return
	case !user.IsAdmin():
		h.logger.WarnContext(ctx, "admin login by non-admin", "user_id", user.ID.String())
		h.renderLogin(w, r, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, h.cookie.TTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "admin token issue failed", "error", err, "user_id", user.ID.String())
		h.renderLogin(w, r, http.StatusInternalServerError, MsgLoginFailed)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authmw.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authmw.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request, _ authmw.Identity) {
	d, err := h.dashboards.Dashboard(r.Context())
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, envelope{Error: MsgMetricsFailed})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, envelope{Success: true, Data: d})
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginForm.Execute(w, message); err != nil {
		h.logger.ErrorContext(r.Context(), "login form render failed", "error", err)
	}
}

func readCredentials(r *http.Request) (credentials, error) {
	var creds credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := httputil.DecodeJSON(r, &creds)
		return creds, err
	}
	if err := r.ParseForm(); err != nil {
		return creds, err
	}
	creds.Email = r.PostFormValue("email")
	creds.Password = r.PostFormValue("password")
	return creds, nil
}
