package httptransport

import (
	"net/http"
	"time"

	"medbee/internal/admin"
	"medbee/pkg/platform/httputil"
)

const (
	apiName    = "MedBee API"
	apiVersion = "1.0.0"
)

type serviceHandler struct {
	startedAt time.Time
	database  DatabaseState
}

type apiInfo struct {
	Name      string         `json:"name"`
	Version   string         `json:"version"`
	Status    string         `json:"status"`
	Endpoints map[string]any `json:"endpoints"`
}

type healthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
	Database  string    `json:"database"`
}

var endpoints = map[string]any{
	"base":   "/api/v1",
	"health": "/health",
	"auth": map[string]string{
		"register":      "/api/v1/auth/register",
		"login":         "/api/v1/auth/login",
		"profile":       "/api/v1/auth/me",
		"updateProfile": "/api/v1/auth/profile",
	},
	"chat": map[string]string{
		"send":    "/api/v1/chat/send",
		"history": "/api/v1/chat/history",
	},
	"analytics": map[string]string{
		"healthMetrics":       "/api/v1/analytics/health-metrics",
		"medicationAdherence": "/api/v1/analytics/medication-adherence",
		"vaccinationStatus":   "/api/v1/analytics/vaccination-status",
		"appUsage":            "/api/v1/analytics/app-usage",
	},
	"admin": map[string]string{
		"dashboard": admin.DashboardPath,
		"login":     admin.LoginPath,
	},
}

func (h *serviceHandler) handleInfo(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, apiInfo{
		Name:      apiName,
		Version:   apiVersion,
		Status:    "active",
		Endpoints: endpoints,
	})
}

// handleHealth reports liveness. It answers 200 even while the database is
// down; the state is in the body.
func (h *serviceHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	db := admin.DatabaseNotConfigured
	if h.database != nil {
		db = string(h.database.State())
	}
	now := time.Now()
	httputil.WriteJSON(w, http.StatusOK, healthStatus{
		Status:    "ok",
		Timestamp: now.UTC(),
		Uptime:    now.Sub(h.startedAt).Seconds(),
		Database:  db,
	})
}
