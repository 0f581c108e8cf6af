package admin

import (
	"time"

	chatmodels "medbee/internal/chat/models"
	id "medbee/pkg/domain"
	authmw "medbee/pkg/platform/middleware/auth"
)

// SystemStatus reports reachability of the pieces the dashboard depends on.
type SystemStatus struct {
	Backend       bool      `json:"backend"`
	Database      bool      `json:"database"`
	DatabaseState string    `json:"databaseState"`
	Frontend      bool      `json:"frontend"`
	LastChecked   time.Time `json:"lastChecked"`
}

type UserStats struct {
	Total  int `json:"total"`
	Admins int `json:"admins"`
	Users  int `json:"users"`
}

// UserSummary is a user without credentials or health data.
type UserSummary struct {
	ID        id.UserID   `json:"_id"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      authmw.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// APIStats holds per-day request counts. Methods[m][i] is the count for
// method m on Dates[i].
type APIStats struct {
	Dates   []string         `json:"dates"`
	Methods map[string][]int `json:"methods"`
}

// RequestSummary is an audit entry without its request body.
type RequestSummary struct {
	ID             id.RecordID `json:"_id"`
	UserID         id.UserID   `json:"userId"`
	Endpoint       string      `json:"endpoint"`
	Method         string      `json:"method"`
	IPAddress      string      `json:"ipAddress"`
	UserAgent      string      `json:"userAgent"`
	Client         string      `json:"client"`
	ResponseStatus int         `json:"responseStatus"`
	Timestamp      time.Time   `json:"timestamp"`
}

type ClientCount struct {
	Client string `json:"_id"`
	Count  int    `json:"count"`
}

// Dashboard is the payload of /admin/dashboard and /admin/api/metrics.
type Dashboard struct {
	SystemStatus   SystemStatus      `json:"systemStatus"`
	UserStats      UserStats         `json:"userStats"`
	LatestUsers    []*UserSummary    `json:"latestUsers"`
	ChatStats      chatmodels.Stats  `json:"chatStats"`
	APIStats       APIStats          `json:"apiStats"`
	LatestRequests []*RequestSummary `json:"latestRequests"`
	Clients        []ClientCount     `json:"clients"`
	Timestamp      time.Time         `json:"timestamp"`
}
