package adapters

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"medbee/internal/admin"
	"medbee/pkg/platform/audit"
)

// AuditReader is the read side of the audit store.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Entry, error)
	ListSince(ctx context.Context, since time.Time) ([]audit.Entry, error)
}

// chartMethods always appear in APIStats, even with no traffic.
var chartMethods = []string{"GET", "POST"}

// RequestLogAdapter adapts the audit store to admin's RequestLog.
type RequestLogAdapter struct {
	store AuditReader
}

func NewRequestLogAdapter(store AuditReader) *RequestLogAdapter {
	return &RequestLogAdapter{store: store}
}

// Latest returns the newest entries with bodies dropped and the client named.
func (a *RequestLogAdapter) Latest(ctx context.Context, limit int) ([]*admin.RequestSummary, error) {
	entries, err := a.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := make([]*admin.RequestSummary, len(entries))
	for i, e := range entries {
		result[i] = &admin.RequestSummary{
			ID:             e.ID,
			UserID:         e.ActorID,
			Endpoint:       e.Endpoint,
			Method:         e.Method,
			IPAddress:      e.IPAddress,
			UserAgent:      e.UserAgent,
			Client:         ClientName(e.UserAgent),
			ResponseStatus: e.ResponseStatus,
			Timestamp:      e.Timestamp,
		}
	}
	return result, nil
}

// DailyByMethod counts entries since the cutoff per UTC day and method.
func (a *RequestLogAdapter) DailyByMethod(ctx context.Context, since time.Time) (admin.APIStats, error) {
	entries, err := a.store.ListSince(ctx, since)
	if err != nil {
		return admin.APIStats{}, err
	}

	counts := make(map[string]map[string]int)
	methods := slices.Clone(chartMethods)
	for _, e := range entries {
		date := e.Timestamp.UTC().Format(time.DateOnly)
		if counts[date] == nil {
			counts[date] = make(map[string]int)
		}
		counts[date][e.Method]++
		if !slices.Contains(methods, e.Method) {
			methods = append(methods, e.Method)
		}
	}

	stats := admin.APIStats{Dates: make([]string, 0, len(counts)), Methods: make(map[string][]int, len(methods))}
	for date := range counts {
		stats.Dates = append(stats.Dates, date)
	}
	slices.Sort(stats.Dates)
	for _, m := range methods {
		series := make([]int, len(stats.Dates))
		for i, date := range stats.Dates {
			series[i] = counts[date][m]
		}
		stats.Methods[m] = series
	}
	return stats, nil
}

// ClientName renders a user agent as "<browser> on <os>".
func ClientName(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "Unknown Device"
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
