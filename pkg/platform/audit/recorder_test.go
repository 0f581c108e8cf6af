package audit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbee/internal/platform/logger"
	id "medbee/pkg/domain"
	"medbee/pkg/requestcontext"
)

type captureEmitter struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (c *captureEmitter) Emit(_ context.Context, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return c.err
}

// authenticated binds a principal the way the access guard does.
func authenticated(userID id.UserID, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.BindPrincipal(r.Context(), requestcontext.Principal{UserID: userID, Role: "admin"})
		next(w, r.WithContext(ctx))
	}
}

func newRecorder(emitter Emitter) *Recorder {
	return NewRecorder(NewClassifier(), emitter, logger.Discard())
}

func TestRecorder_AuthenticatedSensitiveRequest(t *testing.T) {
	emitter := &captureEmitter{}
	userID := id.NewUserID()
	var handlerBody string
	h := newRecorder(emitter).Middleware(authenticated(userID, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		handlerBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"token":"t"}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"admin@medbee.com","password":"secret123"}`))
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), "198.51.100.2", "Mozilla/5.0"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"token":"t"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"email":"admin@medbee.com","password":"secret123"}`, handlerBody, "handler sees the original body")

	require.Len(t, emitter.entries, 1)
	entry := emitter.entries[0]
	assert.Equal(t, userID, entry.ActorID)
	assert.Equal(t, "POST", entry.Action)
	assert.Equal(t, "POST", entry.Method)
	assert.Equal(t, "/api/v1/auth/login", entry.Endpoint)
	assert.Equal(t, "198.51.100.2", entry.IPAddress)
	assert.Equal(t, "Mozilla/5.0", entry.UserAgent)
	assert.Equal(t, http.StatusOK, entry.ResponseStatus)
	assert.JSONEq(t, `{"email":"admin@medbee.com","password":"[REDACTED]"}`, string(entry.RequestBody))
}

func TestRecorder_StampsEntryAfterResponse(t *testing.T) {
	emitter := &captureEmitter{}
	arrival := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := arrival
	recorder := newRecorder(emitter)
	recorder.now = func() time.Time { return clock }

	h := recorder.Middleware(authenticated(id.NewUserID(), func(w http.ResponseWriter, r *http.Request) {
		clock = arrival.Add(2 * time.Second)
		w.WriteHeader(http.StatusCreated)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/health/records", strings.NewReader(`{}`))
	req = req.WithContext(requestcontext.WithTime(req.Context(), arrival))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, emitter.entries, 1)
	assert.Equal(t, arrival.Add(2*time.Second), emitter.entries[0].Timestamp)
}

func TestRecorder_RecordsActualStatus(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		emitter := &captureEmitter{}
		h := newRecorder(emitter).Middleware(authenticated(id.NewUserID(), func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/auth/profile", strings.NewReader(`{}`)))

		assert.Equal(t, status, rec.Code)
		require.Len(t, emitter.entries, 1)
		assert.Equal(t, status, emitter.entries[0].ResponseStatus)
	}
}

func TestRecorder_ImplicitOK(t *testing.T) {
	emitter := &captureEmitter{}
	h := newRecorder(emitter).Middleware(authenticated(id.NewUserID(), func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/records", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, emitter.entries, 1)
	assert.Equal(t, http.StatusOK, emitter.entries[0].ResponseStatus)
	assert.Nil(t, emitter.entries[0].RequestBody, "GET requests carry no payload")
}

func TestRecorder_NoIdentityNoEntry(t *testing.T) {
	emitter := &captureEmitter{}
	h := newRecorder(emitter).Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not authorized to access this route"}`))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"x"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Not authorized to access this route"}`, rec.Body.String())
	assert.Empty(t, emitter.entries)
}

func TestRecorder_NonSensitivePathsNeverRecorded(t *testing.T) {
	emitter := &captureEmitter{}
	h := newRecorder(emitter).Middleware(authenticated(id.NewUserID(), func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for _, path := range []string{"/api/v1/health/metrics", "/api/v1/chat/send", "/api/v1/auth/me", "/admin/api/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Empty(t, emitter.entries)
}

func TestRecorder_EmitFailureDoesNotAlterResponse(t *testing.T) {
	emitter := &captureEmitter{err: errors.New("store down")}
	h := newRecorder(emitter).Middleware(authenticated(id.NewUserID(), func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
	assert.Len(t, emitter.entries, 1)
}

func TestRecorder_RedirectIsForwardedOnce(t *testing.T) {
	emitter := &captureEmitter{}
	h := newRecorder(emitter).Middleware(authenticated(id.NewUserID(), func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/login", http.StatusFound)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/app-usage", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
	require.Len(t, emitter.entries, 1)
	assert.Equal(t, http.StatusFound, emitter.entries[0].ResponseStatus)
}

func TestRecorder_LargeBodyReachesHandlerIntact(t *testing.T) {
	emitter := &captureEmitter{}
	payload := `{"notes":"` + strings.Repeat("x", maxCaptureBytes+10) + `"}`
	var got int
	h := newRecorder(emitter).Middleware(authenticated(id.NewUserID(), func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = len(b)
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/health/records", strings.NewReader(payload)))

	assert.Equal(t, len(payload), got)
	require.Len(t, emitter.entries, 1)
}
