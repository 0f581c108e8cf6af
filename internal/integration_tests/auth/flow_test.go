package auth_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authhandler "medbee/internal/auth/handler"
	authmodels "medbee/internal/auth/models"
	"medbee/internal/auth/secrets"
	authservice "medbee/internal/auth/service"
	jwttoken "medbee/internal/jwt_token"
	"medbee/internal/notification/email"
	"medbee/internal/platform/logger"
	rlmiddleware "medbee/internal/ratelimit/middleware"
	rlmodels "medbee/internal/ratelimit/models"
	"medbee/internal/ratelimit/store/window"
	"medbee/internal/storage"
	httptransport "medbee/internal/transport/http"
	id "medbee/pkg/domain"
	"medbee/pkg/platform/audit"
	"medbee/pkg/platform/audit/publisher"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/testutil"
)

const loginLimit = 5

type deployment struct {
	router http.Handler
	stores *storage.Stores
}

func newDeployment(t *testing.T) *deployment {
	t.Helper()
	log := logger.Discard()
	stores := storage.Memory()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	limits := rlmiddleware.New(window.NewRedis(rdb), log)

	tokens := jwttoken.NewJWTService("flow-secret", "medbee")
	auth := authservice.New(stores.Users, stores.Resets, tokens, secrets.NewHasher(4),
		email.NewLogSender(log), log, authservice.Config{TokenTTL: time.Hour, ResetTokenTTL: time.Hour})
	guard := authmw.NewGuard(jwttoken.NewJWTServiceAdapter(tokens), auth, log)
	pub := publisher.NewPublisher(stores.Audit)

	router := httptransport.NewRouter(httptransport.Deps{
		Config: httptransport.Config{StartedAt: time.Now()},
		Logger: log,
		Guard:  guard,
		Audit:  audit.NewRecorder(audit.NewClassifier(), pub, log).Middleware,
		Handlers: httptransport.Handlers{
			Auth: func(g *authmw.Guard) httptransport.Registrar {
				return authhandler.New(auth, g, log, authhandler.WithRateLimits(
					limits.Limit(rlmodels.ClassAuth, rlmodels.Rule{Requests: loginLimit, Window: 15 * time.Minute}),
					limits.Limit(rlmodels.ClassReset, rlmodels.Rule{Requests: 3, Window: time.Hour}),
				))
			},
		},
	})
	return &deployment{router: router, stores: stores}
}

func (d *deployment) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	if token != "" {
		testutil.WithBearer(req, token)
	}
	return testutil.DoRequest(d.router, req).Result()
}

func TestAccountLifecycle(t *testing.T) {
	d := newDeployment(t)
	ctx := context.Background()
	var token string

	testutil.Given(t, "a fresh deployment", func(t *testing.T) {
		testutil.When(t, "a visitor registers", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/auth/register", authmodels.RegisterRequest{
				Email: "Sam@Example.com", Password: "long-enough-pw", FirstName: "Sam", LastName: "Okafor",
			})
			rec := testutil.DoRequest(d.router, req)

			testutil.Then(t, "an account and token are returned", func(t *testing.T) {
				require.Equal(t, http.StatusCreated, rec.Code)
				resp := testutil.UnmarshalResponse[authmodels.AuthResponse](t, rec)
				assert.Equal(t, "sam@example.com", resp.Email)
				require.NotEmpty(t, resp.Token)
				token = resp.Token
			})

			testutil.Then(t, "nothing is audited because the visitor was anonymous", func(t *testing.T) {
				entries, err := d.stores.Audit.ListRecent(ctx, -1)
				require.NoError(t, err)
				assert.Empty(t, entries)
			})
		})

		testutil.When(t, "the new user reads their profile", func(t *testing.T) {
			res := d.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
			defer res.Body.Close()

			testutil.Then(t, "it is served without the password hash", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, res.StatusCode)
			})
		})

		testutil.When(t, "the user updates their profile", func(t *testing.T) {
			res := d.do(t, http.MethodPut, "/api/v1/auth/profile", token, map[string]any{
				"firstName": "Samuel",
				"password":  "another-long-pw",
			})
			defer res.Body.Close()

			testutil.Then(t, "the change is audited with the password redacted", func(t *testing.T) {
				require.Equal(t, http.StatusOK, res.StatusCode)
				entries, err := d.stores.Audit.ListRecent(ctx, -1)
				require.NoError(t, err)
				require.Len(t, entries, 1)
				assert.Equal(t, http.MethodPut, entries[0].Method)
				assert.Equal(t, "/api/v1/auth/profile", entries[0].Endpoint)
				assert.NotContains(t, string(entries[0].RequestBody), "another-long-pw")
			})
		})

		testutil.When(t, "the user logs in with the new password", func(t *testing.T) {
			res := d.do(t, http.MethodPost, "/api/v1/auth/login", "", authmodels.LoginRequest{
				Email: "sam@example.com", Password: "another-long-pw",
			})
			defer res.Body.Close()

			testutil.Then(t, "login succeeds", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, res.StatusCode)
			})
		})

		testutil.When(t, "someone keeps guessing passwords", func(t *testing.T) {
			// register and the successful login already used two hits.
			var last *http.Response
			for range loginLimit - 1 {
				last = d.do(t, http.MethodPost, "/api/v1/auth/login", "", authmodels.LoginRequest{
					Email: "sam@example.com", Password: "wrong-password",
				})
				last.Body.Close()
			}

			testutil.Then(t, "the client is throttled once the window is used up", func(t *testing.T) {
				assert.Equal(t, http.StatusTooManyRequests, last.StatusCode)
				assert.NotEmpty(t, last.Header.Get("Retry-After"))
			})
		})
	})
}

func TestProtectedRoutesRejectForeignTokens(t *testing.T) {
	d := newDeployment(t)
	forged, err := jwttoken.NewJWTService("some-other-secret", "medbee").GenerateToken(id.NewUserID(), time.Hour)
	require.NoError(t, err)

	res := d.do(t, http.MethodGet, "/api/v1/auth/me", forged, nil)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
