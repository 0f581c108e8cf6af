package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "medbee/internal/jwt_token"
	id "medbee/pkg/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("JWT_SECRET", "cli-test-secret")
	t.Setenv("MEDBEE_CONFIG", "")
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTokenIssue(t *testing.T) {
	uid := id.NewUserID()
	out, err := execute(t, "token", "issue", "--user", uid.String(), "--ttl", "1h")
	require.NoError(t, err)

	claims, err := jwttoken.NewJWTService("cli-test-secret", tokenIssuer).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, uid.String(), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenIssueRejectsBadUserID(t *testing.T) {
	_, err := execute(t, "token", "issue", "--user", "not-a-uuid")
	assert.Error(t, err)
}

func TestTokenIssueRequiresUser(t *testing.T) {
	_, err := execute(t, "token", "issue")
	assert.Error(t, err)
}

func TestSeedRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := execute(t, "seed", "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
