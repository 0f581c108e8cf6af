package audit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactBody(t *testing.T) {
	t.Run("credentials are replaced", func(t *testing.T) {
		got := RedactBody([]byte(`{"email":"a@b.co","password":"hunter22","nested":{"Token":"abc"}}`))
		assert.JSONEq(t, `{"email":"a@b.co","password":"[REDACTED]","nested":{"Token":"[REDACTED]"}}`, string(got))
	})

	t.Run("arrays are walked", func(t *testing.T) {
		got := RedactBody([]byte(`[{"newPassword":"x"},{"age":3}]`))
		assert.JSONEq(t, `[{"newPassword":"[REDACTED]"},{"age":3}]`, string(got))
	})

	t.Run("non json is kept as a string", func(t *testing.T) {
		got := RedactBody([]byte(`email=a%40b.co`))
		assert.JSONEq(t, `"email=a%40b.co"`, string(got))
	})

	t.Run("empty body", func(t *testing.T) {
		assert.Nil(t, RedactBody(nil))
	})

	t.Run("oversized body is summarised", func(t *testing.T) {
		raw := `"` + strings.Repeat("a", maxBodyBytes) + `"`
		got := RedactBody([]byte(raw))
		assert.Contains(t, string(got), `"truncated":true`)
	})
}
