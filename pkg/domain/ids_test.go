package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "medbee/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseRecordID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})
}

func TestUserIDJSONRoundTrip(t *testing.T) {
	original := NewUserID()
	body, err := json.Marshal(map[string]UserID{"_id": original})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"`+original.String()+`"}`, string(body))

	var decoded map[string]UserID
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, original, decoded["_id"])
}

func TestScanAcceptsDriverRepresentations(t *testing.T) {
	raw := uuid.New()

	var fromString RecordID
	require.NoError(t, fromString.Scan(raw.String()))
	assert.Equal(t, RecordID(raw), fromString)

	var fromArray UserID
	require.NoError(t, fromArray.Scan([16]byte(raw)))
	assert.Equal(t, UserID(raw), fromArray)

	var fromNil UserID
	require.NoError(t, fromNil.Scan(nil))
	assert.True(t, fromNil.IsNil())
}
