package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPairRoundtrip(t *testing.T) {
	tm := NewTokenManager("test-secret", "agrifleet-backend", 15*time.Minute, time.Hour)

	access, refresh, exp, err := tm.GeneratePair("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, time.Second)

	claims, isRefresh, err := tm.Parse(access)
	require.NoError(t, err)
	assert.False(t, isRefresh)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "agrifleet-backend", claims.Issuer)

	claims, isRefresh, err = tm.Parse(refresh)
	require.NoError(t, err)
	assert.True(t, isRefresh)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestParseRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", "agrifleet-backend", 15*time.Minute, time.Hour)
	_, _, err := tm.Parse("not-a-token")
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", "agrifleet-backend", 15*time.Minute, time.Hour)
	other := NewTokenManager("secret-b", "agrifleet-backend", 15*time.Minute, time.Hour)

	access, _, _, err := tm.GeneratePair("user-1")
	require.NoError(t, err)

	_, _, err = other.Parse(access)
	assert.Error(t, err)
}

func TestPasswordHashVerify(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword("hunter22", hash))
	assert.Error(t, VerifyPassword("wrong", hash))
}
