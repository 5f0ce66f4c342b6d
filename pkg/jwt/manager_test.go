package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("test-secret", 60)

	token, err := m.GenerateAccessToken("alice", "Alice", "org1")
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.Equal(t, "Alice", claims.Nickname)
	assert.Equal(t, "org1", claims.OrgID)
}

func TestManager_WrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", 60).GenerateAccessToken("alice", "", "")
	require.NoError(t, err)

	_, err = NewManager("secret-b", 60).VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Expired(t *testing.T) {
	m := NewManager("test-secret", 60)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.GenerateAccessToken("alice", "", "")
	require.NoError(t, err)

	_, err = NewManager("test-secret", 60).VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestManager_Garbage(t *testing.T) {
	_, err := NewManager("test-secret", 60).VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
