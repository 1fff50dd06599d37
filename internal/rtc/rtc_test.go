package rtc

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_NotConfigured(t *testing.T) {
	i := NewIssuer("", "", time.Hour)
	assert.False(t, i.Configured())

	_, err := i.IssueToken("lobby-1", "u1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestIssuer_IssueToken(t *testing.T) {
	i := NewIssuer("app-1", "cert-secret", time.Hour)
	require.True(t, i.Configured())

	tok, err := i.IssueToken("lobby-1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "app-1", tok.AppID)
	assert.Equal(t, "lobby-1", tok.ChannelName)
	assert.Equal(t, "u1", tok.UID)
	assert.Greater(t, tok.ExpiresAt, time.Now().Unix())

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (any, error) {
		return []byte("cert-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "lobby-1", claims["channel"])

	_, err = i.IssueToken("", "u1")
	assert.Error(t, err)
}
