package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWT_IssueVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewJWTManager("test-secret", time.Hour)
	token, exp, err := m.Issue("u1", "a@b.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, "a@b.com", claims.Email)
}

func TestJWT_ExpiredTokenFails(t *testing.T) {
	t.Parallel()

	m := &JWTManager{Secret: []byte("test-secret"), TTL: -time.Minute}
	token, _, err := m.Issue("u1", "a@b.com")
	require.NoError(t, err)

	_, err = m.Verify(token)
	require.Error(t, err)
}

func TestJWT_WrongSecretFails(t *testing.T) {
	t.Parallel()

	m := &JWTManager{Secret: []byte("test-secret"), TTL: time.Hour}
	token, _, err := m.Issue("u1", "a@b.com")
	require.NoError(t, err)

	other := &JWTManager{Secret: []byte("other-secret"), TTL: time.Hour}
	_, err = other.Verify(token)
	require.Error(t, err)
}

func TestJWT_MalformedTokenFails(t *testing.T) {
	t.Parallel()

	m := &JWTManager{Secret: []byte("test-secret"), TTL: time.Hour}
	_, err := m.Verify("not.a.token")
	require.Error(t, err)
}
