package feedtoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	signer := NewSigner("secret", time.Hour)

	token, expiresAt, err := signer.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	personID, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, uint(42), personID)
}

func TestParseRejectsExpiredTokens(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }

	token, _, err := signer.Issue(7)
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = signer.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	signer := NewSigner("secret", 0)

	other, _, err := NewSigner("other", 0).Issue(7)
	require.NoError(t, err)
	_, err = signer.Parse(other)
	require.ErrorIs(t, err, ErrInvalidToken)

	wrongScope, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "7",
		"scope": "admin",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = signer.Parse(wrongScope)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRequiresPerson(t *testing.T) {
	_, _, err := NewSigner("secret", time.Hour).Issue(0)
	require.Error(t, err)
}
