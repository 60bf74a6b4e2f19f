package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-secret")

	token, err := SignJWT(Claims{Sub: "google:42", Email: "parent@example.com", Name: "Pat"})
	require.NoError(t, err)

	claims, err := VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "google:42", claims.Sub)
	assert.Equal(t, "parent@example.com", claims.Email)
	assert.Equal(t, "Pat", claims.Name)
	assert.Greater(t, claims.Exp, claims.Iat)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-secret")
	past := time.Now().Add(-2 * time.Hour)

	token, err := SignJWT(Claims{Sub: "google:42", Iat: past.Unix(), Exp: past.Add(time.Hour).Unix()})
	require.NoError(t, err)

	_, err = VerifyJWT(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "one")
	token, err := SignJWT(Claims{Sub: "google:42"})
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "two")
	_, err = VerifyJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSecretRequiredInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := SignJWT(Claims{Sub: "google:42"})
	assert.ErrorIs(t, err, errMissingSecret)
}
