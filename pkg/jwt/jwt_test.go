package jwt

import (
	"testing"
	"time"

	"socialgraph/backend/internal/config"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = prev })
}

func TestGenerateAndParse(t *testing.T) {
	withConfig(t, &config.Config{JWTSecret: "secret", JWTTTL: time.Hour})

	token, err := GenerateToken(42)
	require.NoError(t, err)

	userID, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	withConfig(t, &config.Config{JWTSecret: "secret"})
	token, err := GenerateToken(1)
	require.NoError(t, err)

	config.AppConfig = &config.Config{JWTSecret: "other"}
	_, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	withConfig(t, &config.Config{JWTSecret: "secret"})
	claims := gojwt.MapClaims{"sub": 1, "exp": time.Now().Add(-time.Minute).Unix()}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	withConfig(t, &config.Config{JWTSecret: "secret"})
	_, err := ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
