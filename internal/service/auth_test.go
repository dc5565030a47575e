package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tutoriapp/backend/internal/config"
	"github.com/tutoriapp/backend/internal/errs"
	"github.com/tutoriapp/backend/internal/model"
	"github.com/tutoriapp/backend/internal/server"
)

const testSecret = "test-secret"

func newAuthTestService(ttlMinutes int) *AuthService {
	logger := zerolog.Nop()
	s := &server.Server{
		Config: &config.Config{
			Auth: config.AuthConfig{SecretKey: testSecret, TokenTTL: ttlMinutes},
		},
		Logger: &logger,
	}
	return NewAuthService(s, nil)
}

func TestIssueAndParseToken(t *testing.T) {
	svc := newAuthTestService(30)
	user := &model.User{ID: 7, Email: "ada@example.com", Role: model.RoleAdmin}

	token, err := svc.IssueToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)

	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	svc := newAuthTestService(30)

	claims := TokenClaims{
		UserID: 7,
		Role:   model.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ParseToken(signed)
	require.Error(t, err)

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 401, httpErr.Status)
	assert.Equal(t, "Invalid or expired token", httpErr.Message)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	svc := newAuthTestService(30)

	claims := TokenClaims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.ParseToken(signed)
	assert.Error(t, err)
}

func TestParseTokenRejectsOtherSigningMethods(t *testing.T) {
	svc := newAuthTestService(30)

	claims := TokenClaims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ParseToken(signed)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := newAuthTestService(30)

	_, err := svc.ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-password", hash)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-password")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong-password")))
}
