package services

import (
	"testing"
	"time"

	"github.com/calltrackhq/calltrack-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuePair_AccessTokenClaims(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	cfg := testConfig()
	tokens := NewTokenService(db, cfg)

	user := registerUser(t, users, "ivan", "+375291234567")

	pair, err := tokens.IssuePair(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "ivan", pair.User.Username)

	parsed, err := jwt.Parse(pair.AccessToken, func(tok *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, "ivan", claims["username"])
	assert.Equal(t, "USER", claims["role"])
}

func TestRefresh_RotatesToken(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	tokens := NewTokenService(db, testConfig())

	user := registerUser(t, users, "ivan", "+375291234567")
	pair, err := tokens.IssuePair(user)
	require.NoError(t, err)

	next, err := tokens.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The presented token was revoked on use.
	_, err = tokens.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The replacement still works.
	_, err = tokens.Refresh(next.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_Expired(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	cfg := testConfig()
	cfg.JWTRefreshExpiry = -time.Minute
	tokens := NewTokenService(db, cfg)

	user := registerUser(t, users, "ivan", "+375291234567")
	pair, err := tokens.IssuePair(user)
	require.NoError(t, err)

	_, err = tokens.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_GarbageToken(t *testing.T) {
	db := newTestDB(t)
	tokens := NewTokenService(db, testConfig())

	_, err := tokens.Refresh("never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_SoftDeletedUser(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	tokens := NewTokenService(db, testConfig())

	user := registerUser(t, users, "ivan", "+375291234567")
	pair, err := tokens.IssuePair(user)
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("status", models.StatusDeleted).Error)

	_, err = tokens.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	tokens := NewTokenService(db, testConfig())

	user := registerUser(t, users, "ivan", "+375291234567")
	pair, err := tokens.IssuePair(user)
	require.NoError(t, err)

	require.NoError(t, tokens.Revoke(pair.RefreshToken))

	_, err = tokens.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Revoking an unknown token is a no-op, same as the logout endpoint.
	assert.NoError(t, tokens.Revoke("never-issued"))
}
