package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/sales-api/config"
	"github.com/d60-Lab/sales-api/internal/repository"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Issuer:     "sales-api",
		Audience:   "sales-client",
		Key:        "unit-test-signing-key-0123456789",
		TTLMinutes: 30,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db), testJWTConfig())
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", user.Password) // 存的是 bcrypt 哈希

	_, err = svc.Register(ctx, "alice", "other@example.com", "x")
	assert.ErrorIs(t, err, ErrUserExists)

	token, err := svc.Login(ctx, "alice", "s3cret!")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testJWTConfig().Key), nil
	})
	require.NoError(t, err)
	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "1", sub)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = svc.Login(ctx, "nobody", "x")
	assert.ErrorIs(t, err, ErrBadCredentials)
}
