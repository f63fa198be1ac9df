package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "refresh:"

// TokenRepository keeps issued refresh tokens in Redis so they can be
// revoked on logout and expire on their own.
type TokenRepository struct {
	rdb *redis.Client
}

func NewTokenRepository(rdb *redis.Client) *TokenRepository {
	return &TokenRepository{rdb}
}

func (r *TokenRepository) Store(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	return r.rdb.Set(ctx, refreshKeyPrefix+token, userID.String(), ttl).Err()
}

// Lookup returns the user a refresh token was issued to, or
// Unauthenticated if the token is unknown or revoked.
func (r *TokenRepository) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	raw, err := r.rdb.Get(ctx, refreshKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, apperr.New(apperr.KindUnauthenticated, "Refresh token expired or revoked, please log in again")
	}
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.New(apperr.KindUnauthenticated, "Refresh token expired or revoked, please log in again")
	}
	return id, nil
}

func (r *TokenRepository) Revoke(ctx context.Context, token string) error {
	return r.rdb.Del(ctx, refreshKeyPrefix+token).Err()
}
