package ledgauth

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// loginLimiter is the fixed-TTL flag guard in front of Login. A username is
// flagged on every attempt; an attempt while the flag is still live is
// rejected before credentials are even looked at.
type loginLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

func newLoginLimiter(redisClient *redis.Client, cfg RateLimitConfig) *loginLimiter {
	return &loginLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Flag sets the cooldown flag for username, failing with ErrLoginRateLimited
// when the flag already exists.
func (l *loginLimiter) Flag(ctx context.Context, username string) error {
	ok, err := l.redis.SetNX(ctx, loginLimitKey(username), 1, l.config.LoginCooldown).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return ErrLoginRateLimited
	}
	return nil
}

func loginLimitKey(username string) string {
	return "lla:" + username
}
