package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ThrottleWindow is how long failed attempts count against an identifier.
	ThrottleWindow = 15 * time.Minute
	// MaxFailures locks the identifier until the window expires.
	MaxFailures = 5
)

// Throttle wraps Redis to count failed login attempts per identifier.
type Throttle struct {
	rdb *redis.Client
}

func NewThrottle(rdb *redis.Client) *Throttle {
	return &Throttle{rdb: rdb}
}

// Locked reports whether the identifier has reached the failure limit.
func (t *Throttle) Locked(ctx context.Context, identifier string) (bool, error) {
	n, err := t.rdb.Get(ctx, "login_fail:"+identifier).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= MaxFailures, nil
}

// RecordFailure increments the failure counter, starting the expiry window
// on the first miss.
func (t *Throttle) RecordFailure(ctx context.Context, identifier string) error {
	key := "login_fail:" + identifier
	n, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return t.rdb.Expire(ctx, key, ThrottleWindow).Err()
	}
	return nil
}

// Clear resets the counter after a successful login.
func (t *Throttle) Clear(ctx context.Context, identifier string) error {
	return t.rdb.Del(ctx, "login_fail:"+identifier).Err()
}
