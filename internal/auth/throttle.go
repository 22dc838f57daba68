package auth

import (
	"MapHub-Backend/internal/cache"
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/metrics"
	"context"
	"strconv"

	"go.uber.org/zap"
)

const lockedOutMessage = "too many login attempts, try again later"

// Throttle counts failed logins per email and per origin and locks the
// (email, origin) pair out once either counter reaches the limit. An empty
// origin is tracked by email only. All state lives in the TTL cache.
type Throttle struct {
	cache cache.Cache
	cfg   *config.Login
	log   *zap.Logger
}

func NewThrottle(c cache.Cache, cfg *config.Login, log *zap.Logger) *Throttle {
	return &Throttle{cache: c, cfg: cfg, log: log}
}

func emailAttemptsKey(email string) string {
	return "LoginAttempts:email:" + email
}

func originAttemptsKey(origin string) string {
	return "LoginAttempts:origin:" + origin
}

func blockedKey(email, origin string) string {
	return "BlockedUser:" + email + ":" + origin
}

// Check fails with a locked-out error while a lockout marker for the pair exists.
func (t *Throttle) Check(ctx context.Context, email, origin string) error {
	_, locked, err := t.cache.Get(ctx, blockedKey(email, origin))
	if err != nil {
		return domain.Dependency("failed to read login lockout", err)
	}
	if locked {
		return domain.LockedOut(lockedOutMessage)
	}
	return nil
}

// RecordFailure bumps both counters and refreshes their window. It returns a
// locked-out error when this failure engaged the lockout.
func (t *Throttle) RecordFailure(ctx context.Context, email, origin string) error {
	byEmail, err := t.bump(ctx, emailAttemptsKey(email))
	if err != nil {
		return err
	}
	byOrigin := 0
	if origin != "" {
		if byOrigin, err = t.bump(ctx, originAttemptsKey(origin)); err != nil {
			return err
		}
	}

	if byEmail < t.cfg.MaxAttempts && byOrigin < t.cfg.MaxAttempts {
		return nil
	}

	if err := t.cache.Set(ctx, blockedKey(email, origin), "true", t.cfg.BlockDuration); err != nil {
		return domain.Dependency("failed to write login lockout", err)
	}
	metrics.LoginLockoutsTotal.Inc()
	t.log.Warn("login locked out",
		zap.String("email", email),
		zap.String("origin", origin),
		zap.Int("email_attempts", byEmail),
		zap.Int("origin_attempts", byOrigin),
	)
	return domain.LockedOut(lockedOutMessage)
}

// Reset clears both counters. An active lockout marker is left to expire.
func (t *Throttle) Reset(ctx context.Context, email, origin string) error {
	if err := t.cache.Delete(ctx, emailAttemptsKey(email)); err != nil {
		return domain.Dependency("failed to reset login attempts", err)
	}
	if origin == "" {
		return nil
	}
	if err := t.cache.Delete(ctx, originAttemptsKey(origin)); err != nil {
		return domain.Dependency("failed to reset login attempts", err)
	}
	return nil
}

func (t *Throttle) bump(ctx context.Context, key string) (int, error) {
	raw, ok, err := t.cache.Get(ctx, key)
	if err != nil {
		return 0, domain.Dependency("failed to read login attempts", err)
	}

	n := 0
	if ok {
		// A corrupt value restarts the count.
		n, _ = strconv.Atoi(raw)
	}
	n++

	if err := t.cache.Set(ctx, key, strconv.Itoa(n), t.cfg.AttemptWindow); err != nil {
		return 0, domain.Dependency("failed to write login attempts", err)
	}
	return n, nil
}
