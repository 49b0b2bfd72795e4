package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/skolahq/skola/internal/config"
)

const (
	keyCheckoutSchool  = "checkout:school:%s"
	keyWebhookEvent    = "webhook:event:%s:%s"
	defaultWebhookLock = 30 * time.Second
)

// CheckoutLimiter bounds checkout attempts per school and serializes webhook
// deliveries per event id. Without a configured redis address every check is
// a pass-through, which matches single-process deployments where the event
// store's unique key already serializes deliveries.
type CheckoutLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	rate    float64
	burst   int
	lockTTL time.Duration
}

func NewCheckoutLimiter(cfg config.Config) *CheckoutLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" || cfg.CheckoutRate <= 0 || cfg.CheckoutBurst <= 0 {
		return &CheckoutLimiter{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	lockTTL := time.Duration(cfg.WebhookLockTTLSeconds) * time.Second
	if lockTTL <= 0 {
		lockTTL = defaultWebhookLock
	}

	return &CheckoutLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    cfg.CheckoutRate,
		burst:   cfg.CheckoutBurst,
		lockTTL: lockTTL,
	}
}

func (l *CheckoutLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *CheckoutLimiter) AllowCheckout(ctx context.Context, schoolID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyCheckoutSchool, strings.TrimSpace(schoolID)), l.rate, l.burst)
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}

func (l *CheckoutLimiter) TryLockEvent(ctx context.Context, provider, eventID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyWebhookEvent, strings.TrimSpace(provider), strings.TrimSpace(eventID))
	return l.locker.TryLock(ctx, key, l.lockTTL)
}

func (l *CheckoutLimiter) ReleaseEvent(ctx context.Context, provider, eventID, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyWebhookEvent, strings.TrimSpace(provider), strings.TrimSpace(eventID))
	return l.locker.Release(ctx, key, token)
}
