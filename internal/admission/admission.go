// Package admission gates requests with fixed-window quotas, per identity
// and global, before any job is created.
package admission

import (
	"context"
	"fmt"
	"time"

	"seiza/internal/config"
	"seiza/internal/pkg/errors"
)

// Dimension names a quota class with its own limit and window.
type Dimension string

const (
	DimPreview  Dimension = "preview"
	DimGenerate Dimension = "generate"
	DimCleanup  Dimension = "cleanup"
)

// Decision is the outcome of one admission check. RetryAfter is set only on
// denial and reports the remaining window time.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter is the counter backing. Take atomically checks and increments the
// counter for key: a denied take does not consume a slot beyond the limit.
type Limiter interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

// Limits carries the configured quotas.
type Limits struct {
	Dimensions   map[Dimension]config.Quota
	GlobalHourly int
	GlobalDaily  int
}

// LimitsFromConfig maps the config surface onto admission limits.
func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		Dimensions: map[Dimension]config.Quota{
			DimPreview:  cfg.QuotaPreview,
			DimGenerate: cfg.QuotaGenerate,
			DimCleanup:  cfg.QuotaCleanup,
		},
		GlobalHourly: cfg.GlobalHourly,
		GlobalDaily:  cfg.GlobalDaily,
	}
}

// Controller applies per-identity quotas first, then the global ceilings.
// The first denial wins and later counters for the request are not charged.
type Controller struct {
	limiter Limiter
	limits  Limits
}

func NewController(limiter Limiter, limits Limits) *Controller {
	return &Controller{limiter: limiter, limits: limits}
}

// Admit decides whether one request from identity may proceed on dimension.
// A backend failure is reported as an error, never as a silent allow.
func (c *Controller) Admit(ctx context.Context, identity string, dim Dimension) (Decision, error) {
	quota, ok := c.limits.Dimensions[dim]
	if !ok {
		return Decision{}, errors.Internalf("unknown admission dimension %q", dim)
	}

	checks := []struct {
		key    string
		limit  int
		window time.Duration
	}{
		{fmt.Sprintf("dim:%s:%s", dim, identity), quota.Limit, quota.Window},
		{"global:1h", c.limits.GlobalHourly, time.Hour},
		{"global:24h", c.limits.GlobalDaily, 24 * time.Hour},
	}

	for _, check := range checks {
		allowed, retryAfter, err := c.limiter.Take(ctx, check.key, check.limit, check.window)
		if err != nil {
			return Decision{}, errors.WrapWithCode(err, errors.CodeUnavailable, "admission.admit", "quota backend unavailable")
		}
		if !allowed {
			return Decision{Allowed: false, RetryAfter: retryAfter}, nil
		}
	}
	return Decision{Allowed: true}, nil
}
