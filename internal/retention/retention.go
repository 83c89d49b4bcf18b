// Package retention expires old session checkpoints. Purges run either on
// a cron expression or, when none is configured, on a fixed poll interval.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"

	"github.com/vikasvdk5/WestBay/internal/config"
	"github.com/vikasvdk5/WestBay/internal/store"
)

type Purger struct {
	store *store.Store
	cfg   config.RetentionConfig
}

func New(s *store.Store, cfg config.RetentionConfig) (*Purger, error) {
	if cfg.CronExpr != "" && !gronx.New().IsValid(cfg.CronExpr) {
		return nil, fmt.Errorf("invalid retention cron expression %q", cfg.CronExpr)
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 7 * 24 * time.Hour
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Hour
	}
	return &Purger{store: s, cfg: cfg}, nil
}

// Start blocks until the context is cancelled, purging on schedule.
func (p *Purger) Start(ctx context.Context) {
	slog.Info("retention started",
		"max_age", p.cfg.MaxAge,
		"cron", p.cfg.CronExpr,
		"poll_interval", p.cfg.PollInterval)

	for {
		wait := p.cfg.PollInterval
		if p.cfg.CronExpr != "" {
			next, err := gronx.NextTick(p.cfg.CronExpr, false)
			if err != nil {
				slog.Error("retention cron tick", "error", err)
			} else {
				wait = time.Until(next)
			}
		}

		select {
		case <-ctx.Done():
			slog.Info("retention stopped")
			return
		case <-time.After(wait):
			p.purge()
		}
	}
}

func (p *Purger) purge() {
	n, err := p.store.PurgeSessionsOlderThan(p.cfg.MaxAge)
	if err != nil {
		slog.Error("purge sessions", "error", err)
		return
	}
	if n > 0 {
		slog.Info("purged expired sessions", "count", n, "max_age", p.cfg.MaxAge)
	}
}
