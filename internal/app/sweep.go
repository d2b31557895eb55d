package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/careerbuddy/careerbuddy/internal/domain"
)

// StartSweep schedules the periodic cache expiry sweep. Reads already expire
// entries lazily; the sweep only reclaims memory for keys nobody asks for
// again. Returns the scheduler so the caller can stop it on shutdown.
func StartSweep(ctx context.Context, spec string, c domain.AnalysisCache) (*cron.Cron, error) {
	sched := cron.New()
	_, err := sched.AddFunc(spec, func() {
		removed, err := c.Sweep(ctx)
		if err != nil {
			slog.Error("cache sweep failed", slog.Any("error", err))
			return
		}
		if removed > 0 {
			slog.Info("cache sweep completed", slog.Int("removed", removed))
		}
	})
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}
