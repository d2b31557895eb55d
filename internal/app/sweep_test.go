package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careerbuddy/careerbuddy/internal/app"
	"github.com/careerbuddy/careerbuddy/internal/cache"
	"github.com/careerbuddy/careerbuddy/internal/domain"
)

func TestStartSweep_RunsOnSchedule(t *testing.T) {
	mem := cache.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, "k", domain.AnalysisResult{Value: "1"}, time.Millisecond))

	// Every-second schedule keeps the test fast; production uses hourly.
	sched, err := app.StartSweep(ctx, "@every 1s", mem)
	require.NoError(t, err)
	defer sched.Stop()

	require.Eventually(t, func() bool { return mem.Len() == 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestStartSweep_RejectsInvalidSpec(t *testing.T) {
	_, err := app.StartSweep(context.Background(), "not a cron spec", cache.NewMemory())
	require.Error(t, err)
}
