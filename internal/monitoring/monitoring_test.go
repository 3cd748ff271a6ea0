package monitoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/roadboard/internal/database/testutil"
	"github.com/charlesng35/roadboard/internal/monitoring"
	"github.com/charlesng35/roadboard/internal/monitoring/checks"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthManagerEvaluate(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(
		monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
			return monitoring.ProbeResult{Status: monitoring.StatusUp}
		}),
		monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "connection refused"}
		}),
		monitoring.NewCheck("", nil),
	)

	report := manager.Evaluate(context.Background())
	require.False(t, report.Healthy())
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "redis", report.Checks[1].Component)
}

func TestHealthManagerRecoversPanics(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(monitoring.NewCheck("boom", func(context.Context) monitoring.ProbeResult {
		panic("probe exploded")
	}))

	report := manager.Evaluate(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Equal(t, "boom", report.Checks[0].Component)
	require.Equal(t, "probe exploded", report.Checks[0].Details)
}

func TestEmptyManagerIsHealthy(t *testing.T) {
	report := monitoring.NewHealthManager().Evaluate(context.Background())
	require.True(t, report.Healthy())
	require.Empty(t, report.Checks)
}

func TestResultFromError(t *testing.T) {
	require.Equal(t, monitoring.StatusUp, monitoring.ResultFromError("db", nil, -time.Second).Status)
	require.Equal(t, monitoring.StatusDown, monitoring.ResultFromError("db", errors.New("refused"), 0).Status)
	require.Equal(t, monitoring.StatusDegraded, monitoring.ResultFromError("db", context.DeadlineExceeded, 0).Status)
}

func TestDatabaseCheck(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	result := checks.Database(db, time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, result.Status)

	result = checks.Database(nil, 0).Run(context.Background())
	require.Equal(t, monitoring.StatusDown, result.Status)
}

func TestRedisCheck(t *testing.T) {
	ctx := context.Background()

	require.Equal(t, monitoring.StatusUp, checks.Redis(nil, false, 0).Run(ctx).Status)
	require.Equal(t, monitoring.StatusDegraded, checks.Redis(nil, true, 0).Run(ctx).Status)
	require.Equal(t, monitoring.StatusUp, checks.Redis(stubPinger{}, true, 0).Run(ctx).Status)
	require.Equal(t, monitoring.StatusDown, checks.Redis(stubPinger{err: errors.New("refused")}, true, 0).Run(ctx).Status)
}
