package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testutil "github.com/charlesng35/roadboard/internal/database/testutil"
	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/internal/store"
)

type stubPurger struct {
	cutoff time.Time
	calls  int
	err    error
}

func (s *stubPurger) PurgeDeletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.calls++
	s.cutoff = cutoff
	return 1, s.err
}

func TestCleanerRunOnceUsesRetention(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	features := &stubPurger{}
	roadmaps := &stubPurger{}

	cleaner := NewCleaner(features, roadmaps, 48*time.Hour, WithNow(func() time.Time { return now }))
	require.True(t, cleaner.Enabled())
	require.NoError(t, cleaner.RunOnce(context.Background()))

	require.Equal(t, 1, features.calls)
	require.Equal(t, 1, roadmaps.calls)
	require.Equal(t, now.Add(-48*time.Hour), features.cutoff)
	require.Equal(t, now.Add(-48*time.Hour), roadmaps.cutoff)
}

func TestCleanerDisabledWithoutRetention(t *testing.T) {
	features := &stubPurger{}
	cleaner := NewCleaner(features, nil, 0)

	require.False(t, cleaner.Enabled())
	require.NoError(t, cleaner.Start())
	require.NoError(t, cleaner.RunOnce(context.Background()))
	require.Zero(t, features.calls)
	<-cleaner.Stop().Done()
}

func TestCleanerAggregatesErrors(t *testing.T) {
	features := &stubPurger{err: errors.New("features down")}
	roadmaps := &stubPurger{err: errors.New("roadmaps down")}

	err := NewCleaner(features, roadmaps, time.Hour).RunOnce(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "features down")
	require.Contains(t, err.Error(), "roadmaps down")
}

func TestCleanerStartRejectsBadSchedule(t *testing.T) {
	cleaner := NewCleaner(&stubPurger{}, nil, time.Hour, WithSchedule("not a schedule"))
	require.Error(t, cleaner.Start())
}

func TestCleanerPurgesSoftDeletedRows(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	stores, err := store.New(db)
	require.NoError(t, err)
	ctx := context.Background()

	roadmap := &models.Roadmap{Name: "Old"}
	require.NoError(t, stores.Roadmaps.Create(ctx, roadmap, nil))
	kept := &models.Roadmap{Name: "Kept"}
	require.NoError(t, stores.Roadmaps.Create(ctx, kept, nil))
	require.NoError(t, stores.Roadmaps.SoftDelete(ctx, roadmap.ID))

	cleaner := NewCleaner(stores.Features, stores.Roadmaps, time.Hour,
		WithNow(func() time.Time { return time.Now().Add(2 * time.Hour) }))
	require.NoError(t, cleaner.RunOnce(ctx))

	_, err = stores.Roadmaps.FindByID(ctx, roadmap.ID, store.IncludeDeleted)
	require.ErrorIs(t, err, store.ErrNotFound)

	found, err := stores.Roadmaps.FindByID(ctx, kept.ID, store.Live)
	require.NoError(t, err)
	require.Equal(t, "Kept", found.Name)
}
