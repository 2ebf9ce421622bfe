package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	cutoff time.Time
	rows   int64
	err    error
	calls  int
}

func (f *fakePruner) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return f.rows, f.err
}

func TestPruneReports(t *testing.T) {
	now := time.Date(2025, 3, 31, 2, 0, 0, 0, time.UTC)
	repo := &fakePruner{rows: 4}

	assert.Equal(t, int64(4), PruneReports(context.Background(), repo, 30, now))
	assert.Equal(t, time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC), repo.cutoff)
}

func TestPruneReportsDisabled(t *testing.T) {
	repo := &fakePruner{}
	assert.Equal(t, int64(0), PruneReports(context.Background(), repo, 0, time.Now()))
	assert.Equal(t, 0, repo.calls)
}

func TestPruneReportsError(t *testing.T) {
	repo := &fakePruner{rows: 9, err: errors.New("db down")}
	assert.Equal(t, int64(0), PruneReports(context.Background(), repo, 7, time.Now()))
	assert.Equal(t, 1, repo.calls)
}

func TestStartCronJobRejectsBadSpec(t *testing.T) {
	_, err := StartCronJob(&fakePruner{}, "not a spec", 30)
	assert.Error(t, err)
}

func TestStartCronJobAcceptsSecondsSpec(t *testing.T) {
	c, err := StartCronJob(&fakePruner{}, "0 0 2 * * *", 30)
	require.NoError(t, err)
	defer c.Stop()
	assert.Len(t, c.Entries(), 1)
}
