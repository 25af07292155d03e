package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/livefir/anchor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func openTemp(t *testing.T, opts ...Option) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)

	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	tick := 0
	j.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	require.NoError(t, j.Record(ctx, "focus", anchor.Event{Kind: anchor.PathDescent, Outcome: anchor.OutcomeExact, AncestorIndex: 2, Descended: 2, Depth: 4}))
	require.NoError(t, j.Record(ctx, "focus", anchor.Event{Name: "cursor", Kind: anchor.AncestorMatch, Outcome: anchor.OutcomeAncestor, AncestorIndex: 1, Depth: 3}))

	entries, err := j.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	newest := entries[0]
	assert.Equal(t, "cursor", newest.Name, "the event name wins over the default")
	assert.Equal(t, "ancestry", newest.Kind)
	assert.Equal(t, "ancestor", newest.Outcome)
	assert.Equal(t, 1, newest.AncestorIndex)
	assert.True(t, newest.RecordedAt.Equal(base.Add(2*time.Second)))

	oldest := entries[1]
	assert.Equal(t, "focus", oldest.Name)
	assert.Equal(t, "tree_path", oldest.Kind)
	assert.Equal(t, "exact", oldest.Outcome)
	assert.Equal(t, 2, oldest.Descended)
	assert.Equal(t, 4, oldest.Depth)

	limited, err := j.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, newest.ID, limited[0].ID)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)

	events := []anchor.Event{
		{Kind: anchor.PathDescent, Outcome: anchor.OutcomeExact},
		{Kind: anchor.PathDescent, Outcome: anchor.OutcomeExact},
		{Kind: anchor.PathDescent, Outcome: anchor.OutcomeAncestor},
		{Kind: anchor.AncestorMatch, Outcome: anchor.OutcomeUnrecovered},
	}
	for _, e := range events {
		require.NoError(t, j.Record(ctx, "", e))
	}

	summary, err := j.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SummaryRow{
		{Kind: "ancestry", Outcome: "unrecovered", Count: 1},
		{Kind: "tree_path", Outcome: "ancestor", Count: 1},
		{Kind: "tree_path", Outcome: "exact", Count: 2},
	}, summary)
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, "a", anchor.Event{Outcome: anchor.OutcomeExact}))
	require.NoError(t, j.Close())

	j, err = Open(ctx, path)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.ErrorIs(t, j.Record(ctx, "a", anchor.Event{}), ErrClosed)
	_, err := j.List(ctx, 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = j.Summary(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestObserver(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	j := openTemp(t, WithLogger(zap.New(core)))

	obs := j.Observer(ctx, "focus")
	obs.ObserveRecovery(anchor.Event{Kind: anchor.PathDescent, Outcome: anchor.OutcomeAncestor})

	entries, err := j.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "focus", entries[0].Name)
	assert.Equal(t, 0, logs.Len())

	require.NoError(t, j.Close())
	obs.ObserveRecovery(anchor.Event{Outcome: anchor.OutcomeExact})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "failed to journal recovery", entry.Message)
	assert.Equal(t, "focus", entry.ContextMap()["name"])
}
