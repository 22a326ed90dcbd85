package eviction

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcf0508/mem-mcp/internal/model"
	"github.com/zcf0508/mem-mcp/internal/store"
	"github.com/zcf0508/mem-mcp/internal/store/fsstore"
)

var sweepNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) (*Sweeper, store.Store) {
	t.Helper()
	st := fsstore.New(t.TempDir(), zerolog.Nop(), fsstore.WithClock(func() time.Time { return sweepNow }))
	return NewSweeper(st, zerolog.Nop(), func() time.Time { return sweepNow }), st
}

func putRecord(t *testing.T, st store.Store, name string, prio model.Priority, accessedAgo time.Duration) {
	t.Helper()
	accessed := sweepNow.Add(-accessedAgo)
	rec := &model.Record{
		Filename: name,
		Body:     "# " + name + "\n",
		Meta: model.Metadata{
			Priority:       prio,
			CreatedAt:      accessed,
			UpdatedAt:      accessed,
			LastAccessedAt: accessed,
		},
	}
	require.NoError(t, st.Save(context.Background(), "alice", rec, store.Hot))
}

func TestP0NeverArchived(t *testing.T) {
	sw, st := newFixture(t)
	putRecord(t, st, "eternal.md", model.PriorityP0, 10*365*24*time.Hour)

	res, err := sw.Sweep(context.Background(), "alice", Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Archived)
	assert.Equal(t, []string{"eternal.md"}, res.Kept)
}

func TestAgeThresholds(t *testing.T) {
	sw, st := newFixture(t)
	putRecord(t, st, "p2-fresh.md", model.PriorityP2, 29*24*time.Hour)
	putRecord(t, st, "p2-stale.md", model.PriorityP2, 31*24*time.Hour)
	putRecord(t, st, "p1-fresh.md", model.PriorityP1, 89*24*time.Hour)
	putRecord(t, st, "p1-stale.md", model.PriorityP1, 91*24*time.Hour)

	res, err := sw.Sweep(context.Background(), "alice", Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p2-stale.md", "p1-stale.md"}, res.Archived)
	assert.ElementsMatch(t, []string{"p2-fresh.md", "p1-fresh.md"}, res.Kept)

	// The stale records now reside in the archive directory.
	archived, err := st.List(context.Background(), "alice", store.Archive)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p2-stale.md", "p1-stale.md"}, archived)
}

func TestCapacityConvergence(t *testing.T) {
	sw, st := newFixture(t)
	// 8 records, none past its age threshold, capacity 5: exactly 3 go,
	// oldest-accessed first, P2 before P1.
	putRecord(t, st, "p1-old.md", model.PriorityP1, 20*24*time.Hour)
	putRecord(t, st, "p0-old.md", model.PriorityP0, 25*24*time.Hour)
	for i := 1; i <= 6; i++ {
		putRecord(t, st, fmt.Sprintf("p2-%d.md", i), model.PriorityP2, time.Duration(i)*24*time.Hour)
	}

	res, err := sw.Sweep(context.Background(), "alice", Options{MaxHot: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2-6.md", "p2-5.md", "p2-4.md"}, res.Archived)
	assert.Len(t, res.Kept, 5)
	assert.Contains(t, res.Kept, "p0-old.md")
	assert.Contains(t, res.Kept, "p1-old.md")
}

func TestCapacityFallsBackToP1(t *testing.T) {
	sw, st := newFixture(t)
	putRecord(t, st, "p2-a.md", model.PriorityP2, 1*24*time.Hour)
	putRecord(t, st, "p1-old.md", model.PriorityP1, 10*24*time.Hour)
	putRecord(t, st, "p1-new.md", model.PriorityP1, 2*24*time.Hour)

	res, err := sw.Sweep(context.Background(), "alice", Options{MaxHot: 1})
	require.NoError(t, err)
	// The only P2 goes first, then the oldest-accessed P1.
	assert.Equal(t, []string{"p2-a.md", "p1-old.md"}, res.Archived)
	assert.Equal(t, []string{"p1-new.md"}, res.Kept)
}

func TestCapacityNeverTouchesP0(t *testing.T) {
	sw, st := newFixture(t)
	for i := 1; i <= 3; i++ {
		putRecord(t, st, fmt.Sprintf("p0-%d.md", i), model.PriorityP0, time.Duration(i)*24*time.Hour)
	}

	res, err := sw.Sweep(context.Background(), "alice", Options{MaxHot: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Archived)
	assert.Len(t, res.Kept, 3)
}

func TestOverflowByOne(t *testing.T) {
	sw, st := newFixture(t)
	// 51 P2 records with strictly increasing last-access times; default
	// capacity evicts exactly the oldest one.
	for i := 0; i < 51; i++ {
		putRecord(t, st, fmt.Sprintf("rec-%02d.md", i), model.PriorityP2, time.Duration(51-i)*time.Hour)
	}

	res, err := sw.Sweep(context.Background(), "alice", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-00.md"}, res.Archived)
	assert.Len(t, res.Kept, 50)
}

func TestDryRunMovesNothing(t *testing.T) {
	sw, st := newFixture(t)
	putRecord(t, st, "stale.md", model.PriorityP2, 40*24*time.Hour)

	res, err := sw.Sweep(context.Background(), "alice", Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"stale.md"}, res.Archived)

	hot, err := st.List(context.Background(), "alice", store.Hot)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale.md"}, hot, "dry run must not move files")

	archived, err := st.List(context.Background(), "alice", store.Archive)
	require.NoError(t, err)
	assert.Empty(t, archived)
}

func TestSweepEmptyUser(t *testing.T) {
	sw, _ := newFixture(t)
	res, err := sw.Sweep(context.Background(), "ghost", Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Archived)
	assert.Empty(t, res.Kept)
}
