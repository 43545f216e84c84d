package planner

import (
	"context"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routina/routina/config"
	"github.com/routina/routina/dates"
	"github.com/routina/routina/recurrence"
	"github.com/routina/routina/store"
	"github.com/routina/routina/store/memory"
	"github.com/routina/routina/task"
)

func dailySeries(id string, start dates.Key) task.Series {
	return task.Series{
		ID:        id,
		Title:     "stretch",
		Priority:  task.PriorityLow,
		CreatedAt: time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC),
		Schedule: recurrence.Schedule{
			Start: start,
			Rule:  recurrence.Rule{Frequency: recurrence.Daily, Interval: 1},
		},
	}
}

func TestPlanner_WindowForCursor(t *testing.T) {
	p := New(memory.New())
	defer p.Close()

	w, err := p.WindowForCursor("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, dates.Window{Start: "2024-02-01", End: "2024-04-30"}, w)

	_, err = p.WindowForCursor("nope")
	assert.ErrorIs(t, err, dates.ErrInvalidKey)
}

func TestPlanner_WindowForCursor_CustomSpan(t *testing.T) {
	cfg := config.Default()
	cfg.Window = config.WindowConfig{MonthsBefore: 0, MonthsAfter: 0}

	p := New(memory.New(), WithConfig(cfg))
	defer p.Close()

	w, err := p.WindowForCursor("2024-02-10")
	require.NoError(t, err)
	assert.Equal(t, dates.Window{Start: "2024-02-01", End: "2024-02-29"}, w)
}

func TestPlanner_Refresh(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	plain := task.Task{
		ID:        "p1",
		Kind:      task.KindTask,
		Title:     "renew passport",
		Due:       "2024-03-05",
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveTasks(ctx, map[dates.Key][]task.Task{"2024-03-05": {plain}}))

	st := store.New(dailySeries("s1", "2024-03-01"))

	p := New(repo, WithEngineConfig(recurrence.DisabledCacheConfig))
	defer p.Close()

	merged, err := p.Refresh(ctx, st, "2024-03-15")
	require.NoError(t, err)

	// Window covers Feb through Apr; the series starts Mar 1.
	assert.NotContains(t, merged, dates.Key("2024-02-29"))
	assert.Contains(t, merged, dates.Key("2024-03-01"))
	assert.Contains(t, merged, dates.Key("2024-04-30"))

	require.Len(t, merged["2024-03-05"], 2)
	ids := []string{merged["2024-03-05"][0].ID, merged["2024-03-05"][1].ID}
	assert.ElementsMatch(t, []string{"p1", task.InstanceID("s1", "2024-03-05")}, ids)

	// The merged map was persisted.
	saved, err := repo.LoadTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, merged, saved)
}

func TestPlanner_Refresh_SkipsMalformedSeries(t *testing.T) {
	ctx := context.Background()
	bad := dailySeries("bad", "2024-03-01")
	bad.Schedule.Rule.Interval = 0
	st := store.New(bad, dailySeries("good", "2024-03-01"))

	p := New(memory.New(), WithEngineConfig(recurrence.DisabledCacheConfig))
	defer p.Close()

	merged, err := p.Refresh(ctx, st, "2024-03-15")
	require.NoError(t, err)

	for _, list := range merged {
		for _, item := range list {
			assert.Equal(t, "good", item.SeriesID)
		}
	}
	assert.NotEmpty(t, merged)
}

func TestPlanner_Refresh_OverrideRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	st := store.New(dailySeries("s1", "2024-03-01"))

	p := New(repo, WithEngineConfig(recurrence.DisabledCacheConfig))
	defer p.Close()

	_, err := p.Refresh(ctx, st, "2024-03-15")
	require.NoError(t, err)

	st, err = st.SetOverride("s1", "2024-03-02", task.Overrides{Done: mo.Some(true)})
	require.NoError(t, err)

	merged, err := p.Refresh(ctx, st, "2024-03-15")
	require.NoError(t, err)

	require.Len(t, merged["2024-03-02"], 1)
	assert.True(t, merged["2024-03-02"][0].Done)
	require.Len(t, merged["2024-03-03"], 1)
	assert.False(t, merged["2024-03-03"][0].Done)
}

func TestPlanner_Refresh_CleansUpDeletedSeries(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	st := store.New(dailySeries("s1", "2024-03-01"))

	p := New(repo, WithEngineConfig(recurrence.DisabledCacheConfig))
	defer p.Close()

	merged, err := p.Refresh(ctx, st, "2024-03-15")
	require.NoError(t, err)
	require.NotEmpty(t, merged)

	st, err = st.DeleteSeries("s1")
	require.NoError(t, err)

	// The cursor moved on; the effective window still covers the earlier
	// pass, so every stale instance is reconciled away.
	merged, err = p.Refresh(ctx, st, "2024-06-15")
	require.NoError(t, err)
	assert.Empty(t, merged)
}

func TestPlanner_Refresh_SkippedOccurrenceRemoved(t *testing.T) {
	ctx := context.Background()
	st := store.New(dailySeries("s1", "2024-03-01"))

	p := New(memory.New(), WithEngineConfig(recurrence.DisabledCacheConfig))
	defer p.Close()

	merged, err := p.Refresh(ctx, st, "2024-03-15")
	require.NoError(t, err)
	require.Contains(t, merged, dates.Key("2024-03-10"))

	st, err = st.SkipOccurrence("s1", "2024-03-10")
	require.NoError(t, err)

	merged, err = p.Refresh(ctx, st, "2024-03-15")
	require.NoError(t, err)
	assert.NotContains(t, merged, dates.Key("2024-03-10"))
	assert.Contains(t, merged, dates.Key("2024-03-09"))
	assert.Contains(t, merged, dates.Key("2024-03-11"))
}

func TestPlanner_Streak(t *testing.T) {
	st := store.New(dailySeries("s1", "2024-03-01"))
	var err error
	for _, key := range []dates.Key{"2024-03-01", "2024-03-02", "2024-03-03"} {
		st, err = st.SetOverride("s1", key, task.Overrides{Done: mo.Some(true)})
		require.NoError(t, err)
	}

	p := New(memory.New(), WithEngineConfig(recurrence.DisabledCacheConfig))
	defer p.Close()

	streak, err := p.Streak(st, "s1", "2024-03-03")
	require.NoError(t, err)
	assert.Equal(t, task.Streak{Current: 3, Best: 3}, streak)

	// The next day went unmarked.
	streak, err = p.Streak(st, "s1", "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, task.Streak{Current: 0, Best: 3}, streak)

	_, err = p.Streak(st, "missing", "2024-03-04")
	assert.ErrorIs(t, err, store.ErrSeriesNotFound)

	streak, err = p.Streak(st, "s1", "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, task.Streak{}, streak, "before the series start there is no streak")
}
