package task

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routina/routina/dates"
	"github.com/routina/routina/recurrence"
)

func testEngine() *recurrence.Engine {
	return recurrence.NewEngineWithConfig(recurrence.DisabledCacheConfig)
}

func dailySeries(id string, start dates.Key) Series {
	return Series{
		ID:        id,
		Title:     "water the plants",
		Notes:     "the ficus first",
		Priority:  PriorityMedium,
		Subtasks:  []Subtask{{ID: "st1", Title: "kitchen"}, {ID: "st2", Title: "balcony"}},
		CreatedAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		Schedule: recurrence.Schedule{
			Start: start,
			Rule:  recurrence.Rule{Frequency: recurrence.Daily, Interval: 1},
		},
	}
}

func TestMaterialize_BucketsByDate(t *testing.T) {
	m := NewMaterializer(testEngine())
	s := dailySeries("s1", "2024-01-01")
	w := dates.Window{Start: "2024-01-01", End: "2024-01-03"}

	got, err := m.Materialize([]Series{s}, w)
	require.NoError(t, err)
	require.Len(t, got, 3)

	inst := got["2024-01-02"]
	require.Len(t, inst, 1)
	assert.Equal(t, "s1:2024-01-02", inst[0].ID)
	assert.Equal(t, "water the plants", inst[0].Title)
	assert.Equal(t, PriorityMedium, inst[0].Priority)
	assert.True(t, inst[0].Recurring)
	assert.Equal(t, "s1", inst[0].SeriesID)
	assert.Equal(t, dates.Key("2024-01-02"), inst[0].Due)
	assert.False(t, inst[0].Done)
	assert.Len(t, inst[0].Subtasks, 2)
}

func TestMaterialize_AppliesOverrides(t *testing.T) {
	m := NewMaterializer(testEngine())
	s := dailySeries("s1", "2024-01-01")
	s.Overrides = map[dates.Key]Overrides{
		"2024-01-01": {Done: mo.Some(true)},
		"2024-01-02": {Title: mo.Some("water extra"), Priority: mo.Some(PriorityHigh)},
	}
	w := dates.Window{Start: "2024-01-01", End: "2024-01-03"}

	got, err := m.Materialize([]Series{s}, w)
	require.NoError(t, err)

	assert.True(t, got["2024-01-01"][0].Done)
	assert.Equal(t, "water the plants", got["2024-01-01"][0].Title)

	assert.Equal(t, "water extra", got["2024-01-02"][0].Title)
	assert.Equal(t, PriorityHigh, got["2024-01-02"][0].Priority)
	assert.False(t, got["2024-01-02"][0].Done)

	assert.False(t, got["2024-01-03"][0].Done)
	assert.Equal(t, "water the plants", got["2024-01-03"][0].Title)
}

func TestMaterialize_MultipleSeriesShareDates(t *testing.T) {
	m := NewMaterializer(testEngine())
	a := dailySeries("a", "2024-01-01")
	b := dailySeries("b", "2024-01-02")
	w := dates.Window{Start: "2024-01-01", End: "2024-01-02"}

	got, err := m.Materialize([]Series{a, b}, w)
	require.NoError(t, err)

	assert.Len(t, got["2024-01-01"], 1)
	require.Len(t, got["2024-01-02"], 2)

	ids := []string{got["2024-01-02"][0].ID, got["2024-01-02"][1].ID}
	assert.ElementsMatch(t, []string{"a:2024-01-02", "b:2024-01-02"}, ids)
}

func TestMaterialize_MalformedSeriesDegradesAlone(t *testing.T) {
	m := NewMaterializer(testEngine())
	good := dailySeries("good", "2024-01-01")
	bad := dailySeries("bad", "2024-01-01")
	bad.Schedule.Rule.Interval = 0
	w := dates.Window{Start: "2024-01-01", End: "2024-01-02"}

	got, err := m.Materialize([]Series{bad, good}, w)
	require.NoError(t, err)

	require.Len(t, got["2024-01-01"], 1)
	assert.Equal(t, "good", got["2024-01-01"][0].SeriesID)
}

func TestMaterialize_Idempotent(t *testing.T) {
	m := NewMaterializer(testEngine())
	s := dailySeries("s1", "2024-01-01")
	s.Overrides = map[dates.Key]Overrides{"2024-01-02": {Done: mo.Some(true)}}
	w := dates.Window{Start: "2024-01-01", End: "2024-01-05"}

	first, err := m.Materialize([]Series{s}, w)
	require.NoError(t, err)
	second, err := m.Materialize([]Series{s}, w)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMaterialize_InvalidWindow(t *testing.T) {
	m := NewMaterializer(testEngine())
	s := dailySeries("s1", "2024-01-01")

	_, err := m.Materialize([]Series{s}, dates.Window{Start: "2024-02-01", End: "2024-01-01"})
	assert.ErrorIs(t, err, dates.ErrInvalidWindow)
}

func TestMaterialize_InstancesDoNotShareSubtaskSlices(t *testing.T) {
	m := NewMaterializer(testEngine())
	s := dailySeries("s1", "2024-01-01")
	w := dates.Window{Start: "2024-01-01", End: "2024-01-02"}

	got, err := m.Materialize([]Series{s}, w)
	require.NoError(t, err)

	got["2024-01-01"][0].Subtasks[0].Done = true
	assert.False(t, got["2024-01-02"][0].Subtasks[0].Done)
	assert.False(t, s.Subtasks[0].Done)
}
