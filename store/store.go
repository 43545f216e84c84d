// Package store holds recurrence series definitions as an immutable value
// and defines the persistence boundary the planner talks to. Every mutation
// returns a new Store, leaving the receiver untouched, so callers can keep
// snapshots around for undo or hand stores across goroutines without
// locking.
package store

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/routina/routina/dates"
	"github.com/routina/routina/task"
)

var (
	// ErrSeriesNotFound is returned when an operation names an unknown series.
	ErrSeriesNotFound = errors.New("series not found")
)

// Store is an immutable collection of recurrence series.
type Store struct {
	series map[string]task.Series
}

// New builds a store from the given series. Series without an id are
// assigned one.
func New(series ...task.Series) Store {
	s := Store{series: make(map[string]task.Series, len(series))}
	for _, ser := range series {
		s, _ = s.AddSeries(ser)
	}
	return s
}

// Len returns the number of series held.
func (s Store) Len() int {
	return len(s.series)
}

// Series returns a copy of the series with the given id.
func (s Store) Series(id string) (task.Series, bool) {
	ser, ok := s.series[id]
	if !ok {
		return task.Series{}, false
	}
	return ser.Clone(), true
}

// All returns copies of every series, ordered by creation time then id so
// materialization passes see a stable order.
func (s Store) All() []task.Series {
	out := make([]task.Series, 0, len(s.series))
	for _, ser := range s.series {
		out = append(out, ser.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// AddSeries returns a store that additionally holds ser. A missing id is
// filled with a fresh UUID, a zero creation time with the current time. The
// stored series (with any filled fields) is returned alongside.
func (s Store) AddSeries(ser task.Series) (Store, task.Series) {
	stored := ser.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	next := s.cloneMap()
	next[stored.ID] = stored
	return Store{series: next}, stored.Clone()
}

// DeleteSeries returns a store without the series. All its materialized
// instances vanish on the next materialization pass.
func (s Store) DeleteSeries(id string) (Store, error) {
	if _, ok := s.series[id]; !ok {
		return s, fmt.Errorf("%w: %s", ErrSeriesNotFound, id)
	}
	next := s.cloneMap()
	delete(next, id)
	return Store{series: next}, nil
}

// SkipOccurrence records key as an exception of the series ("delete only
// this occurrence"). Any already-materialized instance for the date is
// removed by the next materialization pass.
func (s Store) SkipOccurrence(id string, key dates.Key) (Store, error) {
	if !key.Valid() {
		return s, fmt.Errorf("skip occurrence: %w: %q", dates.ErrInvalidKey, key)
	}
	return s.withSeries(id, func(ser task.Series) task.Series {
		for _, ex := range ser.Schedule.Exceptions {
			if ex == key {
				return ser
			}
		}
		ser.Schedule.Exceptions = append(ser.Schedule.Exceptions, key)
		return ser
	})
}

// SetOverride shallow-merges o into the series' override entry for key,
// creating the entry if absent ("edit only this occurrence").
func (s Store) SetOverride(id string, key dates.Key, o task.Overrides) (Store, error) {
	if !key.Valid() {
		return s, fmt.Errorf("set override: %w: %q", dates.ErrInvalidKey, key)
	}
	return s.withSeries(id, func(ser task.Series) task.Series {
		if ser.Overrides == nil {
			ser.Overrides = make(map[dates.Key]task.Overrides, 1)
		}
		ser.Overrides[key] = ser.Overrides[key].Merge(o)
		return ser
	})
}

// EditTemplate patches the series' template fields. Per-occurrence
// overrides of the same fields are not cleared and keep winning during
// materialization.
func (s Store) EditTemplate(id string, patch task.TemplatePatch) (Store, error) {
	return s.withSeries(id, patch.Apply)
}

// withSeries clones the map, replaces one entry with a mutated deep copy
// and wraps the result in a new store.
func (s Store) withSeries(id string, mutate func(task.Series) task.Series) (Store, error) {
	ser, ok := s.series[id]
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrSeriesNotFound, id)
	}
	next := s.cloneMap()
	next[id] = mutate(ser.Clone())
	return Store{series: next}, nil
}

func (s Store) cloneMap() map[string]task.Series {
	next := make(map[string]task.Series, len(s.series)+1)
	for id, ser := range s.series {
		next[id] = ser
	}
	return next
}
