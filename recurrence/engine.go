package recurrence

import (
	"fmt"
	"sort"
	"time"

	"github.com/routina/routina/dates"
)

// Engine expands schedules into concrete occurrence dates.
type Engine struct {
	cache  *OccurrenceCache
	config EngineConfig
}

// NewEngine creates an engine with the default configuration.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig)
}

// Generate returns the sorted occurrence dates of sched inside window, both
// bounds inclusive. Exception dates are excluded, end conditions honored.
// A malformed schedule yields an empty result and no error; an invalid
// window is a caller bug and is reported as an error.
func (e *Engine) Generate(sched Schedule, window dates.Window) ([]dates.Key, error) {
	if !window.Start.Valid() || !window.End.Valid() {
		return nil, fmt.Errorf("%w: [%s, %s]", dates.ErrInvalidWindow, window.Start, window.End)
	}
	if window.End.Before(window.Start) {
		return nil, fmt.Errorf("%w: end %s before start %s", dates.ErrInvalidWindow, window.End, window.Start)
	}
	if sched.Validate() != nil {
		return nil, nil
	}

	if e.cache != nil {
		if keys, ok := e.cache.Get(sched, window); ok {
			return keys, nil
		}
	}

	keys := e.expand(sched, window)

	if e.cache != nil {
		e.cache.Set(sched, window, keys)
	}
	return keys, nil
}

// Close releases the engine's cache resources, if any.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// expand walks candidate dates in ascending order and collects those that
// survive exception filtering and fall inside the window. When the schedule
// carries an occurrence-count cap, candidates are always walked from the
// schedule start so the count stays window independent; otherwise the walk
// fast-forwards to the window.
func (e *Engine) expand(sched Schedule, window dates.Window) []dates.Key {
	if window.End.Before(sched.Start) {
		return nil
	}

	limit := window.End
	if sched.Rule.End.Type == EndOnDate && sched.Rule.End.OnDate.Before(limit) {
		limit = sched.Rule.End.OnDate
	}
	if limit.Before(sched.Start) {
		return nil
	}

	excluded := make(map[dates.Key]struct{}, len(sched.Exceptions))
	for _, k := range sched.Exceptions {
		excluded[k] = struct{}{}
	}

	counting := sched.Rule.End.Type == EndAfterCount
	budget := sched.Rule.End.Count

	maxOccurrences := e.config.MaxOccurrences
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultEngineConfig.MaxOccurrences
	}

	var out []dates.Key

	// emit consumes one candidate date. It returns false once the walk is
	// done: past the limit, out of occurrence budget, or over the safety cap.
	emit := func(k dates.Key) bool {
		if k.After(limit) {
			return false
		}
		if _, skip := excluded[k]; skip {
			return true
		}
		if counting {
			if budget == 0 {
				return false
			}
			budget--
		}
		if window.Contains(k) {
			out = append(out, k)
			if len(out) >= maxOccurrences {
				return false
			}
		}
		return true
	}

	switch sched.Rule.Frequency {
	case Daily:
		expandDaily(sched, window, counting, emit)
	case Weekly:
		expandWeekly(sched, window, counting, limit, emit)
	case Monthly:
		expandMonthly(sched, window, counting, limit, emit)
	}

	return out
}

// expandDaily steps from the schedule start in interval-day strides. Without
// a count cap the first stride landing at or after the window start is
// computed directly instead of walking there.
func expandDaily(sched Schedule, window dates.Window, counting bool, emit func(dates.Key) bool) {
	interval := sched.Rule.Interval
	first := sched.Start
	if !counting && window.Start.After(first) {
		diff := dates.DaysBetween(first, window.Start)
		steps := (diff + interval - 1) / interval
		first = first.AddDays(steps * interval)
	}
	for k := first; ; k = k.AddDays(interval) {
		if !emit(k) {
			return
		}
	}
}

// expandWeekly walks day by day, keeping days whose week block (counted from
// the schedule start) is an interval multiple and whose weekday is selected.
// Day-by-day iteration is O(window days), fine for windows of a few months.
func expandWeekly(sched Schedule, window dates.Window, counting bool, limit dates.Key, emit func(dates.Key) bool) {
	selected := make(map[time.Weekday]struct{}, len(sched.Rule.ByWeekday))
	for _, wd := range sched.Rule.ByWeekday {
		selected[wd] = struct{}{}
	}
	if len(selected) == 0 {
		selected[sched.Start.Weekday()] = struct{}{}
	}

	from := sched.Start
	if !counting && window.Start.After(from) {
		from = window.Start
	}
	for k := from; !k.After(limit); k = k.AddDays(1) {
		week := dates.DaysBetween(sched.Start, k) / 7
		if week%sched.Rule.Interval != 0 {
			continue
		}
		if _, ok := selected[k.Weekday()]; !ok {
			continue
		}
		if !emit(k) {
			return
		}
	}
}

// expandMonthly visits every interval-th month from the start month and
// fires on each selected day of month. A month without that day (day 31 in
// February) simply produces nothing there.
func expandMonthly(sched Schedule, window dates.Window, counting bool, limit dates.Key, emit func(dates.Key) bool) {
	mdays := monthdaySet(sched)

	interval := sched.Rule.Interval
	month := sched.Start.MonthStart()
	if !counting && window.Start.After(sched.Start) {
		diff := window.Start.MonthIndex() - sched.Start.MonthIndex()
		if steps := diff / interval; steps > 0 {
			month = month.AddMonths(steps * interval)
		}
	}

	for ; !month.After(limit); month = month.AddMonths(interval) {
		length := dates.DaysInMonth(month)
		for _, d := range mdays {
			if d > length {
				continue
			}
			k := month.AddDays(d - 1)
			if k.Before(sched.Start) {
				continue
			}
			if !emit(k) {
				return
			}
		}
	}
}

// monthdaySet returns the schedule's selected month days, sorted and
// deduplicated, defaulting to the start date's day of month.
func monthdaySet(sched Schedule) []int {
	if len(sched.Rule.ByMonthday) == 0 {
		return []int{sched.Start.Day()}
	}
	seen := make(map[int]struct{}, len(sched.Rule.ByMonthday))
	var mdays []int
	for _, d := range sched.Rule.ByMonthday {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		mdays = append(mdays, d)
	}
	sort.Ints(mdays)
	return mdays
}
