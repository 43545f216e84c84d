package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/routina/routina/dates"
)

// Frequency selects the base cadence of a schedule.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// EndType selects how a schedule terminates.
type EndType string

const (
	// EndNever lets the schedule run forever.
	EndNever EndType = "never"
	// EndOnDate stops the schedule after a given date, inclusive.
	EndOnDate EndType = "onDate"
	// EndAfterCount stops the schedule after a fixed number of occurrences,
	// counted from the schedule start over the whole series lifetime.
	EndAfterCount EndType = "afterCount"
)

// End is a schedule's termination condition.
type End struct {
	Type EndType
	// OnDate is the last permitted occurrence date when Type is EndOnDate.
	OnDate dates.Key
	// Count is the total occurrence budget when Type is EndAfterCount.
	// Skipped exception dates do not consume the budget.
	Count int
}

// Rule describes how occurrences repeat.
type Rule struct {
	Frequency Frequency
	// Interval is the spacing between firings: every Interval days, weeks
	// or months. Must be at least 1.
	Interval int
	// ByWeekday restricts weekly schedules to these weekdays. Empty means
	// the weekday of the schedule start.
	ByWeekday []time.Weekday
	// ByMonthday restricts monthly schedules to these days of month (1-31).
	// Empty means the day of month of the schedule start. Days that a month
	// does not have are skipped for that month, never clamped.
	ByMonthday []int
	End        End
}

// ErrInvalidRule marks a schedule definition the engine refuses to expand.
// Such schedules generate zero occurrences rather than failing a whole
// materialization pass.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Validate checks the rule's shape. A nil return does not promise the rule
// produces any occurrence, only that expansion is well defined.
func (r Rule) Validate() error {
	switch r.Frequency {
	case Daily, Weekly, Monthly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval %d", ErrInvalidRule, r.Interval)
	}
	for _, wd := range r.ByWeekday {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidRule, wd)
		}
	}
	for _, md := range r.ByMonthday {
		if md < 1 || md > 31 {
			return fmt.Errorf("%w: monthday %d out of range", ErrInvalidRule, md)
		}
	}
	switch r.End.Type {
	case "", EndNever:
	case EndOnDate:
		if !r.End.OnDate.Valid() {
			return fmt.Errorf("%w: end date %q", ErrInvalidRule, r.End.OnDate)
		}
	case EndAfterCount:
		if r.End.Count < 1 {
			return fmt.Errorf("%w: end count %d", ErrInvalidRule, r.End.Count)
		}
	default:
		return fmt.Errorf("%w: unknown end type %q", ErrInvalidRule, r.End.Type)
	}
	return nil
}

// Schedule binds a rule to a start date and its per-date exceptions.
type Schedule struct {
	// Start is the anchor date; no occurrence falls before it and all
	// interval alignment is computed from it.
	Start dates.Key
	Rule  Rule
	// Exceptions are dates explicitly suppressed ("delete only this
	// occurrence"). They are removed after candidate generation so they
	// never shift interval alignment, and they do not consume an
	// EndAfterCount budget.
	Exceptions []dates.Key
}

// Validate checks the schedule's shape.
func (s Schedule) Validate() error {
	if !s.Start.Valid() {
		return fmt.Errorf("%w: start date %q", ErrInvalidRule, s.Start)
	}
	return s.Rule.Validate()
}
