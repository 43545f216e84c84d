package task

import (
	"time"

	"github.com/samber/mo"

	"github.com/routina/routina/dates"
	"github.com/routina/routina/recurrence"
)

// Series is a user-authored recurring-task definition: a template plus a
// schedule plus per-occurrence customizations.
type Series struct {
	ID string

	// Template fields, copied onto every instance unless overridden.
	Title    string
	Notes    string
	Priority Priority
	Subtasks []Subtask

	CreatedAt time.Time

	Schedule recurrence.Schedule

	// Overrides maps an occurrence date to the per-occurrence edits layered
	// on top of the template ("edit only this occurrence", including toggling
	// a single occurrence done). Completion of an occurrence lives here and
	// only here.
	Overrides map[dates.Key]Overrides
}

// Overrides is the typed partial record of per-occurrence edits. An absent
// option leaves the template value in place.
type Overrides struct {
	Title    mo.Option[string]
	Notes    mo.Option[string]
	Priority mo.Option[Priority]
	Done     mo.Option[bool]
	Subtasks mo.Option[[]Subtask]
}

// IsZero reports whether no field is overridden.
func (o Overrides) IsZero() bool {
	return o.Title.IsAbsent() && o.Notes.IsAbsent() && o.Priority.IsAbsent() &&
		o.Done.IsAbsent() && o.Subtasks.IsAbsent()
}

// Merge layers other on top of o, field by field. Fields other leaves absent
// keep o's value.
func (o Overrides) Merge(other Overrides) Overrides {
	merged := o
	if v, ok := other.Title.Get(); ok {
		merged.Title = mo.Some(v)
	}
	if v, ok := other.Notes.Get(); ok {
		merged.Notes = mo.Some(v)
	}
	if v, ok := other.Priority.Get(); ok {
		merged.Priority = mo.Some(v)
	}
	if v, ok := other.Done.Get(); ok {
		merged.Done = mo.Some(v)
	}
	if v, ok := other.Subtasks.Get(); ok {
		merged.Subtasks = mo.Some(cloneSubtasks(v))
	}
	return merged
}

// apply writes the overridden fields onto a materialized instance.
func (o Overrides) apply(t *Task) {
	if v, ok := o.Title.Get(); ok {
		t.Title = v
	}
	if v, ok := o.Notes.Get(); ok {
		t.Notes = v
	}
	if v, ok := o.Priority.Get(); ok {
		t.Priority = v
	}
	if v, ok := o.Done.Get(); ok {
		t.Done = v
	}
	if v, ok := o.Subtasks.Get(); ok {
		t.Subtasks = cloneSubtasks(v)
	}
}

// TemplatePatch is the typed partial record for editing a series template.
// It deliberately has no Done field: completion is per occurrence, not per
// series.
type TemplatePatch struct {
	Title    mo.Option[string]
	Notes    mo.Option[string]
	Priority mo.Option[Priority]
	Subtasks mo.Option[[]Subtask]
}

// Apply returns a copy of the series with the patched template fields.
// Existing per-occurrence overrides are left alone and keep winning over the
// template during materialization.
func (p TemplatePatch) Apply(s Series) Series {
	out := s
	if v, ok := p.Title.Get(); ok {
		out.Title = v
	}
	if v, ok := p.Notes.Get(); ok {
		out.Notes = v
	}
	if v, ok := p.Priority.Get(); ok {
		out.Priority = v
	}
	if v, ok := p.Subtasks.Get(); ok {
		out.Subtasks = cloneSubtasks(v)
	}
	return out
}

// Instance materializes the series' occurrence on key: template fields
// first, then the date's overrides shallowly on top. Deterministic for the
// same series state.
func (s Series) Instance(key dates.Key) Task {
	t := Task{
		ID:        InstanceID(s.ID, key),
		Kind:      KindTask,
		Title:     s.Title,
		Notes:     s.Notes,
		Priority:  s.Priority,
		Subtasks:  cloneSubtasks(s.Subtasks),
		Due:       key,
		CreatedAt: s.CreatedAt,
		Recurring: true,
		SeriesID:  s.ID,
	}
	if o, ok := s.Overrides[key]; ok {
		o.apply(&t)
	}
	return t
}

// Clone returns a deep copy of the series, so copy-on-write holders can hand
// out values without sharing mutable state.
func (s Series) Clone() Series {
	out := s
	out.Subtasks = cloneSubtasks(s.Subtasks)
	if s.Schedule.Exceptions != nil {
		out.Schedule.Exceptions = make([]dates.Key, len(s.Schedule.Exceptions))
		copy(out.Schedule.Exceptions, s.Schedule.Exceptions)
	}
	if s.Overrides != nil {
		out.Overrides = make(map[dates.Key]Overrides, len(s.Overrides))
		for k, o := range s.Overrides {
			out.Overrides[k] = o
		}
	}
	return out
}
