// Package task holds the task records of the planner: one-off tasks, day
// notes, recurring series and the instances materialized from them. The
// materializer and reconciler here are pure functions; persistence and UI
// concerns live with the caller.
package task

import (
	"fmt"
	"time"

	"github.com/routina/routina/dates"
)

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Kind distinguishes regular tasks from the day-note pseudo-item a date's
// list may carry.
type Kind string

const (
	KindTask Kind = "task"
	KindNote Kind = "note"
)

// Subtask is one checklist entry of a task.
type Subtask struct {
	ID    string
	Title string
	Done  bool
}

// Task is one item in a date's list. Materialized recurring instances are
// Tasks with Recurring set; they are ephemeral and regenerated on every
// materialization pass, never independently persisted.
type Task struct {
	ID       string
	Kind     Kind
	Title    string
	Notes    string
	Priority Priority
	Done     bool
	Subtasks []Subtask
	// Due is the calendar date the task is bucketed under.
	Due       dates.Key
	CreatedAt time.Time
	// Recurring marks a materialized instance of a series.
	Recurring bool
	// SeriesID is set on recurring instances only.
	SeriesID string
}

// InstanceID returns the deterministic id of a series' instance on a date.
// Regenerating the same occurrence always yields the same id, which is what
// makes merge-by-id during reconciliation stable.
func InstanceID(seriesID string, key dates.Key) string {
	return fmt.Sprintf("%s:%s", seriesID, key)
}

// NewDayNote builds the day-note pseudo-item for a date. The id is
// deterministic per date so a date can never accumulate two notes.
func NewDayNote(key dates.Key, text string, createdAt time.Time) Task {
	return Task{
		ID:        fmt.Sprintf("note:%s", key),
		Kind:      KindNote,
		Notes:     text,
		Due:       key,
		CreatedAt: createdAt,
	}
}

func cloneSubtasks(subtasks []Subtask) []Subtask {
	if subtasks == nil {
		return nil
	}
	out := make([]Subtask, len(subtasks))
	copy(out, subtasks)
	return out
}
