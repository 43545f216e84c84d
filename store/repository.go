package store

import (
	"context"

	"github.com/routina/routina/dates"
	"github.com/routina/routina/task"
)

// Repository connects the planner with whatever persists series definitions
// and the merged task map: a document database, a file, or the in-memory
// implementation in store/memory. The planner loads and saves wholesale;
// the core itself never performs I/O.
type Repository interface {
	// LoadSeries returns all persisted series definitions.
	LoadSeries(ctx context.Context) ([]task.Series, error)
	// SaveSeries replaces the persisted series definitions.
	SaveSeries(ctx context.Context, series []task.Series) error
	// LoadTasks returns the persisted date-to-task-list map.
	LoadTasks(ctx context.Context) (map[dates.Key][]task.Task, error)
	// SaveTasks replaces the persisted date-to-task-list map.
	SaveTasks(ctx context.Context, tasks map[dates.Key][]task.Task) error
}
