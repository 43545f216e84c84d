// memory based implementation for testing and embedding
package memory

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/routina/routina/dates"
	"github.com/routina/routina/store"
	"github.com/routina/routina/task"
)

// Repo implements store.Repository using in-memory maps.
type Repo struct {
	mu     sync.RWMutex
	series []task.Series
	tasks  map[dates.Key][]task.Task
	logger *slog.Logger
}

var _ store.Repository = (*Repo)(nil)

// New creates a new in-memory repository.
func New(opts ...Option) *Repo {
	r := &Repo{
		tasks:  make(map[dates.Key][]task.Task),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Option represents a configuration option for the Repo
type Option func(*Repo)

// WithLogger sets the logger for the repository
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repo) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func (r *Repo) LoadSeries(_ context.Context) ([]task.Series, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]task.Series, len(r.series))
	for i, s := range r.series {
		out[i] = s.Clone()
	}
	return out, nil
}

func (r *Repo) SaveSeries(_ context.Context, series []task.Series) error {
	copied := make([]task.Series, len(series))
	for i, s := range series {
		copied[i] = s.Clone()
	}

	r.mu.Lock()
	r.series = copied
	r.mu.Unlock()

	r.logger.Debug("saved series", "count", len(copied))
	return nil
}

func (r *Repo) LoadTasks(_ context.Context) (map[dates.Key][]task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return copyTaskMap(r.tasks), nil
}

func (r *Repo) SaveTasks(_ context.Context, tasks map[dates.Key][]task.Task) error {
	copied := copyTaskMap(tasks)

	r.mu.Lock()
	r.tasks = copied
	r.mu.Unlock()

	r.logger.Debug("saved tasks", "dates", len(copied))
	return nil
}

func copyTaskMap(in map[dates.Key][]task.Task) map[dates.Key][]task.Task {
	out := make(map[dates.Key][]task.Task, len(in))
	for key, list := range in {
		copied := make([]task.Task, len(list))
		copy(copied, list)
		out[key] = copied
	}
	return out
}
