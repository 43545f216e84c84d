// Package planner drives materialization the way the surrounding
// application needs it: derive the window from the visible month, expand
// every series, reconcile into the persisted task map, and save the result.
// It replaces reactive, render-triggered recomputation with an explicit
// Refresh call the host invokes whenever series, overrides or the visible
// month change.
package planner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/routina/routina/config"
	"github.com/routina/routina/dates"
	"github.com/routina/routina/recurrence"
	"github.com/routina/routina/store"
	"github.com/routina/routina/task"
)

// Planner computes merged task maps from a series store and a repository.
type Planner struct {
	engine       *recurrence.Engine
	materializer *task.Materializer
	repo         store.Repository
	logger       *slog.Logger
	windowCfg    config.WindowConfig

	// mu guards widest. Reconciliation only cleans up dates the new pass
	// mentions, so every pass must cover all previously materialized dates;
	// the planner keeps the widest window it has used and widens narrower
	// requests to it.
	mu     sync.Mutex
	widest *dates.Window
}

// Option represents a configuration option for the Planner
type Option func(*plannerSettings)

type plannerSettings struct {
	logger       *slog.Logger
	cfg          *config.Config
	engineConfig *recurrence.EngineConfig
}

// WithLogger sets the logger for the planner
func WithLogger(logger *slog.Logger) Option {
	return func(s *plannerSettings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfig applies a loaded configuration (window span and cache tuning).
func WithConfig(cfg *config.Config) Option {
	return func(s *plannerSettings) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithEngineConfig overrides the recurrence engine configuration directly.
func WithEngineConfig(ec recurrence.EngineConfig) Option {
	return func(s *plannerSettings) {
		s.engineConfig = &ec
	}
}

// New creates a planner persisting through repo.
func New(repo store.Repository, opts ...Option) *Planner {
	settings := plannerSettings{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:    config.Default(),
	}
	for _, opt := range opts {
		opt(&settings)
	}

	ec := settings.cfg.EngineConfig()
	if settings.engineConfig != nil {
		ec = *settings.engineConfig
	}
	engine := recurrence.NewEngineWithConfig(ec)

	return &Planner{
		engine:       engine,
		materializer: task.NewMaterializer(engine),
		repo:         repo,
		logger:       settings.logger,
		windowCfg:    settings.cfg.Window,
	}
}

// Close releases the planner's engine resources.
func (p *Planner) Close() {
	p.engine.Close()
}

// WindowForCursor derives the materialization window from the month the
// cursor date falls in: by default the start of the previous month through
// the end of the next one.
func (p *Planner) WindowForCursor(cursor dates.Key) (dates.Window, error) {
	if !cursor.Valid() {
		return dates.Window{}, fmt.Errorf("%w: cursor %q", dates.ErrInvalidKey, cursor)
	}
	start := cursor.AddMonths(-p.windowCfg.MonthsBefore)
	end := cursor.AddMonths(p.windowCfg.MonthsAfter).MonthEnd()
	return dates.Window{Start: start, End: end}, nil
}

// Refresh materializes every series of st over the cursor's window,
// reconciles the instances into the repository's task map, saves and
// returns the merged map. Series with malformed schedules are logged and
// skipped so one corrupt definition never aborts the pass.
//
// The effective window never shrinks across the planner's lifetime: a
// request narrower than a previous pass is widened so instances
// materialized earlier are reconciled away rather than left to linger.
func (p *Planner) Refresh(ctx context.Context, st store.Store, cursor dates.Key) (map[dates.Key][]task.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	window, err := p.WindowForCursor(cursor)
	if err != nil {
		return nil, err
	}
	if p.widest != nil && !window.Covers(*p.widest) {
		window = window.Union(*p.widest)
	}

	existing, err := p.repo.LoadTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	var valid []task.Series
	for _, s := range st.All() {
		if err := s.Schedule.Validate(); err != nil {
			p.logger.Warn("skipping malformed series",
				"series_id", s.ID,
				"error", err)
			continue
		}
		valid = append(valid, s)
	}

	materialized, err := p.materializer.Materialize(valid, window)
	if err != nil {
		return nil, fmt.Errorf("materialize: %w", err)
	}

	// Dates inside the window that still hold recurring items but got no
	// fresh instances must be mentioned explicitly, otherwise Reconcile
	// would pass them through untouched.
	for key, list := range existing {
		if _, touched := materialized[key]; touched {
			continue
		}
		if !window.Contains(key) {
			continue
		}
		for _, item := range list {
			if item.Recurring {
				materialized[key] = []task.Task{}
				break
			}
		}
	}

	merged := task.Reconcile(existing, materialized)

	if err := p.repo.SaveTasks(ctx, merged); err != nil {
		return nil, fmt.Errorf("save tasks: %w", err)
	}

	p.widest = &window
	p.logger.Debug("refreshed task map",
		"window_start", window.Start,
		"window_end", window.End,
		"series", len(valid),
		"dates", len(merged))

	return merged, nil
}

// Streak computes the completion streak of one series as of today, walking
// its occurrences from the series start.
func (p *Planner) Streak(st store.Store, seriesID string, today dates.Key) (task.Streak, error) {
	ser, ok := st.Series(seriesID)
	if !ok {
		return task.Streak{}, fmt.Errorf("%w: %s", store.ErrSeriesNotFound, seriesID)
	}
	if !today.Valid() {
		return task.Streak{}, fmt.Errorf("%w: today %q", dates.ErrInvalidKey, today)
	}
	if today.Before(ser.Schedule.Start) {
		return task.Streak{}, nil
	}

	occ, err := p.engine.Generate(ser.Schedule, dates.Window{Start: ser.Schedule.Start, End: today})
	if err != nil {
		return task.Streak{}, fmt.Errorf("generate occurrences: %w", err)
	}
	return task.SeriesStreak(ser, occ, today), nil
}
