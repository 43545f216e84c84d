package task

import (
	"fmt"

	"github.com/routina/routina/dates"
	"github.com/routina/routina/recurrence"
)

// Materializer turns series definitions into concrete per-date instances.
type Materializer struct {
	engine *recurrence.Engine
}

// NewMaterializer creates a materializer on top of a recurrence engine.
func NewMaterializer(engine *recurrence.Engine) *Materializer {
	return &Materializer{engine: engine}
}

// Materialize expands every series over the window and buckets the resulting
// instances by date. Several series may contribute to the same date; all are
// kept. Series with malformed schedules contribute nothing. The result is
// deterministic: running it twice over the same input yields element-wise
// equal instances.
func (m *Materializer) Materialize(series []Series, window dates.Window) (map[dates.Key][]Task, error) {
	out := make(map[dates.Key][]Task)

	for _, s := range series {
		keys, err := m.engine.Generate(s.Schedule, window)
		if err != nil {
			return nil, fmt.Errorf("materialize series %s: %w", s.ID, err)
		}
		for _, key := range keys {
			out[key] = append(out[key], s.Instance(key))
		}
	}

	return out, nil
}
