package task

import (
	"sort"

	"github.com/routina/routina/dates"
)

// Reconcile merges freshly materialized instances into an existing date map
// without disturbing plain items. For every date the materialized map
// touches:
//
//   - Plain items (one-off tasks, the day-note pseudo-item) pass through
//     untouched.
//   - Previously merged recurring items are replaced wholesale by the fresh
//     instances, matched by id. Template fields always come from the fresh
//     instance so series-level edits propagate; completion already reflects
//     the series' overrides, which are the single source of truth for it, so
//     nothing is re-preserved from the stale in-memory item. Only the
//     creation timestamp of a matched item survives, keeping list order
//     stable.
//   - The date's list is re-sorted newest first and removed entirely when
//     empty.
//
// Dates the materialized map does not mention are passed through as they
// are. That makes window discipline a caller contract: every pass must use a
// window covering the previous pass's window, or instances that fell out of
// the window linger. The planner enforces this.
func Reconcile(existing, materialized map[dates.Key][]Task) map[dates.Key][]Task {
	merged := make(map[dates.Key][]Task, len(existing)+len(materialized))
	for key, list := range existing {
		merged[key] = list
	}

	for key, fresh := range materialized {
		old := existing[key]

		byID := make(map[string]Task, len(old))
		var plain []Task
		for _, item := range old {
			byID[item.ID] = item
			if !item.Recurring {
				plain = append(plain, item)
			}
		}

		list := make([]Task, 0, len(plain)+len(fresh))
		list = append(list, plain...)
		for _, inst := range fresh {
			if prev, ok := byID[inst.ID]; ok {
				inst.CreatedAt = prev.CreatedAt
			}
			list = append(list, inst)
		}

		if len(list) == 0 {
			delete(merged, key)
			continue
		}

		sortTasks(list)
		merged[key] = list
	}

	return merged
}

// sortTasks orders a date's list newest first, the way the rest of the task
// list is displayed. Ties break on id so the order is deterministic.
func sortTasks(list []Task) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
