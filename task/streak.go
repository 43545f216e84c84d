package task

import "github.com/routina/routina/dates"

// Streak summarizes a series' completion chain.
type Streak struct {
	// Current is the run of consecutive done occurrences ending at the most
	// recent occurrence that is not in the future.
	Current int
	// Best is the longest such run anywhere in the series' history.
	Best int
}

// SeriesStreak computes completion streaks over a series' occurrence dates,
// which must be sorted ascending (as the recurrence engine returns them).
// An occurrence counts as done when its override says so; occurrences after
// today are ignored. A not-done occurrence breaks the chain, so skipping a
// day resets the current streak to zero.
func SeriesStreak(s Series, occurrences []dates.Key, today dates.Key) Streak {
	var st Streak
	for _, key := range occurrences {
		if key.After(today) {
			break
		}
		if occurrenceDone(s, key) {
			st.Current++
			if st.Current > st.Best {
				st.Best = st.Current
			}
		} else {
			st.Current = 0
		}
	}
	return st
}

func occurrenceDone(s Series, key dates.Key) bool {
	o, ok := s.Overrides[key]
	if !ok {
		return false
	}
	return o.Done.OrElse(false)
}
