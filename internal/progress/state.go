// Package progress tracks a learner's completion state across the sections
// of one lesson, persists it to a local cache and reconciles it with the
// remote lesson service.
package progress

import "sort"

// State is the progress of one learner through one lesson.
type State struct {
	// Completed holds section ids explicitly marked done. Ids are never
	// removed within a session.
	Completed map[int]bool

	// Partial holds the watch or scroll fraction in [0,1) for sections that
	// support partial credit and are not yet complete.
	Partial map[int]float64

	// Percent is derived from the sections and is never a source of truth.
	Percent int

	// TimeSpent is the total time on the lesson in seconds.
	TimeSpent int

	// Revision increases every time a new state is published to the cache
	// or the remote service.
	Revision int64
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		Completed: make(map[int]bool),
		Partial:   make(map[int]float64),
	}
}

// IsCompleted reports whether section id is marked done.
func (s *State) IsCompleted(id int) bool {
	return s != nil && s.Completed[id]
}

// CompletedIDs returns the completed section ids in ascending order.
func (s *State) CompletedIDs() []int {
	ids := make([]int, 0, len(s.Completed))
	for id, done := range s.Completed {
		if done {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Clone returns a deep copy.
func (s *State) Clone() State {
	out := State{
		Completed: make(map[int]bool, len(s.Completed)),
		Partial:   make(map[int]float64, len(s.Partial)),
		Percent:   s.Percent,
		TimeSpent: s.TimeSpent,
		Revision:  s.Revision,
	}
	for k, v := range s.Completed {
		out.Completed[k] = v
	}
	for k, v := range s.Partial {
		out.Partial[k] = v
	}
	return out
}

// retain drops completed and partial entries whose id is not below n.
func (s *State) retain(n int) {
	for id := range s.Completed {
		if id < 0 || id >= n {
			delete(s.Completed, id)
		}
	}
	for id := range s.Partial {
		if id < 0 || id >= n {
			delete(s.Partial, id)
		}
	}
}
