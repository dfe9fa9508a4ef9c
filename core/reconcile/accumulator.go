package reconcile

import (
	"sync"
)

// idSet is the file-side transaction id index built during INDEXING.
// It counts occurrences so duplicates can be reported once per id.
type idSet struct {
	mu  sync.RWMutex
	ids map[string]int
}

func newIDSet() *idSet {
	return &idSet{ids: make(map[string]int)}
}

// Add records one occurrence of id and reports whether this occurrence is
// the first duplicate, i.e. the count just became two.
func (s *idSet) Add(id string) (firstDuplicate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id]++
	return s.ids[id] == 2
}

// Contains reports whether id was indexed.
func (s *idSet) Contains(id string) bool {
	s.mu.RLock()
	_, ok := s.ids[id]
	s.mu.RUnlock()
	return ok
}

// Len returns the number of distinct ids.
func (s *idSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// discrepancyList is an append-only collection shared by the workers of a
// phase. Element order is not meaningful.
type discrepancyList struct {
	mu    sync.Mutex
	items []Discrepancy
}

func (l *discrepancyList) Add(ds ...Discrepancy) {
	if len(ds) == 0 {
		return
	}
	l.mu.Lock()
	l.items = append(l.items, ds...)
	l.mu.Unlock()
}

func (l *discrepancyList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Snapshot returns a copy of the collected discrepancies.
func (l *discrepancyList) Snapshot() []Discrepancy {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Discrepancy, len(l.items))
	copy(out, l.items)
	return out
}

// accumulator owns the shared mutable state of one run.
type accumulator struct {
	stats    RunStats
	fileIDs  *idSet
	forward  discrepancyList
	backward discrepancyList
}

func newAccumulator() *accumulator {
	return &accumulator{fileIDs: newIDSet()}
}
