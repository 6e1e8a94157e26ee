// Package iq implements the Issue Queue: an unordered, capacity-bounded
// bag of dispatched instructions awaiting operand readiness. Ordering is
// imposed only at issue time, by age.
package iq

import (
	"sort"

	"github.com/jasonKoogler/ooosim/internal/record"
)

// Queue is the capacity-bounded Issue Queue.
type Queue struct {
	capacity int
	items    []*record.Instruction
	nextAge  int
}

// New returns an empty Queue bounded at capacity entries.
func New(capacity int) *Queue {
	return &Queue{capacity: capacity}
}

// Free reports how many additional entries the Queue can accept.
func (q *Queue) Free() int {
	return q.capacity - len(q.items)
}

// Len reports the number of entries currently held.
func (q *Queue) Len() int {
	return len(q.items)
}

// Insert admits rec into the Queue, assigning it the next monotonically
// increasing age. Age is the Queue's own sequence counter (spec.md §9:
// "the specification hoists it to an explicit monotonic counter
// incremented at Dispatch"), not an artifact of slice insertion order.
func (q *Queue) Insert(rec *record.Instruction) {
	rec.Age = q.nextAge
	q.nextAge++
	q.items = append(q.items, rec)
}

// Issue selects up to width ready entries in ascending age order,
// removes them from the Queue, and returns them in issue order. An
// unready older instruction never blocks a ready younger one.
func (q *Queue) Issue(width int) []*record.Instruction {
	if len(q.items) == 0 || width <= 0 {
		return nil
	}

	readyIdx := make([]int, 0, len(q.items))
	for idx, it := range q.items {
		if it.Ready() {
			readyIdx = append(readyIdx, idx)
		}
	}
	sort.Slice(readyIdx, func(a, b int) bool {
		return q.items[readyIdx[a]].Age < q.items[readyIdx[b]].Age
	})
	if len(readyIdx) > width {
		readyIdx = readyIdx[:width]
	}
	if len(readyIdx) == 0 {
		return nil
	}

	selected := make([]*record.Instruction, len(readyIdx))
	chosen := make(map[int]bool, len(readyIdx))
	for i, idx := range readyIdx {
		selected[i] = q.items[idx]
		chosen[idx] = true
	}

	kept := q.items[:0]
	for idx, it := range q.items {
		if !chosen[idx] {
			kept = append(kept, it)
		}
	}
	q.items = kept

	return selected
}

// All returns every entry currently held, for wake-up broadcasting.
func (q *Queue) All() []*record.Instruction {
	return q.items
}
