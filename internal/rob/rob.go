// Package rob implements the Reorder Buffer: a fixed-capacity circular
// buffer of in-flight instructions used to allocate rename tags (on
// Rename) and retire strictly in program order (on Retire).
package rob

import "github.com/jasonKoogler/ooosim/internal/record"

// startIndex is the ROB's deliberately non-zero starting position for
// head and tail, per spec.md §3: correctness must not depend on a
// modular starting position of zero.
const startIndex = 3

// Entry is one ROB slot. Rec points directly at the in-flight
// Instruction so Retire can read it and emit its report without the
// PC-match search the source implementation performed (spec.md §9).
type Entry struct {
	Occupied bool
	Ready    bool
	Rec      *record.Instruction
}

// ROB is the circular Reorder Buffer. Occupancy is tracked with an
// explicit count rather than inspecting slot content for a sentinel
// value, per spec.md §9's Design Notes: head == tail is ambiguous
// between empty and full, and that ambiguity is resolved here by count
// rather than by probing a neighboring slot.
type ROB struct {
	size  int
	head  int
	tail  int
	count int
	slots []Entry
}

// New returns an empty ROB of the given capacity, with head and tail
// both starting at the non-zero startIndex (modulo capacity, for
// capacities not larger than startIndex).
func New(size int) *ROB {
	start := startIndex % size
	return &ROB{
		size:  size,
		head:  start,
		tail:  start,
		slots: make([]Entry, size),
	}
}

// Free reports how many ROB slots are unoccupied.
func (r *ROB) Free() int {
	return r.size - r.count
}

// Empty reports whether the ROB currently holds no in-flight instruction.
func (r *ROB) Empty() bool {
	return r.count == 0
}

// Len reports the number of occupied ROB slots.
func (r *ROB) Len() int {
	return r.count
}

// Head returns the current head index.
func (r *ROB) Head() int {
	return r.head
}

// Tail returns the current tail index.
func (r *ROB) Tail() int {
	return r.tail
}

// Alloc allocates the tail slot for rec, advances tail modulo capacity,
// and returns the allocated ROB tag. The caller (Rename) must have
// already verified Free() is sufficient for the whole rename bundle;
// Alloc panics if that invariant was violated, since overwriting an
// occupied slot is not a recoverable condition (spec.md §7).
func (r *ROB) Alloc(rec *record.Instruction) int {
	if r.count >= r.size {
		panic("rob: internal error: Alloc called on a full ROB")
	}
	tag := r.tail
	r.slots[tag] = Entry{Occupied: true, Rec: rec}
	r.tail = (r.tail + 1) % r.size
	r.count++
	return tag
}

// MarkReady marks the slot at tag ready, set by Writeback.
func (r *ROB) MarkReady(tag int) {
	r.slots[tag].Ready = true
}

// IsReady reports whether the slot at tag is ready.
func (r *ROB) IsReady(tag int) bool {
	return r.slots[tag].Ready
}

// At returns the entry at the given ROB index, for RR-bypass and
// wake-up style lookups that address the ROB directly.
func (r *ROB) At(tag int) Entry {
	return r.slots[tag]
}

// HeadReady reports whether the head slot is occupied and ready to
// retire.
func (r *ROB) HeadReady() bool {
	return r.count > 0 && r.slots[r.head].Ready
}

// RetireHead clears and advances past the head slot, returning the entry
// that was retired. The caller must have checked HeadReady first;
// RetireHead panics if it is called on an empty or not-ready head, since
// retiring an unready instruction would corrupt program-order semantics
// (spec.md §7).
func (r *ROB) RetireHead() Entry {
	if !r.HeadReady() {
		panic("rob: internal error: RetireHead called on an empty or unready head")
	}
	e := r.slots[r.head]
	r.slots[r.head] = Entry{}
	r.head = (r.head + 1) % r.size
	r.count--
	return e
}
