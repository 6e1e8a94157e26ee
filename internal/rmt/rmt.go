// Package rmt implements the Rename Map Table: a fixed-width mapping from
// architectural register to the ROB tag of its in-flight producer.
package rmt

import "github.com/jasonKoogler/ooosim/internal/record"

// Size is the number of architectural registers tracked (spec.md §3: 67
// registers, ids [0,66]).
const Size = record.MaxReg + 1

type entry struct {
	valid bool
	tag   int
}

// Table is the 67-entry Rename Map Table.
type Table struct {
	regs [Size]entry
}

// New returns a Table with every entry invalid (architectural register is
// up to date).
func New() *Table {
	return &Table{}
}

// Lookup reports the ROB tag currently producing reg, if any.
func (t *Table) Lookup(reg int) (tag int, valid bool) {
	if reg == record.NoOperand {
		return 0, false
	}
	e := t.regs[reg]
	return e.tag, e.valid
}

// SetProducer records that reg's next value will come from ROB tag.
func (t *Table) SetProducer(reg, tag int) {
	if reg == record.NoOperand {
		return
	}
	t.regs[reg] = entry{valid: true, tag: tag}
}

// InvalidateTag clears every entry currently valid and pointing at tag,
// scanning the whole table. Used at Retire, where the retiring ROB index
// is known but not which architectural register (if any) still names it.
func (t *Table) InvalidateTag(tag int) {
	for reg := range t.regs {
		if t.regs[reg].valid && t.regs[reg].tag == tag {
			t.regs[reg] = entry{}
		}
	}
}
