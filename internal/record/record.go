// Package record defines the Instruction Record value type shared by every
// pipeline stage: architectural operands, renamed operands, readiness
// flags, and the per-stage begin-cycle/duration timing used for the
// retirement report.
package record

import "fmt"

// NoOperand marks an architectural operand slot ("dest", "src1", "src2")
// as unused.
const NoOperand = -1

// MinReg and MaxReg bound the architectural register id space (67
// registers, [0,66]).
const (
	MinReg = 0
	MaxReg = 66
)

// DefaultLatencies is the op_type -> execute-latency table from spec.md
// §3. It is the default used when no override table is supplied.
var DefaultLatencies = map[int]int{0: 1, 1: 2, 2: 5}

// StageTiming captures when an instruction entered a stage and how many
// cycles it spent there.
type StageTiming struct {
	Begin  int
	Cycles int
}

// Instruction is one in-flight instruction as it travels from Fetch
// through Retire.
type Instruction struct {
	PC     uint64
	OpType int

	// Architectural operands, preserved for reporting regardless of
	// renaming.
	ArchDst  int
	ArchSrc1 int
	ArchSrc2 int

	// Renamed operands. Dst becomes the allocated ROB index once renamed.
	// Src1/Src2 hold either the architectural id (Src#IsROB == false) or a
	// ROB index (Src#IsROB == true).
	Dst       int
	Src1      int
	Src2      int
	Src1IsROB bool
	Src2IsROB bool

	Rs1Rdy bool
	Rs2Rdy bool

	// Age is assigned once, at Dispatch into the Issue Queue, and used as
	// the sole tie-break for issue priority.
	Age int

	// Latency counts down once the instruction enters the execute set.
	Latency int

	FE StageTiming
	DE StageTiming
	RN StageTiming
	RR StageTiming
	DI StageTiming
	IS StageTiming
	EX StageTiming
	WB StageTiming
	RT StageTiming
}

// validOperand reports whether v is NoOperand or a register id in
// [MinReg, MaxReg].
func validOperand(v int) bool {
	return v == NoOperand || (v >= MinReg && v <= MaxReg)
}

// New builds an Instruction from trace fields, validating operand ids and
// assigning execute latency from the op_type. An invalid operand id (out
// of [0,66] and not -1) is rejected: the spec.md §9 Open Question resolves
// to "validate and reject" rather than admitting undefined behavior into
// the RMT.
func New(pc uint64, opType, dst, src1, src2 int, latencies map[int]int) (*Instruction, error) {
	if !validOperand(dst) || !validOperand(src1) || !validOperand(src2) {
		return nil, fmt.Errorf("record: operand out of range [%d,%d]: dst=%d src1=%d src2=%d", MinReg, MaxReg, dst, src1, src2)
	}

	latency, ok := latencies[opType]
	if !ok {
		return nil, fmt.Errorf("record: unknown op_type %d", opType)
	}

	return &Instruction{
		PC:       pc,
		OpType:   opType,
		ArchDst:  dst,
		ArchSrc1: src1,
		ArchSrc2: src2,
		Dst:      dst,
		Src1:     src1,
		Src2:     src2,
		Latency:  latency,
	}, nil
}

// Ready reports whether both sources are available.
func (i *Instruction) Ready() bool {
	return i.Rs1Rdy && i.Rs2Rdy
}

// WakeOn marks any source still awaiting ROB tag as ready. It is the
// single "observable operand" predicate shared by Execute's wake-up
// broadcast and Retire's RR bypass, replacing three duplicated
// tag-matching loops over IQ/DI/RR.
func (i *Instruction) WakeOn(tag int) {
	if i.Src1IsROB && i.Src1 == tag {
		i.Rs1Rdy = true
	}
	if i.Src2IsROB && i.Src2 == tag {
		i.Rs2Rdy = true
	}
}

// RetireLine formats the per-retirement timing report line required by
// spec.md §6, using architectural operand values rather than renamed
// ones.
func (i *Instruction) RetireLine(seq int) string {
	return fmt.Sprintf(
		"%d fu{%d} src{%d,%d} dst{%d} FE{%d,%d} DE{%d,%d} RN{%d,%d} RR{%d,%d} DI{%d,%d} IS{%d,%d} EX{%d,%d} WB{%d,%d} RT{%d,%d}",
		seq, i.OpType,
		i.ArchSrc1, i.ArchSrc2, i.ArchDst,
		i.FE.Begin, i.FE.Cycles,
		i.DE.Begin, i.DE.Cycles,
		i.RN.Begin, i.RN.Cycles,
		i.RR.Begin, i.RR.Cycles,
		i.DI.Begin, i.DI.Cycles,
		i.IS.Begin, i.IS.Cycles,
		i.EX.Begin, i.EX.Cycles,
		i.WB.Begin, i.WB.Cycles,
		i.RT.Begin, i.RT.Cycles,
	)
}
