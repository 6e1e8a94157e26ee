// Package pipeline implements the nine-stage out-of-order pipeline:
// Fetch, Decode, Rename, RegRead, Dispatch, Issue, Execute, Writeback,
// and Retire, each a method on Pipeline invoked by the controller in
// reverse program order within a single simulated cycle.
//
// This replaces the teacher's parallel-slice-swap idiom (stage functions
// passed each other's latches by reference and swapped in place) with a
// single container holding named latches; each stage method moves
// bundles only from the latch immediately upstream into its own. Execute's
// wake-up broadcast (IQ, DI, RR) and Retire's RR bypass additionally set
// readiness flags on records held in those other latches.
package pipeline

import (
	"github.com/jasonKoogler/ooosim/internal/iq"
	"github.com/jasonKoogler/ooosim/internal/record"
	"github.com/jasonKoogler/ooosim/internal/rmt"
	"github.com/jasonKoogler/ooosim/internal/rob"
	"github.com/jasonKoogler/ooosim/internal/trace"
)

// Bundle is a group of up to Width instructions traveling together
// between in-order stages.
type Bundle []*record.Instruction

// Pipeline holds the nine-stage latches, the Issue Queue, the Reorder
// Buffer, and the Rename Map Table for one simulated core.
type Pipeline struct {
	Width     int
	Latencies map[int]int

	ROB *rob.ROB
	RMT *rmt.Table
	IQ  *iq.Queue

	de, rn, rr, di Bundle
	ex             []*record.Instruction
	wb, rt         Bundle

	// NumInstr counts every instruction admitted by Fetch.
	NumInstr int

	seq int
}

// New builds a Pipeline with the given issue width, ROB capacity, IQ
// capacity, and op_type->latency table.
func New(width, robSize, iqSize int, latencies map[int]int) *Pipeline {
	return &Pipeline{
		Width:     width,
		Latencies: latencies,
		ROB:       rob.New(robSize),
		RMT:       rmt.New(),
		IQ:        iq.New(iqSize),
	}
}

// Empty reports whether every latch, the Issue Queue, the execute set,
// and the ROB are all empty. Unlike the source implementation (which
// omits the RT latch from its equivalent check, and disambiguates ROB
// emptiness by probing a neighboring slot's zero value), this checks
// every latch explicitly and the ROB's explicit occupancy count, per
// spec.md §4.1 and §9.
func (p *Pipeline) Empty() bool {
	return len(p.de) == 0 && len(p.rn) == 0 && len(p.rr) == 0 && len(p.di) == 0 &&
		p.IQ.Len() == 0 && len(p.ex) == 0 && len(p.wb) == 0 && len(p.rt) == 0 &&
		p.ROB.Empty()
}

// removeByIdentity returns b with rec removed, by pointer identity. Used
// where a specific instruction must be pulled out of a latch it could
// occupy at any position (RT latch entries don't retire in the order
// they arrived, since completion order need not match program order).
func removeByIdentity(b Bundle, rec *record.Instruction) Bundle {
	out := b[:0]
	for _, it := range b {
		if it != rec {
			out = append(out, it)
		}
	}
	return out
}

// Fetch reads up to Width records from src into the DE latch, if DE is
// currently empty. It returns true once src is exhausted (including a
// malformed line, which is treated as end-of-trace per spec.md §7: no
// partial record is ever admitted).
func (p *Pipeline) Fetch(cycle int, src trace.Source) bool {
	if len(p.de) != 0 {
		return false
	}

	bundle := make(Bundle, 0, p.Width)
	eof := false
	for i := 0; i < p.Width; i++ {
		raw, ok := src.Next()
		if !ok {
			eof = true
			break
		}

		rec, err := record.New(raw.PC, raw.OpType, raw.Dst, raw.Src1, raw.Src2, p.Latencies)
		if err != nil {
			eof = true
			break
		}

		rec.FE = record.StageTiming{Begin: cycle, Cycles: 1}
		rec.DE = record.StageTiming{Begin: cycle + 1}
		bundle = append(bundle, rec)
		p.NumInstr++
	}

	p.de = bundle
	return eof
}

// Decode passes the DE bundle through to RN, one cycle, if RN is empty.
func (p *Pipeline) Decode(cycle int) {
	if len(p.de) == 0 || len(p.rn) != 0 {
		return
	}

	for _, rec := range p.de {
		rec.RN.Begin = cycle + 1
		rec.DE.Cycles = rec.RN.Begin - rec.DE.Begin
	}

	p.rn = p.de
	p.de = nil
}

// Rename allocates a ROB slot per instruction, renames sources against
// the RMT, records the new producer for the destination, and advances
// the bundle to RR. It stalls (no partial rename) unless the ROB has at
// least len(rn) free slots.
func (p *Pipeline) Rename(cycle int) {
	if len(p.rn) == 0 || len(p.rr) != 0 {
		return
	}
	if p.ROB.Free() < len(p.rn) {
		return
	}

	for _, rec := range p.rn {
		if rec.ArchSrc1 != record.NoOperand {
			if tag, valid := p.RMT.Lookup(rec.ArchSrc1); valid {
				rec.Src1 = tag
				rec.Src1IsROB = true
			}
		}
		if rec.ArchSrc2 != record.NoOperand {
			if tag, valid := p.RMT.Lookup(rec.ArchSrc2); valid {
				rec.Src2 = tag
				rec.Src2IsROB = true
			}
		}

		tag := p.ROB.Alloc(rec)
		if rec.ArchDst != record.NoOperand {
			p.RMT.SetProducer(rec.ArchDst, tag)
		}
		rec.Dst = tag

		rec.RR.Begin = cycle + 1
		rec.RN.Cycles = rec.RR.Begin - rec.RN.Begin
	}

	p.rr = p.rn
	p.rn = nil
}

// RegRead computes source readiness (architectural sources are always
// ready; renamed sources are ready iff their ROB producer has written
// back) and advances the bundle to DI.
func (p *Pipeline) RegRead(cycle int) {
	if len(p.rr) == 0 || len(p.di) != 0 {
		return
	}

	for _, rec := range p.rr {
		if !rec.Src1IsROB {
			rec.Rs1Rdy = true
		} else if p.ROB.IsReady(rec.Src1) {
			rec.Rs1Rdy = true
		}

		if !rec.Src2IsROB {
			rec.Rs2Rdy = true
		} else if p.ROB.IsReady(rec.Src2) {
			rec.Rs2Rdy = true
		}

		rec.DI.Begin = cycle + 1
		rec.RR.Cycles = rec.DI.Begin - rec.RR.Begin
	}

	p.di = p.rr
	p.rr = nil
}

// Dispatch admits the DI bundle into the Issue Queue, all-or-nothing,
// once the IQ has enough free entries for the whole bundle.
func (p *Pipeline) Dispatch(cycle int) {
	if len(p.di) == 0 {
		return
	}
	if p.IQ.Free() < len(p.di) {
		return
	}

	for _, rec := range p.di {
		rec.IS.Begin = cycle + 1
		rec.DI.Cycles = rec.IS.Begin - rec.DI.Begin
		p.IQ.Insert(rec)
	}

	p.di = nil
}

// Issue selects up to Width ready instructions from the IQ in ascending
// age order and moves them into the execute set.
func (p *Pipeline) Issue(cycle int) {
	selected := p.IQ.Issue(p.Width)
	for _, rec := range selected {
		rec.EX.Begin = cycle + 1
		rec.IS.Cycles = rec.EX.Begin - rec.IS.Begin
		p.ex = append(p.ex, rec)
	}
}

// Execute decrements every in-flight instruction's remaining latency,
// moves any instruction reaching zero latency into the WB latch, and
// broadcasts wake-up to every dependent still waiting in IQ, DI, or RR.
// The execute set is unbounded: no functional-unit contention is
// modeled, so every instruction finishing this cycle enters the WB latch
// this cycle regardless of Width.
func (p *Pipeline) Execute(cycle int) {
	if len(p.ex) == 0 {
		return
	}

	for _, rec := range p.ex {
		rec.Latency--
	}

	remain := p.ex[:0]
	var done []*record.Instruction
	for _, rec := range p.ex {
		if rec.Latency <= 0 {
			done = append(done, rec)
		} else {
			remain = append(remain, rec)
		}
	}
	p.ex = remain

	for _, rec := range done {
		rec.WB.Begin = cycle + 1
		rec.EX.Cycles = rec.WB.Begin - rec.EX.Begin
		p.wb = append(p.wb, rec)

		for _, w := range p.IQ.All() {
			w.WakeOn(rec.Dst)
		}
		for _, w := range p.di {
			w.WakeOn(rec.Dst)
		}
		for _, w := range p.rr {
			w.WakeOn(rec.Dst)
		}
	}
}

// Writeback marks each WB-latch instruction's ROB slot ready and moves
// it to the RT latch.
func (p *Pipeline) Writeback(cycle int) {
	if len(p.wb) == 0 {
		return
	}

	for _, rec := range p.wb {
		rec.RT.Begin = cycle + 1
		rec.WB.Cycles = rec.RT.Begin - rec.WB.Begin
		p.ROB.MarkReady(rec.Dst)
		p.rt = append(p.rt, rec)
	}

	p.wb = nil
}

// Retire retires up to Width consecutive ready ROB-head instructions in
// program order, performing the RR bypass and RMT invalidation for each,
// and invoking emit with its formatted timing line. It returns the
// number retired this cycle.
func (p *Pipeline) Retire(cycle int, emit func(line string)) int {
	retired := 0
	for retired < p.Width {
		if p.ROB.Empty() || !p.ROB.HeadReady() {
			break
		}

		head := p.ROB.Head()
		entry := p.ROB.At(head)
		rec := entry.Rec

		for _, w := range p.rr {
			w.WakeOn(head)
		}

		p.RMT.InvalidateTag(head)

		rec.RT.Cycles = (cycle + 1) - rec.RT.Begin
		emit(rec.RetireLine(p.seq))
		p.seq++

		p.rt = removeByIdentity(p.rt, rec)
		p.ROB.RetireHead()
		retired++
	}

	return retired
}
