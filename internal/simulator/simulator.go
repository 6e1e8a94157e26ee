// Package simulator is the Pipeline Controller: it drives one cycle at a
// time by invoking the nine pipeline stages in reverse program order,
// advances the global cycle counter, and reports per-instruction timing
// plus summary statistics.
//
// The controller is intentionally single-threaded: spec.md §5 rules out
// any asynchronous or parallel execution model. The teacher's
// goroutine-per-core driver is not adapted here for that reason (see
// DESIGN.md); Run is a plain sequential loop.
package simulator

import (
	"fmt"
	"io"

	"github.com/jasonKoogler/ooosim/internal/config"
	"github.com/jasonKoogler/ooosim/internal/pipeline"
	"github.com/jasonKoogler/ooosim/internal/trace"
)

// Statistics summarizes a completed run.
type Statistics struct {
	DynamicInstructionCount int
	Cycles                  int
	IPC                     float64
}

// Simulator owns the pipeline and the cycle counter. The source
// implementation kept num_cycles and num_instr as process-wide globals
// (spec.md §9); here they are fields of Simulator and Pipeline instead.
type Simulator struct {
	pipe  *pipeline.Pipeline
	cycle int
}

// New builds a Simulator for the given parameters and op_type latency
// table.
func New(params *config.Params, latencies map[int]int) *Simulator {
	return &Simulator{
		pipe: pipeline.New(params.Width, params.ROBSize, params.IQSize, latencies),
	}
}

// Run drives the pipeline to completion against src, writing one
// retirement line per retired instruction to out, and returns final
// statistics. Termination follows spec.md §4.1: end-of-trace reached and
// every latch, the IQ, the execute set, and the ROB are all empty.
func (s *Simulator) Run(src trace.Source, out io.Writer) Statistics {
	emit := func(line string) {
		fmt.Fprintln(out, line)
	}

	eof := false
	for {
		s.pipe.Retire(s.cycle, emit)
		s.pipe.Writeback(s.cycle)
		s.pipe.Execute(s.cycle)
		s.pipe.Issue(s.cycle)
		s.pipe.Dispatch(s.cycle)
		s.pipe.RegRead(s.cycle)
		s.pipe.Rename(s.cycle)
		s.pipe.Decode(s.cycle)
		if s.pipe.Fetch(s.cycle, src) {
			eof = true
		}

		s.cycle++

		if eof && s.pipe.Empty() {
			break
		}
	}

	return s.Statistics()
}

// Statistics computes the current dynamic instruction count, cycle
// count, and IPC.
func (s *Simulator) Statistics() Statistics {
	stats := Statistics{
		DynamicInstructionCount: s.pipe.NumInstr,
		Cycles:                  s.cycle,
	}
	if s.cycle > 0 {
		stats.IPC = float64(stats.DynamicInstructionCount) / float64(stats.Cycles)
	}
	return stats
}

// WriteSummary prints the command/configuration/results block required
// by spec.md §6.
func WriteSummary(w io.Writer, params *config.Params, stats Statistics) {
	fmt.Fprintln(w, "# === Simulator Command =========")
	fmt.Fprintf(w, "# ./sim %d %d %d %s\n", params.ROBSize, params.IQSize, params.Width, params.TracePath)
	fmt.Fprintln(w, "# === Processor Configuration ===")
	fmt.Fprintf(w, "# ROB_SIZE = %d\n", params.ROBSize)
	fmt.Fprintf(w, "# IQ_SIZE  = %d\n", params.IQSize)
	fmt.Fprintf(w, "# WIDTH    = %d\n", params.Width)
	fmt.Fprintln(w, "# === Simulation Results ========")
	fmt.Fprintf(w, "# Dynamic Instruction Count    = %d\n", stats.DynamicInstructionCount)
	fmt.Fprintf(w, "# Cycles                       = %d\n", stats.Cycles)
	fmt.Fprintf(w, "# Instructions Per Cycle (IPC) = %.2f\n", stats.IPC)
}
