// Command simulator runs a cycle-accurate out-of-order pipeline
// simulation against an instruction trace and reports per-instruction
// timing plus summary statistics.
//
// Usage:
//
//	simulator [-v] [-latencies path] ROB_SIZE IQ_SIZE WIDTH TRACE_PATH
package main

import (
	"flag"
	"log"
	"os"

	"github.com/jasonKoogler/ooosim/internal/config"
	"github.com/jasonKoogler/ooosim/internal/record"
	"github.com/jasonKoogler/ooosim/internal/simulator"
	"github.com/jasonKoogler/ooosim/internal/trace"
)

func main() {
	verbose := flag.Bool("v", false, "enable verbose logging")
	latenciesPath := flag.String("latencies", "", "optional YAML file overriding the op_type->latency table")
	flag.Usage = func() {
		os.Stderr.WriteString("usage: simulator [-v] [-latencies path] ROB_SIZE IQ_SIZE WIDTH TRACE_PATH\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if *verbose {
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}

	if flag.NArg() != 4 {
		logger.Fatalf("Error: wrong number of inputs: %d", flag.NArg())
	}

	params, err := config.ParseParams(flag.Arg(0), flag.Arg(1), flag.Arg(2), flag.Arg(3))
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}

	latencies := record.DefaultLatencies
	if *latenciesPath != "" {
		latencies, err = config.LoadLatencies(*latenciesPath)
		if err != nil {
			logger.Fatalf("Error: %v", err)
		}
	}

	reader, err := trace.Open(params.TracePath)
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}
	defer reader.Close()

	if *verbose {
		logger.Printf("Starting simulation: ROB_SIZE=%d IQ_SIZE=%d WIDTH=%d TRACE_PATH=%s",
			params.ROBSize, params.IQSize, params.Width, params.TracePath)
	}

	sim := simulator.New(params, latencies)
	stats := sim.Run(reader, os.Stdout)
	simulator.WriteSummary(os.Stdout, params, stats)

	if *verbose {
		logger.Printf("Simulation complete: %d cycles, %d instructions, IPC=%.2f",
			stats.Cycles, stats.DynamicInstructionCount, stats.IPC)
	}
}
