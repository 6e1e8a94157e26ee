// Package config handles the simulator's command-line parameters and its
// one optional YAML-configurable domain setting: the op_type->latency
// table.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/jasonKoogler/ooosim/internal/record"
)

// Params are the four mandatory positional parameters from spec.md §6.
type Params struct {
	ROBSize   int
	IQSize    int
	Width     int
	TracePath string
}

// ParseParams validates and builds Params from the four positional CLI
// arguments. A non-numeric or non-positive size, or a zero width, is an
// argument error per spec.md §7.
func ParseParams(robSizeStr, iqSizeStr, widthStr, tracePath string) (*Params, error) {
	robSize, err := strconv.Atoi(robSizeStr)
	if err != nil || robSize <= 0 {
		return nil, fmt.Errorf("config: ROB_SIZE must be a positive integer, got %q", robSizeStr)
	}

	iqSize, err := strconv.Atoi(iqSizeStr)
	if err != nil || iqSize <= 0 {
		return nil, fmt.Errorf("config: IQ_SIZE must be a positive integer, got %q", iqSizeStr)
	}

	width, err := strconv.Atoi(widthStr)
	if err != nil || width <= 0 {
		return nil, fmt.Errorf("config: WIDTH must be a positive integer, got %q", widthStr)
	}

	if tracePath == "" {
		return nil, fmt.Errorf("config: TRACE_PATH must not be empty")
	}

	return &Params{ROBSize: robSize, IQSize: iqSize, Width: width, TracePath: tracePath}, nil
}

// latencyFile is the shape of an optional YAML override for op_type
// latencies, e.g.:
//
//	latencies:
//	  0: 1
//	  1: 2
//	  2: 5
type latencyFile struct {
	Latencies map[int]int `yaml:"latencies"`
}

// LoadLatencies reads a YAML file of op_type->latency overrides and
// merges them over record.DefaultLatencies. Every op_type the simulator
// will encounter need not be present in the file; only overridden
// entries need appear.
func LoadLatencies(path string) (map[int]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read latency file: %w", err)
	}

	var parsed latencyFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: failed to parse latency file: %w", err)
	}

	merged := make(map[int]int, len(record.DefaultLatencies))
	for opType, latency := range record.DefaultLatencies {
		merged[opType] = latency
	}
	for opType, latency := range parsed.Latencies {
		merged[opType] = latency
	}

	if err := validateLatencies(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

func validateLatencies(latencies map[int]int) error {
	for opType, latency := range latencies {
		if latency <= 0 {
			return fmt.Errorf("config: latency for op_type %d must be positive, got %d", opType, latency)
		}
	}
	return nil
}
