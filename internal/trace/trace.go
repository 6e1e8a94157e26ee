// Package trace is Fetch's external collaborator: it reads a whitespace
// separated instruction trace file and yields raw instruction fields.
// Per spec.md §1, trace parsing sits outside the pipeline core; its only
// obligation is to deliver records or signal end-of-trace.
package trace

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Raw is one unparsed-into-a-record trace line: hex pc, decimal op_type,
// decimal dest/src1/src2 (each in [0,66] or -1).
type Raw struct {
	PC     uint64
	OpType int
	Dst    int
	Src1   int
	Src2   int
}

// Source yields raw trace records one at a time. Next returns ok=false
// once the stream is exhausted, whether by a clean EOF or a malformed
// line — both are end-of-trace per spec.md §7.
type Source interface {
	Next() (Raw, bool)
}

// Reader is a file-backed Source.
type Reader struct {
	file *os.File
	sc   *bufio.Scanner
}

// Open opens path for reading as a trace file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: unable to open file %s: %w", path, err)
	}
	return &Reader{file: f, sc: bufio.NewScanner(f)}, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Next returns the next trace record. A blank line is skipped; a line
// that doesn't parse as "pc op_type dest src1 src2" ends the stream.
func (r *Reader) Next() (Raw, bool) {
	for r.sc.Scan() {
		line := strings.TrimSpace(r.sc.Text())
		if line == "" {
			continue
		}
		return parseLine(line)
	}
	return Raw{}, false
}

func parseLine(line string) (Raw, bool) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Raw{}, false
	}

	pcHex := strings.TrimPrefix(strings.TrimPrefix(fields[0], "0x"), "0X")
	pc, err := strconv.ParseUint(pcHex, 16, 64)
	if err != nil {
		return Raw{}, false
	}

	ints := make([]int, 4)
	for i, f := range fields[1:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Raw{}, false
		}
		ints[i] = v
	}

	return Raw{PC: pc, OpType: ints[0], Dst: ints[1], Src1: ints[2], Src2: ints[3]}, true
}
