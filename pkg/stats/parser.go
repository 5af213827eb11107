// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoEventsLine is returned when a cachegrind output file has no
// "events:" header line to declare its column schema.
var ErrNoEventsLine = errors.New("cachegrind output has no events: line")

// ErrNoSummaryLine is returned when a cachegrind output file has no
// "summary:" line to total against the declared schema.
var ErrNoSummaryLine = errors.New("cachegrind output has no summary: line")

// columnFields lists the cachegrind event columns that populate a
// CounterRecord. Ir is required; the eight cache-sim columns are read
// only when the events: line declares all of them, and otherwise (e.g.
// --cache-sim=no) every cache field is left as None on the parsed record.
// Columns not listed here are ignored, tolerating newer cachegrind
// versions that add columns this parser does not know about.
var columnFields = []string{"Ir", "I1mr", "ILmr", "Dr", "D1mr", "DLmr", "Dw", "D1mw", "DLmw"}

// ParseFile reads and parses a cachegrind output file at path.
func ParseFile(path string) (CounterRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return CounterRecord{}, errors.Wrapf(err, "opening cachegrind output %s", path)
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses a cachegrind output stream into a CounterRecord, reading
// the events: schema line and totaling the summary: line positionally
// against it.
func Parse(r io.Reader) (CounterRecord, error) {
	var columns []string
	var summary []string

	scanner := bufio.NewScanner(r)
	// Cachegrind summary lines can run long for programs with many
	// instrumented functions; grow the scanner buffer accordingly.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "events:"):
			columns = strings.Fields(strings.TrimPrefix(line, "events:"))
		case strings.HasPrefix(line, "summary:"):
			summary = strings.Fields(strings.TrimPrefix(line, "summary:"))
		}
	}
	if err := scanner.Err(); err != nil {
		return CounterRecord{}, errors.Wrap(err, "reading cachegrind output")
	}
	if columns == nil {
		return CounterRecord{}, ErrNoEventsLine
	}
	if summary == nil {
		return CounterRecord{}, ErrNoSummaryLine
	}
	return fromColumns(columns, summary)
}

func fromColumns(columns, values []string) (CounterRecord, error) {
	totals := make(map[string]int64, len(columns))
	for i, name := range columns {
		if i >= len(values) {
			// The events: schema may declare more columns than the
			// summary: line carries values for; columns past the last
			// value get no total here, so a declared cache column
			// without a value reads as zero below.
			break
		}
		v, err := strconv.ParseInt(values[i], 10, 64)
		if err != nil {
			return CounterRecord{}, errors.Wrapf(err, "parsing summary column %s=%q", name, values[i])
		}
		totals[name] = v
	}

	ir, ok := totals["Ir"]
	if !ok {
		return CounterRecord{}, errors.New("cachegrind output is missing the Ir column")
	}

	record := CounterRecord{Instructions: ir}
	if hasAllCacheColumns(columns) {
		record.I1Misses = Some(totals["I1mr"])
		record.LLiMisses = Some(totals["ILmr"])
		record.DataReads = Some(totals["Dr"])
		record.D1RMisses = Some(totals["D1mr"])
		record.LLdRMisses = Some(totals["DLmr"])
		record.DataWrites = Some(totals["Dw"])
		record.D1WMisses = Some(totals["D1mw"])
		record.LLdWMisses = Some(totals["DLmw"])
	}
	return record, nil
}

// hasAllCacheColumns reports whether every cache-simulation column besides
// Ir is present in the declared schema. Cachegrind reports cache columns
// all-or-nothing: either --cache-sim was enabled and all nine appear, or
// it was disabled and only Ir does.
func hasAllCacheColumns(columns []string) bool {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	for _, c := range columnFields {
		if c == "Ir" {
			continue
		}
		if !have[c] {
			return false
		}
	}
	return true
}
