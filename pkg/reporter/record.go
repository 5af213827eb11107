// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package reporter turns scheduler events into an ordered stream of
// records (§4.9) and writes them as colored text, JSON lines, or a
// summary table. The Record/Kind/Writer shape is grounded directly on
// the teacher's internal/log package, generalized from task-tree events
// to benchmark-unit events.
package reporter

import (
	"fmt"
	"io"

	"github.com/onosproject/yab/pkg/benchid"
	"github.com/onosproject/yab/pkg/stats"
)

// Kind discriminates the concrete type of a Record, e.g. for JSON
// round-tripping.
type Kind string

const (
	RunStartedKind   Kind = "RunStarted"
	UnitStartedKind  Kind = "UnitStarted"
	UnitMeasuredKind Kind = "UnitMeasured"
	UnitFailedKind   Kind = "UnitFailed"
	UnitSkippedKind  Kind = "UnitSkipped"
	RunFinishedKind  Kind = "RunFinished"
)

// Record is one reportable event in a run (§4.9).
type Record interface {
	fmt.Stringer
	Kind() Kind
}

// RunStartedRecord announces the set of units a run will execute, in
// scheduling order.
type RunStartedRecord struct {
	Units []string
}

func (r RunStartedRecord) Kind() Kind { return RunStartedKind }
func (r RunStartedRecord) String() string {
	return fmt.Sprintf("RunStarted %d unit(s)", len(r.Units))
}

// UnitStartedRecord announces a unit has been dispatched to a worker.
type UnitStartedRecord struct {
	Unit string
}

func (r UnitStartedRecord) Kind() Kind { return UnitStartedKind }
func (r UnitStartedRecord) String() string {
	return fmt.Sprintf("UnitStarted %s", r.Unit)
}

// UnitMeasuredRecord reports a completed measurement and, if a baseline
// existed, its diff against it (§4.6, §4.7).
type UnitMeasuredRecord struct {
	Unit           string
	Record         stats.CounterRecord
	HasDiff        bool
	Diff           stats.RecordDiff
	Classification stats.Classification
}

func (r UnitMeasuredRecord) Kind() Kind { return UnitMeasuredKind }
func (r UnitMeasuredRecord) String() string {
	if !r.HasDiff {
		return fmt.Sprintf("UnitMeasured %s: %d instructions", r.Unit, r.Record.Instructions)
	}
	return fmt.Sprintf("UnitMeasured %s: %d instructions (%s, %+d)",
		r.Unit, r.Record.Instructions, r.Classification, r.Diff.Instructions.Absolute)
}

// UnitFailedRecord reports a unit that failed in isolation (§4.8); the
// run continues with the remaining units.
type UnitFailedRecord struct {
	Unit  string
	Error string
}

func (r UnitFailedRecord) Kind() Kind { return UnitFailedKind }
func (r UnitFailedRecord) String() string {
	return fmt.Sprintf("UnitFailed %s: %s", r.Unit, r.Error)
}

// UnitSkippedRecord reports a unit that is not run. --list emits one for
// every unit that passes the filter, instead of measuring it.
type UnitSkippedRecord struct {
	Unit string
}

func (r UnitSkippedRecord) Kind() Kind { return UnitSkippedKind }
func (r UnitSkippedRecord) String() string {
	return fmt.Sprintf("UnitSkipped %s", r.Unit)
}

// RunFinishedRecord announces the run's outcome: every unit measured,
// and whether any exceeded the regression threshold while
// --deny-regressions was set.
type RunFinishedRecord struct {
	Measured    int
	Failed      int
	Regressions int
	Denied      bool
}

func (r RunFinishedRecord) Kind() Kind { return RunFinishedKind }
func (r RunFinishedRecord) String() string {
	return fmt.Sprintf("RunFinished measured=%d failed=%d regressions=%d", r.Measured, r.Failed, r.Regressions)
}

// Writer consumes a stream of Records, e.g. to a terminal or a file.
type Writer interface {
	io.Writer
	WriteRecord(record Record) error
}

// UnitName renders a benchid.ID the way records address it.
func UnitName(id benchid.ID) string {
	return id.String()
}
