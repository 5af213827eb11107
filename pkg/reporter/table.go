// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Table buffers UnitMeasured/UnitFailed/UnitSkipped records and renders
// them as a single summary table on Flush. The harness uses it for --list
// output; end-of-run reporting goes through the text or JSON writer.
type Table struct {
	w    io.Writer
	rows [][]string
}

// NewTable returns a Table writer that accumulates rows until Flush.
func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

func (t *Table) Write(p []byte) (int, error) { return len(p), nil }

func (t *Table) WriteRecord(record Record) error {
	switch r := record.(type) {
	case UnitMeasuredRecord:
		diff := "-"
		if r.HasDiff {
			diff = fmt.Sprintf("%s (%+d)", r.Classification, r.Diff.Instructions.Absolute)
		}
		t.rows = append(t.rows, []string{r.Unit, fmt.Sprintf("%d", r.Record.Instructions), diff, "ok"})
	case UnitFailedRecord:
		t.rows = append(t.rows, []string{r.Unit, "-", "-", "failed: " + r.Error})
	case UnitSkippedRecord:
		t.rows = append(t.rows, []string{r.Unit, "-", "-", "skipped"})
	}
	return nil
}

// Flush renders the accumulated rows as a single table.
func (t *Table) Flush() error {
	table := tablewriter.NewWriter(t.w)
	table.Header([]string{"Unit", "Instructions", "vs Baseline", "Status"})
	for _, row := range t.rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
