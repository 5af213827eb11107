// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/onosproject/yab/internal/logging"
	"github.com/onosproject/yab/pkg/stats"
)

// NewTextWriter returns a Writer that prints colored, human-readable
// lines to w via the same Step glyphs the rest of the harness uses for
// progress output.
func NewTextWriter(w io.Writer) Writer {
	return &textWriter{Writer: w}
}

type textWriter struct {
	io.Writer
}

func (w *textWriter) WriteRecord(record Record) error {
	var line string
	switch r := record.(type) {
	case RunStartedRecord:
		line = color.CyanString("‣ discovered %d unit(s)", len(r.Units))
	case UnitStartedRecord:
		line = color.CyanString("‣ %s", r.Unit)
	case UnitMeasuredRecord:
		if r.HasDiff && r.Classification == stats.Regression {
			line = color.YellowString("✓ %s: %d instructions (regressed)", r.Unit, r.Record.Instructions)
		} else {
			line = color.GreenString("✓ %s: %d instructions", r.Unit, r.Record.Instructions)
		}
	case UnitFailedRecord:
		line = color.RedString("✗ %s: %s", r.Unit, r.Error)
	case UnitSkippedRecord:
		if !logging.GetVerbose() {
			return nil
		}
		line = fmt.Sprintf("  %s (skipped)", r.Unit)
	case RunFinishedRecord:
		line = fmt.Sprintf("Measured %d, failed %d, regressions %d", r.Measured, r.Failed, r.Regressions)
	default:
		line = record.String()
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
