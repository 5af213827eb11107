// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onosproject/yab/pkg/stats"
)

func TestJSONWriterRoundTripsKind(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf)
	require.NoError(t, w.WriteRecord(UnitStartedRecord{Unit: "fib"}))
	assert.Contains(t, buf.String(), `"kind":"UnitStarted"`)
	assert.Contains(t, buf.String(), `"Unit":"fib"`)
}

func TestTextWriterColorsFailure(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)
	require.NoError(t, w.WriteRecord(UnitFailedRecord{Unit: "fib", Error: "boom"}))
	assert.Contains(t, buf.String(), "fib")
	assert.Contains(t, buf.String(), "boom")
}

func TestTextWriterSkipsUnitSkippedUnlessVerbose(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)
	require.NoError(t, w.WriteRecord(UnitSkippedRecord{Unit: "fib"}))
	assert.Empty(t, strings.TrimSpace(buf.String()))
}

func TestTableAccumulatesAndRenders(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf)
	require.NoError(t, table.WriteRecord(UnitMeasuredRecord{
		Unit:           "fib",
		Record:         stats.CounterRecord{Instructions: 100},
		HasDiff:        true,
		Diff:           stats.RecordDiff{Instructions: stats.Diff{Absolute: 10}},
		Classification: stats.Regression,
	}))
	require.NoError(t, table.WriteRecord(UnitFailedRecord{Unit: "bar", Error: "timeout"}))
	require.NoError(t, table.Flush())

	out := buf.String()
	assert.Contains(t, out, "fib")
	assert.Contains(t, out, "regression")
	assert.Contains(t, out, "bar")
	assert.Contains(t, out, "timeout")
}
