// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullOutput = `desc: I1 cache:
desc: D1 cache:
desc: LL cache:
cmd: target/release/fib-bench
events: Ir I1mr ILmr Dr D1mr DLmr Dw D1mw DLmw
0 100 1 0 40 2 0 20 1 0
summary: 100 1 0 40 2 0 20 1 0
`

const noCacheSimOutput = `desc: Trigger: Program termination
cmd: target/release/fib-bench
events: Ir
0 100
summary: 100
`

func TestParseWithCacheSim(t *testing.T) {
	record, err := Parse(strings.NewReader(fullOutput))
	require.NoError(t, err)

	assert.Equal(t, int64(100), record.Instructions)
	assert.Equal(t, int64(1), record.I1Misses.MustGet())
	assert.Equal(t, int64(0), record.LLiMisses.MustGet())
	assert.Equal(t, int64(40), record.DataReads.MustGet())
	assert.Equal(t, int64(2), record.D1RMisses.MustGet())
	assert.Equal(t, int64(0), record.LLdRMisses.MustGet())
	assert.Equal(t, int64(20), record.DataWrites.MustGet())
	assert.Equal(t, int64(1), record.D1WMisses.MustGet())
	assert.Equal(t, int64(0), record.LLdWMisses.MustGet())

	cycles, ok := record.EstimatedCycles().Get()
	require.True(t, ok)
	assert.Equal(t, int64(100+10*(1+2+1)+100*(0+0+0)), cycles)
}

func TestParseWithoutCacheSim(t *testing.T) {
	record, err := Parse(strings.NewReader(noCacheSimOutput))
	require.NoError(t, err)

	assert.Equal(t, int64(100), record.Instructions)
	_, ok := record.I1Misses.Get()
	assert.False(t, ok)
	_, ok = record.EstimatedCycles().Get()
	assert.False(t, ok)
	_, ok = record.L1Hits().Get()
	assert.False(t, ok)
}

func TestParseMissingEventsLine(t *testing.T) {
	_, err := Parse(strings.NewReader("cmd: foo\nsummary: 1\n"))
	assert.ErrorIs(t, err, ErrNoEventsLine)
}

func TestParseMissingSummaryLine(t *testing.T) {
	_, err := Parse(strings.NewReader("events: Ir\ncmd: foo\n"))
	assert.ErrorIs(t, err, ErrNoSummaryLine)
}

func TestParseTolerantOfExtraColumns(t *testing.T) {
	output := "events: Ir I1mr ILmr Dr D1mr DLmr Dw D1mw DLmw Bc Bcm\nsummary: 10 1 0 4 0 0 2 0 0 5 1\n"
	record, err := Parse(strings.NewReader(output))
	require.NoError(t, err)
	assert.Equal(t, int64(10), record.Instructions)
	assert.Equal(t, int64(1), record.I1Misses.MustGet())
}
