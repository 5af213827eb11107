// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package bencher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onosproject/yab/pkg/benchid"
	"github.com/onosproject/yab/pkg/mode"
	"github.com/onosproject/yab/pkg/registry"
)

func TestBenchWithCaptureHostOnlyRegisters(t *testing.T) {
	id, err := benchid.New("fib")
	require.NoError(t, err)

	b := New(registry.New(), mode.Selector{Mode: mode.Host}, 0)
	measured := false
	err = b.BenchWithCapture("fib", func(c *Capture) {
		// The outer closure must run so discovery learns its capture
		// names, but the measured work inside Measure must not.
		_ = c.Measure("core", func() { measured = true })
	})
	require.NoError(t, err)
	assert.False(t, measured)
	assert.False(t, b.Executed())

	ids := b.Registry().IDs()
	require.Len(t, ids, 1)
	assert.Equal(t, "fib", ids[0].String())

	caps := b.Registry().Captures(id)
	require.Len(t, caps, 1)
	assert.Equal(t, "core", caps[0].String())
}

func TestBenchWithCaptureChildRunsAllCapturesUnisolated(t *testing.T) {
	id, err := benchid.New("fib")
	require.NoError(t, err)
	b := New(registry.New(), mode.Selector{Mode: mode.Child, ID: id}, 0)

	var seen []string
	err = b.BenchWithCapture("fib", func(c *Capture) {
		_ = c.Measure("setup", func() { seen = append(seen, "setup") })
		_ = c.Measure("core", func() { seen = append(seen, "core") })
	})
	require.NoError(t, err)
	assert.True(t, b.Executed())
	assert.Equal(t, []string{"setup", "core"}, seen)
}

func TestBenchWithCaptureLeafRegistersDeclaredCaptures(t *testing.T) {
	id, err := benchid.New("fib")
	require.NoError(t, err)
	cap, err := benchid.NewCapture("core")
	require.NoError(t, err)
	b := New(registry.New(), mode.Selector{Mode: mode.Leaf, ID: id, Capture: cap}, 0)

	var seen []string
	err = b.BenchWithCapture("fib", func(c *Capture) {
		_ = c.Measure("setup", func() { seen = append(seen, "setup") })
		_ = c.Measure("core", func() { seen = append(seen, "core") })
	})
	require.NoError(t, err)
	assert.True(t, b.Executed())
	// Every capture body still runs in Leaf mode, even the one that
	// isn't isolated: only whether instrumentation toggles differs.
	assert.Equal(t, []string{"setup", "core"}, seen)

	caps := b.Registry().Captures(id)
	require.Len(t, caps, 2)
	assert.Equal(t, "setup", caps[0].String())
	assert.Equal(t, "core", caps[1].String())
}

func TestBenchWithCaptureSkipsNonMatchingID(t *testing.T) {
	other, err := benchid.New("other")
	require.NoError(t, err)
	b := New(registry.New(), mode.Selector{Mode: mode.Child, ID: other}, 0)

	ran := false
	err = b.BenchWithCapture("fib", func(c *Capture) {
		ran = true
	})
	require.NoError(t, err)
	assert.False(t, ran)
	assert.False(t, b.Executed())
}

func TestBenchParametricWarmUp(t *testing.T) {
	id, err := benchid.New("fib")
	require.NoError(t, err)
	b := New(registry.New(), mode.Selector{Mode: mode.Child, ID: id}, 1000)

	count := 0
	err = b.Bench("fib", func() { count++ })
	require.NoError(t, err)
	assert.Equal(t, FallbackWarmUpIterations+1, count)
}

func TestBenchNoWarmUpWhenBudgetZero(t *testing.T) {
	id, err := benchid.New("fib")
	require.NoError(t, err)
	b := New(registry.New(), mode.Selector{Mode: mode.Child, ID: id}, 0)

	count := 0
	err = b.Bench("fib", func() { count++ })
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
