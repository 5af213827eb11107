// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package benchid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyAndSlash(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	_, err = New("fib/short")
	assert.Error(t, err)
}

func TestParametricRendering(t *testing.T) {
	id, err := NewParametric("fib", "30")
	require.NoError(t, err)
	assert.Equal(t, "fib/30", id.String())
	assert.Equal(t, "fib", id.Name())
	assert.Equal(t, "30", id.Arg())
}

func TestBareRendering(t *testing.T) {
	id, err := New("fib_short")
	require.NoError(t, err)
	assert.Equal(t, "fib_short", id.String())
	assert.Equal(t, "", id.Arg())
}

func TestParseRoundTrip(t *testing.T) {
	id, err := NewParametric("fib", "30")
	require.NoError(t, err)

	parsed, err := Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestDefaultCapture(t *testing.T) {
	assert.True(t, DefaultCapture.IsDefault())
	assert.Equal(t, "", DefaultCapture.String())

	c, err := NewCapture("core")
	require.NoError(t, err)
	assert.False(t, c.IsDefault())
	assert.Equal(t, "core", c.String())
}

func TestNewCaptureRejectsEmpty(t *testing.T) {
	_, err := NewCapture("")
	assert.Error(t, err)
}
