// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubThenNonNegativeClampsInstructions(t *testing.T) {
	measured := CounterRecord{Instructions: 100}
	calibration := CounterRecord{Instructions: 150}

	got := measured.Sub(calibration).NonNegative()
	assert.Equal(t, int64(0), got.Instructions)
}

func TestSubPreservesCacheFieldsWhenBothPresent(t *testing.T) {
	measured := CounterRecord{Instructions: 1000, I1Misses: Some(int64(50))}
	calibration := CounterRecord{Instructions: 200, I1Misses: Some(int64(10))}

	got := measured.Sub(calibration).NonNegative()
	assert.Equal(t, int64(800), got.Instructions)
	v, ok := got.I1Misses.Get()
	assert.True(t, ok)
	assert.Equal(t, int64(40), v)
}

func TestSubDropsCacheFieldsWhenOnlyOnePresent(t *testing.T) {
	measured := CounterRecord{Instructions: 1000, I1Misses: Some(int64(50))}
	calibration := CounterRecord{Instructions: 200}

	got := measured.Sub(calibration).NonNegative()
	_, ok := got.I1Misses.Get()
	assert.False(t, ok)
}
