// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package mode resolves which of the harness's three process roles
// (§4.1) the current invocation should play, based on the
// self-re-invocation environment variables cachegrind children are
// started with.
package mode

import (
	"os"

	"github.com/onosproject/yab/pkg/benchid"
	"github.com/onosproject/yab/pkg/cachegrind"
)

// Mode is one of the three roles a benchmark binary plays.
type Mode int

const (
	// Host performs discovery and scheduling; it never executes a
	// benchmark body itself.
	Host Mode = iota
	// Child runs exactly one benchmark id end to end, under cachegrind.
	Child
	// Leaf runs exactly one benchmark id, restricted to one declared
	// capture.
	Leaf
	// Calibrate runs discovery in full, like Child, but against an id no
	// registered benchmark can ever match, so no body executes. The
	// scheduler re-invokes the binary in this mode once per run to
	// measure pure process-startup/registration overhead and subtract it
	// from every unit's record (§4.10).
	Calibrate
)

func (m Mode) String() string {
	switch m {
	case Host:
		return "host"
	case Child:
		return "child"
	case Leaf:
		return "leaf"
	case Calibrate:
		return "calibrate"
	default:
		return "unknown"
	}
}

// Selector identifies the resolved mode plus, for Child and Leaf, which
// benchmark (and capture) this process instance is responsible for.
type Selector struct {
	Mode    Mode
	ID      benchid.ID
	Capture benchid.CaptureID
}

// Resolve reads YAB_CALIBRATE, YAB_BENCH, and YAB_CAPTURE from the
// environment per §4.1:
//
//   - YAB_CALIBRATE set: Calibrate, regardless of the other two
//   - neither of the others set: Host
//   - YAB_BENCH set, YAB_CAPTURE unset: Child running that id
//   - both set: Leaf running that id restricted to that capture
func Resolve() (Selector, error) {
	if _, hasCalibrate := os.LookupEnv(cachegrind.CalibrateEnv); hasCalibrate {
		return Selector{Mode: Calibrate}, nil
	}

	benchEnv, hasBench := os.LookupEnv(cachegrind.BenchEnv)
	captureEnv, hasCapture := os.LookupEnv(cachegrind.CaptureEnv)

	if !hasBench {
		return Selector{Mode: Host}, nil
	}

	id, err := benchid.Parse(benchEnv)
	if err != nil {
		return Selector{}, err
	}

	if !hasCapture {
		return Selector{Mode: Child, ID: id}, nil
	}

	cap, err := benchid.NewCapture(captureEnv)
	if err != nil {
		return Selector{}, err
	}
	return Selector{Mode: Leaf, ID: id, Capture: cap}, nil
}
