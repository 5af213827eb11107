// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package scheduler dispatches cachegrind child invocations across a
// bounded pool of workers (§4.5) while reporting results in strict
// registration order, not completion order. Concurrency is bounded by a
// semaphore of Config.Jobs slots, one goroutine per unit; per-unit
// failure isolation and interrupted-run recovery are grounded on
// pkg/baseline's temp-file lifecycle.
package scheduler

import "github.com/onosproject/yab/pkg/benchid"

// Unit is one cachegrind child invocation the scheduler must perform:
// either a whole benchmark id (Capture absent) or one isolated capture
// of a BenchWithCapture benchmark.
type Unit struct {
	ID         benchid.ID
	Capture    benchid.CaptureID
	HasCapture bool
}

// String renders the unit the way reports and log lines address it.
func (u Unit) String() string {
	if !u.HasCapture {
		return u.ID.String()
	}
	return u.ID.String() + "#" + u.Capture.String()
}
