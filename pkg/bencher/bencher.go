// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package bencher implements the Bencher contract described in §4.10: the
// single type a user's benchmark function sees, whose concrete behavior
// (register-only, execute-one, execute-one-capture) is selected by the
// mode the surrounding process resolved to. This mirrors the teacher's
// BenchmarkingSuite/Suite composition, where one struct is handed
// different backing state depending on whether the process is a
// coordinator or a worker.
package bencher

import (
	"github.com/onosproject/yab/pkg/benchid"
	"github.com/onosproject/yab/pkg/mode"
	"github.com/onosproject/yab/pkg/registry"
)

// FallbackWarmUpIterations is the number of unmeasured passes run before
// the measured pass when no instrumentation-macro build is available to
// poll an actual instruction counter (§9's open question on warm-up
// termination). It is a fixed count, not derived from the requested
// instruction budget, because there is no portable way to observe
// instructions-executed-so-far without the cachegrind client requests a
// pure-Go build cannot issue.
const FallbackWarmUpIterations = 3

// blackBoxSink is written by BlackBox to give the optimizer a plausible
// escape path for the boxed value, without requiring every call site to be
// of the same type (ruling out atomic.Value, whose Store panics on a type
// change).
var blackBoxSink any

// BlackBox returns v unchanged. It exists purely so the optimizer cannot
// prove v is dead and constant-fold the computation that produced it away;
// benchmark bodies should route any input or output they want measured
// through it.
func BlackBox[T any](v T) T {
	blackBoxSink = v
	return v
}

// Bencher is the entry point handed to a user's benchmark function. Its
// behavior depends on the mode it was constructed for:
//
//   - Host: every Bench/BenchWithCapture call registers its id. Bench
//     returns without invoking the body; BenchWithCapture invokes its
//     body once with a discovering Capture, which registers each capture
//     name without running that capture's region.
//   - Child: the body runs end to end exactly when its id matches the
//     selector; every other id is registered and skipped.
//   - Leaf: as Child, but the instrumentation seam (see capture.go) is
//     toggled only around the matched Capture's region; other captures
//     still execute (for correctness of any state they set up). With the
//     default no-op seam the whole leaf process is measured.
type Bencher struct {
	registry *registry.Registry
	selector mode.Selector

	// warmUpInstructions is the requested budget from
	// --warm-up-instructions; 0 disables warm-up.
	warmUpInstructions int64

	executed bool
}

// New returns a Bencher configured for the given mode selector.
// warmUpInstructions is the --warm-up-instructions budget (0 disables
// warm-up) and is only consulted in Child/Leaf mode.
func New(reg *registry.Registry, selector mode.Selector, warmUpInstructions int64) *Bencher {
	return &Bencher{registry: reg, selector: selector, warmUpInstructions: warmUpInstructions}
}

// Registry returns the Bencher's underlying registry, for a host process
// to enumerate ids after discovery.
func (b *Bencher) Registry() *registry.Registry {
	return b.registry
}

// Executed reports whether this process actually ran a benchmark body
// (always false in Host mode; true in Child/Leaf mode once the matching
// id has been reached). The mode dispatcher uses this after discovery
// finishes to tell "selector named an id discovery never reached" apart
// from a normal run.
func (b *Bencher) Executed() bool {
	return b.executed
}

// Bench measures body once end to end under id name. In Host mode this
// only registers name. In Child mode, body runs iff name matches the
// process's selected id.
func (b *Bencher) Bench(name string, body func()) error {
	return b.BenchParametric(name, "", body)
}

// BenchParametric is Bench for a parametric id rendered as "name/arg".
func (b *Bencher) BenchParametric(name, arg string, body func()) error {
	id, err := benchid.NewParametric(name, arg)
	if err != nil {
		return err
	}
	if err := b.registry.Register(id); err != nil {
		return err
	}

	switch b.selector.Mode {
	case mode.Host:
		return nil
	case mode.Child, mode.Leaf:
		if id.String() != b.selector.ID.String() {
			return nil
		}
		b.executed = true
		b.runWithWarmUp(body)
		return nil
	default:
		return nil
	}
}

// BenchWithCapture measures body, which receives a *Capture used to wrap
// the regions that should actually be measured (§4.10). In Leaf mode only
// the capture matching the process's selector has the instrumentation
// seam toggled around its region; every other capture.Measure call still
// runs its body (for side effects later regions may depend on) without
// it. With the default no-op seam this does not narrow what cachegrind
// counts (see capture.go).
func (b *Bencher) BenchWithCapture(name string, body func(c *Capture)) error {
	id, err := benchid.New(name)
	if err != nil {
		return err
	}
	if err := b.registry.Register(id); err != nil {
		return err
	}

	switch b.selector.Mode {
	case mode.Host:
		// Discovery still has to walk body once to learn the captures it
		// declares, but must not pay for their actual work: a discovering
		// Capture registers every name and skips running it.
		body(&Capture{bencher: b, id: id, discovering: true})
		return nil
	case mode.Child, mode.Leaf:
		if id.String() != b.selector.ID.String() {
			return nil
		}
		b.executed = true
		cap := &Capture{bencher: b, id: id}
		if b.selector.Mode == mode.Leaf {
			cap.isolating = true
			cap.active = b.selector.Capture
		}
		b.runWithWarmUp(func() { body(cap) })
		return nil
	default:
		return nil
	}
}

func (b *Bencher) runWithWarmUp(body func()) {
	if b.warmUpInstructions > 0 {
		for i := 0; i < FallbackWarmUpIterations; i++ {
			body()
		}
	}
	body()
}
