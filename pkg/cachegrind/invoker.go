// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package cachegrind builds and runs a valgrind --tool=cachegrind child
// process that re-invokes the current benchmark binary scoped to a single
// benchmark id, then parses the stats file it produces.
package cachegrind

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/onosproject/yab/pkg/stats"
)

// DefaultGracePeriod is how long a canceled child gets to exit after
// SIGTERM before Run escalates to SIGKILL (§4.8).
const DefaultGracePeriod = 5 * time.Second

const (
	// BenchEnv tells the re-invoked binary which benchmark id to run.
	BenchEnv = "YAB_BENCH"
	// CaptureEnv further narrows a wrapped run to a single capture.
	CaptureEnv = "YAB_CAPTURE"
	// WarmUpEnv carries the --warm-up-instructions budget across the
	// self-re-invocation boundary, since the child has no CLI flags of
	// its own to parse.
	WarmUpEnv = "YAB_WARMUP_INSTRUCTIONS"
	// CalibrateEnv tells the re-invoked binary to run its calibration
	// pass (§4.10's no-macros overhead subtraction) instead of dispatching
	// to any registered benchmark: discovery still runs in full, but no
	// body executes, so the resulting cachegrind record is pure
	// process-startup/registration overhead with nothing measured on top.
	CalibrateEnv = "YAB_CALIBRATE"

	stderrTailBytes = 4096
)

// ErrCachegrindFailed is the sentinel wrapped by a nonzero child exit.
var ErrCachegrindFailed = errors.New("cachegrind: child process failed")

// ErrMissingOutput is returned when the child exited 0 but produced no (or
// an empty) stats file.
var ErrMissingOutput = errors.New("cachegrind: child produced no output file")

// ErrCorruptOutput is returned when the stats parser rejected the output
// file the child produced.
var ErrCorruptOutput = errors.New("cachegrind: child output is not a valid cachegrind summary")

// Invoker builds and runs cachegrind children against the current binary.
type Invoker struct {
	// CachegrindPath is the cachegrind/valgrind executable, overridable
	// with --cachegrind.
	CachegrindPath string
	// SelfExe is the path to the benchmark binary currently running in
	// host mode; it is re-invoked as the cachegrind child.
	SelfExe string
	// InstrumentationMacros, when true, means the benchmark body already
	// delimits its measured region with cachegrind client requests, so
	// --instr-at-start=no can be passed to avoid counting process
	// startup.
	InstrumentationMacros bool
	// CacheSim selects --cache-sim=yes/no. Defaults to yes.
	CacheSim bool
	// GracePeriod is how long a canceled child is given to exit after
	// SIGTERM before Run force-kills it. Zero means DefaultGracePeriod.
	GracePeriod time.Duration
}

// New returns an Invoker with CacheSim enabled by default.
func New(cachegrindPath, selfExe string) *Invoker {
	return &Invoker{CachegrindPath: cachegrindPath, SelfExe: selfExe, CacheSim: true}
}

// Request describes one cachegrind child invocation.
type Request struct {
	ID                 string
	Capture            string
	OutputPath         string
	WarmUpInstructions int64
	// Calibrate, when true, re-invokes the binary with CalibrateEnv set
	// instead of BenchEnv/CaptureEnv, so no benchmark body runs. ID and
	// Capture are ignored in this mode.
	Calibrate bool
}

// Run spawns a cachegrind child scoped to req.ID (and req.Capture, if set),
// waits for it to exit, and parses its output. On any failure it returns
// one of ErrCachegrindFailed, ErrMissingOutput, or ErrCorruptOutput wrapped
// with diagnostic context; req.OutputPath is left on disk in every failure
// case so it can be inspected (§4.4 step 3).
func (inv *Invoker) Run(ctx context.Context, req Request) (stats.CounterRecord, error) {
	args := inv.buildArgs(req)

	cmd := exec.CommandContext(ctx, inv.CachegrindPath, args...)
	cmd.Env = inv.buildEnv(req)
	cmd.Stdout = nil

	// On ctx cancellation (run timeout or Ctrl-C), ask cachegrind and its
	// instrumented child to exit cleanly before force-killing them; a
	// killed valgrind rarely leaves a usable cachegrind.out behind.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = inv.gracePeriod()

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := tailBytes(stderr.Bytes(), stderrTailBytes)
		return stats.CounterRecord{}, errors.Wrapf(ErrCachegrindFailed, "id=%s: %v: stderr tail: %s", req.ID, err, tail)
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil || info.Size() == 0 {
		return stats.CounterRecord{}, errors.Wrapf(ErrMissingOutput, "id=%s path=%s", req.ID, req.OutputPath)
	}

	record, err := stats.ParseFile(req.OutputPath)
	if err != nil {
		return stats.CounterRecord{}, errors.Wrapf(ErrCorruptOutput, "id=%s path=%s: %v", req.ID, req.OutputPath, err)
	}
	return record, nil
}

// buildArgs constructs the cachegrind argv:
// valgrind --tool=cachegrind --cachegrind-out-file=<path>
//
//	[--instr-at-start=no] --cache-sim=yes|no <self-exe>
//
// --cache-sim is always passed explicitly, as yes or no per CacheSim.
func (inv *Invoker) buildArgs(req Request) []string {
	args := []string{
		"--tool=cachegrind",
		"--cachegrind-out-file=" + req.OutputPath,
	}
	if inv.InstrumentationMacros {
		args = append(args, "--instr-at-start=no")
	}
	if inv.CacheSim {
		args = append(args, "--cache-sim=yes")
	} else {
		args = append(args, "--cache-sim=no")
	}
	args = append(args, inv.SelfExe)
	return args
}

// buildEnv constructs the child environment: YAB_BENCH, optionally
// YAB_CAPTURE and YAB_WARMUP_INSTRUCTIONS, plus a minimal inherited set
// (§4.4) rather than the full parent environment, so a benchmark's
// measured instruction count can't vary with unrelated variables the
// host process happens to carry.
func (inv *Invoker) buildEnv(req Request) []string {
	var env []string
	if req.Calibrate {
		env = append(env, CalibrateEnv+"=1")
	} else {
		env = append(env, BenchEnv+"="+req.ID)
		if req.Capture != "" {
			env = append(env, CaptureEnv+"="+req.Capture)
		}
	}
	if req.WarmUpInstructions > 0 {
		env = append(env, WarmUpEnv+"="+strconv.FormatInt(req.WarmUpInstructions, 10))
	}
	for _, key := range []string{"PATH", "HOME"} {
		if v, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+v)
		}
	}
	return env
}

func (inv *Invoker) gracePeriod() time.Duration {
	if inv.GracePeriod > 0 {
		return inv.GracePeriod
	}
	return DefaultGracePeriod
}

func tailBytes(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}
