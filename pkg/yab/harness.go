// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package yab is the entry point a benchmark binary's func main calls.
// Its Main dispatches on the process's resolved mode (§4.1): in Host
// mode it discovers units, schedules cachegrind children, and reports
// results; in Child/Leaf mode it simply runs the one matching benchmark
// body and lets the surrounding cachegrind invocation do the
// measuring. The dispatch is grounded on the teacher's
// pkg/benchmark.Main(suites)/run(suites) shape, generalized from a
// setup/worker/teardown trichotomy driven by a Kubernetes job's phase to
// a host/child/leaf trichotomy driven by self-re-invocation env vars.
package yab

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/onosproject/yab/internal/logging"
	"github.com/onosproject/yab/pkg/baseline"
	"github.com/onosproject/yab/pkg/bencher"
	"github.com/onosproject/yab/pkg/cachegrind"
	"github.com/onosproject/yab/pkg/history"
	"github.com/onosproject/yab/pkg/matcher"
	"github.com/onosproject/yab/pkg/mode"
	"github.com/onosproject/yab/pkg/registry"
	"github.com/onosproject/yab/pkg/reporter"
	"github.com/onosproject/yab/pkg/scheduler"
	"github.com/onosproject/yab/pkg/stats"
)

// RegisterFunc is implemented by a benchmark binary to declare its units
// against b, via Bench/BenchParametric/BenchWithCapture.
type RegisterFunc func(b *bencher.Bencher)

// Options configures a Host-mode run; the CLI layer populates this from
// cobra flags and .yab.yaml (§6).
type Options struct {
	Filter  string
	AsRegex bool
	Jobs    int
	List    bool
	JSON    bool
	// Print shows the most recently stored baseline against the run
	// before it (cachegrind.old.out), without invoking cachegrind at all
	// (§6 --print).
	Print bool
	// SaveBaselineName, when non-empty, additionally freezes this run's
	// measurements under an independently named baseline (--save-baseline
	// NAME), alongside the baseline store's always-advancing rolling
	// baseline.
	SaveBaselineName    string
	BaselineName        string
	WarmUpInstructions  int64
	CachegrindPath      string
	RegressionThreshold float64
	DenyRegressions     bool
	Verbose             bool
	Quiet               bool
	TargetDir           string
}

// Main resolves the process's mode and runs it to completion, exiting
// the process with a status code appropriate to the outcome. It never
// returns.
func Main(register RegisterFunc, opts Options) {
	code, err := Run(register, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}

// Run is Main without the os.Exit, for tests and for a caller that wants
// to decide how to report the exit code itself.
func Run(register RegisterFunc, opts Options) (int, error) {
	selector, err := mode.Resolve()
	if err != nil {
		return 1, err
	}
	switch selector.Mode {
	case mode.Host:
		return runHost(register, opts)
	case mode.Calibrate:
		return runCalibration(register)
	default:
		return runChild(register, selector)
	}
}

func runChild(register RegisterFunc, selector mode.Selector) (int, error) {
	b := bencher.New(registry.New(), selector, warmUpFromEnv())
	register(b)
	if !b.Executed() {
		return 1, errors.Errorf("no registered benchmark matched id %q", selector.ID.String())
	}
	return 0, nil
}

// runCalibration walks discovery exactly as a Child process would, but
// against an id (the zero benchid.ID) no registered benchmark can ever
// match, so every declared body is registered and none executes. The
// cachegrind invocation wrapping this process measures pure
// process-startup/registration overhead for the scheduler to subtract
// from every unit's real measurement (§4.10).
func runCalibration(register RegisterFunc) (int, error) {
	b := bencher.New(registry.New(), mode.Selector{Mode: mode.Child}, 0)
	register(b)
	return 0, nil
}

func warmUpFromEnv() int64 {
	v, ok := os.LookupEnv(cachegrind.WarmUpEnv)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func runHost(register RegisterFunc, opts Options) (int, error) {
	logging.Init(logging.Opts{Verbose: opts.Verbose, Quiet: opts.Quiet})

	reg := registry.New()
	discovery := bencher.New(reg, mode.Selector{Mode: mode.Host}, 0)
	register(discovery)

	m, err := matcher.New(opts.Filter, opts.AsRegex)
	if err != nil {
		return 1, err
	}
	units := expandUnits(reg, m)

	if opts.List {
		return listUnits(units)
	}

	selfExe, err := selfExecutable()
	if err != nil {
		return 1, err
	}

	targetDir := opts.TargetDir
	if targetDir == "" {
		targetDir = filepath.Join(filepath.Dir(selfExe), "yab-target")
	}
	store := baseline.New(targetDir)
	if _, err := store.RecoverInterrupted(); err != nil {
		return 1, errors.Wrap(err, "recovering interrupted baseline writes")
	}

	baselineName := opts.BaselineName
	if baselineName == "" {
		baselineName = baseline.DefaultName
	}
	threshold := opts.RegressionThreshold
	if threshold == 0 {
		threshold = stats.DefaultRegressionThreshold
	}

	if opts.Print {
		return printBaseline(units, store, baselineName, threshold, writerFor(opts))
	}

	cachegrindPath := opts.CachegrindPath
	if cachegrindPath == "" {
		cachegrindPath = "valgrind"
	}

	sched := scheduler.New(scheduler.Config{
		Jobs:                opts.Jobs,
		Invoker:             cachegrind.New(cachegrindPath, selfExe),
		Store:               store,
		BaselineName:        baselineName,
		SaveBaselineName:    opts.SaveBaselineName,
		RegressionThreshold: threshold,
		DenyRegressions:     opts.DenyRegressions,
		WarmUpInstructions:  opts.WarmUpInstructions,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w := writerFor(opts)
	w = wrapWithHistory(w, targetDir, baselineName)
	summary, runErr := sched.Run(ctx, units, w)
	if flusher, ok := w.(interface{ Flush() error }); ok {
		_ = flusher.Flush()
	}

	switch {
	case errors.Is(runErr, scheduler.ErrRegressionsDenied):
		return 1, nil
	case runErr != nil:
		return 1, runErr
	case summary.Failed > 0:
		return 1, nil
	default:
		return 0, nil
	}
}

func selfExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "resolving self executable")
	}
	return filepath.Abs(exe)
}

func writerFor(opts Options) reporter.Writer {
	if opts.JSON {
		return reporter.NewJSONWriter(os.Stdout)
	}
	return reporter.NewTextWriter(os.Stdout)
}

func listUnits(units []scheduler.Unit) (int, error) {
	table := reporter.NewTable(os.Stdout)
	for _, u := range units {
		_ = table.WriteRecord(reporter.UnitSkippedRecord{Unit: u.String()})
	}
	return 0, table.Flush()
}

// printBaseline implements --print (§6): it shows the currently stored
// baseline against the run it superseded (cachegrind.old.out) without
// invoking cachegrind at all. A unit with no stored baseline yet is
// reported as failed rather than silently skipped, so --print on a fresh
// checkout says so instead of printing nothing.
func printBaseline(units []scheduler.Unit, store *baseline.Store, baselineName string, threshold float64, w reporter.Writer) (int, error) {
	_ = w.WriteRecord(reporter.RunStartedRecord{Units: unitStrings(units)})

	var failed int
	for _, u := range units {
		current, err := store.Load(baselineName, u.ID.String())
		if err != nil {
			_ = w.WriteRecord(reporter.UnitFailedRecord{Unit: u.String(), Error: err.Error()})
			failed++
			continue
		}

		rec := reporter.UnitMeasuredRecord{Unit: u.String(), Record: current}
		if prior, err := stats.ParseFile(store.OldOutputPath(baselineName, u.ID.String())); err == nil {
			diff := stats.DiffRecords(current, prior)
			rec.HasDiff = true
			rec.Diff = diff
			rec.Classification = diff.InstructionsClassification(threshold)
		}
		_ = w.WriteRecord(rec)
	}

	_ = w.WriteRecord(reporter.RunFinishedRecord{Measured: len(units) - failed, Failed: failed})
	if flusher, ok := w.(interface{ Flush() error }); ok {
		_ = flusher.Flush()
	}
	if failed > 0 {
		return 1, nil
	}
	return 0, nil
}

func unitStrings(units []scheduler.Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.String()
	}
	return names
}

// expandUnits turns the discovered registry into the concrete list of
// cachegrind invocations the scheduler must perform: one per bare id
// with no declared captures, or one per declared capture otherwise
// (§4.10).
func expandUnits(reg *registry.Registry, m *matcher.Matcher) []scheduler.Unit {
	var units []scheduler.Unit
	for _, id := range m.Filter(reg.IDs()) {
		captures := reg.Captures(id)
		if len(captures) == 0 {
			units = append(units, scheduler.Unit{ID: id})
			continue
		}
		for _, c := range captures {
			units = append(units, scheduler.Unit{ID: id, Capture: c, HasCapture: true})
		}
	}
	return units
}
