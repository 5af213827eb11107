// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/onosproject/yab/internal/logging"
	"github.com/onosproject/yab/pkg/baseline"
	"github.com/onosproject/yab/pkg/cachegrind"
	"github.com/onosproject/yab/pkg/reporter"
	"github.com/onosproject/yab/pkg/stats"
)

// ErrRegressionsDenied is returned by Run when --deny-regressions was set
// and at least one unit regressed past the threshold.
var ErrRegressionsDenied = errors.New("scheduler: regressions detected with --deny-regressions")

// Config configures one Run.
type Config struct {
	// Jobs bounds the number of concurrent cachegrind children (-j/--jobs).
	// Values below 1 are treated as 1.
	Jobs int
	// Invoker runs each unit's cachegrind child.
	Invoker *cachegrind.Invoker
	// Store persists and loads baseline records.
	Store *baseline.Store
	// BaselineName is the baseline compared against. Run only reads it:
	// every run writes the rolling baseline.DefaultName baseline
	// regardless of BaselineName, so --baseline only changes what a run's
	// diffs are measured against, never what they overwrite. (When
	// BaselineName is DefaultName itself, that baseline still advances.)
	BaselineName string
	// SaveBaselineName, when non-empty, additionally freezes every
	// successful measurement under this baseline name (--save-baseline
	// NAME), independent of both BaselineName and the always-advancing
	// rolling baseline.
	SaveBaselineName string
	// RegressionThreshold is the fractional change classified as a
	// Regression/Improvement (§4.6).
	RegressionThreshold float64
	// DenyRegressions makes Run return ErrRegressionsDenied if any unit
	// regresses (--deny-regressions), for CI gating.
	DenyRegressions bool
	// WarmUpInstructions is forwarded to each cachegrind child so its
	// benchmark body knows whether (and how much) to warm up (§9).
	WarmUpInstructions int64
}

// Summary totals a Run's outcome for the CLI's exit code decision.
type Summary struct {
	Measured    int
	Failed      int
	Regressions int
}

// Scheduler runs a set of units against cachegrind, bounding concurrency
// at Config.Jobs while reporting results in the order units were
// registered.
type Scheduler struct {
	cfg Config
}

// New returns a Scheduler for cfg.
func New(cfg Config) *Scheduler {
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	if cfg.RegressionThreshold == 0 {
		cfg.RegressionThreshold = stats.DefaultRegressionThreshold
	}
	if cfg.BaselineName == "" {
		cfg.BaselineName = baseline.DefaultName
	}
	return &Scheduler{cfg: cfg}
}

// unitResult is what a single runUnit call produces: the freshly measured
// record, the prior baseline record captured before this run overwrote
// anything (so the diff always compares against the true previous state,
// not the value this same run just wrote), and whether a prior existed
// at all.
type unitResult struct {
	record   stats.CounterRecord
	prior    stats.CounterRecord
	hasPrior bool
	err      error
}

// Run executes units (in the order supplied), bounded at cfg.Jobs
// concurrent cachegrind children. It emits a UnitStartedRecord the
// instant each unit is dispatched to a worker. Once every unit has been
// dispatched, it writes one Measured/Failed record per unit to w in
// registration order, each as soon as that unit's result is available;
// no such record is written while units are still waiting for a free
// worker slot (§4.8, §4.9). A unit failing does not
// abort the run; it is reported as UnitFailed and counted in the returned
// Summary.
func (s *Scheduler) Run(ctx context.Context, units []Unit, w reporter.Writer) (Summary, error) {
	_ = w.WriteRecord(reporter.RunStartedRecord{Units: unitNames(units)})

	calibration, err := s.calibrate(ctx)
	if err != nil {
		logging.Get().Warn("scheduler: calibration run failed, reporting raw instruction counts", "error", err)
		calibration = stats.CounterRecord{}
	}

	results := make([]chan unitResult, len(units))
	for i := range results {
		results[i] = make(chan unitResult, 1)
	}
	steps := make([]*logging.Step, len(units))

	sem := make(chan struct{}, s.cfg.Jobs)
	var wg sync.WaitGroup
	for i, unit := range units {
		i, unit := i, unit
		sem <- struct{}{}
		_ = w.WriteRecord(reporter.UnitStartedRecord{Unit: unit.String()})
		if logging.GetVerbose() {
			steps[i] = logging.NewStep(unit.String(), "measure")
			steps[i].Start()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] <- s.runUnit(ctx, unit)
		}()
	}
	// Released once every worker has dropped its slot; the reporting loop
	// below only ever blocks on results it still needs, so this doesn't
	// reintroduce a wait-for-everything barrier.
	go wg.Wait()

	var summary Summary
	for i, unit := range units {
		res := <-results[i]
		if res.err != nil {
			if steps[i] != nil {
				steps[i].Fail(res.err)
			}
			_ = w.WriteRecord(reporter.UnitFailedRecord{Unit: unit.String(), Error: res.err.Error()})
			summary.Failed++
			continue
		}

		measured := res.record.Sub(calibration).NonNegative()
		rec := reporter.UnitMeasuredRecord{Unit: unit.String(), Record: measured}
		if res.hasPrior {
			prior := res.prior.Sub(calibration).NonNegative()
			diff := stats.DiffRecords(measured, prior)
			class := diff.InstructionsClassification(s.cfg.RegressionThreshold)
			rec.HasDiff = true
			rec.Diff = diff
			rec.Classification = class
			if class == stats.Regression {
				summary.Regressions++
			}
		}
		if steps[i] != nil {
			steps[i].Complete()
		}
		_ = w.WriteRecord(rec)
		summary.Measured++
	}

	_ = w.WriteRecord(reporter.RunFinishedRecord{
		Measured:    summary.Measured,
		Failed:      summary.Failed,
		Regressions: summary.Regressions,
		Denied:      s.cfg.DenyRegressions && summary.Regressions > 0,
	})

	if s.cfg.DenyRegressions && summary.Regressions > 0 {
		return summary, ErrRegressionsDenied
	}
	return summary, nil
}

// calibrate runs one empty-body cachegrind child (§4.10) to measure the
// wrapper/process-startup overhead common to every unit in this run, so it
// can be subtracted from each unit's raw record before diffing or
// reporting. It is run once per Run, not once per unit, since this
// overhead is a property of the binary and its re-invocation path, not of
// any particular benchmark id.
func (s *Scheduler) calibrate(ctx context.Context) (stats.CounterRecord, error) {
	tempPath, err := s.cfg.Store.TempPath("calibration", "", 0)
	if err != nil {
		return stats.CounterRecord{}, err
	}
	defer func() { _ = s.cfg.Store.Discard(tempPath) }()

	return s.cfg.Invoker.Run(ctx, cachegrind.Request{Calibrate: true, OutputPath: tempPath})
}

// runUnit spawns the cachegrind child for one unit, captures the baseline
// record that existed before this run touches anything, then promotes the
// new measurement into the always-advancing rolling baseline (and,
// if requested, an additional independently named one). Temp files are
// discarded on every failure path except a corrupt-output one, whose file
// is kept for inspection until the next run's RecoverInterrupted.
func (s *Scheduler) runUnit(ctx context.Context, unit Unit) unitResult {
	capture := ""
	if unit.HasCapture {
		capture = unit.Capture.String()
	}

	prior, err := s.cfg.Store.Load(s.cfg.BaselineName, unit.ID.String())
	hasPrior := err == nil

	tempPath, err := s.cfg.Store.TempPath(unit.ID.String(), capture, 0)
	if err != nil {
		return unitResult{err: err}
	}

	req := cachegrind.Request{
		ID:                 unit.ID.String(),
		Capture:            capture,
		OutputPath:         tempPath,
		WarmUpInstructions: s.cfg.WarmUpInstructions,
	}
	record, err := s.cfg.Invoker.Run(ctx, req)
	if err != nil {
		if !errors.Is(err, cachegrind.ErrCorruptOutput) {
			_ = s.cfg.Store.Discard(tempPath)
		}
		return unitResult{err: err}
	}

	if s.cfg.SaveBaselineName != "" && s.cfg.SaveBaselineName != baseline.DefaultName {
		if err := s.cfg.Store.SaveAdditional(s.cfg.SaveBaselineName, unit.ID.String(), tempPath); err != nil {
			_ = s.cfg.Store.Discard(tempPath)
			return unitResult{err: err}
		}
	}
	if err := s.cfg.Store.Save(baseline.DefaultName, unit.ID.String(), tempPath); err != nil {
		_ = s.cfg.Store.Discard(tempPath)
		return unitResult{err: err}
	}

	return unitResult{record: record, prior: prior, hasPrior: hasPrior}
}

func unitNames(units []Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.String()
	}
	return names
}
