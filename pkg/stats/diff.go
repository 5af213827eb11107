// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package stats

// Classification categorizes a Diff against a regression threshold.
type Classification string

const (
	// Regression means the counter grew by more than the threshold.
	Regression Classification = "regression"
	// Improvement means the counter shrank by more than the threshold.
	Improvement Classification = "improvement"
	// NoChange means the counter moved by at most the threshold, or no
	// prior value was available to compare against.
	NoChange Classification = "no-change"
)

// Diff is the result of comparing one counter field between a current and
// a prior run.
type Diff struct {
	Absolute int64
	Relative Optional[float64]
}

// DiffField computes current - prior for a single optional counter field.
// Diffing a present value against an absent one (or vice versa) yields an
// absent Diff rather than fabricating a number from a missing operand.
func DiffField(current, prior Optional[int64]) Optional[Diff] {
	cv, cok := current.Get()
	pv, pok := prior.Get()
	if !cok || !pok {
		return None[Diff]()
	}
	d := Diff{Absolute: cv - pv}
	if pv != 0 {
		d.Relative = Some(float64(cv-pv) / float64(pv))
	}
	return Some(d)
}

// DefaultRegressionThreshold is the fractional change (2%) above which a
// counter is classified as a Regression or Improvement, matching §4.6.
const DefaultRegressionThreshold = 0.02

// Classify classifies an optional Diff against threshold (a fraction, e.g.
// 0.02 for 2%). A Diff with no relative component (prior was zero, or the
// Diff itself is absent) is always NoChange: there is nothing to divide
// by, and no classification should be fabricated.
func Classify(d Optional[Diff], threshold float64) Classification {
	diff, ok := d.Get()
	if !ok {
		return NoChange
	}
	rel, ok := diff.Relative.Get()
	if !ok {
		return NoChange
	}
	switch {
	case rel > threshold:
		return Regression
	case rel < -threshold:
		return Improvement
	default:
		return NoChange
	}
}

// RecordDiff is the field-wise Diff of every raw counter in a
// CounterRecord, including the Instructions field (always present). The
// derived quantities (L1/LL hits, RAM accesses, estimated cycles) are not
// diffed.
type RecordDiff struct {
	Instructions Diff
	I1Misses     Optional[Diff]
	LLiMisses    Optional[Diff]
	DataReads    Optional[Diff]
	D1RMisses    Optional[Diff]
	LLdRMisses   Optional[Diff]
	DataWrites   Optional[Diff]
	D1WMisses    Optional[Diff]
	LLdWMisses   Optional[Diff]
}

// DiffRecords computes the field-wise diff of current against prior.
func DiffRecords(current, prior CounterRecord) RecordDiff {
	instrDiff, _ := DiffField(Some(current.Instructions), Some(prior.Instructions)).Get()
	return RecordDiff{
		Instructions: instrDiff,
		I1Misses:     DiffField(current.I1Misses, prior.I1Misses),
		LLiMisses:    DiffField(current.LLiMisses, prior.LLiMisses),
		DataReads:    DiffField(current.DataReads, prior.DataReads),
		D1RMisses:    DiffField(current.D1RMisses, prior.D1RMisses),
		LLdRMisses:   DiffField(current.LLdRMisses, prior.LLdRMisses),
		DataWrites:   DiffField(current.DataWrites, prior.DataWrites),
		D1WMisses:    DiffField(current.D1WMisses, prior.D1WMisses),
		LLdWMisses:   DiffField(current.LLdWMisses, prior.LLdWMisses),
	}
}

// InstructionsClassification classifies the Instructions field, the
// counter the CLI's --deny-regressions flag acts on, against threshold.
func (d RecordDiff) InstructionsClassification(threshold float64) Classification {
	return Classify(Some(d.Instructions), threshold)
}
