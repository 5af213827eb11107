// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package stats models cachegrind's summary counters: parsing its text
// output, the arithmetic performed over it (sum, diff), and the derived
// quantities (L1/LL hit counts, RAM accesses, estimated cycles) computed
// from the raw event columns.
package stats

// CounterRecord is an immutable snapshot of cachegrind's summary counters
// for one measured region. Ir is always present; every other field is
// absent (Optional none) when the cachegrind run that produced it had
// cache simulation disabled.
type CounterRecord struct {
	Instructions int64

	I1Misses   Optional[int64]
	LLiMisses  Optional[int64]
	DataReads  Optional[int64]
	D1RMisses  Optional[int64]
	LLdRMisses Optional[int64]
	DataWrites Optional[int64]
	D1WMisses  Optional[int64]
	LLdWMisses Optional[int64]
}

// cacheSimEnabled reports whether every cache-simulation field is present.
// The parser guarantees all-or-nothing: either every optional field was
// populated from the events line, or none were.
func (r CounterRecord) cacheSimEnabled() bool {
	_, ok := r.I1Misses.Get()
	return ok
}

// L1Hits returns the number of references served from L1 (instruction and
// data combined), or None if cache simulation was disabled.
func (r CounterRecord) L1Hits() Optional[int64] {
	if !r.cacheSimEnabled() {
		return None[int64]()
	}
	totalRefs := r.Instructions + r.DataReads.MustGet() + r.DataWrites.MustGet()
	totalL1Misses := r.I1Misses.MustGet() + r.D1RMisses.MustGet() + r.D1WMisses.MustGet()
	return Some(totalRefs - totalL1Misses)
}

// LLHits returns the number of references that missed L1 but hit the
// last-level cache, or None if cache simulation was disabled.
func (r CounterRecord) LLHits() Optional[int64] {
	if !r.cacheSimEnabled() {
		return None[int64]()
	}
	totalL1Misses := r.I1Misses.MustGet() + r.D1RMisses.MustGet() + r.D1WMisses.MustGet()
	totalLLMisses := r.LLiMisses.MustGet() + r.LLdRMisses.MustGet() + r.LLdWMisses.MustGet()
	return Some(totalL1Misses - totalLLMisses)
}

// RAMAccesses returns the number of references that missed the last-level
// cache and reached RAM, or None if cache simulation was disabled.
func (r CounterRecord) RAMAccesses() Optional[int64] {
	if !r.cacheSimEnabled() {
		return None[int64]()
	}
	return Some(r.LLiMisses.MustGet() + r.LLdRMisses.MustGet() + r.LLdWMisses.MustGet())
}

// EstimatedCycles applies cachegrind's convention for a single-number cost
// estimate: Ir + 10*L1-misses + 100*LL-misses. Returns None if cache
// simulation was disabled, since the weights are meaningless without it.
func (r CounterRecord) EstimatedCycles() Optional[int64] {
	if !r.cacheSimEnabled() {
		return None[int64]()
	}
	l1Misses := r.I1Misses.MustGet() + r.D1RMisses.MustGet() + r.D1WMisses.MustGet()
	llMisses := r.LLiMisses.MustGet() + r.LLdRMisses.MustGet() + r.LLdWMisses.MustGet()
	return Some(r.Instructions + 10*l1Misses + 100*llMisses)
}

// Add returns the field-wise sum of r and other. A field is present in the
// result only if it is present in both operands; this keeps captures that
// were measured without cache simulation from fabricating a cache-sim
// total when combined with one that had it enabled.
func (r CounterRecord) Add(other CounterRecord) CounterRecord {
	return CounterRecord{
		Instructions: r.Instructions + other.Instructions,
		I1Misses:     addOptional(r.I1Misses, other.I1Misses),
		LLiMisses:    addOptional(r.LLiMisses, other.LLiMisses),
		DataReads:    addOptional(r.DataReads, other.DataReads),
		D1RMisses:    addOptional(r.D1RMisses, other.D1RMisses),
		LLdRMisses:   addOptional(r.LLdRMisses, other.LLdRMisses),
		DataWrites:   addOptional(r.DataWrites, other.DataWrites),
		D1WMisses:    addOptional(r.D1WMisses, other.D1WMisses),
		LLdWMisses:   addOptional(r.LLdWMisses, other.LLdWMisses),
	}
}

// Sub returns the field-wise difference r - other, with the same
// both-or-neither presence rule as Add.
func (r CounterRecord) Sub(other CounterRecord) CounterRecord {
	return CounterRecord{
		Instructions: r.Instructions - other.Instructions,
		I1Misses:     subOptional(r.I1Misses, other.I1Misses),
		LLiMisses:    subOptional(r.LLiMisses, other.LLiMisses),
		DataReads:    subOptional(r.DataReads, other.DataReads),
		D1RMisses:    subOptional(r.D1RMisses, other.D1RMisses),
		LLdRMisses:   subOptional(r.LLdRMisses, other.LLdRMisses),
		DataWrites:   subOptional(r.DataWrites, other.DataWrites),
		D1WMisses:    subOptional(r.D1WMisses, other.D1WMisses),
		LLdWMisses:   subOptional(r.LLdWMisses, other.LLdWMisses),
	}
}

// NonNegative clamps every present field to a floor of zero. It is used
// after subtracting a calibration record (§4.10): a benchmark that does
// less work than the calibration pass's own overhead would otherwise
// produce a nonsensical negative instruction count.
func (r CounterRecord) NonNegative() CounterRecord {
	return CounterRecord{
		Instructions: clamp(r.Instructions),
		I1Misses:     clampOptional(r.I1Misses),
		LLiMisses:    clampOptional(r.LLiMisses),
		DataReads:    clampOptional(r.DataReads),
		D1RMisses:    clampOptional(r.D1RMisses),
		LLdRMisses:   clampOptional(r.LLdRMisses),
		DataWrites:   clampOptional(r.DataWrites),
		D1WMisses:    clampOptional(r.D1WMisses),
		LLdWMisses:   clampOptional(r.LLdWMisses),
	}
}

func clamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampOptional(v Optional[int64]) Optional[int64] {
	val, ok := v.Get()
	if !ok {
		return None[int64]()
	}
	return Some(clamp(val))
}

func addOptional(a, b Optional[int64]) Optional[int64] {
	av, aok := a.Get()
	bv, bok := b.Get()
	if !aok || !bok {
		return None[int64]()
	}
	return Some(av + bv)
}

func subOptional(a, b Optional[int64]) Optional[int64] {
	av, aok := a.Get()
	bv, bok := b.Get()
	if !aok || !bok {
		return None[int64]()
	}
	return Some(av - bv)
}
