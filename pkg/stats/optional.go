// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package stats

// Optional holds a value that may be absent, used for counters that
// cachegrind does not report when cache simulation is disabled. The zero
// value is absent.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the wrapped value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsSome reports whether the value is present.
func (o Optional[T]) IsSome() bool {
	return o.ok
}

// MustGet returns the wrapped value, panicking if absent. Callers should
// check IsSome first; this exists for call sites that already did.
func (o Optional[T]) MustGet() T {
	if !o.ok {
		panic("stats: MustGet called on an absent Optional")
	}
	return o.value
}
