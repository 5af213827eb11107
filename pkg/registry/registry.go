// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package registry collects benchmark and capture ids as a user's
// benchmark function declares them, enforcing uniqueness and
// insertion-order enumeration.
package registry

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/onosproject/yab/pkg/benchid"
)

// ErrDuplicateID is returned by Register when id was already registered.
var ErrDuplicateID = errors.New("registry: duplicate benchmark id")

// ErrDuplicateCapture is returned by RegisterCapture when cap was already
// registered under id.
var ErrDuplicateCapture = errors.New("registry: duplicate capture id")

// Registry collects benchmark ids in declaration order. Create one with
// New: the zero value has nil maps, and registering into it panics.
type Registry struct {
	mu        sync.Mutex
	order     []benchid.ID
	seen      map[string]bool
	captures  map[string][]benchid.CaptureID
	captureOk map[string]map[string]bool
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		seen:      make(map[string]bool),
		captures:  make(map[string][]benchid.CaptureID),
		captureOk: make(map[string]map[string]bool),
	}
}

// Register adds id to the registry. Returns ErrDuplicateID if id was
// already registered.
func (r *Registry) Register(id benchid.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := id.String()
	if r.seen[key] {
		return errors.Wrapf(ErrDuplicateID, "%s", key)
	}
	r.seen[key] = true
	r.order = append(r.order, id)
	r.captureOk[key] = make(map[string]bool)
	return nil
}

// RegisterCapture declares cap as a capture of id. id need not already be
// registered via Register (a benchmark may declare its captures before its
// id is recorded by the surrounding Bencher call), but cap must be unique
// within id.
func (r *Registry) RegisterCapture(id benchid.ID, cap benchid.CaptureID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := id.String()
	if r.captureOk[key] == nil {
		r.captureOk[key] = make(map[string]bool)
	}
	capKey := cap.String()
	if r.captureOk[key][capKey] {
		return errors.Wrapf(ErrDuplicateCapture, "%s in %s", capKey, key)
	}
	r.captureOk[key][capKey] = true
	r.captures[key] = append(r.captures[key], cap)
	return nil
}

// IDs returns every registered benchmark id, in the order Register was
// called.
func (r *Registry) IDs() []benchid.ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]benchid.ID, len(r.order))
	copy(out, r.order)
	return out
}

// Captures returns the captures declared for id, in declaration order.
func (r *Registry) Captures(id benchid.ID) []benchid.CaptureID {
	r.mu.Lock()
	defer r.mu.Unlock()

	caps := r.captures[id.String()]
	out := make([]benchid.CaptureID, len(caps))
	copy(out, caps)
	return out
}
