// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package benchid defines the identifiers used to name a benchmark and the
// captures declared within it.
package benchid

import (
	"strings"

	"github.com/pkg/errors"
)

// ID uniquely names one measurement unit within a binary: either a bare
// name, or a name plus a parametric argument rendered as "name/arg".
type ID struct {
	name string
	arg  string
}

// New creates a bare ID from name. name must be non-empty and must not
// contain "/".
func New(name string) (ID, error) {
	return newID(name, "")
}

// NewParametric creates a parametric ID rendered as "name/arg".
func NewParametric(name, arg string) (ID, error) {
	if arg == "" {
		return newID(name, "")
	}
	return newID(name, arg)
}

func newID(name, arg string) (ID, error) {
	if name == "" {
		return ID{}, errors.New("benchmark id name must not be empty")
	}
	if strings.Contains(name, "/") {
		return ID{}, errors.Errorf("benchmark id name %q must not contain '/'", name)
	}
	return ID{name: name, arg: arg}, nil
}

// Name returns the bare name component, excluding any parametric argument.
func (id ID) Name() string {
	return id.name
}

// Arg returns the parametric argument, or "" if id is not parametric.
func (id ID) Arg() string {
	return id.arg
}

// String renders the id as "name" or "name/arg".
func (id ID) String() string {
	if id.arg == "" {
		return id.name
	}
	return id.name + "/" + id.arg
}

// Parse parses a previously rendered ID string back into its components.
// The first "/" (if any) separates name from arg.
func Parse(s string) (ID, error) {
	if s == "" {
		return ID{}, errors.New("benchmark id must not be empty")
	}
	name, arg, _ := strings.Cut(s, "/")
	return newID(name, arg)
}

// CaptureID optionally scopes a sub-measurement within a benchmark. The
// zero value is the default (implicit, unnamed) capture.
type CaptureID struct {
	name string
}

// DefaultCapture is the implicit capture recorded for a benchmark's full
// measured region when the user declares no named captures.
var DefaultCapture = CaptureID{}

// NewCapture creates a named CaptureID. name must be non-empty.
func NewCapture(name string) (CaptureID, error) {
	if name == "" {
		return CaptureID{}, errors.New("capture id must not be empty")
	}
	return CaptureID{name: name}, nil
}

// IsDefault reports whether c is the implicit default capture.
func (c CaptureID) IsDefault() bool {
	return c.name == ""
}

// String renders the capture id, or "" for the default capture.
func (c CaptureID) String() string {
	return c.name
}
