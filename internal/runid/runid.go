// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package runid names one invocation of the harness the way the
// teacher's test/benchmark/simulation commands name a job: a short,
// human-readable petname, here used as the primary key a run is
// recorded under in the history store (§3c) rather than a Kubernetes
// job suffix.
package runid

import petname "github.com/dustinkirkland/golang-petname"

// New returns a new two-word run identifier, e.g. "curious-falcon".
func New() string {
	return petname.Generate(2, "-")
}
