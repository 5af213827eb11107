// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package logging provides the harness's structured logger and its
// colored per-unit step reporter.
package logging

import (
	"os"
	"sync"

	"github.com/zerodha/logf"
)

var (
	once   sync.Once
	global logf.Logger
)

// Opts mirrors the subset of --verbose/--quiet (§6) the logger cares
// about.
type Opts struct {
	Verbose bool
	Quiet   bool
}

// Init configures the process-wide logger. It is a no-op after the first
// call; later calls only affect the Step helpers that read GetVerbose.
func Init(opts Opts) *logf.Logger {
	once.Do(func() {
		level := logf.InfoLevel
		if opts.Verbose {
			level = logf.DebugLevel
		}
		if opts.Quiet {
			level = logf.WarnLevel
		}
		global = logf.New(logf.Opts{
			Level:           level,
			EnableCaller:    opts.Verbose,
			EnableColor:     true,
			TimestampFormat: "15:04:05",
		})
	})
	setVerbose(opts.Verbose)
	return &global
}

// Get returns the process-wide logger, initializing it with defaults if
// Init was never called (e.g. in tests).
func Get() *logf.Logger {
	once.Do(func() {
		global = logf.New(logf.Opts{Level: logf.InfoLevel, EnableColor: true})
	})
	return &global
}

const verboseEnv = "YAB_VERBOSE_LOGGING"

// GetVerbose reports whether Step output should include its progress
// (Log/Logf) lines, mirroring the teacher's environment-variable flag
// for passing verbosity across a self-re-invocation boundary.
func GetVerbose() bool {
	return os.Getenv(verboseEnv) != ""
}

func setVerbose(verbose bool) {
	if verbose {
		_ = os.Setenv(verboseEnv, "true")
	} else {
		_ = os.Unsetenv(verboseEnv)
	}
}
