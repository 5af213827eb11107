// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package baseline persists cachegrind CounterRecords on disk, keyed by
// benchmark id and baseline name, with atomic promote-on-success semantics
// so a process interrupted mid-write never leaves a corrupt baseline.
package baseline

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/onosproject/yab/pkg/stats"
)

// DefaultName is the baseline used when the user does not pass
// --save-baseline/--baseline.
const DefaultName = "base"

const (
	outFile    = "cachegrind.out"
	oldFile    = "cachegrind.old.out"
	metaFile   = "meta.yaml"
	lockFile   = ".lock"
	yabDir     = "yab"
	tmpDir     = "tmp"
	lockWait   = time.Second
	lockExpiry = 30 * time.Second
)

// Meta is the sidecar written next to every promoted cachegrind.out,
// recording when the baseline was last saved. It is metadata only;
// nothing in §4.6/§4.9's diff path reads it back, so a missing or
// unreadable meta.yaml never fails Load.
type Meta struct {
	SavedAt time.Time `yaml:"saved_at"`
}

// ErrMissing is returned by Load when no baseline exists for an id.
var ErrMissing = errors.New("baseline: no stored record")

// Store is a directory tree rooted at target, laid out as
// <target>/yab/<baseline>/<safe(id)>/cachegrind[.old].out and
// <target>/yab/tmp/ for in-flight writes.
type Store struct {
	target string
}

// New creates a Store rooted at target (typically CARGO_TARGET_DIR or its
// Go-world equivalent, the module's build output directory).
func New(target string) *Store {
	return &Store{target: target}
}

// SafeID percent-encodes an id string so it is safe to use as a single
// path segment, escaping "/" along with every other filesystem-unsafe
// byte url.PathEscape already handles.
func SafeID(id string) string {
	return url.PathEscape(id)
}

func (s *Store) baselineDir(baselineName string) string {
	return filepath.Join(s.target, yabDir, baselineName)
}

func (s *Store) unitDir(baselineName, id string) string {
	return filepath.Join(s.baselineDir(baselineName), SafeID(id))
}

func (s *Store) tmpDir() string {
	return filepath.Join(s.target, yabDir, tmpDir)
}

// TempPath returns a unique path under <target>/yab/tmp/ for a cachegrind
// child to write its raw output to before it is promoted into place. attempt
// distinguishes retries of the same (id, capture) pair within one run.
func (s *Store) TempPath(id string, capture string, attempt int) (string, error) {
	if err := os.MkdirAll(s.tmpDir(), 0o755); err != nil {
		return "", errors.Wrap(err, "creating baseline tmp dir")
	}
	name := SafeID(id)
	if capture != "" {
		name += "." + SafeID(capture)
	}
	return filepath.Join(s.tmpDir(), name+"."+strconv.Itoa(attempt)+".out"), nil
}

// Load returns the stored CounterRecord for id under baselineName, or
// ErrMissing if none exists.
func (s *Store) Load(baselineName, id string) (stats.CounterRecord, error) {
	path := filepath.Join(s.unitDir(baselineName, id), outFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return stats.CounterRecord{}, ErrMissing
		}
		return stats.CounterRecord{}, errors.Wrapf(err, "statting baseline file %s", path)
	}
	return stats.ParseFile(path)
}

// Save atomically promotes tempPath (a file already written by the
// cachegrind invoker) into the baseline as the current record for id under
// baselineName. Any previous cachegrind.out is moved to cachegrind.old.out
// first, so a subsequent --print can diff without re-running. Save never
// parses tempPath itself: the caller is expected to have already parsed
// and validated it (§4.4 step 3) before committing to the rename. Save
// consumes tempPath; it does not exist at this path afterward.
func (s *Store) Save(baselineName, id, tempPath string) error {
	return s.promote(baselineName, id, func(finalPath string) error {
		if err := os.Rename(tempPath, finalPath); err != nil {
			return errors.Wrapf(err, "promoting %s into baseline", tempPath)
		}
		return nil
	})
}

// SaveAdditional promotes a copy of tempPath into baselineName without
// consuming tempPath, so one invocation's output can be frozen into more
// than one named baseline in the same run — the always-advancing rolling
// DefaultName baseline plus an explicit --save-baseline NAME (§4.7). The
// caller remains responsible for discarding tempPath once it has promoted
// (or copied) it everywhere it needs to go.
func (s *Store) SaveAdditional(baselineName, id, tempPath string) error {
	return s.promote(baselineName, id, func(finalPath string) error {
		data, err := os.ReadFile(tempPath)
		if err != nil {
			return errors.Wrapf(err, "reading %s", tempPath)
		}
		if err := os.WriteFile(finalPath, data, 0o644); err != nil {
			return errors.Wrapf(err, "promoting copy of %s into baseline", tempPath)
		}
		return nil
	})
}

// promote archives any existing cachegrind.out to cachegrind.old.out under
// a baseline/id directory, then calls write to populate the new
// cachegrind.out, under an advisory lock shared by Save and SaveAdditional.
func (s *Store) promote(baselineName, id string, write func(finalPath string) error) error {
	dir := s.unitDir(baselineName, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating baseline dir %s", dir)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := tryLock(lock)
	if err != nil {
		return errors.Wrapf(err, "locking baseline dir %s", dir)
	}
	if locked {
		defer lock.Unlock()
	}

	finalPath := filepath.Join(dir, outFile)
	if _, err := os.Stat(finalPath); err == nil {
		if err := os.Rename(finalPath, filepath.Join(dir, oldFile)); err != nil {
			return errors.Wrapf(err, "archiving previous baseline %s", finalPath)
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "statting baseline file %s", finalPath)
	}

	if err := write(finalPath); err != nil {
		return err
	}
	writeMeta(filepath.Join(dir, metaFile), Meta{SavedAt: time.Now()})
	return nil
}

// writeMeta best-effort writes the meta.yaml sidecar. A failure here
// never fails Save: the sidecar is informational, not part of the
// baseline's durability contract.
func writeMeta(path string, meta Meta) {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o644)
}

// Discard removes tempPath without promoting it, used to roll back an
// in-flight unit on cancellation (§4.8) so no partial state survives.
func (s *Store) Discard(tempPath string) error {
	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "discarding temp file %s", tempPath)
	}
	return nil
}

// RecoverInterrupted scans <target>/yab/tmp/ for stray temp files left by a
// process that was killed mid-write and unlinks them, per §4.7's
// interrupt_recovery operation.
func (s *Store) RecoverInterrupted() (int, error) {
	entries, err := os.ReadDir(s.tmpDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "scanning baseline tmp dir")
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.tmpDir(), entry.Name())
		if err := os.Remove(path); err != nil {
			return removed, errors.Wrapf(err, "removing stray temp file %s", path)
		}
		removed++
	}
	return removed, nil
}

// OldOutputPath returns the path --print reads to show a diff against the
// most recent prior run without re-executing anything.
func (s *Store) OldOutputPath(baselineName, id string) string {
	return filepath.Join(s.unitDir(baselineName, id), oldFile)
}

// CapturePath returns the stored path for a named capture's raw output.
func (s *Store) CapturePath(baselineName, id, capture string) string {
	return filepath.Join(s.unitDir(baselineName, id), "capture."+SafeID(capture)+".out")
}

func tryLock(lock *flock.Flock) (bool, error) {
	deadline := time.Now().Add(lockExpiry)
	for {
		locked, err := lock.TryLock()
		if err != nil {
			return false, err
		}
		if locked {
			return true, nil
		}
		if time.Now().After(deadline) {
			// Proceed unlocked rather than block a CI job forever: the
			// scheduler's single-writer-per-id guarantee is the real
			// safety net (§4.7); the lock only protects against a second
			// concurrently running yab invocation.
			return false, nil
		}
		time.Sleep(lockWait)
	}
}

