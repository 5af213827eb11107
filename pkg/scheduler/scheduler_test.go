// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onosproject/yab/pkg/baseline"
	"github.com/onosproject/yab/pkg/benchid"
	"github.com/onosproject/yab/pkg/cachegrind"
	"github.com/onosproject/yab/pkg/reporter"
)

// fakeCachegrind stands in for valgrind: it writes a cachegrind summary
// whose instruction count is derived from the YAB_BENCH id, so different
// units produce different, deterministic counts.
func fakeCachegrind(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cachegrind script is a POSIX shell script")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-cachegrind.sh")
	script := `#!/bin/sh
if [ "$YAB_BENCH" = "bad" ]; then
  exit 1
fi
out=""
for a in "$@"; do
  case "$a" in
    --cachegrind-out-file=*) out="${a#--cachegrind-out-file=}" ;;
  esac
done
len=$(echo -n "$YAB_BENCH$YAB_CAPTURE" | wc -c)
printf 'events: Ir\nsummary: %d00\n' "$len" > "$out"
exit 0
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newTestScheduler(t *testing.T, cfg Config) *Scheduler {
	t.Helper()
	if cfg.Invoker == nil {
		cfg.Invoker = cachegrind.New(fakeCachegrind(t), "/bin/bench")
	}
	if cfg.Store == nil {
		cfg.Store = baseline.New(t.TempDir())
	}
	return New(cfg)
}

func unit(t *testing.T, name string) Unit {
	t.Helper()
	id, err := benchid.New(name)
	require.NoError(t, err)
	return Unit{ID: id}
}

func TestRunReportsAllUnitsMeasured(t *testing.T) {
	s := newTestScheduler(t, Config{Jobs: 2})
	var buf bytes.Buffer
	summary, err := s.Run(context.Background(), []Unit{unit(t, "a"), unit(t, "bb"), unit(t, "ccc")}, reporter.NewJSONWriter(&buf))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Measured)
	assert.Equal(t, 0, summary.Failed)
}

func TestRunReportsInRegistrationOrderNotCompletionOrder(t *testing.T) {
	s := newTestScheduler(t, Config{Jobs: 4})
	units := []Unit{unit(t, "zzzzzzzzzz"), unit(t, "a"), unit(t, "mm")}

	var order []string
	rec := recordingWriter{record: func(r reporter.Record) {
		if m, ok := r.(reporter.UnitMeasuredRecord); ok {
			order = append(order, m.Unit)
		}
	}}
	_, err := s.Run(context.Background(), units, rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"zzzzzzzzzz", "a", "mm"}, order)
}

func TestRunAlwaysAdvancesRollingBaseline(t *testing.T) {
	store := baseline.New(t.TempDir())
	s := newTestScheduler(t, Config{Jobs: 1, Store: store})
	var buf bytes.Buffer
	_, err := s.Run(context.Background(), []Unit{unit(t, "a")}, reporter.NewJSONWriter(&buf))
	require.NoError(t, err)

	record, err := store.Load(baseline.DefaultName, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(100), record.Instructions)
}

func TestRunSaveBaselineNameFreezesIndependentBaseline(t *testing.T) {
	store := baseline.New(t.TempDir())
	s := newTestScheduler(t, Config{Jobs: 1, Store: store, SaveBaselineName: "release"})
	var buf bytes.Buffer
	_, err := s.Run(context.Background(), []Unit{unit(t, "a")}, reporter.NewJSONWriter(&buf))
	require.NoError(t, err)

	rolling, err := store.Load(baseline.DefaultName, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(100), rolling.Instructions)

	frozen, err := store.Load("release", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(100), frozen.Instructions)
}

func TestRunBaselineFlagComparesButDoesNotOverwrite(t *testing.T) {
	store := baseline.New(t.TempDir())
	tmp, err := store.TempPath("a", "", 0)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tmp, []byte("events: Ir\nsummary: 1\n"), 0o644))
	require.NoError(t, store.Save("main", "a", tmp))

	s := newTestScheduler(t, Config{Jobs: 1, Store: store, BaselineName: "main"})
	var buf bytes.Buffer
	summary, err := s.Run(context.Background(), []Unit{unit(t, "a")}, reporter.NewJSONWriter(&buf))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Regressions)

	main, err := store.Load("main", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), main.Instructions, "--baseline must only be compared against, never overwritten")

	rolling, err := store.Load(baseline.DefaultName, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(100), rolling.Instructions, "the rolling base baseline advances regardless of --baseline")
}

func TestRunDeniesRegressions(t *testing.T) {
	store := baseline.New(t.TempDir())
	// Seed a baseline lower than the fake cachegrind's deterministic
	// output, forcing a regression classification.
	tmp, err := store.TempPath("a", "", 0)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tmp, []byte("events: Ir\nsummary: 1\n"), 0o644))
	require.NoError(t, store.Save(baseline.DefaultName, "a", tmp))

	s := newTestScheduler(t, Config{Jobs: 1, Store: store, DenyRegressions: true})
	var buf bytes.Buffer
	summary, err := s.Run(context.Background(), []Unit{unit(t, "a")}, reporter.NewJSONWriter(&buf))
	assert.ErrorIs(t, err, ErrRegressionsDenied)
	assert.Equal(t, 1, summary.Regressions)
}

func TestRunIsolatesPerUnitFailure(t *testing.T) {
	s := newTestScheduler(t, Config{Jobs: 2})
	units := []Unit{unit(t, "ok"), unit(t, "bad")}

	var buf bytes.Buffer
	summary, err := s.Run(context.Background(), units, reporter.NewJSONWriter(&buf))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Measured)
	assert.Equal(t, 1, summary.Failed)
}

type recordingWriter struct {
	record func(reporter.Record)
}

func (r recordingWriter) Write(p []byte) (int, error) { return len(p), nil }
func (r recordingWriter) WriteRecord(record reporter.Record) error {
	r.record(record)
	return nil
}
