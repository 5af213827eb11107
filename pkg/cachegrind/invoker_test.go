// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package cachegrind

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgsBitExact(t *testing.T) {
	inv := New("valgrind", "/bin/bench")
	inv.InstrumentationMacros = true
	args := inv.buildArgs(Request{ID: "fib", OutputPath: "/tmp/out"})
	assert.Equal(t, []string{
		"--tool=cachegrind",
		"--cachegrind-out-file=/tmp/out",
		"--instr-at-start=no",
		"--cache-sim=yes",
		"/bin/bench",
	}, args)
}

func TestBuildArgsWithoutInstrumentationMacros(t *testing.T) {
	inv := New("valgrind", "/bin/bench")
	args := inv.buildArgs(Request{ID: "fib", OutputPath: "/tmp/out"})
	assert.NotContains(t, args, "--instr-at-start=no")
}

func TestBuildEnvIncludesBenchAndCapture(t *testing.T) {
	inv := New("valgrind", "/bin/bench")
	env := inv.buildEnv(Request{ID: "fib", Capture: "core"})
	assert.Contains(t, env, "YAB_BENCH=fib")
	assert.Contains(t, env, "YAB_CAPTURE=core")
}

func TestBuildEnvOmitsCaptureWhenUnset(t *testing.T) {
	inv := New("valgrind", "/bin/bench")
	env := inv.buildEnv(Request{ID: "fib"})
	for _, e := range env {
		assert.NotContains(t, e, "YAB_CAPTURE=")
	}
}

func TestBuildEnvIncludesWarmUpWhenSet(t *testing.T) {
	inv := New("valgrind", "/bin/bench")
	env := inv.buildEnv(Request{ID: "fib", WarmUpInstructions: 5000})
	assert.Contains(t, env, "YAB_WARMUP_INSTRUCTIONS=5000")
}

func TestBuildEnvOmitsWarmUpWhenZero(t *testing.T) {
	inv := New("valgrind", "/bin/bench")
	env := inv.buildEnv(Request{ID: "fib"})
	for _, e := range env {
		assert.NotContains(t, e, "YAB_WARMUP_INSTRUCTIONS=")
	}
}

func TestBuildEnvCalibrateOmitsBenchAndCapture(t *testing.T) {
	inv := New("valgrind", "/bin/bench")
	env := inv.buildEnv(Request{Calibrate: true})
	assert.Contains(t, env, "YAB_CALIBRATE=1")
	for _, e := range env {
		assert.NotContains(t, e, "YAB_BENCH=")
		assert.NotContains(t, e, "YAB_CAPTURE=")
	}
}

// fakeCachegrind is a stand-in "valgrind" that, instead of running an
// actual instrumented child, writes a canned cachegrind summary to the
// --cachegrind-out-file path it was given. This lets Run's exit-status,
// missing-output, and parse-failure branches be exercised without
// depending on a real valgrind install.
func fakeCachegrind(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cachegrind script is a POSIX shell script")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-cachegrind.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func TestRunParsesSuccessfulOutput(t *testing.T) {
	script := fakeCachegrind(t, `#!/bin/sh
out=""
for a in "$@"; do
  case "$a" in
    --cachegrind-out-file=*) out="${a#--cachegrind-out-file=}" ;;
  esac
done
printf 'events: Ir\nsummary: 100\n' > "$out"
exit 0
`)
	inv := New(script, "/bin/bench")
	outPath := filepath.Join(t.TempDir(), "cachegrind.out")
	record, err := inv.Run(context.Background(), Request{ID: "fib", OutputPath: outPath})
	require.NoError(t, err)
	assert.Equal(t, int64(100), record.Instructions)
}

func TestRunFailsOnNonzeroExit(t *testing.T) {
	script := fakeCachegrind(t, "#!/bin/sh\nexit 1\n")
	inv := New(script, "/bin/bench")
	outPath := filepath.Join(t.TempDir(), "cachegrind.out")
	_, err := inv.Run(context.Background(), Request{ID: "fib", OutputPath: outPath})
	assert.ErrorIs(t, err, ErrCachegrindFailed)
}

func TestRunFailsOnMissingOutput(t *testing.T) {
	script := fakeCachegrind(t, "#!/bin/sh\nexit 0\n")
	inv := New(script, "/bin/bench")
	outPath := filepath.Join(t.TempDir(), "cachegrind.out")
	_, err := inv.Run(context.Background(), Request{ID: "fib", OutputPath: outPath})
	assert.ErrorIs(t, err, ErrMissingOutput)
}

func TestRunFailsOnCorruptOutput(t *testing.T) {
	script := fakeCachegrind(t, `#!/bin/sh
out=""
for a in "$@"; do
  case "$a" in
    --cachegrind-out-file=*) out="${a#--cachegrind-out-file=}" ;;
  esac
done
printf 'not a cachegrind file' > "$out"
exit 0
`)
	inv := New(script, "/bin/bench")
	outPath := filepath.Join(t.TempDir(), "cachegrind.out")
	_, err := inv.Run(context.Background(), Request{ID: "fib", OutputPath: outPath})
	assert.ErrorIs(t, err, ErrCorruptOutput)
}
