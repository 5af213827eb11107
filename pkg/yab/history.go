// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package yab

import (
	"os"
	"path/filepath"
	"time"

	"github.com/onosproject/yab/internal/logging"
	"github.com/onosproject/yab/pkg/history"
	"github.com/onosproject/yab/pkg/reporter"
)

// wrapWithHistory decorates w so every RunStarted/UnitMeasured record is
// also appended to <targetDir>/yab/history.sqlite (§3c). History is
// purely additive: if the store fails to open, w is returned unchanged
// and the run proceeds without it; nothing on the report path depends
// on history succeeding.
func wrapWithHistory(w reporter.Writer, targetDir, baselineName string) reporter.Writer {
	path := filepath.Join(targetDir, "yab", "history.sqlite")
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	store, err := history.Open(path)
	if err != nil {
		logging.Get().Warn("history: opening store failed, continuing without run history", "error", err)
		return w
	}
	return &historyWriter{Writer: w, store: store, baselineName: baselineName}
}

type historyWriter struct {
	reporter.Writer
	store        *history.Store
	baselineName string
	run          history.Run
	started      bool
}

func (w *historyWriter) WriteRecord(r reporter.Record) error {
	switch rec := r.(type) {
	case reporter.RunStartedRecord:
		run, err := w.store.StartRun(w.baselineName, time.Now())
		if err != nil {
			logging.Get().Warn("history: starting run failed", "error", err)
		} else {
			w.run = run
			w.started = true
		}
	case reporter.UnitMeasuredRecord:
		if w.started {
			class := ""
			if rec.HasDiff {
				class = string(rec.Classification)
			}
			if err := w.store.RecordMeasurement(w.run, rec.Unit, rec.Record.Instructions, class, time.Now()); err != nil {
				logging.Get().Warn("history: recording measurement failed", "error", err)
			}
		}
	}
	return w.Writer.WriteRecord(r)
}

// Flush closes the history database after forwarding to the wrapped
// writer's own Flush, if it has one.
func (w *historyWriter) Flush() error {
	defer func() { _ = w.store.Close() }()
	if flusher, ok := w.Writer.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}
