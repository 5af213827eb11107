// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// NewJSONWriter returns a Writer that emits one JSON object per Record,
// newline-delimited, suitable for machine consumption of a run.
func NewJSONWriter(w io.Writer) Writer {
	return &jsonWriter{Writer: w}
}

type jsonWriter struct {
	io.Writer
}

func (w *jsonWriter) WriteRecord(record Record) error {
	entry := struct {
		Kind   string `json:"kind"`
		Record Record `json:"record"`
	}{
		Kind:   string(record.Kind()),
		Record: record,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	buf := bytes.NewBuffer(data)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}
