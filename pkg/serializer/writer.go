/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package serializer

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rundeck-plugins/proxmox-node-source/pkg/errors"
	"github.com/rundeck-plugins/proxmox-node-source/pkg/inventory"
)

// Writer serializes an inventory document to the configured destination in
// the configured format. It implements the Serializer interface.
type Writer struct {
	format Format
	output io.Writer
	closer io.Closer
}

// NewWriter creates a new Writer with the specified format and output
// destination. If output is nil, os.Stdout will be used.
func NewWriter(format Format, output io.Writer) *Writer {
	if output == nil {
		output = os.Stdout
	}
	return &Writer{
		format: format,
		output: output,
	}
}

// NewStdoutWriter creates a new Writer that outputs to stdout in the
// specified format.
func NewStdoutWriter(format Format) *Writer {
	return &Writer{
		format: format,
		output: os.Stdout,
	}
}

// NewFileWriterOrStdout creates a new Writer that outputs to the specified
// file path in the given format. An empty path, or a path that cannot be
// created, falls back to stdout.
func NewFileWriterOrStdout(format Format, path string) *Writer {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return NewStdoutWriter(format)
	}

	file, err := os.Create(trimmed)
	if err != nil {
		slog.Error("failed to create output file", "error", err, "path", trimmed)
		return NewStdoutWriter(format)
	}

	return &Writer{
		format: format,
		output: file,
		closer: file,
	}
}

// Serialize writes the complete inventory document in the configured
// format. The document is written in one pass; on error the destination
// may hold a partial document and should be discarded.
func (w *Writer) Serialize(inv *inventory.Inventory) error {
	if inv == nil {
		return errors.New(errors.ErrCodeSerializationFailed, "nil inventory")
	}

	switch w.format {
	case FormatYAML:
		return encodeYAML(w.output, inv)
	case FormatJSON:
		return encodeJSON(w.output, inv)
	case FormatXML:
		return encodeXML(w.output, inv)
	default:
		return errors.Newf(errors.ErrCodeSerializationFailed, "unsupported format: %s", w.format)
	}
}

// Close releases the underlying file, if any. Writers over stdout or an
// injected io.Writer close to a no-op.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
