// Package jsonl writes line-delimited JSON files.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Encoder streams records, one JSON object per line.
type Encoder struct {
	f   *os.File
	buf *bufio.Writer
	enc *json.Encoder
	n   int
}

// Create truncates (or creates) path, making parent directories as needed.
func Create(path string) (*Encoder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	buf := bufio.NewWriter(f)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Encoder{f: f, buf: buf, enc: enc}, nil
}

// Encode appends one record followed by a newline.
func (e *Encoder) Encode(v any) error {
	if err := e.enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode record %d: %w", e.n, err)
	}
	e.n++
	return nil
}

// Count returns the number of records written so far.
func (e *Encoder) Count() int {
	return e.n
}

func (e *Encoder) Close() error {
	if err := e.buf.Flush(); err != nil {
		e.f.Close()
		return fmt.Errorf("failed to flush %s: %w", e.f.Name(), err)
	}
	return e.f.Close()
}

// Write writes all records to path.
func Write[T any](path string, records []T) error {
	enc, err := Create(path)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			enc.Close()
			return err
		}
	}
	return enc.Close()
}
