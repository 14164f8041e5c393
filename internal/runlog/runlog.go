// Package runlog writes the append-only debug trail of labeling runs.
//
// Every line has the form
//
//	2025-02-25 14:03:07 - message
//
// The file is a side channel for people reading it; nothing parses it.
package runlog

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileName is the name of the debug log inside the data directory.
const FileName = "debug_log.txt"

// TimeFormat is the timestamp layout of each line.
const TimeFormat = "2006-01-02 15:04:05"

// Writer prefixes every line written to it with a timestamp.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewWriter wraps out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, now: time.Now}
}

// Write splits p into lines and writes each with a timestamp prefix. A
// missing trailing newline is added.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	stamp := w.now().Format(TimeFormat)
	var buf bytes.Buffer
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		buf.WriteString(stamp)
		buf.WriteString(" - ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Open appends to the debug log in dir, creating it when needed, and
// returns a logger writing to it together with the file to close. When
// mirror is non-nil every line is also copied there.
func Open(dir string, mirror io.Writer) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	if mirror != nil {
		return Tee(f, mirror), f, nil
	}
	return New(f), f, nil
}

// New returns a logger whose lines carry the run log timestamp format.
func New(out io.Writer) *log.Logger {
	return log.New(NewWriter(out), "", 0)
}

// Tee returns a logger writing run log lines to out and also to mirror
// through the standard logger's flags, for use when debug output on
// stderr is wanted as well.
func Tee(out io.Writer, mirror io.Writer) *log.Logger {
	return log.New(io.MultiWriter(NewWriter(out), mirrorWriter{mirror}), "", 0)
}

type mirrorWriter struct {
	w io.Writer
}

func (m mirrorWriter) Write(p []byte) (int, error) {
	log.New(m.w, "", log.Ldate|log.Ltime).Print(string(p))
	return len(p), nil
}
