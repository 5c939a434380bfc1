package sink

import (
	"context"
	"io"
	"sync"

	domainerror "http-sniffer/domain/error"
	"http-sniffer/domain/port"
	"http-sniffer/infrastructure/config"
	"http-sniffer/infrastructure/logging"
)

// File appends plain trace blocks to a size-rotated file.
type File struct {
	mu     sync.Mutex
	w      io.WriteCloser
	closed bool
}

// NewFile opens a rotating file at path using the logging rotation settings.
func NewFile(path string, rotation config.Logging) *File {
	return newFileWriter(logging.NewRotatingWriter(path, rotation))
}

func newFileWriter(w io.WriteCloser) *File {
	return &File{w: w}
}

// Emit writes the trace followed by a blank line.
func (f *File) Emit(_ context.Context, trace port.Trace) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return domainerror.NewSinkError("file", domainerror.NewStopped())
	}
	if _, err := io.WriteString(f.w, trace.Text+"\n\n"); err != nil {
		return domainerror.NewSinkError("file", err)
	}
	return nil
}

// Close closes the underlying file. Further traces fail.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.w.Close()
}
