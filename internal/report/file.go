package report

import (
	"bufio"
	"fmt"
	"os"
)

// fileSink is the buffered file shared by the text and table sinks.
// Write errors stick in the bufio.Writer and surface on the next flush.
type fileSink struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

func createFile(path string) (*fileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return newFileSink(path, f), nil
}

func newFileSink(path string, f *os.File) *fileSink {
	return &fileSink{path: path, f: f, w: bufio.NewWriter(f)}
}

// Path returns the file path.
func (s *fileSink) Path() string {
	return s.path
}

func (s *fileSink) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.w, format, args...)
}

func (s *fileSink) flush() error {
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

// Close flushes and closes the file. Calling it again is a no-op.
func (s *fileSink) Close() error {
	if s.f == nil {
		return nil
	}
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	s.f = nil
	if flushErr != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, flushErr)
	}
	return closeErr
}
