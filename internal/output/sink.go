// Package output provides the destinations a conversion run writes to.
//
// A Sink receives the complete output stream and then either commits it or
// aborts it. Nothing is visible at the destination path until Commit succeeds.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrExists is returned when the destination already exists and overwriting
// was not requested.
var ErrExists = errors.New("output: destination already exists")

// ErrClosed is returned by writes after Commit or Abort.
var ErrClosed = errors.New("output: sink already closed")

// Sink is a write-once destination for one conversion run.
type Sink interface {
	io.Writer
	// Commit makes the written bytes durable at the destination.
	Commit() error
	// Abort discards everything written. It is safe to call after Commit.
	Abort() error
}

// Open returns a Discard sink for dry runs and a FileSink otherwise. Both
// refuse an existing destination unless force is set, so a dry run fails
// where the real run would. A dry run may leave path empty.
func Open(path string, dryRun, force bool) (Sink, error) {
	if dryRun {
		if path != "" {
			if err := preflight(path, force); err != nil {
				return nil, err
			}
		}
		return Discard(), nil
	}
	return NewFileSink(path, force)
}

// preflight refuses an existing destination unless force is set.
func preflight(path string, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("output: stat %s: %w", path, err)
	}
	return nil
}

// FileSink stages output in a temporary file next to the destination and
// moves it into place on Commit.
type FileSink struct {
	path  string
	force bool
	tmp   *os.File
	done  bool
}

// NewFileSink creates the staging file for path. Without force an existing
// destination is refused before anything is written.
func NewFileSink(path string, force bool) (*FileSink, error) {
	if err := preflight(path, force); err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("output: create staging file: %w", err)
	}
	return &FileSink{path: path, force: force, tmp: tmp}, nil
}

// Path returns the destination path.
func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Write(p []byte) (int, error) {
	if s.done {
		return 0, ErrClosed
	}
	return s.tmp.Write(p)
}

// Commit flushes the staging file to disk and moves it to the destination.
// Without force the move fails if the destination appeared in the meantime.
func (s *FileSink) Commit() error {
	if s.done {
		return ErrClosed
	}
	s.done = true
	tmpPath := s.tmp.Name()

	if err := s.tmp.Sync(); err != nil {
		s.tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("output: sync: %w", err)
	}
	if err := s.tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("output: close: %w", err)
	}

	if s.force {
		if err := os.Rename(tmpPath, s.path); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("output: save %s: %w", s.path, err)
		}
		return nil
	}

	// A hard link fails instead of replacing an existing destination.
	err := link(tmpPath, s.path)
	if errors.Is(err, errors.ErrUnsupported) || errors.Is(err, os.ErrPermission) {
		// No hard links on this filesystem.
		err = copyExclusive(tmpPath, s.path)
	}
	os.Remove(tmpPath)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrExist):
		return fmt.Errorf("%w: %s", ErrExists, s.path)
	default:
		return fmt.Errorf("output: save %s: %w", s.path, err)
	}
}

var link = os.Link

// copyExclusive copies src to a newly created dst. It fails with
// os.ErrExist if dst already exists and removes a partial dst on error.
func copyExclusive(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(dst)
		}
	}()
	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	return out.Close()
}

// Abort removes the staging file. The destination is never touched.
func (s *FileSink) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	s.tmp.Close()
	if err := os.Remove(s.tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("output: remove staging file: %w", err)
	}
	return nil
}

// DiscardSink counts bytes and persists nothing.
type DiscardSink struct {
	n int64
}

// Discard returns a sink for dry runs.
func Discard() *DiscardSink { return &DiscardSink{} }

func (s *DiscardSink) Write(p []byte) (int, error) {
	s.n += int64(len(p))
	return len(p), nil
}

// Len returns the number of bytes written so far.
func (s *DiscardSink) Len() int64 { return s.n }

func (s *DiscardSink) Commit() error { return nil }
func (s *DiscardSink) Abort() error  { return nil }
