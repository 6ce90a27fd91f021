// Package logtail reads an append-only log file incrementally across
// invocations, resuming from a persisted byte offset.
package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Watermark identifies a log file and the byte offset at which the next
// read should resume. The zero value means "never read anything".
type Watermark struct {
	Dev   uint64 `json:"dev"`
	Inode uint64 `json:"inode"`
	Pos   int64  `json:"pos"`
}

// Scanner yields the lines appended since a watermark, one at a time.
// It is a single-pass reader; restartability comes from persisting the
// watermark it reports, not from the scanner itself.
type Scanner struct {
	f    *os.File
	r    *bufio.Reader
	dev  uint64
	ino  uint64
	pos  int64
	text string
	err  error
	done bool
}

// Tail opens the log at path positioned after the lines already covered by
// wm. If the stored identity matches the file on disk and the offset is
// still valid, reading resumes there; if the file was rotated, replaced, or
// truncated, reading restarts from offset 0. A missing file is not an
// error: Tail returns (nil, nil) and the caller keeps its old watermark.
func Tail(path string, wm Watermark) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening log %s: %w", path, err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		f.Close()
		return nil, fmt.Errorf("stat log %s: %w", path, err)
	}

	s := &Scanner{
		f:   f,
		dev: uint64(st.Dev),
		ino: st.Ino,
	}
	if wm.Dev == s.dev && wm.Inode == s.ino && wm.Pos >= 0 && wm.Pos <= st.Size {
		if _, err := f.Seek(wm.Pos, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("seeking log %s: %w", path, err)
		}
		s.pos = wm.Pos
	}
	s.r = bufio.NewReader(f)
	return s, nil
}

// Scan advances to the next line, returning false at end of input.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	line, err := s.r.ReadString('\n')
	if err != nil {
		s.done = true
		if err != io.EOF {
			s.err = err
		}
		if line == "" {
			return false
		}
	}
	s.pos += int64(len(line))
	s.text = strings.TrimRight(line, "\r\n")
	return true
}

// Text returns the current line without its trailing newline. The bytes are
// passed through as-is; invalid encodings never fail the scan.
func (s *Scanner) Text() string {
	return s.text
}

// Err reports any read error other than io.EOF.
func (s *Scanner) Err() error {
	return s.err
}

// Watermark returns the file identity and the offset just past the last
// scanned line. Persist it to resume from here on the next invocation.
func (s *Scanner) Watermark() Watermark {
	return Watermark{Dev: s.dev, Inode: s.ino, Pos: s.pos}
}

// Close releases the underlying file.
func (s *Scanner) Close() error {
	return s.f.Close()
}
