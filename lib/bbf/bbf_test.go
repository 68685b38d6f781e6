// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package bbf

import (
	"fmt"
	"io"
)

// memFile is an in-memory io.ReadWriteSeeker standing in for a file,
// so writer and reader tests need no disk.
type memFile struct {
	buf []byte
	off int64
}

func (f *memFile) Write(p []byte) (int, error) {
	end := f.off + int64(len(p))
	if end > int64(len(f.buf)) {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[f.off:end], p)
	f.off = end
	return len(p), nil
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.off >= int64(len(f.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[f.off:])
	f.off += int64(n)
	return n, nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.off = offset
	case io.SeekCurrent:
		f.off += offset
	case io.SeekEnd:
		f.off = int64(len(f.buf)) + offset
	}
	if f.off < 0 {
		return 0, fmt.Errorf("negative position")
	}
	return f.off, nil
}

func (f *memFile) Bytes() []byte { return f.buf }

// brokenSink fails every write after the first failAfter calls,
// for poisoning tests.
type brokenSink struct {
	memFile
	failAfter int
	writes    int
}

func (s *brokenSink) Write(p []byte) (int, error) {
	s.writes++
	if s.writes > s.failAfter {
		return 0, fmt.Errorf("sink exploded")
	}
	return s.memFile.Write(p)
}
