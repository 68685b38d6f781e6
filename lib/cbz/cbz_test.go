// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package cbz

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/boundbook/boundbook/lib/bbf"
)

// memSink is an in-memory io.WriteSeeker for the BBF writer.
type memSink struct {
	buf []byte
	off int64
}

func (s *memSink) Write(p []byte) (int, error) {
	end := s.off + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.off:end], p)
	s.off = end
	return len(p), nil
}

func (s *memSink) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.off = offset
	case io.SeekCurrent:
		s.off += offset
	case io.SeekEnd:
		s.off = int64(len(s.buf)) + offset
	}
	return s.off, nil
}

// buildArchive zips the given name/content pairs in map iteration
// order, which Go leaves unspecified.
func buildArchive(t *testing.T, files map[string][]byte) *zip.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := f.Write(content); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip reopen: %v", err)
	}
	return zr
}

func testConfig() bbf.Config {
	cfg := bbf.DefaultConfig()
	cfg.Timestamp = 1700000000
	return cfg
}

func TestConvertOrdersByFilename(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"010.png":       []byte("page ten"),
		"002.png":       []byte("page two"),
		"001.png":       []byte("page one"),
		"ComicInfo.xml": []byte("<ComicInfo/>"),
		"notes.txt":     []byte("not a page"),
	})

	sink := &memSink{}
	w, err := bbf.NewWriter(sink, testConfig())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	stats, err := Convert(archive, w, Options{Config: testConfig()})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if stats.Pages != 3 || stats.Assets != 3 || stats.Skipped != 2 {
		t.Errorf("stats = %+v", stats)
	}

	r, err := bbf.Open(bytes.NewReader(sink.buf))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want := [][]byte{[]byte("page one"), []byte("page two"), []byte("page ten")}
	for i, wantBytes := range want {
		got, err := r.PageBytes(i)
		if err != nil {
			t.Fatalf("PageBytes(%d): %v", i, err)
		}
		if !bytes.Equal(got, wantBytes) {
			t.Errorf("page %d = %q, want %q", i, got, wantBytes)
		}
	}
}

func TestConvertDedupe(t *testing.T) {
	same := []byte("identical cover art")
	archive := buildArchive(t, map[string][]byte{
		"001.png": same,
		"002.png": []byte("interior"),
		"003.png": same,
	})

	sink := &memSink{}
	w, err := bbf.NewWriter(sink, testConfig())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	stats, err := Convert(archive, w, Options{Config: testConfig(), Dedupe: true})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if stats.Pages != 3 || stats.Assets != 2 || stats.Deduped != 1 {
		t.Errorf("stats = %+v", stats)
	}

	r, err := bbf.Open(bytes.NewReader(sink.buf))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	firstAsset, err := r.PageAsset(0)
	if err != nil {
		t.Fatalf("PageAsset(0): %v", err)
	}
	thirdAsset, err := r.PageAsset(2)
	if err != nil {
		t.Fatalf("PageAsset(2): %v", err)
	}
	if firstAsset != thirdAsset {
		t.Errorf("pages 0 and 2 use assets %d and %d, want shared", firstAsset, thirdAsset)
	}
}

func TestConvertApplyHook(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{"001.png": []byte("p1")})

	sink := &memSink{}
	w, err := bbf.NewWriter(sink, testConfig())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	opts := Options{
		Config: testConfig(),
		Apply: func(w *bbf.Writer) error {
			return w.AddMetadata("Title", "Converted", bbf.NoParent)
		},
	}
	if _, err := Convert(archive, w, opts); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := bbf.Open(bytes.NewReader(sink.buf))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	entries, err := r.Metadata("")
	if err != nil || len(entries) != 1 || entries[0].Value != "Converted" {
		t.Errorf("metadata = %v, %v", entries, err)
	}
}

func TestConvertApplyErrorAborts(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{"001.png": []byte("p1")})
	sink := &memSink{}
	w, err := bbf.NewWriter(sink, testConfig())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	opts := Options{
		Config: testConfig(),
		Apply:  func(*bbf.Writer) error { return fmt.Errorf("no thanks") },
	}
	if _, err := Convert(archive, w, opts); err == nil {
		t.Fatal("Convert swallowed the apply error")
	}
}
