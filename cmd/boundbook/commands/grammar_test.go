// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"io"
	"testing"

	"github.com/boundbook/boundbook/lib/bbf"
)

func TestParseMetaFlag(t *testing.T) {
	decl, err := parseMetaFlag("Title:The Push Man")
	if err != nil {
		t.Fatalf("parseMetaFlag: %v", err)
	}
	if decl.key != "Title" || decl.value != "The Push Man" || decl.parent != "" {
		t.Errorf("decl = %+v", decl)
	}

	decl, err = parseMetaFlag("Note:opening act:part1")
	if err != nil {
		t.Fatalf("parseMetaFlag with parent: %v", err)
	}
	if decl.parent != "part1" || decl.value != "opening act" {
		t.Errorf("decl = %+v", decl)
	}

	for _, bad := range []string{"", "NoValue", ":v"} {
		if _, err := parseMetaFlag(bad); err == nil {
			t.Errorf("parseMetaFlag(%q) accepted", bad)
		}
	}
}

func TestParseSectionFlag(t *testing.T) {
	decl, err := parseSectionFlag("ch1:0")
	if err != nil {
		t.Fatalf("parseSectionFlag: %v", err)
	}
	if decl.name != "ch1" || decl.page != 0 || decl.parent != "" {
		t.Errorf("decl = %+v", decl)
	}

	decl, err = parseSectionFlag("ch2:12:part1")
	if err != nil {
		t.Fatalf("parseSectionFlag with parent: %v", err)
	}
	if decl.page != 12 || decl.parent != "part1" {
		t.Errorf("decl = %+v", decl)
	}

	for _, bad := range []string{"", "name", "name:xyz", ":0"} {
		if _, err := parseSectionFlag(bad); err == nil {
			t.Errorf("parseSectionFlag(%q) accepted", bad)
		}
	}
}

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

func TestApplyDecls(t *testing.T) {
	sink := &memSink{}
	cfg := bbf.DefaultConfig()
	cfg.Timestamp = 1700000000
	w, err := bbf.NewWriter(sink, cfg)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for range 3 {
		assetIndex, err := w.AddAsset("image/png", []byte("page"))
		if err != nil {
			t.Fatalf("AddAsset: %v", err)
		}
		if err := w.AddPage(assetIndex); err != nil {
			t.Fatalf("AddPage: %v", err)
		}
	}

	sections := []string{"part1:0", "ch1:0:part1", "ch2:2:part1"}
	metas := []string{"Title:Grammar Test", "Note:n1:part1"}
	if err := applyDecls(w, sections, metas); err != nil {
		t.Fatalf("applyDecls: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := bbf.Open(bytes.NewReader(sink.buf))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	node, err := r.ResolveSection("part1/ch2")
	if err != nil {
		t.Fatalf("ResolveSection: %v", err)
	}
	if node.Page != 2 {
		t.Errorf("part1/ch2 page = %d, want 2", node.Page)
	}
	scoped, err := r.Metadata("part1")
	if err != nil || len(scoped) != 1 || scoped[0].Key != "Note" {
		t.Errorf("part1 metadata = %v, %v", scoped, err)
	}
}

func TestApplyDeclsUnknownParent(t *testing.T) {
	sink := &memSink{}
	cfg := bbf.DefaultConfig()
	cfg.Timestamp = 1700000000
	w, err := bbf.NewWriter(sink, cfg)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	assetIndex, err := w.AddAsset("image/png", []byte("page"))
	if err != nil {
		t.Fatalf("AddAsset: %v", err)
	}
	if err := w.AddPage(assetIndex); err != nil {
		t.Fatalf("AddPage: %v", err)
	}

	if err := applyDecls(w, []string{"ch1:0:missing"}, nil); err == nil {
		t.Error("section with undeclared parent accepted")
	}
	if err := applyDecls(w, nil, []string{"Note:v:missing"}); err == nil {
		t.Error("metadata with undeclared section accepted")
	}
}
