// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package bbf

import (
	"bytes"
	"errors"
	"testing"
)

// buildBook writes a small book with three distinct page images, a
// two-level section tree, and mixed-scope metadata, and returns the
// serialized file.
func buildBook(t *testing.T, cfg Config) []byte {
	t.Helper()

	sink := &memFile{}
	w, err := NewWriter(sink, cfg)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	payloads := [][]byte{
		bytes.Repeat([]byte("page zero "), 100),
		bytes.Repeat([]byte("page one "), 200),
		bytes.Repeat([]byte("page two "), 300),
	}
	for _, payload := range payloads {
		assetIndex, err := w.AddAsset("image/png", payload)
		if err != nil {
			t.Fatalf("AddAsset: %v", err)
		}
		if err := w.AddPage(assetIndex); err != nil {
			t.Fatalf("AddPage: %v", err)
		}
	}

	part, err := w.AddSection("part1", 0, NoParent)
	if err != nil {
		t.Fatalf("AddSection(part1): %v", err)
	}
	if _, err := w.AddSection("ch1", 0, part); err != nil {
		t.Fatalf("AddSection(ch1): %v", err)
	}
	if _, err := w.AddSection("ch2", 2, part); err != nil {
		t.Fatalf("AddSection(ch2): %v", err)
	}

	if err := w.AddMetadata("Title", "Выбор бумаги", NoParent); err != nil {
		t.Fatalf("AddMetadata(Title): %v", err)
	}
	if err := w.AddMetadata("著者", "unknown", NoParent); err != nil {
		t.Fatalf("AddMetadata(author): %v", err)
	}
	if err := w.AddMetadata("Note", "first part", part); err != nil {
		t.Fatalf("AddMetadata(Note): %v", err)
	}

	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return sink.Bytes()
}

func TestCanonicalForm(t *testing.T) {
	// The same logical content with the same configuration and
	// timestamp must serialize to byte-identical files.
	first := buildBook(t, testConfig())
	second := buildBook(t, testConfig())
	if !bytes.Equal(first, second) {
		t.Fatal("two identical writer runs produced different bytes")
	}
}

func TestRoundtrip(t *testing.T) {
	file := buildBook(t, testConfig())
	r, err := Open(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if r.AssetCount() != 3 || r.PageCount() != 3 || r.SectionCount() != 3 {
		t.Fatalf("counts = %d assets, %d pages, %d sections",
			r.AssetCount(), r.PageCount(), r.SectionCount())
	}

	wantPage0 := bytes.Repeat([]byte("page zero "), 100)
	got, err := r.PageBytes(0)
	if err != nil {
		t.Fatalf("PageBytes(0): %v", err)
	}
	if !bytes.Equal(got, wantPage0) {
		t.Error("page 0 bytes differ from input")
	}

	info, err := r.Asset(0)
	if err != nil {
		t.Fatalf("Asset(0): %v", err)
	}
	if info.ContentType != "image/png" {
		t.Errorf("content type %q", info.ContentType)
	}
	if info.ContentHash != HashAsset(wantPage0) {
		t.Error("asset 0 recorded hash differs from content hash")
	}
	if info.Offset%4096 != 0 {
		t.Errorf("asset 0 offset %d not aligned", info.Offset)
	}

	entries, err := r.Metadata("")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != "Title" || entries[0].Value != "Выбор бумаги" || entries[1].Key != "著者" {
		t.Errorf("book metadata = %+v", entries)
	}

	scoped, err := r.Metadata("part1")
	if err != nil {
		t.Fatalf("Metadata(part1): %v", err)
	}
	if len(scoped) != 1 || scoped[0].Key != "Note" {
		t.Errorf("section metadata = %+v", scoped)
	}

	for i := range 3 {
		if err := r.VerifyAsset(i); err != nil {
			t.Errorf("VerifyAsset(%d): %v", i, err)
		}
	}
	if err := r.VerifyFull(); err != nil {
		t.Errorf("VerifyFull: %v", err)
	}
	if r.CreatedAt().Unix() != testConfig().Timestamp {
		t.Errorf("timestamp %d, want %d", r.CreatedAt().Unix(), testConfig().Timestamp)
	}
}

func TestScenarioOffsetsFixedReams(t *testing.T) {
	sink := &memFile{}
	w, err := NewWriter(sink, Config{AlignmentExponent: 12, ReamExponent: 16})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, length := range []int{0, 1, 4095, 4096, 4097} {
		if _, err := w.AddAsset(ContentTypeOctetStream, make([]byte, length)); err != nil {
			t.Fatalf("AddAsset(%d bytes): %v", length, err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := Open(bytes.NewReader(sink.Bytes()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want := []uint64{4096, 8192, 12288, 16384, 24576}
	for i, wantOffset := range want {
		info, err := r.Asset(i)
		if err != nil {
			t.Fatalf("Asset(%d): %v", i, err)
		}
		if info.Offset != wantOffset {
			t.Errorf("asset %d at %d, want %d", i, info.Offset, wantOffset)
		}
		if info.ReamExponent != 16 {
			t.Errorf("asset %d ream exponent %d, want 16", i, info.ReamExponent)
		}
	}
}

func TestScenarioOffsetsVariableReams(t *testing.T) {
	sink := &memFile{}
	w, err := NewWriter(sink, Config{AlignmentExponent: 12, ReamExponent: 16, VariableReam: true})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, length := range []int{0, 1, 4095, 4096, 4097} {
		if _, err := w.AddAsset(ContentTypeOctetStream, make([]byte, length)); err != nil {
			t.Fatalf("AddAsset(%d bytes): %v", length, err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := Open(bytes.NewReader(sink.Bytes()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	wantOffsets := []uint64{4096, 8192, 12288, 16384, 20480}
	wantExps := []uint8{16, 16, 16, 16, 13}
	for i := range wantOffsets {
		info, err := r.Asset(i)
		if err != nil {
			t.Fatalf("Asset(%d): %v", i, err)
		}
		if info.Offset != wantOffsets[i] {
			t.Errorf("asset %d at %d, want %d", i, info.Offset, wantOffsets[i])
		}
		if info.ReamExponent != wantExps[i] {
			t.Errorf("asset %d ream exponent %d, want %d", i, info.ReamExponent, wantExps[i])
		}
	}
}

func TestPageIndirection(t *testing.T) {
	// Pages may reorder and repeat assets; page 0 shows asset 1.
	sink := &memFile{}
	w, err := NewWriter(sink, testConfig())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	payloads := [][]byte{[]byte("asset zero"), []byte("asset one"), []byte("asset two")}
	for _, payload := range payloads {
		if _, err := w.AddAsset(ContentTypeOctetStream, payload); err != nil {
			t.Fatalf("AddAsset: %v", err)
		}
	}
	for _, assetIndex := range []uint32{1, 0, 2} {
		if err := w.AddPage(assetIndex); err != nil {
			t.Fatalf("AddPage: %v", err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := Open(bytes.NewReader(sink.Bytes()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := r.PageBytes(0)
	if err != nil {
		t.Fatalf("PageBytes(0): %v", err)
	}
	if !bytes.Equal(got, payloads[1]) {
		t.Errorf("page 0 = %q, want asset 1", got)
	}
}

func TestUnreferencedAssetSurvives(t *testing.T) {
	sink := &memFile{}
	w, err := NewWriter(sink, testConfig())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	pageAsset, err := w.AddAsset(ContentTypeOctetStream, []byte("on a page"))
	if err != nil {
		t.Fatalf("AddAsset: %v", err)
	}
	orphan, err := w.AddAsset(ContentTypeOctetStream, []byte("reachable only by index"))
	if err != nil {
		t.Fatalf("AddAsset: %v", err)
	}
	if err := w.AddPage(pageAsset); err != nil {
		t.Fatalf("AddPage: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := Open(bytes.NewReader(sink.Bytes()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.VerifyFull(); err != nil {
		t.Errorf("VerifyFull with orphan asset: %v", err)
	}
	if err := r.VerifyAsset(int(orphan)); err != nil {
		t.Errorf("VerifyAsset(orphan): %v", err)
	}
}

func TestSectionResolution(t *testing.T) {
	file := buildBook(t, testConfig())
	r, err := Open(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	node, err := r.ResolveSection("part1/ch2")
	if err != nil {
		t.Fatalf("ResolveSection(part1/ch2): %v", err)
	}
	if node.Page != 2 {
		t.Errorf("part1/ch2 targets page %d, want 2", node.Page)
	}

	// Dot separators resolve the same path.
	dotted, err := r.ResolveSection("part1.ch2")
	if err != nil {
		t.Fatalf("ResolveSection(part1.ch2): %v", err)
	}
	if dotted != node {
		t.Error("dot and slash paths resolved to different nodes")
	}

	root, err := r.ResolveSection("part1")
	if err != nil {
		t.Fatalf("ResolveSection(part1): %v", err)
	}
	if len(root.Children) != 2 || root.Children[0].Name != "ch1" || root.Children[1].Name != "ch2" {
		t.Errorf("part1 subtree = %+v", root.Children)
	}

	if _, err := r.ResolveSection("part1/ch9"); !errors.Is(err, ErrUnknownParent) {
		t.Errorf("missing leaf = %v, want ErrUnknownParent", err)
	}
	if _, err := r.ResolveSection(""); !errors.Is(err, ErrUnknownParent) {
		t.Errorf("empty path = %v, want ErrUnknownParent", err)
	}
}

func TestIntegrityLocality(t *testing.T) {
	file := buildBook(t, testConfig())

	// Locate asset 1's payload through a pristine reader.
	pristine, err := Open(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	info, err := pristine.Asset(1)
	if err != nil {
		t.Fatalf("Asset(1): %v", err)
	}

	// Flip one byte inside asset 1.
	corrupted := bytes.Clone(file)
	corrupted[info.Offset+info.Length/2] ^= 0x01

	r, err := Open(bytes.NewReader(corrupted))
	if err != nil {
		t.Fatalf("Open on asset-corrupted file: %v", err)
	}
	if err := r.VerifyIndexOnly(); err != nil {
		t.Errorf("VerifyIndexOnly after asset corruption: %v", err)
	}
	if err := r.VerifyAsset(0); err != nil {
		t.Errorf("VerifyAsset(0) after asset 1 corruption: %v", err)
	}
	if err := r.VerifyAsset(1); !errors.Is(err, ErrAssetHashMismatch) {
		t.Errorf("VerifyAsset(1) = %v, want ErrAssetHashMismatch", err)
	}
	if err := r.VerifyFull(); !errors.Is(err, ErrFileHashMismatch) {
		t.Errorf("VerifyFull = %v, want ErrFileHashMismatch", err)
	}

	// Flip one byte inside the index block instead.
	indexCorrupted := bytes.Clone(file)
	indexCorrupted[len(indexCorrupted)-1] ^= 0x01
	if _, err := Open(bytes.NewReader(indexCorrupted)); !errors.Is(err, ErrIndexHashMismatch) {
		t.Errorf("Open on index-corrupted file = %v, want ErrIndexHashMismatch", err)
	}
}

func TestTruncatedFile(t *testing.T) {
	file := buildBook(t, testConfig())
	truncated := file[:len(file)-1]
	if _, err := Open(bytes.NewReader(truncated)); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("Open on truncated file = %v, want ErrUnexpectedEOF", err)
	}
}

func TestTrailingGarbage(t *testing.T) {
	file := buildBook(t, testConfig())
	extended := append(bytes.Clone(file), 0x00)
	if _, err := Open(bytes.NewReader(extended)); !errors.Is(err, ErrTrailingGarbage) {
		t.Errorf("Open with trailing byte = %v, want ErrTrailingGarbage", err)
	}
}

func TestOpenRejectsForeignFile(t *testing.T) {
	if _, err := Open(bytes.NewReader([]byte("PK\x03\x04 definitely a zip file, padded out"))); err == nil {
		t.Fatal("foreign file accepted")
	}

	long := make([]byte, 200)
	copy(long, "NOPE")
	if _, err := Open(bytes.NewReader(long)); !errors.Is(err, ErrMagicMismatch) {
		t.Errorf("bad magic = %v, want ErrMagicMismatch", err)
	}
}

func TestOpenRejectsUnsupportedVersion(t *testing.T) {
	file := buildBook(t, testConfig())
	mutated := bytes.Clone(file)
	mutated[4] = 9 // version field
	if _, err := Open(bytes.NewReader(mutated)); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("future version = %v, want ErrUnsupportedVersion", err)
	}
}
