// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package bbf

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// AssetInfo is the index's view of one stored blob.
type AssetInfo struct {
	Index        uint32
	ContentType  string
	Length       uint64
	Offset       uint64
	ReamExponent uint8
	ContentHash  Digest
}

// MetadataEntry is one key/value pair, in declaration order.
type MetadataEntry struct {
	Key   string
	Value string
}

// SectionNode is one node of the section forest. Children appear in
// declaration order; Metadata holds the entries scoped to this
// section.
type SectionNode struct {
	Name     string
	Page     uint32
	Children []*SectionNode
	Metadata []MetadataEntry
}

// Reader gives random access to a finalized BBF file. Open validates
// the header and the index digest; afterwards every lookup is served
// from the parsed index and every asset read is a single seek. The
// reader never mutates state on error, so a failed call may be
// retried. It holds a cursor into the source, so use one reader per
// goroutine; multiple readers may share a file through separate
// sources.
type Reader struct {
	src  io.ReadSeeker
	size int64
	hdr  header
	ix   *index

	roots []*SectionNode
	nodes []*SectionNode
	book  []MetadataEntry
}

// Open reads and validates the header, loads the index block, checks
// its digest, and builds the section forest. It does not read or
// verify any asset bytes.
func Open(src io.ReadSeeker) (*Reader, error) {
	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("measuring source: %w", err)
	}
	if size < headerSize {
		return nil, fmt.Errorf("%w: file is %d bytes, the header alone is %d", ErrUnexpectedEOF, size, headerSize)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to header: %w", err)
	}
	headerBuf := make([]byte, headerSize)
	if _, err := io.ReadFull(src, headerBuf); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrUnexpectedEOF, err)
	}
	hdr, err := parseHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	align := uint64(1) << hdr.alignExp
	if hdr.indexOffset%align != 0 {
		return nil, fmt.Errorf("%w: index offset %d is not %d-byte aligned", ErrHeaderInvalid, hdr.indexOffset, align)
	}
	if hdr.indexLength > maxBlobLength {
		return nil, fmt.Errorf("%w: index length %d exceeds %d", ErrOverflow, hdr.indexLength, maxBlobLength)
	}
	end := hdr.indexOffset + hdr.indexLength
	if end < hdr.indexOffset {
		return nil, fmt.Errorf("%w: index offset %d + length %d overflows", ErrHeaderInvalid, hdr.indexOffset, hdr.indexLength)
	}
	// The file ends immediately after the index block: shorter is a
	// truncation, longer is garbage.
	if end > uint64(size) {
		return nil, fmt.Errorf("%w: index block ends at %d but the file is %d bytes", ErrUnexpectedEOF, end, size)
	}
	if end < uint64(size) {
		return nil, fmt.Errorf("%w: %d bytes after the index block", ErrTrailingGarbage, uint64(size)-end)
	}

	indexBytes, err := readRange(src, hdr.indexOffset, hdr.indexLength)
	if err != nil {
		return nil, fmt.Errorf("reading index block: %w", err)
	}
	indexHasher := newHasher(indexDomainKey)
	indexHasher.Write(indexBytes)
	if indexHasher.Sum() != hdr.indexHash {
		return nil, fmt.Errorf("%w: index block at offset %d", ErrIndexHashMismatch, hdr.indexOffset)
	}

	ix, err := parseIndex(indexBytes)
	if err != nil {
		return nil, err
	}
	if err := validateIndex(ix, hdr); err != nil {
		return nil, err
	}

	r := &Reader{src: src, size: size, hdr: hdr, ix: ix}
	r.buildSections()
	return r, nil
}

// buildSections materializes the flat section and metadata records
// into a forest with per-node metadata, so path resolution and
// subtree queries need no scanning later.
func (r *Reader) buildSections() {
	r.nodes = make([]*SectionNode, len(r.ix.sections))
	for i, section := range r.ix.sections {
		r.nodes[i] = &SectionNode{Name: section.name, Page: section.page}
	}
	for i, section := range r.ix.sections {
		if section.parent == noParent {
			r.roots = append(r.roots, r.nodes[i])
			continue
		}
		parent := r.nodes[section.parent]
		parent.Children = append(parent.Children, r.nodes[i])
	}
	for _, entry := range r.ix.metadata {
		pair := MetadataEntry{Key: entry.key, Value: entry.value}
		if entry.parent == noParent {
			r.book = append(r.book, pair)
			continue
		}
		node := r.nodes[entry.parent]
		node.Metadata = append(node.Metadata, pair)
	}
}

// AssetCount returns the number of assets in the file.
func (r *Reader) AssetCount() int { return len(r.ix.assets) }

// PageCount returns the number of pages in the reading sequence.
func (r *Reader) PageCount() int { return len(r.ix.pages) }

// SectionCount returns the number of sections in the file.
func (r *Reader) SectionCount() int { return len(r.ix.sections) }

// AlignmentExponent returns the header's alignment exponent.
func (r *Reader) AlignmentExponent() uint8 { return r.hdr.alignExp }

// ReamExponent returns the header's ream exponent.
func (r *Reader) ReamExponent() uint8 { return r.hdr.reamExp }

// VariableReam reports whether the file uses variable reams.
func (r *Reader) VariableReam() bool { return r.hdr.variableReam }

// CreatedAt returns the creation timestamp from the header.
func (r *Reader) CreatedAt() time.Time { return time.Unix(r.hdr.timestamp, 0).UTC() }

// Size returns the total file size in bytes.
func (r *Reader) Size() int64 { return r.size }

// Asset returns the index record for one asset.
func (r *Reader) Asset(assetIndex int) (AssetInfo, error) {
	if assetIndex < 0 || assetIndex >= len(r.ix.assets) {
		return AssetInfo{}, fmt.Errorf("%w: index %d of %d", ErrUnknownAsset, assetIndex, len(r.ix.assets))
	}
	asset := r.ix.assets[assetIndex]
	return AssetInfo{
		Index:        uint32(assetIndex),
		ContentType:  asset.contentType,
		Length:       asset.length,
		Offset:       asset.offset,
		ReamExponent: asset.reamExp,
		ContentHash:  asset.hash,
	}, nil
}

// PageAsset returns the asset index referenced by a page.
func (r *Reader) PageAsset(page int) (uint32, error) {
	if page < 0 || page >= len(r.ix.pages) {
		return 0, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, len(r.ix.pages))
	}
	return r.ix.pages[page], nil
}

// AssetBytes reads one asset's stored bytes. The content hash is NOT
// checked; use VerifyAsset for that.
func (r *Reader) AssetBytes(assetIndex int) ([]byte, error) {
	if assetIndex < 0 || assetIndex >= len(r.ix.assets) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrUnknownAsset, assetIndex, len(r.ix.assets))
	}
	asset := r.ix.assets[assetIndex]
	data, err := readRange(r.src, asset.offset, asset.length)
	if err != nil {
		return nil, fmt.Errorf("asset %d: %w", assetIndex, err)
	}
	return data, nil
}

// PageBytes reads the bytes of the asset a page references.
func (r *Reader) PageBytes(page int) ([]byte, error) {
	assetIndex, err := r.PageAsset(page)
	if err != nil {
		return nil, err
	}
	return r.AssetBytes(int(assetIndex))
}

// VerifyAsset re-reads one asset and compares its digest against the
// recorded content hash. Only the asset's own bytes are read.
func (r *Reader) VerifyAsset(assetIndex int) error {
	if assetIndex < 0 || assetIndex >= len(r.ix.assets) {
		return fmt.Errorf("%w: index %d of %d", ErrUnknownAsset, assetIndex, len(r.ix.assets))
	}
	asset := r.ix.assets[assetIndex]
	if _, err := r.src.Seek(int64(asset.offset), io.SeekStart); err != nil {
		return fmt.Errorf("seeking to asset %d at offset %d: %w", assetIndex, asset.offset, err)
	}
	h := newHasher(assetDomainKey)
	if _, err := io.CopyN(h, r.src, int64(asset.length)); err != nil {
		return wrapReadErr(fmt.Errorf("hashing asset %d: %w", assetIndex, err))
	}
	if h.Sum() != asset.hash {
		return fmt.Errorf("%w: asset %d at offset %d", ErrAssetHashMismatch, assetIndex, asset.offset)
	}
	return nil
}

// VerifyIndexOnly re-reads the index block from the source and
// compares its digest against the header. This is the fast integrity
// check: it touches no asset bytes.
func (r *Reader) VerifyIndexOnly() error {
	indexBytes, err := readRange(r.src, r.hdr.indexOffset, r.hdr.indexLength)
	if err != nil {
		return fmt.Errorf("re-reading index block: %w", err)
	}
	h := newHasher(indexDomainKey)
	h.Write(indexBytes)
	if h.Sum() != r.hdr.indexHash {
		return fmt.Errorf("%w: index block at offset %d", ErrIndexHashMismatch, r.hdr.indexOffset)
	}
	return nil
}

// VerifyFull re-reads and digests the whole asset region and the
// index block, comparing both against the header.
func (r *Reader) VerifyFull() error {
	if _, err := r.src.Seek(headerSize, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to asset region: %w", err)
	}
	h := newHasher(regionDomainKey)
	if _, err := io.CopyN(h, r.src, int64(r.hdr.indexOffset-headerSize)); err != nil {
		return wrapReadErr(fmt.Errorf("hashing asset region: %w", err))
	}
	if h.Sum() != r.hdr.fileHash {
		return fmt.Errorf("%w: asset region [%d, %d)", ErrFileHashMismatch, headerSize, r.hdr.indexOffset)
	}
	return r.VerifyIndexOnly()
}

// Sections returns the root-level sections of the forest, in
// declaration order. The returned nodes are shared; callers must not
// mutate them.
func (r *Reader) Sections() []*SectionNode {
	return r.roots
}

// ResolveSection walks the forest by a slash- or dot-separated path
// of section names ("part1/ch2" or "part1.ch2") and returns the
// matched node with its subtree.
func (r *Reader) ResolveSection(path string) (*SectionNode, error) {
	components := splitSectionPath(path)
	if len(components) == 0 {
		return nil, fmt.Errorf("%w: empty section path", ErrUnknownParent)
	}
	level := r.roots
	var node *SectionNode
	for _, component := range components {
		node = nil
		for _, candidate := range level {
			if candidate.Name == component {
				node = candidate
				break
			}
		}
		if node == nil {
			return nil, fmt.Errorf("%w: no section %q in path %q", ErrUnknownParent, component, path)
		}
		level = node.Children
	}
	return node, nil
}

// Metadata returns the entries of one scope in declaration order:
// the book-level entries for an empty path, otherwise the entries of
// the named section.
func (r *Reader) Metadata(sectionPath string) ([]MetadataEntry, error) {
	if sectionPath == "" {
		return r.book, nil
	}
	node, err := r.ResolveSection(sectionPath)
	if err != nil {
		return nil, err
	}
	return node.Metadata, nil
}

// splitSectionPath splits on '/' and '.', dropping empty components.
func splitSectionPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '.'
	})
}

// readRange seeks and reads an exact byte range.
func readRange(src io.ReadSeeker, offset, length uint64) ([]byte, error) {
	if _, err := src.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to offset %d: %w", offset, err)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(src, data); err != nil {
		return nil, wrapReadErr(fmt.Errorf("reading %d bytes at offset %d: %w", length, offset, err))
	}
	return data, nil
}

// wrapReadErr maps the stdlib's short-read errors onto the format's
// truncation kind, leaving other I/O errors untouched.
func wrapReadErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
	}
	return err
}
