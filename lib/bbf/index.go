// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package bbf

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// FormatVersion is the BBF format version this package reads and
// writes.
const FormatVersion = 3

// headerSize is the fixed byte length of the header at offset 0:
// 4-byte magic, u16 version, u8 alignment exponent, u8 ream exponent,
// u8 variable-ream flag, i64 creation timestamp, u64 index offset,
// u64 index length, 32-byte index digest, 32-byte region digest.
const headerSize = 97

// magic identifies a BBF file. The fourth byte is NUL, not a version
// digit; the version lives in its own field.
var magic = [4]byte{'B', 'B', 'F', 0}

// noParent is the serialized parent reference meaning "root level".
const noParent = ^uint32(0)

// header is the fixed-size block at file offset 0. The digests and
// index fields are zero until Finalize rewrites the header; readers
// reject such placeholder headers.
type header struct {
	alignExp     uint8
	reamExp      uint8
	variableReam bool
	timestamp    int64
	indexOffset  uint64
	indexLength  uint64
	indexHash    Digest
	fileHash     Digest
}

// encode serializes the header into its fixed 97-byte layout.
func (h *header) encode() [headerSize]byte {
	var buf [headerSize]byte
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], FormatVersion)
	buf[6] = h.alignExp
	buf[7] = h.reamExp
	if h.variableReam {
		buf[8] = 1
	}
	binary.LittleEndian.PutUint64(buf[9:17], uint64(h.timestamp))
	binary.LittleEndian.PutUint64(buf[17:25], h.indexOffset)
	binary.LittleEndian.PutUint64(buf[25:33], h.indexLength)
	copy(buf[33:65], h.indexHash[:])
	copy(buf[65:97], h.fileHash[:])
	return buf
}

// parseHeader validates and decodes a 97-byte header block.
func parseHeader(buf []byte) (header, error) {
	var h header
	if len(buf) < headerSize {
		return h, fmt.Errorf("%w: header is %d bytes, want %d", ErrUnexpectedEOF, len(buf), headerSize)
	}
	if !bytes.Equal(buf[0:4], magic[:]) {
		return h, fmt.Errorf("%w: magic %q", ErrMagicMismatch, buf[0:4])
	}
	version := binary.LittleEndian.Uint16(buf[4:6])
	if version != FormatVersion {
		return h, fmt.Errorf("%w: file declares version %d, this package implements %d",
			ErrUnsupportedVersion, version, FormatVersion)
	}

	h.alignExp = buf[6]
	h.reamExp = buf[7]
	switch buf[8] {
	case 0:
		h.variableReam = false
	case 1:
		h.variableReam = true
	default:
		return h, fmt.Errorf("%w: variable-ream flag %d at offset 8", ErrHeaderInvalid, buf[8])
	}
	h.timestamp = int64(binary.LittleEndian.Uint64(buf[9:17]))
	h.indexOffset = binary.LittleEndian.Uint64(buf[17:25])
	h.indexLength = binary.LittleEndian.Uint64(buf[25:33])
	copy(h.indexHash[:], buf[33:65])
	copy(h.fileHash[:], buf[65:97])

	if h.alignExp > MaxAlignmentExponent {
		return h, fmt.Errorf("%w: alignment exponent %d exceeds %d", ErrHeaderInvalid, h.alignExp, MaxAlignmentExponent)
	}
	if h.reamExp < h.alignExp || h.reamExp > MaxReamExponent {
		return h, fmt.Errorf("%w: ream exponent %d outside [%d, %d]",
			ErrHeaderInvalid, h.reamExp, h.alignExp, MaxReamExponent)
	}
	if h.indexOffset == 0 {
		// A writer that never reached Finalize leaves the
		// placeholder header behind.
		return h, fmt.Errorf("%w: zero index offset (file was not finalized)", ErrHeaderInvalid)
	}
	if h.indexOffset < headerSize {
		return h, fmt.Errorf("%w: index offset %d overlaps the header", ErrHeaderInvalid, h.indexOffset)
	}
	return h, nil
}

// assetRecord describes one stored blob. The asset's index is its
// position in the table; it is serialized redundantly and checked on
// read.
type assetRecord struct {
	contentType string
	length      uint64
	offset      uint64
	reamExp     uint8
	hash        Digest
}

// sectionRecord is a named anchor into the page sequence. parent is a
// declaration-order index of an earlier section, or noParent.
type sectionRecord struct {
	name   string
	page   uint32
	parent uint32
}

// metadataRecord is a key/value pair scoped to the book (parent ==
// noParent) or to a section.
type metadataRecord struct {
	key    string
	value  string
	parent uint32
}

// index is the in-memory model of the index block: the asset table,
// the ordered page sequence (each entry an asset index), the section
// forest in declaration order, and the metadata list in declaration
// order.
type index struct {
	assets   []assetRecord
	pages    []uint32
	sections []sectionRecord
	metadata []metadataRecord
}

// encode serializes the index block in canonical order: assets,
// pages, sections, metadata, each as a u32 count followed by the
// records field-by-field.
func (ix *index) encode() ([]byte, error) {
	var buf bytes.Buffer
	e := &encoder{w: &buf}

	if err := e.uint32(uint32(len(ix.assets))); err != nil {
		return nil, err
	}
	for i, asset := range ix.assets {
		if err := e.uint32(uint32(i)); err != nil {
			return nil, err
		}
		if err := e.str(asset.contentType); err != nil {
			return nil, err
		}
		if err := e.uint64(asset.length); err != nil {
			return nil, err
		}
		if err := e.uint64(asset.offset); err != nil {
			return nil, err
		}
		if err := e.uint8(asset.reamExp); err != nil {
			return nil, err
		}
		if err := e.raw(asset.hash[:]); err != nil {
			return nil, err
		}
	}

	if err := e.uint32(uint32(len(ix.pages))); err != nil {
		return nil, err
	}
	for i, assetIndex := range ix.pages {
		if err := e.uint32(uint32(i)); err != nil {
			return nil, err
		}
		if err := e.uint32(assetIndex); err != nil {
			return nil, err
		}
	}

	if err := e.uint32(uint32(len(ix.sections))); err != nil {
		return nil, err
	}
	for _, section := range ix.sections {
		if err := e.str(section.name); err != nil {
			return nil, err
		}
		if err := e.uint32(section.page); err != nil {
			return nil, err
		}
		if err := e.uint32(section.parent); err != nil {
			return nil, err
		}
	}

	if err := e.uint32(uint32(len(ix.metadata))); err != nil {
		return nil, err
	}
	for _, entry := range ix.metadata {
		if err := e.str(entry.key); err != nil {
			return nil, err
		}
		if err := e.str(entry.value); err != nil {
			return nil, err
		}
		if err := e.uint32(entry.parent); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// parseIndex decodes an index block. The block's length is exact:
// unconsumed trailing bytes are an error. Structural cross-checks
// against the header (offset bounds, reference validity) happen in
// validateIndex.
func parseIndex(buf []byte) (*index, error) {
	d := &decoder{buf: buf}
	ix := &index{}

	assetCount, err := d.uint32()
	if err != nil {
		return nil, err
	}
	ix.assets = make([]assetRecord, 0, assetCount)
	for i := uint32(0); i < assetCount; i++ {
		declared, err := d.uint32()
		if err != nil {
			return nil, fmt.Errorf("asset %d: %w", i, err)
		}
		if declared != i {
			return nil, fmt.Errorf("%w: asset record %d declares index %d", ErrHeaderInvalid, i, declared)
		}
		var asset assetRecord
		if asset.contentType, err = d.str(); err != nil {
			return nil, fmt.Errorf("asset %d content type: %w", i, err)
		}
		if asset.length, err = d.uint64(); err != nil {
			return nil, fmt.Errorf("asset %d length: %w", i, err)
		}
		if asset.offset, err = d.uint64(); err != nil {
			return nil, fmt.Errorf("asset %d offset: %w", i, err)
		}
		if asset.reamExp, err = d.uint8(); err != nil {
			return nil, fmt.Errorf("asset %d ream exponent: %w", i, err)
		}
		hashBytes, err := d.take(32)
		if err != nil {
			return nil, fmt.Errorf("asset %d hash: %w", i, err)
		}
		copy(asset.hash[:], hashBytes)
		ix.assets = append(ix.assets, asset)
	}

	pageCount, err := d.uint32()
	if err != nil {
		return nil, err
	}
	ix.pages = make([]uint32, 0, pageCount)
	for i := uint32(0); i < pageCount; i++ {
		position, err := d.uint32()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if position != i {
			return nil, fmt.Errorf("%w: page record %d declares position %d", ErrHeaderInvalid, i, position)
		}
		assetIndex, err := d.uint32()
		if err != nil {
			return nil, fmt.Errorf("page %d asset index: %w", i, err)
		}
		ix.pages = append(ix.pages, assetIndex)
	}

	sectionCount, err := d.uint32()
	if err != nil {
		return nil, err
	}
	ix.sections = make([]sectionRecord, 0, sectionCount)
	for i := uint32(0); i < sectionCount; i++ {
		var section sectionRecord
		if section.name, err = d.str(); err != nil {
			return nil, fmt.Errorf("section %d name: %w", i, err)
		}
		if section.page, err = d.uint32(); err != nil {
			return nil, fmt.Errorf("section %d page: %w", i, err)
		}
		if section.parent, err = d.uint32(); err != nil {
			return nil, fmt.Errorf("section %d parent: %w", i, err)
		}
		ix.sections = append(ix.sections, section)
	}

	metadataCount, err := d.uint32()
	if err != nil {
		return nil, err
	}
	ix.metadata = make([]metadataRecord, 0, metadataCount)
	for i := uint32(0); i < metadataCount; i++ {
		var entry metadataRecord
		if entry.key, err = d.str(); err != nil {
			return nil, fmt.Errorf("metadata %d key: %w", i, err)
		}
		if entry.value, err = d.str(); err != nil {
			return nil, fmt.Errorf("metadata %d value: %w", i, err)
		}
		if entry.parent, err = d.uint32(); err != nil {
			return nil, fmt.Errorf("metadata %d parent: %w", i, err)
		}
		ix.metadata = append(ix.metadata, entry)
	}

	if d.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after the last index record", ErrTrailingGarbage, d.remaining())
	}
	return ix, nil
}

// validateIndex cross-checks a parsed index against the header:
// placement bounds and alignment, reference validity, forest shape,
// and scope uniqueness. Any violation means the file is structurally
// corrupt.
func validateIndex(ix *index, h header) error {
	align := uint64(1) << h.alignExp

	for i, asset := range ix.assets {
		if asset.offset%align != 0 {
			return fmt.Errorf("%w: asset %d offset %d is not %d-byte aligned",
				ErrHeaderInvalid, i, asset.offset, align)
		}
		if asset.offset < headerSize {
			return fmt.Errorf("%w: asset %d offset %d overlaps the header", ErrHeaderInvalid, i, asset.offset)
		}
		if asset.length > maxBlobLength {
			return fmt.Errorf("%w: asset %d length %d exceeds %d", ErrHeaderInvalid, i, asset.length, maxBlobLength)
		}
		if asset.offset+asset.length < asset.offset {
			return fmt.Errorf("%w: asset %d offset %d + length %d overflows",
				ErrHeaderInvalid, i, asset.offset, asset.length)
		}
		if asset.offset+asset.length > h.indexOffset {
			return fmt.Errorf("%w: asset %d [%d, %d) extends into the index block at %d",
				ErrHeaderInvalid, i, asset.offset, asset.offset+asset.length, h.indexOffset)
		}
		if asset.reamExp < h.alignExp || asset.reamExp > MaxReamExponent {
			return fmt.Errorf("%w: asset %d ream exponent %d outside [%d, %d]",
				ErrHeaderInvalid, i, asset.reamExp, h.alignExp, MaxReamExponent)
		}
		if err := validateContentType(asset.contentType); err != nil {
			return fmt.Errorf("%w: asset %d: %v", ErrHeaderInvalid, i, err)
		}
	}

	for i, assetIndex := range ix.pages {
		if int(assetIndex) >= len(ix.assets) {
			return fmt.Errorf("%w: page %d references asset %d of %d",
				ErrHeaderInvalid, i, assetIndex, len(ix.assets))
		}
	}

	// Sibling name uniqueness is per parent; the map key is the
	// parent's declaration index (noParent for roots).
	siblings := make(map[uint32]map[string]bool)
	for i, section := range ix.sections {
		if section.name == "" {
			return fmt.Errorf("%w: section %d has an empty name", ErrHeaderInvalid, i)
		}
		if section.parent != noParent && section.parent >= uint32(i) {
			return fmt.Errorf("%w: section %d parent %d is not declared earlier",
				ErrHeaderInvalid, i, section.parent)
		}
		if int(section.page) >= len(ix.pages) {
			return fmt.Errorf("%w: section %d targets page %d of %d",
				ErrHeaderInvalid, i, section.page, len(ix.pages))
		}
		names := siblings[section.parent]
		if names == nil {
			names = make(map[string]bool)
			siblings[section.parent] = names
		}
		if names[section.name] {
			return fmt.Errorf("%w: section %d name %q repeats under parent %d",
				ErrHeaderInvalid, i, section.name, int32(section.parent))
		}
		names[section.name] = true
	}

	scopes := make(map[uint32]map[string]bool)
	for i, entry := range ix.metadata {
		if entry.key == "" {
			return fmt.Errorf("%w: metadata %d has an empty key", ErrHeaderInvalid, i)
		}
		if entry.parent != noParent && int(entry.parent) >= len(ix.sections) {
			return fmt.Errorf("%w: metadata %d references section %d of %d",
				ErrHeaderInvalid, i, entry.parent, len(ix.sections))
		}
		keys := scopes[entry.parent]
		if keys == nil {
			keys = make(map[string]bool)
			scopes[entry.parent] = keys
		}
		if keys[entry.key] {
			return fmt.Errorf("%w: metadata %d key %q repeats in its scope", ErrHeaderInvalid, i, entry.key)
		}
		keys[entry.key] = true
	}

	return nil
}
