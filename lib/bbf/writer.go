// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package bbf

import (
	"fmt"
	"io"
	"math"
)

// Config carries the writer parameters fixed at open time. Together
// with the sequence of writer calls they fully determine the output
// bytes: two writers given the same configuration and the same calls
// produce byte-identical files.
type Config struct {
	// AlignmentExponent a places every asset at a multiple of 2^a.
	// Valid range 0..=30.
	AlignmentExponent uint8

	// ReamExponent r sets the nominal ream size 2^r. Valid range
	// a..=40.
	ReamExponent uint8

	// VariableReam gives each asset a private power-of-two ream
	// sized to fit, instead of guard-aligned packing.
	VariableReam bool

	// Timestamp is the creation time in seconds since the Unix
	// epoch, stored verbatim in the header.
	Timestamp int64
}

// DefaultConfig returns the standard configuration: 4KB alignment,
// 64KB reams, variable reams enabled. The caller supplies the
// timestamp.
func DefaultConfig() Config {
	return Config{
		AlignmentExponent: DefaultAlignmentExponent,
		ReamExponent:      DefaultReamExponent,
		VariableReam:      true,
	}
}

// NoParent marks a section or metadata entry as root-level.
const NoParent = -1

type writerState int

const (
	// stateOpen: header written, no asset yet.
	stateOpen writerState = iota
	// stateAssets: at least one asset written; more assets, pages,
	// sections, and metadata may still arrive.
	stateAssets
	// stateFinalized: index and final header written; the writer is
	// done.
	stateFinalized
	// statePoisoned: an I/O error left the sink in an undefined
	// state.
	statePoisoned
)

// Writer assembles a BBF file in one pass. Asset bytes go straight to
// the sink (and through the region hasher) as they arrive; pages,
// sections, and metadata are buffered and emitted by Finalize. The
// writer owns the sink exclusively until Finalize; the caller opens
// and closes it.
//
// A failed validation (unknown asset, duplicate name, bad page index)
// aborts only the failing call. An I/O error poisons the writer:
// every later call fails with ErrWriterPoisoned. A file abandoned
// without Finalize keeps its placeholder header and is rejected by
// Open.
type Writer struct {
	sink   io.WriteSeeker
	cfg    Config
	state  writerState
	poison error

	alloc  allocator
	pos    uint64 // physical bytes emitted so far
	region *hasher

	ix     index
	dedupe map[Digest]uint32
}

// NewWriter validates the configuration, writes the placeholder
// header, and positions the allocator at the first aligned offset
// after the header.
func NewWriter(sink io.WriteSeeker, cfg Config) (*Writer, error) {
	if cfg.AlignmentExponent > MaxAlignmentExponent {
		return nil, fmt.Errorf("%w: alignment exponent %d exceeds %d",
			ErrHeaderInvalid, cfg.AlignmentExponent, MaxAlignmentExponent)
	}
	if cfg.ReamExponent < cfg.AlignmentExponent || cfg.ReamExponent > MaxReamExponent {
		return nil, fmt.Errorf("%w: ream exponent %d outside [%d, %d]",
			ErrHeaderInvalid, cfg.ReamExponent, cfg.AlignmentExponent, MaxReamExponent)
	}

	w := &Writer{
		sink:   sink,
		cfg:    cfg,
		alloc:  newAllocator(cfg.AlignmentExponent, cfg.ReamExponent, cfg.VariableReam, headerSize),
		pos:    headerSize,
		region: newHasher(regionDomainKey),
		dedupe: make(map[Digest]uint32),
	}

	placeholder := header{
		alignExp:     cfg.AlignmentExponent,
		reamExp:      cfg.ReamExponent,
		variableReam: cfg.VariableReam,
		timestamp:    cfg.Timestamp,
	}
	buf := placeholder.encode()
	if _, err := sink.Write(buf[:]); err != nil {
		w.state = statePoisoned
		w.poison = err
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return w, nil
}

// usable rejects calls on a finalized or poisoned writer.
func (w *Writer) usable() error {
	switch w.state {
	case statePoisoned:
		return fmt.Errorf("%w: %v", ErrWriterPoisoned, w.poison)
	case stateFinalized:
		return fmt.Errorf("writer is already finalized")
	}
	return nil
}

// emit writes asset-region bytes: to the sink and through the region
// hasher. Any sink error poisons the writer.
func (w *Writer) emit(b []byte) error {
	if _, err := w.sink.Write(b); err != nil {
		w.state = statePoisoned
		w.poison = err
		return fmt.Errorf("writing at offset %d: %w", w.pos, err)
	}
	w.region.Write(b)
	w.pos += uint64(len(b))
	return nil
}

// zeros is the shared padding source. Padding between assets is
// always zero.
var zeros [32 * 1024]byte

// pad emits zero bytes until the physical position reaches target.
func (w *Writer) pad(target uint64) error {
	for w.pos < target {
		n := target - w.pos
		if n > uint64(len(zeros)) {
			n = uint64(len(zeros))
		}
		if err := w.emit(zeros[:n]); err != nil {
			return err
		}
	}
	return nil
}

// AddAsset stores one blob and returns its permanent asset index.
// The bytes are written (and hashed) immediately; they are not
// retained past this call.
func (w *Writer) AddAsset(contentType string, data []byte) (uint32, error) {
	if err := w.usable(); err != nil {
		return 0, err
	}
	if err := validateContentType(contentType); err != nil {
		return 0, err
	}
	if uint64(len(data)) > maxBlobLength {
		return 0, fmt.Errorf("%w: asset of %d bytes exceeds %d", ErrOverflow, len(data), maxBlobLength)
	}
	if len(w.ix.assets) == math.MaxUint32 {
		return 0, fmt.Errorf("%w: asset table is full", ErrOverflow)
	}

	p := w.alloc.place(uint64(len(data)))
	if err := w.pad(p.offset); err != nil {
		return 0, err
	}
	if err := w.emit(data); err != nil {
		return 0, err
	}

	assetIndex := uint32(len(w.ix.assets))
	w.ix.assets = append(w.ix.assets, assetRecord{
		contentType: contentType,
		length:      uint64(len(data)),
		offset:      p.offset,
		reamExp:     p.reamExp,
		hash:        HashAsset(data),
	})
	w.state = stateAssets
	return assetIndex, nil
}

// AddAssetDeduped stores a blob unless an identical one (by content
// hash) was stored before, in which case the existing asset's index
// is returned and the sink is untouched. The reported boolean is true
// when a duplicate was found. The content type of the first copy
// wins.
func (w *Writer) AddAssetDeduped(contentType string, data []byte) (uint32, bool, error) {
	if err := w.usable(); err != nil {
		return 0, false, err
	}
	hash := HashAsset(data)
	if existing, ok := w.dedupe[hash]; ok {
		return existing, true, nil
	}
	assetIndex, err := w.AddAsset(contentType, data)
	if err != nil {
		return 0, false, err
	}
	w.dedupe[hash] = assetIndex
	return assetIndex, false, nil
}

// AddPage appends the next page of the reading sequence, referencing
// an existing asset. Assets may be referenced by any number of pages,
// including zero.
func (w *Writer) AddPage(assetIndex uint32) error {
	if err := w.usable(); err != nil {
		return err
	}
	if int(assetIndex) >= len(w.ix.assets) {
		return fmt.Errorf("%w: index %d of %d", ErrUnknownAsset, assetIndex, len(w.ix.assets))
	}
	w.ix.pages = append(w.ix.pages, assetIndex)
	return nil
}

// AddSection declares a named anchor at targetPage and returns its
// declaration index, which later sections and metadata may use as a
// parent. Pass NoParent for a root-level section. The target page
// must already be declared; sibling names must be unique.
func (w *Writer) AddSection(name string, targetPage uint32, parent int) (int, error) {
	if err := w.usable(); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, fmt.Errorf("section name must not be empty")
	}
	parentRef, err := w.parentRef(parent)
	if err != nil {
		return 0, err
	}
	if int(targetPage) >= len(w.ix.pages) {
		return 0, fmt.Errorf("%w: section %q targets page %d of %d",
			ErrPageOutOfRange, name, targetPage, len(w.ix.pages))
	}
	for _, section := range w.ix.sections {
		if section.parent == parentRef && section.name == name {
			return 0, fmt.Errorf("%w: %q under parent %d", ErrDuplicateSection, name, parent)
		}
	}
	w.ix.sections = append(w.ix.sections, sectionRecord{
		name:   name,
		page:   targetPage,
		parent: parentRef,
	})
	return len(w.ix.sections) - 1, nil
}

// AddMetadata attaches a key/value pair to the book (parent ==
// NoParent) or to a declared section. Keys must be unique within
// their parent scope; declaration order is preserved in the file.
func (w *Writer) AddMetadata(key, value string, parent int) error {
	if err := w.usable(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("metadata key must not be empty")
	}
	parentRef, err := w.parentRef(parent)
	if err != nil {
		return err
	}
	for _, entry := range w.ix.metadata {
		if entry.parent == parentRef && entry.key == key {
			return fmt.Errorf("%w: %q under parent %d", ErrDuplicateMetadataKey, key, parent)
		}
	}
	w.ix.metadata = append(w.ix.metadata, metadataRecord{
		key:    key,
		value:  value,
		parent: parentRef,
	})
	return nil
}

// parentRef converts an API parent (NoParent or a declaration index)
// into the serialized form.
func (w *Writer) parentRef(parent int) (uint32, error) {
	if parent == NoParent {
		return noParent, nil
	}
	if parent < 0 || parent >= len(w.ix.sections) {
		return 0, fmt.Errorf("%w: section %d of %d", ErrUnknownParent, parent, len(w.ix.sections))
	}
	return uint32(parent), nil
}

// AssetCount returns the number of assets stored so far.
func (w *Writer) AssetCount() int { return len(w.ix.assets) }

// PageCount returns the number of pages declared so far.
func (w *Writer) PageCount() int { return len(w.ix.pages) }

// SectionCount returns the number of sections declared so far.
func (w *Writer) SectionCount() int { return len(w.ix.sections) }

// Finalize pads to the next aligned offset, writes the index block,
// and rewrites the header with the final offsets and digests. After a
// successful Finalize all bytes have reached the sink (Flush/Sync is
// called when the sink provides one) and the file is complete: it
// ends immediately after the index block.
func (w *Writer) Finalize() error {
	if err := w.usable(); err != nil {
		return err
	}

	indexOffset := w.alloc.cursor
	if err := w.pad(indexOffset); err != nil {
		return err
	}
	fileHash := w.region.Sum()

	indexBytes, err := w.ix.encode()
	if err != nil {
		return err
	}
	indexHasher := newHasher(indexDomainKey)
	indexHasher.Write(indexBytes)

	if _, err := w.sink.Write(indexBytes); err != nil {
		w.state = statePoisoned
		w.poison = err
		return fmt.Errorf("writing index block at offset %d: %w", indexOffset, err)
	}

	final := header{
		alignExp:     w.cfg.AlignmentExponent,
		reamExp:      w.cfg.ReamExponent,
		variableReam: w.cfg.VariableReam,
		timestamp:    w.cfg.Timestamp,
		indexOffset:  indexOffset,
		indexLength:  uint64(len(indexBytes)),
		indexHash:    indexHasher.Sum(),
		fileHash:     fileHash,
	}
	buf := final.encode()
	if _, err := w.sink.Seek(0, io.SeekStart); err != nil {
		w.state = statePoisoned
		w.poison = err
		return fmt.Errorf("seeking to header: %w", err)
	}
	if _, err := w.sink.Write(buf[:]); err != nil {
		w.state = statePoisoned
		w.poison = err
		return fmt.Errorf("rewriting header: %w", err)
	}

	// Push buffered bytes to stable storage when the sink knows how.
	switch sink := w.sink.(type) {
	case interface{ Flush() error }:
		if err := sink.Flush(); err != nil {
			w.state = statePoisoned
			w.poison = err
			return fmt.Errorf("flushing sink: %w", err)
		}
	case interface{ Sync() error }:
		if err := sink.Sync(); err != nil {
			w.state = statePoisoned
			w.poison = err
			return fmt.Errorf("syncing sink: %w", err)
		}
	}

	w.state = stateFinalized
	return nil
}
