// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest serializes a book's logical content — assets with
// their hashes, the page sequence, the section forest, and metadata —
// as a CBOR document for external tooling (catalog indexers, sync
// jobs, test fixtures). Encoding uses Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items, so the same book always produces identical
// manifest bytes.
//
// Struct types use json tags — fxamacker/cbor falls back to json
// tags, so the same types marshal to JSON for human inspection.
package manifest

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/boundbook/boundbook/lib/bbf"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding. Same logical data always produces identical bytes.
var encMode cbor.EncMode

// decMode is the CBOR decoder. Unknown fields are ignored for
// forward compatibility.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("manifest: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("manifest: CBOR decoder initialization failed: " + err.Error())
	}
}

// Asset describes one stored blob. Hash is the hex-encoded content
// digest.
type Asset struct {
	Index       uint32 `json:"index"`
	ContentType string `json:"content_type"`
	Length      uint64 `json:"length"`
	Hash        string `json:"hash"`
}

// Entry is one metadata key/value pair, in declaration order.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Section mirrors one node of the section forest.
type Section struct {
	Name     string    `json:"name"`
	Page     uint32    `json:"page"`
	Metadata []Entry   `json:"metadata,omitempty"`
	Children []Section `json:"children,omitempty"`
}

// Manifest is the complete logical description of one book.
type Manifest struct {
	FormatVersion     int       `json:"format_version"`
	CreatedAt         int64     `json:"created_at"`
	AlignmentExponent uint8     `json:"alignment_exponent"`
	ReamExponent      uint8     `json:"ream_exponent"`
	VariableReam      bool      `json:"variable_ream"`
	Assets            []Asset   `json:"assets"`
	Pages             []uint32  `json:"pages"`
	Sections          []Section `json:"sections,omitempty"`
	Metadata          []Entry   `json:"metadata,omitempty"`
}

// FromReader captures an open book's logical content. Asset bytes are
// not read; the manifest carries the hashes already recorded in the
// index.
func FromReader(r *bbf.Reader) (*Manifest, error) {
	m := &Manifest{
		FormatVersion:     bbf.FormatVersion,
		CreatedAt:         r.CreatedAt().Unix(),
		AlignmentExponent: r.AlignmentExponent(),
		ReamExponent:      r.ReamExponent(),
		VariableReam:      r.VariableReam(),
	}

	for i := range r.AssetCount() {
		info, err := r.Asset(i)
		if err != nil {
			return nil, err
		}
		m.Assets = append(m.Assets, Asset{
			Index:       info.Index,
			ContentType: info.ContentType,
			Length:      info.Length,
			Hash:        bbf.FormatDigest(info.ContentHash),
		})
	}

	for i := range r.PageCount() {
		assetIndex, err := r.PageAsset(i)
		if err != nil {
			return nil, err
		}
		m.Pages = append(m.Pages, assetIndex)
	}

	for _, root := range r.Sections() {
		m.Sections = append(m.Sections, sectionFromNode(root))
	}

	book, err := r.Metadata("")
	if err != nil {
		return nil, err
	}
	for _, entry := range book {
		m.Metadata = append(m.Metadata, Entry{Key: entry.Key, Value: entry.Value})
	}
	return m, nil
}

func sectionFromNode(node *bbf.SectionNode) Section {
	section := Section{Name: node.Name, Page: node.Page}
	for _, entry := range node.Metadata {
		section.Metadata = append(section.Metadata, Entry{Key: entry.Key, Value: entry.Value})
	}
	for _, child := range node.Children {
		section.Children = append(section.Children, sectionFromNode(child))
	}
	return section
}

// Encode serializes the manifest with Core Deterministic Encoding.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := encMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return data, nil
}

// Decode parses a CBOR manifest.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := decMode.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}
