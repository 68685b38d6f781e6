// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

// Package bbf implements the Bound Book Format (BBF) version 3: a
// self-contained, content-addressed container for page-oriented media.
// A BBF file stores opaque assets (images, GIFs, arbitrary blobs) at
// aligned offsets, an ordered page sequence referencing those assets,
// a hierarchical section tree, and key/value metadata, all described
// by a single exact-length index block at the end of the file.
//
// The package is organized in layers, each usable independently:
//
//   - Hashing: BLAKE3 with domain-separated keyed mode. Three domains
//     (asset, region, index) prevent cross-domain collisions. Every
//     asset carries a content hash; the file carries a digest of the
//     whole asset region and a digest of the index block, so any
//     single asset can be verified without reading unrelated bytes.
//
//   - Ream allocation: assets are placed at offsets that are multiples
//     of 2^a (the alignment exponent, default 4KB) inside logical
//     "reams" of nominal size 2^r. With variable reams enabled, each
//     asset occupies its own power-of-two ream sized to fit. Placement
//     is a pure function of the asset length sequence and the
//     configuration, so the same inputs always produce the same file.
//
//   - Index model: a canonical little-endian serialization of the
//     asset table, page sequence, section forest, and metadata list.
//     The index block's length is exact; trailing bytes are an error.
//
//   - Writer: single-pass assembly. Asset bytes are written (and
//     hashed) as they arrive; pages, sections, and metadata are
//     buffered until Finalize, which emits the index and rewrites the
//     header with the final offsets and digests. An unrecoverable I/O
//     error poisons the writer; a file abandoned before Finalize keeps
//     its placeholder header and is rejected by readers.
//
//   - Reader: validates the header and the index digest on open, then
//     answers random-access queries in O(1) per asset. Verification is
//     on demand: per asset, index only, or the full file.
//
// The container stores asset bytes verbatim. Compression, encryption,
// and image decoding are the producer's and consumer's business; the
// format sees only a content-type tag and a blob.
package bbf
