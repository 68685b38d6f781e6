// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package bbf

import "errors"

// The enumerated failure kinds of the format engine. Every error
// returned by this package either wraps exactly one of these
// sentinels (match with errors.Is) or wraps an underlying I/O error
// from the caller's sink or source unchanged. Wrapped messages name
// the offending byte offset or record index where one exists. The
// exceptions are plain errors that wrap neither: an empty section
// name or metadata key passed to the Writer, any call on a Writer
// that is already finalized, and ParseDigest's parse failures.
var (
	// ErrUnexpectedEOF means the source ended before a complete
	// field, record, or asset could be read.
	ErrUnexpectedEOF = errors.New("unexpected end of input")

	// ErrMalformedUTF8 means a decoded string field is not
	// well-formed UTF-8.
	ErrMalformedUTF8 = errors.New("malformed UTF-8 string")

	// ErrOverflow means a decoded or supplied length exceeds the
	// 1 GiB per-value limit.
	ErrOverflow = errors.New("length exceeds limit")

	// ErrMagicMismatch means the file does not start with the BBF
	// magic bytes.
	ErrMagicMismatch = errors.New("not a BBF file")

	// ErrUnsupportedVersion means the file declares a format version
	// this package does not implement.
	ErrUnsupportedVersion = errors.New("unsupported BBF version")

	// ErrHeaderInvalid means the header or index carries out-of-range
	// exponents, impossible offsets, or other structural corruption.
	// A file abandoned before Finalize is rejected with this kind:
	// its placeholder header has a zero index offset.
	ErrHeaderInvalid = errors.New("invalid header")

	// ErrTrailingGarbage means bytes follow the index block, or the
	// index block contains bytes beyond its last record. The index
	// length is exact.
	ErrTrailingGarbage = errors.New("trailing bytes")

	// ErrIndexHashMismatch means the index block does not match the
	// index digest recorded in the header.
	ErrIndexHashMismatch = errors.New("index hash mismatch")

	// ErrFileHashMismatch means the asset region does not match the
	// file digest recorded in the header.
	ErrFileHashMismatch = errors.New("file hash mismatch")

	// ErrAssetHashMismatch means an asset's bytes do not match its
	// recorded content hash.
	ErrAssetHashMismatch = errors.New("asset hash mismatch")

	// ErrUnknownAsset means an asset index is out of range.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrUnknownParent means a section or metadata parent reference
	// does not name a previously declared section.
	ErrUnknownParent = errors.New("unknown parent section")

	// ErrDuplicateSection means a section name collides with a
	// sibling under the same parent.
	ErrDuplicateSection = errors.New("duplicate section name")

	// ErrDuplicateMetadataKey means a metadata key collides within
	// its parent scope.
	ErrDuplicateMetadataKey = errors.New("duplicate metadata key")

	// ErrPageOutOfRange means a page index is not in [0, PageCount).
	ErrPageOutOfRange = errors.New("page index out of range")

	// ErrContentTypeInvalid means an asset content-type tag is empty
	// or ill-formed.
	ErrContentTypeInvalid = errors.New("invalid content type")

	// ErrWriterPoisoned means an earlier I/O error left the output in
	// an undefined state; the writer refuses all further operations.
	ErrWriterPoisoned = errors.New("writer poisoned")
)
