// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package bbf

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ContentTypeOctetStream is the fallback tag for assets whose format
// is unknown. The container treats every asset as an opaque blob; the
// tag exists so consumers can pick a decoder.
const ContentTypeOctetStream = "application/octet-stream"

// extensionTypes maps lowercase file extensions (without the dot) to
// content-type tags, covering the page image formats book producers
// actually use.
var extensionTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"avif": "image/avif",
	"webp": "image/webp",
	"jxl":  "image/jxl",
	"bmp":  "image/bmp",
	"gif":  "image/gif",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
}

// typeExtensions is the preferred extension per content type, used
// when extracting assets back to files.
var typeExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/avif": ".avif",
	"image/webp": ".webp",
	"image/jxl":  ".jxl",
	"image/bmp":  ".bmp",
	"image/gif":  ".gif",
	"image/tiff": ".tiff",
}

// ContentTypeForExtension returns the content-type tag for a file
// extension (with or without the leading dot), or
// ContentTypeOctetStream when the extension is not recognized.
func ContentTypeForExtension(ext string) string {
	key := strings.ToLower(strings.TrimPrefix(ext, "."))
	if contentType, ok := extensionTypes[key]; ok {
		return contentType
	}
	return ContentTypeOctetStream
}

// ExtensionForContentType returns the preferred file extension
// (including the leading dot) for a content-type tag, or ".bin" when
// the tag is not a known image type.
func ExtensionForContentType(contentType string) string {
	if ext, ok := typeExtensions[contentType]; ok {
		return ext
	}
	return ".bin"
}

// IsImageContentType reports whether the tag names an image format.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// maxContentTypeLength bounds the tag so a corrupt length cannot turn
// into a giant allocation when the index is read back.
const maxContentTypeLength = 255

// validateContentType checks a tag the writer is about to store:
// non-empty, well-formed UTF-8, no control characters or spaces, and
// within the length bound.
func validateContentType(contentType string) error {
	if contentType == "" {
		return fmt.Errorf("%w: empty tag", ErrContentTypeInvalid)
	}
	if len(contentType) > maxContentTypeLength {
		return fmt.Errorf("%w: tag of %d bytes exceeds %d", ErrContentTypeInvalid, len(contentType), maxContentTypeLength)
	}
	if !utf8.ValidString(contentType) {
		return fmt.Errorf("%w: tag is not valid UTF-8", ErrContentTypeInvalid)
	}
	for _, r := range contentType {
		if r <= ' ' || r == 0x7f {
			return fmt.Errorf("%w: tag contains %q", ErrContentTypeInvalid, r)
		}
	}
	return nil
}
