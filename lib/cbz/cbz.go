// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

// Package cbz converts CBZ comic archives (plain zip files of page
// images) into BBF books. Image entries are sorted by filename —
// the page order convention CBZ readers follow — and each becomes
// one asset and one page. Identical images (by content hash) can be
// stored once and referenced by multiple pages.
package cbz

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/boundbook/boundbook/lib/bbf"
)

// Options controls a conversion.
type Options struct {
	// Config is passed through to the BBF writer.
	Config bbf.Config

	// Dedupe stores byte-identical page images once.
	Dedupe bool

	// Apply, when set, runs against the writer after all pages are
	// added and before Finalize. Callers hang metadata and sections
	// off the book here.
	Apply func(*bbf.Writer) error

	// Logger receives per-entry progress at debug level. Nil means
	// silent.
	Logger *slog.Logger
}

// Stats reports what a conversion did.
type Stats struct {
	// Pages is the number of page entries written.
	Pages int

	// Assets is the number of distinct assets stored.
	Assets int

	// Deduped counts pages that reused an earlier asset.
	Deduped int

	// Skipped counts archive entries that were not page images
	// (directories, metadata files, unknown extensions).
	Skipped int
}

// Convert reads page images from an open zip archive and writes them
// through w in filename order. The caller finalizes the writer;
// Convert only adds assets and pages (and runs Options.Apply).
func Convert(archive *zip.Reader, w *bbf.Writer, opts Options) (*Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	entries := make([]*zip.File, 0, len(archive.File))
	stats := &Stats{}
	for _, entry := range archive.File {
		if entry.FileInfo().IsDir() || !isPageImage(entry.Name) {
			stats.Skipped++
			logger.Debug("skipping entry", "name", entry.Name)
			continue
		}
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b *zip.File) int {
		return strings.Compare(a.Name, b.Name)
	})

	for _, entry := range entries {
		data, err := readEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("archive entry %q: %w", entry.Name, err)
		}
		contentType := bbf.ContentTypeForExtension(path.Ext(entry.Name))

		var assetIndex uint32
		var dup bool
		if opts.Dedupe {
			assetIndex, dup, err = w.AddAssetDeduped(contentType, data)
		} else {
			assetIndex, err = w.AddAsset(contentType, data)
		}
		if err != nil {
			return nil, fmt.Errorf("storing %q: %w", entry.Name, err)
		}
		if err := w.AddPage(assetIndex); err != nil {
			return nil, fmt.Errorf("paging %q: %w", entry.Name, err)
		}

		stats.Pages++
		if dup {
			stats.Deduped++
		} else {
			stats.Assets++
		}
		logger.Debug("added page", "name", entry.Name, "asset", assetIndex, "bytes", len(data), "dedup", dup)
	}

	if opts.Apply != nil {
		if err := opts.Apply(w); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// ConvertFile converts a CBZ archive on disk into a new BBF file.
// The output is created (truncating any existing file), finalized,
// and synced before return.
func ConvertFile(archivePath, outputPath string, opts Options) (*Stats, error) {
	archive, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", archivePath, err)
	}
	defer archive.Close()

	output, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer output.Close()

	w, err := bbf.NewWriter(output, opts.Config)
	if err != nil {
		return nil, err
	}
	stats, err := Convert(&archive.Reader, w, opts)
	if err != nil {
		return nil, err
	}
	if err := w.Finalize(); err != nil {
		return nil, fmt.Errorf("finalizing %s: %w", outputPath, err)
	}
	return stats, nil
}

// isPageImage reports whether an archive entry name looks like a
// page image. CBZ archives routinely carry ComicInfo.xml and
// thumbnail sidecars; only recognized image extensions count.
func isPageImage(name string) bool {
	return bbf.IsImageContentType(bbf.ContentTypeForExtension(path.Ext(name)))
}

// readEntry decompresses one archive entry fully into memory.
func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
