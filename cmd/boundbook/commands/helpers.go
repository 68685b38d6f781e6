// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/boundbook/boundbook/lib/bbf"
	"github.com/boundbook/boundbook/lib/bookdef"
)

// bookConfig assembles a writer configuration from the shared
// create/from-cbz flags. A zero timestamp means "now".
func bookConfig(alignment, reamSize uint8, variableReam bool, timestamp int64) bbf.Config {
	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}
	return bbf.Config{
		AlignmentExponent: alignment,
		ReamExponent:      reamSize,
		VariableReam:      variableReam,
		Timestamp:         timestamp,
	}
}

// applyBookShape applies the optional book definition file and the
// --section/--meta flag declarations to a writer whose pages are in
// place.
func applyBookShape(w *bbf.Writer, bookDefPath string, sectionFlags, metaFlags []string) error {
	if bookDefPath != "" {
		def, err := bookdef.ReadFile(bookDefPath)
		if err != nil {
			return err
		}
		if err := def.Apply(w); err != nil {
			return fmt.Errorf("%s: %w", bookDefPath, err)
		}
	}
	return applyDecls(w, sectionFlags, metaFlags)
}

// openBook opens a BBF file for reading. The caller closes the
// returned file.
func openBook(path string) (*os.File, *bbf.Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	reader, err := bbf.Open(file)
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, reader, nil
}
