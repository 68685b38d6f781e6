// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/boundbook/boundbook/lib/bbf"
)

// metaDecl is a parsed --meta flag value.
type metaDecl struct {
	key    string
	value  string
	parent string // section name, empty for book-level
}

// sectionDecl is a parsed --section flag value.
type sectionDecl struct {
	name   string
	page   uint32
	parent string // section name, empty for root-level
}

// parseMetaFlag parses "Key:Value[:Parent]". The value may not
// contain a colon: everything after a second colon is read as the
// parent section name. Use a book definition file for values with
// rich punctuation.
func parseMetaFlag(raw string) (metaDecl, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return metaDecl{}, fmt.Errorf("--meta %q: want Key:Value[:Parent]", raw)
	}
	decl := metaDecl{key: parts[0], value: parts[1]}
	if len(parts) == 3 {
		decl.parent = parts[2]
	}
	return decl, nil
}

// parseSectionFlag parses "Name:Target[:Parent]" where Target is a
// 0-based page number.
func parseSectionFlag(raw string) (sectionDecl, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return sectionDecl{}, fmt.Errorf("--section %q: want Name:Target[:Parent]", raw)
	}
	page, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return sectionDecl{}, fmt.Errorf("--section %q: target page %q is not a number", raw, parts[1])
	}
	decl := sectionDecl{name: parts[0], page: uint32(page)}
	if len(parts) == 3 {
		decl.parent = parts[2]
	}
	return decl, nil
}

// applyDecls replays --section and --meta flag values onto a writer,
// after its pages are declared. Sections go first so metadata can
// reference them. Parents are resolved by section name; the first
// declaration of a name wins, so parent names should be unique.
func applyDecls(w *bbf.Writer, sectionFlags, metaFlags []string) error {
	sectionIndex := make(map[string]int)

	for _, raw := range sectionFlags {
		decl, err := parseSectionFlag(raw)
		if err != nil {
			return err
		}
		parent := bbf.NoParent
		if decl.parent != "" {
			declared, ok := sectionIndex[decl.parent]
			if !ok {
				return fmt.Errorf("--section %q: parent %q is not declared earlier", raw, decl.parent)
			}
			parent = declared
		}
		declared, err := w.AddSection(decl.name, decl.page, parent)
		if err != nil {
			return fmt.Errorf("--section %q: %w", raw, err)
		}
		if _, exists := sectionIndex[decl.name]; !exists {
			sectionIndex[decl.name] = declared
		}
	}

	for _, raw := range metaFlags {
		decl, err := parseMetaFlag(raw)
		if err != nil {
			return err
		}
		parent := bbf.NoParent
		if decl.parent != "" {
			declared, ok := sectionIndex[decl.parent]
			if !ok {
				return fmt.Errorf("--meta %q: section %q is not declared", raw, decl.parent)
			}
			parent = declared
		}
		if err := w.AddMetadata(decl.key, decl.value, parent); err != nil {
			return fmt.Errorf("--meta %q: %w", raw, err)
		}
	}
	return nil
}
