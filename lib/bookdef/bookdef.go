// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

// Package bookdef provides parsing, validation, and application of
// YAML book definitions. A book definition is the hand-authored
// sidecar describing everything about a book that its page images
// don't carry: metadata entries and the section tree. Metadata and
// sections are ordered lists, not maps, because declaration order is
// part of the book's canonical serialization.
//
// The typical flow:
//
//  1. ReadFile or Parse: YAML bytes → Definition
//  2. Validate: structural checks (names, keys, sibling uniqueness)
//  3. Apply: replay the definition onto a bbf.Writer after its pages
//     are declared
package bookdef

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/boundbook/boundbook/lib/bbf"
)

// Metadata is one key/value entry.
type Metadata struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Section is one node of the section tree. Page is the 0-based page
// the section anchors to; Children nest arbitrarily deep.
type Section struct {
	Name     string     `yaml:"name"`
	Page     uint32     `yaml:"page"`
	Metadata []Metadata `yaml:"metadata"`
	Children []Section  `yaml:"children"`
}

// Definition is a complete book definition.
type Definition struct {
	Metadata []Metadata `yaml:"metadata"`
	Sections []Section  `yaml:"sections"`
}

// Parse unmarshals a YAML book definition. Unknown fields are
// rejected so typos surface instead of silently dropping data.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&def); err != nil {
		return nil, fmt.Errorf("parsing book definition: %w", err)
	}
	return &def, nil
}

// ReadFile reads and parses a YAML book definition from disk.
func ReadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Validate checks the definition's own shape: non-empty names and
// keys, unique sibling section names, unique metadata keys per
// scope. Page bounds are checked by Apply, which knows the writer's
// page count.
func (d *Definition) Validate() error {
	if err := validateMetadata(d.Metadata, "book"); err != nil {
		return err
	}
	return validateSections(d.Sections, "")
}

func validateMetadata(entries []Metadata, scope string) error {
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.Key == "" {
			return fmt.Errorf("%s: metadata entry with empty key", scope)
		}
		if seen[entry.Key] {
			return fmt.Errorf("%s: metadata key %q repeats", scope, entry.Key)
		}
		seen[entry.Key] = true
	}
	return nil
}

func validateSections(sections []Section, parentPath string) error {
	seen := make(map[string]bool)
	for _, section := range sections {
		if section.Name == "" {
			return fmt.Errorf("section under %q with empty name", orRoot(parentPath))
		}
		path := section.Name
		if parentPath != "" {
			path = parentPath + "/" + section.Name
		}
		if seen[section.Name] {
			return fmt.Errorf("section %q repeats under %q", section.Name, orRoot(parentPath))
		}
		seen[section.Name] = true
		if err := validateMetadata(section.Metadata, path); err != nil {
			return err
		}
		if err := validateSections(section.Children, path); err != nil {
			return err
		}
	}
	return nil
}

func orRoot(path string) string {
	if path == "" {
		return "root"
	}
	return path
}

// Apply replays the definition onto a writer: book metadata first,
// then the section tree depth-first (parents before children), each
// section followed by its scoped metadata. Pages must already be
// declared on the writer so section targets can be range-checked.
func (d *Definition) Apply(w *bbf.Writer) error {
	if err := d.Validate(); err != nil {
		return err
	}
	for _, entry := range d.Metadata {
		if err := w.AddMetadata(entry.Key, entry.Value, bbf.NoParent); err != nil {
			return err
		}
	}
	return applySections(w, d.Sections, bbf.NoParent)
}

func applySections(w *bbf.Writer, sections []Section, parent int) error {
	for _, section := range sections {
		declared, err := w.AddSection(section.Name, section.Page, parent)
		if err != nil {
			return fmt.Errorf("section %q: %w", section.Name, err)
		}
		for _, entry := range section.Metadata {
			if err := w.AddMetadata(entry.Key, entry.Value, declared); err != nil {
				return fmt.Errorf("section %q: %w", section.Name, err)
			}
		}
		if err := applySections(w, section.Children, declared); err != nil {
			return err
		}
	}
	return nil
}
