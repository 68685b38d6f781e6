// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package bbf

import (
	"bytes"
	"errors"
	"testing"
)

func TestReaderRangeChecks(t *testing.T) {
	file := buildBook(t, testConfig())
	r, err := Open(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := r.Asset(-1); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("Asset(-1) = %v, want ErrUnknownAsset", err)
	}
	if _, err := r.Asset(r.AssetCount()); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("Asset(count) = %v, want ErrUnknownAsset", err)
	}
	if _, err := r.AssetBytes(99); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("AssetBytes(99) = %v, want ErrUnknownAsset", err)
	}
	if err := r.VerifyAsset(99); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("VerifyAsset(99) = %v, want ErrUnknownAsset", err)
	}
	if _, err := r.PageAsset(-1); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("PageAsset(-1) = %v, want ErrPageOutOfRange", err)
	}
	if _, err := r.PageAsset(r.PageCount()); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("PageAsset(count) = %v, want ErrPageOutOfRange", err)
	}
}

func TestReaderErrorsDoNotStick(t *testing.T) {
	// A failed lookup must not disturb later reads: the reader is
	// retryable.
	file := buildBook(t, testConfig())
	r, err := Open(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := r.AssetBytes(99); err == nil {
		t.Fatal("out-of-range read succeeded")
	}
	if _, err := r.PageBytes(0); err != nil {
		t.Errorf("PageBytes after failed lookup: %v", err)
	}
	if err := r.VerifyFull(); err != nil {
		t.Errorf("VerifyFull after failed lookup: %v", err)
	}
}

func TestReaderHeaderFieldValidation(t *testing.T) {
	file := buildBook(t, testConfig())

	mutate := func(offset int, value byte) []byte {
		mutated := bytes.Clone(file)
		mutated[offset] = value
		return mutated
	}

	// Alignment exponent beyond the cap.
	if _, err := Open(bytes.NewReader(mutate(6, 31))); !errors.Is(err, ErrHeaderInvalid) {
		t.Errorf("alignment exponent 31 = %v, want ErrHeaderInvalid", err)
	}
	// Ream exponent below the alignment exponent.
	if _, err := Open(bytes.NewReader(mutate(7, 5))); !errors.Is(err, ErrHeaderInvalid) {
		t.Errorf("ream exponent 5 = %v, want ErrHeaderInvalid", err)
	}
	// Variable-ream flag outside {0, 1}.
	if _, err := Open(bytes.NewReader(mutate(8, 2))); !errors.Is(err, ErrHeaderInvalid) {
		t.Errorf("flag byte 2 = %v, want ErrHeaderInvalid", err)
	}
}

func TestReaderSectionsShape(t *testing.T) {
	file := buildBook(t, testConfig())
	r, err := Open(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	roots := r.Sections()
	if len(roots) != 1 || roots[0].Name != "part1" {
		t.Fatalf("roots = %+v", roots)
	}
	if len(roots[0].Metadata) != 1 || roots[0].Metadata[0].Key != "Note" {
		t.Errorf("part1 metadata = %+v", roots[0].Metadata)
	}
}

func TestReaderConfigAccessors(t *testing.T) {
	file := buildBook(t, testConfig())
	r, err := Open(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.AlignmentExponent() != 12 || r.ReamExponent() != 16 || r.VariableReam() {
		t.Errorf("config accessors = a %d, r %d, variable %v",
			r.AlignmentExponent(), r.ReamExponent(), r.VariableReam())
	}
	if r.Size() != int64(len(file)) {
		t.Errorf("Size() = %d, want %d", r.Size(), len(file))
	}
}
