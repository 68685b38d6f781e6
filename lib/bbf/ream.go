// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package bbf

import "math/bits"

// Exponent bounds and defaults. The alignment exponent a gives asset
// alignment 2^a; the ream exponent r gives the nominal ream size 2^r
// and must satisfy a <= r.
const (
	MaxAlignmentExponent = 30
	MaxReamExponent      = 40

	// DefaultAlignmentExponent is 2^12 = 4KB, matching the common
	// page size for memory-mapped access.
	DefaultAlignmentExponent = 12

	// DefaultReamExponent is 2^16 = 64KB.
	DefaultReamExponent = 16
)

// placement is the allocator's decision for one asset: where it
// starts, the ream exponent recorded for it, and the cursor position
// for the next asset. Padding between end-of-asset and next is
// always zero bytes.
type placement struct {
	offset  uint64
	reamExp uint8
	next    uint64
}

// allocator computes aligned on-disk placement. It is a pure function
// of the asset length sequence and its parameters: the same inputs
// always yield the same offsets, which is what makes the container's
// canonical form possible.
//
// With variable reams off, every asset is placed at the next 2^a
// boundary and followed by at least one zero guard byte before the
// next boundary, so two assets never share an aligned slot. With
// variable reams on, each asset occupies a private power-of-two ream:
// 2^a for assets that fit one alignment slot, otherwise the smallest
// power of two that holds the asset. An exact-fit asset is followed
// directly by the next one, with no guard byte.
type allocator struct {
	alignExp     uint8
	reamExp      uint8
	variableReam bool
	cursor       uint64
}

// newAllocator starts placing at the first aligned offset at or after
// start.
func newAllocator(alignExp, reamExp uint8, variableReam bool, start uint64) allocator {
	return allocator{
		alignExp:     alignExp,
		reamExp:      reamExp,
		variableReam: variableReam,
		cursor:       alignUp(start, uint64(1)<<alignExp),
	}
}

// place assigns the next asset of the given length and advances the
// cursor.
func (a *allocator) place(length uint64) placement {
	align := uint64(1) << a.alignExp
	offset := alignUp(a.cursor, align)

	p := placement{offset: offset, reamExp: a.reamExp}
	switch {
	case !a.variableReam:
		// Guard alignment: the +1 forces at least one zero byte
		// after the asset, so an asset ending exactly on a boundary
		// still skips to the following one.
		p.next = alignUp(offset+length+1, align)
	case length <= align:
		// Fits one alignment slot (including the zero-length case,
		// which consumes exactly one slot).
		p.next = offset + align
	default:
		exp := ceilLog2(length)
		p.reamExp = exp
		p.next = offset + uint64(1)<<exp
	}
	a.cursor = p.next
	return p
}

// alignUp rounds v up to the next multiple of pow2 (a power of two).
func alignUp(v, pow2 uint64) uint64 {
	return (v + pow2 - 1) &^ (pow2 - 1)
}

// ceilLog2 returns the smallest e with 2^e >= v. v must be > 0.
func ceilLog2(v uint64) uint8 {
	return uint8(bits.Len64(v - 1))
}
