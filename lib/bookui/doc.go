// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

// Package bookui implements the terminal book browser: a bubbletea
// model over an open BBF reader showing the page sequence, the
// section tree, and metadata, with on-demand integrity checks.
//
// The browser displays what the container knows — content types,
// sizes, hashes, structure. It does not decode or render image
// bytes; that belongs to richer frontends built on the same reader.
//
// The model owns the reader for the program's lifetime: reader
// calls happen inside Update, never from concurrent commands,
// because the reader carries a file cursor.
package bookui
