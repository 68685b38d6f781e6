// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the boundbook CLI command tree.
package commands

import (
	"fmt"

	"github.com/boundbook/boundbook/cmd/boundbook/cli"
	"github.com/boundbook/boundbook/lib/bbf"
)

// version is the tool version, stamped at release time.
const version = "0.3.2"

// Root builds the complete boundbook command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "boundbook",
		Description: `boundbook: create, inspect, and read BBF books.

BBF is a content-addressed container for page-oriented media:
aligned random access to every page, a section tree, embedded
metadata, and end-to-end integrity hashes.`,
		Subcommands: []*cli.Command{
			createCommand(),
			fromCbzCommand(),
			infoCommand(),
			verifyCommand(),
			extractCommand(),
			manifestCommand(),
			readCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("boundbook %s (BBF format v%d)\n", version, bbf.FormatVersion)
					return nil
				},
			},
		},
	}
}
