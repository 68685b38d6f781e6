// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/boundbook/boundbook/cmd/boundbook/cli"
	"github.com/boundbook/boundbook/lib/manifest"
)

type manifestParams struct {
	Output string `flag:"output,o" desc:"write the manifest to a file instead of stdout"`
}

func manifestCommand() *cli.Command {
	var params manifestParams

	return &cli.Command{
		Name:    "manifest",
		Summary: "Emit a book's logical content as a CBOR manifest",
		Description: `Emit a deterministic CBOR manifest of a book: assets with their
content hashes, the page sequence, sections, and metadata. The same
book always produces identical manifest bytes, so manifests diff
and cache well.`,
		Usage: "boundbook manifest [flags] <book.bbf>",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("manifest", &params) },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("want exactly one book argument")
			}
			file, reader, err := openBook(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			m, err := manifest.FromReader(reader)
			if err != nil {
				return err
			}
			data, err := m.Encode()
			if err != nil {
				return err
			}

			if params.Output == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(params.Output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", params.Output, err)
			}
			return nil
		},
	}
}
