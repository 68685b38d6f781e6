// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/boundbook/boundbook/cmd/boundbook/cli"
	"github.com/boundbook/boundbook/lib/bbf"
)

type extractParams struct {
	OutputDir string `flag:"output-dir,d" default:"." desc:"directory to write extracted files into"`
	Page      int    `flag:"page" default:"-1" desc:"extract a single page (default: all pages)"`
	Asset     int    `flag:"asset" default:"-1" desc:"extract a single asset by index"`
	Verify    bool   `flag:"verify" desc:"verify each asset's hash before writing it"`
}

func extractCommand() *cli.Command {
	var params extractParams

	return &cli.Command{
		Name:    "extract",
		Summary: "Write a book's pages back out as image files",
		Description: `Extract pages (or a single asset) to files.

Pages are written as page-0001.png, page-0002.jpg, ... with
extensions derived from each asset's content type. --asset writes
one asset as asset-N with its content-type extension.`,
		Usage: "boundbook extract [flags] <book.bbf>",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("extract", &params) },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("want exactly one book argument")
			}
			file, reader, err := openBook(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			if err := os.MkdirAll(params.OutputDir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", params.OutputDir, err)
			}

			writeAsset := func(assetIndex int, name string) error {
				if params.Verify {
					if err := reader.VerifyAsset(assetIndex); err != nil {
						return err
					}
				}
				info, err := reader.Asset(assetIndex)
				if err != nil {
					return err
				}
				data, err := reader.AssetBytes(assetIndex)
				if err != nil {
					return err
				}
				path := filepath.Join(params.OutputDir, name+bbf.ExtensionForContentType(info.ContentType))
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
				return nil
			}

			if params.Asset >= 0 {
				return writeAsset(params.Asset, fmt.Sprintf("asset-%d", params.Asset))
			}

			first, last := 0, reader.PageCount()
			if params.Page >= 0 {
				first, last = params.Page, params.Page+1
			}
			for page := first; page < last; page++ {
				assetIndex, err := reader.PageAsset(page)
				if err != nil {
					return err
				}
				if err := writeAsset(int(assetIndex), fmt.Sprintf("page-%04d", page+1)); err != nil {
					return fmt.Errorf("page %d: %w", page, err)
				}
			}
			fmt.Printf("extracted %d pages to %s\n", last-first, params.OutputDir)
			return nil
		},
	}
}
