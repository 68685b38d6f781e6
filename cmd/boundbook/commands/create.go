// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/boundbook/boundbook/cmd/boundbook/cli"
	"github.com/boundbook/boundbook/lib/bbf"
)

type createParams struct {
	Output       string   `flag:"output,o" desc:"output BBF file (required)"`
	Alignment    uint8    `flag:"alignment" default:"12" desc:"asset alignment exponent (bytes = 2^N)"`
	ReamSize     uint8    `flag:"ream-size" default:"16" desc:"nominal ream size exponent (bytes = 2^N)"`
	VariableReam bool     `flag:"variable-ream-size" default:"true" desc:"size each asset's ream to fit"`
	Timestamp    int64    `flag:"timestamp" desc:"creation time as unix seconds (0 = now)"`
	Dedupe       bool     `flag:"dedupe" default:"true" desc:"store byte-identical pages once"`
	BookDef      string   `flag:"book-def" desc:"YAML book definition to apply"`
	Section      []string `flag:"section,s" desc:"section declaration Name:Target[:Parent] (repeatable)"`
	Meta         []string `flag:"meta,m" desc:"metadata entry Key:Value[:Parent] (repeatable)"`
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Build a BBF book from image files and directories",
		Description: `Build a BBF book from page images.

Arguments are image files or directories. Directories contribute
their image files sorted by filename; arguments keep their command-
line order. Each image becomes one page.

Sections and metadata come from --section/--meta flags or a YAML
book definition (--book-def). --section parents refer to sections
declared by earlier --section flags, so parent names should be
unique among them.`,
		Usage: "boundbook create --output book.bbf [flags] <image|dir>...",
		Examples: []cli.Example{
			{
				Description: "A book from a directory of scans",
				Command:     "boundbook create -o book.bbf --meta Title:Yokohama scans/",
			},
			{
				Description: "Chapters anchored at pages 0 and 12",
				Command:     "boundbook create -o book.bbf -s 'ch1:0' -s 'ch2:12' pages/",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("create", &params) },
		Run: func(args []string) error {
			if params.Output == "" {
				return fmt.Errorf("--output is required")
			}
			if len(args) == 0 {
				return fmt.Errorf("no input images given")
			}

			pages, err := collectImages(args)
			if err != nil {
				return err
			}
			if len(pages) == 0 {
				return fmt.Errorf("no image files found in the given inputs")
			}

			output, err := os.Create(params.Output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", params.Output, err)
			}
			defer output.Close()

			cfg := bookConfig(params.Alignment, params.ReamSize, params.VariableReam, params.Timestamp)
			w, err := bbf.NewWriter(output, cfg)
			if err != nil {
				return err
			}

			distinct := 0
			for _, pagePath := range pages {
				data, err := os.ReadFile(pagePath)
				if err != nil {
					return fmt.Errorf("reading %s: %w", pagePath, err)
				}
				contentType := bbf.ContentTypeForExtension(filepath.Ext(pagePath))

				var assetIndex uint32
				var dup bool
				if params.Dedupe {
					assetIndex, dup, err = w.AddAssetDeduped(contentType, data)
				} else {
					assetIndex, err = w.AddAsset(contentType, data)
				}
				if err != nil {
					return fmt.Errorf("storing %s: %w", pagePath, err)
				}
				if !dup {
					distinct++
				}
				if err := w.AddPage(assetIndex); err != nil {
					return fmt.Errorf("paging %s: %w", pagePath, err)
				}
			}

			if err := applyBookShape(w, params.BookDef, params.Section, params.Meta); err != nil {
				return err
			}
			if err := w.Finalize(); err != nil {
				return fmt.Errorf("finalizing %s: %w", params.Output, err)
			}

			fmt.Printf("%s: %d pages, %d assets\n", params.Output, len(pages), distinct)
			return nil
		},
	}
}

// collectImages expands files and directories into an ordered page
// list: directory contents sorted by name, arguments in the order
// given.
func collectImages(args []string) ([]string, error) {
	var pages []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading input %s: %w", arg, err)
		}
		if !info.IsDir() {
			pages = append(pages, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() || !isImagePath(path) {
				return nil
			}
			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
		slices.SortFunc(found, func(a, b string) int { return strings.Compare(a, b) })
		pages = append(pages, found...)
	}
	return pages, nil
}

func isImagePath(path string) bool {
	return bbf.IsImageContentType(bbf.ContentTypeForExtension(filepath.Ext(path)))
}
