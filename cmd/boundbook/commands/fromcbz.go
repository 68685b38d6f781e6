// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/boundbook/boundbook/cmd/boundbook/cli"
	"github.com/boundbook/boundbook/lib/bbf"
	"github.com/boundbook/boundbook/lib/cbz"
)

type fromCbzParams struct {
	Output       string   `flag:"output,o" desc:"output BBF file (default: input with .bbf extension)"`
	Alignment    uint8    `flag:"alignment" default:"12" desc:"asset alignment exponent (bytes = 2^N)"`
	ReamSize     uint8    `flag:"ream-size" default:"16" desc:"nominal ream size exponent (bytes = 2^N)"`
	VariableReam bool     `flag:"variable-ream-size" default:"true" desc:"size each asset's ream to fit"`
	Timestamp    int64    `flag:"timestamp" desc:"creation time as unix seconds (0 = now)"`
	Dedupe       bool     `flag:"dedupe" default:"true" desc:"store byte-identical pages once"`
	BookDef      string   `flag:"book-def" desc:"YAML book definition to apply"`
	Section      []string `flag:"section,s" desc:"section declaration Name:Target[:Parent] (repeatable)"`
	Meta         []string `flag:"meta,m" desc:"metadata entry Key:Value[:Parent] (repeatable)"`
	Verbose      bool     `flag:"verbose,v" desc:"log each converted entry"`
}

func fromCbzCommand() *cli.Command {
	var params fromCbzParams

	return &cli.Command{
		Name:    "from-cbz",
		Summary: "Convert a CBZ comic archive into a BBF book",
		Description: `Convert a CBZ archive into a BBF book.

Image entries are sorted by filename — the CBZ page order
convention — and each becomes one page. Non-image entries
(ComicInfo.xml, thumbnails) are skipped.`,
		Usage: "boundbook from-cbz [flags] <archive.cbz>",
		Examples: []cli.Example{
			{
				Description: "Straight conversion",
				Command:     "boundbook from-cbz album.cbz",
			},
			{
				Description: "With metadata and a custom output path",
				Command:     "boundbook from-cbz -o album.bbf -m 'Title:The Push Man' album.cbz",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("from-cbz", &params) },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("want exactly one archive argument")
			}
			archivePath := args[0]
			outputPath := params.Output
			if outputPath == "" {
				outputPath = strings.TrimSuffix(archivePath, ".cbz") + ".bbf"
			}

			var logger *slog.Logger
			if params.Verbose {
				logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
			}

			opts := cbz.Options{
				Config: bookConfig(params.Alignment, params.ReamSize, params.VariableReam, params.Timestamp),
				Dedupe: params.Dedupe,
				Logger: logger,
				Apply: func(w *bbf.Writer) error {
					return applyBookShape(w, params.BookDef, params.Section, params.Meta)
				},
			}
			stats, err := cbz.ConvertFile(archivePath, outputPath, opts)
			if err != nil {
				return err
			}

			fmt.Printf("%s: %d pages, %d assets (%d deduplicated, %d entries skipped)\n",
				outputPath, stats.Pages, stats.Assets, stats.Deduped, stats.Skipped)
			return nil
		},
	}
}
