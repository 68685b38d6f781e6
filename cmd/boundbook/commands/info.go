// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/boundbook/boundbook/cmd/boundbook/cli"
	"github.com/boundbook/boundbook/lib/bbf"
)

type infoParams struct {
	Assets bool `flag:"assets" desc:"list every asset with offset and hash"`
}

func infoCommand() *cli.Command {
	var params infoParams

	return &cli.Command{
		Name:    "info",
		Summary: "Show a book's structure and metadata",
		Usage:   "boundbook info [flags] <book.bbf>",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("info", &params) },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("want exactly one book argument")
			}
			file, reader, err := openBook(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			variable := "off"
			if reader.VariableReam() {
				variable = "on"
			}
			fmt.Printf("%s: BBF v%d, %d bytes\n", args[0], bbf.FormatVersion, reader.Size())
			fmt.Printf("  created:    %s\n", reader.CreatedAt().Format("2006-01-02 15:04:05 MST"))
			fmt.Printf("  alignment:  2^%d bytes, reams 2^%d bytes (variable %s)\n",
				reader.AlignmentExponent(), reader.ReamExponent(), variable)
			fmt.Printf("  contents:   %d pages, %d assets, %d sections\n",
				reader.PageCount(), reader.AssetCount(), reader.SectionCount())

			book, err := reader.Metadata("")
			if err != nil {
				return err
			}
			if len(book) > 0 {
				fmt.Printf("\nMetadata:\n")
				tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
				for _, entry := range book {
					fmt.Fprintf(tw, "  %s\t%s\n", entry.Key, entry.Value)
				}
				tw.Flush()
			}

			if roots := reader.Sections(); len(roots) > 0 {
				fmt.Printf("\nSections:\n")
				for _, root := range roots {
					printSection(root, 1)
				}
			}

			if params.Assets {
				fmt.Printf("\nAssets:\n")
				tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
				for i := range reader.AssetCount() {
					info, err := reader.Asset(i)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "  %d\t%s\t%d bytes\toffset %d\tream 2^%d\t%s\n",
						info.Index, info.ContentType, info.Length, info.Offset,
						info.ReamExponent, bbf.FormatDigest(info.ContentHash)[:16])
				}
				tw.Flush()
			}
			return nil
		},
	}
}

func printSection(node *bbf.SectionNode, depth int) {
	for range depth {
		fmt.Print("  ")
	}
	fmt.Printf("%s → page %d\n", node.Name, node.Page)
	for _, entry := range node.Metadata {
		for range depth + 1 {
			fmt.Print("  ")
		}
		fmt.Printf("%s: %s\n", entry.Key, entry.Value)
	}
	for _, child := range node.Children {
		printSection(child, depth+1)
	}
}
