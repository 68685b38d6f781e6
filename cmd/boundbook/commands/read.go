// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/boundbook/boundbook/cmd/boundbook/cli"
	"github.com/boundbook/boundbook/lib/bookui"
)

func readCommand() *cli.Command {
	return &cli.Command{
		Name:    "read",
		Summary: "Browse a book in the terminal",
		Description: `Open the terminal book browser: page sequence, section tree,
metadata, and on-demand integrity checks. Needs a TTY.`,
		Usage: "boundbook read <book.bbf>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("want exactly one book argument")
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("read needs a terminal; use 'boundbook info' for plain output")
			}

			file, reader, err := openBook(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			title := filepath.Base(args[0])
			if book, err := reader.Metadata(""); err == nil {
				for _, entry := range book {
					if entry.Key == "Title" {
						title = entry.Value
						break
					}
				}
			}

			program := tea.NewProgram(bookui.New(reader, title), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}
