// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cerberuslabs/cerberus/internal/output"
	"github.com/cerberuslabs/cerberus/internal/ui"
)

func newGetSymbolCmd() *cobra.Command {
	var (
		exact    bool
		fileHint string
	)

	cmd := &cobra.Command{
		Use:   "get-symbol <name>",
		Short: "Look up symbols by short name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngineForQuery()
			if err != nil {
				return err
			}
			defer eng.Close()

			symbols, err := eng.GetSymbol(cmd.Context(), args[0], exact, fileHint)
			if err != nil {
				return wrapEngineErr("get-symbol", err)
			}
			if len(symbols) == 0 {
				return fmt.Errorf("no symbol found matching %q", args[0])
			}

			if globals.JSON {
				return output.JSON(symbols)
			}

			for _, sym := range symbols {
				fmt.Printf("%s  %s  (%s)\n", ui.Label(sym.QualifiedName), ui.DimText(fmt.Sprintf("%s:%d-%d", sym.FilePath, sym.StartLine, sym.EndLine)), sym.Kind)
				if sym.Signature != "" {
					fmt.Printf("  %s\n", sym.Signature)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&exact, "exact", false, "require an exact short-name match instead of a prefix")
	cmd.Flags().StringVar(&fileHint, "file", "", "narrow results to one file")
	return cmd
}

func newSnippetCmd() *cobra.Command {
	var padding int

	cmd := &cobra.Command{
		Use:   "snippet <symbol-id>",
		Short: "Print source around a symbol's body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngineForQuery()
			if err != nil {
				return err
			}
			defer eng.Close()

			snip, err := eng.Snippet(cmd.Context(), args[0], padding)
			if err != nil {
				return wrapEngineErr("snippet", err)
			}

			if globals.JSON {
				return output.JSON(snip)
			}

			fmt.Println(ui.DimText(fmt.Sprintf("%s:%d-%d", snip.Path, snip.Start, snip.End)))
			fmt.Println(snip.Content)
			return nil
		},
	}

	cmd.Flags().IntVar(&padding, "padding", 3, "lines of context around the symbol's body")
	return cmd
}
