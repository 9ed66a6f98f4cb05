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
	"github.com/cerberuslabs/cerberus/pkg/resolve"
	"github.com/cerberuslabs/cerberus/pkg/retrieval"
)

func newCallGraphCmd() *cobra.Command {
	var (
		direction string
		maxDepth  int
	)

	cmd := &cobra.Command{
		Use:   "call-graph <symbol-id>",
		Short: "Traverse the resolved call graph rooted at a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngineForQuery()
			if err != nil {
				return err
			}
			defer eng.Close()

			dir := resolve.Forward
			if direction == "callers" || direction == "backward" {
				dir = resolve.Backward
			}

			graph, err := eng.CallGraph(cmd.Context(), args[0], dir, maxDepth)
			if err != nil {
				return wrapEngineErr("call-graph", err)
			}

			if globals.JSON {
				return output.JSON(graph)
			}

			fmt.Printf("%s %s\n", ui.Label("root:"), graph.Root)
			for _, node := range graph.Nodes {
				indent := ""
				for i := 0; i < node.Depth; i++ {
					indent += "  "
				}
				cycleNote := ""
				if node.Cycle {
					cycleNote = ui.DimText(" (cycle)")
				}
				fmt.Printf("%s- %s%s\n", indent, node.SymbolID, cycleNote)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "callees", "callees (forward) or callers (backward)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 10, "maximum BFS depth")
	return cmd
}

func newContextCmd() *cobra.Command {
	var (
		padding        int
		baseDepth      int
		includeCallers bool
		includeCallees bool
		tokenBudget    int
	)

	cmd := &cobra.Command{
		Use:   "context <symbol-id>",
		Short: "Assemble a token-budgeted context window around a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngineForQuery()
			if err != nil {
				return err
			}
			defer eng.Close()

			out, err := eng.Context(cmd.Context(), args[0], retrieval.AssembleOptions{
				Padding:        padding,
				BaseDepth:      baseDepth,
				IncludeCallers: includeCallers,
				IncludeCallees: includeCallees,
				TokenBudget:    tokenBudget,
			})
			if err != nil {
				return wrapEngineErr("context", err)
			}

			if globals.JSON {
				return output.JSON(out)
			}

			fmt.Printf("%s %s\n", ui.Label(out.Target), ui.DimText(fmt.Sprintf("(compression %.2fx, includes: %v)", out.CompressionRatio, out.Included)))
			fmt.Println(out.Text)
			return nil
		},
	}

	cmd.Flags().IntVar(&padding, "padding", 0, "lines of context around the target's body (default: retrieval's own default)")
	cmd.Flags().IntVar(&baseDepth, "base-depth", 0, "base-class resolution depth (default: retrieval's own default)")
	cmd.Flags().BoolVar(&includeCallers, "callers", false, "include caller symbols")
	cmd.Flags().BoolVar(&includeCallees, "callees", false, "include callee symbols")
	cmd.Flags().IntVar(&tokenBudget, "token-budget", 0, "approximate token budget (default: retrieval's own default)")
	return cmd
}
