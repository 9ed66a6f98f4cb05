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

// Package main implements the cerberus CLI: a local front-end over
// pkg/engine for indexing a repository and querying its code-intelligence
// store.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cerberrors "github.com/cerberuslabs/cerberus/internal/errors"
	"github.com/cerberuslabs/cerberus/internal/ui"
)

// Version information, set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the persistent flags every subcommand shares.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	Quiet      bool
	NoColor    bool
	Verbose    int
}

var globals GlobalFlags

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		// cobra has already printed usage/errors for argument-parsing
		// failures; a returned error here means a subcommand's RunE
		// itself failed.
		if ue, ok := err.(*cerberrors.UserError); ok {
			if globals.JSON {
				enc := json.NewEncoder(os.Stderr)
				enc.SetIndent("", "  ")
				_ = enc.Encode(ue.ToJSON())
			} else {
				fmt.Fprint(os.Stderr, ue.Format(globals.NoColor))
			}
			os.Exit(ue.ExitCode)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cerberrors.ExitInternal)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cerberus",
		Short:         "Local, deterministic code intelligence for a repository",
		Long:          "cerberus indexes a repository's symbols, call graph, and embeddings into a local store, then answers search/blueprint/context queries against it without leaving the machine.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if globals.JSON {
				globals.Quiet = true
			}
			ui.InitColors(globals.NoColor)
		},
	}

	cmd.PersistentFlags().StringVar(&globals.ConfigPath, "config", "", "path to .cerberus/project.yaml (default: ./.cerberus/project.yaml)")
	cmd.PersistentFlags().BoolVar(&globals.JSON, "json", false, "output machine-readable JSON")
	cmd.PersistentFlags().BoolVarP(&globals.Quiet, "quiet", "q", false, "suppress progress output")
	cmd.PersistentFlags().BoolVar(&globals.NoColor, "no-color", false, "disable ANSI color output")
	cmd.PersistentFlags().CountVarP(&globals.Verbose, "verbose", "v", "increase log verbosity (-v, -vv)")

	cmd.AddCommand(
		newInitCmd(),
		newIndexCmd(),
		newUpdateCmd(),
		newSearchCmd(),
		newGetSymbolCmd(),
		newSnippetCmd(),
		newCallGraphCmd(),
		newContextCmd(),
		newStatusCmd(),
		newResetCmd(),
	)
	return cmd
}
