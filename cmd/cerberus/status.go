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

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index statistics for the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngineForQuery()
			if err != nil {
				return err
			}
			defer eng.Close()

			stats, err := eng.Stats(cmd.Context())
			if err != nil {
				return wrapEngineErr("status", err)
			}

			if globals.JSON {
				return output.JSON(stats)
			}

			ui.Header("Cerberus Project Status")
			fmt.Printf("%s %s\n\n", ui.Label("Project:"), stats.ProjectID)
			ui.SubHeader("Entities:")
			fmt.Printf("  Files:      %s\n", ui.CountText(stats.Files))
			fmt.Printf("  Symbols:    %s\n", ui.CountText(stats.Symbols))
			fmt.Printf("  Functions:  %s\n", ui.CountText(stats.Functions))
			fmt.Printf("  Types:      %s\n", ui.CountText(stats.Types))
			return nil
		},
	}
	return cmd
}
