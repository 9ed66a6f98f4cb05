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
	"os"

	"github.com/spf13/cobra"

	"github.com/cerberuslabs/cerberus/internal/bootstrap"
	"github.com/cerberuslabs/cerberus/internal/ui"
)

func newResetCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all locally indexed data for the current project",
		Long:  "Resets the local project data, clearing all indexed data.\nThis is useful before a full re-index to ensure a clean slate.\n\nWARNING: This operation is destructive and cannot be undone!",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("you must pass --yes to confirm the reset; this will delete all indexed data for the project")
			}

			cfg, err := LoadConfig(globals.ConfigPath)
			if err != nil {
				return err
			}

			dataDir, err := bootstrap.DefaultDataDir(cfg.ProjectID)
			if err != nil {
				return err
			}

			if _, err := os.Stat(dataDir); os.IsNotExist(err) {
				ui.Infof("No local data found for project %s", cfg.ProjectID)
				return nil
			}

			fmt.Printf("Resetting project %s (deleting %s)...\n", cfg.ProjectID, ui.DimText(dataDir))
			if err := os.RemoveAll(dataDir); err != nil {
				return fmt.Errorf("delete data: %w", err)
			}

			ui.Success("Reset complete. All local indexed data has been deleted.")
			fmt.Println()
			ui.SubHeader("Next steps:")
			fmt.Println("  cerberus index    Reindex the project")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm the reset (required)")
	return cmd
}
