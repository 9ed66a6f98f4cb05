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
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cerberuslabs/cerberus/internal/ui"
)

func newInitCmd() *cobra.Command {
	var (
		force             bool
		projectID         string
		embeddingProvider string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create .cerberus/project.yaml configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working dir: %w", err)
			}

			configPath := ConfigPath(cwd)
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
			}

			pid := projectID
			if pid == "" {
				pid = filepath.Base(cwd)
			}
			cfg := DefaultConfig(pid)
			if embeddingProvider != "" {
				cfg.Embedding.Provider = embeddingProvider
			}

			if err := os.MkdirAll(ConfigDir(cwd), 0o750); err != nil {
				return fmt.Errorf("create .cerberus directory: %w", err)
			}
			if err := SaveConfig(cfg, configPath); err != nil {
				return err
			}
			ui.Successf("Created %s", configPath)
			addToGitignore(cwd)

			fmt.Println()
			ui.SubHeader("Next steps:")
			fmt.Println("  1. Review .cerberus/project.yaml if needed")
			fmt.Println("  2. Run 'cerberus index' to index the repository")
			fmt.Println("  3. Run 'cerberus status' to verify indexing")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration")
	cmd.Flags().StringVar(&projectID, "project-id", "", "project identifier (default: directory name)")
	cmd.Flags().StringVar(&embeddingProvider, "embedding-provider", "", "embedding provider: mock, nomic, ollama, openai, llamacpp")
	return cmd
}

// addToGitignore appends .cerberus/ to dir's .gitignore if not already
// present. Silently returns when .gitignore is missing or unwritable —
// this is a convenience, not a requirement.
func addToGitignore(dir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == ".cerberus/" || line == ".cerberus" || line == "/.cerberus/" || line == "/.cerberus" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString("\n# cerberus local index\n.cerberus/\n")
	ui.Info("Added .cerberus/ to .gitignore")
}
