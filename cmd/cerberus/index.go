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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cerberuslabs/cerberus/internal/bootstrap"
	"github.com/cerberuslabs/cerberus/internal/contract"
	"github.com/cerberuslabs/cerberus/internal/output"
	"github.com/cerberuslabs/cerberus/internal/ui"
	"github.com/cerberuslabs/cerberus/pkg/engine"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index [path]",
		Short: "Perform a full index of the repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), args, false)
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update [path]",
		Short: "Incrementally re-index files changed since the last run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), args, true)
		},
	}
}

func runIndex(ctx context.Context, args []string, incremental bool) error {
	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		return err
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working dir: %w", err)
	}
	if len(args) == 1 {
		root = args[0]
	}

	eng, _, err := bootstrap.InitProject(bootstrap.ProjectConfig{
		ProjectID:         cfg.ProjectID,
		RepoRoot:          root,
		EmbeddingProvider: cfg.Embedding.Provider,
	})
	if err != nil {
		return wrapEngineErr("open project", err)
	}
	defer eng.Close()

	progress := NewProgressConfig(globals)
	spinner := NewSpinner(progress, "indexing")
	if spinner != nil {
		defer spinner.Finish()
	}

	opts := engine.IndexOptions{
		ExcludeGlobs:     cfg.Indexing.Exclude,
		MaxFileSizeBytes: cfg.Indexing.MaxFileSize,
		MaxSymbolsTotal:  contract.MaxSymbolsTotal(),
	}

	if incremental {
		report, err := eng.Update(ctx, root, engine.UpdateOptions{IndexOptions: opts})
		if err != nil {
			return wrapEngineErr("update", err)
		}
		return printUpdateReport(report)
	}

	report, err := eng.Index(ctx, root, opts)
	if err != nil {
		return wrapEngineErr("index", err)
	}
	return printIndexReport(report)
}

func printIndexReport(report *engine.IngestReport) error {
	if globals.JSON {
		return output.JSON(report)
	}

	ui.Successf("Indexed %s files: %s symbols, %s references, %s embeddings",
		ui.CountText(report.FilesProcessed), ui.CountText(report.SymbolsWritten),
		ui.CountText(report.ReferencesWritten), ui.CountText(report.EmbeddingsComputed))
	if report.ParseErrors > 0 {
		ui.Warningf("%d parse errors (%.1f%%)", report.ParseErrors, report.ParseErrorRate*100)
	}
	if report.CapacityExceeded {
		ui.Warning("capacity limit reached; index is a partial snapshot")
	}
	for _, d := range report.Diagnostics {
		ui.Info(d)
	}
	fmt.Printf("  completed in %s\n", ui.DimText(report.TotalDuration.Round(time.Millisecond).String()))
	return nil
}

func printUpdateReport(report *engine.UpdateReport) error {
	if globals.JSON {
		return output.JSON(report)
	}

	if report.FullRebuild {
		ui.Warning("changed/deleted ratio exceeded rebuild threshold, ran a full index instead")
		return printIndexReport(&report.IngestReport)
	}

	ui.Successf("Updated: %s added, %s modified, %s deleted (%s symbols, %s references)",
		ui.CountText(report.FilesAdded), ui.CountText(report.FilesModified), ui.CountText(report.FilesDeleted),
		ui.CountText(report.SymbolsWritten), ui.CountText(report.ReferencesWritten))
	for _, d := range report.Diagnostics {
		ui.Info(d)
	}
	fmt.Printf("  completed in %s\n", ui.DimText(report.TotalDuration.Round(time.Millisecond).String()))
	return nil
}
