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

	"github.com/cerberuslabs/cerberus/internal/bootstrap"
	"github.com/cerberuslabs/cerberus/internal/output"
	"github.com/cerberuslabs/cerberus/internal/ui"
	"github.com/cerberuslabs/cerberus/pkg/engine"
	"github.com/cerberuslabs/cerberus/pkg/retrieval"
)

// openEngineForQuery opens the current directory's project store for a
// read-only query command; every search/get-symbol/snippet/call-graph/
// context command shares this path.
func openEngineForQuery() (*engine.Engine, error) {
	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		return nil, err
	}

	eng, err := bootstrap.OpenProject(bootstrap.ProjectConfig{
		ProjectID:         cfg.ProjectID,
		EmbeddingProvider: cfg.Embedding.Provider,
	})
	if err != nil {
		return nil, wrapEngineErr("open project", err)
	}
	return eng, nil
}

func newSearchCmd() *cobra.Command {
	var (
		mode   string
		fusion string
		k      int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Hybrid BM25 + vector search over the indexed symbols",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngineForQuery()
			if err != nil {
				return err
			}
			defer eng.Close()

			hits, diagnostics, err := eng.Search(cmd.Context(), args[0], retrieval.Mode(mode), k, retrieval.FusionMethod(fusion))
			if err != nil {
				return wrapEngineErr("search", err)
			}

			if globals.JSON {
				return output.JSON(struct {
					Hits        interface{} `json:"hits"`
					Diagnostics []string    `json:"diagnostics,omitempty"`
				}{hits, diagnostics})
			}

			for _, d := range diagnostics {
				ui.Warning(d)
			}
			if len(hits) == 0 {
				ui.Info("no matches")
				return nil
			}
			for i, hit := range hits {
				fmt.Printf("%2d. %s  %s:%d-%d  (%s, score=%.3f)\n",
					i+1, hit.ShortName, hit.File, hit.StartLine, hit.EndLine, hit.MatchType, hit.FusedScore)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "retrieval mode: keyword, semantic, balanced (default: auto-classify)")
	cmd.Flags().StringVar(&fusion, "fusion", string(retrieval.FusionRRF), "fusion method: rrf, weighted")
	cmd.Flags().IntVar(&k, "k", 0, "number of results to return (default: retrieval's own default)")
	return cmd
}
