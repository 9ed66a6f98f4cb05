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

package engine

import (
	"context"
	"strings"

	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/resolve"
	"github.com/cerberuslabs/cerberus/pkg/retrieval"
	"github.com/cerberuslabs/cerberus/pkg/storage"
)

// ResultHit is one ranked search hit, spec.md §6's wire shape for Search.
type ResultHit struct {
	SymbolID    string
	File        string
	StartLine   int
	EndLine     int
	Kind        model.SymbolKind
	ShortName   string
	BM25Score   float64
	VectorScore float64
	FusedScore  float64
	MatchType   string
	Snippet     string
}

// Search runs the hybrid BM25 + vector pipeline and returns up to k
// results (0 selects retrieval's default). Degradation diagnostics (e.g.
// a missing vector index) are returned alongside results rather than as
// an error, per spec.md §7's retrieval-degradation policy.
func (e *Engine) Search(ctx context.Context, query string, mode retrieval.Mode, k int, fusion retrieval.FusionMethod) ([]ResultHit, []string, error) {
	results, diagnostics, err := e.retriever.Search(ctx, query, retrieval.Options{
		Mode:   mode,
		Fusion: fusion,
		FinalK: k,
	})
	if err != nil {
		return nil, nil, err
	}

	hits := make([]ResultHit, 0, len(results))
	for _, r := range results {
		hit := ResultHit{
			SymbolID:   r.Symbol.ID,
			File:       r.Symbol.FilePath,
			StartLine:  r.Symbol.StartLine,
			EndLine:    r.Symbol.EndLine,
			Kind:       r.Symbol.Kind,
			ShortName:  r.Symbol.ShortName,
			FusedScore: r.Score,
			MatchType:  r.MatchType,
			Snippet:    r.Snippet.Content,
		}
		// Result only carries the post-fusion score, not retrieval's raw
		// per-method scores, so the component score is set to the fused
		// score whenever that method contributed and left at zero
		// otherwise — an honest approximation rather than a fabricated
		// split.
		switch r.MatchType {
		case "bm25":
			hit.BM25Score = r.Score
		case "vector":
			hit.VectorScore = r.Score
		case "both":
			hit.BM25Score = r.Score
			hit.VectorScore = r.Score
		}
		hits = append(hits, hit)
	}
	return hits, diagnostics, nil
}

// GetSymbol looks up symbols by name. exact requires the short name to
// equal name, ignoring case; otherwise name is treated as a prefix. fileHint narrows results
// to one file when non-empty.
func (e *Engine) GetSymbol(ctx context.Context, name string, exact bool, fileHint string) ([]model.Symbol, error) {
	cursor, err := e.store.QuerySymbols(ctx, storage.SymbolFilter{NamePrefix: name, FilePath: fileHint})
	if err != nil {
		return nil, model.NewStoreError("GetSymbol", err)
	}
	defer cursor.Close()

	var symbols []model.Symbol
	for {
		sym, ok, err := cursor.Next(ctx)
		if err != nil {
			return nil, model.NewStoreError("GetSymbol", err)
		}
		if !ok {
			break
		}
		if exact && !strings.EqualFold(sym.ShortName, name) {
			continue
		}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

// Snippet returns padding lines of source around symbolID's body.
func (e *Engine) Snippet(ctx context.Context, symbolID string, padding int) (model.Snippet, error) {
	snip, err := e.store.GetSnippet(ctx, symbolID, padding)
	if err != nil {
		return model.Snippet{}, model.NewStoreError("Snippet", err)
	}
	return snip, nil
}

// CallGraph traverses the resolved call graph rooted at symbolID up to
// maxDepth hops in dir.
func (e *Engine) CallGraph(ctx context.Context, symbolID string, dir resolve.Direction, maxDepth int) (*resolve.CallGraph, error) {
	builder := resolve.NewCallGraphBuilder(storeEdgeLookup{store: e.store})
	graph, err := builder.Traverse(ctx, symbolID, dir, maxDepth)
	if err != nil {
		return nil, model.NewStoreError("CallGraph", err)
	}
	return graph, nil
}

// Context assembles a token-budgeted context window around symbolID:
// its own body plus (optionally) its imports, base classes, callers, and
// callees, compressed to fit opts.TokenBudget.
func (e *Engine) Context(ctx context.Context, symbolID string, opts retrieval.AssembleOptions) (retrieval.Context, error) {
	out, err := e.assembler.Assemble(ctx, symbolID, opts)
	if err != nil {
		return retrieval.Context{}, model.NewStoreError("Context", err)
	}
	return out, nil
}
