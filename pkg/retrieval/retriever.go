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

package retrieval

import (
	"context"
	"errors"
	"sort"

	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/storage"
)

// defaultFinalK is the number of fused results returned after dedup and
// truncation, per spec.md §4.5.
const defaultFinalK = 10

// snippetPadding is the number of context lines loaded around each
// returned symbol's body.
const snippetPadding = 3

// Options customizes one Search call. Zero-value Options selects the
// spec defaults: auto-classified mode, RRF fusion, final_k=10.
type Options struct {
	Mode       Mode // empty means auto-classify
	Fusion     FusionMethod
	FinalK     int
	KPerMethod int
}

// Result is one ranked, fully-materialized search hit.
type Result struct {
	Symbol    model.Symbol
	Score     float64
	MatchType string
	Snippet   model.Snippet
}

// Retriever runs the hybrid BM25 + vector search pipeline: classify,
// fetch per-method candidates, fuse, dedup, truncate, and lazily load
// snippets only for the final top-k.
type Retriever struct {
	store  storage.Store
	bm25   *BM25
	vector *VectorRetriever
}

// NewRetriever wires a Retriever against store using embedder for the
// vector component. embedder may be nil.
func NewRetriever(store storage.Store, embedder Embedder) *Retriever {
	return &Retriever{
		store:  store,
		bm25:   NewBM25(store),
		vector: NewVectorRetriever(store, embedder),
	}
}

// Search runs query through the hybrid pipeline and returns up to
// opts.FinalK (default 10) results, plus any degradation diagnostic.
func (r *Retriever) Search(ctx context.Context, query string, opts Options) ([]Result, []string, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ClassifyQuery(query)
	}
	fusionMethod := opts.Fusion
	if fusionMethod == "" {
		fusionMethod = FusionRRF
	}
	kPerMethod := opts.KPerMethod
	if kPerMethod <= 0 {
		kPerMethod = defaultKPerMethod
	}
	finalK := opts.FinalK
	if finalK <= 0 {
		finalK = defaultFinalK
	}

	var diagnostics []string

	bm25Results, err := r.bm25.Search(ctx, query, kPerMethod)
	if err != nil {
		return nil, nil, err
	}

	var vectorResults []RankedSymbol
	if mode != ModeKeyword {
		vectorResults, err = r.vector.Search(ctx, query, kPerMethod)
		if err != nil {
			var ee *model.EngineError
			if errors.As(err, &ee) && ee.Kind == model.KindVectorUnavailable {
				diagnostics = append(diagnostics, "vector index unavailable, degraded to BM25-only")
				vectorResults = nil
			} else {
				return nil, nil, err
			}
		}
	}

	var combined []fused
	switch fusionMethod {
	case FusionWeighted:
		combined = fuseWeighted(bm25Results, vectorResults, alphaFor(mode))
	default:
		combined = fuseRRF(bm25Results, vectorResults)
	}

	// combined is already deduplicated by symbol ID (the I1 identity key,
	// since symbol IDs are deterministically derived from it), keeping the
	// one accumulated fused score per symbol.
	resolved := make([]Result, 0, len(combined))
	for _, f := range combined {
		sym, err := r.store.GetSymbol(ctx, f.symbolID)
		if err != nil {
			continue
		}
		resolved = append(resolved, Result{Symbol: sym, Score: f.score, MatchType: string(f.matchType)})
	}

	sort.Slice(resolved, func(i, j int) bool {
		if resolved[i].Score != resolved[j].Score {
			return resolved[i].Score > resolved[j].Score
		}
		if resolved[i].Symbol.FilePath != resolved[j].Symbol.FilePath {
			return resolved[i].Symbol.FilePath < resolved[j].Symbol.FilePath
		}
		return resolved[i].Symbol.StartLine < resolved[j].Symbol.StartLine
	})

	if len(resolved) > finalK {
		resolved = resolved[:finalK]
	}

	for i := range resolved {
		snip, err := r.store.GetSnippet(ctx, resolved[i].Symbol.ID, snippetPadding)
		if err == nil {
			resolved[i].Snippet = snip
		}
	}

	return resolved, diagnostics, nil
}
