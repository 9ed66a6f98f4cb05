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
	"math"
	"sort"
	"strings"

	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/storage"
)

// defaultKPerMethod is the BM25/vector per-method candidate limit before
// fusion, per spec.md §4.5.
const defaultKPerMethod = 20

// RankedSymbol is one scored candidate on its way into fusion.
type RankedSymbol struct {
	SymbolID string
	Score    float64
}

// BM25 scores candidates with the classic Okapi formula at fixed
// k1=1.5, b=0.75, exactly as spec.md §4.5 requires. SQLite's FTS5 ships
// its own bm25() ranking function, but its k1/b aren't caller-tunable, so
// the FTS5 MATCH index is used only as a fast lexical-recall shortlist
// (via Store.FTSSearch) — the actual ranking score is computed here in
// Go over that shortlist's re-tokenized fields, which both pins the
// constants the spec names and keeps the scoring logic testable without
// a database.
type BM25 struct {
	K1 float64
	B  float64

	store storage.Store
}

// NewBM25 returns a BM25 scorer with spec-mandated parameters.
func NewBM25(store storage.Store) *BM25 {
	return &BM25{K1: 1.5, B: 0.75, store: store}
}

func symbolDocument(sym model.Symbol) []string {
	text := strings.Join([]string{sym.ShortName, sym.QualifiedName, sym.Signature, sym.Docstring}, " ")
	return Tokenize(text)
}

// Search returns up to k ranked (symbol_id, bm25_score) pairs for query.
func (b *BM25) Search(ctx context.Context, query string, k int) ([]RankedSymbol, error) {
	if k <= 0 {
		k = defaultKPerMethod
	}
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	ftsQuery := strings.Join(queryTokens, " OR ")
	candidates, err := b.store.FTSSearch(ctx, ftsQuery, k*4)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	type docStats struct {
		sym    model.Symbol
		tf     map[string]int
		length int
	}
	docs := make([]docStats, 0, len(candidates))
	df := make(map[string]int)
	var totalLen int

	for _, c := range candidates {
		sym, err := b.store.GetSymbol(ctx, c.SymbolID)
		if err != nil {
			continue
		}
		tokens := symbolDocument(sym)
		tf := make(map[string]int, len(tokens))
		seen := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			tf[t]++
			if !seen[t] {
				df[t]++
				seen[t] = true
			}
		}
		docs = append(docs, docStats{sym: sym, tf: tf, length: len(tokens)})
		totalLen += len(tokens)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	avgDocLen := float64(totalLen) / float64(len(docs))
	n := float64(len(docs))

	results := make([]RankedSymbol, 0, len(docs))
	for _, d := range docs {
		var score float64
		for _, qt := range queryTokens {
			tf := float64(d.tf[qt])
			if tf == 0 {
				continue
			}
			docFreq := float64(df[qt])
			idf := math.Log(1 + (n-docFreq+0.5)/(docFreq+0.5))
			denom := tf + b.K1*(1-b.B+b.B*float64(d.length)/avgDocLen)
			score += idf * (tf * (b.K1 + 1) / denom)
		}
		if score > 0 {
			results = append(results, RankedSymbol{SymbolID: d.sym.ID, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].SymbolID < results[j].SymbolID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
