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

// FusionMethod selects how the BM25 and vector rankings are combined.
type FusionMethod string

const (
	// FusionRRF is the default: score(s) = Σ 1/(60 + rank(s)) over every
	// ranking s appears in. Missing rankings contribute 0.
	FusionRRF FusionMethod = "rrf"

	// FusionWeighted blends normalized scores: α·bm25_norm + (1-α)·(1-vec_dist_norm).
	FusionWeighted FusionMethod = "weighted"
)

const rrfK = 60

// matchType records which component(s) produced a fused hit, per S3.
type matchType string

const (
	matchBM25   matchType = "bm25"
	matchVector matchType = "vector"
	matchBoth   matchType = "both"
)

// fused is one symbol's combined score prior to store lookups.
type fused struct {
	symbolID  string
	score     float64
	matchType matchType
}

// fuseRRF implements Reciprocal Rank Fusion. bm25 and vector are each
// assumed pre-sorted best-first; rank is 1-based position within its list.
func fuseRRF(bm25, vector []RankedSymbol) []fused {
	scores := make(map[string]float64)
	types := make(map[string]matchType)

	for i, r := range bm25 {
		scores[r.SymbolID] += 1.0 / float64(rrfK+i+1)
		types[r.SymbolID] = matchBM25
	}
	for i, r := range vector {
		scores[r.SymbolID] += 1.0 / float64(rrfK+i+1)
		if types[r.SymbolID] == matchBM25 {
			types[r.SymbolID] = matchBoth
		} else {
			types[r.SymbolID] = matchVector
		}
	}

	out := make([]fused, 0, len(scores))
	for id, score := range scores {
		out = append(out, fused{symbolID: id, score: score, matchType: types[id]})
	}
	return out
}

// fuseWeighted implements score = α·bm25_norm + (1-α)·(1 - vec_dist_norm).
// Each component is min-max normalized to [0,1] across its own result set
// before blending; a symbol absent from a component contributes 0 for it.
func fuseWeighted(bm25, vector []RankedSymbol, alpha float64) []fused {
	bm25Norm := normalize(bm25)
	vecNorm := normalize(vector)

	types := make(map[string]matchType)
	for id := range bm25Norm {
		types[id] = matchBM25
	}
	for id := range vecNorm {
		if types[id] == matchBM25 {
			types[id] = matchBoth
		} else {
			types[id] = matchVector
		}
	}

	out := make([]fused, 0, len(types))
	for id := range types {
		score := alpha*bm25Norm[id] + (1-alpha)*vecNorm[id]
		out = append(out, fused{symbolID: id, score: score, matchType: types[id]})
	}
	return out
}

// normalize min-max scales RankedSymbol.Score to [0,1]; a single-element
// or zero-range set maps every member to 1.0 so it still contributes.
func normalize(ranked []RankedSymbol) map[string]float64 {
	out := make(map[string]float64, len(ranked))
	if len(ranked) == 0 {
		return out
	}
	min, max := ranked[0].Score, ranked[0].Score
	for _, r := range ranked {
		if r.Score < min {
			min = r.Score
		}
		if r.Score > max {
			max = r.Score
		}
	}
	span := max - min
	for _, r := range ranked {
		if span == 0 {
			out[r.SymbolID] = 1.0
			continue
		}
		out[r.SymbolID] = (r.Score - min) / span
	}
	return out
}
