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
	"testing"

	"github.com/stretchr/testify/assert"
)

func findFused(t *testing.T, fs []fused, id string) fused {
	t.Helper()
	for _, f := range fs {
		if f.symbolID == id {
			return f
		}
	}
	t.Fatalf("symbol %s not found in fused results", id)
	return fused{}
}

func TestFuseRRF_SymbolInBothListsOutranksSingleList(t *testing.T) {
	bm25 := []RankedSymbol{{SymbolID: "auth_handler", Score: 9.1}, {SymbolID: "other", Score: 3.0}}
	vector := []RankedSymbol{{SymbolID: "auth_handler", Score: 0.95}}

	out := fuseRRF(bm25, vector)

	both := findFused(t, out, "auth_handler")
	single := findFused(t, out, "other")
	assert.Equal(t, matchBoth, both.matchType)
	assert.Equal(t, matchBM25, single.matchType)
	assert.Greater(t, both.score, single.score)
}

func TestFuseRRF_MissingRankingContributesZero(t *testing.T) {
	bm25 := []RankedSymbol{{SymbolID: "x", Score: 1}}
	out := fuseRRF(bm25, nil)
	x := findFused(t, out, "x")
	assert.InDelta(t, 1.0/61.0, x.score, 1e-9)
}

func TestFuseWeighted_AlphaShiftsBalance(t *testing.T) {
	bm25 := []RankedSymbol{{SymbolID: "a", Score: 10}, {SymbolID: "b", Score: 1}}
	vector := []RankedSymbol{{SymbolID: "a", Score: 0.1}, {SymbolID: "b", Score: 0.9}}

	keywordLeaning := fuseWeighted(bm25, vector, 0.9)
	semanticLeaning := fuseWeighted(bm25, vector, 0.1)

	aKeyword := findFused(t, keywordLeaning, "a").score
	aSemantic := findFused(t, semanticLeaning, "a").score
	assert.Greater(t, aKeyword, aSemantic, "higher alpha should weight a's strong BM25 signal more heavily")
}

func TestNormalize_SingleElementMapsToOne(t *testing.T) {
	out := normalize([]RankedSymbol{{SymbolID: "solo", Score: 42}})
	assert.Equal(t, 1.0, out["solo"])
}

func TestNormalize_Empty(t *testing.T) {
	out := normalize(nil)
	assert.Empty(t, out)
}
