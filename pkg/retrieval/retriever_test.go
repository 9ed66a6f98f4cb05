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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/storage"
)

func TestRetriever_KeywordModeNeverCallsVector(t *testing.T) {
	store := &fakeStore{
		symbols: map[string]model.Symbol{
			"a": {ID: "a", ShortName: "AuthHandler", QualifiedName: "pkg.AuthHandler", FilePath: "auth.go"},
		},
		ftsResults: []storage.ScoredSymbol{{SymbolID: "a"}},
		vectorErr:  assertNeverCalledErr{},
	}
	r := NewRetriever(store, stubEmbedder{})

	results, diagnostics, err := r.Search(context.Background(), "AuthHandler", Options{})
	require.NoError(t, err)
	assert.Empty(t, diagnostics)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Symbol.ID)
}

// assertNeverCalledErr is returned by VectorSearch to fail any test where
// it is invoked despite keyword mode's contract not to call it.
type assertNeverCalledErr struct{}

func (assertNeverCalledErr) Error() string { return "vector search should not have been called" }

func TestRetriever_SemanticModeDegradesOnVectorUnavailable(t *testing.T) {
	store := &fakeStore{
		symbols: map[string]model.Symbol{
			"a": {ID: "a", ShortName: "Login", QualifiedName: "pkg.Login", FilePath: "a.go"},
		},
		ftsResults: []storage.ScoredSymbol{{SymbolID: "a"}},
	}
	r := NewRetriever(store, nil) // nil embedder -> VectorUnavailable

	results, diagnostics, err := r.Search(context.Background(), "how does login work across services", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, diagnostics)
	require.Len(t, results, 1)
}

func TestRetriever_DeterministicTieBreakByFileThenLine(t *testing.T) {
	// Construct an exact RRF tie by symmetry: "bx" ranks 1st in BM25 and
	// 2nd in vector, "ay" ranks 2nd in BM25 and 1st in vector, so both
	// accumulate 1/61 + 1/62. Only the retriever's own tie-break then
	// decides the final order.
	store := &fakeStore{
		symbols: map[string]model.Symbol{
			"bx": {ID: "bx", ShortName: "Login", QualifiedName: "pkg.Login", FilePath: "b.go"},
			"ay": {ID: "ay", ShortName: "Login", QualifiedName: "pkg.Login", FilePath: "a.go",
				Docstring: "a long surrounding docstring that dilutes term frequency considerably"},
		},
		ftsResults:  []storage.ScoredSymbol{{SymbolID: "bx"}, {SymbolID: "ay"}},
		vectorIDs:   []string{"ay", "bx"},
		vectorDists: []float32{0.1, 0.2},
	}
	r := NewRetriever(store, stubEmbedder{vec: []float32{1, 0}})

	results, _, err := r.Search(context.Background(), "login", Options{Mode: ModeBalanced})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, results[0].Score, results[1].Score, 1e-9, "both symbols should tie under RRF")
	assert.Equal(t, "a.go", results[0].Symbol.FilePath, "a.go sorts before b.go on equal score")
}

func TestRetriever_TruncatesToFinalK(t *testing.T) {
	symbols := map[string]model.Symbol{}
	var candidates []storage.ScoredSymbol
	for i := 0; i < 15; i++ {
		id := string(rune('a' + i))
		// "Sym" + uppercase suffix gives a CamelCase boundary so "sym" is
		// its own token in every document.
		symbols[id] = model.Symbol{ID: id, ShortName: "Sym" + string(rune('A'+i)), FilePath: id + ".go"}
		candidates = append(candidates, storage.ScoredSymbol{SymbolID: id, Score: float64(15 - i)})
	}
	store := &fakeStore{symbols: symbols, ftsResults: candidates}
	r := NewRetriever(store, nil)

	results, _, err := r.Search(context.Background(), "sym", Options{Mode: ModeKeyword})
	require.NoError(t, err)
	assert.Len(t, results, defaultFinalK)
}
