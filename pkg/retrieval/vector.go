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

	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/storage"
)

// Embedder turns a query string into a vector in the same space as the
// embeddings written alongside symbols. Production wiring supplies a real
// model client; tests supply a stub.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorRetriever wraps Store.VectorSearch behind the same RankedSymbol
// shape BM25 produces, so fusion can treat both methods uniformly.
type VectorRetriever struct {
	store    storage.Store
	embedder Embedder
}

// NewVectorRetriever returns a semantic retriever. embedder may be nil, in
// which case Search degrades to VectorUnavailable rather than panicking —
// the engine runs fine without an embedding model configured.
func NewVectorRetriever(store storage.Store, embedder Embedder) *VectorRetriever {
	return &VectorRetriever{store: store, embedder: embedder}
}

// Search embeds query and returns up to k nearest symbols by ascending
// cosine distance, converted into a descending-is-better score so fusion
// doesn't need to know which direction "better" points for each method.
func (v *VectorRetriever) Search(ctx context.Context, query string, k int) ([]RankedSymbol, error) {
	if k <= 0 {
		k = defaultKPerMethod
	}
	if v.embedder == nil {
		return nil, model.NewVectorUnavailable("vector_search", errors.New("no embedder configured"))
	}

	vec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	ids, dists, err := v.store.VectorSearch(ctx, vec, k)
	if err != nil {
		return nil, err
	}

	results := make([]RankedSymbol, len(ids))
	for i, id := range ids {
		// Distances are in [0, 2]; invert so larger is more relevant,
		// matching BM25's higher-is-better convention for fusion.
		results[i] = RankedSymbol{SymbolID: id, Score: 1 - float64(dists[i])}
	}
	return results, nil
}
