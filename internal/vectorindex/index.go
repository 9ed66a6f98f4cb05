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

// Package vectorindex is a flat, brute-force nearest-neighbor index over
// symbol embeddings. It trades the logarithmic search time of an ANN
// structure (HNSW, IVF) for zero build cost and exact results, which is
// the right trade at the embedding counts a single repository produces.
//
// The index loads lazily on first query and is kept incrementally in sync
// by the writer (Add/Remove) afterward, the same shape vvoland-cagent's
// VectorStore uses to avoid a full reindex on every file change.
package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Loader supplies the full embedding set on first use. Implemented by the
// storage package so this package stays free of any SQL dependency.
type Loader interface {
	LoadAllEmbeddings(ctx context.Context) (map[string][]float32, error)
}

// Index is a thread-safe flat vector index with an LRU cache in front of
// repeated identical queries, keyed by a hash of the query vector and k.
type Index struct {
	mu      sync.RWMutex
	loader  Loader
	loaded  bool
	vectors map[string][]float32
	dim     int

	resultCache *lru.Cache[string, searchResult]
}

type searchResult struct {
	ids   []string
	dists []float32
}

// New builds an Index backed by loader, caching up to cacheSize distinct
// queries. cacheSize <= 0 disables the result cache.
func New(loader Loader, cacheSize int) *Index {
	idx := &Index{loader: loader, vectors: make(map[string][]float32)}
	if cacheSize > 0 {
		c, err := lru.New[string, searchResult](cacheSize)
		if err == nil {
			idx.resultCache = c
		}
	}
	return idx
}

func (idx *Index) ensureLoaded(ctx context.Context) error {
	idx.mu.RLock()
	loaded := idx.loaded
	idx.mu.RUnlock()
	if loaded {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.loaded {
		return nil
	}
	vectors, err := idx.loader.LoadAllEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("vectorindex: load embeddings: %w", err)
	}
	idx.vectors = vectors
	for _, v := range vectors {
		idx.dim = len(v)
		break
	}
	idx.loaded = true
	return nil
}

// Add inserts or replaces a single vector, keyed by symbol ID, and
// invalidates the result cache since the corpus changed.
func (idx *Index) Add(symbolID string, vec []float32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.vectors == nil {
		idx.vectors = make(map[string][]float32)
	}
	idx.vectors[symbolID] = vec
	if idx.dim == 0 {
		idx.dim = len(vec)
	}
	idx.invalidateCache()
}

// Remove drops a symbol's vector, e.g. when its owning file is deleted.
func (idx *Index) Remove(symbolID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.vectors, symbolID)
	idx.invalidateCache()
}

func (idx *Index) invalidateCache() {
	if idx.resultCache != nil {
		idx.resultCache.Purge()
	}
}

// Len reports how many vectors are currently indexed (0 before the first
// Search call triggers a load; Len itself never loads).
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Search returns the k nearest symbol IDs to query by cosine similarity
// (converted to a distance in [0, 2], ascending) along with their
// distances. Returns an empty result, not an error, when the index holds
// no vectors — callers translate that into VectorUnavailable.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]string, []float32, error) {
	if err := idx.ensureLoaded(ctx); err != nil {
		return nil, nil, err
	}

	cacheKey := ""
	if idx.resultCache != nil {
		cacheKey = queryCacheKey(query, k)
		if cached, ok := idx.resultCache.Get(cacheKey); ok {
			return cached.ids, cached.dists, nil
		}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vectors) == 0 {
		return nil, nil, nil
	}
	if len(query) != idx.dim {
		return nil, nil, fmt.Errorf("vectorindex: dimension mismatch: query has %d, index has %d", len(query), idx.dim)
	}

	type scored struct {
		id   string
		dist float32
	}
	candidates := make([]scored, 0, len(idx.vectors))
	for id, vec := range idx.vectors {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}
		candidates = append(candidates, scored{id: id, dist: cosineDistance(query, vec)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].id < candidates[j].id // deterministic tie-break
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	ids := make([]string, k)
	dists := make([]float32, k)
	for i := 0; i < k; i++ {
		ids[i] = candidates[i].id
		dists[i] = candidates[i].dist
	}

	if idx.resultCache != nil {
		idx.resultCache.Add(cacheKey, searchResult{ids: ids, dists: dists})
	}
	return ids, dists, nil
}

func cosineDistance(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2 // maximally dissimilar
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return float32(1 - sim)
}

func queryCacheKey(query []float32, k int) string {
	h := uint64(14695981039346656037) // FNV-1a offset basis
	for _, f := range query {
		bits := math.Float32bits(f)
		h ^= uint64(bits)
		h *= 1099511628211
	}
	h ^= uint64(k)
	h *= 1099511628211
	return fmt.Sprintf("%x:%d", h, k)
}
