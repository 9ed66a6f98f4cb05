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

// Package storage implements the persistent symbol and vector store: a
// single-writer, multi-reader SQLite backend with an FTS5 lexical index
// and a companion flat vector index for semantic search.
package storage

import (
	"context"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

// SymbolFilter narrows QuerySymbols. Zero-value fields are unconstrained.
type SymbolFilter struct {
	NamePrefix string
	FilePath   string
	Kind       model.SymbolKind
	Limit      int
}

// ScoredSymbol pairs a symbol ID with a lexical rank score from FTSSearch.
type ScoredSymbol struct {
	SymbolID string
	Score    float64
}

// SymbolCursor lazily streams QuerySymbols results. Callers must call
// Close when done, even after exhausting or erroring out of Next.
type SymbolCursor interface {
	Next(ctx context.Context) (model.Symbol, bool, error)
	Close() error
}

// Txn is a single-writer transaction scoped to one batch of file changes.
// All writes inside a Txn are atomic: either Commit persists every write or
// Rollback discards all of them.
type Txn interface {
	// DeleteFile cascades deletion of every row owned by path: the file
	// row itself, its symbols, imports, calls, references, and embeddings.
	DeleteFile(ctx context.Context, path string) error

	// UpsertFile idempotently inserts or replaces a file's metadata row.
	UpsertFile(ctx context.Context, f model.File) error

	// WriteSymbolsBatch inserts up to 1000 symbol rows. Rows that collide
	// on the I1 identity key (file_path, short_name, kind, start_line,
	// end_line) are ignored rather than erroring. Returns the IDs that
	// were actually written (inserted or already present).
	WriteSymbolsBatch(ctx context.Context, symbols []model.Symbol) ([]string, error)

	WriteImportsBatch(ctx context.Context, imports []model.Import) error
	WriteCallsBatch(ctx context.Context, calls []model.MethodCall) error
	WriteReferencesBatch(ctx context.Context, refs []model.SymbolReference) error

	// DeleteAllReferences purges every symbol_references row. Resolve calls
	// this before rewriting its freshly computed edge set, since a changed
	// call target produces a different reference ID and would otherwise
	// leave the stale edge in place alongside the new one.
	DeleteAllReferences(ctx context.Context) error

	Commit() error
	Rollback() error
}

// Store is the sole owner of persisted index state. Readers observe a
// consistent snapshot as of the last commit; a cursor opened before a
// commit keeps returning rows from the snapshot it was opened against.
type Store interface {
	BeginTxn(ctx context.Context) (Txn, error)

	QuerySymbols(ctx context.Context, filter SymbolFilter) (SymbolCursor, error)

	// FTSSearch runs a BM25-ranked full-text query over symbol names,
	// qualified names, signatures, and docstrings, returning the top k
	// matches by descending score.
	FTSSearch(ctx context.Context, query string, k int) ([]ScoredSymbol, error)

	// VectorSearch returns the k nearest symbol IDs to vec by cosine
	// similarity, alongside their distances, in ascending-distance order.
	// Returns model.KindVectorUnavailable if no embeddings are indexed.
	VectorSearch(ctx context.Context, vec []float32, k int) ([]string, []float32, error)

	// GetSnippet reads padding lines of context around a symbol directly
	// from disk; snippets are never persisted.
	GetSnippet(ctx context.Context, symbolID string, padding int) (model.Snippet, error)

	// GetSymbol fetches one symbol by ID.
	GetSymbol(ctx context.Context, symbolID string) (model.Symbol, error)

	// SymbolsForFile returns every symbol currently owned by path.
	SymbolsForFile(ctx context.Context, path string) ([]model.Symbol, error)

	// ImportsForFile, CallsFrom, and ReferencesFrom support the resolver
	// passes, which read the graph one file's worth at a time.
	ImportsForFile(ctx context.Context, path string) ([]model.Import, error)
	CallsFrom(ctx context.Context, path string) ([]model.MethodCall, error)
	ReferencesTo(ctx context.Context, symbolID string) ([]model.SymbolReference, error)
	ReferencesFrom(ctx context.Context, symbolID string) ([]model.SymbolReference, error)

	// WriteEmbedding upserts one symbol's vector outside the batch-write
	// path, since embeddings are computed after a batch's rows are written.
	WriteEmbedding(ctx context.Context, e model.Embedding) error

	// FileMeta returns the stored content hash for path, or ok=false if
	// the file is not yet indexed. Used by the incremental updater to
	// decide whether a file actually changed.
	FileMeta(ctx context.Context, path string) (f model.File, ok bool, err error)

	// KnownFiles lists every indexed file path, for delta-vs-store
	// reconciliation during incremental updates.
	KnownFiles(ctx context.Context) ([]string, error)

	// SchemaVersion returns the stored schema version tag (I6).
	SchemaVersion(ctx context.Context) (int, error)

	Close() error
}
