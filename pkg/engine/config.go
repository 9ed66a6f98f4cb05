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
	"log/slog"

	"github.com/cerberuslabs/cerberus/pkg/ingestion"
)

// Config configures an Engine for the lifetime of one Open call.
type Config struct {
	// ProjectID identifies this project's Revision record. Defaults to a
	// hash of RepoRoot when empty, so callers indexing a single repo never
	// have to think about it.
	ProjectID string

	// RepoRoot is the directory Index/Update walk and Skeletonize/GetSnippet
	// resolve relative paths against.
	RepoRoot string

	// ParserMode selects tree-sitter, the simplified fallback, or auto
	// (tree-sitter when a grammar is registered, simplified otherwise).
	// Empty selects ingestion.DefaultParserMode.
	ParserMode ingestion.ParserMode

	// EmbeddingProvider selects the embedding backend via
	// ingestion.CreateEmbeddingProvider: "mock", "nomic", "ollama",
	// "openai", "llamacpp", or "none" to disable embedding generation
	// entirely (search then runs lexical-only). Defaults to the provider
	// CreateEmbeddingProvider selects from environment variables.
	EmbeddingProvider string

	// EmbedWorkers bounds embedding-generation concurrency. <= 1 runs
	// sequentially.
	EmbedWorkers int

	// ParseWorkers bounds the Scanner's parse concurrency.
	ParseWorkers int

	// FilesPerBatch is the number of files committed per Store
	// transaction. <= 0 selects ingestion.DefaultFilesPerBatch.
	FilesPerBatch int

	// MaxFileSizeBytes caps the size of any one file the Scanner parses.
	MaxFileSizeBytes int64

	// MaxSymbolsPerFile caps how many symbols one file may contribute.
	MaxSymbolsPerFile int

	// MaxSymbolsTotal caps the cumulative number of symbols one Index or
	// Update run may write; 0 means unbounded. Hitting the cap ends the
	// run early with a CapacityExceeded report rather than an error, since
	// the symbols written so far remain a valid (partial) index.
	MaxSymbolsTotal int

	// ExcludeGlobs supplements ingestion.DefaultExcludeGlobs.
	ExcludeGlobs []string

	// VectorCacheSize bounds the store's repeated-query vector cache.
	VectorCacheSize int

	// RebuildThreshold is the changed/indexed file ratio past which Update
	// falls back to a full Index (spec default 0.3).
	RebuildThreshold float64

	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.ParserMode == "" {
		c.ParserMode = ingestion.DefaultParserMode
	}
	if c.FilesPerBatch <= 0 {
		c.FilesPerBatch = ingestion.DefaultFilesPerBatch
	}
	if c.MaxFileSizeBytes <= 0 {
		c.MaxFileSizeBytes = 1 << 20
	}
	if c.MaxSymbolsPerFile <= 0 {
		c.MaxSymbolsPerFile = 2000
	}
	if c.ParseWorkers <= 0 {
		c.ParseWorkers = 8
	}
	if c.RebuildThreshold <= 0 {
		c.RebuildThreshold = 0.3
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// IndexOptions customizes one Index call. The zero value uses the
// Engine's Config defaults for every bound.
type IndexOptions struct {
	ExcludeGlobs      []string
	MaxFileSizeBytes  int64
	MaxSymbolsPerFile int
	MaxSymbolsTotal   int
	ParseWorkers      int
}

// UpdateOptions customizes one Update call.
type UpdateOptions struct {
	IndexOptions
	// BaseSHA is the commit Update diffs against; empty means the last
	// recorded Revision's commit (or, absent one, the empty tree).
	BaseSHA string
	// HeadSHA is the commit Update diffs to; empty means the worktree's
	// current HEAD.
	HeadSHA string
}
