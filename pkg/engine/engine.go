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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/cerberuslabs/cerberus/pkg/ingestion"
	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/retrieval"
	"github.com/cerberuslabs/cerberus/pkg/storage"
)

// Engine is the single entry point external collaborators use. One Engine
// owns one store directory and one repository root; Index/Update hold a
// mutex for the duration of their write pass so the single-writer
// discipline (spec.md §5) holds even if a caller invokes them
// concurrently from multiple goroutines.
type Engine struct {
	writeMu sync.Mutex

	cfg    Config
	store  storage.Store
	logger *slog.Logger

	scanner   *ingestion.Scanner
	batcher   *ingestion.Batcher
	embedGen  *ingestion.EmbeddingGenerator
	revisions *ingestion.RevisionStore
	skel      *ingestion.Skeletonizer
	retriever *retrieval.Retriever
	assembler *retrieval.Assembler
}

// Open loads or initializes the store rooted at storeDir and wires every
// subsystem Index/Update/Search/Resolve need.
func Open(storeDir string, cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	if cfg.ProjectID == "" {
		cfg.ProjectID = deriveProjectID(cfg.RepoRoot)
	}

	store, err := storage.Open(storage.Config{
		DataDir:         storeDir,
		RepoRoot:        cfg.RepoRoot,
		VectorCacheSize: cfg.VectorCacheSize,
	})
	if err != nil {
		return nil, model.NewStoreError("Open", err)
	}

	var embedGen *ingestion.EmbeddingGenerator
	var embedder retrieval.Embedder
	if cfg.EmbeddingProvider != "none" {
		provider, err := ingestion.CreateEmbeddingProvider(cfg.EmbeddingProvider, cfg.Logger)
		if err != nil {
			_ = store.Close()
			return nil, model.NewStoreError("Open", fmt.Errorf("create embedding provider: %w", err))
		}
		embedGen = ingestion.NewEmbeddingGenerator(provider, cfg.EmbedWorkers, cfg.Logger)
		// ingestion.EmbeddingProvider and retrieval.Embedder share the same
		// Embed(ctx, text) ([]float32, error) shape, so the same provider
		// instance serves both ingest-time and query-time embedding.
		embedder = provider
	}

	parsers := newParsers(cfg.ParserMode, cfg.Logger)
	scanner := ingestion.NewScanner(parsers, cfg.Logger)
	batcher := ingestion.NewBatcher(cfg.FilesPerBatch)
	revisions := ingestion.NewRevisionStore(storeDir)
	skel := ingestion.NewSkeletonizer(cfg.RepoRoot)

	e := &Engine{
		cfg:       cfg,
		store:     store,
		logger:    cfg.Logger,
		scanner:   scanner,
		batcher:   batcher,
		embedGen:  embedGen,
		revisions: revisions,
		skel:      skel,
	}
	e.retriever = retrieval.NewRetriever(store, embedder)
	e.assembler = retrieval.NewAssembler(store, storeEdgeLookup{store: store}, storeBaseLookup{store: store}, skel)
	return e, nil
}

// Close flushes and releases every resource Open acquired.
func (e *Engine) Close() error {
	if err := e.store.Close(); err != nil {
		return model.NewStoreError("Close", err)
	}
	return nil
}

// newParsers builds the per-language CodeParser table ParserMode selects.
// Protobuf has no tree-sitter grammar bundled, so it always resolves to
// the shared line-oriented extraction regardless of mode.
func newParsers(mode ingestion.ParserMode, logger *slog.Logger) map[model.Language]ingestion.CodeParser {
	simplified := ingestion.NewSimplifiedParser()

	languages := []model.Language{model.LangGo, model.LangPython, model.LangJavaScript, model.LangTypeScript}
	parsers := make(map[model.Language]ingestion.CodeParser, len(languages)+1)

	switch mode {
	case ingestion.ParserModeSimplified:
		for _, lang := range languages {
			parsers[lang] = simplified
		}
	default: // ParserModeTreeSitter and ParserModeAuto both prefer tree-sitter
		ts := ingestion.NewTreeSitterParser(logger)
		for _, lang := range languages {
			parsers[lang] = ts
		}
	}
	parsers[model.LangProtobuf] = simplified

	return parsers
}

// deriveProjectID hashes repoRoot so callers indexing a single repository
// never have to assign a ProjectID themselves; two Engines opened against
// the same root share the same Revision record.
func deriveProjectID(repoRoot string) string {
	if repoRoot == "" {
		return "default"
	}
	sum := sha256.Sum256([]byte(repoRoot))
	return hex.EncodeToString(sum[:8])
}

// newRunID produces a fresh, unique identifier for one Index/Update run's
// logs and report.
func newRunID() string {
	return uuid.NewString()
}
