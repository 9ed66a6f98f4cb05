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

// Package ingestion implements Cerberus's Scanner and Language Parsers: a
// bounded-memory directory walk that returns the surviving files'
// FileResults as one slice in path order, and the parsers (tree-sitter for
// Go, Python, JavaScript, TypeScript; line-oriented matching for Protobuf)
// that turn a file's bytes into model.Symbol, model.Import, and
// model.MethodCall rows.
//
// # Pipeline
//
// The ingest leg runs in stages, orchestrated by pkg/engine:
//
//  1. Scan: walk the repository, honoring hard-excludes and per-file size
//     caps, dispatching each surviving file to its language parser
//     (scanner.go).
//  2. Parse: extract symbols/imports/calls via a tree-sitter grammar, or
//     via the simplified brace-counting parser under ParserModeSimplified
//     and for Protobuf, which has no bundled grammar (parser_go.go,
//     parser_javascript.go, parser_python.go, parser_protobuf.go,
//     parser_simplified.go).
//  3. Skeletonize: on demand, replace symbol bodies with a placeholder while
//     preserving signatures, decorators, and docstrings (skeleton.go).
//  4. Embed: optionally generate embedding vectors for symbol bodies via a
//     pluggable EmbeddingProvider (embedding.go).
//
// Delta detection (delta.go) and revision bookkeeping (checkpoint.go)
// support pkg/engine's incremental Update operation, which re-runs this
// pipeline over only the files a VCS diff (or, without a VCS, a
// content-hash comparison) reports as changed.
//
// # Supported languages
//
// Go, Python, JavaScript, and TypeScript are parsed with full fidelity via
// tree-sitter grammars. Protobuf is supported as an additional language via
// line-oriented pattern matching (no tree-sitter-proto grammar is bundled).
package ingestion
