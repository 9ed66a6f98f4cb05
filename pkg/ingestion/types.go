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

package ingestion

import "github.com/cerberuslabs/cerberus/pkg/model"

// FileInfo describes a file discovered by the Scanner and handed to a
// CodeParser.
type FileInfo struct {
	Path     string // path relative to the scan root, forward-slash normalized
	FullPath string // absolute path on disk
	Size     int64
	Language model.Language
}

// ParseResult is everything a CodeParser extracts from one file: the rows
// the Writer will persist, plus diagnostics for anything that went wrong
// along the way. A failed or partially-truncated parse still returns a
// ParseResult — spec.md's parser contract never aborts the pipeline for one
// bad file.
type ParseResult struct {
	PackageName string
	Symbols     []model.Symbol
	Imports     []model.Import
	Calls       []model.MethodCall
	Truncated   bool
	Diagnostics []string
}

// CodeParser parses one file's bytes into symbols, imports, and call sites.
// TreeSitterParser and the simplified fallback SimplifiedParser both implement it, so
// the Scanner can dispatch through ParserMode without caring which one is
// behind the interface.
type CodeParser interface {
	ParseFile(fileInfo FileInfo) (*ParseResult, error)
	SetMaxCodeTextSize(size int64)
	GetTruncatedCount() int
	ResetTruncatedCount()
}

// ParserMode selects which CodeParser implementation handles a file.
type ParserMode string

const (
	// ParserModeTreeSitter uses the tree-sitter grammar for Go, Python,
	// JavaScript and TypeScript. Protobuf has no bundled grammar and is still
	// handled by SimplifiedParser, so this mode selects the same parsers as
	// ParserModeAuto.
	ParserModeTreeSitter ParserMode = "treesitter"

	// ParserModeSimplified always uses the brace-counting/line-matching fallback,
	// regardless of grammar availability.
	ParserModeSimplified ParserMode = "simplified"

	// ParserModeAuto prefers tree-sitter and falls back to the simplified
	// parser only for languages without a registered grammar.
	ParserModeAuto ParserMode = "auto"
)

// DefaultParserMode is ParserModeAuto: tree-sitter when available, the
// simplified parser otherwise.
const DefaultParserMode = ParserModeAuto
