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

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

// defaultMaxCodeTextSize bounds how much of a symbol's source text is kept
// as CodeText. A handful of generated files in every language have single
// declarations running tens of thousands of lines; without this cap one
// such file can dominate memory for the whole ingest run.
const defaultMaxCodeTextSize = 64 * 1024

// TreeSitterParser extracts symbols, imports, and call sites with full
// fidelity using a tree-sitter grammar per language. It is the parser
// ParserModeAuto prefers whenever a grammar is registered for the file's
// language.
//
// A single TreeSitterParser is shared across the Scanner's whole worker
// pool, but sitter.Parser.ParseCtx is not safe for concurrent use on one
// instance; mu serializes ParseFile from the parse through symbol/import/
// call extraction, so workers overlap only their file reads.
type TreeSitterParser struct {
	mu sync.Mutex

	goParser *sitter.Parser
	jsParser *sitter.Parser
	tsParser *sitter.Parser
	pyParser *sitter.Parser

	logger *slog.Logger

	maxCodeTextSize int64
	truncatedCount  atomic.Int64
}

// NewTreeSitterParser builds a parser with one sitter.Parser instance per
// supported grammar.
func NewTreeSitterParser(logger *slog.Logger) *TreeSitterParser {
	if logger == nil {
		logger = slog.Default()
	}

	goP := sitter.NewParser()
	goP.SetLanguage(golang.GetLanguage())

	jsP := sitter.NewParser()
	jsP.SetLanguage(javascript.GetLanguage())

	tsP := sitter.NewParser()
	tsP.SetLanguage(typescript.GetLanguage())

	pyP := sitter.NewParser()
	pyP.SetLanguage(python.GetLanguage())

	return &TreeSitterParser{
		goParser:        goP,
		jsParser:        jsP,
		tsParser:        tsP,
		pyParser:        pyP,
		logger:          logger,
		maxCodeTextSize: defaultMaxCodeTextSize,
	}
}

// tsxLanguage returns the tsx grammar for .tsx files, which use a distinct
// grammar from plain .ts despite sharing most node types.
func (p *TreeSitterParser) tsxLanguage() *sitter.Language {
	return tsx.GetLanguage()
}

func (p *TreeSitterParser) ParseFile(fileInfo FileInfo) (*ParseResult, error) {
	content, err := readFile(fileInfo.FullPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileInfo.Path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch fileInfo.Language {
	case model.LangGo:
		return p.parseGo(content, fileInfo.Path)
	case model.LangJavaScript:
		return p.parseJSOrTS(content, fileInfo.Path, p.jsParser)
	case model.LangTypeScript:
		parser := p.tsParser
		if isTSXPath(fileInfo.Path) {
			parser = sitter.NewParser()
			parser.SetLanguage(p.tsxLanguage())
		}
		return p.parseJSOrTS(content, fileInfo.Path, parser)
	case model.LangPython:
		return p.parsePython(content, fileInfo.Path)
	case model.LangProtobuf:
		return p.parseProtobuf(content, fileInfo.Path)
	default:
		return nil, fmt.Errorf("no tree-sitter grammar for language %q", fileInfo.Language)
	}
}

func (p *TreeSitterParser) SetMaxCodeTextSize(size int64) {
	if size > 0 {
		p.maxCodeTextSize = size
	}
}

func (p *TreeSitterParser) GetTruncatedCount() int {
	return int(p.truncatedCount.Load())
}

func (p *TreeSitterParser) ResetTruncatedCount() {
	p.truncatedCount.Store(0)
}

// truncateCodeText caps codeText at maxCodeTextSize bytes, recording the
// truncation so callers can surface it in diagnostics and metrics.
func (p *TreeSitterParser) truncateCodeText(codeText string) string {
	if int64(len(codeText)) <= p.maxCodeTextSize {
		return codeText
	}
	p.truncatedCount.Add(1)
	return codeText[:p.maxCodeTextSize]
}

// countErrors walks the tree counting ERROR nodes, tree-sitter's signal
// that it could not parse a span and fell back to error recovery. A small
// count is normal in any real file (tree-sitter is error-tolerant by
// design); a large count relative to the file's size indicates the file is
// not valid source for this grammar at all.
func countErrors(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	count := 0
	if node.IsError() || node.IsMissing() {
		count++
	}
	childCount := int(node.ChildCount())
	for i := 0; i < childCount; i++ {
		count += countErrors(node.Child(i))
	}
	return count
}

func isTSXPath(path string) bool {
	return len(path) >= 4 && path[len(path)-4:] == ".tsx"
}
