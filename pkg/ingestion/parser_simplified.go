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
	"strings"
	"sync/atomic"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

// SimplifiedParser extracts only top-level function/method declarations
// with brace counting and line-prefix matching, no AST. It backstops
// ParserModeAuto when a file's language has no tree-sitter grammar
// registered, and is selected directly under ParserModeSimplified.
//
// Limitations relative to TreeSitterParser: no Go/JS/TS type or class
// extraction (Python class blocks are recorded, with KindFunction; Protobuf
// goes through the shared line-oriented Protobuf extraction), no call-site
// extraction, and nested declarations (closures, methods on
// locally-defined types) are not recognized.
type SimplifiedParser struct {
	maxCodeTextSize int64
	truncatedCount  atomic.Int64
}

func NewSimplifiedParser() *SimplifiedParser {
	return &SimplifiedParser{maxCodeTextSize: defaultMaxCodeTextSize}
}

func (p *SimplifiedParser) SetMaxCodeTextSize(size int64) {
	if size > 0 {
		p.maxCodeTextSize = size
	}
}

func (p *SimplifiedParser) GetTruncatedCount() int { return int(p.truncatedCount.Load()) }

func (p *SimplifiedParser) ResetTruncatedCount() { p.truncatedCount.Store(0) }

func (p *SimplifiedParser) truncateCodeText(codeText string) string {
	if int64(len(codeText)) <= p.maxCodeTextSize {
		return codeText
	}
	p.truncatedCount.Add(1)
	return codeText[:p.maxCodeTextSize]
}

func (p *SimplifiedParser) ParseFile(fileInfo FileInfo) (*ParseResult, error) {
	content, err := readFile(fileInfo.FullPath)
	if err != nil {
		return nil, err
	}

	switch fileInfo.Language {
	case model.LangGo:
		return &ParseResult{Symbols: p.parseBraceDelimited(string(content), fileInfo.Path, model.LangGo, "func ")}, nil
	case model.LangJavaScript, model.LangTypeScript:
		return &ParseResult{Symbols: p.parseBraceDelimited(string(content), fileInfo.Path, fileInfo.Language, "function ")}, nil
	case model.LangProtobuf:
		return parseProtobufContent(content, fileInfo.Path, p.truncateCodeText)
	case model.LangPython:
		return &ParseResult{Symbols: p.parsePythonIndented(string(content), fileInfo.Path)}, nil
	default:
		return &ParseResult{Diagnostics: []string{"no simplified parser for language " + string(fileInfo.Language)}}, nil
	}
}

// parseBraceDelimited extracts brace-delimited declarations (Go functions,
// JS/TS functions) whose line starts with declPrefix, tracking matching
// braces to find each declaration's end line.
func (p *SimplifiedParser) parseBraceDelimited(content, filePath string, lang model.Language, declPrefix string) []model.Symbol {
	lines := strings.Split(content, "\n")
	var symbols []model.Symbol

	inDecl := false
	var name string
	var startLine int
	var declLines []string
	braceCount := 0
	opened := false

	flush := func(endLine int) {
		if name == "" {
			return
		}
		codeText := p.truncateCodeText(strings.Join(declLines, "\n"))
		symbols = append(symbols, model.Symbol{
			ID:            model.GenerateSymbolID(filePath, name, model.KindFunction, startLine, endLine, 1, 1),
			FilePath:      filePath,
			Language:      lang,
			Kind:          model.KindFunction,
			ShortName:     name,
			QualifiedName: name,
			CodeText:      codeText,
			StartLine:     startLine,
			EndLine:       endLine,
			StartCol:      1,
			EndCol:        1,
		})
		name = ""
	}

	for i, line := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)

		if !inDecl && strings.HasPrefix(trimmed, declPrefix) {
			if declName := simplifiedDeclName(trimmed, declPrefix); declName != "" {
				name = declName
				startLine = lineNum
				declLines = []string{line}
				braceCount = strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
				inDecl = true
				opened = strings.Contains(trimmed, "{")
				if braceCount == 0 && !strings.Contains(trimmed, "{") {
					// Declaration-only line (no body on this line yet);
					// keep scanning for the opening brace.
					continue
				}
				if braceCount <= 0 && strings.Contains(trimmed, "{") {
					flush(lineNum)
					inDecl = false
				}
			}
			continue
		}

		if inDecl {
			declLines = append(declLines, line)
			if strings.Contains(line, "{") {
				opened = true
			}
			braceCount += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
			if braceCount <= 0 && opened {
				flush(lineNum)
				inDecl = false
			}
		}
	}
	if inDecl {
		flush(len(lines))
	}

	return symbols
}

// simplifiedDeclName pulls the identifier between declPrefix and the next
// "(" on a declaration line, stripping a leading receiver like "(s *T) " for
// Go methods.
func simplifiedDeclName(line, declPrefix string) string {
	rest := strings.TrimPrefix(line, declPrefix)
	if strings.HasPrefix(rest, "(") {
		if idx := strings.Index(rest, ")"); idx >= 0 {
			rest = strings.TrimSpace(rest[idx+1:])
		}
	}
	parenIdx := strings.Index(rest, "(")
	if parenIdx == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:parenIdx])
}

// parsePythonIndented extracts top-level "def"/"class" blocks by tracking
// indentation, since Python has no braces to count.
func (p *SimplifiedParser) parsePythonIndented(content, filePath string) []model.Symbol {
	lines := strings.Split(content, "\n")
	var symbols []model.Symbol

	var name string
	var startLine int
	var declLines []string
	baseIndent := -1

	flush := func(endLine int) {
		if name == "" {
			return
		}
		codeText := p.truncateCodeText(strings.Join(declLines, "\n"))
		symbols = append(symbols, model.Symbol{
			ID:            model.GenerateSymbolID(filePath, name, model.KindFunction, startLine, endLine, 1, 1),
			FilePath:      filePath,
			Language:      model.LangPython,
			Kind:          model.KindFunction,
			ShortName:     name,
			QualifiedName: name,
			CodeText:      codeText,
			StartLine:     startLine,
			EndLine:       endLine,
			StartCol:      1,
			EndCol:        1,
		})
		name = ""
	}

	for i, line := range lines {
		lineNum := i + 1
		trimmed := strings.TrimLeft(line, " \t")
		indent := len(line) - len(trimmed)

		isDecl := strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "class ")
		if isDecl && indent == 0 {
			flush(lineNum - 1)
			prefix := "def "
			if strings.HasPrefix(trimmed, "class ") {
				prefix = "class "
			}
			rest := strings.TrimPrefix(trimmed, prefix)
			end := len(rest)
			for _, sep := range []string{"(", ":"} {
				if idx := strings.Index(rest, sep); idx >= 0 && idx < end {
					end = idx
				}
			}
			name = strings.TrimSpace(rest[:end])
			startLine = lineNum
			declLines = []string{line}
			baseIndent = indent
			continue
		}

		if name != "" {
			if trimmed == "" {
				declLines = append(declLines, line)
				continue
			}
			if indent > baseIndent {
				declLines = append(declLines, line)
				continue
			}
			flush(lineNum - 1)
		}
	}
	flush(len(lines))

	return symbols
}
