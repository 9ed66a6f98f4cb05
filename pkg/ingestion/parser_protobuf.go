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

	"github.com/cerberuslabs/cerberus/pkg/model"
)

// parseProtobuf extracts services, RPCs, messages, and enums from a .proto
// file using line-oriented pattern matching: no tree-sitter-proto grammar
// is bundled, so protobuf is the one supported language parsed without a
// real AST. Both TreeSitterParser and SimplifiedParser delegate to the same
// extraction, since it's already as simple as a "simplified" fallback would
// be.
func (p *TreeSitterParser) parseProtobuf(content []byte, filePath string) (*ParseResult, error) {
	return parseProtobufContent(content, filePath, p.truncateCodeText)
}

func parseProtobufContent(content []byte, filePath string, truncate func(string) string) (*ParseResult, error) {
	var symbols []model.Symbol

	lines := strings.Split(string(content), "\n")
	var currentService string
	var serviceStartLine int
	var serviceLines []string
	braceCount := 0

	for i, line := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") {
			continue
		}

		if strings.HasPrefix(trimmed, "service ") && strings.Contains(trimmed, "{") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				currentService = strings.TrimSuffix(parts[1], "{")
				serviceStartLine = lineNum
				serviceLines = []string{line}
				braceCount = strings.Count(trimmed, "{") - strings.Count(trimmed, "}")

				if braceCount == 0 {
					symbols = append(symbols, buildProtobufSymbol(filePath, currentService, "service "+currentService,
						model.KindInterface, serviceStartLine, lineNum, strings.Join(serviceLines, "\n"), truncate))
					currentService = ""
				}
			}
			continue
		}

		if currentService != "" {
			serviceLines = append(serviceLines, line)
			braceCount += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")

			if strings.HasPrefix(trimmed, "rpc ") {
				rpcName, rpcSignature := extractProtobufRPCSignature(trimmed)
				if rpcName != "" {
					fullName := currentService + "." + rpcName
					symbols = append(symbols, buildProtobufSymbol(filePath, fullName, rpcSignature,
						model.KindMethod, lineNum, lineNum, trimmed, truncate))
				}
			}

			if braceCount == 0 {
				symbols = append(symbols, buildProtobufSymbol(filePath, currentService, "service "+currentService,
					model.KindInterface, serviceStartLine, lineNum, strings.Join(serviceLines, "\n"), truncate))
				currentService = ""
				serviceLines = nil
			}
			continue
		}

		if strings.HasPrefix(trimmed, "message ") && strings.Contains(trimmed, "{") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				msgName := strings.TrimSuffix(parts[1], "{")
				endLine := findProtobufBlockEnd(lines, i)
				codeText := strings.Join(lines[i:endLine], "\n")
				symbols = append(symbols, buildProtobufSymbol(filePath, msgName, "message "+msgName,
					model.KindClass, lineNum, endLine, codeText, truncate))
			}
		}

		if strings.HasPrefix(trimmed, "enum ") && strings.Contains(trimmed, "{") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				enumName := strings.TrimSuffix(parts[1], "{")
				endLine := findProtobufBlockEnd(lines, i)
				codeText := strings.Join(lines[i:endLine], "\n")
				symbols = append(symbols, buildProtobufSymbol(filePath, enumName, "enum "+enumName,
					model.KindEnum, lineNum, endLine, codeText, truncate))
			}
		}
	}

	return &ParseResult{Symbols: symbols}, nil
}

func buildProtobufSymbol(filePath, name, signature string, kind model.SymbolKind, startLine, endLine int, codeText string, truncate func(string) string) model.Symbol {
	codeText = truncate(codeText)
	return model.Symbol{
		ID:            model.GenerateSymbolID(filePath, name, kind, startLine, endLine, 1, 1),
		FilePath:      filePath,
		Language:      model.LangProtobuf,
		Kind:          kind,
		ShortName:     name,
		QualifiedName: name,
		Signature:     signature,
		CodeText:      codeText,
		StartLine:     startLine,
		EndLine:       endLine,
		StartCol:      1,
		EndCol:        1,
	}
}

// extractProtobufRPCSignature extracts the RPC name and full signature from
// a proto "rpc Name(Req) returns (Resp);" line.
func extractProtobufRPCSignature(line string) (name, signature string) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(line), "rpc ")
	parenIdx := strings.Index(trimmed, "(")
	if parenIdx == -1 {
		return "", ""
	}
	name = strings.TrimSpace(trimmed[:parenIdx])

	semiIdx := strings.Index(trimmed, ";")
	braceIdx := strings.Index(trimmed, "{")
	endIdx := len(trimmed)
	if semiIdx >= 0 && (braceIdx < 0 || semiIdx < braceIdx) {
		endIdx = semiIdx
	} else if braceIdx >= 0 {
		endIdx = braceIdx
	}

	return name, "rpc " + strings.TrimSpace(trimmed[:endIdx])
}

// findProtobufBlockEnd finds the end line (1-indexed, inclusive) of a
// brace-delimited block starting at lines[startIdx].
func findProtobufBlockEnd(lines []string, startIdx int) int {
	braceCount := 0
	started := false
	for i := startIdx; i < len(lines); i++ {
		braceCount += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
		if !started && strings.Contains(lines[i], "{") {
			started = true
		}
		if started && braceCount == 0 {
			return i + 1
		}
	}
	return len(lines)
}
