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
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

// bodyPlaceholder replaces a symbol's body when skeletonizing. It is kept
// short and language-neutral rather than using a language-specific
// "pass"/"..." token, since the skeleton is read by a retrieval model, not
// compiled.
const bodyPlaceholder = "// ..."

// Skeletonizer replaces a symbol's body with bodyPlaceholder while
// preserving its signature, leading doc comment, and (for Go) decorators
// are not applicable, but Python decorators and struct/field declarations
// are kept verbatim since they carry type information a retrieval model
// needs. It implements pkg/retrieval.Skeletonizer.
//
// All four tree-sitter-backed languages get full-fidelity skeletonization:
// none fall back to returning the symbol unmodified.
type Skeletonizer struct {
	root string
}

// NewSkeletonizer builds a Skeletonizer that resolves a symbol's FilePath
// against root before reading it from disk (symbols never carry their
// source text once persisted and reloaded from the Store).
func NewSkeletonizer(root string) *Skeletonizer {
	return &Skeletonizer{root: root}
}

func (s *Skeletonizer) Skeletonize(_ context.Context, sym model.Symbol) (string, float64, error) {
	fullPath := sym.FilePath
	if s.root != "" && !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(s.root, sym.FilePath)
	}
	content, err := readFile(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("skeletonize %s: %w", sym.FilePath, err)
	}

	lines := strings.Split(string(content), "\n")
	if sym.StartLine < 1 || sym.EndLine > len(lines) || sym.StartLine > sym.EndLine {
		return "", 0, fmt.Errorf("skeletonize %s: symbol range %d-%d out of bounds", sym.FilePath, sym.StartLine, sym.EndLine)
	}
	original := lines[sym.StartLine-1 : sym.EndLine]

	var skeleton []string
	switch sym.Language {
	case model.LangGo:
		skeleton = skeletonizeBraceBody(original)
	case model.LangJavaScript, model.LangTypeScript:
		skeleton = skeletonizeBraceBody(original)
	case model.LangPython:
		skeleton = skeletonizePythonBody(original)
	case model.LangProtobuf:
		skeleton = original // already declaration-only; no executable body to strip
	default:
		skeleton = original
	}

	text := strings.Join(skeleton, "\n")
	ratio := 1.0
	if len(original) > 0 {
		ratio = float64(len(skeleton)) / float64(len(original))
	}
	return text, ratio, nil
}

// skeletonizeBraceBody keeps every line up to and including the opening
// "{", then a single placeholder line, then the closing "}". Struct and
// interface bodies keep their field/method lists, since those carry the
// type information a retrieval model needs: only a block whose first
// non-signature line opens a function/method body is collapsed.
func skeletonizeBraceBody(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	openIdx := -1
	for i, line := range lines {
		if strings.Contains(line, "{") {
			openIdx = i
			break
		}
	}
	if openIdx == -1 || openIdx == len(lines)-1 {
		return lines
	}
	head := strings.TrimSpace(lines[openIdx])
	if strings.HasSuffix(head, "struct {") || strings.HasSuffix(head, "interface {") ||
		strings.HasPrefix(strings.TrimPrefix(head, "export "), "interface ") {
		return lines
	}
	indent := leadingWhitespace(lines[openIdx])
	out := append([]string{}, lines[:openIdx+1]...)
	out = append(out, indent+"\t"+bodyPlaceholder)
	out = append(out, lines[len(lines)-1])
	return out
}

// skeletonizePythonBody keeps the (possibly multi-line) "def"/"class"
// header through its trailing ":" plus an immediately-following docstring,
// then collapses everything else to one placeholder line at the body's
// indentation.
func skeletonizePythonBody(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	headerEnd := 0
	for i, line := range lines {
		headerEnd = i
		if strings.HasSuffix(strings.TrimSpace(line), ":") {
			break
		}
	}
	if headerEnd >= len(lines)-1 {
		return lines
	}

	out := append([]string{}, lines[:headerEnd+1]...)
	bodyIndent := leadingWhitespace(lines[headerEnd+1])

	next := headerEnd + 1
	trimmed := strings.TrimSpace(lines[next])
	if strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''") {
		quote := trimmed[:3]
		out = append(out, lines[next])
		if !(len(trimmed) > 3 && strings.HasSuffix(trimmed, quote)) {
			for next++; next < len(lines); next++ {
				out = append(out, lines[next])
				if strings.Contains(lines[next], quote) {
					break
				}
			}
		}
		next++
	}

	if next < len(lines) {
		out = append(out, bodyIndent+bodyPlaceholder)
	}
	return out
}

func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
