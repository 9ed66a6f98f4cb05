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

// Package retrieval implements hybrid BM25 + vector search: tokenization,
// the query-mode classifier, reciprocal-rank and weighted fusion, and the
// context assembler that turns a resolved symbol into a token-budgeted
// payload.
package retrieval

import (
	"strings"
	"unicode"
)

// Tokenize splits s on non-alphanumeric boundaries and additionally
// breaks CamelCase and snake_case identifiers into their constituent
// words, so a query for "parse config" matches a symbol named
// ParseConfig or parse_config equally well.
func Tokenize(s string) []string {
	var words []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			// CamelCase boundary: previous rune was lowercase, or this
			// upper run is followed by a lowercase rune (e.g. the "B" in
			// "HTTPBody" still gets its own word).
			if i > 0 {
				prev := runes[i-1]
				if unicode.IsLower(prev) {
					flush()
				} else if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
					flush()
				}
			}
			cur.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return words
}

// looksLikeIdentifier reports whether s looks like a single code
// identifier rather than a natural-language phrase: it contains an
// internal uppercase letter (CamelCase) or an underscore (snake_case)
// and no whitespace.
func looksLikeIdentifier(s string) bool {
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	if strings.Contains(s, "_") {
		return true
	}
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
