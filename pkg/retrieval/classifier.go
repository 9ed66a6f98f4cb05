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

package retrieval

import "strings"

// Mode selects which retrieval methods feed fusion and, for weighted
// fusion, which alpha weights BM25 against the vector component.
type Mode string

const (
	ModeKeyword  Mode = "keyword"
	ModeSemantic Mode = "semantic"
	ModeBalanced Mode = "balanced"
)

var interrogatives = map[string]bool{
	"what": true, "who": true, "where": true, "when": true,
	"why": true, "how": true, "which": true, "does": true, "is": true,
}

// ClassifyQuery implements the heuristic mode classifier: a query that
// looks like a single code identifier, or is short, is keyword; a
// question or a longer phrase is semantic. Every query is either at most
// three tokens or longer, so auto-classification never returns balanced;
// that mode is only selected by an explicit Options.Mode.
func ClassifyQuery(query string) Mode {
	trimmed := strings.TrimSpace(query)
	tokens := Tokenize(trimmed)

	if looksLikeIdentifier(trimmed) || len(tokens) <= 3 {
		return ModeKeyword
	}
	if len(tokens) > 0 && interrogatives[tokens[0]] {
		return ModeSemantic
	}
	if len(tokens) > 3 {
		return ModeSemantic
	}
	return ModeBalanced
}

// alphaFor returns the weighted-fusion alpha for mode, per spec.md §4.5.
func alphaFor(mode Mode) float64 {
	switch mode {
	case ModeKeyword:
		return 0.7
	case ModeSemantic:
		return 0.3
	default:
		return 0.5
	}
}
