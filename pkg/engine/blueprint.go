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
	"context"
	"sort"
	"strings"

	"github.com/cerberuslabs/cerberus/pkg/ingestion"
	"github.com/cerberuslabs/cerberus/pkg/model"
)

// BlueprintSymbol is one symbol's structural entry in a Blueprint: its
// signature and docstring always, its full skeleton only when named in
// the Blueprint call's overlays.
type BlueprintSymbol struct {
	SymbolID         string
	ParentID         string
	ShortName        string
	QualifiedName    string
	Kind             model.SymbolKind
	Signature        string
	Docstring        string
	StartLine        int
	EndLine          int
	Skeleton         string
	CompressionRatio float64
}

// Blueprint is a file's structural map: every symbol's signature and
// docstring, ordered by declaration, with no executable bodies unless an
// overlay asked for one. It is the read path's answer to "what does this
// file declare" without the token cost of Skeletonize's whole-file text.
type Blueprint struct {
	Path     string
	Language model.Language
	Symbols  []BlueprintSymbol
}

// Blueprint returns path's structural map. overlays names symbols (by ID,
// qualified name, or short name) whose full skeletonized body should be
// included alongside the signature, for a caller that already knows which
// symbols in the file it needs more than a signature for.
func (e *Engine) Blueprint(ctx context.Context, path string, overlays []string) (Blueprint, error) {
	file, ok, err := e.store.FileMeta(ctx, path)
	if err != nil {
		return Blueprint{}, model.NewStoreError("Blueprint", err)
	}
	if !ok {
		return Blueprint{}, model.NewNotFound("Blueprint", path)
	}

	symbols, err := e.store.SymbolsForFile(ctx, path)
	if err != nil {
		return Blueprint{}, model.NewStoreError("Blueprint", err)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].StartLine < symbols[j].StartLine })

	overlaySet := toSymbolSet(overlays)
	bp := Blueprint{Path: path, Language: file.Language, Symbols: make([]BlueprintSymbol, 0, len(symbols))}

	for _, sym := range symbols {
		entry := BlueprintSymbol{
			SymbolID:      sym.ID,
			ParentID:      sym.ParentID,
			ShortName:     sym.ShortName,
			QualifiedName: sym.QualifiedName,
			Kind:          sym.Kind,
			Signature:     sym.Signature,
			Docstring:     sym.Docstring,
			StartLine:     sym.StartLine,
			EndLine:       sym.EndLine,
		}
		if overlaySet[sym.ID] || overlaySet[sym.QualifiedName] || overlaySet[sym.ShortName] {
			skel, ratio, err := e.skel.Skeletonize(ctx, sym)
			if err == nil {
				entry.Skeleton = skel
				entry.CompressionRatio = ratio
			}
		}
		bp.Symbols = append(bp.Symbols, entry)
	}
	return bp, nil
}

// SkeletonizedCode is the whole-file output of Skeletonize: every
// top-level symbol's body collapsed to a placeholder except those named
// in preserveSymbols, which keep their original text.
type SkeletonizedCode struct {
	Path                string
	Text                string
	CompressionRatio    float64
	SymbolsSkeletonized int
	SymbolsPreserved    int
}

// Skeletonize renders path with every top-level symbol's body collapsed,
// except the symbols named in preserveSymbols (matched by ID, qualified
// name, or short name), which are kept verbatim. Nested symbols (methods,
// inner functions) are not skeletonized independently: collapsing their
// enclosing top-level declaration already removes their bodies.
func (e *Engine) Skeletonize(ctx context.Context, path string, preserveSymbols []string) (SkeletonizedCode, error) {
	content, err := ingestion.ReadFileContent(e.cfg.RepoRoot, path)
	if err != nil {
		return SkeletonizedCode{}, model.NewNotFound("Skeletonize", path)
	}
	lines := strings.Split(string(content), "\n")

	symbols, err := e.store.SymbolsForFile(ctx, path)
	if err != nil {
		return SkeletonizedCode{}, model.NewStoreError("Skeletonize", err)
	}

	var topLevel []model.Symbol
	for _, sym := range symbols {
		if sym.ParentID == "" {
			topLevel = append(topLevel, sym)
		}
	}
	sort.Slice(topLevel, func(i, j int) bool { return topLevel[i].StartLine < topLevel[j].StartLine })

	preserve := toSymbolSet(preserveSymbols)
	out := make([]string, 0, len(lines))
	cursor := 1 // next 1-indexed source line not yet emitted
	var skeletonized, preserved int

	for _, sym := range topLevel {
		if sym.StartLine < cursor || sym.EndLine > len(lines) || sym.StartLine > sym.EndLine {
			continue // stale or out-of-range row; leave surrounding text untouched
		}
		out = append(out, lines[cursor-1:sym.StartLine-1]...)

		if preserve[sym.ID] || preserve[sym.QualifiedName] || preserve[sym.ShortName] {
			out = append(out, lines[sym.StartLine-1:sym.EndLine]...)
			preserved++
		} else if skel, _, err := e.skel.Skeletonize(ctx, sym); err == nil {
			out = append(out, strings.Split(skel, "\n")...)
			skeletonized++
		} else {
			out = append(out, lines[sym.StartLine-1:sym.EndLine]...)
		}
		cursor = sym.EndLine + 1
	}
	if cursor-1 < len(lines) {
		out = append(out, lines[cursor-1:]...)
	}

	ratio := 1.0
	if len(lines) > 0 {
		ratio = float64(len(out)) / float64(len(lines))
	}

	return SkeletonizedCode{
		Path:                path,
		Text:                strings.Join(out, "\n"),
		CompressionRatio:    ratio,
		SymbolsSkeletonized: skeletonized,
		SymbolsPreserved:    preserved,
	}, nil
}

func toSymbolSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
