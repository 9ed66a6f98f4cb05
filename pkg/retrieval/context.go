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

import (
	"context"
	"fmt"
	"strings"

	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/resolve"
	"github.com/cerberuslabs/cerberus/pkg/storage"
)

const (
	defaultPadding       = 3
	defaultBaseDepth     = 1
	defaultTokenBudget   = 2000
	defaultCharsPerToken = 4
)

// Skeletonizer renders sym with its body replaced by a placeholder,
// reporting the line-count compression this achieved. Implemented by
// pkg/ingestion's Skeletonizer.
type Skeletonizer interface {
	Skeletonize(ctx context.Context, sym model.Symbol) (text string, compressionRatio float64, err error)
}

// BaseLookup resolves a class symbol's direct base-class symbol IDs,
// typically backed by an InheritanceResolver over the indexed class
// declarations.
type BaseLookup interface {
	BasesOf(ctx context.Context, symbolID string) ([]string, error)
}

// AssembleOptions customizes one Assemble call. The zero value selects
// the spec defaults.
type AssembleOptions struct {
	Padding        int
	BaseDepth      int
	IncludeCallers bool
	IncludeCallees bool
	TokenBudget    int
	CharsPerToken  int
}

func (o AssembleOptions) withDefaults() AssembleOptions {
	if o.Padding == 0 {
		o.Padding = defaultPadding
	}
	if o.BaseDepth == 0 {
		o.BaseDepth = defaultBaseDepth
	}
	if o.TokenBudget == 0 {
		o.TokenBudget = defaultTokenBudget
	}
	if o.CharsPerToken == 0 {
		o.CharsPerToken = defaultCharsPerToken
	}
	return o
}

// Context is the assembled, token-budgeted payload for one target symbol.
type Context struct {
	File             string
	Target           string
	CompressionRatio float64
	Included         []string
	Text             string
}

// Assembler builds a Context for a target symbol by walking imports,
// base classes, callers, and callees in priority order until the token
// budget is exhausted.
type Assembler struct {
	store storage.Store
	edges resolve.EdgeLookup
	bases BaseLookup
	skel  Skeletonizer
}

// NewAssembler wires an Assembler. edges, bases, and skel may be nil; the
// corresponding sections are simply omitted.
func NewAssembler(store storage.Store, edges resolve.EdgeLookup, bases BaseLookup, skel Skeletonizer) *Assembler {
	return &Assembler{store: store, edges: edges, bases: bases, skel: skel}
}

type assembledSection struct {
	label    string
	text     string
	priority int // sections are kept in ascending order; higher values are dropped first
}

// Assemble produces a Context for targetSymbolID.
func (a *Assembler) Assemble(ctx context.Context, targetSymbolID string, opts AssembleOptions) (Context, error) {
	opts = opts.withDefaults()

	target, err := a.store.GetSymbol(ctx, targetSymbolID)
	if err != nil {
		return Context{}, err
	}
	snippet, err := a.store.GetSnippet(ctx, targetSymbolID, opts.Padding)
	if err != nil {
		return Context{}, err
	}

	sections := []assembledSection{
		{label: "TARGET", text: snippet.Content, priority: 0},
	}

	if imp := a.importsSection(ctx, target); imp != "" {
		sections = append(sections, assembledSection{label: "IMPORTS", text: imp, priority: 1})
	}

	var compressionRatio float64
	if base, ratio := a.basesSection(ctx, target, opts.BaseDepth); base != "" {
		sections = append(sections, assembledSection{label: "BASES", text: base, priority: 2})
		compressionRatio = ratio
	}

	if opts.IncludeCallers {
		if s := a.edgeSection(ctx, target, resolve.Backward); s != "" {
			sections = append(sections, assembledSection{label: "CALLERS", text: s, priority: 3})
		}
	}
	if opts.IncludeCallees {
		if s := a.edgeSection(ctx, target, resolve.Forward); s != "" {
			sections = append(sections, assembledSection{label: "CALLEES", text: s, priority: 4})
		}
	}

	kept := fitToBudget(sections, opts.TokenBudget, opts.CharsPerToken)

	var body strings.Builder
	included := make([]string, 0, len(kept))
	for _, s := range kept {
		included = append(included, s.label)
		fmt.Fprintf(&body, "=== %s ===\n%s\n\n", s.label, s.text)
	}

	header := fmt.Sprintf(
		"file: %s\ntarget: %s\ncompression_ratio: %.3f\nsections: %s\n---\n",
		target.FilePath, target.QualifiedName, compressionRatio, strings.Join(included, ","),
	)

	return Context{
		File:             target.FilePath,
		Target:           target.QualifiedName,
		CompressionRatio: compressionRatio,
		Included:         included,
		Text:             header + body.String(),
	}, nil
}

func (a *Assembler) importsSection(ctx context.Context, target model.Symbol) string {
	imports, err := a.store.ImportsForFile(ctx, target.FilePath)
	if err != nil {
		return ""
	}
	var lines []string
	for _, imp := range imports {
		if imp.TargetFile == "" {
			continue // not resolved to an internal file
		}
		lines = append(lines, fmt.Sprintf("%s -> %s", imp.ModulePath, imp.TargetFile))
	}
	return strings.Join(lines, "\n")
}

func (a *Assembler) basesSection(ctx context.Context, target model.Symbol, depth int) (string, float64) {
	if a.bases == nil || a.skel == nil {
		return "", 0
	}
	var texts []string
	var totalRatio float64
	var count int

	frontier := []string{target.ID}
	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string
		for _, id := range frontier {
			baseIDs, err := a.bases.BasesOf(ctx, id)
			if err != nil {
				continue
			}
			for _, baseID := range baseIDs {
				baseSym, err := a.store.GetSymbol(ctx, baseID)
				if err != nil {
					continue
				}
				text, ratio, err := a.skel.Skeletonize(ctx, baseSym)
				if err != nil {
					continue
				}
				texts = append(texts, fmt.Sprintf("# %s\n%s", baseSym.QualifiedName, text))
				totalRatio += ratio
				count++
				next = append(next, baseID)
			}
		}
		frontier = next
	}
	if count == 0 {
		return "", 0
	}
	return strings.Join(texts, "\n\n"), totalRatio / float64(count)
}

func (a *Assembler) edgeSection(ctx context.Context, target model.Symbol, dir resolve.Direction) string {
	if a.edges == nil {
		return ""
	}
	var ids []string
	var err error
	if dir == resolve.Forward {
		ids, err = a.edges.CalleesOf(ctx, target.ID)
	} else {
		ids, err = a.edges.CallersOf(ctx, target.ID)
	}
	if err != nil || len(ids) == 0 {
		return ""
	}
	var lines []string
	for _, id := range ids {
		sym, err := a.store.GetSymbol(ctx, id)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%s:%d)", sym.QualifiedName, sym.FilePath, sym.StartLine))
	}
	return strings.Join(lines, "\n")
}

// fitToBudget keeps sections in priority order until the running token
// count would exceed budget; the target section (priority 0) is always
// kept even if it alone exceeds budget.
func fitToBudget(sections []assembledSection, budget, charsPerToken int) []assembledSection {
	var kept []assembledSection
	var used int
	for _, s := range sections {
		cost := len(s.text) / charsPerToken
		if s.priority == 0 || used+cost <= budget {
			kept = append(kept, s)
			used += cost
			continue
		}
		// Lower-priority sections are dropped, not partially included,
		// once the budget is exhausted.
		break
	}
	return kept
}
