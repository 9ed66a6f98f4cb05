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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/storage"
)

// fakeStore implements storage.Store with just enough behavior to drive
// the Assembler; every method the Assembler doesn't touch errors loudly
// if it's ever called.
type fakeStore struct {
	symbols map[string]model.Symbol
	imports map[string][]model.Import

	ftsResults  []storage.ScoredSymbol
	ftsErr      error
	vectorIDs   []string
	vectorDists []float32
	vectorErr   error
}

func (f *fakeStore) BeginTxn(context.Context) (storage.Txn, error) { return nil, fmt.Errorf("unused") }
func (f *fakeStore) QuerySymbols(context.Context, storage.SymbolFilter) (storage.SymbolCursor, error) {
	return nil, fmt.Errorf("unused")
}
func (f *fakeStore) FTSSearch(context.Context, string, int) ([]storage.ScoredSymbol, error) {
	return f.ftsResults, f.ftsErr
}
func (f *fakeStore) VectorSearch(context.Context, []float32, int) ([]string, []float32, error) {
	return f.vectorIDs, f.vectorDists, f.vectorErr
}
func (f *fakeStore) GetSnippet(_ context.Context, symbolID string, padding int) (model.Snippet, error) {
	sym, ok := f.symbols[symbolID]
	if !ok {
		return model.Snippet{}, fmt.Errorf("symbol %s not found", symbolID)
	}
	return model.Snippet{
		Path:    sym.FilePath,
		Start:   sym.StartLine - padding,
		End:     sym.EndLine + padding,
		Content: fmt.Sprintf("func %s() { /* body */ }", sym.ShortName),
	}, nil
}
func (f *fakeStore) GetSymbol(_ context.Context, symbolID string) (model.Symbol, error) {
	sym, ok := f.symbols[symbolID]
	if !ok {
		return model.Symbol{}, fmt.Errorf("symbol %s not found", symbolID)
	}
	return sym, nil
}
func (f *fakeStore) SymbolsForFile(context.Context, string) ([]model.Symbol, error) {
	return nil, fmt.Errorf("unused")
}
func (f *fakeStore) ImportsForFile(_ context.Context, path string) ([]model.Import, error) {
	return f.imports[path], nil
}
func (f *fakeStore) CallsFrom(context.Context, string) ([]model.MethodCall, error) {
	return nil, fmt.Errorf("unused")
}
func (f *fakeStore) ReferencesTo(context.Context, string) ([]model.SymbolReference, error) {
	return nil, fmt.Errorf("unused")
}
func (f *fakeStore) ReferencesFrom(context.Context, string) ([]model.SymbolReference, error) {
	return nil, fmt.Errorf("unused")
}
func (f *fakeStore) WriteEmbedding(context.Context, model.Embedding) error {
	return fmt.Errorf("unused")
}
func (f *fakeStore) FileMeta(context.Context, string) (model.File, bool, error) {
	return model.File{}, false, nil
}
func (f *fakeStore) KnownFiles(context.Context) ([]string, error) { return nil, nil }
func (f *fakeStore) SchemaVersion(context.Context) (int, error)   { return 1, nil }
func (f *fakeStore) Close() error                                 { return nil }

type fakeEdgeLookup struct {
	callees map[string][]string
	callers map[string][]string
}

func (e fakeEdgeLookup) CalleesOf(_ context.Context, id string) ([]string, error) { return e.callees[id], nil }
func (e fakeEdgeLookup) CallersOf(_ context.Context, id string) ([]string, error) { return e.callers[id], nil }

type fakeBaseLookup struct {
	bases map[string][]string
}

func (b fakeBaseLookup) BasesOf(_ context.Context, id string) ([]string, error) { return b.bases[id], nil }

type fakeSkeletonizer struct{}

func (fakeSkeletonizer) Skeletonize(_ context.Context, sym model.Symbol) (string, float64, error) {
	return fmt.Sprintf("class %s:\n    ...", sym.ShortName), 0.2, nil
}

func TestAssembler_TargetSectionAlwaysIncluded(t *testing.T) {
	store := &fakeStore{symbols: map[string]model.Symbol{
		"target": {ID: "target", QualifiedName: "pkg.Target", ShortName: "Target", FilePath: "pkg/target.go", StartLine: 10, EndLine: 20},
	}}
	a := NewAssembler(store, nil, nil, nil)

	ctx, err := a.Assemble(context.Background(), "target", AssembleOptions{})
	require.NoError(t, err)
	assert.Contains(t, ctx.Included, "TARGET")
	assert.Contains(t, ctx.Text, "Target")
}

func TestAssembler_IncludesResolvedImportsOnly(t *testing.T) {
	store := &fakeStore{
		symbols: map[string]model.Symbol{
			"target": {ID: "target", QualifiedName: "pkg.Target", ShortName: "Target", FilePath: "pkg/target.go"},
		},
		imports: map[string][]model.Import{
			"pkg/target.go": {
				{ModulePath: "pkg/internal", TargetFile: "pkg/internal/x.go"},
				{ModulePath: "fmt"}, // stdlib, unresolved to an internal file
			},
		},
	}
	a := NewAssembler(store, nil, nil, nil)

	ctx, err := a.Assemble(context.Background(), "target", AssembleOptions{})
	require.NoError(t, err)
	assert.Contains(t, ctx.Included, "IMPORTS")
	assert.Contains(t, ctx.Text, "pkg/internal/x.go")
	assert.NotContains(t, ctx.Text, "fmt ->")
}

func TestAssembler_BasesAreSkeletonizedAndReportCompressionRatio(t *testing.T) {
	store := &fakeStore{symbols: map[string]model.Symbol{
		"child":  {ID: "child", QualifiedName: "pkg.Child", ShortName: "Child", FilePath: "pkg/child.go"},
		"parent": {ID: "parent", QualifiedName: "pkg.Parent", ShortName: "Parent", FilePath: "pkg/parent.go"},
	}}
	bases := fakeBaseLookup{bases: map[string][]string{"child": {"parent"}}}
	a := NewAssembler(store, nil, bases, fakeSkeletonizer{})

	ctx, err := a.Assemble(context.Background(), "child", AssembleOptions{})
	require.NoError(t, err)
	assert.Contains(t, ctx.Included, "BASES")
	assert.Contains(t, ctx.Text, "class Parent")
	assert.Equal(t, 0.2, ctx.CompressionRatio)
}

func TestAssembler_CallersAndCalleesSections(t *testing.T) {
	store := &fakeStore{symbols: map[string]model.Symbol{
		"target": {ID: "target", QualifiedName: "pkg.Target", ShortName: "Target", FilePath: "pkg/target.go"},
		"caller": {ID: "caller", QualifiedName: "pkg.Caller", ShortName: "Caller", FilePath: "pkg/caller.go", StartLine: 5},
		"callee": {ID: "callee", QualifiedName: "pkg.Callee", ShortName: "Callee", FilePath: "pkg/callee.go", StartLine: 7},
	}}
	edges := fakeEdgeLookup{
		callers: map[string][]string{"target": {"caller"}},
		callees: map[string][]string{"target": {"callee"}},
	}
	a := NewAssembler(store, edges, nil, nil)

	ctx, err := a.Assemble(context.Background(), "target", AssembleOptions{IncludeCallers: true, IncludeCallees: true})
	require.NoError(t, err)
	assert.Contains(t, ctx.Included, "CALLERS")
	assert.Contains(t, ctx.Included, "CALLEES")
	assert.Contains(t, ctx.Text, "pkg.Caller")
	assert.Contains(t, ctx.Text, "pkg.Callee")
}

func TestAssembler_DropsLowerPrioritySectionsOverBudget(t *testing.T) {
	store := &fakeStore{
		symbols: map[string]model.Symbol{
			"target": {ID: "target", QualifiedName: "pkg.Target", ShortName: "Target", FilePath: "pkg/target.go"},
			"caller": {ID: "caller", QualifiedName: "pkg.Caller", ShortName: "Caller", FilePath: "pkg/caller.go"},
		},
		imports: map[string][]model.Import{
			"pkg/target.go": {{ModulePath: strings.Repeat("x", 4000), TargetFile: "pkg/internal/huge.go"}},
		},
	}
	edges := fakeEdgeLookup{callers: map[string][]string{"target": {"caller"}}}
	a := NewAssembler(store, edges, nil, nil)

	ctx, err := a.Assemble(context.Background(), "target", AssembleOptions{
		IncludeCallers: true,
		TokenBudget:    1, // only the mandatory target section fits
		CharsPerToken:  4,
	})
	require.NoError(t, err)
	assert.Contains(t, ctx.Included, "TARGET")
	assert.NotContains(t, ctx.Included, "IMPORTS")
	assert.NotContains(t, ctx.Included, "CALLERS")
}

func TestAssembler_HeaderIsStructured(t *testing.T) {
	store := &fakeStore{symbols: map[string]model.Symbol{
		"target": {ID: "target", QualifiedName: "pkg.Target", ShortName: "Target", FilePath: "pkg/target.go"},
	}}
	a := NewAssembler(store, nil, nil, nil)

	ctx, err := a.Assemble(context.Background(), "target", AssembleOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ctx.Text, "file: pkg/target.go\ntarget: pkg.Target\n"))
}
