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
	"strings"
	"time"

	"github.com/cerberuslabs/cerberus/pkg/model"
	"github.com/cerberuslabs/cerberus/pkg/resolve"
	"github.com/cerberuslabs/cerberus/pkg/storage"
)

// storeEdgeLookup implements resolve.EdgeLookup and retrieval's callers/
// callees sections over the materialized SymbolReference graph, so
// CallGraph and the Context Assembler see the same resolved edges Resolve
// wrote.
type storeEdgeLookup struct {
	store storage.Store
}

func (l storeEdgeLookup) CalleesOf(ctx context.Context, symbolID string) ([]string, error) {
	refs, err := l.store.ReferencesFrom(ctx, symbolID)
	if err != nil {
		return nil, err
	}
	return targetIDs(refs, model.RefMethodCall), nil
}

func (l storeEdgeLookup) CallersOf(ctx context.Context, symbolID string) ([]string, error) {
	refs, err := l.store.ReferencesTo(ctx, symbolID)
	if err != nil {
		return nil, err
	}
	return sourceIDs(refs, model.RefMethodCall), nil
}

// storeBaseLookup implements retrieval.BaseLookup over RefInherits edges.
type storeBaseLookup struct {
	store storage.Store
}

func (l storeBaseLookup) BasesOf(ctx context.Context, symbolID string) ([]string, error) {
	refs, err := l.store.ReferencesFrom(ctx, symbolID)
	if err != nil {
		return nil, err
	}
	return targetIDs(refs, model.RefInherits), nil
}

func targetIDs(refs []model.SymbolReference, kind model.ReferenceKind) []string {
	var ids []string
	for _, r := range refs {
		if r.Kind == kind && r.TargetSymbolID != "" {
			ids = append(ids, r.TargetSymbolID)
		}
	}
	return ids
}

func sourceIDs(refs []model.SymbolReference, kind model.ReferenceKind) []string {
	var ids []string
	for _, r := range refs {
		if r.Kind == kind && r.SourceSymbolID != "" {
			ids = append(ids, r.SourceSymbolID)
		}
	}
	return ids
}

// Resolve rebuilds the reference graph (method-call edges and inheritance
// edges) from the Store's current symbol/import/call rows and persists it
// as SymbolReference rows. Index and Update both call this once after
// their write pass; it is also exposed directly so a caller can force a
// fresh resolution (e.g. after restoring a store snapshot).
func (e *Engine) Resolve(ctx context.Context) (*ResolveReport, error) {
	start := time.Now()
	report := &ResolveReport{}

	paths, err := e.store.KnownFiles(ctx)
	if err != nil {
		return nil, model.NewStoreError("Resolve", err)
	}

	var files []model.File
	var allSymbols []model.Symbol
	var allImports []model.Import
	var allCalls []model.MethodCall

	for _, path := range paths {
		f, ok, err := e.store.FileMeta(ctx, path)
		if err != nil {
			return nil, model.NewStoreError("Resolve", err)
		}
		if !ok {
			continue
		}
		files = append(files, f)

		symbols, err := e.store.SymbolsForFile(ctx, path)
		if err != nil {
			return nil, model.NewStoreError("Resolve", err)
		}
		allSymbols = append(allSymbols, symbols...)

		imports, err := e.store.ImportsForFile(ctx, path)
		if err != nil {
			return nil, model.NewStoreError("Resolve", err)
		}
		allImports = append(allImports, imports...)

		calls, err := e.store.CallsFrom(ctx, path)
		if err != nil {
			return nil, model.NewStoreError("Resolve", err)
		}
		allCalls = append(allCalls, calls...)
	}
	report.SymbolsIndexed = len(allSymbols)

	refs := resolveCallReferences(allFilesPackageNames(files), allSymbols, allImports, allCalls, &report.CallsResolved)
	refs = append(refs, resolveInheritanceReferences(allSymbols, &report.Diagnostics)...)

	// A changed call target (e.g. a renamed callee) produces a different
	// reference ID, so a bare upsert never retires the stale edge it
	// replaces; clear the whole graph before rewriting it from scratch.
	if err := e.clearReferences(ctx); err != nil {
		return nil, err
	}
	if len(refs) > 0 {
		if err := e.writeReferences(ctx, refs); err != nil {
			return nil, err
		}
	}
	report.ReferencesWritten = len(refs)
	report.Duration = time.Since(start)
	return report, nil
}

// clearReferences purges every symbol_references row in its own
// transaction, ahead of writeReferences repopulating the graph.
func (e *Engine) clearReferences(ctx context.Context) error {
	txn, err := e.store.BeginTxn(ctx)
	if err != nil {
		return model.NewStoreError("Resolve", err)
	}
	if err := txn.DeleteAllReferences(ctx); err != nil {
		_ = txn.Rollback()
		return model.NewStoreError("Resolve", err)
	}
	if err := txn.Commit(); err != nil {
		return model.NewStoreError("Resolve", err)
	}
	return nil
}

// writeReferences persists refs in MaxRowsPerInsert-sized chunks, one
// transaction per chunk so a single oversized Resolve pass never holds
// the write lock for the whole graph at once.
func (e *Engine) writeReferences(ctx context.Context, refs []model.SymbolReference) error {
	for _, chunk := range chunkReferences(refs) {
		txn, err := e.store.BeginTxn(ctx)
		if err != nil {
			return model.NewStoreError("Resolve", err)
		}
		if err := txn.WriteReferencesBatch(ctx, chunk); err != nil {
			_ = txn.Rollback()
			return model.NewStoreError("Resolve", err)
		}
		if err := txn.Commit(); err != nil {
			return model.NewStoreError("Resolve", err)
		}
	}
	return nil
}

func chunkReferences(refs []model.SymbolReference) [][]model.SymbolReference {
	const maxRows = 1000
	if len(refs) == 0 {
		return nil
	}
	var chunks [][]model.SymbolReference
	for start := 0; start < len(refs); start += maxRows {
		end := start + maxRows
		if end > len(refs) {
			end = len(refs)
		}
		chunks = append(chunks, refs[start:end])
	}
	return chunks
}

// allFilesPackageNames derives a best-effort file -> package name map from
// each file's directory name, since package names aren't themselves
// persisted. Files at the repository root get no entry. ImportResolver
// records these as PackageInfo.PackageName and also uses them as import
// aliases and as a last-resort match for an import path's final segment.
func allFilesPackageNames(files []model.File) map[string]string {
	names := make(map[string]string, len(files))
	for _, f := range files {
		if f.Language != model.LangGo {
			continue
		}
		parts := strings.Split(f.Path, "/")
		if len(parts) < 2 {
			continue
		}
		names[f.Path] = parts[len(parts)-2]
	}
	return names
}

// resolveCallReferences resolves every still-unresolved cross-package call
// (parser_go.go already resolves same-file/same-package calls directly)
// via an ImportResolver built over the whole known symbol/import set, and
// returns a SymbolReference row for every call with a known callee; calls
// that stay unresolved get no row.
func resolveCallReferences(packageNames map[string]string, symbols []model.Symbol, imports []model.Import, calls []model.MethodCall, resolvedCount *int) []model.SymbolReference {
	ir := resolve.NewImportResolver()
	ir.BuildIndex(nil, symbols, imports, packageNames)

	var unresolved []resolve.UnresolvedCall
	calleeAt := make(map[int]string) // index into calls -> resolved callee
	for i, c := range calls {
		if c.CalleeSymbolID != "" {
			continue
		}
		name := c.MethodName
		if c.ReceiverExpr != "" {
			name = c.ReceiverExpr + "." + c.MethodName
		}
		u := resolve.UnresolvedCall{
			CallerSymbolID: c.CallerSymbolID,
			FilePath:       c.CallerFile,
			CalleeName:     name,
			Line:           c.CallerLine,
		}
		unresolved = append(unresolved, u)
		if one := ir.ResolveCalls([]resolve.UnresolvedCall{u}); len(one) > 0 {
			calleeAt[i] = one[0].CalleeSymbolID
		}
	}
	*resolvedCount = len(ir.ResolveCalls(unresolved))

	refs := make([]model.SymbolReference, 0, len(calls))
	for i, c := range calls {
		calleeID := c.CalleeSymbolID
		method := model.MethodHeuristic
		if calleeID == "" {
			calleeID = calleeAt[i]
			method = model.MethodImportTrace
		}
		if calleeID == "" {
			continue
		}
		refs = append(refs, model.SymbolReference{
			SourceFile:     c.CallerFile,
			SourceLine:     c.CallerLine,
			SourceSymbolID: c.CallerSymbolID,
			Kind:           model.RefMethodCall,
			TargetSymbolID: calleeID,
			Confidence:     confidenceFor(method),
			Method:         method,
		})
	}
	return refs
}

// resolveInheritanceReferences extracts each class/interface symbol's
// declared bases from its Signature (the only place a parser records
// them) and runs InheritanceResolver's C3 linearization to validate the
// hierarchy, emitting one RefInherits edge per direct base. Ambiguous or
// cyclic hierarchies are recorded as diagnostics rather than failing the
// whole Resolve pass, per spec.md §7's ResolverWarning semantics.
func resolveInheritanceReferences(symbols []model.Symbol, diagnostics *[]string) []model.SymbolReference {
	byQualifiedName := make(map[string]model.Symbol, len(symbols))
	var decls []resolve.ClassDecl
	for _, sym := range symbols {
		if sym.Kind != model.KindClass && sym.Kind != model.KindInterface {
			continue
		}
		byQualifiedName[sym.QualifiedName] = sym
		bases := extractBases(sym)
		if len(bases) > 0 {
			decls = append(decls, resolve.ClassDecl{QualifiedName: sym.QualifiedName, Bases: bases})
		}
	}
	if len(decls) == 0 {
		return nil
	}

	ir := resolve.NewInheritanceResolver(decls)
	var refs []model.SymbolReference
	for _, decl := range decls {
		sym := byQualifiedName[decl.QualifiedName]
		if _, err := ir.Linearize(decl.QualifiedName); err != nil {
			*diagnostics = append(*diagnostics, "inheritance: "+decl.QualifiedName+": "+err.Error())
		}
		for _, base := range decl.Bases {
			baseSym, ok := byQualifiedName[base]
			if !ok {
				continue // external/unknown base; nothing to link to
			}
			refs = append(refs, model.SymbolReference{
				SourceFile:     sym.FilePath,
				SourceLine:     sym.StartLine,
				SourceSymbolID: sym.ID,
				Kind:           model.RefInherits,
				TargetFile:     baseSym.FilePath,
				TargetSymbolID: baseSym.ID,
				TargetKind:     baseSym.Kind,
				Confidence:     1.0,
				Method:         model.MethodTypeAnnotation,
			})
		}
	}
	return refs
}

// extractBases parses the base-class list out of a class/interface
// symbol's Signature, e.g. Python's "class Foo(Base1, Base2):".
// Signatures without a parenthesized base list (Go interfaces, JS/TS
// classes with no "extends") yield no bases.
func extractBases(sym model.Symbol) []string {
	open := strings.IndexByte(sym.Signature, '(')
	shut := strings.IndexByte(sym.Signature, ')')
	if open == -1 || shut == -1 || shut <= open+1 {
		if idx := strings.Index(sym.Signature, "extends "); idx >= 0 {
			rest := sym.Signature[idx+len("extends "):]
			rest = strings.TrimSuffix(strings.TrimSpace(rest), "{")
			return splitBaseList(rest)
		}
		return nil
	}
	return splitBaseList(sym.Signature[open+1 : shut])
}

func splitBaseList(raw string) []string {
	parts := strings.Split(raw, ",")
	bases := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || p == "object" {
			continue
		}
		bases = append(bases, p)
	}
	return bases
}

func confidenceFor(m model.ResolutionMethod) float64 {
	switch m {
	case model.MethodImportTrace:
		return 1.0
	case model.MethodTypeAnnotation:
		return 0.9
	case model.MethodClassInstantiation:
		return 0.85
	case model.MethodParameterInference:
		return 0.7
	default:
		return 0.6
	}
}
