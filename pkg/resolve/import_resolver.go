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

// Package resolve builds the post-ingest reference graph: import
// resolution, receiver-type tracking, inheritance linearization, and
// call-graph traversal. Each resolver is read-only over an index built
// once from a completed ingest batch.
package resolve

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

// PackageInfo groups the files that make up one local package/module.
type PackageInfo struct {
	PackagePath string
	PackageName string
	Files       []string
}

// UnresolvedCall is a call site awaiting resolution to a target symbol.
type UnresolvedCall struct {
	CallerSymbolID string
	FilePath       string
	CalleeName     string
	Line           int
}

// ResolvedCall is a resolved caller->callee edge.
type ResolvedCall struct {
	CallerSymbolID string
	CalleeSymbolID string
}

// ImportResolver resolves cross-file symbol references by tracing a call
// or type reference through the file's import table to the package that
// actually defines the target, the way a human reader would: find the
// alias, find what it's bound to, find the exported name in that package.
//
// It is a direct generalization of the teacher's CallResolver: the same
// alias -> import-path -> package-path -> exported-name chain, extended
// to cover every exported symbol kind instead of functions only.
type ImportResolver struct {
	packageIndex    map[string]*PackageInfo            // package path -> info
	globalSymbols   map[string]map[string]string        // package path -> short name -> symbol id
	fileImports     map[string]map[string]string        // file path -> alias -> import path
	importToPackage map[string]string                   // import path -> package path (memoized)
	mu              sync.RWMutex                         // guards importToPackage memoization only
}

// NewImportResolver creates an empty resolver; call BuildIndex before
// resolving anything.
func NewImportResolver() *ImportResolver {
	return &ImportResolver{
		packageIndex:    make(map[string]*PackageInfo),
		globalSymbols:   make(map[string]map[string]string),
		fileImports:     make(map[string]map[string]string),
		importToPackage: make(map[string]string),
	}
}

// BuildIndex constructs the package/symbol/import registries from one
// completed ingest batch. Call once after parsing; the index is read-only
// afterward, which is what lets ResolveCalls fan out across workers.
func (r *ImportResolver) BuildIndex(files []model.File, symbols []model.Symbol, imports []model.Import, packageNames map[string]string) {
	for _, f := range files {
		if f.Language != model.LangGo {
			continue
		}
		pkgPath := filepath.Dir(f.Path)
		if _, ok := r.packageIndex[pkgPath]; !ok {
			r.packageIndex[pkgPath] = &PackageInfo{PackagePath: pkgPath, PackageName: packageNames[f.Path]}
		}
		r.packageIndex[pkgPath].Files = append(r.packageIndex[pkgPath].Files, f.Path)
	}

	for _, sym := range symbols {
		if !strings.HasSuffix(sym.FilePath, ".go") {
			continue
		}
		pkgPath := filepath.Dir(sym.FilePath)
		if _, ok := r.globalSymbols[pkgPath]; !ok {
			r.globalSymbols[pkgPath] = make(map[string]string)
		}
		r.globalSymbols[pkgPath][sym.ShortName] = sym.ID
	}

	for _, imp := range imports {
		if _, ok := r.fileImports[imp.FilePath]; !ok {
			r.fileImports[imp.FilePath] = make(map[string]string)
		}
		alias := imp.Alias
		if alias == "" {
			alias = filepath.Base(imp.ModulePath)
		}
		if alias == "_" {
			continue
		}
		r.fileImports[imp.FilePath][alias] = imp.ModulePath
	}

	r.buildImportPathMapping()
}

func (r *ImportResolver) buildImportPathMapping() {
	for pkgPath, info := range r.packageIndex {
		r.importToPackage[pkgPath] = pkgPath
		if info.PackageName != "" {
			r.importToPackage[info.PackageName] = pkgPath
		}
	}
}

// ResolveCalls resolves a batch of call sites to symbol-graph edges.
// Below 1000 items it runs sequentially to avoid goroutine overhead;
// above that, a pool of min(NumCPU, 8) workers fans the resolution out since the index
// is read-only after BuildIndex.
func (r *ImportResolver) ResolveCalls(calls []UnresolvedCall) []ResolvedCall {
	if len(calls) < 1000 {
		return r.resolveSequential(calls)
	}
	return r.resolveParallel(calls)
}

func (r *ImportResolver) resolveSequential(calls []UnresolvedCall) []ResolvedCall {
	seen := make(map[string]bool)
	var resolved []ResolvedCall
	for _, c := range calls {
		calleeID := r.resolveOne(c)
		if calleeID == "" {
			continue
		}
		key := c.CallerSymbolID + "->" + calleeID
		if seen[key] {
			continue
		}
		seen[key] = true
		resolved = append(resolved, ResolvedCall{CallerSymbolID: c.CallerSymbolID, CalleeSymbolID: calleeID})
	}
	return resolved
}

func (r *ImportResolver) resolveParallel(calls []UnresolvedCall) []ResolvedCall {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	jobs := make(chan int, len(calls))
	type result struct{ callerID, calleeID string }
	results := make(chan result, len(calls))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c := calls[i]
				if calleeID := r.resolveOne(c); calleeID != "" {
					results <- result{callerID: c.CallerSymbolID, calleeID: calleeID}
				}
			}
		}()
	}
	for i := range calls {
		jobs <- i
	}
	close(jobs)
	go func() { wg.Wait(); close(results) }()

	seen := make(map[string]bool)
	var resolved []ResolvedCall
	for res := range results {
		key := res.callerID + "->" + res.calleeID
		if seen[key] {
			continue
		}
		seen[key] = true
		resolved = append(resolved, ResolvedCall{CallerSymbolID: res.callerID, CalleeSymbolID: res.calleeID})
	}
	return resolved
}

func (r *ImportResolver) resolveOne(call UnresolvedCall) string {
	if strings.Contains(call.CalleeName, ".") {
		parts := strings.SplitN(call.CalleeName, ".", 2)
		alias, name := parts[0], parts[1]
		if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
			name = name[lastDot+1:]
		}
		if len(name) == 0 || name[0] < 'A' || name[0] > 'Z' {
			return ""
		}
		imports, ok := r.fileImports[call.FilePath]
		if !ok {
			return ""
		}
		modulePath, ok := imports[alias]
		if !ok {
			return ""
		}
		pkgPath := r.findPackageByImportPath(modulePath)
		if pkgPath == "" {
			return ""
		}
		if syms, ok := r.globalSymbols[pkgPath]; ok {
			if id, ok := syms[name]; ok {
				return id
			}
		}
		return ""
	}

	if imports, ok := r.fileImports[call.FilePath]; ok {
		for alias, modulePath := range imports {
			if alias != "." {
				continue
			}
			pkgPath := r.findPackageByImportPath(modulePath)
			if pkgPath == "" {
				continue
			}
			if syms, ok := r.globalSymbols[pkgPath]; ok {
				if id, ok := syms[call.CalleeName]; ok {
					return id
				}
			}
		}
	}
	return ""
}

func (r *ImportResolver) findPackageByImportPath(importPath string) string {
	r.mu.RLock()
	if pkgPath, ok := r.importToPackage[importPath]; ok {
		r.mu.RUnlock()
		return pkgPath
	}
	r.mu.RUnlock()

	for pkgPath := range r.packageIndex {
		if strings.HasSuffix(importPath, pkgPath) {
			r.mu.Lock()
			r.importToPackage[importPath] = pkgPath
			r.mu.Unlock()
			return pkgPath
		}
	}

	base := filepath.Base(importPath)
	for pkgPath, info := range r.packageIndex {
		if info.PackageName == base {
			r.mu.Lock()
			r.importToPackage[importPath] = pkgPath
			r.mu.Unlock()
			return pkgPath
		}
	}
	return ""
}

// Stats reports index sizes for diagnostics.
func (r *ImportResolver) Stats() (packages, symbols, imports int) {
	packages = len(r.packageIndex)
	for _, syms := range r.globalSymbols {
		symbols += len(syms)
	}
	for _, imps := range r.fileImports {
		imports += len(imps)
	}
	return
}
