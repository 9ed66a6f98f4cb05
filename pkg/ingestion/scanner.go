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
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

// DefaultExcludeGlobs are hard-excluded regardless of caller-supplied
// ignore rules; they never contain indexable source.
var DefaultExcludeGlobs = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/.venv/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
}

// FileResult is one file's worth of parse output: the rows the Writer will
// persist, plus a diagnostic when the file failed to parse or was
// truncated. The Scanner returns these as one slice, in file-path order.
type FileResult struct {
	Path        string
	Language    model.Language
	ContentHash string
	Size        int64
	Symbols     []model.Symbol
	Imports     []model.Import
	Calls       []model.MethodCall
	Truncated   bool
	Diagnostic  string
}

// ScanOptions bounds a single scan: which paths to skip, how large a file
// or symbol count may grow before the Scanner truncates or skips it, and
// how many files parse concurrently.
type ScanOptions struct {
	ExcludeGlobs      []string
	MaxFileSizeBytes  int64
	MaxSymbolsPerFile int
	Concurrency       int
}

func (o ScanOptions) withDefaults() ScanOptions {
	if o.MaxFileSizeBytes <= 0 {
		o.MaxFileSizeBytes = 1 << 20 // 1 MiB
	}
	if o.MaxSymbolsPerFile <= 0 {
		o.MaxSymbolsPerFile = 2000
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 8
	}
	return o
}

// Scanner walks a repository's files and dispatches each to the parser
// registered for its language.
type Scanner struct {
	parsers map[model.Language]CodeParser
	logger  *slog.Logger
}

// NewScanner builds a Scanner dispatching to the given per-language
// parsers. A file whose language has no registered parser yields a
// FileResult with a diagnostic and no symbols.
func NewScanner(parsers map[model.Language]CodeParser, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{parsers: parsers, logger: logger}
}

// discoveredFile is a path surviving the exclude-rule walk, not yet parsed.
type discoveredFile struct {
	relPath  string
	fullPath string
	size     int64
	language model.Language
}

// RelPath exposes the repo-relative path Walk discovered, for callers
// outside this package (the incremental updater's non-git added-file
// detection) that need the walked set without the internal parse step.
func (f discoveredFile) RelPath() string { return f.relPath }

// Walk performs the depth-first directory walk, pruning excluded subtrees
// before descending into them, and returns the surviving files sorted by
// path for deterministic downstream ordering.
func (s *Scanner) Walk(root string, opts ScanOptions) ([]discoveredFile, error) {
	opts = opts.withDefaults()
	excludes := append(append([]string{}, DefaultExcludeGlobs...), opts.ExcludeGlobs...)

	var files []discoveredFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("scanner.walk.error", "path", path, "err", err)
			return nil
		}
		if path == root {
			return nil
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if matchesAny(relPath, excludes) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		lang := detectLanguage(relPath)
		if lang == "" {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if info.Size() > opts.MaxFileSizeBytes {
			s.logger.Warn("scanner.walk.skip_large_file", "path", relPath, "size", info.Size())
			return nil
		}

		files = append(files, discoveredFile{relPath: relPath, fullPath: path, size: info.Size(), language: lang})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk repository: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].relPath < files[j].relPath })
	return files, nil
}

// Scan walks root and parses every surviving file with bounded parallelism,
// returning results in file-path order. It never retains parsed content
// beyond what it returns — callers own batching and persistence.
func (s *Scanner) Scan(ctx context.Context, root string, opts ScanOptions) ([]FileResult, error) {
	opts = opts.withDefaults()
	files, err := s.Walk(root, opts)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(files))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Concurrency)

	for i, f := range files {
		i, f := i, f
		group.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = s.parseOne(f, opts)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ScanPaths parses only the given repo-relative paths, skipping the rest
// of the tree. Paths excluded by opts.ExcludeGlobs/DefaultExcludeGlobs or
// missing from disk are silently dropped, matching Walk's own filtering;
// the incremental updater uses this to reparse a git delta. It still walks
// the whole tree to apply that filtering, but parses only the given paths.
func (s *Scanner) ScanPaths(ctx context.Context, root string, paths []string, opts ScanOptions) ([]FileResult, error) {
	opts = opts.withDefaults()
	all, err := s.Walk(root, opts)
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[filepath.ToSlash(p)] = true
	}

	var files []discoveredFile
	for _, f := range all {
		if want[f.relPath] {
			files = append(files, f)
		}
	}

	results := make([]FileResult, len(files))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Concurrency)
	for i, f := range files {
		i, f := i, f
		group.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = s.parseOne(f, opts)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Scanner) parseOne(f discoveredFile, opts ScanOptions) FileResult {
	result := FileResult{Path: f.relPath, Language: f.language, Size: f.size}

	content, err := readFile(f.fullPath)
	if err != nil {
		result.Diagnostic = fmt.Sprintf("read file: %v", err)
		return result
	}
	result.ContentHash = ContentHash(content)

	parser, ok := s.parsers[f.language]
	if !ok {
		result.Diagnostic = fmt.Sprintf("no parser registered for language %q", f.language)
		return result
	}

	parsed, err := parser.ParseFile(FileInfo{Path: f.relPath, FullPath: f.fullPath, Size: f.size, Language: f.language})
	if err != nil {
		result.Diagnostic = fmt.Sprintf("parse: %v", err)
		return result
	}

	symbols := parsed.Symbols
	truncated := parsed.Truncated
	if len(symbols) > opts.MaxSymbolsPerFile {
		symbols = symbols[:opts.MaxSymbolsPerFile]
		truncated = true
	}

	result.Symbols = symbols
	result.Imports = parsed.Imports
	result.Calls = parsed.Calls
	result.Truncated = truncated
	if len(parsed.Diagnostics) > 0 {
		result.Diagnostic = strings.Join(parsed.Diagnostics, "; ")
	}
	return result
}

// matchesAny reports whether path matches any of the doublestar glob
// patterns. Patterns without a leading "**/" are additionally tried as
// anchored-anywhere patterns, matching the teacher's "implicit **/ prefix"
// convenience for bare filename/directory patterns.
func matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
		if !strings.HasPrefix(pattern, "**/") {
			if ok, _ := doublestar.Match("**/"+pattern, path); ok {
				return true
			}
		}
	}
	return false
}

// detectLanguage maps a file extension to the Language it should be parsed
// as. Unrecognized extensions return "" and are skipped by the Scanner.
func detectLanguage(path string) model.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return model.LangGo
	case ".py":
		return model.LangPython
	case ".js", ".jsx", ".mjs", ".cjs":
		return model.LangJavaScript
	case ".ts", ".tsx":
		return model.LangTypeScript
	case ".proto":
		return model.LangProtobuf
	default:
		return ""
	}
}
