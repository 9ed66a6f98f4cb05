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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

func writeRepoFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestScanner_Walk_SkipsDefaultExcludes(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "main.go", "package main\n")
	writeRepoFile(t, root, "vendor/dep/dep.go", "package dep\n")
	writeRepoFile(t, root, ".git/HEAD", "ref: refs/heads/main\n")

	s := NewScanner(map[model.Language]CodeParser{model.LangGo: NewSimplifiedParser()}, nil)
	files, err := s.Walk(root, ScanOptions{})
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.RelPath())
	}
	assert.Contains(t, paths, "main.go")
	assert.NotContains(t, paths, "vendor/dep/dep.go")
	assert.NotContains(t, paths, ".git/HEAD")
}

func TestScanner_Walk_SkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "big.go", "package main\n// "+string(make([]byte, 100))+"\n")

	s := NewScanner(map[model.Language]CodeParser{model.LangGo: NewSimplifiedParser()}, nil)
	files, err := s.Walk(root, ScanOptions{MaxFileSizeBytes: 10})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanner_Scan_ReturnsOneResultPerFile(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "a.go", "package main\n\nfunc A() {}\n")
	writeRepoFile(t, root, "b.go", "package main\n\nfunc B() {}\n")

	s := NewScanner(map[model.Language]CodeParser{model.LangGo: NewSimplifiedParser()}, nil)
	results, err := s.Scan(context.Background(), root, ScanOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.go", results[0].Path)
	assert.Equal(t, "b.go", results[1].Path)
}

func TestScanner_Scan_NoParserRegisteredYieldsDiagnostic(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "a.py", "def f():\n    pass\n")

	s := NewScanner(map[model.Language]CodeParser{}, nil)
	results, err := s.Scan(context.Background(), root, ScanOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Diagnostic)
	assert.Empty(t, results[0].Symbols)
}

func TestScanner_ScanPaths_OnlyParsesRequestedFiles(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "a.go", "package main\n\nfunc A() {}\n")
	writeRepoFile(t, root, "b.go", "package main\n\nfunc B() {}\n")

	s := NewScanner(map[model.Language]CodeParser{model.LangGo: NewSimplifiedParser()}, nil)
	results, err := s.ScanPaths(context.Background(), root, []string{"b.go"}, ScanOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b.go", results[0].Path)
}

func TestDetectLanguage_MapsExtensions(t *testing.T) {
	assert.Equal(t, model.LangGo, detectLanguage("main.go"))
	assert.Equal(t, model.LangPython, detectLanguage("script.py"))
	assert.Equal(t, model.LangJavaScript, detectLanguage("index.js"))
	assert.Equal(t, model.LangTypeScript, detectLanguage("index.tsx"))
	assert.Equal(t, model.LangProtobuf, detectLanguage("service.proto"))
	assert.Equal(t, model.Language(""), detectLanguage("README.md"))
}

func TestMatchesAny_BareFilenamePatternMatchesAnywhere(t *testing.T) {
	assert.True(t, matchesAny("node_modules/pkg/index.js", []string{"**/node_modules/**"}))
	assert.True(t, matchesAny("a/b/node_modules", []string{"node_modules"}))
	assert.False(t, matchesAny("src/node_modules_helper.go", []string{"node_modules"}))
}
