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

package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateFileID_Deterministic(t *testing.T) {
	path := "test/path/to/file.go"
	assert.Equal(t, GenerateFileID(path), GenerateFileID(path))
	assert.True(t, strings.HasPrefix(GenerateFileID(path), "file:"))
}

func TestGenerateFileID_DifferentPaths(t *testing.T) {
	assert.NotEqual(t, GenerateFileID("a.go"), GenerateFileID("b.go"))
}

func TestGenerateFileID_NormalizesPath(t *testing.T) {
	assert.Equal(t, GenerateFileID("./test/file.go"), GenerateFileID("test/file.go"))
}

func TestGenerateSymbolID_Deterministic(t *testing.T) {
	id1 := GenerateSymbolID("test.go", "testFunction", KindFunction, 10, 15, 1, 20)
	id2 := GenerateSymbolID("test.go", "testFunction", KindFunction, 10, 15, 1, 20)
	assert.Equal(t, id1, id2)
	assert.True(t, strings.HasPrefix(id1, "sym:"))
}

func TestGenerateSymbolID_DifferentNames(t *testing.T) {
	id1 := GenerateSymbolID("test.go", "f1", KindFunction, 10, 15, 1, 20)
	id2 := GenerateSymbolID("test.go", "f2", KindFunction, 10, 15, 1, 20)
	assert.NotEqual(t, id1, id2)
}

func TestGenerateSymbolID_DifferentKinds(t *testing.T) {
	id1 := GenerateSymbolID("test.go", "Foo", KindFunction, 10, 15, 1, 20)
	id2 := GenerateSymbolID("test.go", "Foo", KindClass, 10, 15, 1, 20)
	assert.NotEqual(t, id1, id2, "same name/range but different kind must not collide")
}

func TestGenerateSymbolID_DifferentRanges(t *testing.T) {
	id1 := GenerateSymbolID("test.go", "f", KindFunction, 10, 15, 1, 20)
	id2 := GenerateSymbolID("test.go", "f", KindFunction, 20, 25, 1, 25)
	assert.NotEqual(t, id1, id2)
}

func TestGenerateSymbolID_DifferentColumns(t *testing.T) {
	id1 := GenerateSymbolID("test.go", "f", KindFunction, 10, 15, 1, 20)
	id2 := GenerateSymbolID("test.go", "f", KindFunction, 10, 15, 5, 25)
	assert.NotEqual(t, id1, id2, "columns prevent collisions between same-range declarations")
}

func TestGenerateImportID_Deterministic(t *testing.T) {
	id1 := GenerateImportID("a.go", "fmt", "")
	id2 := GenerateImportID("a.go", "fmt", "")
	assert.Equal(t, id1, id2)
	assert.True(t, strings.HasPrefix(id1, "imp:"))
}

func TestGenerateImportID_DifferentAlias(t *testing.T) {
	id1 := GenerateImportID("a.go", "fmt", "")
	id2 := GenerateImportID("a.go", "fmt", "f")
	assert.NotEqual(t, id1, id2)
}

func TestGenerateCallID_Deterministic(t *testing.T) {
	id1 := GenerateCallID("a.go", 12, "Foo", "x")
	id2 := GenerateCallID("a.go", 12, "Foo", "x")
	assert.Equal(t, id1, id2)
	assert.True(t, strings.HasPrefix(id1, "call:"))
}

func TestGenerateReferenceID_Deterministic(t *testing.T) {
	id1 := GenerateReferenceID("a.go", 12, RefMethodCall, "sym:abc")
	id2 := GenerateReferenceID("a.go", 12, RefMethodCall, "sym:abc")
	assert.Equal(t, id1, id2)
	assert.True(t, strings.HasPrefix(id1, "ref:"))
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"./foo/bar.go": "foo/bar.go",
		"/foo/bar.go":  "foo/bar.go",
		"foo//bar.go":  "foo/bar.go",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePath(in), "input %q", in)
	}
}

func TestSymbol_IdentityKey(t *testing.T) {
	s1 := Symbol{FilePath: "a.go", ShortName: "Foo", Kind: KindFunction, StartLine: 1, EndLine: 5}
	s2 := Symbol{FilePath: "a.go", ShortName: "Foo", Kind: KindFunction, StartLine: 1, EndLine: 5}
	s3 := Symbol{FilePath: "a.go", ShortName: "Foo", Kind: KindMethod, StartLine: 1, EndLine: 5}
	assert.Equal(t, s1.IdentityKey(), s2.IdentityKey())
	assert.NotEqual(t, s1.IdentityKey(), s3.IdentityKey())
}
