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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

func parseTreeSitterSource(t *testing.T, lang model.Language, fileName, source string) *ParseResult {
	t.Helper()
	dir := t.TempDir()
	full := filepath.Join(dir, fileName)
	require.NoError(t, os.WriteFile(full, []byte(source), 0o644))

	parser := NewTreeSitterParser(nil)
	result, err := parser.ParseFile(FileInfo{Path: fileName, FullPath: full, Size: int64(len(source)), Language: lang})
	require.NoError(t, err)
	return result
}

const goSample = `package sample

import "fmt"

type Greeter struct {
	Name string
}

func (g *Greeter) Greet() string {
	return helper(g.Name)
}

func helper(name string) string {
	return fmt.Sprintf("hi %s", name)
}
`

func TestTreeSitterParser_Go_ExtractsSymbolsImportsAndCalls(t *testing.T) {
	result := parseTreeSitterSource(t, model.LangGo, "sample.go", goSample)

	var names []string
	for _, sym := range result.Symbols {
		names = append(names, sym.ShortName)
	}
	assert.Contains(t, names, "Greeter")
	assert.Contains(t, names, "Greet")
	assert.Contains(t, names, "helper")

	require.NotEmpty(t, result.Imports)
	assert.Equal(t, "fmt", result.Imports[0].ModulePath)

	var sawCall bool
	for _, call := range result.Calls {
		if call.MethodName == "helper" {
			sawCall = true
		}
	}
	assert.True(t, sawCall, "expected Greet to record a call to helper")
}

func TestTreeSitterParser_Go_SyntaxErrorStillReturnsPartialResult(t *testing.T) {
	result := parseTreeSitterSource(t, model.LangGo, "broken.go", "package sample\n\nfunc Broken( {\n")
	assert.NotNil(t, result)
}

const pythonSample = `class Animal:
    def __init__(self, name):
        self.name = name

    def speak(self):
        return greet(self.name)


def greet(name):
    return "hi " + name
`

func TestTreeSitterParser_Python_ExtractsClassAndMethods(t *testing.T) {
	result := parseTreeSitterSource(t, model.LangPython, "sample.py", pythonSample)

	var kinds = map[string]model.SymbolKind{}
	for _, sym := range result.Symbols {
		kinds[sym.ShortName] = sym.Kind
	}
	assert.Equal(t, model.KindClass, kinds["Animal"])
	assert.Contains(t, kinds, "greet")
}

const jsSample = `function helper(name) {
  return "hi " + name;
}

class Greeter {
  greet(name) {
    return helper(name);
  }
}
`

func TestTreeSitterParser_JavaScript_ExtractsFunctionsAndClass(t *testing.T) {
	result := parseTreeSitterSource(t, model.LangJavaScript, "sample.js", jsSample)

	var names []string
	for _, sym := range result.Symbols {
		names = append(names, sym.ShortName)
	}
	assert.Contains(t, names, "helper")
	assert.Contains(t, names, "Greeter")
}

const tsSample = `interface Greeting {
  text: string;
}

function helper(name: string): string {
  return "hi " + name;
}
`

func TestTreeSitterParser_TypeScript_ExtractsInterfaceAndFunction(t *testing.T) {
	result := parseTreeSitterSource(t, model.LangTypeScript, "sample.ts", tsSample)

	var kinds = map[string]model.SymbolKind{}
	for _, sym := range result.Symbols {
		kinds[sym.ShortName] = sym.Kind
	}
	assert.Equal(t, model.KindInterface, kinds["Greeting"])
	assert.Contains(t, kinds, "helper")
}

func TestTreeSitterParser_UnregisteredLanguageErrors(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "f.proto")
	require.NoError(t, os.WriteFile(full, []byte("syntax = \"proto3\";\n"), 0o644))

	parser := NewTreeSitterParser(nil)
	_, err := parser.ParseFile(FileInfo{Path: "f.proto", FullPath: full, Size: 10, Language: model.Language("ruby")})
	assert.Error(t, err)
}

func TestTreeSitterParser_TruncatesOverlongCodeText(t *testing.T) {
	parser := NewTreeSitterParser(nil)
	parser.SetMaxCodeTextSize(8)

	dir := t.TempDir()
	full := filepath.Join(dir, "sample.go")
	require.NoError(t, os.WriteFile(full, []byte(goSample), 0o644))

	_, err := parser.ParseFile(FileInfo{Path: "sample.go", FullPath: full, Size: int64(len(goSample)), Language: model.LangGo})
	require.NoError(t, err)
	assert.Greater(t, parser.GetTruncatedCount(), 0)

	parser.ResetTruncatedCount()
	assert.Equal(t, 0, parser.GetTruncatedCount())
}
