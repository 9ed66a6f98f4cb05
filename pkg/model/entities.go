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

// Package model defines the entities persisted by the Store: Symbol, File,
// Import, MethodCall, SymbolReference, and Embedding, plus the resolution
// kinds and confidence-scoring constants the resolver passes produce.
package model

// SymbolKind enumerates the declarations the parsers extract.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindEnum      SymbolKind = "enum"
	KindVariable  SymbolKind = "variable"
)

// Language identifies the source language a file or symbol belongs to.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangProtobuf   Language = "protobuf"
)

// Symbol is a named, located declaration: function, method, class,
// interface, enum, or module-scope variable.
//
// ID is assigned on insert and is internal to the store; callers address
// symbols by ID once returned from a write or query operation.
type Symbol struct {
	ID            string     `json:"id"`
	QualifiedName string     `json:"qualified_name"`
	ShortName     string     `json:"short_name"`
	Kind          SymbolKind `json:"kind"`
	FilePath      string     `json:"file_path"`
	StartLine     int        `json:"start_line"`
	EndLine       int        `json:"end_line"`
	StartCol      int        `json:"start_col"`
	EndCol        int        `json:"end_col"`
	Signature     string     `json:"signature,omitempty"`
	ParentID      string     `json:"parent_id,omitempty"`
	Docstring     string     `json:"docstring,omitempty"`
	Language      Language   `json:"language"`
	CodeText      string     `json:"-"` // never persisted; used transiently to drive embedding generation
}

// File is a source file known to the index.
type File struct {
	Path          string   `json:"path"`
	Language      Language `json:"language"`
	ContentHash   string   `json:"content_hash"`
	SizeBytes     int64    `json:"size_bytes"`
	MTime         int64    `json:"mtime"` // unix seconds
	IndexedAtRevs string   `json:"indexed_at_rev,omitempty"`
}

// Import is a directed edge: importing file -> (module path, names, alias).
// Unresolved at parse time; enriched by the ImportResolver.
type Import struct {
	FilePath      string   `json:"file_path"`
	ModulePath    string   `json:"module_path"`
	ImportedNames []string `json:"imported_names,omitempty"`
	Alias         string   `json:"alias,omitempty"`
	TargetFile    string   `json:"target_file,omitempty"`
	TargetSymbol  string   `json:"target_symbol,omitempty"`
}

// MethodCall is a call site inside a function or method body.
// ReceiverType is empty until the TypeTracker resolves it.
type MethodCall struct {
	CallerFile     string `json:"caller_file"`
	CallerSymbolID string `json:"caller_symbol_id"`
	CallerLine     int    `json:"caller_line"`
	ReceiverExpr   string `json:"receiver_expr,omitempty"`
	MethodName     string `json:"method_name"`
	ReceiverType   string `json:"receiver_type,omitempty"`
	CalleeSymbolID string `json:"callee_symbol_id,omitempty"`
}

// ReferenceKind enumerates the edge kinds a SymbolReference may carry.
type ReferenceKind string

const (
	RefMethodCall     ReferenceKind = "method_call"
	RefInstanceOf     ReferenceKind = "instance_of"
	RefInherits       ReferenceKind = "inherits"
	RefTypeAnnotation ReferenceKind = "type_annotation"
	RefReturnType     ReferenceKind = "return_type"
)

// ResolutionMethod records how a SymbolReference's confidence was derived.
// Priority order (highest first), used to break P8 confidence ties:
// import_trace > type_annotation > class_instantiation > parameter_inference > heuristic.
type ResolutionMethod string

const (
	MethodImportTrace        ResolutionMethod = "import_trace"
	MethodHeuristicUnique    ResolutionMethod = "heuristic_unique"
	MethodTypeAnnotation     ResolutionMethod = "type_annotation"
	MethodClassInstantiation ResolutionMethod = "class_instantiation"
	MethodParameterInference ResolutionMethod = "parameter_inference"
	MethodHeuristic          ResolutionMethod = "heuristic"
)

// ResolutionPriority returns the tie-break rank for a resolution method;
// lower is preferred. Unknown methods sort last.
func ResolutionPriority(m ResolutionMethod) int {
	switch m {
	case MethodImportTrace:
		return 0
	case MethodTypeAnnotation:
		return 1
	case MethodClassInstantiation:
		return 2
	case MethodParameterInference:
		return 3
	case MethodHeuristic, MethodHeuristicUnique:
		return 4
	default:
		return 5
	}
}

// SymbolReference is an edge in the resolution graph.
type SymbolReference struct {
	SourceFile     string           `json:"source_file"`
	SourceLine     int              `json:"source_line"`
	SourceSymbolID string           `json:"source_symbol_id"`
	Kind           ReferenceKind    `json:"kind"`
	TargetFile     string           `json:"target_file,omitempty"`
	TargetSymbolID string           `json:"target_symbol_id,omitempty"`
	TargetKind     SymbolKind       `json:"target_kind,omitempty"`
	Confidence     float64          `json:"confidence"`
	Method         ResolutionMethod `json:"resolution_method"`
}

// Embedding is a fixed-dimension vector attached to a Symbol.
type Embedding struct {
	SymbolID    string    `json:"symbol_id"`
	Vector      []float32 `json:"vector"`
	InputHash   string    `json:"input_hash"` // content hash of the text that produced Vector, for I5 staleness detection
	Dimensions  int       `json:"dimensions"`
}

// Snippet is a lazily materialized range of source text. It is never
// persisted — the Store reads it from disk on every call to GetSnippet.
type Snippet struct {
	Path    string `json:"path"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Content string `json:"content"`
}

// IdentityKey returns the I1 uniqueness key for a symbol: at most one row
// may exist per (file_path, short_name, kind, start_line, end_line).
func (s Symbol) IdentityKey() string {
	return s.FilePath + "|" + s.ShortName + "|" + string(s.Kind) + "|" +
		itoa(s.StartLine) + "|" + itoa(s.EndLine)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
