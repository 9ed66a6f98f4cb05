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

package resolve

import (
	"regexp"
	"strings"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

// ReceiverHints carries every signal the parser collected about one
// method-call receiver variable, in the order TypeTracker consults them.
type ReceiverHints struct {
	// ReceiverExpr is the raw text of the receiver, e.g. "s" in "s.Run()".
	ReceiverExpr string

	// AnnotatedType is the type named at the nearest enclosing
	// declaration of ReceiverExpr (a `var x T` or `x: T` form), if any.
	AnnotatedType string

	// ConstructorType is T in an assignment shaped like `x = T(...)` or
	// `x := T{}`, if the receiver was last assigned that way.
	ConstructorType string

	// ParamType is the annotated type of a function parameter sharing
	// ReceiverExpr's name, if the call site is inside that function.
	ParamType string
}

// TypeInference is the result of running TypeTracker on one ReceiverHints.
type TypeInference struct {
	Type       string
	Confidence float64
	Method     model.ResolutionMethod
}

// heuristicReceiverPattern catches the common "this looks like an object"
// naming convention (lowerCamelCase or snake_case identifiers starting
// with a lowercase letter) used as the last-resort heuristic rule.
var heuristicReceiverPattern = regexp.MustCompile(`^[a-z][A-Za-z0-9_]*$`)

// TypeTracker infers a method-call receiver's type by the first matching
// rule in spec order: explicit annotation, constructor call, parameter
// annotation, then a naming heuristic. Each rule carries its own
// confidence and resolution method so the caller can write both
// MethodCall.ReceiverType and a SymbolReference in one pass.
type TypeTracker struct{}

// NewTypeTracker constructs a TypeTracker. It is stateless: all context
// comes in through ReceiverHints per call.
func NewTypeTracker() *TypeTracker { return &TypeTracker{} }

// Infer applies the priority chain to hints. ok is false only when none
// of the four rules produce a candidate type (e.g. receiver name doesn't
// even match the heuristic naming pattern).
func (t *TypeTracker) Infer(hints ReceiverHints) (TypeInference, bool) {
	if hints.AnnotatedType != "" {
		return TypeInference{Type: hints.AnnotatedType, Confidence: 0.9, Method: model.MethodTypeAnnotation}, true
	}
	if hints.ConstructorType != "" {
		return TypeInference{Type: hints.ConstructorType, Confidence: 0.85, Method: model.MethodClassInstantiation}, true
	}
	if hints.ParamType != "" {
		return TypeInference{Type: hints.ParamType, Confidence: 0.7, Method: model.MethodParameterInference}, true
	}
	if heuristicReceiverPattern.MatchString(hints.ReceiverExpr) {
		return TypeInference{Type: strings.Title(hints.ReceiverExpr), Confidence: 0.5, Method: model.MethodHeuristic}, true
	}
	return TypeInference{}, false
}

// ResolveReceiverMethod looks up the symbol a method call resolves to,
// given the receiver's inferred type and the package index ImportResolver
// built. It reuses the resolver's global-symbol table so a method found
// on type T resolves the same way a qualified function call would.
func (r *ImportResolver) ResolveReceiverMethod(filePath, receiverType, methodName string) string {
	pkgPath := receiverType
	if imports, ok := r.fileImports[filePath]; ok {
		if modulePath, ok := imports[receiverType]; ok {
			if p := r.findPackageByImportPath(modulePath); p != "" {
				pkgPath = p
			}
		}
	} else if p := r.findPackageByImportPath(receiverType); p != "" {
		pkgPath = p
	}

	for pkg, syms := range r.globalSymbols {
		if pkg != pkgPath {
			continue
		}
		if id, ok := syms[receiverType+"."+methodName]; ok {
			return id
		}
		if id, ok := syms[methodName]; ok {
			return id
		}
	}
	return ""
}
