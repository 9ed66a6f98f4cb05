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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cerberuslabs/cerberus/pkg/model"
)

// jsWalkContext carries per-file state for the JavaScript/TypeScript walk.
// The same walk handles both languages: the TypeScript grammar is a
// superset of the JavaScript one, so the only language-specific node types
// (interface_declaration, type_alias_declaration, type annotations) simply
// never appear in a tree parsed with the plain JavaScript grammar.
type jsWalkContext struct {
	content      []byte
	filePath     string
	language     model.Language
	functions    []goFunctionWithNode
	funcNameToID map[string]string
	anonCounter  int
}

func (p *TreeSitterParser) parseJSOrTS(content []byte, filePath string, parser *sitter.Parser) (*ParseResult, error) {
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	lang := model.LangJavaScript
	if strings.HasSuffix(filePath, ".ts") || strings.HasSuffix(filePath, ".tsx") {
		lang = model.LangTypeScript
	}

	rootNode := tree.RootNode()
	var diagnostics []string
	if rootNode.HasError() {
		if errorCount := countErrors(rootNode); errorCount > 0 {
			p.logger.Warn("parser.treesitter.js.syntax_errors", "path", filePath, "error_count", errorCount)
			diagnostics = append(diagnostics, fmt.Sprintf("%d syntax error node(s)", errorCount))
		}
	}

	ctx := &jsWalkContext{content: content, filePath: filePath, language: lang, funcNameToID: make(map[string]string)}
	p.walkJSFunctions(rootNode, ctx)

	symbols := make([]model.Symbol, 0, len(ctx.functions))
	for _, fn := range ctx.functions {
		symbols = append(symbols, fn.symbol)
	}
	symbols = append(symbols, p.extractJSTypes(rootNode, ctx)...)

	imports := p.extractJSImports(rootNode, content, filePath)

	var calls []model.MethodCall
	for _, fn := range ctx.functions {
		calls = append(calls, p.extractJSCalls(fn.node, content, fn.symbol.ID, ctx.funcNameToID, filePath)...)
	}

	return &ParseResult{
		Symbols:     symbols,
		Imports:     imports,
		Calls:       calls,
		Diagnostics: diagnostics,
	}, nil
}

func (p *TreeSitterParser) walkJSFunctions(node *sitter.Node, ctx *jsWalkContext) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "function_declaration":
		if sym, n := p.extractJSFunction(node, ctx); sym != nil {
			ctx.functions = append(ctx.functions, goFunctionWithNode{symbol: *sym, node: n})
			ctx.funcNameToID[sym.ShortName] = sym.ID
		}
	case "variable_declarator":
		nameNode := node.ChildByFieldName("name")
		valueNode := node.ChildByFieldName("value")
		if nameNode != nil && valueNode != nil {
			switch valueNode.Type() {
			case "arrow_function", "function_expression", "function":
				if sym, n := p.extractJSNamedFunctionValue(nameNode, valueNode, ctx); sym != nil {
					ctx.functions = append(ctx.functions, goFunctionWithNode{symbol: *sym, node: n})
					ctx.funcNameToID[sym.ShortName] = sym.ID
				}
			}
		}
	case "method_definition":
		if sym, n := p.extractJSMethod(node, ctx); sym != nil {
			ctx.functions = append(ctx.functions, goFunctionWithNode{symbol: *sym, node: n})
			ctx.funcNameToID[sym.ShortName] = sym.ID
		}
	case "method_signature":
		if sym, n := p.extractJSSignatureLike(node, ctx, model.KindMethod); sym != nil {
			ctx.functions = append(ctx.functions, goFunctionWithNode{symbol: *sym, node: n})
		}
	case "function_signature":
		if sym, n := p.extractJSSignatureLike(node, ctx, model.KindFunction); sym != nil {
			ctx.functions = append(ctx.functions, goFunctionWithNode{symbol: *sym, node: n})
		}
	case "arrow_function":
		if parent := node.Parent(); parent == nil || parent.Type() != "variable_declarator" {
			ctx.anonCounter++
			name := fmt.Sprintf("$anon_%d", ctx.anonCounter)
			sym := p.buildJSSymbol(node, ctx, name, name, model.KindFunction, "")
			ctx.functions = append(ctx.functions, goFunctionWithNode{symbol: *sym, node: node})
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		p.walkJSFunctions(node.Child(i), ctx)
	}
}

func (p *TreeSitterParser) extractJSFunction(node *sitter.Node, ctx *jsWalkContext) (*model.Symbol, *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil, nil
	}
	name := string(ctx.content[nameNode.StartByte():nameNode.EndByte()])
	sym := p.buildJSSymbol(node, ctx, name, name, model.KindFunction, "")
	return sym, node
}

func (p *TreeSitterParser) extractJSNamedFunctionValue(nameNode, valueNode *sitter.Node, ctx *jsWalkContext) (*model.Symbol, *sitter.Node) {
	name := string(ctx.content[nameNode.StartByte():nameNode.EndByte()])
	sym := p.buildJSSymbol(valueNode, ctx, name, name, model.KindFunction, "")
	return sym, valueNode
}

func (p *TreeSitterParser) extractJSMethod(node *sitter.Node, ctx *jsWalkContext) (*model.Symbol, *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil, nil
	}
	methodName := string(ctx.content[nameNode.StartByte():nameNode.EndByte()])
	className := jsEnclosingClassName(node, ctx.content)
	qualified := methodName
	if className != "" {
		qualified = className + "." + methodName
	}
	sym := p.buildJSSymbol(node, ctx, methodName, qualified, model.KindMethod, className)
	return sym, node
}

// extractJSSignatureLike handles TypeScript's declaration-only forms
// (method_signature inside an interface, function_signature inside an
// "declare" block): there is no body to walk for calls, only a signature.
func (p *TreeSitterParser) extractJSSignatureLike(node *sitter.Node, ctx *jsWalkContext, kind model.SymbolKind) (*model.Symbol, *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil, nil
	}
	name := string(ctx.content[nameNode.StartByte():nameNode.EndByte()])
	sym := p.buildJSSymbol(node, ctx, name, name, kind, "")
	return sym, node
}

// jsEnclosingClassName walks up from a method_definition to the nearest
// class_declaration/class ancestor, returning its name or "" at top level
// (object-literal methods, for instance, have no enclosing class).
func jsEnclosingClassName(node *sitter.Node, content []byte) string {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		if parent.Type() == "class_declaration" || parent.Type() == "class" {
			if nameNode := parent.ChildByFieldName("name"); nameNode != nil {
				return string(content[nameNode.StartByte():nameNode.EndByte()])
			}
			return ""
		}
	}
	return ""
}

func (p *TreeSitterParser) buildJSSymbol(node *sitter.Node, ctx *jsWalkContext, shortName, qualifiedName string, kind model.SymbolKind, parentName string) *model.Symbol {
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	startCol := int(node.StartPoint().Column) + 1
	endCol := int(node.EndPoint().Column) + 1

	codeText := p.truncateCodeText(string(ctx.content[node.StartByte():node.EndByte()]))
	signature := jsSignatureText(node, ctx.content)
	docstring := jsLeadingDocComment(node, ctx.content)

	return &model.Symbol{
		ID:            model.GenerateSymbolID(ctx.filePath, shortName, kind, startLine, endLine, startCol, endCol),
		FilePath:      ctx.filePath,
		Language:      ctx.language,
		Kind:          kind,
		ShortName:     shortName,
		QualifiedName: qualifiedName,
		Signature:     signature,
		Docstring:     docstring,
		CodeText:      codeText,
		StartLine:     startLine,
		EndLine:       endLine,
		StartCol:      startCol,
		EndCol:        endCol,
	}
}

// jsSignatureText renders everything up to (and including) the return-type
// annotation or parameter list, stopping before the body/statement_block so
// the signature never includes the implementation.
func jsSignatureText(node *sitter.Node, content []byte) string {
	if bodyNode := node.ChildByFieldName("body"); bodyNode != nil {
		return strings.TrimSpace(string(content[node.StartByte():bodyNode.StartByte()]))
	}
	return string(content[node.StartByte():node.EndByte()])
}

// jsLeadingDocComment collects a contiguous JSDoc-style "/** ... */" block
// comment immediately preceding node.
func jsLeadingDocComment(node *sitter.Node, content []byte) string {
	prev := node.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := string(content[prev.StartByte():prev.EndByte()])
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	lastRow := int(node.StartPoint().Row)
	if lastRow-int(prev.EndPoint().Row) > 1 {
		return ""
	}
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimSuffix(text, "*/")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*")))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (p *TreeSitterParser) extractJSTypes(rootNode *sitter.Node, ctx *jsWalkContext) []model.Symbol {
	var symbols []model.Symbol
	p.walkJSTypesAST(rootNode, ctx, &symbols)
	return symbols
}

func (p *TreeSitterParser) walkJSTypesAST(node *sitter.Node, ctx *jsWalkContext, symbols *[]model.Symbol) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "class_declaration", "class":
		if sym := p.extractJSClass(node, ctx); sym != nil {
			*symbols = append(*symbols, *sym)
		}
	case "interface_declaration":
		if sym := p.extractJSInterfaceOrAlias(node, ctx, model.KindInterface); sym != nil {
			*symbols = append(*symbols, *sym)
		}
	case "type_alias_declaration":
		if sym := p.extractJSInterfaceOrAlias(node, ctx, model.KindClass); sym != nil {
			*symbols = append(*symbols, *sym)
		}
	case "enum_declaration":
		if sym := p.extractJSInterfaceOrAlias(node, ctx, model.KindEnum); sym != nil {
			*symbols = append(*symbols, *sym)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		p.walkJSTypesAST(node.Child(i), ctx, symbols)
	}
}

func (p *TreeSitterParser) extractJSClass(node *sitter.Node, ctx *jsWalkContext) *model.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(ctx.content[nameNode.StartByte():nameNode.EndByte()])
	return p.buildJSSymbol(node, ctx, name, name, model.KindClass, "")
}

func (p *TreeSitterParser) extractJSInterfaceOrAlias(node *sitter.Node, ctx *jsWalkContext, kind model.SymbolKind) *model.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(ctx.content[nameNode.StartByte():nameNode.EndByte()])
	return p.buildJSSymbol(node, ctx, name, name, kind, "")
}

func (p *TreeSitterParser) extractJSImports(rootNode *sitter.Node, content []byte, filePath string) []model.Import {
	var imports []model.Import
	p.walkJSImportsAST(rootNode, content, filePath, &imports)
	return imports
}

func (p *TreeSitterParser) walkJSImportsAST(node *sitter.Node, content []byte, filePath string, imports *[]model.Import) {
	if node == nil {
		return
	}
	if node.Type() == "import_statement" {
		if imp := p.extractJSImportStatement(node, content, filePath); imp != nil {
			*imports = append(*imports, *imp)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		p.walkJSImportsAST(node.Child(i), content, filePath, imports)
	}
}

func (p *TreeSitterParser) extractJSImportStatement(node *sitter.Node, content []byte, filePath string) *model.Import {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	modulePath := strings.Trim(string(content[sourceNode.StartByte():sourceNode.EndByte()]), `"'`)

	var names []string
	var alias string
	clause := node.ChildByFieldName("import_clause")
	if clause == nil {
		for i := 0; i < int(node.ChildCount()); i++ {
			if child := node.Child(i); child.Type() == "import_clause" {
				clause = child
				break
			}
		}
	}
	if clause != nil {
		collectJSImportNames(clause, content, &names, &alias)
	}

	return &model.Import{
		FilePath:      filePath,
		ModulePath:    modulePath,
		ImportedNames: names,
		Alias:         alias,
	}
}

func collectJSImportNames(node *sitter.Node, content []byte, names *[]string, alias *string) {
	switch node.Type() {
	case "identifier":
		*alias = string(content[node.StartByte():node.EndByte()])
	case "named_imports":
		for i := 0; i < int(node.ChildCount()); i++ {
			if spec := node.Child(i); spec.Type() == "import_specifier" {
				if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
					*names = append(*names, string(content[nameNode.StartByte():nameNode.EndByte()]))
				}
			}
		}
	default:
		for i := 0; i < int(node.ChildCount()); i++ {
			collectJSImportNames(node.Child(i), content, names, alias)
		}
	}
}

func (p *TreeSitterParser) extractJSCalls(fnNode *sitter.Node, content []byte, callerID string, funcNameToID map[string]string, filePath string) []model.MethodCall {
	bodyNode := fnNode.ChildByFieldName("body")
	if bodyNode == nil {
		bodyNode = fnNode
	}
	var calls []model.MethodCall
	seen := make(map[string]bool)
	p.walkJSCallExpressions(bodyNode, content, callerID, funcNameToID, filePath, &calls, seen)
	return calls
}

func (p *TreeSitterParser) walkJSCallExpressions(node *sitter.Node, content []byte, callerID string, funcNameToID map[string]string, filePath string, calls *[]model.MethodCall, seen map[string]bool) {
	if node == nil {
		return
	}
	if node.Type() == "call_expression" {
		if funcNode := node.ChildByFieldName("function"); funcNode != nil {
			methodName, receiverExpr := jsCalleeParts(funcNode, content)
			if methodName != "" {
				line := int(node.StartPoint().Row) + 1
				key := fmt.Sprintf("%d:%s:%s", line, receiverExpr, methodName)
				if !seen[key] {
					seen[key] = true
					call := model.MethodCall{
						CallerFile:     filePath,
						CallerSymbolID: callerID,
						CallerLine:     line,
						ReceiverExpr:   receiverExpr,
						MethodName:     methodName,
					}
					if calleeID, ok := funcNameToID[methodName]; ok && receiverExpr == "" {
						call.CalleeSymbolID = calleeID
					}
					*calls = append(*calls, call)
				}
			}
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		p.walkJSCallExpressions(node.Child(i), content, callerID, funcNameToID, filePath, calls, seen)
	}
}

// jsCalleeParts splits a call's callee expression into the called method
// name and, for member expressions like a.b.c(), the receiver chain ("a.b")
// that precedes it. "this.method()" yields receiverExpr "this", matching
// spec.md's requirement that self/this-qualified calls are recognized.
func jsCalleeParts(funcNode *sitter.Node, content []byte) (methodName, receiverExpr string) {
	switch funcNode.Type() {
	case "identifier":
		return string(content[funcNode.StartByte():funcNode.EndByte()]), ""
	case "member_expression":
		propertyNode := funcNode.ChildByFieldName("property")
		objectNode := funcNode.ChildByFieldName("object")
		if propertyNode == nil {
			return "", ""
		}
		methodName = string(content[propertyNode.StartByte():propertyNode.EndByte()])
		if objectNode != nil {
			receiverExpr = string(content[objectNode.StartByte():objectNode.EndByte()])
		}
		return methodName, receiverExpr
	default:
		return "", ""
	}
}
