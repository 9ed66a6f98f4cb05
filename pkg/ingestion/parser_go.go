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

// goFunctionWithNode pairs an extracted symbol with the AST node it came
// from, so the call-extraction pass can re-walk the function body after
// every declaration in the file is known.
type goFunctionWithNode struct {
	symbol model.Symbol
	node   *sitter.Node
}

// goWalkContext carries the state a single Go file's walk accumulates:
// declared symbols in declaration order, and a name->ID map used to
// resolve same-file call targets.
type goWalkContext struct {
	content      []byte
	filePath     string
	functions    []goFunctionWithNode
	funcNameToID map[string]string
	anonCounter  int
}

func (p *TreeSitterParser) parseGo(content []byte, filePath string) (*ParseResult, error) {
	tree, err := p.goParser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	var diagnostics []string
	if rootNode.HasError() {
		if errorCount := countErrors(rootNode); errorCount > 0 {
			p.logger.Warn("parser.treesitter.go.syntax_errors", "path", filePath, "error_count", errorCount)
			diagnostics = append(diagnostics, fmt.Sprintf("%d syntax error node(s)", errorCount))
		}
	}

	packageName := p.extractGoPackageName(rootNode, content)
	imports := p.extractGoImports(rootNode, content, filePath)

	ctx := &goWalkContext{
		content:      content,
		filePath:     filePath,
		funcNameToID: make(map[string]string),
	}
	p.walkGoAST(rootNode, ctx)

	symbols := make([]model.Symbol, 0, len(ctx.functions))
	for _, fn := range ctx.functions {
		symbols = append(symbols, fn.symbol)
	}
	symbols = append(symbols, p.extractGoTypes(rootNode, content, filePath)...)

	var calls []model.MethodCall
	for _, fn := range ctx.functions {
		calls = append(calls, p.extractGoCalls(fn.node, content, fn.symbol.ID, ctx.funcNameToID, filePath)...)
	}

	return &ParseResult{
		PackageName: packageName,
		Symbols:     symbols,
		Imports:     imports,
		Calls:       calls,
		Diagnostics: diagnostics,
	}, nil
}

func (p *TreeSitterParser) extractGoPackageName(rootNode *sitter.Node, content []byte) string {
	for i := 0; i < int(rootNode.ChildCount()); i++ {
		child := rootNode.Child(i)
		if child.Type() == "package_clause" {
			nameNode := child.ChildByFieldName("name")
			if nameNode != nil {
				return string(content[nameNode.StartByte():nameNode.EndByte()])
			}
		}
	}
	return ""
}

func (p *TreeSitterParser) walkGoAST(node *sitter.Node, ctx *goWalkContext) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "function_declaration":
		if sym, n := p.extractGoFunctionDeclaration(node, ctx); sym != nil {
			ctx.functions = append(ctx.functions, goFunctionWithNode{symbol: *sym, node: n})
			ctx.funcNameToID[sym.ShortName] = sym.ID
		}
	case "method_declaration":
		if sym, n := p.extractGoMethodDeclaration(node, ctx); sym != nil {
			ctx.functions = append(ctx.functions, goFunctionWithNode{symbol: *sym, node: n})
			ctx.funcNameToID[sym.ShortName] = sym.ID
		}
	case "func_literal":
		if sym, n := p.extractGoFuncLiteral(node, ctx); sym != nil {
			ctx.functions = append(ctx.functions, goFunctionWithNode{symbol: *sym, node: n})
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		p.walkGoAST(node.Child(i), ctx)
	}
}

func (p *TreeSitterParser) extractGoFunctionDeclaration(node *sitter.Node, ctx *goWalkContext) (*model.Symbol, *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil, nil
	}
	name := string(ctx.content[nameNode.StartByte():nameNode.EndByte()])
	signature := "func " + name + p.goTypeParams(node, ctx.content) + p.goParams(node, ctx.content) + p.goResult(node, ctx.content)

	sym := p.buildGoSymbol(node, ctx, name, name, signature, model.KindFunction)
	return sym, node
}

func (p *TreeSitterParser) extractGoMethodDeclaration(node *sitter.Node, ctx *goWalkContext) (*model.Symbol, *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil, nil
	}
	methodName := string(ctx.content[nameNode.StartByte():nameNode.EndByte()])

	receiverNode := node.ChildByFieldName("receiver")
	var receiver, receiverType string
	if receiverNode != nil {
		receiver = string(ctx.content[receiverNode.StartByte():receiverNode.EndByte()])
		receiverType = goReceiverTypeName(receiverNode, ctx.content)
	}

	signature := "func " + receiver + " " + methodName + p.goTypeParams(node, ctx.content) + p.goParams(node, ctx.content) + p.goResult(node, ctx.content)
	qualified := methodName
	if receiverType != "" {
		qualified = receiverType + "." + methodName
	}

	sym := p.buildGoSymbol(node, ctx, methodName, qualified, signature, model.KindMethod)
	return sym, node
}

func (p *TreeSitterParser) extractGoFuncLiteral(node *sitter.Node, ctx *goWalkContext) (*model.Symbol, *sitter.Node) {
	ctx.anonCounter++
	name := fmt.Sprintf("$anon_%d", ctx.anonCounter)
	signature := "func" + p.goParams(node, ctx.content) + p.goResult(node, ctx.content)
	sym := p.buildGoSymbol(node, ctx, name, name, signature, model.KindFunction)
	return sym, node
}

func (p *TreeSitterParser) buildGoSymbol(node *sitter.Node, ctx *goWalkContext, shortName, qualifiedName, signature string, kind model.SymbolKind) *model.Symbol {
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	startCol := int(node.StartPoint().Column) + 1
	endCol := int(node.EndPoint().Column) + 1

	codeText := p.truncateCodeText(string(ctx.content[node.StartByte():node.EndByte()]))
	docstring := goLeadingDocComment(node, ctx.content)

	return &model.Symbol{
		ID:            model.GenerateSymbolID(ctx.filePath, shortName, kind, startLine, endLine, startCol, endCol),
		FilePath:      ctx.filePath,
		Language:      model.LangGo,
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

func (p *TreeSitterParser) goTypeParams(node *sitter.Node, content []byte) string {
	if n := node.ChildByFieldName("type_parameters"); n != nil {
		return string(content[n.StartByte():n.EndByte()])
	}
	return ""
}

func (p *TreeSitterParser) goParams(node *sitter.Node, content []byte) string {
	if n := node.ChildByFieldName("parameters"); n != nil {
		return string(content[n.StartByte():n.EndByte()])
	}
	return "()"
}

func (p *TreeSitterParser) goResult(node *sitter.Node, content []byte) string {
	if n := node.ChildByFieldName("result"); n != nil {
		return " " + string(content[n.StartByte():n.EndByte()])
	}
	return ""
}

// goLeadingDocComment collects the contiguous run of "//" comments
// immediately preceding node, matching godoc's convention that a doc
// comment must touch the declaration with no blank line in between.
func goLeadingDocComment(node *sitter.Node, content []byte) string {
	prev := node.PrevSibling()
	var lines []string
	lastRow := int(node.StartPoint().Row)
	for prev != nil && prev.Type() == "comment" {
		row := int(prev.StartPoint().Row)
		if lastRow-row != 1 {
			break
		}
		text := strings.TrimPrefix(string(content[prev.StartByte():prev.EndByte()]), "//")
		lines = append([]string{strings.TrimSpace(text)}, lines...)
		lastRow = row
		prev = prev.PrevSibling()
	}
	return strings.Join(lines, "\n")
}

// goReceiverTypeName extracts the base type name from a method receiver,
// stripping pointer (*T) and generic (T[U]) decoration so "Server" is
// returned uniformly for (s *Server), (s Server), and (s *Server[T]).
func goReceiverTypeName(receiverNode *sitter.Node, content []byte) string {
	for i := 0; i < int(receiverNode.ChildCount()); i++ {
		child := receiverNode.Child(i)
		if child.Type() != "parameter_declaration" {
			continue
		}
		typeNode := child.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		return goBaseTypeName(typeNode, content)
	}
	return ""
}

func goBaseTypeName(typeNode *sitter.Node, content []byte) string {
	switch typeNode.Type() {
	case "pointer_type":
		for i := 0; i < int(typeNode.ChildCount()); i++ {
			if child := typeNode.Child(i); child.Type() != "*" {
				return goBaseTypeName(child, content)
			}
		}
	case "generic_type":
		if n := typeNode.ChildByFieldName("type"); n != nil {
			return string(content[n.StartByte():n.EndByte()])
		}
	case "type_identifier":
		return string(content[typeNode.StartByte():typeNode.EndByte()])
	}
	name := strings.TrimPrefix(string(content[typeNode.StartByte():typeNode.EndByte()]), "*")
	if idx := strings.Index(name, "["); idx > 0 {
		name = name[:idx]
	}
	return name
}

func (p *TreeSitterParser) extractGoImports(rootNode *sitter.Node, content []byte, filePath string) []model.Import {
	var imports []model.Import
	for i := 0; i < int(rootNode.ChildCount()); i++ {
		child := rootNode.Child(i)
		if child.Type() != "import_declaration" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			spec := child.Child(j)
			switch spec.Type() {
			case "import_spec":
				if imp := p.extractGoImportSpec(spec, content, filePath); imp != nil {
					imports = append(imports, *imp)
				}
			case "import_spec_list":
				for k := 0; k < int(spec.ChildCount()); k++ {
					if sub := spec.Child(k); sub.Type() == "import_spec" {
						if imp := p.extractGoImportSpec(sub, content, filePath); imp != nil {
							imports = append(imports, *imp)
						}
					}
				}
			}
		}
	}
	return imports
}

func (p *TreeSitterParser) extractGoImportSpec(node *sitter.Node, content []byte, filePath string) *model.Import {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		for i := 0; i < int(node.ChildCount()); i++ {
			if child := node.Child(i); child.Type() == "interpreted_string_literal" {
				pathNode = child
				break
			}
		}
	}
	if pathNode == nil {
		return nil
	}
	importPath := strings.Trim(string(content[pathNode.StartByte():pathNode.EndByte()]), `"`)

	alias := ""
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		alias = string(content[nameNode.StartByte():nameNode.EndByte()])
	} else {
		for i := 0; i < int(node.ChildCount()); i++ {
			switch node.Child(i).Type() {
			case "dot", ".":
				alias = "."
			case "blank_identifier":
				alias = "_"
			}
		}
	}

	return &model.Import{
		FilePath:   filePath,
		ModulePath: importPath,
		Alias:      alias,
	}
}

func (p *TreeSitterParser) extractGoCalls(fnNode *sitter.Node, content []byte, callerID string, funcNameToID map[string]string, filePath string) []model.MethodCall {
	if fnNode == nil {
		return nil
	}
	bodyNode := fnNode.ChildByFieldName("body")
	if bodyNode == nil {
		for i := 0; i < int(fnNode.ChildCount()); i++ {
			if child := fnNode.Child(i); child.Type() == "block" {
				bodyNode = child
				break
			}
		}
	}
	if bodyNode == nil {
		return nil
	}

	var calls []model.MethodCall
	seen := make(map[string]bool)
	p.walkGoCallExpressions(bodyNode, content, callerID, funcNameToID, filePath, &calls, seen)
	return calls
}

func (p *TreeSitterParser) walkGoCallExpressions(node *sitter.Node, content []byte, callerID string, funcNameToID map[string]string, filePath string, calls *[]model.MethodCall, seen map[string]bool) {
	if node == nil {
		return
	}

	if node.Type() == "call_expression" {
		if funcNode := node.ChildByFieldName("function"); funcNode != nil {
			methodName, receiverExpr := goCalleeParts(funcNode, content)
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
		p.walkGoCallExpressions(node.Child(i), content, callerID, funcNameToID, filePath, calls, seen)
	}
}

// goCalleeParts splits a call's function expression into the called method
// name and, for selector expressions like a.b.c(), the receiver chain
// ("a.b") that precedes it.
func goCalleeParts(funcNode *sitter.Node, content []byte) (methodName, receiverExpr string) {
	switch funcNode.Type() {
	case "identifier":
		return string(content[funcNode.StartByte():funcNode.EndByte()]), ""
	case "selector_expression":
		fieldNode := funcNode.ChildByFieldName("field")
		operandNode := funcNode.ChildByFieldName("operand")
		if fieldNode == nil {
			return "", ""
		}
		methodName = string(content[fieldNode.StartByte():fieldNode.EndByte()])
		if operandNode != nil {
			receiverExpr = string(content[operandNode.StartByte():operandNode.EndByte()])
		}
		return methodName, receiverExpr
	default:
		return "", ""
	}
}

func (p *TreeSitterParser) extractGoTypes(rootNode *sitter.Node, content []byte, filePath string) []model.Symbol {
	var symbols []model.Symbol
	p.walkGoTypesAST(rootNode, content, filePath, &symbols)
	return symbols
}

func (p *TreeSitterParser) walkGoTypesAST(node *sitter.Node, content []byte, filePath string, symbols *[]model.Symbol) {
	if node == nil {
		return
	}
	if node.Type() == "type_declaration" {
		p.extractGoTypeDeclaration(node, content, filePath, symbols)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		p.walkGoTypesAST(node.Child(i), content, filePath, symbols)
	}
}

func (p *TreeSitterParser) extractGoTypeDeclaration(node *sitter.Node, content []byte, filePath string, symbols *[]model.Symbol) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type_spec":
			if sym := p.extractGoTypeSpec(child, content, filePath); sym != nil {
				*symbols = append(*symbols, *sym)
			}
		case "type_spec_list":
			for j := 0; j < int(child.ChildCount()); j++ {
				if spec := child.Child(j); spec.Type() == "type_spec" {
					if sym := p.extractGoTypeSpec(spec, content, filePath); sym != nil {
						*symbols = append(*symbols, *sym)
					}
				}
			}
		}
	}
}

func (p *TreeSitterParser) extractGoTypeSpec(node *sitter.Node, content []byte, filePath string) *model.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		for i := 0; i < int(node.ChildCount()); i++ {
			if child := node.Child(i); child.Type() == "type_identifier" {
				nameNode = child
				break
			}
		}
	}
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		for i := 0; i < int(node.ChildCount()); i++ {
			switch node.Child(i).Type() {
			case "struct_type", "interface_type", "type_identifier", "pointer_type",
				"array_type", "slice_type", "map_type", "channel_type", "function_type", "generic_type":
				typeNode = node.Child(i)
			}
			if typeNode != nil {
				break
			}
		}
	}

	kind := goTypeKind(typeNode)
	if kind == "" {
		return nil
	}

	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	startCol := int(node.StartPoint().Column) + 1
	endCol := int(node.EndPoint().Column) + 1
	codeText := p.truncateCodeText(string(content[node.StartByte():node.EndByte()]))
	docstring := goLeadingDocComment(node, content)

	return &model.Symbol{
		ID:            model.GenerateSymbolID(filePath, name, kind, startLine, endLine, startCol, endCol),
		FilePath:      filePath,
		Language:      model.LangGo,
		Kind:          kind,
		ShortName:     name,
		QualifiedName: name,
		Docstring:     docstring,
		CodeText:      codeText,
		StartLine:     startLine,
		EndLine:       endLine,
		StartCol:      startCol,
		EndCol:        endCol,
	}
}

func goTypeKind(typeNode *sitter.Node) model.SymbolKind {
	if typeNode == nil {
		return ""
	}
	switch typeNode.Type() {
	case "struct_type":
		return model.KindClass
	case "interface_type":
		return model.KindInterface
	case "type_identifier", "pointer_type", "array_type", "slice_type",
		"map_type", "channel_type", "function_type", "generic_type":
		return model.KindClass
	default:
		return ""
	}
}
