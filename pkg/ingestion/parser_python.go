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

type pyWalkContext struct {
	content      []byte
	filePath     string
	functions    []goFunctionWithNode
	funcNameToID map[string]string
	classStack   []string
}

func (p *TreeSitterParser) parsePython(content []byte, filePath string) (*ParseResult, error) {
	tree, err := p.pyParser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	var diagnostics []string
	if rootNode.HasError() {
		if errorCount := countErrors(rootNode); errorCount > 0 {
			p.logger.Warn("parser.treesitter.python.syntax_errors", "path", filePath, "error_count", errorCount)
			diagnostics = append(diagnostics, fmt.Sprintf("%d syntax error node(s)", errorCount))
		}
	}

	ctx := &pyWalkContext{content: content, filePath: filePath, funcNameToID: make(map[string]string)}
	p.walkPyAST(rootNode, ctx)

	symbols := make([]model.Symbol, 0, len(ctx.functions))
	for _, fn := range ctx.functions {
		symbols = append(symbols, fn.symbol)
	}

	imports := p.extractPyImports(rootNode, content, filePath)

	var calls []model.MethodCall
	for _, fn := range ctx.functions {
		calls = append(calls, p.extractPyCalls(fn.node, content, fn.symbol.ID, ctx.funcNameToID, filePath)...)
	}

	return &ParseResult{
		Symbols:     symbols,
		Imports:     imports,
		Calls:       calls,
		Diagnostics: diagnostics,
	}, nil
}

func (p *TreeSitterParser) walkPyAST(node *sitter.Node, ctx *pyWalkContext) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "class_definition":
		nameNode := node.ChildByFieldName("name")
		className := ""
		if nameNode != nil {
			className = string(ctx.content[nameNode.StartByte():nameNode.EndByte()])
			if sym := p.buildPySymbol(node, ctx, className, className, model.KindClass); sym != nil {
				ctx.functions = append(ctx.functions, goFunctionWithNode{symbol: *sym, node: nil})
			}
		}
		ctx.classStack = append(ctx.classStack, className)
		for i := 0; i < int(node.ChildCount()); i++ {
			p.walkPyAST(node.Child(i), ctx)
		}
		ctx.classStack = ctx.classStack[:len(ctx.classStack)-1]
		return

	case "function_definition":
		kind := model.KindFunction
		var parentClass string
		if len(ctx.classStack) > 0 {
			kind = model.KindMethod
			parentClass = ctx.classStack[len(ctx.classStack)-1]
		}
		if sym, n := p.extractPyFunctionDefinition(node, ctx, kind, parentClass); sym != nil {
			ctx.functions = append(ctx.functions, goFunctionWithNode{symbol: *sym, node: n})
			ctx.funcNameToID[sym.ShortName] = sym.ID
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		p.walkPyAST(node.Child(i), ctx)
	}
}

func (p *TreeSitterParser) extractPyFunctionDefinition(node *sitter.Node, ctx *pyWalkContext, kind model.SymbolKind, parentClass string) (*model.Symbol, *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil, nil
	}
	name := string(ctx.content[nameNode.StartByte():nameNode.EndByte()])
	qualified := name
	if parentClass != "" {
		qualified = parentClass + "." + name
	}

	// decorated_definition wraps the function_definition plus its
	// decorators; the symbol should span the whole decorated form so
	// decorators remain attached when skeletonizing.
	declNode := node
	if parent := node.Parent(); parent != nil && parent.Type() == "decorated_definition" {
		declNode = parent
	}

	sym := p.buildPySymbol(declNode, ctx, name, qualified, kind)
	if sym == nil {
		return nil, nil
	}
	sym.Docstring = pyDocstring(node, ctx.content)
	return sym, node
}

func (p *TreeSitterParser) buildPySymbol(node *sitter.Node, ctx *pyWalkContext, shortName, qualifiedName string, kind model.SymbolKind) *model.Symbol {
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	startCol := int(node.StartPoint().Column) + 1
	endCol := int(node.EndPoint().Column) + 1

	codeText := p.truncateCodeText(string(ctx.content[node.StartByte():node.EndByte()]))
	signature := pySignatureText(node, ctx.content)

	return &model.Symbol{
		ID:            model.GenerateSymbolID(ctx.filePath, shortName, kind, startLine, endLine, startCol, endCol),
		FilePath:      ctx.filePath,
		Language:      model.LangPython,
		Kind:          kind,
		ShortName:     shortName,
		QualifiedName: qualifiedName,
		Signature:     signature,
		CodeText:      codeText,
		StartLine:     startLine,
		EndLine:       endLine,
		StartCol:      startCol,
		EndCol:        endCol,
	}
}

// pySignatureText renders "def name(params) -> result:" (or "class Name(bases):")
// without the indented body, for both a bare definition and its decorated form.
func pySignatureText(node *sitter.Node, content []byte) string {
	target := node
	if node.Type() == "decorated_definition" {
		for i := 0; i < int(node.ChildCount()); i++ {
			if child := node.Child(i); child.Type() == "function_definition" || child.Type() == "class_definition" {
				target = child
				break
			}
		}
	}
	if bodyNode := target.ChildByFieldName("body"); bodyNode != nil {
		return strings.TrimSpace(string(content[target.StartByte():bodyNode.StartByte()]))
	}
	return string(content[target.StartByte():target.EndByte()])
}

// pyDocstring returns the function/class body's first statement when it is
// a bare string expression, Python's docstring convention.
func pyDocstring(node *sitter.Node, content []byte) string {
	bodyNode := node.ChildByFieldName("body")
	if bodyNode == nil || bodyNode.ChildCount() == 0 {
		return ""
	}
	first := bodyNode.Child(0)
	if first.Type() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	strNode := first.Child(0)
	if strNode.Type() != "string" {
		return ""
	}
	text := string(content[strNode.StartByte():strNode.EndByte()])
	text = strings.Trim(text, `"'`)
	return strings.TrimSpace(text)
}

func (p *TreeSitterParser) extractPyImports(rootNode *sitter.Node, content []byte, filePath string) []model.Import {
	var imports []model.Import
	p.walkPyImportsAST(rootNode, content, filePath, &imports)
	return imports
}

func (p *TreeSitterParser) walkPyImportsAST(node *sitter.Node, content []byte, filePath string, imports *[]model.Import) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "import_statement":
		for i := 0; i < int(node.ChildCount()); i++ {
			if child := node.Child(i); child.Type() == "dotted_name" || child.Type() == "aliased_import" {
				if imp := p.extractPyImportName(child, content, filePath); imp != nil {
					*imports = append(*imports, *imp)
				}
			}
		}
	case "import_from_statement":
		moduleNode := node.ChildByFieldName("module_name")
		if moduleNode == nil {
			break
		}
		modulePath := string(content[moduleNode.StartByte():moduleNode.EndByte()])
		var names []string
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "dotted_name":
				if child != moduleNode {
					names = append(names, string(content[child.StartByte():child.EndByte()]))
				}
			case "aliased_import":
				if n := child.ChildByFieldName("name"); n != nil {
					names = append(names, string(content[n.StartByte():n.EndByte()]))
				}
			case "wildcard_import":
				names = append(names, "*")
			}
		}
		*imports = append(*imports, model.Import{FilePath: filePath, ModulePath: modulePath, ImportedNames: names})
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		p.walkPyImportsAST(node.Child(i), content, filePath, imports)
	}
}

func (p *TreeSitterParser) extractPyImportName(node *sitter.Node, content []byte, filePath string) *model.Import {
	if node.Type() == "aliased_import" {
		nameNode := node.ChildByFieldName("name")
		aliasNode := node.ChildByFieldName("alias")
		if nameNode == nil {
			return nil
		}
		modulePath := string(content[nameNode.StartByte():nameNode.EndByte()])
		alias := ""
		if aliasNode != nil {
			alias = string(content[aliasNode.StartByte():aliasNode.EndByte()])
		}
		return &model.Import{FilePath: filePath, ModulePath: modulePath, Alias: alias}
	}
	modulePath := string(content[node.StartByte():node.EndByte()])
	return &model.Import{FilePath: filePath, ModulePath: modulePath}
}

func (p *TreeSitterParser) extractPyCalls(fnNode *sitter.Node, content []byte, callerID string, funcNameToID map[string]string, filePath string) []model.MethodCall {
	if fnNode == nil {
		return nil
	}
	bodyNode := fnNode.ChildByFieldName("body")
	if bodyNode == nil {
		bodyNode = fnNode
	}
	var calls []model.MethodCall
	seen := make(map[string]bool)
	p.walkPyCallExpressions(bodyNode, content, callerID, funcNameToID, filePath, &calls, seen)
	return calls
}

func (p *TreeSitterParser) walkPyCallExpressions(node *sitter.Node, content []byte, callerID string, funcNameToID map[string]string, filePath string, calls *[]model.MethodCall, seen map[string]bool) {
	if node == nil {
		return
	}
	if node.Type() == "call" {
		if funcNode := node.ChildByFieldName("function"); funcNode != nil {
			methodName, receiverExpr := pyCalleeParts(funcNode, content)
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
		p.walkPyCallExpressions(node.Child(i), content, callerID, funcNameToID, filePath, calls, seen)
	}
}

// pyCalleeParts splits a call's function expression into the called
// attribute name and, for "a.b.c()" / "self.method()" forms, the receiver
// chain preceding it ("a.b" / "self").
func pyCalleeParts(funcNode *sitter.Node, content []byte) (methodName, receiverExpr string) {
	switch funcNode.Type() {
	case "identifier":
		return string(content[funcNode.StartByte():funcNode.EndByte()]), ""
	case "attribute":
		attrNode := funcNode.ChildByFieldName("attribute")
		objectNode := funcNode.ChildByFieldName("object")
		if attrNode == nil {
			return "", ""
		}
		methodName = string(content[attrNode.StartByte():attrNode.EndByte()])
		if objectNode != nil {
			receiverExpr = string(content[objectNode.StartByte():objectNode.EndByte()])
		}
		return methodName, receiverExpr
	default:
		return "", ""
	}
}
