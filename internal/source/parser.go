//go:build cgo

package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"adx/internal/paths"
)

// Extractor parses source files into Units using tree-sitter.
type Extractor struct {
	markers Markers
}

// NewExtractor creates a new source extractor.
func NewExtractor(markers Markers) *Extractor {
	return &Extractor{markers: markers}
}

// Supports reports whether the file extension maps to a supported language.
func (e *Extractor) Supports(path string) bool {
	_, ok := LanguageFromExtension(strings.ToLower(filepath.Ext(path)))
	return ok
}

// ParseFile parses a single file into a Unit.
func (e *Extractor) ParseFile(ctx context.Context, absPath, canonicalPath string) (*Unit, error) {
	src, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	lang, ok := LanguageFromExtension(strings.ToLower(filepath.Ext(absPath)))
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", canonicalPath)
	}

	return e.ParseSource(ctx, canonicalPath, src, lang)
}

// ParseSource parses source bytes into a Unit.
func (e *Extractor) ParseSource(ctx context.Context, canonicalPath string, src []byte, lang Language) (*Unit, error) {
	// A tree-sitter parser is not safe for concurrent use, so each parse
	// gets its own instance.
	parser := sitter.NewParser()
	parser.SetLanguage(grammarFor(lang))

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parse produced no tree for %s", canonicalPath)
	}

	unit := &Unit{Path: canonicalPath, Language: lang}
	ns := namespaceFor(lang, root, src, canonicalPath)
	comments := collectComments(root, src, lang)

	e.walkDecls(root, src, lang, ns, "", unit, comments)

	return unit, nil
}

// IsAvailable returns whether source extraction is available.
func IsAvailable() bool {
	return true
}

func grammarFor(lang Language) *sitter.Language {
	switch lang {
	case LangGo:
		return golang.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	case LangPython:
		return python.GetLanguage()
	case LangJava:
		return java.GetLanguage()
	default:
		return nil
	}
}

// namespaceFor derives the declaration qualifier: the in-file namespace for
// languages that declare one, the root-relative path otherwise.
func namespaceFor(lang Language, root *sitter.Node, src []byte, canonicalPath string) string {
	switch lang {
	case LangGo:
		for i := 0; i < int(root.ChildCount()); i++ {
			child := root.Child(i)
			if child != nil && child.Type() == "package_clause" {
				for j := 0; j < int(child.ChildCount()); j++ {
					id := child.Child(j)
					if id != nil && id.Type() == "package_identifier" {
						return nodeText(id, src)
					}
				}
			}
		}
		return ""

	case LangJava:
		for i := 0; i < int(root.ChildCount()); i++ {
			child := root.Child(i)
			if child != nil && child.Type() == "package_declaration" {
				text := nodeText(child, src)
				text = strings.TrimPrefix(text, "package")
				text = strings.TrimSuffix(strings.TrimSpace(text), ";")
				return strings.TrimSpace(text)
			}
		}
		return ""

	default:
		return paths.Namespace(canonicalPath)
	}
}

// commentSpan is one comment node with 1-indexed line bounds.
type commentSpan struct {
	startLine int
	endLine   int
	raw       string
}

func commentNodeTypes(lang Language) []string {
	if lang == LangJava {
		return []string{"line_comment", "block_comment"}
	}
	return []string{"comment"}
}

func collectComments(root *sitter.Node, src []byte, lang Language) []commentSpan {
	types := commentNodeTypes(lang)

	var spans []commentSpan
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		for _, t := range types {
			if node.Type() == t {
				spans = append(spans, commentSpan{
					startLine: int(node.StartPoint().Row) + 1,
					endLine:   int(node.EndPoint().Row) + 1,
					raw:       nodeText(node, src),
				})
				break
			}
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)

	sort.Slice(spans, func(i, j int) bool { return spans[i].startLine < spans[j].startLine })
	return spans
}

// leadingBlock assembles the contiguous comment block ending on the line
// directly above declLine. Consecutive single-line comments chain upward.
func leadingBlock(comments []commentSpan, declLine int) (CommentBlock, bool) {
	byEnd := make(map[int]commentSpan, len(comments))
	for _, c := range comments {
		byEnd[c.endLine] = c
	}

	var chain []commentSpan
	line := declLine - 1
	for {
		c, ok := byEnd[line]
		if !ok {
			break
		}
		chain = append([]commentSpan{c}, chain...)
		line = c.startLine - 1
	}

	if len(chain) == 0 {
		return CommentBlock{}, false
	}

	var lines []string
	for _, c := range chain {
		lines = append(lines, StripCommentMarkers(c.raw)...)
	}
	return CommentBlock{Lines: lines, StartLine: chain[0].startLine}, true
}

// walkDecls traverses the tree collecting declarations, entering class-like
// declarations with their name as the member container.
func (e *Extractor) walkDecls(node *sitter.Node, src []byte, lang Language, ns, container string, unit *Unit, comments []commentSpan) {
	if node == nil {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}

		nextContainer := container
		switch lang {
		case LangGo:
			nextContainer = e.collectGoDecl(child, src, ns, unit, comments)
		default:
			if decl, ok := declFor(child, src, lang); ok {
				decl.Namespace = ns
				decl.Container = container
				e.attach(&decl, unit, comments)
				unit.Decls = append(unit.Decls, decl)
				if decl.Kind.IsTypeLike() {
					nextContainer = decl.Name
				}
			}
		}

		e.walkDecls(child, src, lang, ns, nextContainer, unit, comments)
	}
}

// collectGoDecl handles Go declarations, which never nest the way class
// members do. Returns the container to use for children (always unchanged).
func (e *Extractor) collectGoDecl(node *sitter.Node, src []byte, ns string, unit *Unit, comments []commentSpan) string {
	switch node.Type() {
	case "type_declaration":
		for i := 0; i < int(node.ChildCount()); i++ {
			spec := node.Child(i)
			if spec == nil || spec.Type() != "type_spec" {
				continue
			}
			name := spec.ChildByFieldName("name")
			if name == nil {
				continue
			}
			decl := Decl{
				Name:      nodeText(name, src),
				Namespace: ns,
				Kind:      KindType,
				Line:      int(spec.StartPoint().Row) + 1,
			}
			e.attach(&decl, unit, comments)
			unit.Decls = append(unit.Decls, decl)
		}

	case "function_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			decl := Decl{
				Name:      nodeText(name, src),
				Namespace: ns,
				Kind:      KindFunction,
				Line:      int(node.StartPoint().Row) + 1,
			}
			e.attach(&decl, unit, comments)
			unit.Decls = append(unit.Decls, decl)
		}

	case "method_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			decl := Decl{
				Name:      nodeText(name, src),
				Container: goReceiverType(node, src),
				Namespace: ns,
				Kind:      KindMethod,
				Line:      int(node.StartPoint().Row) + 1,
			}
			e.attach(&decl, unit, comments)
			unit.Decls = append(unit.Decls, decl)
		}
	}

	return ""
}

// goReceiverType extracts the receiver type name of a Go method.
func goReceiverType(node *sitter.Node, src []byte) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}

	var found string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || found != "" {
			return
		}
		if n.Type() == "type_identifier" {
			found = nodeText(n, src)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(recv)
	return found
}

// declFor maps a non-Go node to a declaration, when it is one.
func declFor(node *sitter.Node, src []byte, lang Language) (Decl, bool) {
	var kind DeclKind

	switch lang {
	case LangJavaScript, LangTypeScript, LangTSX:
		switch node.Type() {
		case "class_declaration", "abstract_class_declaration":
			kind = KindClass
		case "interface_declaration":
			kind = KindInterface
		case "enum_declaration":
			kind = KindEnum
		case "function_declaration", "generator_function_declaration":
			kind = KindFunction
		case "method_definition":
			kind = KindMethod
		default:
			return Decl{}, false
		}

	case LangPython:
		switch node.Type() {
		case "class_definition":
			kind = KindClass
		case "function_definition":
			kind = KindFunction
		default:
			return Decl{}, false
		}

	case LangJava:
		switch node.Type() {
		case "class_declaration", "record_declaration":
			kind = KindClass
		case "interface_declaration":
			kind = KindInterface
		case "enum_declaration":
			kind = KindEnum
		case "method_declaration", "constructor_declaration":
			kind = KindMethod
		default:
			return Decl{}, false
		}

	default:
		return Decl{}, false
	}

	name := node.ChildByFieldName("name")
	if name == nil {
		return Decl{}, false
	}

	// Functions nested in a class body are methods.
	if kind == KindFunction && lang == LangPython && insideClassBody(node) {
		kind = KindMethod
	}

	// Python wraps decorated declarations; the leading comment sits above
	// the decorator, so anchor the declaration there.
	line := int(node.StartPoint().Row) + 1
	if p := node.Parent(); p != nil && p.Type() == "decorated_definition" {
		line = int(p.StartPoint().Row) + 1
	}

	return Decl{
		Name: nodeText(name, src),
		Kind: kind,
		Line: line,
	}, true
}

func insideClassBody(node *sitter.Node) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "class_definition":
			return true
		case "function_definition":
			return false
		}
	}
	return false
}

// attach resolves the declaration's leading comment block into directives.
func (e *Extractor) attach(decl *Decl, unit *Unit, comments []commentSpan) {
	blk, ok := leadingBlock(comments, decl.Line)
	if !ok {
		return
	}

	decision, uses, errs := ParseCommentBlock(blk, e.markers)
	decl.Decision = decision
	decl.Uses = uses
	for _, err := range errs {
		unit.DirectiveErrors = append(unit.DirectiveErrors, err.Error())
	}
}

func nodeText(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}
