// Package source provides the parsed source unit model: one value per
// scanned file, carrying the declarations found in it together with any
// decision and usage directives attached to them.
package source

// Language represents a supported source language.
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangJava       Language = "java"
)

// LanguageFromExtension maps a file extension (with leading dot) to a
// supported language.
func LanguageFromExtension(ext string) (Language, bool) {
	switch ext {
	case ".go":
		return LangGo, true
	case ".js", ".mjs", ".cjs":
		return LangJavaScript, true
	case ".ts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	case ".py":
		return LangPython, true
	case ".java":
		return LangJava, true
	default:
		return "", false
	}
}

// DeclKind classifies a declaration.
type DeclKind string

const (
	KindType      DeclKind = "type"
	KindClass     DeclKind = "class"
	KindInterface DeclKind = "interface"
	KindEnum      DeclKind = "enum"
	KindFunction  DeclKind = "function"
	KindMethod    DeclKind = "method"
)

// IsTypeLike reports whether a declaration of this kind may declare a
// decision record. Usage annotations are accepted on any kind.
func (k DeclKind) IsTypeLike() bool {
	switch k {
	case KindType, KindClass, KindInterface, KindEnum:
		return true
	default:
		return false
	}
}

// Unit is one parsed source file. Units are immutable once built and live
// only for a single run.
type Unit struct {
	// Path is the canonical root-relative path of the file.
	Path string

	// Language is the detected source language.
	Language Language

	// Decls are the declarations found in the file, in source order.
	Decls []Decl

	// DirectiveErrors lists malformed directive lines found while parsing,
	// already formatted with their line numbers. Reported as diagnostics by
	// the gatherer.
	DirectiveErrors []string
}

// Decl is one declaration in a source unit.
type Decl struct {
	// Name is the declared name.
	Name string

	// Container is the enclosing class/type name for members, empty for
	// top-level declarations.
	Container string

	// Namespace qualifies the declaration: the package or namespace
	// declared in the file, or a path-derived namespace for languages
	// without one.
	Namespace string

	// Kind classifies the declaration.
	Kind DeclKind

	// Line is the 1-indexed start line.
	Line int

	// Decision is non-nil when the declaration carries a decision
	// directive.
	Decision *DecisionDirective

	// Uses lists usage directives attached to the declaration.
	Uses []UseDirective
}

// FQN returns the fully-qualified declaration name.
func (d Decl) FQN() string {
	name := d.Name
	if d.Container != "" {
		name = d.Container + "." + name
	}
	if d.Namespace == "" {
		return name
	}
	return d.Namespace + "." + name
}
