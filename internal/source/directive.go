package source

import (
	"fmt"
	"strings"
)

// Markers controls how directives are recognized. The prefix and status
// aliases are author-configurable through .adx/markers.toml.
type Markers struct {
	// Prefix is the directive namespace, "adx" by default. A decision
	// directive line then reads "adx:decision ...".
	Prefix string

	// StatusAliases maps author shorthand to display statuses, e.g.
	// "wip" -> "draft". Applied at parse time; unmapped statuses pass
	// through untouched since status is an open vocabulary.
	StatusAliases map[string]string
}

// DefaultMarkers returns the built-in marker configuration.
func DefaultMarkers() Markers {
	return Markers{Prefix: "adx"}
}

func (m Markers) prefix() string {
	if m.Prefix == "" {
		return "adx"
	}
	return m.Prefix
}

// DecisionDirective is a parsed "adx:decision" line plus the free-text
// contents that follow it in the same comment block.
type DecisionDirective struct {
	// ID overrides the derived identifier when the author supplied one.
	ID string

	Title  string
	Date   string
	Status string

	// Contents is the rationale text. An explicit contents="..." argument
	// wins over the free-text block below the directive.
	Contents string

	// Meta holds directive arguments outside the known set, in the order
	// they were written.
	Meta []MetaArg

	// Line is the source line of the directive, for diagnostics.
	Line int
}

// Complete reports whether the directive satisfies the decision record
// contract: date and status are required, everything else is derivable.
func (d *DecisionDirective) Complete() bool {
	return d.Date != "" && d.Status != ""
}

// MissingFields names the required fields the directive lacks.
func (d *DecisionDirective) MissingFields() []string {
	var missing []string
	if d.Date == "" {
		missing = append(missing, "date")
	}
	if d.Status == "" {
		missing = append(missing, "status")
	}
	return missing
}

// MetaArg is one author-supplied key/value pair outside the known argument
// set.
type MetaArg struct {
	Key   string
	Value string
}

// UseDirective is a parsed "adx:uses" line.
type UseDirective struct {
	// Target is the referenced decision, by identifier or fully-qualified
	// declaration name.
	Target string

	// Line is the source line of the directive, for diagnostics.
	Line int
}

// CommentBlock is a contiguous leading comment attached to a declaration,
// already stripped of comment markers. Line numbers are 1-indexed source
// lines so diagnostics can point at the directive itself.
type CommentBlock struct {
	Lines     []string
	StartLine int
}

// ParseCommentBlock scans a comment block for directives. It returns the
// decision directive if present (at most one; later ones are reported as
// errors), the usage directives in order, and any malformed directive
// errors. Non-directive lines below the decision directive become its
// contents unless the directive carried an explicit contents argument.
func ParseCommentBlock(block CommentBlock, m Markers) (*DecisionDirective, []UseDirective, []error) {
	decisionMarker := m.prefix() + ":decision"
	usesMarker := m.prefix() + ":uses"

	var decision *DecisionDirective
	var uses []UseDirective
	var errs []error
	var freeText []string
	sawDecision := false

	for i, raw := range block.Lines {
		line := strings.TrimSpace(raw)
		lineNo := block.StartLine + i

		switch {
		case strings.HasPrefix(line, decisionMarker):
			if sawDecision {
				errs = append(errs, fmt.Errorf("line %d: multiple %s directives in one comment block", lineNo, decisionMarker))
				continue
			}
			sawDecision = true
			d, err := parseDecisionArgs(strings.TrimPrefix(line, decisionMarker), m)
			if err != nil {
				errs = append(errs, fmt.Errorf("line %d: %w", lineNo, err))
				continue
			}
			d.Line = lineNo
			decision = d

		case strings.HasPrefix(line, usesMarker):
			target := strings.TrimSpace(strings.TrimPrefix(line, usesMarker))
			if target == "" {
				errs = append(errs, fmt.Errorf("line %d: %s directive without a target", lineNo, usesMarker))
				continue
			}
			if len(strings.Fields(target)) > 1 {
				errs = append(errs, fmt.Errorf("line %d: %s accepts a single identifier, got %q", lineNo, usesMarker, target))
				continue
			}
			uses = append(uses, UseDirective{Target: target, Line: lineNo})

		default:
			if sawDecision {
				freeText = append(freeText, raw)
			}
		}
	}

	if decision != nil && decision.Contents == "" {
		decision.Contents = strings.TrimSpace(strings.Join(freeText, "\n"))
	}

	return decision, uses, errs
}

// parseDecisionArgs parses the key="value" argument list of a decision
// directive. Unknown keys are preserved as metadata in written order.
func parseDecisionArgs(s string, m Markers) (*DecisionDirective, error) {
	args, err := scanArgs(s)
	if err != nil {
		return nil, err
	}

	d := &DecisionDirective{}
	for _, a := range args {
		switch a.Key {
		case "id":
			d.ID = a.Value
		case "title":
			d.Title = a.Value
		case "date":
			d.Date = a.Value
		case "status":
			d.Status = resolveStatus(a.Value, m)
		case "contents":
			d.Contents = a.Value
		default:
			d.Meta = append(d.Meta, a)
		}
	}
	return d, nil
}

func resolveStatus(status string, m Markers) string {
	if mapped, ok := m.StatusAliases[strings.ToLower(status)]; ok {
		return mapped
	}
	return status
}

// scanArgs tokenizes a space-separated key="value" list. Values are always
// double-quoted; a doubled quote inside a value escapes it.
func scanArgs(s string) ([]MetaArg, error) {
	var args []MetaArg
	rest := strings.TrimSpace(s)

	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("malformed argument near %q, expected key=\"value\"", truncate(rest))
		}
		key := strings.TrimSpace(rest[:eq])
		if strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("malformed argument key %q", key)
		}

		rest = rest[eq+1:]
		if len(rest) == 0 || rest[0] != '"' {
			return nil, fmt.Errorf("argument %q must use a double-quoted value", key)
		}
		rest = rest[1:]

		var value strings.Builder
		closed := false
		for i := 0; i < len(rest); i++ {
			if rest[i] != '"' {
				value.WriteByte(rest[i])
				continue
			}
			if i+1 < len(rest) && rest[i+1] == '"' {
				value.WriteByte('"')
				i++
				continue
			}
			rest = strings.TrimSpace(rest[i+1:])
			closed = true
			break
		}
		if !closed {
			return nil, fmt.Errorf("unterminated value for argument %q", key)
		}

		args = append(args, MetaArg{Key: key, Value: value.String()})
	}

	return args, nil
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

// StripCommentMarkers removes the language comment syntax from a raw
// comment, returning clean text lines. Handles //-style, #-style, and
// /* ... */ block comments with leading asterisks.
func StripCommentMarkers(raw string) []string {
	text := strings.TrimSuffix(raw, "\n")
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")

	rawLines := strings.Split(text, "\n")
	lines := make([]string, 0, len(rawLines))
	for _, l := range rawLines {
		l = strings.TrimSpace(l)
		switch {
		case strings.HasPrefix(l, "///"):
			l = strings.TrimPrefix(l, "///")
		case strings.HasPrefix(l, "//"):
			l = strings.TrimPrefix(l, "//")
		case strings.HasPrefix(l, "#"):
			l = strings.TrimPrefix(l, "#")
		case strings.HasPrefix(l, "*"):
			l = strings.TrimPrefix(l, "*")
		}
		if len(l) > 0 && l[0] == ' ' {
			l = l[1:]
		}
		lines = append(lines, l)
	}

	// Trailing blanks come from the closing block delimiter line. Leading
	// blanks are kept so line indexes stay aligned with source lines.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}
