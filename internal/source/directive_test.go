package source

import (
	"strings"
	"testing"
)

func block(lines ...string) CommentBlock {
	return CommentBlock{Lines: lines, StartLine: 10}
}

func TestParseDecisionDirective(t *testing.T) {
	d, uses, errs := ParseCommentBlock(block(
		`adx:decision id="ADR-007" title="Use outbox" date="2024-03-01" status="accepted"`,
		"",
		"We publish events through a transactional outbox so a crash",
		"between commit and publish cannot lose messages.",
	), DefaultMarkers())

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(uses) != 0 {
		t.Fatalf("unexpected uses: %v", uses)
	}
	if d == nil {
		t.Fatal("decision directive not recognized")
	}
	if d.ID != "ADR-007" || d.Title != "Use outbox" || d.Date != "2024-03-01" || d.Status != "accepted" {
		t.Errorf("parsed fields = %+v", d)
	}
	if !strings.HasPrefix(d.Contents, "We publish events") {
		t.Errorf("contents should come from the free-text block, got %q", d.Contents)
	}
	if d.Line != 10 {
		t.Errorf("directive line = %d, want 10", d.Line)
	}
}

func TestExplicitContentsArgumentWins(t *testing.T) {
	d, _, errs := ParseCommentBlock(block(
		`adx:decision date="2024-01-01" status="draft" contents="short form"`,
		"this free text is ignored",
	), DefaultMarkers())

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if d.Contents != "short form" {
		t.Errorf("contents = %q, want explicit argument to win", d.Contents)
	}
}

func TestUnknownArgsBecomeOrderedMeta(t *testing.T) {
	d, _, errs := ParseCommentBlock(block(
		`adx:decision date="2024-01-01" status="draft" owner="platform" ticket="ARCH-42"`,
	), DefaultMarkers())

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(d.Meta) != 2 {
		t.Fatalf("got %d meta args, want 2", len(d.Meta))
	}
	if d.Meta[0].Key != "owner" || d.Meta[1].Key != "ticket" {
		t.Errorf("meta order not preserved: %+v", d.Meta)
	}
	if d.Meta[1].Value != "ARCH-42" {
		t.Errorf("meta value = %q", d.Meta[1].Value)
	}
}

func TestParseUsesDirectives(t *testing.T) {
	d, uses, errs := ParseCommentBlock(block(
		"Dispatcher drains the outbox table.",
		"adx:uses ADR-007",
		"adx:uses billing.UseIdempotencyKeys",
	), DefaultMarkers())

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if d != nil {
		t.Fatal("no decision directive expected")
	}
	if len(uses) != 2 {
		t.Fatalf("got %d uses, want 2", len(uses))
	}
	if uses[0].Target != "ADR-007" || uses[0].Line != 11 {
		t.Errorf("uses[0] = %+v", uses[0])
	}
	if uses[1].Target != "billing.UseIdempotencyKeys" {
		t.Errorf("uses[1] = %+v", uses[1])
	}
}

func TestDirectiveErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"uses without target", "adx:uses"},
		{"uses with two targets", "adx:uses A B"},
		{"unterminated value", `adx:decision date="2024`},
		{"unquoted value", `adx:decision date=2024-01-01`},
		{"missing key", `adx:decision ="x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, errs := ParseCommentBlock(block(tt.line), DefaultMarkers())
			if len(errs) == 0 {
				t.Errorf("expected a parse error for %q", tt.line)
			}
		})
	}
}

func TestMultipleDecisionDirectivesRejected(t *testing.T) {
	_, _, errs := ParseCommentBlock(block(
		`adx:decision date="2024-01-01" status="draft"`,
		`adx:decision date="2024-01-02" status="draft"`,
	), DefaultMarkers())
	if len(errs) != 1 {
		t.Errorf("got %d errors, want 1 for the second directive", len(errs))
	}
}

func TestIncompleteDirective(t *testing.T) {
	d, _, errs := ParseCommentBlock(block(`adx:decision status="draft"`), DefaultMarkers())
	if len(errs) != 0 {
		t.Fatalf("incomplete is not malformed: %v", errs)
	}
	if d.Complete() {
		t.Error("directive without a date must not be complete")
	}
	missing := d.MissingFields()
	if len(missing) != 1 || missing[0] != "date" {
		t.Errorf("MissingFields() = %v, want [date]", missing)
	}
}

func TestQuoteEscaping(t *testing.T) {
	d, _, errs := ParseCommentBlock(block(
		`adx:decision date="2024-01-01" status="draft" title="the ""big"" rewrite"`,
	), DefaultMarkers())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if d.Title != `the "big" rewrite` {
		t.Errorf("title = %q", d.Title)
	}
}

func TestCustomPrefixAndStatusAliases(t *testing.T) {
	m := Markers{
		Prefix:        "decision",
		StatusAliases: map[string]string{"wip": "draft"},
	}

	d, uses, errs := ParseCommentBlock(CommentBlock{
		Lines: []string{
			`decision:decision date="2024-05-05" status="WIP"`,
			"decision:uses ADR-001",
		},
		StartLine: 1,
	}, m)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if d == nil || d.Status != "draft" {
		t.Errorf("status alias not applied: %+v", d)
	}
	if len(uses) != 1 {
		t.Errorf("custom prefix uses not recognized: %+v", uses)
	}
}

func TestStripCommentMarkers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "line comments",
			raw:  "// first\n// second",
			want: []string{"first", "second"},
		},
		{
			name: "hash comments",
			raw:  "# first\n# second",
			want: []string{"first", "second"},
		},
		{
			name: "block comment",
			raw:  "/**\n * first\n * second\n */",
			want: []string{"", "first", "second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripCommentMarkers(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines %q, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUnitFQN(t *testing.T) {
	tests := []struct {
		decl Decl
		want string
	}{
		{Decl{Name: "UseOutbox", Namespace: "billing"}, "billing.UseOutbox"},
		{Decl{Name: "drain", Container: "Dispatcher", Namespace: "billing"}, "billing.Dispatcher.drain"},
		{Decl{Name: "Main", Namespace: ""}, "Main"},
	}
	for _, tt := range tests {
		if got := tt.decl.FQN(); got != tt.want {
			t.Errorf("FQN(%+v) = %q, want %q", tt.decl, got, tt.want)
		}
	}
}
