package pipeline

import (
	"bytes"
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"adx/internal/config"
	"adx/internal/errors"
	"adx/internal/logging"
	"adx/internal/source"
)

// fakeParser serves canned units keyed by canonical path.
type fakeParser struct {
	units map[string]*source.Unit
}

func (p *fakeParser) Supports(path string) bool {
	return strings.HasSuffix(path, ".go")
}

func (p *fakeParser) ParseFile(ctx context.Context, absPath, canonicalPath string) (*source.Unit, error) {
	if u, ok := p.units[canonicalPath]; ok {
		return u, nil
	}
	return &source.Unit{Path: canonicalPath, Language: source.LangGo}, nil
}

func quietLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.ErrorLevel})
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("package x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func testConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.RepoRoot = root
	return cfg
}

func decisionUnit(path, ns, name, date, status string) *source.Unit {
	return &source.Unit{
		Path:     path,
		Language: source.LangGo,
		Decls: []source.Decl{{
			Name:      name,
			Namespace: ns,
			Kind:      source.KindType,
			Line:      3,
			Decision:  &source.DecisionDirective{Date: date, Status: status, Contents: "why"},
		}},
	}
}

func usageUnit(path, ns, name, target string) *source.Unit {
	return &source.Unit{
		Path:     path,
		Language: source.LangGo,
		Decls: []source.Decl{{
			Name:      name,
			Namespace: ns,
			Kind:      source.KindType,
			Line:      3,
			Uses:      []source.UseDirective{{Target: target, Line: 2}},
		}},
	}
}

func TestRunProducesDocument(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "billing/outbox.go", "billing/dispatch.go")

	parser := &fakeParser{units: map[string]*source.Unit{
		"billing/outbox.go":   decisionUnit("billing/outbox.go", "billing", "UseOutbox", "2024-03-01", "accepted"),
		"billing/dispatch.go": usageUnit("billing/dispatch.go", "billing", "Dispatcher", "billing.UseOutbox"),
	}}

	p := New(testConfig(tempDir), parser, quietLogger())
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Records != 1 || result.UsageSites != 1 || result.FilesParsed != 2 {
		t.Errorf("result = %+v", result)
	}
	if result.RunID == "" {
		t.Error("run id must be set")
	}

	data, err := os.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("document not written: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `attribute="billing.UseOutbox"`) {
		t.Errorf("record missing from document:\n%s", out)
	}
	if !strings.Contains(out, "<class>billing.Dispatcher</class>") {
		t.Errorf("usage site missing from document:\n%s", out)
	}
	var doc struct {
		XMLName xml.Name `xml:"architecturalDecisions"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Errorf("document not well-formed: %v", err)
	}
}

func TestUnresolvedReferenceLoggedByDefault(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "billing/dispatch.go")

	parser := &fakeParser{units: map[string]*source.Unit{
		"billing/dispatch.go": usageUnit("billing/dispatch.go", "billing", "Dispatcher", "billing.DoesNotExist"),
	}}

	p := New(testConfig(tempDir), parser, quietLogger())
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("default policy must not abort: %v", err)
	}

	if result.UsageSites != 0 {
		t.Errorf("UsageSites = %d, want 0", result.UsageSites)
	}
	if len(result.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(result.Diagnostics))
	}
	if result.Diagnostics[0].Code != errors.UnresolvedReference {
		t.Errorf("diagnostic code = %q", result.Diagnostics[0].Code)
	}
}

func TestUnresolvedReferenceFatalUnderStrict(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "billing/dispatch.go")

	parser := &fakeParser{units: map[string]*source.Unit{
		"billing/dispatch.go": usageUnit("billing/dispatch.go", "billing", "Dispatcher", "billing.DoesNotExist"),
	}}

	cfg := testConfig(tempDir).Strict()
	p := New(cfg, parser, quietLogger())
	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("strict mode should abort on unresolved reference")
	}
	if errors.CodeOf(err) != errors.UnresolvedReference {
		t.Errorf("error code = %q", errors.CodeOf(err))
	}
}

func TestDuplicateIdentifierAbortsBeforeWriting(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "a/one.go", "b/two.go")

	parser := &fakeParser{units: map[string]*source.Unit{
		"a/one.go": decisionUnit("a/one.go", "billing", "UseOutbox", "2024-01-01", "accepted"),
		"b/two.go": decisionUnit("b/two.go", "billing", "UseOutbox", "2024-02-02", "draft"),
	}}

	cfg := testConfig(tempDir)
	p := New(cfg, parser, quietLogger())
	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("duplicate identifier must be fatal")
	}
	if errors.CodeOf(err) != errors.DuplicateDecision {
		t.Errorf("error code = %q", errors.CodeOf(err))
	}

	if _, statErr := os.Stat(cfg.ResolveOutputPath()); !os.IsNotExist(statErr) {
		t.Error("no document may be written on a fatal error")
	}
}

func TestRegenerationIsByteIdentical(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "billing/outbox.go", "billing/dispatch.go")

	parser := &fakeParser{units: map[string]*source.Unit{
		"billing/outbox.go":   decisionUnit("billing/outbox.go", "billing", "UseOutbox", "2024-03-01", "accepted"),
		"billing/dispatch.go": usageUnit("billing/dispatch.go", "billing", "Dispatcher", "billing.UseOutbox"),
	}}

	cfg := testConfig(tempDir)
	p := New(cfg, parser, quietLogger())

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	first, err := os.ReadFile(cfg.ResolveOutputPath())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	second, err := os.ReadFile(cfg.ResolveOutputPath())
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Error("regenerating an unchanged tree must produce an identical document")
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Policies.OnParseError = "retry"

	p := New(cfg, &fakeParser{}, quietLogger())
	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("invalid policy value must be rejected")
	}
	if errors.CodeOf(err) != errors.ConfigInvalid {
		t.Errorf("error code = %q", errors.CodeOf(err))
	}
}

func TestReportCarriesRunSummary(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "billing/outbox.go")

	parser := &fakeParser{units: map[string]*source.Unit{
		"billing/outbox.go": decisionUnit("billing/outbox.go", "billing", "UseOutbox", "2024-03-01", "accepted"),
	}}

	p := New(testConfig(tempDir), parser, quietLogger())
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	report := result.Report()
	if report.RunID != result.RunID || report.Records != 1 {
		t.Errorf("report = %+v", report)
	}

	reportPath := filepath.Join(tempDir, "report.yaml")
	if err := report.Write(reportPath); err != nil {
		t.Fatalf("report write failed: %v", err)
	}
	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "records: 1") {
		t.Errorf("report content:\n%s", data)
	}
}
