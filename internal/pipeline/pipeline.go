// Package pipeline runs the full generation flow: gather decision records
// from the scan roots, locate usage sites, and write the XML document.
package pipeline

import (
	"context"

	"github.com/google/uuid"

	"adx/internal/config"
	"adx/internal/diag"
	"adx/internal/errors"
	"adx/internal/export"
	"adx/internal/gather"
	"adx/internal/locate"
	"adx/internal/logging"
	"adx/internal/source"
)

// Result summarizes one pipeline run.
type Result struct {
	RunID       string
	Records     int
	UsageSites  int
	FilesParsed int
	OutputPath  string
	Diagnostics []diag.Diagnostic
}

// Report converts the result into a writable run report.
func (r *Result) Report() *diag.Report {
	return diag.NewReport(r.RunID, r.Records, r.UsageSites, r.FilesParsed, r.Diagnostics)
}

// Pipeline wires the gather, locate, and export phases together.
type Pipeline struct {
	cfg    *config.Config
	parser gather.UnitParser
	logger *logging.Logger
}

// New creates a pipeline with an explicit parser.
func New(cfg *config.Config, parser gather.UnitParser, logger *logging.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, parser: parser, logger: logger}
}

// NewDefault creates a pipeline backed by the tree-sitter extractor,
// honoring any marker overrides configured under the repo root.
func NewDefault(cfg *config.Config, logger *logging.Logger) (*Pipeline, error) {
	if !source.IsAvailable() {
		return nil, errors.New(errors.ParserUnavailable, "this build has no source parsing support (compiled without cgo)")
	}
	markers, err := config.LoadMarkers(cfg.RepoRoot)
	if err != nil {
		return nil, err
	}
	return New(cfg, source.NewExtractor(markers), logger), nil
}

// Run executes the pipeline. Recoverable problems surface as diagnostics
// on the result; fatal ones abort before the document is touched.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	diags := diag.NewCollector()

	p.logger.Info("starting generation", logging.Fields{
		"runId": runID,
		"roots": p.cfg.Scan.Roots,
	})

	gathered, err := gather.New(p.cfg, p.parser, p.logger, diags).Gather(ctx)
	if err != nil {
		return nil, err
	}

	usages, err := locate.New(p.cfg, p.logger, diags).Locate(gathered.Units, gathered.Registry)
	if err != nil {
		return nil, err
	}

	records := gathered.Registry.Records()
	outputPath := p.cfg.ResolveOutputPath()

	gen := export.New(export.Options{
		Namespace: p.cfg.Output.Namespace,
		Timestamp: p.cfg.Output.Timestamp,
	})
	if err := gen.Write(outputPath, records); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:       runID,
		Records:     len(records),
		UsageSites:  usages,
		FilesParsed: gathered.FilesParsed,
		OutputPath:  outputPath,
		Diagnostics: diags.Items(),
	}

	p.logger.Info("generation complete", logging.Fields{
		"runId":       runID,
		"records":     result.Records,
		"usageSites":  result.UsageSites,
		"filesParsed": result.FilesParsed,
		"output":      outputPath,
	})
	return result, nil
}
