// Package gather implements the declaration gathering phase: walking the
// configured roots, parsing every supported source file, and collecting the
// declarations that satisfy the decision record contract.
package gather

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"adx/internal/config"
	"adx/internal/diag"
	"adx/internal/errors"
	"adx/internal/logging"
	"adx/internal/paths"
	"adx/internal/record"
	"adx/internal/source"
)

// UnitParser parses one source file into a Unit. Satisfied by
// source.Extractor; tests substitute a fake.
type UnitParser interface {
	Supports(path string) bool
	ParseFile(ctx context.Context, absPath, canonicalPath string) (*source.Unit, error)
}

// Result holds the gathered source units (lexicographic path order) and the
// decision registry built from them.
type Result struct {
	Units    []*source.Unit
	Registry *record.Registry

	// FilesParsed counts successfully parsed files.
	FilesParsed int
}

// Gatherer walks scan roots and builds the decision registry.
type Gatherer struct {
	cfg    *config.Config
	parser UnitParser
	logger *logging.Logger
	diags  *diag.Collector
}

// New creates a gatherer.
func New(cfg *config.Config, parser UnitParser, logger *logging.Logger, diags *diag.Collector) *Gatherer {
	return &Gatherer{cfg: cfg, parser: parser, logger: logger, diags: diags}
}

// Gather runs the gathering phase. Missing roots, duplicate identifiers,
// and policy escalations abort with a fatal error; recoverable problems
// land in the diagnostics collector.
func (g *Gatherer) Gather(ctx context.Context) (*Result, error) {
	files, err := g.listFiles()
	if err != nil {
		return nil, err
	}

	g.logger.Debug("scan file list built", logging.Fields{"files": len(files)})

	units, err := g.parseAll(ctx, files)
	if err != nil {
		return nil, err
	}

	result := &Result{Registry: record.NewRegistry()}
	for _, unit := range units {
		if unit == nil {
			continue
		}
		result.Units = append(result.Units, unit)
		result.FilesParsed++

		if err := g.fold(unit, result.Registry); err != nil {
			return nil, err
		}
	}

	g.logger.Info("gathering complete", logging.Fields{
		"files":   result.FilesParsed,
		"records": result.Registry.Len(),
	})

	return result, nil
}

// scanFile pairs the absolute path with the canonical root-relative path
// used everywhere downstream.
type scanFile struct {
	abs       string
	canonical string
}

// listFiles validates every root and collects the supported files beneath
// them in lexicographic canonical-path order.
func (g *Gatherer) listFiles() ([]scanFile, error) {
	seen := make(map[string]bool)
	var files []scanFile

	for _, root := range g.cfg.ResolveRoots() {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return nil, errors.Wrap(errors.RootMissing, "scan root is not a readable directory: "+root, err)
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != root && (strings.HasPrefix(name, ".") || g.ignored(name)) {
					return filepath.SkipDir
				}
				return nil
			}
			if !g.parser.Supports(path) {
				return nil
			}
			if fi, err := d.Info(); err == nil && g.cfg.Scan.MaxFileSizeBytes > 0 && fi.Size() > int64(g.cfg.Scan.MaxFileSizeBytes) {
				g.diags.Infof(errors.ParseFailed, paths.Canonicalize(path, g.cfg.RepoRoot), 0,
					"file exceeds maxFileSizeBytes, skipped")
				return nil
			}

			canonical := paths.Canonicalize(path, g.cfg.RepoRoot)
			if seen[canonical] {
				return nil
			}
			seen[canonical] = true
			files = append(files, scanFile{abs: path, canonical: canonical})
			return nil
		})
		if walkErr != nil {
			return nil, errors.Wrap(errors.RootMissing, "walking scan root "+root, walkErr)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].canonical < files[j].canonical })
	return files, nil
}

func (g *Gatherer) ignored(name string) bool {
	for _, ig := range g.cfg.Scan.Ignore {
		if name == ig {
			return true
		}
	}
	return false
}

// parseAll parses files in parallel. Results are stored by index so the
// fold phase sees them in path order, never completion order.
func (g *Gatherer) parseAll(ctx context.Context, files []scanFile) ([]*source.Unit, error) {
	workers := g.cfg.Scan.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	sem := semaphore.NewWeighted(int64(workers))
	units := make([]*source.Unit, len(files))
	parseErrs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, errors.Wrap(errors.InternalError, "acquiring parse slot", err)
		}

		wg.Add(1)
		go func(i int, f scanFile) {
			defer wg.Done()
			defer sem.Release(1)

			unit, err := g.parser.ParseFile(ctx, f.abs, f.canonical)
			if err != nil {
				parseErrs[i] = err
				return
			}
			units[i] = unit
		}(i, f)
	}
	wg.Wait()

	for i, err := range parseErrs {
		if err == nil {
			continue
		}
		if g.cfg.Policies.OnParseError == config.PolicyFail {
			return nil, errors.Wrap(errors.ParseFailed, "parsing "+files[i].canonical, err)
		}
		g.diags.Warnf(errors.ParseFailed, files[i].canonical, 0, "file skipped: %v", err)
	}

	return units, nil
}

// fold merges one unit's declarations into the registry.
func (g *Gatherer) fold(unit *source.Unit, registry *record.Registry) error {
	for _, msg := range unit.DirectiveErrors {
		if g.cfg.Policies.OnInvalidDeclaration == config.PolicyFail {
			return errors.New(errors.InvalidDeclaration, unit.Path+": "+msg)
		}
		g.diags.Warnf(errors.InvalidDeclaration, unit.Path, 0, "malformed directive: %s", msg)
	}

	for _, decl := range unit.Decls {
		if decl.Decision == nil {
			continue
		}

		if !decl.Kind.IsTypeLike() {
			if err := g.rejectDecl(unit, decl, "decision declared on a "+string(decl.Kind)+", only type declarations may declare decisions"); err != nil {
				return err
			}
			continue
		}
		if !decl.Decision.Complete() {
			if err := g.rejectDecl(unit, decl, "declaration missing required field(s): "+strings.Join(decl.Decision.MissingFields(), ", ")); err != nil {
				return err
			}
			continue
		}

		rec := buildRecord(decl, unit.Path)
		if err := registry.Add(rec); err != nil {
			// Ambiguous decision, always fatal.
			return err
		}

		g.logger.Debug("decision gathered", logging.Fields{
			"id":   rec.ID,
			"path": rec.Path,
		})
	}

	return nil
}

func (g *Gatherer) rejectDecl(unit *source.Unit, decl source.Decl, msg string) error {
	if g.cfg.Policies.OnInvalidDeclaration == config.PolicyFail {
		return errors.New(errors.InvalidDeclaration, unit.Path+": "+decl.FQN()+": "+msg)
	}
	g.diags.Warnf(errors.InvalidDeclaration, unit.Path, decl.Line, "%s: %s", decl.FQN(), msg)
	return nil
}

func buildRecord(decl source.Decl, path string) *record.DecisionRecord {
	d := decl.Decision

	id := d.ID
	if id == "" {
		id = decl.FQN()
	}

	meta := make([]record.MetaEntry, 0, len(d.Meta))
	for _, m := range d.Meta {
		meta = append(meta, record.MetaEntry{Name: m.Key, Value: m.Value})
	}

	return &record.DecisionRecord{
		ID:        id,
		Attribute: decl.FQN(),
		Title:     d.Title,
		Date:      d.Date,
		Status:    d.Status,
		Contents:  d.Contents,
		Meta:      meta,
		Path:      path,
		Line:      decl.Line,
	}
}
