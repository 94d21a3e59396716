// Package locate implements the usage cross-referencing phase: resolving
// every usage directive in the parsed source units against the gathered
// decision registry.
package locate

import (
	"adx/internal/config"
	"adx/internal/diag"
	"adx/internal/errors"
	"adx/internal/logging"
	"adx/internal/record"
	"adx/internal/source"
)

// Locator resolves usage directives into usage sites.
type Locator struct {
	cfg    *config.Config
	logger *logging.Logger
	diags  *diag.Collector
}

// New creates a locator.
func New(cfg *config.Config, logger *logging.Logger, diags *diag.Collector) *Locator {
	return &Locator{cfg: cfg, logger: logger, diags: diags}
}

// Locate walks units in discovery order and appends usage sites to the
// matching records. A record's own declaration never counts as a usage of
// itself; unresolved references follow the configured policy.
func (l *Locator) Locate(units []*source.Unit, registry *record.Registry) (int, error) {
	total := 0

	for _, unit := range units {
		for _, decl := range unit.Decls {
			for _, use := range decl.Uses {
				rec, ok := registry.Resolve(use.Target)
				if !ok {
					if err := l.unresolved(unit, use); err != nil {
						return total, err
					}
					continue
				}

				// Declaring scope referencing its own record: usage means
				// "referenced elsewhere", not "declared".
				if decl.FQN() == rec.Attribute {
					continue
				}

				rec.AddUsage(record.UsageSite{Scope: decl.FQN(), Path: unit.Path})
				total++
			}
		}
	}

	l.logger.Info("usage location complete", logging.Fields{"usages": total})
	return total, nil
}

func (l *Locator) unresolved(unit *source.Unit, use source.UseDirective) error {
	switch l.cfg.Policies.OnUnresolvedReference {
	case config.PolicyFail:
		return errors.New(errors.UnresolvedReference,
			unit.Path+": reference to unknown decision '"+use.Target+"'")
	case config.PolicyIgnore:
		return nil
	default:
		l.diags.Warnf(errors.UnresolvedReference, unit.Path, use.Line,
			"reference to unknown decision '%s'", use.Target)
		return nil
	}
}
