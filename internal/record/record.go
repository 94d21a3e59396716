// Package record defines the decision record domain model: the records
// gathered from annotated declarations, the usage sites that reference them,
// and the ordered registry that enforces identifier uniqueness.
package record

import (
	"adx/internal/errors"
)

// DecisionRecord represents one gathered architectural decision.
// Identity fields are set once during gathering and never mutated; only the
// usage list grows during the locate phase.
type DecisionRecord struct {
	// ID is the unique identifier, either author-supplied or derived from
	// the fully-qualified name of the declaring type.
	ID string `json:"id"`

	// Attribute is the fully-qualified name of the declaring type.
	Attribute string `json:"attribute"`

	// Title is an optional human-readable title.
	Title string `json:"title,omitempty"`

	// Date is the author-supplied date, treated as opaque display text.
	Date string `json:"date"`

	// Status is the author-supplied status, treated as opaque display text.
	Status string `json:"status"`

	// Contents is the rationale text. May be empty; an empty string is a
	// valid decision body.
	Contents string `json:"contents"`

	// Meta holds the author-extensible metadata entries in declaration order.
	Meta []MetaEntry `json:"meta,omitempty"`

	// Path is the canonical path of the declaring source file.
	Path string `json:"path"`

	// Line is the declaration line, used for diagnostics only.
	Line int `json:"line,omitempty"`

	// Usages are the resolved usage sites in discovery order.
	Usages []UsageSite `json:"usages"`
}

// AddUsage appends a usage site. The locate phase is the only caller.
func (r *DecisionRecord) AddUsage(u UsageSite) {
	r.Usages = append(r.Usages, u)
}

// UsageSite is one code location annotated with a decision reference.
type UsageSite struct {
	// Scope is the fully-qualified name of the declaration the reference
	// annotation was applied to.
	Scope string `json:"scope"`

	// Path is the canonical path of the referencing source file.
	Path string `json:"path"`
}

// MetaEntry is one author-controlled name/value structure serialized into
// the record's meta region. Entries may nest.
type MetaEntry struct {
	Name     string      `json:"name"`
	Value    string      `json:"value,omitempty"`
	Children []MetaEntry `json:"children,omitempty"`
}

// Registry holds gathered records keyed by identifier while preserving
// discovery order.
type Registry struct {
	byID  map[string]*DecisionRecord
	byFQN map[string]*DecisionRecord
	order []*DecisionRecord
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:  make(map[string]*DecisionRecord),
		byFQN: make(map[string]*DecisionRecord),
	}
}

// Add registers a record. Two declarations yielding the same identifier is
// an ambiguous decision and returns a fatal DuplicateDecision error.
func (reg *Registry) Add(r *DecisionRecord) error {
	if prev, ok := reg.byID[r.ID]; ok {
		return errors.New(errors.DuplicateDecision,
			"duplicate decision identifier '"+r.ID+"' declared by "+prev.Attribute+" and "+r.Attribute)
	}
	reg.byID[r.ID] = r
	if r.Attribute != "" {
		reg.byFQN[r.Attribute] = r
	}
	reg.order = append(reg.order, r)
	return nil
}

// Resolve looks up a record by identifier, falling back to the
// fully-qualified declaration name.
func (reg *Registry) Resolve(name string) (*DecisionRecord, bool) {
	if r, ok := reg.byID[name]; ok {
		return r, true
	}
	if r, ok := reg.byFQN[name]; ok {
		return r, true
	}
	return nil, false
}

// Records returns all records in discovery order.
func (reg *Registry) Records() []*DecisionRecord {
	return reg.order
}

// Len returns the number of registered records.
func (reg *Registry) Len() int {
	return len(reg.order)
}
