// Package export serializes the enriched decision records into the
// architectural-decisions XML document.
package export

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"time"

	"adx/internal/errors"
	"adx/internal/record"
)

// Options controls document generation.
type Options struct {
	// Namespace is the document's xmlns value.
	Namespace string

	// Timestamp embeds a generation timestamp attribute. Off by default
	// so unchanged trees produce byte-identical documents.
	Timestamp bool
}

// Generator serializes decision records.
type Generator struct {
	opts Options
	now  func() time.Time
}

// New creates a generator.
func New(opts Options) *Generator {
	return &Generator{opts: opts, now: time.Now}
}

// xmlDocument is the document root.
type xmlDocument struct {
	XMLName   xml.Name      `xml:"architecturalDecisions"`
	Namespace string        `xml:"xmlns,attr"`
	Generated string        `xml:"generated,attr,omitempty"`
	Decisions []xmlDecision `xml:"architecturalDecision"`
}

// xmlDecision is one decision record. Identifier, status and date are
// attribute/element text and get the encoder's normal escaping; contents is
// free-form prose and goes out as CDATA.
type xmlDecision struct {
	ID        string             `xml:"id,attr"`
	Attribute string             `xml:"attribute,attr"`
	Title     string             `xml:"title,attr,omitempty"`
	Date      string             `xml:"date"`
	Status    string             `xml:"status"`
	Contents  xmlContents        `xml:"contents"`
	Usages    xmlCodeAnnotations `xml:"codeAnnotations"`
	Meta      xmlMeta            `xml:"meta"`
}

type xmlContents struct {
	Text string `xml:",cdata"`
}

// xmlCodeAnnotations is always emitted, empty when a record has no usages.
type xmlCodeAnnotations struct {
	Annotations []xmlCodeAnnotation `xml:"codeAnnotation"`
}

type xmlCodeAnnotation struct {
	Class string `xml:"class"`
	File  string `xml:"file,omitempty"`
}

// xmlMeta carries the author-extensible metadata region. Entries serialize
// as nested <entry name="...">value</entry> elements under author control.
type xmlMeta struct {
	Entries []record.MetaEntry
}

// MarshalXML emits the meta region, always present even when empty.
func (m xmlMeta) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := encodeEntries(e, m.Entries); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

func encodeEntries(e *xml.Encoder, entries []record.MetaEntry) error {
	for _, entry := range entries {
		se := xml.StartElement{
			Name: xml.Name{Local: "entry"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: entry.Name}},
		}
		if err := e.EncodeToken(se); err != nil {
			return err
		}
		if entry.Value != "" {
			if err := e.EncodeToken(xml.CharData(entry.Value)); err != nil {
				return err
			}
		}
		if err := encodeEntries(e, entry.Children); err != nil {
			return err
		}
		if err := e.EncodeToken(se.End()); err != nil {
			return err
		}
	}
	return nil
}

// Marshal serializes records in the order given. Record order and usage
// order are the caller's discovery order; nothing is re-sorted here.
func (g *Generator) Marshal(records []*record.DecisionRecord) ([]byte, error) {
	doc := xmlDocument{
		Namespace: g.opts.Namespace,
		Decisions: make([]xmlDecision, 0, len(records)),
	}
	if g.opts.Timestamp {
		doc.Generated = g.now().UTC().Format(time.RFC3339)
	}

	for _, rec := range records {
		d := xmlDecision{
			ID:        rec.ID,
			Attribute: rec.Attribute,
			Title:     rec.Title,
			Date:      rec.Date,
			Status:    rec.Status,
			Contents:  xmlContents{Text: rec.Contents},
			Meta:      xmlMeta{Entries: rec.Meta},
		}
		for _, u := range rec.Usages {
			d.Usages.Annotations = append(d.Usages.Annotations, xmlCodeAnnotation{
				Class: u.Scope,
				File:  u.Path,
			})
		}
		doc.Decisions = append(doc.Decisions, d)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.WriteFailed, "marshaling document", err)
	}

	out := make([]byte, 0, len(xml.Header)+len(data)+1)
	out = append(out, []byte(xml.Header)...)
	out = append(out, data...)
	out = append(out, '\n')
	return out, nil
}

// Write marshals and writes the document atomically: a temporary file is
// renamed over the destination so a failed run never leaves a partial
// document where a valid one existed.
func (g *Generator) Write(path string, records []*record.DecisionRecord) error {
	data, err := g.Marshal(records)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.WriteFailed, "creating output directory", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return errors.Wrap(errors.WriteFailed, "writing "+tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(errors.WriteFailed, "replacing "+path, err)
	}

	return nil
}
