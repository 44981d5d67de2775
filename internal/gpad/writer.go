package gpad

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/curie"
	"gopreprocess/internal/tsv"
)

// Writer renders records as GPAD rows of one version.
type Writer struct {
	w       *bufio.Writer
	version Version
	fields  []string
}

func NewWriter(w io.Writer, v Version) *Writer {
	return &Writer{w: bufio.NewWriter(w), version: v, fields: make([]string, Columns)}
}

// WriteHeader writes "!gpa-version", generator and date lines.
func (w *Writer) WriteHeader(h annotation.Header) error {
	h.Format = "gpa"
	h.Version = string(w.version)
	_, err := h.WriteTo(w.w)
	return err
}

// Write renders one record in the writer's column layout. A record without
// a date is rejected.
func (w *Writer) Write(rec annotation.Record) error {
	if err := checkText(rec); err != nil {
		return err
	}
	f := w.fields
	if w.version == Version20 {
		rel, err := annotation.RelationID(rec.Relation)
		if err != nil {
			return err
		}
		f[0] = rec.Subject.ID.String()
		f[1] = ""
		if rec.Negated {
			f[1] = "NOT"
		}
		f[2] = rel.String()
	} else {
		if _, err := annotation.RelationID(rec.Relation); err != nil {
			return err
		}
		f[0], f[1] = rec.Subject.ID.DBObject()
		f[2] = rec.Relation
		if rec.Negated {
			f[2] = "NOT|" + rec.Relation
		}
	}
	rest := f[3:]
	rest[0] = rec.Object.ID.String()
	rest[1] = curie.JoinList(rec.Evidence.References, "|")
	rest[2] = rec.Evidence.Type.String()
	rest[3] = annotation.FormatWithFrom(rec.Evidence.WithFrom)
	rest[4] = w.taxon(rec.InteractingTaxon)
	rest[5] = w.date(rec)
	rest[6] = rec.ProvidedBy
	rest[7] = annotation.FormatExtensions(rec.Extensions)
	rest[8] = annotation.FormatProperties(rec.Properties)

	if _, err := w.w.WriteString(strings.Join(f, "\t")); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) taxon(c curie.Curie) string {
	if w.version == Version20 {
		return c.String()
	}
	return annotation.WireTaxon(c)
}

func (w *Writer) date(rec annotation.Record) string {
	if w.version == Version20 {
		return rec.Date.Format(annotation.DateLayout)
	}
	return rec.Date.Format(compactDate)
}

// checkText rejects values that would not read back as written.
func checkText(rec annotation.Record) error {
	if rec.Date.IsZero() {
		return fmt.Errorf("%w: annotation date is required", tsv.ErrBadValue)
	}
	if err := tsv.CheckCell(rec.ProvidedBy); err != nil {
		return err
	}
	for _, p := range rec.Properties {
		if strings.ContainsAny(p.Key, "=|") || strings.Contains(p.Value, "|") {
			return fmt.Errorf("%w: property %q=%q", tsv.ErrBadValue, p.Key, p.Value)
		}
		if err := tsv.CheckCell(p.Key + p.Value); err != nil {
			return err
		}
	}
	return nil
}
