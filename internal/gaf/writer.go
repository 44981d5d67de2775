package gaf

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/curie"
	"gopreprocess/internal/tsv"
)

// Writer renders records as GAF rows of one version.
type Writer struct {
	w       *bufio.Writer
	version Version
	fields  []string
}

func NewWriter(w io.Writer, v Version) *Writer {
	return &Writer{w: bufio.NewWriter(w), version: v, fields: make([]string, Columns)}
}

// WriteHeader writes the version, generator and date lines. Format and
// Version in h are taken from the writer.
func (w *Writer) WriteHeader(h annotation.Header) error {
	h.Format = "gaf"
	h.Version = string(w.version)
	_, err := h.WriteTo(w.w)
	return err
}

// Write renders one record. Records that cannot be expressed in GAF, such
// as an ECO class without a GAF code or a missing date, are rejected
// without writing.
func (w *Writer) Write(rec annotation.Record) error {
	if err := checkText(rec); err != nil {
		return err
	}
	f := w.fields
	f[0], f[1] = rec.Subject.ID.DBObject()
	f[2] = rec.Subject.Label
	f[3] = w.qualifier(rec)
	f[4] = rec.Object.ID.String()
	f[5] = curie.JoinList(rec.Evidence.References, "|")
	code, err := annotation.EvidenceToGAF(rec.Evidence.Type)
	if err != nil {
		return err
	}
	f[6] = code
	f[7] = annotation.FormatWithFrom(rec.Evidence.WithFrom)
	aspect := rec.AspectOrDefault()
	if aspect == "" {
		return fmt.Errorf("%w: no aspect for relation %q", tsv.ErrBadValue, rec.Relation)
	}
	f[8] = string(aspect)
	f[9] = rec.Subject.FullName
	f[10] = strings.Join(rec.Subject.Synonyms, "|")
	f[11] = rec.Subject.Type
	f[12] = taxonCell(rec)
	f[13] = rec.Date.Format(dateLayout)
	f[14] = rec.ProvidedBy
	f[15] = annotation.FormatExtensions(rec.Extensions)
	f[16] = rec.GeneProductForm.String()

	if _, err := w.w.WriteString(strings.Join(f, "\t")); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) qualifier(rec annotation.Record) string {
	var parts []string
	if rec.Negated {
		parts = append(parts, "NOT")
	}
	switch {
	case w.version == Version22:
		parts = append(parts, rec.Relation)
	case rec.Relation == "contributes_to", rec.Relation == "colocalizes_with":
		parts = append(parts, rec.Relation)
	}
	return strings.Join(parts, "|")
}

// checkText rejects free-text values that would not read back as written.
func checkText(rec annotation.Record) error {
	if rec.Date.IsZero() {
		return fmt.Errorf("%w: annotation date is required", tsv.ErrBadValue)
	}
	for _, s := range []string{rec.Subject.Label, rec.Subject.FullName, rec.Subject.Type, rec.ProvidedBy} {
		if err := tsv.CheckCell(s); err != nil {
			return err
		}
	}
	return tsv.CheckItems(rec.Subject.Synonyms, "|")
}

func taxonCell(rec annotation.Record) string {
	taxon := rec.Subject.Taxon
	if taxon.IsZero() {
		taxon = rec.Object.Taxon
	}
	cell := annotation.WireTaxon(taxon)
	if !rec.InteractingTaxon.IsZero() {
		cell += "|" + annotation.WireTaxon(rec.InteractingTaxon)
	}
	return cell
}
