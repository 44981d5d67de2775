// Package gaf reads and writes GAF 2.1 and 2.2 gene association files.
package gaf

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/curie"
	"gopreprocess/internal/tsv"
)

// Version is a GAF format version.
type Version string

const (
	Version21 Version = "2.1"
	Version22 Version = "2.2"
)

// Columns is the column count of every supported GAF version.
const Columns = 17

const dateLayout = "20060102"

// ParseVersion validates a declared version.
func ParseVersion(s string) (Version, error) {
	switch v := Version(strings.TrimSpace(s)); v {
	case Version21, Version22:
		return v, nil
	}
	return "", fmt.Errorf("%w: gaf %q", tsv.ErrUnknownVersion, s)
}

// Options tunes a Reader.
type Options struct {
	// DefaultVersion applies when the input carries no !gaf-version header.
	DefaultVersion Version
}

// Reader yields one tagged line at a time. Data lines carry a parsed Record.
type Reader struct {
	tr      *tsv.Reader
	opts    Options
	version Version
	verErr  error
	decided bool
	line    tsv.Line
	rec     annotation.Record
}

func NewReader(r io.Reader, opts Options) *Reader {
	return &Reader{tr: tsv.NewReader(r, "!"), opts: opts}
}

// Next advances to the next line. A data line that fails to parse is
// returned as KindMalformed.
func (r *Reader) Next() bool {
	if !r.tr.Next() {
		return false
	}
	r.line = r.tr.Line()
	r.rec = annotation.Record{}
	if r.line.Kind != tsv.KindData {
		return true
	}
	r.decide()
	if r.verErr != nil {
		r.line = r.line.Malformed(0, r.verErr)
		return true
	}
	rec, col, err := parseRow(r.line.Fields, r.version)
	if err != nil {
		r.line = r.line.Malformed(col, err)
		return true
	}
	r.rec = rec
	return true
}

// decide settles the version once, on the first data line.
func (r *Reader) decide() {
	if r.decided {
		return
	}
	r.decided = true
	if v, ok := r.tr.Directive("gaf-version"); ok {
		r.version, r.verErr = ParseVersion(v)
		return
	}
	if r.opts.DefaultVersion != "" {
		r.version = r.opts.DefaultVersion
		return
	}
	r.verErr = fmt.Errorf("%w: gaf", tsv.ErrUndeclaredVersion)
}

func (r *Reader) Line() tsv.Line { return r.line }

// Record is the record of the current data line.
func (r *Reader) Record() annotation.Record { return r.rec }

// Version is the negotiated version; empty before the first data line.
func (r *Reader) Version() Version { return r.version }

func (r *Reader) Err() error { return r.tr.Err() }

func parseRow(f []string, v Version) (annotation.Record, int, error) {
	var rec annotation.Record
	if err := tsv.CheckColumns(f, Columns); err != nil {
		return rec, 0, err
	}
	var err error
	if rec.Subject.ID, err = curie.FromDBObject(f[0], f[1]); err != nil {
		return rec, 2, err
	}
	rec.Subject.Label = f[2]

	aspect := annotation.Aspect(f[8])
	switch aspect {
	case annotation.AspectProcess, annotation.AspectFunction, annotation.AspectComponent:
	default:
		return rec, 9, fmt.Errorf("%w: aspect %q", tsv.ErrBadValue, f[8])
	}
	if rec.Relation, rec.Negated, err = parseQualifier(f[3], v, aspect); err != nil {
		return rec, 4, err
	}
	if rec.Object.ID, err = curie.Parse(f[4]); err != nil {
		return rec, 5, err
	}
	rec.Object.Aspect = aspect
	if rec.Evidence.References, err = curie.ParseList(f[5], "|"); err != nil {
		return rec, 6, err
	}
	if rec.Evidence.Type, err = annotation.EvidenceFromGAF(f[6]); err != nil {
		return rec, 7, err
	}
	if rec.Evidence.WithFrom, err = annotation.ParseWithFrom(f[7]); err != nil {
		return rec, 8, err
	}
	rec.Subject.FullName = f[9]
	rec.Subject.Synonyms = tsv.SplitMulti(f[10], "|")
	rec.Subject.Type = f[11]

	taxa := strings.Split(f[12], "|")
	if len(taxa) > 2 {
		return rec, 13, fmt.Errorf("%w: taxon %q", tsv.ErrBadValue, f[12])
	}
	if rec.Subject.Taxon, err = annotation.ParseTaxon(taxa[0]); err != nil {
		return rec, 13, err
	}
	rec.Object.Taxon = rec.Subject.Taxon
	if len(taxa) == 2 {
		if rec.InteractingTaxon, err = annotation.ParseTaxon(taxa[1]); err != nil {
			return rec, 13, err
		}
	}
	if rec.Date, err = time.Parse(dateLayout, f[13]); err != nil {
		return rec, 14, fmt.Errorf("%w: date %q", tsv.ErrBadValue, f[13])
	}
	rec.ProvidedBy = f[14]
	if rec.Extensions, err = annotation.ParseExtensions(f[15]); err != nil {
		return rec, 16, err
	}
	if f[16] != "" {
		if rec.GeneProductForm, err = curie.Parse(f[16]); err != nil {
			return rec, 17, err
		}
	}
	return rec, 0, nil
}

// parseQualifier reads column 4. GAF 2.2 names the relation; GAF 2.1 only
// carries NOT, contributes_to and colocalizes_with, so the relation falls
// back to the aspect default.
func parseQualifier(s string, v Version, aspect annotation.Aspect) (string, bool, error) {
	negated := false
	relation := ""
	for _, q := range tsv.SplitMulti(s, "|") {
		if q == "NOT" {
			negated = true
			continue
		}
		if relation != "" || !annotation.KnownRelation(q) {
			return "", false, fmt.Errorf("%w: qualifier %q", tsv.ErrBadValue, s)
		}
		relation = q
	}
	if relation == "" {
		if v == Version22 {
			return "", false, fmt.Errorf("%w: gaf 2.2 qualifier %q has no relation", tsv.ErrBadValue, s)
		}
		relation = annotation.DefaultRelation(aspect)
	}
	return relation, negated, nil
}
