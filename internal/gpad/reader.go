// Package gpad reads and writes GPAD 1.2 and 2.0 gene product association
// files. Both versions share the annotation model, so converting between
// them is a read with one version and a write with the other.
package gpad

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/curie"
	"gopreprocess/internal/tsv"
)

// Version is a GPAD format version.
type Version string

const (
	Version12 Version = "1.2"
	Version20 Version = "2.0"
)

// Columns is the column count of both supported versions.
const Columns = 12

const compactDate = "20060102"

// ParseVersion validates a declared version.
func ParseVersion(s string) (Version, error) {
	switch v := Version(strings.TrimSpace(s)); v {
	case Version12, Version20:
		return v, nil
	}
	return "", fmt.Errorf("%w: gpad %q", tsv.ErrUnknownVersion, s)
}

// Options tunes a Reader.
type Options struct {
	// DefaultVersion applies when the input declares no version.
	DefaultVersion Version
}

// Reader yields tagged lines; data lines carry a parsed Record.
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
	var (
		rec annotation.Record
		col int
		err error
	)
	if r.version == Version20 {
		rec, col, err = parseRow20(r.line.Fields)
	} else {
		rec, col, err = parseRow12(r.line.Fields)
	}
	if err != nil {
		r.line = r.line.Malformed(col, err)
		return true
	}
	r.rec = rec
	return true
}

func (r *Reader) decide() {
	if r.decided {
		return
	}
	r.decided = true
	for _, key := range []string{"gpa-version", "gpad-version"} {
		if v, ok := r.tr.Directive(key); ok {
			r.version, r.verErr = ParseVersion(v)
			return
		}
	}
	if r.opts.DefaultVersion != "" {
		r.version = r.opts.DefaultVersion
		return
	}
	r.verErr = fmt.Errorf("%w: gpad", tsv.ErrUndeclaredVersion)
}

func (r *Reader) Line() tsv.Line            { return r.line }
func (r *Reader) Record() annotation.Record { return r.rec }
func (r *Reader) Version() Version          { return r.version }
func (r *Reader) Err() error                { return r.tr.Err() }

func parseRow12(f []string) (annotation.Record, int, error) {
	var rec annotation.Record
	if err := tsv.CheckColumns(f, Columns); err != nil {
		return rec, 0, err
	}
	var err error
	if rec.Subject.ID, err = curie.FromDBObject(f[0], f[1]); err != nil {
		return rec, 2, err
	}
	for _, q := range tsv.SplitMulti(f[2], "|") {
		switch {
		case q == "NOT":
			rec.Negated = true
		case rec.Relation == "" && annotation.KnownRelation(q):
			rec.Relation = q
		default:
			return rec, 3, fmt.Errorf("%w: qualifier %q", tsv.ErrBadValue, f[2])
		}
	}
	if rec.Relation == "" {
		return rec, 3, fmt.Errorf("%w: qualifier %q has no relation", tsv.ErrBadValue, f[2])
	}
	if col, err := parseShared(&rec, f[3:8]); err != nil {
		return rec, col + 3, err
	}
	if f[7] != "" {
		if rec.InteractingTaxon, err = annotation.ParseTaxon(f[7]); err != nil {
			return rec, 8, err
		}
	}
	if rec.Date, err = time.Parse(compactDate, f[8]); err != nil {
		return rec, 9, fmt.Errorf("%w: date %q", tsv.ErrBadValue, f[8])
	}
	if col, err := parseTail(&rec, f[9:]); err != nil {
		return rec, col + 9, err
	}
	return rec, 0, nil
}

func parseRow20(f []string) (annotation.Record, int, error) {
	var rec annotation.Record
	if err := tsv.CheckColumns(f, Columns); err != nil {
		return rec, 0, err
	}
	id, err := curie.Parse(f[0])
	if err != nil {
		return rec, 1, err
	}
	rec.Subject.ID = curie.Normalize(id)
	switch f[1] {
	case "":
	case "NOT":
		rec.Negated = true
	default:
		return rec, 2, fmt.Errorf("%w: negation %q", tsv.ErrBadValue, f[1])
	}
	rel, err := curie.Parse(f[2])
	if err != nil {
		return rec, 3, err
	}
	if rec.Relation, err = annotation.RelationLabel(rel); err != nil {
		return rec, 3, err
	}
	if col, err := parseShared(&rec, f[3:8]); err != nil {
		return rec, col + 3, err
	}
	if f[7] != "" {
		if rec.InteractingTaxon, err = annotation.ParseTaxon(f[7]); err != nil {
			return rec, 8, err
		}
	}
	date := f[8]
	if len(date) > len(annotation.DateLayout) {
		// keep the day of a full timestamp
		date = date[:len(annotation.DateLayout)]
	}
	if rec.Date, err = time.Parse(annotation.DateLayout, date); err != nil {
		return rec, 9, fmt.Errorf("%w: date %q", tsv.ErrBadValue, f[8])
	}
	if col, err := parseTail(&rec, f[9:]); err != nil {
		return rec, col + 9, err
	}
	return rec, 0, nil
}

// parseShared reads term, reference, evidence and with/from, which sit in
// the same columns in both versions. The returned column is 1-based within f.
func parseShared(rec *annotation.Record, f []string) (int, error) {
	var err error
	if rec.Object.ID, err = curie.Parse(f[0]); err != nil {
		return 1, err
	}
	rec.Object.Aspect = annotation.AspectForRelation(rec.Relation)
	if rec.Evidence.References, err = curie.ParseList(f[1], "|"); err != nil {
		return 2, err
	}
	if rec.Evidence.Type, err = curie.Parse(f[2]); err != nil {
		return 3, err
	}
	if rec.Evidence.WithFrom, err = annotation.ParseWithFrom(f[3]); err != nil {
		return 4, err
	}
	return 0, nil
}

// parseTail reads assigned-by, extensions and properties.
func parseTail(rec *annotation.Record, f []string) (int, error) {
	rec.ProvidedBy = f[0]
	var err error
	if rec.Extensions, err = annotation.ParseExtensions(f[1]); err != nil {
		return 2, err
	}
	rec.Properties = annotation.ParseProperties(f[2])
	return 0, nil
}
