// Package gpi reads GPI gene product information files and builds the gene
// identity index used to resolve orthologs and cross-references.
package gpi

import (
	"fmt"
	"io"
	"strings"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/curie"
	"gopreprocess/internal/tsv"
)

type Version string

const (
	Version12 Version = "1.2"
	Version20 Version = "2.0"
)

func (v Version) columns() int {
	if v == Version20 {
		return 11
	}
	return 10
}

func ParseVersion(s string) (Version, error) {
	switch v := Version(strings.TrimSpace(s)); v {
	case Version12, Version20:
		return v, nil
	}
	return "", fmt.Errorf("%w: gpi %q", tsv.ErrUnknownVersion, s)
}

// Entry is one gene product row.
type Entry struct {
	ID       curie.Curie
	Symbol   string
	Name     string
	Synonyms []string
	Type     string
	Taxon    curie.Curie
	Xrefs    []string
}

type Options struct {
	DefaultVersion Version
}

type Reader struct {
	tr      *tsv.Reader
	opts    Options
	version Version
	verErr  error
	decided bool
	line    tsv.Line
	entry   Entry
}

func NewReader(r io.Reader, opts Options) *Reader {
	return &Reader{tr: tsv.NewReader(r, "!"), opts: opts}
}

func (r *Reader) Next() bool {
	if !r.tr.Next() {
		return false
	}
	r.line = r.tr.Line()
	r.entry = Entry{}
	if r.line.Kind != tsv.KindData {
		return true
	}
	if !r.decided {
		r.decided = true
		if v, ok := r.tr.Directive("gpi-version"); ok {
			r.version, r.verErr = ParseVersion(v)
		} else if r.opts.DefaultVersion != "" {
			r.version = r.opts.DefaultVersion
		} else {
			r.verErr = fmt.Errorf("%w: gpi", tsv.ErrUndeclaredVersion)
		}
	}
	if r.verErr != nil {
		r.line = r.line.Malformed(0, r.verErr)
		return true
	}
	e, col, err := parseRow(r.line.Fields, r.version)
	if err != nil {
		r.line = r.line.Malformed(col, err)
		return true
	}
	r.entry = e
	return true
}

func (r *Reader) Line() tsv.Line   { return r.line }
func (r *Reader) Entry() Entry     { return r.entry }
func (r *Reader) Version() Version { return r.version }
func (r *Reader) Err() error       { return r.tr.Err() }

func parseRow(f []string, v Version) (Entry, int, error) {
	var e Entry
	if err := tsv.CheckColumns(f, v.columns()); err != nil {
		return e, 0, err
	}
	var err error
	if v == Version20 {
		var id curie.Curie
		if id, err = curie.Parse(f[0]); err != nil {
			return e, 1, err
		}
		e.ID = curie.Normalize(id)
		// pad a DB column so both layouts share indexes below
		f = append([]string{""}, f...)
	} else if e.ID, err = curie.FromDBObject(f[0], f[1]); err != nil {
		return e, 2, err
	}
	e.Symbol = f[2]
	e.Name = f[3]
	e.Synonyms = tsv.SplitMulti(f[4], "|")
	e.Type = f[5]
	if e.Taxon, err = annotation.ParseTaxon(f[6]); err != nil {
		return e, v.taxonColumn(), err
	}
	e.Xrefs = normalizeXrefs(tsv.SplitMulti(f[len(f)-2], "|,"))
	return e, 0, nil
}

func (v Version) taxonColumn() int {
	if v == Version20 {
		return 6
	}
	return 7
}

// normalizeXrefs collapses doubled prefixes so MGI:MGI:1 and MGI:1 match.
func normalizeXrefs(xs []string) []string {
	for i, x := range xs {
		if c, err := curie.Parse(x); err == nil {
			xs[i] = curie.Normalize(c).String()
		}
	}
	return xs
}
