// Package ortho reads Alliance combined orthology files and resolves
// ortholog pairs into a source-gene to target-gene mapping.
package ortho

import (
	"fmt"
	"io"
	"strings"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/curie"
	"gopreprocess/internal/tsv"
)

// Columns of the combined orthology TSV: Gene1ID, Gene1Symbol,
// Gene1SpeciesTaxonID, Gene1SpeciesName, Gene2ID, Gene2Symbol,
// Gene2SpeciesTaxonID, Gene2SpeciesName, Algorithms, AlgorithmsMatch,
// OutOfAlgorithms, IsBestScore, IsBestRevScore.
const Columns = 13

// Relationship grades an ortholog call by the best-score flags.
type Relationship string

const (
	Candidate   Relationship = "candidate"
	BestForward Relationship = "best_forward"
	BestReverse Relationship = "best_reverse"
	BestMutual  Relationship = "best_mutual"
)

// ParseRelationship validates a relationship name. Empty means Candidate.
func ParseRelationship(s string) (Relationship, error) {
	switch r := Relationship(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return Candidate, nil
	case Candidate, BestForward, BestReverse, BestMutual:
		return r, nil
	}
	return "", fmt.Errorf("unknown ortholog relationship %q", s)
}

func (r Relationship) rank() int {
	switch r {
	case BestMutual:
		return 2
	case BestForward, BestReverse:
		return 1
	}
	return 0
}

// AtLeast reports whether r is as strong as min.
func (r Relationship) AtLeast(min Relationship) bool {
	return r.rank() >= min.rank()
}

func (r Relationship) flip() Relationship {
	switch r {
	case BestForward:
		return BestReverse
	case BestReverse:
		return BestForward
	}
	return r
}

// Pair is one row of the orthology file, unoriented.
type Pair struct {
	Gene1, Gene2   curie.Curie
	Taxon1, Taxon2 curie.Curie
	Relationship   Relationship
}

// Record is an ortholog pair oriented from a source taxon to a target taxon.
type Record struct {
	Source       curie.Curie
	Target       curie.Curie
	Relationship Relationship
}

// Orient returns the pair as a source->target record when it links the two
// taxa in either direction.
func (p Pair) Orient(source, target curie.Curie) (Record, bool) {
	switch {
	case p.Taxon1 == source && p.Taxon2 == target:
		return Record{Source: p.Gene1, Target: p.Gene2, Relationship: p.Relationship}, true
	case p.Taxon2 == source && p.Taxon1 == target:
		return Record{Source: p.Gene2, Target: p.Gene1, Relationship: p.Relationship.flip()}, true
	}
	return Record{}, false
}

// Reader yields tagged lines; data lines carry a Pair. The Gene1ID title
// row is reported as a header.
type Reader struct {
	tr   *tsv.Reader
	line tsv.Line
	pair Pair
}

func NewReader(r io.Reader) *Reader {
	tr := tsv.NewReader(r, "#")
	tr.HeaderFunc(func(f []string) bool { return f[0] == "Gene1ID" })
	return &Reader{tr: tr}
}

func (r *Reader) Next() bool {
	if !r.tr.Next() {
		return false
	}
	r.line = r.tr.Line()
	r.pair = Pair{}
	if r.line.Kind != tsv.KindData {
		return true
	}
	p, col, err := parseRow(r.line.Fields)
	if err != nil {
		r.line = r.line.Malformed(col, err)
		return true
	}
	r.pair = p
	return true
}

func (r *Reader) Line() tsv.Line { return r.line }
func (r *Reader) Pair() Pair     { return r.pair }
func (r *Reader) Err() error     { return r.tr.Err() }

func parseRow(f []string) (Pair, int, error) {
	var p Pair
	if err := tsv.CheckColumns(f, Columns); err != nil {
		return p, 0, err
	}
	var err error
	if p.Gene1, err = curie.Parse(f[0]); err != nil {
		return p, 1, err
	}
	if p.Taxon1, err = annotation.ParseTaxon(f[2]); err != nil {
		return p, 3, err
	}
	if p.Gene2, err = curie.Parse(f[4]); err != nil {
		return p, 5, err
	}
	if p.Taxon2, err = annotation.ParseTaxon(f[6]); err != nil {
		return p, 7, err
	}
	p.Gene1, p.Gene2 = curie.Normalize(p.Gene1), curie.Normalize(p.Gene2)

	best, err := yes(f[11])
	if err != nil {
		return p, 12, err
	}
	rev, err := yes(f[12])
	if err != nil {
		return p, 13, err
	}
	switch {
	case best && rev:
		p.Relationship = BestMutual
	case best:
		p.Relationship = BestForward
	case rev:
		p.Relationship = BestReverse
	default:
		p.Relationship = Candidate
	}
	return p, 0, nil
}

func yes(s string) (bool, error) {
	switch {
	case strings.HasPrefix(s, "Yes"):
		return true, nil
	case s == "No", s == "":
		return false, nil
	}
	return false, fmt.Errorf("%w: best-score flag %q", tsv.ErrBadValue, s)
}
