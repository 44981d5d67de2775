package gpi

import (
	"io"
	"sort"

	"gopreprocess/internal/curie"
	"gopreprocess/internal/tsv"
)

// Index maps gene identifiers to the set of cross-references recorded for
// them. It is read-only once built and safe for concurrent readers.
type Index struct {
	xrefs  map[curie.Curie]map[string]struct{}
	byXref map[string][]curie.Curie
	rows   int
}

// IndexBuilder accumulates entries for a single Index. It is not safe for
// concurrent use and must not be used after Build.
type IndexBuilder struct {
	xrefs map[curie.Curie]map[string]struct{}
	rows  int
	built bool
}

func NewIndexBuilder() *IndexBuilder {
	return &IndexBuilder{xrefs: make(map[curie.Curie]map[string]struct{})}
}

// Add unions the entry's cross-references into the set keyed by its id.
// A gene without cross-references is still a key.
func (b *IndexBuilder) Add(e Entry) {
	if b.built {
		panic("gpi: IndexBuilder.Add after Build")
	}
	b.rows++
	set, ok := b.xrefs[e.ID]
	if !ok {
		set = make(map[string]struct{}, len(e.Xrefs))
		b.xrefs[e.ID] = set
	}
	for _, x := range e.Xrefs {
		set[x] = struct{}{}
	}
}

// Build freezes the builder into an Index.
func (b *IndexBuilder) Build() *Index {
	b.built = true
	byXref := make(map[string][]curie.Curie)
	for gene, set := range b.xrefs {
		for x := range set {
			byXref[x] = append(byXref[x], gene)
		}
	}
	for _, genes := range byXref {
		sortCuries(genes)
	}
	return &Index{xrefs: b.xrefs, byXref: byXref, rows: b.rows}
}

// Len is the number of genes in the index.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.xrefs)
}

// Rows is the number of entries added, counting repeated genes once per row.
func (ix *Index) Rows() int {
	if ix == nil {
		return 0
	}
	return ix.rows
}

// Has reports whether gene is a key of the index.
func (ix *Index) Has(gene curie.Curie) bool {
	if ix == nil {
		return false
	}
	_, ok := ix.xrefs[gene]
	return ok
}

// Xrefs returns the sorted cross-references of gene.
func (ix *Index) Xrefs(gene curie.Curie) []string {
	if ix == nil {
		return nil
	}
	set := ix.xrefs[gene]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for x := range set {
		out = append(out, x)
	}
	sort.Strings(out)
	return out
}

// HasXref reports whether xref is recorded for gene.
func (ix *Index) HasXref(gene curie.Curie, xref string) bool {
	if ix == nil {
		return false
	}
	_, ok := ix.xrefs[gene][xref]
	return ok
}

// GenesForXref returns every gene listing xref, sorted. More than one gene
// means the cross-reference is ambiguous.
func (ix *Index) GenesForXref(xref string) []curie.Curie {
	if ix == nil {
		return nil
	}
	genes := ix.byXref[xref]
	out := make([]curie.Curie, len(genes))
	copy(out, genes)
	return out
}

// ReadIndex builds an Index from a GPI stream. Malformed lines go to
// onMalformed; a non-nil return from it aborts the read.
func ReadIndex(r io.Reader, opts Options, onMalformed func(tsv.Line) error) (*Index, error) {
	b := NewIndexBuilder()
	rd := NewReader(r, opts)
	for rd.Next() {
		switch l := rd.Line(); l.Kind {
		case tsv.KindData:
			b.Add(rd.Entry())
		case tsv.KindMalformed:
			if onMalformed != nil {
				if err := onMalformed(l); err != nil {
					return nil, err
				}
			}
		case tsv.KindHeader:
		}
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

func sortCuries(cs []curie.Curie) {
	sort.Slice(cs, func(i, j int) bool {
		return cs[i].String() < cs[j].String()
	})
}
