// Package annotation holds the gene-function annotation model shared by the
// GAF and GPAD readers and writers, and the vocabularies needed to move
// records between those formats.
//
// Records are values. Code that derives one record from another goes through
// Builder, which copies every slice, so two records never share backing
// arrays.
package annotation

import (
	"time"

	"gopreprocess/internal/curie"
)

// Aspect is the GO sub-ontology of the annotated term.
type Aspect string

const (
	AspectProcess   Aspect = "P"
	AspectFunction  Aspect = "F"
	AspectComponent Aspect = "C"
)

// Subject is the annotated gene or gene product.
type Subject struct {
	ID       curie.Curie
	Taxon    curie.Curie
	Label    string
	FullName string
	Synonyms []string
	Type     string
}

// Term is the ontology class of an annotation.
type Term struct {
	ID     curie.Curie
	Taxon  curie.Curie
	Aspect Aspect
}

// Evidence is the ECO type plus the references and with/from groups that
// support the annotation. WithFrom is a disjunction ('|') of conjunctions
// (',').
type Evidence struct {
	Type       curie.Curie
	References []curie.Curie
	WithFrom   [][]curie.Curie
}

// Extension is one relation(filler) pair of an annotation extension.
type Extension struct {
	Relation string
	Filler   curie.Curie
}

// Property is one key=value annotation property (GPAD column 12).
type Property struct {
	Key   string
	Value string
}

// Record is a single gene-function annotation.
type Record struct {
	Subject          Subject
	Relation         string
	Negated          bool
	Object           Term
	InteractingTaxon curie.Curie
	Evidence         Evidence
	Date             time.Time
	ProvidedBy       string
	// Extensions is a disjunction of conjunctions.
	Extensions      [][]Extension
	Properties      []Property
	GeneProductForm curie.Curie
}

// Batch is an ordered run of records ready for a writer.
type Batch struct {
	Header  Header
	Records []Record
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.Subject.Synonyms = cloneSlice(r.Subject.Synonyms)
	out.Evidence.References = cloneSlice(r.Evidence.References)
	out.Evidence.WithFrom = cloneNested(r.Evidence.WithFrom)
	out.Extensions = cloneNested(r.Extensions)
	out.Properties = cloneSlice(r.Properties)
	return out
}

// AspectOrDefault returns the object aspect, falling back to the aspect
// implied by the relation for records read from formats without one.
func (r Record) AspectOrDefault() Aspect {
	if r.Object.Aspect != "" {
		return r.Object.Aspect
	}
	return AspectForRelation(r.Relation)
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func cloneNested[T any](s [][]T) [][]T {
	if s == nil {
		return nil
	}
	out := make([][]T, len(s))
	for i := range s {
		out[i] = cloneSlice(s[i])
	}
	return out
}
