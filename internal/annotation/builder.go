package annotation

import "gopreprocess/internal/curie"

// Builder derives a new Record from an existing one plus explicit overrides.
// The source record is never touched.
type Builder struct {
	rec Record
}

// From starts a builder over a deep copy of r.
func From(r Record) *Builder {
	return &Builder{rec: r.Clone()}
}

// SubjectID replaces the subject identifier.
func (b *Builder) SubjectID(id curie.Curie) *Builder {
	b.rec.Subject.ID = id
	return b
}

// ClearSubjectDetails drops the label, full name and synonyms, which describe
// the old subject and are unknown for the new one.
func (b *Builder) ClearSubjectDetails() *Builder {
	b.rec.Subject.Label = ""
	b.rec.Subject.FullName = ""
	b.rec.Subject.Synonyms = nil
	return b
}

// ClearSynonyms drops only the subject synonyms.
func (b *Builder) ClearSynonyms() *Builder {
	b.rec.Subject.Synonyms = nil
	return b
}

func (b *Builder) SubjectTaxon(taxon curie.Curie) *Builder {
	b.rec.Subject.Taxon = taxon
	return b
}

func (b *Builder) ObjectTaxon(taxon curie.Curie) *Builder {
	b.rec.Object.Taxon = taxon
	return b
}

func (b *Builder) EvidenceType(eco curie.Curie) *Builder {
	b.rec.Evidence.Type = eco
	return b
}

// References replaces the supporting references.
func (b *Builder) References(refs ...curie.Curie) *Builder {
	b.rec.Evidence.References = cloneSlice(refs)
	return b
}

func (b *Builder) ProvidedBy(authority string) *Builder {
	b.rec.ProvidedBy = authority
	return b
}

func (b *Builder) GeneProductForm(id curie.Curie) *Builder {
	b.rec.GeneProductForm = id
	return b
}

// Build returns the record. The builder may keep being used afterwards
// without affecting records it already returned.
func (b *Builder) Build() Record {
	return b.rec.Clone()
}
