package rewrite

import (
	"gopreprocess/internal/annotation"
	"gopreprocess/internal/curie"
	"gopreprocess/internal/gpi"
	"gopreprocess/internal/ortho"
)

// Rewriter maps a record to its replacement. A false result means the
// record is unconvertible; that is an expected outcome, not an error.
type Rewriter interface {
	Rewrite(rec annotation.Record) (annotation.Record, bool)
}

// OrthologConfig holds the fixed values stamped on ortholog transfers.
type OrthologConfig struct {
	TargetTaxon    curie.Curie
	OrthoReference curie.Curie
	Provenance     ProvenancePolicy
}

// Ortholog transfers annotations along an ortholog mapping.
type Ortholog struct {
	mapping ortho.Mapping
	cfg     OrthologConfig
}

func NewOrtholog(mapping ortho.Mapping, cfg OrthologConfig) *Ortholog {
	if cfg.Provenance == nil {
		cfg.Provenance = KeepProvenance{}
	}
	return &Ortholog{mapping: mapping, cfg: cfg}
}

// Rewrite moves rec onto the ortholog of its subject. The new record
// carries the target gene and taxon, ISO evidence, the ortho reference and
// the policy's authority; subject label, full name and synonyms are cleared.
func (o *Ortholog) Rewrite(rec annotation.Record) (annotation.Record, bool) {
	target, ok := o.mapping.Lookup(rec.Subject.ID)
	if !ok {
		return annotation.Record{}, false
	}
	return annotation.From(rec).
		SubjectID(target).
		ClearSubjectDetails().
		SubjectTaxon(o.cfg.TargetTaxon).
		ObjectTaxon(o.cfg.TargetTaxon).
		EvidenceType(annotation.ISOEvidence).
		References(o.cfg.OrthoReference).
		ProvidedBy(o.cfg.Provenance.Apply(rec.ProvidedBy)).
		Build(), true
}

// ProteinToGeneConfig configures ProteinToGene.
type ProteinToGeneConfig struct {
	TargetTaxon curie.Curie
	Provenance  ProvenancePolicy
	// Isoform keeps the source protein as the gene product form.
	Isoform bool
}

// ProteinToGene reassigns protein annotations to the gene whose GPI row
// lists the protein as a cross-reference.
type ProteinToGene struct {
	index *gpi.Index
	cfg   ProteinToGeneConfig
}

func NewProteinToGene(index *gpi.Index, cfg ProteinToGeneConfig) *ProteinToGene {
	if cfg.Provenance == nil {
		cfg.Provenance = KeepProvenance{}
	}
	return &ProteinToGene{index: index, cfg: cfg}
}

// Rewrite resolves the subject through the index's cross-references. A
// protein listed by no gene, or by more than one, is unconvertible.
func (p *ProteinToGene) Rewrite(rec annotation.Record) (annotation.Record, bool) {
	genes := p.index.GenesForXref(rec.Subject.ID.String())
	if len(genes) != 1 {
		return annotation.Record{}, false
	}
	form := curie.Curie{}
	if p.cfg.Isoform {
		form = rec.GeneProductForm
		if form.IsZero() {
			form = rec.Subject.ID
		}
	}
	return annotation.From(rec).
		SubjectID(genes[0]).
		ClearSynonyms().
		SubjectTaxon(p.cfg.TargetTaxon).
		ObjectTaxon(p.cfg.TargetTaxon).
		GeneProductForm(form).
		ProvidedBy(p.cfg.Provenance.Apply(rec.ProvidedBy)).
		Build(), true
}
