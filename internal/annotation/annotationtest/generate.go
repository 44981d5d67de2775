// Package annotationtest builds annotation records for writer and reader
// tests.
package annotationtest

import (
	"fmt"
	"time"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/curie"
)

var (
	subjects = []curie.Curie{
		curie.New("MGI", "97490"),
		curie.New("RGD", "1234"),
		curie.New("UniProtKB", "P12023"),
		curie.New("MGI", "88059"),
	}
	relations = []string{
		"enables", "contributes_to", "involved_in", "acts_upstream_of",
		"acts_upstream_of_or_within_negative_effect", "located_in",
		"part_of", "is_active_in", "colocalizes_with",
	}
	evidence  = []string{"IDA", "IMP", "IPI", "IGI", "ISO", "IEA", "TAS", "ND", "IBA"}
	taxa      = []string{"10090", "10116", "9606"}
	providers = []string{"MGI", "RGD", "GO_Central", "UniProt"}
	types     = []string{"gene", "protein", "protein_coding_gene"}
)

// Records returns n varied records that every writer in this module can
// express. The same n always gives the same records.
func Records(n int) []annotation.Record {
	out := make([]annotation.Record, n)
	for i := range out {
		out[i] = record(i)
	}
	return out
}

func record(i int) annotation.Record {
	rel := relations[i%len(relations)]
	eco, err := annotation.EvidenceFromGAF(evidence[(i/2)%len(evidence)])
	if err != nil {
		panic(err)
	}
	rec := annotation.Record{
		Subject: annotation.Subject{
			ID:       subjects[i%len(subjects)],
			Taxon:    curie.New("NCBITaxon", taxa[i%len(taxa)]),
			Label:    fmt.Sprintf("Gene%d", i),
			FullName: fmt.Sprintf("gene number %d", i),
			Type:     types[i%len(types)],
		},
		Relation: rel,
		Negated:  i%5 == 0,
		Object: annotation.Term{
			ID:     curie.New("GO", fmt.Sprintf("%07d", 5215+i)),
			Aspect: annotation.AspectForRelation(rel),
		},
		Evidence: annotation.Evidence{
			Type:       eco,
			References: []curie.Curie{curie.New("PMID", fmt.Sprint(1000+i))},
		},
		Date:       time.Date(2015+i%8, time.Month(1+i%12), 1+i%28, 0, 0, 0, 0, time.UTC),
		ProvidedBy: providers[i%len(providers)],
	}
	rec.Object.Taxon = rec.Subject.Taxon
	if i%2 == 1 {
		rec.Subject.Synonyms = []string{fmt.Sprintf("G%d", i), "alias with spaces"}
		rec.Evidence.References = append(rec.Evidence.References, curie.New("GO_REF", "0000096"))
	}
	if i%3 == 0 {
		rec.Evidence.WithFrom = [][]curie.Curie{
			{curie.New("UniProtKB", "Q9Y6K9"), curie.New("PANTHER", "PTN000001")},
			{curie.New("UniProtKB", "P63015")},
		}
	}
	if i%4 == 1 {
		rec.InteractingTaxon = curie.New("NCBITaxon", "9606")
	}
	if i%3 == 2 {
		rec.Extensions = [][]annotation.Extension{
			{{Relation: "part_of", Filler: curie.New("CL", "0000540")}},
			{
				{Relation: "occurs_in", Filler: curie.New("UBERON", "0000955")},
				{Relation: "has_input", Filler: curie.New("MGI", "MGI:1")},
			},
		}
	}
	if i%4 == 2 {
		rec.Properties = []annotation.Property{
			{Key: "creation-date", Value: rec.Date.Format(annotation.DateLayout)},
			{Key: "model-state", Value: "production"},
		}
	}
	if i%6 == 5 {
		rec.GeneProductForm = curie.New("UniProtKB", fmt.Sprintf("P%05d-2", i))
	}
	return rec
}
