package ortho

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopreprocess/internal/curie"
	"gopreprocess/internal/gpi"
	"gopreprocess/internal/tsv"
)

var (
	rat   = curie.MustParse("NCBITaxon:10116")
	mouse = curie.MustParse("NCBITaxon:10090")
	human = curie.MustParse("NCBITaxon:9606")
)

func row(g1, t1, g2, t2, best, rev string) string {
	return strings.Join([]string{g1, "s1", t1, "sp1", g2, "s2", t2, "sp2", "PANTHER|Ensembl", "2", "12", best, rev}, "\t") + "\n"
}

const title = "Gene1ID\tGene1Symbol\tGene1SpeciesTaxonID\tGene1SpeciesName\tGene2ID\tGene2Symbol\tGene2SpeciesTaxonID\tGene2SpeciesName\tAlgorithms\tAlgorithmsMatch\tOutOfAlgorithms\tIsBestScore\tIsBestRevScore\n"

func mouseIndex(genes ...string) *gpi.Index {
	b := gpi.NewIndexBuilder()
	for _, g := range genes {
		b.Add(gpi.Entry{ID: curie.MustParse(g)})
	}
	return b.Build()
}

func resolve(t *testing.T, input string, ix *gpi.Index, min Relationship) (Mapping, Stats) {
	t.Helper()
	r := NewReader(strings.NewReader(input))
	res := NewResolver(ix, Options{SourceTaxon: rat, TargetTaxon: mouse, MinRelationship: min})
	for r.Next() {
		switch l := r.Line(); l.Kind {
		case tsv.KindData:
			res.Add(r.Pair())
		case tsv.KindMalformed:
			t.Fatalf("malformed line %d: %v", l.Number, l.Err)
		case tsv.KindHeader:
		}
	}
	require.NoError(t, r.Err())
	return res.Result()
}

func TestResolveKeepsOnlyIndexedTargets(t *testing.T) {
	in := "# Alliance orthology\n" + title +
		row("RGD:1234", "NCBITaxon:10116", "MGI:5678", "NCBITaxon:10090", "Yes", "Yes") +
		row("RGD:2", "NCBITaxon:10116", "MGI:999", "NCBITaxon:10090", "Yes", "Yes") +
		row("MGI:77", "NCBITaxon:10090", "RGD:3", "NCBITaxon:10116", "Yes", "No") +
		row("HGNC:1", "NCBITaxon:9606", "MGI:5678", "NCBITaxon:10090", "Yes", "Yes")

	m, stats := resolve(t, in, mouseIndex("MGI:5678", "MGI:77"), Candidate)

	target, ok := m.Lookup(curie.MustParse("RGD:1234"))
	require.True(t, ok)
	assert.Equal(t, "MGI:5678", target.String())

	target, ok = m.Lookup(curie.MustParse("RGD:3"))
	require.True(t, ok, "reverse orientation is flipped")
	assert.Equal(t, "MGI:77", target.String())

	_, ok = m.Lookup(curie.MustParse("RGD:2"))
	assert.False(t, ok)

	assert.Equal(t, Stats{Pairs: 4, OtherTaxa: 1, DroppedUnindexed: 1, Accepted: 2}, stats)
}

func TestResolveAmbiguousSourceExcluded(t *testing.T) {
	in := row("RGD:1", "NCBITaxon:10116", "MGI:1", "NCBITaxon:10090", "Yes", "No") +
		row("RGD:1", "NCBITaxon:10116", "MGI:2", "NCBITaxon:10090", "No", "Yes") +
		row("RGD:1", "NCBITaxon:10116", "MGI:1", "NCBITaxon:10090", "Yes", "Yes")

	m, stats := resolve(t, in, mouseIndex("MGI:1", "MGI:2"), Candidate)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 1, stats.Ambiguous)

	// the weaker call falls below a mutual-best threshold, leaving one target
	m, stats = resolve(t, in, mouseIndex("MGI:1", "MGI:2"), BestMutual)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, stats.BelowThreshold)
	assert.Equal(t, 0, stats.Ambiguous)
}

func TestRelationshipFlags(t *testing.T) {
	assert.True(t, BestMutual.AtLeast(BestForward))
	assert.True(t, BestReverse.AtLeast(BestForward))
	assert.False(t, Candidate.AtLeast(BestReverse))

	p := Pair{
		Gene1:        curie.MustParse("MGI:1"),
		Taxon1:       mouse,
		Gene2:        curie.MustParse("RGD:1"),
		Taxon2:       rat,
		Relationship: BestForward,
	}
	rec, ok := p.Orient(rat, mouse)
	require.True(t, ok)
	assert.Equal(t, BestReverse, rec.Relationship)
	assert.Equal(t, "RGD:1", rec.Source.String())

	_, ok = p.Orient(human, mouse)
	assert.False(t, ok)
}

func TestMalformedRows(t *testing.T) {
	in := row("RGD:1", "NCBITaxon:10116", "MGI 1", "NCBITaxon:10090", "Yes", "Yes") +
		row("RGD:1", "NCBITaxon:10116", "MGI:1", "NCBITaxon:10090", "Maybe", "Yes") +
		"RGD:1\tMGI:1\n"
	r := NewReader(strings.NewReader(in))
	var cols []int
	for r.Next() {
		if l := r.Line(); l.Kind == tsv.KindMalformed {
			cols = append(cols, l.Err.Column)
		}
	}
	assert.Equal(t, []int{5, 12, 0}, cols)
}

func TestEmptyIndexDropsEverything(t *testing.T) {
	in := row("RGD:1234", "NCBITaxon:10116", "MGI:5678", "NCBITaxon:10090", "Yes", "Yes")
	m, stats := resolve(t, in, mouseIndex(), Candidate)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 1, stats.DroppedUnindexed)
}

func TestParseRelationship(t *testing.T) {
	r, err := ParseRelationship("")
	require.NoError(t, err)
	assert.Equal(t, Candidate, r)

	r, err = ParseRelationship(" Best_Mutual ")
	require.NoError(t, err)
	assert.Equal(t, BestMutual, r)

	_, err = ParseRelationship("best")
	assert.Error(t, err)
}

func TestAddRecordCountsPairs(t *testing.T) {
	res := NewResolver(mouseIndex("MGI:1"), Options{SourceTaxon: rat, TargetTaxon: mouse, MinRelationship: BestForward})
	res.AddRecord(Record{Source: curie.MustParse("RGD:1"), Target: curie.MustParse("MGI:1"), Relationship: BestMutual})
	res.AddRecord(Record{Source: curie.MustParse("RGD:2"), Target: curie.MustParse("MGI:2"), Relationship: BestMutual})
	res.AddRecord(Record{Source: curie.MustParse("RGD:3"), Target: curie.MustParse("MGI:1"), Relationship: Candidate})
	res.Add(Pair{
		Gene1:        curie.MustParse("HGNC:1"),
		Taxon1:       human,
		Gene2:        curie.MustParse("MGI:1"),
		Taxon2:       mouse,
		Relationship: BestMutual,
	})

	m, stats := res.Result()
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, Stats{Pairs: 4, OtherTaxa: 1, BelowThreshold: 1, DroppedUnindexed: 1, Accepted: 1}, stats)
	assert.Equal(t, stats.Pairs, stats.OtherTaxa+stats.BelowThreshold+stats.DroppedUnindexed+stats.Accepted)
}
