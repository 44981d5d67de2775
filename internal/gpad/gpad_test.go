package gpad

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/annotation/annotationtest"
	"gopreprocess/internal/tsv"
)

func row(cols ...string) string {
	return strings.Join(cols, "\t") + "\n"
}

var (
	v12a = row("MGI", "MGI:1918911", "enables", "GO:0003674", "MGI:MGI:2156816|GO_REF:0000015", "ECO:0000307", "", "",
		"20100209", "MGI", "", "creation-date=2010-02-09|model-state=production")
	v12b = row("MGI", "MGI:88059", "NOT|part_of", "GO:0005739", "PMID:123", "ECO:0000314", "", "taxon:9606",
		"20200101", "MGI", "part_of(CL:0000540)", "")

	v20a = row("MGI:1918911", "", "RO:0002327", "GO:0003674", "MGI:MGI:2156816|GO_REF:0000015", "ECO:0000307", "", "",
		"2010-02-09", "MGI", "", "creation-date=2010-02-09|model-state=production")
	v20b = row("MGI:88059", "NOT", "BFO:0000050", "GO:0005739", "PMID:123", "ECO:0000314", "", "NCBITaxon:9606",
		"2020-01-01", "MGI", "part_of(CL:0000540)", "")
)

var genDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func readAll(t *testing.T, input string, opts Options) ([]annotation.Record, []tsv.Line) {
	t.Helper()
	r := NewReader(strings.NewReader(input), opts)
	var recs []annotation.Record
	var bad []tsv.Line
	for r.Next() {
		switch l := r.Line(); l.Kind {
		case tsv.KindData:
			recs = append(recs, r.Record())
		case tsv.KindMalformed:
			bad = append(bad, l)
		case tsv.KindHeader:
		}
	}
	require.NoError(t, r.Err())
	return recs, bad
}

func write(t *testing.T, v Version, recs []annotation.Record) string {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, v)
	require.NoError(t, w.WriteHeader(annotation.Header{GeneratedBy: "test", Date: genDate}))
	for _, r := range recs {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Flush())
	return buf.String()
}

func TestRead12(t *testing.T) {
	recs, bad := readAll(t, "!gpa-version: 1.2\n"+v12a+v12b, Options{})
	require.Empty(t, bad)
	require.Len(t, recs, 2)

	assert.Equal(t, "MGI:1918911", recs[0].Subject.ID.String())
	assert.Equal(t, "enables", recs[0].Relation)
	assert.Equal(t, annotation.AspectFunction, recs[0].Object.Aspect)
	assert.Len(t, recs[0].Properties, 2)

	assert.True(t, recs[1].Negated)
	assert.Equal(t, "part_of", recs[1].Relation)
	assert.Equal(t, "NCBITaxon:9606", recs[1].InteractingTaxon.String())
}

func TestConvert12To20(t *testing.T) {
	recs, bad := readAll(t, "!gpa-version: 1.2\n"+v12a+v12b, Options{})
	require.Empty(t, bad)

	out := write(t, Version20, recs)
	assert.Equal(t, "!gpa-version: 2.0\n!Generated by: test\n!Date Generated: 2024-06-01\n"+v20a+v20b, out)
}

func TestConvert20To12(t *testing.T) {
	recs, bad := readAll(t, "!gpad-version: 2.0\n"+v20a+v20b, Options{})
	require.Empty(t, bad)

	out := write(t, Version12, recs)
	assert.Equal(t, "!gpa-version: 1.2\n!Generated by: test\n!Date Generated: 2024-06-01\n"+v12a+v12b, out)
}

func TestRoundTrip(t *testing.T) {
	for _, v := range []Version{Version12, Version20} {
		t.Run(string(v), func(t *testing.T) {
			recs, _ := readAll(t, "!gpa-version: 1.2\n"+v12a+v12b, Options{})
			first := write(t, v, recs)
			again, bad := readAll(t, first, Options{})
			require.Empty(t, bad)
			assert.Equal(t, first, write(t, v, again))
		})
	}
}

func TestRoundTripGenerated(t *testing.T) {
	for _, v := range []Version{Version12, Version20} {
		t.Run(string(v), func(t *testing.T) {
			first := write(t, v, annotationtest.Records(200))
			again, bad := readAll(t, first, Options{})
			require.Empty(t, bad)
			require.Len(t, again, 200)
			assert.Equal(t, first, write(t, v, again))
		})
	}
}

func TestWriteRejectsValuesThatDoNotReadBack(t *testing.T) {
	base := annotationtest.Records(1)[0]
	cases := map[string]func(*annotation.Record){
		"zero date":        func(r *annotation.Record) { r.Date = time.Time{} },
		"pipe in property": func(r *annotation.Record) { r.Properties = []annotation.Property{{Key: "note", Value: "a|b"}} },
		"equals in key":    func(r *annotation.Record) { r.Properties = []annotation.Property{{Key: "a=b", Value: "c"}} },
		"tab in provider":  func(r *annotation.Record) { r.ProvidedBy = "MGI\tRGD" },
		"newline in value": func(r *annotation.Record) { r.Properties = []annotation.Property{{Key: "note", Value: "x\n"}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			rec := annotation.From(base).Build()
			mutate(&rec)
			for _, v := range []Version{Version12, Version20} {
				var buf bytes.Buffer
				w := NewWriter(&buf, v)
				assert.ErrorIs(t, w.Write(rec), tsv.ErrBadValue)
				require.NoError(t, w.Flush())
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestVersionFromHeaderNotColumns(t *testing.T) {
	// both versions have 12 columns; a 2.0 row read as 1.2 must fail
	_, bad := readAll(t, "!gpa-version: 1.2\n"+v20a, Options{})
	require.Len(t, bad, 1)

	_, bad = readAll(t, v20a, Options{})
	require.Len(t, bad, 1)
	assert.ErrorIs(t, bad[0].Err, tsv.ErrUndeclaredVersion)

	recs, bad := readAll(t, v20a, Options{DefaultVersion: Version20})
	assert.Empty(t, bad)
	assert.Len(t, recs, 1)
}

func TestMalformed(t *testing.T) {
	unknownRelation := row("MGI:1", "", "RO:9999999", "GO:0003674", "PMID:1", "ECO:0000307", "", "", "2010-02-09", "MGI", "", "")
	badNegation := row("MGI:1", "no", "RO:0002327", "GO:0003674", "PMID:1", "ECO:0000307", "", "", "2010-02-09", "MGI", "", "")
	badDate := row("MGI:1", "", "RO:0002327", "GO:0003674", "PMID:1", "ECO:0000307", "", "", "02/09/2010", "MGI", "", "")

	_, bad := readAll(t, "!gpad-version: 2.0\n"+unknownRelation+badNegation+badDate, Options{})
	require.Len(t, bad, 3)
	assert.ErrorIs(t, bad[0].Err, annotation.ErrUnknownRelation)
	assert.Equal(t, 3, bad[0].Err.Column)
	assert.Equal(t, 2, bad[1].Err.Column)
	assert.Equal(t, 9, bad[2].Err.Column)
}
