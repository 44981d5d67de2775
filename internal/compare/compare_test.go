package compare

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopreprocess/internal/tsv"
)

func row(cols ...string) string {
	return strings.Join(cols, "\t") + "\n"
}

func gafRow(id, goID, evidence, aspect string) string {
	return row("RGD", id, "", "enables", goID, "PMID:1", evidence, "", aspect, "", "", "gene", "taxon:10116", "20200101", "RGD", "", "")
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestCompareByEvidence(t *testing.T) {
	dir := t.TempDir()
	f1 := write(t, dir, "a.gaf", "!gaf-version: 2.2\n"+
		gafRow("1", "GO:0005215", "IDA", "F")+
		gafRow("2", "GO:0005215", "IDA", "F")+
		gafRow("3", "GO:0005215", "IMP", "F"))
	f2 := write(t, dir, "b.gaf", "!gaf-version: 2.2\n"+
		gafRow("1", "GO:0005215", "IDA", "F")+
		gafRow("3", "GO:0005215", "IMP", "F")+
		gafRow("4", "GO:0005215", "IEA", "F")+
		"broken\n")

	prefix := filepath.Join(dir, "cmp")
	res, err := Compare(context.Background(), Options{File1: f1, File2: f2, OutputPrefix: prefix})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total1)
	assert.Equal(t, 3, res.Total2)
	assert.Equal(t, []Row{
		{Key: []string{"IDA"}, Count1: 2, Count2: 1},
		{Key: []string{"IEA"}, Count1: 0, Count2: 1},
		{Key: []string{"IMP"}, Count1: 1, Count2: 1},
	}, res.Rows)

	summary, err := os.ReadFile(prefix + "_summary.tsv")
	require.NoError(t, err)
	assert.Equal(t, "Evidence_code\tfile1\tfile2\tdifference\nIDA\t2\t1\t-1\nIEA\t0\t1\t1\nIMP\t1\t1\t0\n", string(summary))

	out := Render(res)
	assert.Contains(t, out, "Evidence_code")
	assert.Contains(t, out, "-1")
	assert.Contains(t, out, "total")
}

func TestCompareRestrictToDecreases(t *testing.T) {
	dir := t.TempDir()
	f1 := write(t, dir, "a.gaf", "!gaf-version: 2.2\n"+gafRow("1", "GO:1", "IDA", "F")+gafRow("2", "GO:2", "IDA", "P"))
	f2 := write(t, dir, "b.gaf", "!gaf-version: 2.2\n"+gafRow("1", "GO:1", "IDA", "F"))

	res, err := Compare(context.Background(), Options{
		File1: f1, File2: f2, GroupBy: []string{GOID, Aspect}, RestrictToDecreases: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []Row{{Key: []string{"GO:2", "P"}, Count1: 1, Count2: 0}}, res.Rows)
}

func TestCompareGPADAgainstGAF(t *testing.T) {
	dir := t.TempDir()
	f1 := write(t, dir, "a.gaf", "!gaf-version: 2.2\n"+gafRow("1", "GO:1", "IDA", "F"))
	f2 := write(t, dir, "b.gpad", "!gpad-version: 2.0\n"+
		row("RGD:1", "", "RO:0002327", "GO:1", "PMID:1", "ECO:0000314", "", "", "2020-01-01", "RGD", "", ""))

	res, err := Compare(context.Background(), Options{File1: f1, File2: f2, GroupBy: []string{DB, AssignedBy, EvidenceCode}})
	require.NoError(t, err)
	assert.Equal(t, []Row{{Key: []string{"RGD", "RGD", "IDA"}, Count1: 1, Count2: 1}}, res.Rows)
}

func TestCompareErrors(t *testing.T) {
	dir := t.TempDir()
	f := write(t, dir, "a.gaf", "!gaf-version: 2.2\n")
	plain := write(t, dir, "plain.tsv", "a\tb\n")

	_, err := Compare(context.Background(), Options{File1: f, File2: f, GroupBy: []string{"Colour"}})
	assert.ErrorContains(t, err, "Colour")

	_, err = Compare(context.Background(), Options{File1: f, File2: plain})
	assert.ErrorIs(t, err, tsv.ErrUndeclaredVersion)

	_, err = Compare(context.Background(), Options{File1: f, File2: filepath.Join(dir, "missing.gaf")})
	assert.Error(t, err)
}
