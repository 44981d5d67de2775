package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopreprocess/internal/config"
	"gopreprocess/internal/curie"
	"gopreprocess/internal/gpad"
	"gopreprocess/internal/tsv"
)

var (
	rat   = curie.MustParse("NCBITaxon:10116")
	mouse = curie.MustParse("NCBITaxon:10090")
	day   = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

func row(cols ...string) string {
	return strings.Join(cols, "\t") + "\n"
}

func gafRow(db, id, evidence, taxon, by string) string {
	return row(db, id, "Abc1", "enables", "GO:0005215", "PMID:1", evidence, "",
		"F", "ABC transporter 1", "Abc-1", "gene", taxon, "20200101", by, "", "")
}

func orthoRow(g1, t1, g2, t2 string) string {
	return row(g1, "s1", t1, "sp1", g2, "s2", t2, "sp2", "PANTHER", "1", "12", "Yes", "Yes")
}

func gpiRow(id, symbol, xrefs string) string {
	return row("MGI", id, symbol, "", "", "gene", "taxon:10090", "", xrefs, "")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func readText(t *testing.T, path string) string {
	t.Helper()
	in, err := tsv.Open(path)
	require.NoError(t, err)
	defer in.Close()
	b, err := io.ReadAll(in)
	require.NoError(t, err)
	return string(b)
}

func orthologFixture(t *testing.T, gafBody string) OrthologOptions {
	t.Helper()
	dir := t.TempDir()
	return OrthologOptions{
		OrthoPath: writeFile(t, dir, "ortho.tsv", "#comment\n"+
			orthoRow("RGD:1234", "NCBITaxon:10116", "MGI:5678", "NCBITaxon:10090")+
			orthoRow("RGD:77", "NCBITaxon:10116", "MGI:404", "NCBITaxon:10090")),
		SourceGAFPath:    writeFile(t, dir, "rgd.gaf", gafBody),
		TargetGPIPath:    writeFile(t, dir, "mgi.gpi", "!gpi-version: 1.2\n"+gpiRow("MGI:5678", "Abc1", "")),
		OutputDir:        filepath.Join(dir, "out"),
		OutputName:       "mgi-rgd-ortho",
		SourceTaxon:      rat,
		TargetTaxon:      mouse,
		OrthoReference:   curie.MustParse("GO_REF:0000096"),
		Namespaces:       config.DefaultNamespaces(),
		ExcludedEvidence: config.DefaultExcludedEvidence(),
		GeneratedBy:      "test",
		Date:             day,
	}
}

func TestConvertAnnotations(t *testing.T) {
	opts := orthologFixture(t, "!gaf-version: 2.2\n"+
		gafRow("RGD", "1234", "IDA", "taxon:10116", "RGD")+
		gafRow("RGD", "1234", "IEA", "taxon:10116", "RGD")+
		gafRow("RGD", "77", "IDA", "taxon:10116", "RGD")+
		gafRow("ZFIN", "ZDB-GENE-1", "IDA", "taxon:10116", "ZFIN")+
		gafRow("RGD", "1234", "IDA", "taxon:9606", "RGD")+
		"RGD\t1234\ttoo short\n")

	rep, err := ConvertAnnotations(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 5, rep.Read)
	assert.Equal(t, 1, rep.Malformed)
	assert.Equal(t, 3, rep.Filtered, "excluded evidence, namespace, taxon")
	assert.Equal(t, 1, rep.Unconvertible, "RGD:77 has no indexed ortholog")
	assert.Equal(t, 1, rep.Written)
	assert.Equal(t, 1, rep.Ortho.DroppedUnindexed)
	assert.Equal(t, 1, rep.GenesIndexed)
	assert.Equal(t, []InputCounts{
		{Path: opts.TargetGPIPath, Valid: 1},
		{Path: opts.OrthoPath, Valid: 2},
		{Path: opts.SourceGAFPath, Valid: 5, Malformed: 1},
	}, rep.Inputs)

	want := "!gaf-version: 2.2\n!Generated by: test\n!Date Generated: 2024-06-01\n" +
		row("MGI", "MGI:5678", "", "enables", "GO:0005215", "GO_REF:0000096", "ISO", "",
			"F", "", "", "gene", "taxon:10090", "20200101", "MGI", "", "")
	require.Len(t, rep.Outputs, 2)
	assert.Equal(t, want, readText(t, rep.Outputs[0]))
	assert.True(t, strings.HasSuffix(rep.Outputs[1], ".gaf.gz"))
	assert.Equal(t, want, readText(t, rep.Outputs[1]))
}

func TestConvertAnnotationsStrict(t *testing.T) {
	opts := orthologFixture(t, "!gaf-version: 2.2\nRGD\t1234\ttoo short\n")
	opts.StrictParse = true
	_, err := ConvertAnnotations(context.Background(), opts)
	assert.ErrorIs(t, err, tsv.ErrColumnCount)
}

func TestConvertAnnotationsNoRecords(t *testing.T) {
	opts := orthologFixture(t, "!gaf-version: 2.2\n")
	_, err := ConvertAnnotations(context.Background(), opts)
	assert.ErrorIs(t, err, ErrNoRecords)

	// an undeclared version leaves every line malformed
	opts = orthologFixture(t, gafRow("RGD", "1234", "IDA", "taxon:10116", "RGD"))
	rep, err := ConvertAnnotations(context.Background(), opts)
	assert.ErrorIs(t, err, ErrNoRecords)
	assert.Equal(t, 1, rep.Malformed)
}

func TestConvertAnnotationsRejectsUnparsedSupportingFiles(t *testing.T) {
	gafBody := "!gaf-version: 2.2\n" + gafRow("RGD", "1234", "IDA", "taxon:10116", "RGD")

	// no !gpi-version header, so the only gene row is malformed
	opts := orthologFixture(t, gafBody)
	writeFile(t, filepath.Dir(opts.TargetGPIPath), filepath.Base(opts.TargetGPIPath), gpiRow("MGI:5678", "Abc1", ""))
	rep, err := ConvertAnnotations(context.Background(), opts)
	require.ErrorIs(t, err, ErrNoRecords)
	assert.Contains(t, err.Error(), opts.TargetGPIPath)
	assert.Equal(t, []InputCounts{{Path: opts.TargetGPIPath, Malformed: 1}}, rep.Inputs)
	assert.Zero(t, rep.Malformed, "annotation counts stay separate")
	assert.NoDirExists(t, opts.OutputDir)

	opts = orthologFixture(t, gafBody)
	writeFile(t, filepath.Dir(opts.OrthoPath), filepath.Base(opts.OrthoPath), "#comment\nRGD:1234\tMGI:5678\n")
	rep, err = ConvertAnnotations(context.Background(), opts)
	require.ErrorIs(t, err, ErrNoRecords)
	assert.Contains(t, err.Error(), opts.OrthoPath)
	require.Len(t, rep.Inputs, 2)
	assert.Equal(t, InputCounts{Path: opts.OrthoPath, Malformed: 1}, rep.Inputs[1])
	assert.NoDirExists(t, opts.OutputDir)
}

func TestConvertAnnotationsEmptyGPI(t *testing.T) {
	opts := orthologFixture(t, "!gaf-version: 2.2\n"+gafRow("RGD", "1234", "IDA", "taxon:10116", "RGD"))
	writeFile(t, filepath.Dir(opts.TargetGPIPath), filepath.Base(opts.TargetGPIPath), "!gpi-version: 1.2\n")
	rep, err := ConvertAnnotations(context.Background(), opts)
	require.NoError(t, err)
	assert.Zero(t, rep.GenesIndexed)
	assert.Equal(t, 2, rep.Ortho.DroppedUnindexed)
	assert.Equal(t, 1, rep.Unconvertible)
	assert.Zero(t, rep.Written)
}

func TestConvertAnnotationsConfigErrors(t *testing.T) {
	opts := orthologFixture(t, "!gaf-version: 2.2\n")
	opts.TargetGPIPath = filepath.Join(t.TempDir(), "missing.gpi")
	_, err := ConvertAnnotations(context.Background(), opts)
	var ce *config.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "target_gpi_path", ce.Field)

	opts = orthologFixture(t, "!gaf-version: 2.2\n")
	opts.TargetTaxon = rat
	_, err = ConvertAnnotations(context.Background(), opts)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "target_taxon", ce.Field)
}

func TestConvertAnnotationsDryRun(t *testing.T) {
	opts := orthologFixture(t, "!gaf-version: 2.2\n"+gafRow("RGD", "1234", "IDA", "taxon:10116", "RGD"))
	opts.DryRun = true
	rep, err := ConvertAnnotations(context.Background(), opts)
	require.NoError(t, err)
	assert.Zero(t, rep.Written)
	assert.NoDirExists(t, opts.OutputDir)
}

func TestConvertP2GAnnotations(t *testing.T) {
	dir := t.TempDir()
	goa := "!gaf-version: 2.2\n" +
		gafRow("UniProtKB", "P12023", "IDA", "taxon:10090", "UniProt") +
		gafRow("UniProtKB", "Q00000", "IDA", "taxon:10090", "UniProt")
	iso := "!gaf-version: 2.2\n" +
		gafRow("UniProtKB", "P63015", "IMP", "taxon:10090", "UniProt")
	opts := ProteinToGeneOptions{
		GAFPath:        writeFile(t, dir, "goa_mouse.gaf", goa),
		IsoformGAFPath: writeFile(t, dir, "goa_mouse_isoform.gaf", iso),
		Isoform:        true,
		TargetGPIPath: writeFile(t, dir, "mgi.gpi", "!gpi-version: 1.2\n"+
			gpiRow("MGI:88059", "App", "UniProtKB:P12023")+
			gpiRow("MGI:97490", "Pax6", "UniProtKB:P63015,NCBIGene:18508")),
		OutputDir:   filepath.Join(dir, "out"),
		TargetTaxon: mouse,
		GeneratedBy: "test",
		Date:        day,
	}

	rep, err := ConvertP2GAnnotations(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Read)
	assert.Equal(t, 1, rep.Unconvertible)
	assert.Equal(t, 2, rep.Written)
	assert.Equal(t, []InputCounts{
		{Path: opts.TargetGPIPath, Valid: 2},
		{Path: opts.GAFPath, Valid: 2},
		{Path: opts.IsoformGAFPath, Valid: 1},
	}, rep.Inputs)

	want := "!gaf-version: 2.2\n!Generated by: test\n!Date Generated: 2024-06-01\n" +
		row("MGI", "MGI:88059", "Abc1", "enables", "GO:0005215", "PMID:1", "IDA", "",
			"F", "ABC transporter 1", "", "gene", "taxon:10090", "20200101", "GO_Central", "", "") +
		row("MGI", "MGI:97490", "Abc1", "enables", "GO:0005215", "PMID:1", "IMP", "",
			"F", "ABC transporter 1", "", "gene", "taxon:10090", "20200101", "GO_Central", "", "UniProtKB:P63015")
	assert.Equal(t, want, readText(t, filepath.Join(dir, "out", "p2g-converted.gaf")))
}

const (
	gpad12a = "MGI\tMGI:1918911\tenables\tGO:0003674\tMGI:MGI:2156816|GO_REF:0000015\tECO:0000307\t\t\t20100209\tMGI\t\tcreation-date=2010-02-09|model-state=production\n"
	gpad12b = "MGI\tMGI:88059\tNOT|part_of\tGO:0005739\tPMID:123\tECO:0000314\t\ttaxon:9606\t20200101\tMGI\tpart_of(CL:0000540)\t\n"
	gpad20a = "MGI:1918911\t\tRO:0002327\tGO:0003674\tMGI:MGI:2156816|GO_REF:0000015\tECO:0000307\t\t\t2010-02-09\tMGI\t\tcreation-date=2010-02-09|model-state=production\n"
	gpad20b = "MGI:88059\tNOT\tBFO:0000050\tGO:0005739\tPMID:123\tECO:0000314\t\tNCBITaxon:9606\t2020-01-01\tMGI\tpart_of(CL:0000540)\t\n"
)

func TestConvertP2GAnnotationsRejectsUnparsedGPI(t *testing.T) {
	dir := t.TempDir()
	opts := ProteinToGeneOptions{
		GAFPath:       writeFile(t, dir, "goa_mouse.gaf", "!gaf-version: 2.2\n"+gafRow("UniProtKB", "P12023", "IDA", "taxon:10090", "UniProt")),
		TargetGPIPath: writeFile(t, dir, "mgi.gpi", gpiRow("MGI:88059", "App", "UniProtKB:P12023")),
		OutputDir:     filepath.Join(dir, "out"),
		TargetTaxon:   mouse,
	}
	_, err := ConvertP2GAnnotations(context.Background(), opts)
	require.ErrorIs(t, err, ErrNoRecords)
	assert.Contains(t, err.Error(), opts.TargetGPIPath)
	assert.NoDirExists(t, opts.OutputDir)
}

func TestConvertGPAD(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "noctua_mgi.gpad.gz", "")
	wc, err := tsv.Create(in)
	require.NoError(t, err)
	_, err = io.WriteString(wc, "!gpa-version: 1.2\n!generated-by: noctua\n"+gpad12a+gpad12b)
	require.NoError(t, err)
	require.NoError(t, wc.Close())

	out := filepath.Join(dir, "out", "mgi_noctua_2_0.gpad")
	rep, err := ConvertGPAD(context.Background(), GPADOptions{
		InPath: in, OutPath: out, TargetVersion: gpad.Version20, GeneratedBy: "test", Date: day,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Read)
	assert.Equal(t, 2, rep.Written)
	assert.Equal(t, "!gpa-version: 2.0\n!Generated by: test\n!Date Generated: 2024-06-01\n"+gpad20a+gpad20b, readText(t, out))
}

func TestConvertGPADSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.gpad", "!gpa-version: 1.2\n"+gpad12a+"MGI\tbroken\n"+gpad12b)
	out := filepath.Join(dir, "out.gpad")

	rep, err := ConvertGPAD(context.Background(), GPADOptions{InPath: in, OutPath: out, TargetVersion: gpad.Version20, Date: day})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Malformed)
	assert.Equal(t, 2, rep.Written)

	_, err = ConvertGPAD(context.Background(), GPADOptions{InPath: in, OutPath: out, TargetVersion: gpad.Version20, StrictParse: true})
	assert.ErrorIs(t, err, tsv.ErrColumnCount)
}

func TestConvertGPADRejectsVersion(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.gpad", "!gpa-version: 1.2\n"+gpad12a)
	_, err := ConvertGPAD(context.Background(), GPADOptions{InPath: in, OutPath: filepath.Join(dir, "o"), TargetVersion: "3.0"})
	var ce *config.ConfigError
	assert.True(t, errors.As(err, &ce))
}
