package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/config"
	"gopreprocess/internal/curie"
	"gopreprocess/internal/gaf"
	"gopreprocess/internal/gpi"
	"gopreprocess/internal/ortho"
	"gopreprocess/internal/rewrite"
	"gopreprocess/internal/tsv"
)

// OrthologOptions configures ConvertAnnotations.
type OrthologOptions struct {
	OrthoPath     string
	SourceGAFPath string
	TargetGPIPath string
	OutputDir     string
	// OutputName is the file stem; ".gaf" and ".gaf.gz" are written.
	OutputName string

	SourceTaxon    curie.Curie
	TargetTaxon    curie.Curie
	OrthoReference curie.Curie
	// Namespaces keeps source records whose subject is in one of these
	// namespaces. Empty keeps all.
	Namespaces []string
	// ExcludedEvidence lists GAF evidence codes that are never transferred.
	ExcludedEvidence []string
	MinRelationship  ortho.Relationship
	Provenance       rewrite.ProvenancePolicy

	Workers     int
	StrictParse bool
	DryRun      bool
	GeneratedBy string
	Date        time.Time
	Logger      *log.Logger
}

// OrthologReport adds the resolver's counts to the run report.
type OrthologReport struct {
	Report
	GenesIndexed int
	Ortho        ortho.Stats
}

func (o *OrthologOptions) validate() error {
	if err := requireFiles(
		input{"ortho_path", o.OrthoPath},
		input{"source_gaf_path", o.SourceGAFPath},
		input{"target_gpi_path", o.TargetGPIPath},
	); err != nil {
		return err
	}
	switch {
	case o.SourceTaxon.IsZero():
		return &config.ConfigError{Field: "source_taxon", Reason: "required"}
	case o.TargetTaxon.IsZero():
		return &config.ConfigError{Field: "target_taxon", Reason: "required"}
	case o.SourceTaxon == o.TargetTaxon:
		return &config.ConfigError{Field: "target_taxon", Reason: "must differ from source_taxon"}
	case o.OrthoReference.IsZero():
		return &config.ConfigError{Field: "ortho_reference", Reason: "required"}
	case o.OutputDir == "" && !o.DryRun:
		return &config.ConfigError{Field: "output_dir", Reason: "required"}
	}
	return nil
}

// ConvertAnnotations transfers the source taxon's GAF annotations to the
// target taxon through orthology and writes them as GAF 2.2.
func ConvertAnnotations(ctx context.Context, opts OrthologOptions) (OrthologReport, error) {
	if err := opts.validate(); err != nil {
		return OrthologReport{}, err
	}
	logger := orDiscard(opts.Logger)
	if opts.OutputName == "" {
		opts.OutputName = "ortho-converted"
	}
	if opts.GeneratedBy == "" {
		opts.GeneratedBy = "GO_Central preprocess pipeline: ortholog transformation"
	}
	if opts.Provenance == nil {
		opts.Provenance = rewrite.DefaultOrthologProvenance()
	}
	rep := OrthologReport{Report: Report{Name: "convert_annotations"}}
	policy := &malformedPolicy{strict: opts.StrictParse, logger: logger}

	ix, err := readIndex(&rep.Report, opts.TargetGPIPath, policy)
	if err != nil {
		return rep, err
	}
	rep.GenesIndexed = ix.Len()
	logger.Info("indexed target genes", "path", opts.TargetGPIPath, "genes", printer.Sprintf("%d", ix.Len()))
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	mapping, stats, err := resolveOrthologs(&rep.Report, opts, ix, policy)
	if err != nil {
		return rep, err
	}
	rep.Ortho = stats
	logger.Info("resolved orthologs",
		"pairs", printer.Sprintf("%d", stats.Pairs),
		"accepted", printer.Sprintf("%d", stats.Accepted),
		"dropped_unindexed", printer.Sprintf("%d", stats.DroppedUnindexed),
		"ambiguous", printer.Sprintf("%d", stats.Ambiguous))
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	recs, read, filtered, err := readGAF(opts.SourceGAFPath, gaf.Options{}, policy, sourceFilter(opts))
	rep.Read, rep.Filtered, rep.Malformed = read, filtered, policy.count(opts.SourceGAFPath)
	rep.addInput(opts.SourceGAFPath, read, rep.Malformed)
	if err != nil {
		return rep, err
	}
	if read == 0 {
		return rep, fmt.Errorf("%s: %w", opts.SourceGAFPath, ErrNoRecords)
	}

	rw := rewrite.NewOrtholog(mapping, rewrite.OrthologConfig{
		TargetTaxon:    opts.TargetTaxon,
		OrthoReference: opts.OrthoReference,
		Provenance:     opts.Provenance,
	})
	results, err := rewrite.RewriteAll(ctx, recs, rw, opts.Workers)
	if err != nil {
		return rep, err
	}
	converted, missed := rewrite.Converted(results)
	rep.Unconvertible = missed

	if opts.DryRun {
		logger.Info("dry-run: skipping output", "records", len(converted))
		rep.Log(logger)
		return rep, nil
	}
	paths := outputPaths(opts.OutputDir, opts.OutputName)
	if err := writeGAF(paths, header(opts.GeneratedBy, opts.Date), converted); err != nil {
		return rep, err
	}
	rep.Written = len(converted)
	rep.Outputs = paths
	rep.Log(logger)
	return rep, nil
}

// sourceFilter keeps records of the source taxon in the allowed namespaces
// whose evidence is not excluded.
func sourceFilter(opts OrthologOptions) func(annotation.Record) bool {
	return func(rec annotation.Record) bool {
		if rec.Subject.Taxon != opts.SourceTaxon {
			return false
		}
		if len(opts.Namespaces) > 0 && !slices.Contains(opts.Namespaces, rec.Subject.ID.Namespace) {
			return false
		}
		if len(opts.ExcludedEvidence) > 0 {
			code, err := annotation.EvidenceToGAF(rec.Evidence.Type)
			if err == nil && slices.Contains(opts.ExcludedEvidence, code) {
				return false
			}
		}
		return true
	}
}

// readIndex builds the target gene index. A file whose every data line is
// malformed is ErrNoRecords; an empty file gives an empty index.
func readIndex(rep *Report, path string, policy *malformedPolicy) (*gpi.Index, error) {
	in, err := tsv.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	ix, err := gpi.ReadIndex(in, gpi.Options{}, func(l tsv.Line) error {
		return policy.handle(path, l)
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rep.addInput(path, ix.Rows(), policy.count(path))
	if err := requireValid(path, ix.Rows(), policy.count(path)); err != nil {
		return nil, err
	}
	return ix, nil
}

func resolveOrthologs(rep *Report, opts OrthologOptions, ix *gpi.Index, policy *malformedPolicy) (ortho.Mapping, ortho.Stats, error) {
	in, err := tsv.Open(opts.OrthoPath)
	if err != nil {
		return ortho.Mapping{}, ortho.Stats{}, err
	}
	defer in.Close()

	res := ortho.NewResolver(ix, ortho.Options{
		SourceTaxon:     opts.SourceTaxon,
		TargetTaxon:     opts.TargetTaxon,
		MinRelationship: opts.MinRelationship,
	})
	r := ortho.NewReader(in)
	for r.Next() {
		switch l := r.Line(); l.Kind {
		case tsv.KindData:
			res.Add(r.Pair())
		case tsv.KindMalformed:
			if err := policy.handle(opts.OrthoPath, l); err != nil {
				return ortho.Mapping{}, ortho.Stats{}, err
			}
		case tsv.KindHeader:
		}
	}
	if err := r.Err(); err != nil {
		return ortho.Mapping{}, ortho.Stats{}, fmt.Errorf("read %s: %w", opts.OrthoPath, err)
	}
	m, stats := res.Result()
	rep.addInput(opts.OrthoPath, stats.Pairs, policy.count(opts.OrthoPath))
	if err := requireValid(opts.OrthoPath, stats.Pairs, policy.count(opts.OrthoPath)); err != nil {
		return ortho.Mapping{}, stats, err
	}
	return m, stats, nil
}
