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
	"gopreprocess/internal/rewrite"
)

// ProteinToGeneOptions configures ConvertP2GAnnotations.
type ProteinToGeneOptions struct {
	GAFPath string
	// IsoformGAFPath is read as well when Isoform is set.
	IsoformGAFPath string
	Isoform        bool
	TargetGPIPath  string
	OutputDir      string
	OutputName     string

	TargetTaxon curie.Curie
	// Namespaces restricts source subjects. Empty keeps all.
	Namespaces []string
	Provenance rewrite.ProvenancePolicy

	Workers     int
	StrictParse bool
	DryRun      bool
	GeneratedBy string
	Date        time.Time
	Logger      *log.Logger
}

func (o *ProteinToGeneOptions) validate() error {
	inputs := []input{{"gaf_path", o.GAFPath}, {"target_gpi_path", o.TargetGPIPath}}
	if o.Isoform {
		inputs = append(inputs, input{"isoform_gaf_path", o.IsoformGAFPath})
	}
	if err := requireFiles(inputs...); err != nil {
		return err
	}
	switch {
	case o.TargetTaxon.IsZero():
		return &config.ConfigError{Field: "target_taxon", Reason: "required"}
	case o.OutputDir == "" && !o.DryRun:
		return &config.ConfigError{Field: "output_dir", Reason: "required"}
	}
	return nil
}

// ConvertP2GAnnotations moves protein annotations onto the genes whose GPI
// rows cross-reference the protein and writes them as GAF 2.2.
func ConvertP2GAnnotations(ctx context.Context, opts ProteinToGeneOptions) (Report, error) {
	if err := opts.validate(); err != nil {
		return Report{}, err
	}
	logger := orDiscard(opts.Logger)
	if opts.OutputName == "" {
		opts.OutputName = "p2g-converted"
	}
	if opts.GeneratedBy == "" {
		opts.GeneratedBy = "GO_Central preprocess pipeline: protein to GO transformation"
	}
	if opts.Provenance == nil {
		opts.Provenance = rewrite.DefaultProteinToGeneProvenance()
	}
	rep := Report{Name: "convert_p2g_annotations"}
	policy := &malformedPolicy{strict: opts.StrictParse, logger: logger}

	ix, err := readIndex(&rep, opts.TargetGPIPath, policy)
	if err != nil {
		return rep, err
	}
	logger.Info("indexed target genes", "path", opts.TargetGPIPath, "genes", printer.Sprintf("%d", ix.Len()))

	keep := func(rec annotation.Record) bool {
		return len(opts.Namespaces) == 0 || slices.Contains(opts.Namespaces, rec.Subject.ID.Namespace)
	}

	type source struct {
		path    string
		isoform bool
	}
	sources := []source{{opts.GAFPath, false}}
	if opts.Isoform {
		sources = append(sources, source{opts.IsoformGAFPath, true})
	}

	var converted []annotation.Record
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		recs, read, filtered, err := readGAF(src.path, gaf.Options{}, policy, keep)
		rep.Read += read
		rep.Filtered += filtered
		rep.Malformed += policy.count(src.path)
		rep.addInput(src.path, read, policy.count(src.path))
		if err != nil {
			return rep, err
		}
		if read == 0 {
			return rep, fmt.Errorf("%s: %w", src.path, ErrNoRecords)
		}

		rw := rewrite.NewProteinToGene(ix, rewrite.ProteinToGeneConfig{
			TargetTaxon: opts.TargetTaxon,
			Provenance:  opts.Provenance,
			Isoform:     src.isoform,
		})
		results, err := rewrite.RewriteAll(ctx, recs, rw, opts.Workers)
		if err != nil {
			return rep, err
		}
		out, missed := rewrite.Converted(results)
		rep.Unconvertible += missed
		converted = append(converted, out...)
	}

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
