package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/compare"
	"gopreprocess/internal/config"
	"gopreprocess/internal/curie"
	"gopreprocess/internal/download"
	"gopreprocess/internal/gpad"
	"gopreprocess/internal/merge"
	"gopreprocess/internal/ortho"
	"gopreprocess/internal/pipeline"
)

func taxonFlag(field, value string) (curie.Curie, error) {
	c, err := annotation.ParseTaxon(value)
	if err != nil {
		return curie.Curie{}, &config.ConfigError{Field: field, Reason: err.Error()}
	}
	return c, nil
}

func newConvertAnnotationsCmd(a *app) *cobra.Command {
	var (
		namespaces     []string
		sourceTaxon    string
		targetTaxon    string
		orthoReference string
		outputName     string
	)
	cmd := &cobra.Command{
		Use:   "convert_annotations",
		Short: "Convert annotations from one taxon to another using orthology",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("namespaces") {
				namespaces = a.cfg.Namespaces
			}
			if !cmd.Flags().Changed("source_taxon") {
				sourceTaxon = a.cfg.SourceTaxon
			}
			if !cmd.Flags().Changed("target_taxon") {
				targetTaxon = a.cfg.TargetTaxon
			}
			if !cmd.Flags().Changed("ortho_reference") {
				orthoReference = a.cfg.OrthoReference
			}
			src, err := taxonFlag("source_taxon", sourceTaxon)
			if err != nil {
				return err
			}
			tgt, err := taxonFlag("target_taxon", targetTaxon)
			if err != nil {
				return err
			}
			ref, err := curie.Parse(orthoReference)
			if err != nil {
				return &config.ConfigError{Field: "ortho_reference", Reason: err.Error()}
			}
			minRel, err := ortho.ParseRelationship(a.cfg.MinRelationship)
			if err != nil {
				return &config.ConfigError{Field: "min_relationship", Reason: err.Error()}
			}
			if outputName == "" {
				outputName = fmt.Sprintf("%s-%s-ortho", tgt.Identity, src.Identity)
			}

			f, err := a.fetcher()
			if err != nil {
				return err
			}
			in, err := f.FetchForTaxa(cmd.Context(), src.String(), tgt.String())
			if err != nil {
				return err
			}
			_, err = pipeline.ConvertAnnotations(cmd.Context(), pipeline.OrthologOptions{
				OrthoPath:        in.Ortho,
				SourceGAFPath:    in.SourceGAF,
				TargetGPIPath:    in.TargetGPI,
				OutputDir:        a.cfg.OutputDir,
				OutputName:       outputName,
				SourceTaxon:      src,
				TargetTaxon:      tgt,
				OrthoReference:   ref,
				Namespaces:       namespaces,
				ExcludedEvidence: a.cfg.ExcludedEvidence,
				MinRelationship:  minRel,
				Workers:          a.cfg.Workers,
				StrictParse:      a.cfg.StrictParse,
				DryRun:           a.dryRun,
				Logger:           a.logger,
			})
			return err
		},
	}
	cmd.Flags().StringSliceVar(&namespaces, "namespaces", config.DefaultNamespaces(), "providers in the source GAF whose annotations are converted")
	cmd.Flags().StringVar(&sourceTaxon, "source_taxon", "NCBITaxon:10116", "source taxon curie, e.g. NCBITaxon:10116")
	cmd.Flags().StringVar(&targetTaxon, "target_taxon", "NCBITaxon:10090", "target taxon curie, e.g. NCBITaxon:10090")
	cmd.Flags().StringVar(&orthoReference, "ortho_reference", "GO_REF:0000096", "reference curie attached to converted annotations")
	cmd.Flags().StringVar(&outputName, "output_name", "", "output file stem (default <target>-<source>-ortho)")
	return cmd
}

func newConvertP2GCmd(a *app) *cobra.Command {
	var (
		sourceTaxon string
		isoform     bool
	)
	cmd := &cobra.Command{
		Use:   "convert_g2p_annotations",
		Short: "Convert protein annotations to gene annotations of the same taxon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			taxon, err := taxonFlag("source_taxon", sourceTaxon)
			if err != nil {
				return err
			}
			f, err := a.fetcher()
			if err != nil {
				return err
			}
			reg, err := config.LoadRegistry(a.cfg.DatasetsFile)
			if err != nil {
				return err
			}
			gafSet, ok := reg.Find(config.KindGAF, taxon.String())
			if !ok {
				return fmt.Errorf("%w: no gaf dataset for %s", download.ErrUnknownDataset, taxon)
			}
			gpiSet, ok := reg.Find(config.KindGPI, taxon.String())
			if !ok {
				return fmt.Errorf("%w: no gpi dataset for %s", download.ErrUnknownDataset, taxon)
			}

			opts := pipeline.ProteinToGeneOptions{
				Isoform:     isoform,
				OutputDir:   a.cfg.OutputDir,
				OutputName:  fmt.Sprintf("%s-p2g-converted", taxon.Identity),
				TargetTaxon: taxon,
				Namespaces:  []string{"UniProtKB"},
				Workers:     a.cfg.Workers,
				StrictParse: a.cfg.StrictParse,
				DryRun:      a.dryRun,
				Logger:      a.logger,
			}
			if opts.GAFPath, err = f.Fetch(cmd.Context(), gafSet.Key); err != nil {
				return err
			}
			if opts.TargetGPIPath, err = f.Fetch(cmd.Context(), gpiSet.Key); err != nil {
				return err
			}
			if isoform {
				if opts.IsoformGAFPath, err = f.Fetch(cmd.Context(), gafSet.Key+"_ISOFORM"); err != nil {
					return err
				}
			}
			_, err = pipeline.ConvertP2GAnnotations(cmd.Context(), opts)
			return err
		},
	}
	cmd.Flags().StringVar(&sourceTaxon, "source_taxon", "NCBITaxon:10090", "taxon of the protein annotations and of the target genes")
	cmd.Flags().BoolVar(&isoform, "isoform", false, "also convert the isoform annotation file")
	return cmd
}

func newConvertNoctuaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert_noctua_gpad_1_2_to_2_0_annotations",
		Short: "Convert the Noctua GPAD 1.2 export to GPAD 2.0",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.fetcher()
			if err != nil {
				return err
			}
			in, err := f.Fetch(cmd.Context(), "MGI_NOCTUA")
			if err != nil {
				return err
			}
			stem := strings.SplitN(strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)), "_", 2)[0]
			out := filepath.Join(a.cfg.OutputDir, fmt.Sprintf("mgi_noctua_2_0_%s.gpad", stem))
			rep, err := pipeline.ConvertGPAD(cmd.Context(), pipeline.GPADOptions{
				InPath:        in,
				OutPath:       out,
				TargetVersion: gpad.Version20,
				SourceVersion: gpad.Version12,
				StrictParse:   a.cfg.StrictParse,
				DryRun:        a.dryRun,
				Logger:        a.logger,
			})
			if err != nil {
				return err
			}
			for _, p := range rep.Outputs {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newConvertGPADCmd(a *app) *cobra.Command {
	var in, out, version, sourceVersion string
	cmd := &cobra.Command{
		Use:   "convert_gpad",
		Short: "Convert a GPAD file between versions 1.2 and 2.0",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var src gpad.Version
			if sourceVersion != "" {
				v, err := gpad.ParseVersion(sourceVersion)
				if err != nil {
					return &config.ConfigError{Field: "source_version", Reason: err.Error()}
				}
				src = v
			}
			_, err := pipeline.ConvertGPAD(cmd.Context(), pipeline.GPADOptions{
				InPath:        in,
				OutPath:       out,
				TargetVersion: gpad.Version(version),
				SourceVersion: src,
				StrictParse:   a.cfg.StrictParse,
				DryRun:        a.dryRun,
				Logger:        a.logger,
			})
			return err
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input GPAD file (.gz allowed)")
	cmd.Flags().StringVar(&out, "out", "", "output GPAD file (.gz compresses)")
	cmd.Flags().StringVar(&version, "version", string(gpad.Version20), "output GPAD version: 1.2 or 2.0")
	cmd.Flags().StringVar(&sourceVersion, "source_version", "", "input version when the file declares none")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newDownloadCmd(a *app) *cobra.Command {
	var sourceTaxon, targetTaxon string
	var keys []string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the inputs for a source and target taxon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := taxonFlag("source_taxon", sourceTaxon)
			if err != nil {
				return err
			}
			tgt, err := taxonFlag("target_taxon", targetTaxon)
			if err != nil {
				return err
			}
			f, err := a.fetcher()
			if err != nil {
				return err
			}
			in, err := f.FetchForTaxa(cmd.Context(), src.String(), tgt.String())
			if err != nil {
				return err
			}
			paths := []string{in.Ortho, in.SourceGAF, in.TargetGPI}
			for _, k := range keys {
				p, err := f.Fetch(cmd.Context(), k)
				if err != nil {
					return err
				}
				paths = append(paths, p)
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceTaxon, "source_taxon", "", "source taxon curie")
	cmd.Flags().StringVar(&targetTaxon, "target_taxon", "", "target taxon curie")
	cmd.Flags().StringSliceVar(&keys, "keys", []string{"MGI_GPI"}, "additional dataset keys to fetch")
	_ = cmd.MarkFlagRequired("source_taxon")
	_ = cmd.MarkFlagRequired("target_taxon")
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	var opts compare.Options
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two GPAD or GAF files and report differences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Logger = a.logger
			if a.dryRun {
				opts.OutputPrefix = ""
			}
			res, err := compare.Compare(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), compare.Render(res))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.File1, "file1", "", "the source file")
	cmd.Flags().StringVar(&opts.File2, "file2", "", "the file that results from a transformation, or the target file")
	cmd.Flags().StringVarP(&opts.OutputPrefix, "output", "o", "comparison", "prefix for files generated by this tool")
	cmd.Flags().StringSliceVar(&opts.GroupBy, "group-by-column", compare.DefaultGroupBy(), "columns to group the comparison by: "+strings.Join(compare.Columns(), ", "))
	cmd.Flags().BoolVar(&opts.RestrictToDecreases, "restrict-to-decreases", false, "report only groups whose count decreased")
	_ = cmd.MarkFlagRequired("file1")
	_ = cmd.MarkFlagRequired("file2")
	return cmd
}

func newMergeCmd(a *app) *cobra.Command {
	var dir, out string
	cmd := &cobra.Command{
		Use:   "merge_files",
		Short: "Merge all GAF files from a directory into one output file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				dir = a.cfg.OutputDir
			}
			if out == "" {
				out = filepath.Join(dir, "merged.gaf")
			}
			if a.dryRun {
				files, err := merge.Inputs(dir, out)
				if err != nil {
					return err
				}
				a.logger.Info("dry-run: would merge", "files", files, "out", out)
				return nil
			}
			res, err := merge.Files(cmd.Context(), merge.Options{
				Dir:         dir,
				OutPath:     out,
				StrictParse: a.cfg.StrictParse,
				Logger:      a.logger,
			})
			if err != nil {
				return err
			}
			a.logger.Debug("merge inputs", "files", res.Files)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory holding the GAF files (default output_dir)")
	cmd.Flags().StringVar(&out, "out", "", "merged file (default <dir>/merged.gaf)")
	return cmd
}
