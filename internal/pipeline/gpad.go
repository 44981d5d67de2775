package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"gopreprocess/internal/config"
	"gopreprocess/internal/gpad"
	"gopreprocess/internal/tsv"
)

// GPADOptions configures ConvertGPAD.
type GPADOptions struct {
	InPath  string
	OutPath string
	// TargetVersion is the version written.
	TargetVersion gpad.Version
	// SourceVersion applies when the input declares no version.
	SourceVersion gpad.Version

	StrictParse bool
	DryRun      bool
	GeneratedBy string
	Date        time.Time
	Logger      *log.Logger
}

// ConvertGPAD rewrites a GPAD file in another version, one output row per
// valid input row, in input order.
func ConvertGPAD(ctx context.Context, opts GPADOptions) (Report, error) {
	if err := requireFiles(input{"in", opts.InPath}); err != nil {
		return Report{}, err
	}
	if opts.OutPath == "" && !opts.DryRun {
		return Report{}, &config.ConfigError{Field: "out", Reason: "required"}
	}
	if _, err := gpad.ParseVersion(string(opts.TargetVersion)); err != nil {
		return Report{}, &config.ConfigError{Field: "version", Reason: err.Error()}
	}
	logger := orDiscard(opts.Logger)
	if opts.GeneratedBy == "" {
		opts.GeneratedBy = "GO_Central preprocess pipeline: noctua GPAD transformation"
	}
	rep := Report{Name: "convert_gpad"}
	policy := &malformedPolicy{strict: opts.StrictParse, logger: logger}

	in, err := tsv.Open(opts.InPath)
	if err != nil {
		return rep, err
	}
	defer in.Close()

	var (
		wc io.WriteCloser
		w  *gpad.Writer
	)
	if !opts.DryRun {
		if err := os.MkdirAll(filepath.Dir(opts.OutPath), 0o755); err != nil {
			return rep, err
		}
		if wc, err = tsv.Create(opts.OutPath); err != nil {
			return rep, err
		}
		defer func() {
			if wc != nil {
				wc.Close()
			}
		}()
		w = gpad.NewWriter(wc, opts.TargetVersion)
		if err := w.WriteHeader(header(opts.GeneratedBy, opts.Date)); err != nil {
			return rep, fmt.Errorf("write %s: %w", opts.OutPath, err)
		}
	}

	r := gpad.NewReader(in, gpad.Options{DefaultVersion: opts.SourceVersion})
	for r.Next() {
		switch l := r.Line(); l.Kind {
		case tsv.KindData:
			rep.Read++
			if rep.Read%4096 == 0 {
				if err := ctx.Err(); err != nil {
					return rep, err
				}
			}
			if w == nil {
				continue
			}
			if err := w.Write(r.Record()); err != nil {
				return rep, fmt.Errorf("write %s: line %d: %w", opts.OutPath, l.Number, err)
			}
			rep.Written++
		case tsv.KindMalformed:
			rep.Malformed++
			if err := policy.handle(opts.InPath, l); err != nil {
				return rep, err
			}
		case tsv.KindHeader:
		}
	}
	if err := r.Err(); err != nil {
		return rep, fmt.Errorf("read %s: %w", opts.InPath, err)
	}
	rep.addInput(opts.InPath, rep.Read, rep.Malformed)
	if rep.Read == 0 {
		return rep, fmt.Errorf("%s: %w", opts.InPath, ErrNoRecords)
	}
	if w != nil {
		if err := w.Flush(); err != nil {
			return rep, fmt.Errorf("write %s: %w", opts.OutPath, err)
		}
		err := wc.Close()
		wc = nil
		if err != nil {
			return rep, fmt.Errorf("close %s: %w", opts.OutPath, err)
		}
		rep.Outputs = []string{opts.OutPath}
	}
	logger.Debug("gpad versions", "from", r.Version(), "to", opts.TargetVersion)
	rep.Log(logger)
	return rep, nil
}
