// Package merge concatenates the GAF files of a directory into one.
package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/gaf"
	"gopreprocess/internal/tsv"
)

// ErrNoInputs means the directory holds no GAF files.
var ErrNoInputs = errors.New("no gaf files to merge")

type Options struct {
	Dir         string
	OutPath     string
	GeneratedBy string
	Date        time.Time
	StrictParse bool
	Logger      *log.Logger
}

type Result struct {
	Files     []string
	Records   int
	Malformed int
}

// Inputs lists the *.gaf and *.gaf.gz files of dir in lexical order. When
// both x.gaf and x.gaf.gz exist only x.gaf is listed. exclude is skipped.
func Inputs(dir, exclude string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	plain := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		switch {
		case strings.HasSuffix(n, ".gaf"):
			plain[n] = true
			names = append(names, n)
		case strings.HasSuffix(n, ".gaf.gz"):
			names = append(names, n)
		}
	}
	sort.Strings(names)

	var files []string
	excludeAbs, _ := filepath.Abs(exclude)
	for _, n := range names {
		if strings.HasSuffix(n, ".gz") && plain[strings.TrimSuffix(n, ".gz")] {
			continue
		}
		p := filepath.Join(dir, n)
		if abs, _ := filepath.Abs(p); exclude != "" && abs == excludeAbs {
			continue
		}
		files = append(files, p)
	}
	return files, nil
}

// Files merges every GAF of opts.Dir into opts.OutPath as GAF 2.2 under one
// generated header. Source headers are dropped.
func Files(ctx context.Context, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.GeneratedBy == "" {
		opts.GeneratedBy = "GO_Central preprocess pipeline: merged annotations"
	}
	if opts.Date.IsZero() {
		opts.Date = time.Now()
	}
	files, err := Inputs(opts.Dir, opts.OutPath)
	if err != nil {
		return Result{}, err
	}
	if len(files) == 0 {
		return Result{}, fmt.Errorf("%s: %w", opts.Dir, ErrNoInputs)
	}

	out, err := tsv.Create(opts.OutPath)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if out != nil {
			out.Close()
		}
	}()
	w := gaf.NewWriter(out, gaf.Version22)
	if err := w.WriteHeader(annotation.Header{GeneratedBy: opts.GeneratedBy, Date: opts.Date}); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", opts.OutPath, err)
	}

	res := Result{Files: files}
	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, bad, err := copyRecords(p, w, opts.StrictParse)
		res.Records += n
		res.Malformed += bad
		if err != nil {
			return res, err
		}
		logger.Debug("merged file", "path", p, "records", n, "malformed", bad)
	}
	if err := w.Flush(); err != nil {
		return res, fmt.Errorf("write %s: %w", opts.OutPath, err)
	}
	err = out.Close()
	out = nil
	if err != nil {
		return res, fmt.Errorf("close %s: %w", opts.OutPath, err)
	}
	logger.Info("merged gaf files", "files", len(files), "records", res.Records, "path", opts.OutPath)
	return res, nil
}

func copyRecords(path string, w *gaf.Writer, strict bool) (n, malformed int, err error) {
	in, err := tsv.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer in.Close()
	r := gaf.NewReader(in, gaf.Options{})
	for r.Next() {
		switch l := r.Line(); l.Kind {
		case tsv.KindData:
			if err := w.Write(r.Record()); err != nil {
				return n, malformed, fmt.Errorf("%s: line %d: %w", path, l.Number, err)
			}
			n++
		case tsv.KindMalformed:
			malformed++
			if strict {
				return n, malformed, fmt.Errorf("%s: %w", path, l.Err)
			}
		case tsv.KindHeader:
		}
	}
	if err := r.Err(); err != nil {
		return n, malformed, fmt.Errorf("read %s: %w", path, err)
	}
	return n, malformed, nil
}
