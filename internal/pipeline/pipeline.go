// Package pipeline wires readers, the gene index, the ortholog resolver, the
// rewriters and the writers into the runs exposed by the command line.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/config"
	"gopreprocess/internal/gaf"
	"gopreprocess/internal/tsv"
)

// ErrNoRecords means an input produced no valid data lines at all.
var ErrNoRecords = errors.New("no valid records parsed")

// Report counts what a run did with its input. Read, Malformed and
// Filtered cover the annotation files only; Inputs has a tally per file.
type Report struct {
	Name          string
	Read          int
	Malformed     int
	Filtered      int
	Unconvertible int
	Written       int
	Outputs       []string
	Inputs        []InputCounts
}

// InputCounts tallies the data lines of one input file.
type InputCounts struct {
	Path      string
	Valid     int
	Malformed int
}

func (r *Report) addInput(path string, valid, malformed int) {
	r.Inputs = append(r.Inputs, InputCounts{Path: path, Valid: valid, Malformed: malformed})
}

// requireValid fails when an input had data lines but none of them parsed.
// An input without any data lines passes.
func requireValid(path string, valid, malformed int) error {
	if valid == 0 && malformed > 0 {
		return fmt.Errorf("%s: %w: all %d data lines malformed", path, ErrNoRecords, malformed)
	}
	return nil
}

var printer = message.NewPrinter(language.English)

// Log writes one summary line with grouped counts.
func (r Report) Log(logger *log.Logger) {
	logger.Info(r.Name+" finished",
		"read", printer.Sprintf("%d", r.Read),
		"malformed", printer.Sprintf("%d", r.Malformed),
		"filtered", printer.Sprintf("%d", r.Filtered),
		"unconvertible", printer.Sprintf("%d", r.Unconvertible),
		"written", printer.Sprintf("%d", r.Written),
		"outputs", r.Outputs,
	)
	for _, in := range r.Inputs {
		if in.Malformed > 0 {
			logger.Warn("skipped malformed lines", "path", in.Path,
				"valid", printer.Sprintf("%d", in.Valid),
				"malformed", printer.Sprintf("%d", in.Malformed))
		}
	}
}

// malformedPolicy skips and counts malformed lines per file, or aborts on
// the first one when strict.
type malformedPolicy struct {
	strict bool
	logger *log.Logger
	counts map[string]int
}

func (p *malformedPolicy) handle(path string, l tsv.Line) error {
	if p.counts == nil {
		p.counts = make(map[string]int)
	}
	p.counts[path]++
	if p.strict {
		return fmt.Errorf("%s: %w", path, l.Err)
	}
	p.logger.Debug("skipping malformed line", "path", path, "line", l.Number, "column", l.Err.Column, "err", l.Err.Err)
	return nil
}

func (p *malformedPolicy) count(path string) int { return p.counts[path] }

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard)
	}
	return logger
}

// input names a required file for error reporting.
type input struct {
	field, path string
}

// requireFiles reports the first input that is empty or missing.
func requireFiles(inputs ...input) error {
	for _, in := range inputs {
		if in.path == "" {
			return &config.ConfigError{Field: in.field, Reason: "required"}
		}
		if _, err := os.Stat(in.path); err != nil {
			return &config.ConfigError{Field: in.field, Reason: fmt.Sprintf("cannot read %s: %v", in.path, err)}
		}
	}
	return nil
}

func header(generatedBy string, date time.Time) annotation.Header {
	if date.IsZero() {
		date = time.Now()
	}
	return annotation.Header{GeneratedBy: generatedBy, Date: date}
}

// writeGAF writes recs as GAF 2.2 to every path. The run aborts on the
// first write error; files already written stay on disk.
func writeGAF(paths []string, h annotation.Header, recs []annotation.Record) error {
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := writeGAFFile(p, h, recs); err != nil {
			return err
		}
	}
	return nil
}

func writeGAFFile(path string, h annotation.Header, recs []annotation.Record) error {
	out, err := tsv.Create(path)
	if err != nil {
		return err
	}
	w := gaf.NewWriter(out, gaf.Version22)
	if err := w.WriteHeader(h); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			out.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// readGAF parses every record of a GAF file, keeping those accepted by keep.
func readGAF(path string, opts gaf.Options, policy *malformedPolicy, keep func(annotation.Record) bool) (recs []annotation.Record, read, filtered int, err error) {
	in, err := tsv.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer in.Close()

	r := gaf.NewReader(in, opts)
	for r.Next() {
		switch l := r.Line(); l.Kind {
		case tsv.KindData:
			read++
			rec := r.Record()
			if keep != nil && !keep(rec) {
				filtered++
				continue
			}
			recs = append(recs, rec)
		case tsv.KindMalformed:
			if err := policy.handle(path, l); err != nil {
				return nil, read, filtered, err
			}
		case tsv.KindHeader:
		}
	}
	if err := r.Err(); err != nil {
		return nil, read, filtered, fmt.Errorf("read %s: %w", path, err)
	}
	return recs, read, filtered, nil
}

// outputPaths names the plain and gzip copies of one GAF output.
func outputPaths(dir, name string) []string {
	base := filepath.Join(dir, name+".gaf")
	return []string{base, base + ".gz"}
}
