// Package compare counts annotations of two files by chosen columns and
// reports how the counts differ.
package compare

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"gopreprocess/internal/annotation"
	"gopreprocess/internal/gaf"
	"gopreprocess/internal/gpad"
	"gopreprocess/internal/tsv"
)

// Group-by column names.
const (
	EvidenceCode = "Evidence_code"
	GOID         = "GO_ID"
	Aspect       = "Aspect"
	AssignedBy   = "Assigned_By"
	Taxon        = "Taxon"
	DB           = "DB"
)

var columns = map[string]func(annotation.Record) string{
	EvidenceCode: func(r annotation.Record) string {
		if code, err := annotation.EvidenceToGAF(r.Evidence.Type); err == nil {
			return code
		}
		return r.Evidence.Type.String()
	},
	GOID:       func(r annotation.Record) string { return r.Object.ID.String() },
	Aspect:     func(r annotation.Record) string { return string(r.AspectOrDefault()) },
	AssignedBy: func(r annotation.Record) string { return r.ProvidedBy },
	Taxon: func(r annotation.Record) string {
		if !r.Subject.Taxon.IsZero() {
			return r.Subject.Taxon.String()
		}
		return r.Object.Taxon.String()
	},
	DB: func(r annotation.Record) string { return r.Subject.ID.Namespace },
}

// Columns lists the supported group-by column names.
func Columns() []string {
	names := make([]string, 0, len(columns))
	for k := range columns {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DefaultGroupBy is used when no column is named.
func DefaultGroupBy() []string {
	return []string{EvidenceCode}
}

type Options struct {
	File1 string
	File2 string
	// OutputPrefix names <prefix>_summary.tsv. Empty skips the file.
	OutputPrefix        string
	GroupBy             []string
	RestrictToDecreases bool
	Logger              *log.Logger
}

// Row is one group and its count in each file.
type Row struct {
	Key    []string
	Count1 int
	Count2 int
}

func (r Row) Delta() int { return r.Count2 - r.Count1 }

type Result struct {
	GroupBy []string
	Total1  int
	Total2  int
	Rows    []Row
}

// Compare reads both files and groups their records. Malformed lines are
// skipped and logged.
func Compare(ctx context.Context, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	groupBy := opts.GroupBy
	if len(groupBy) == 0 {
		groupBy = DefaultGroupBy()
	}
	for _, c := range groupBy {
		if _, ok := columns[c]; !ok {
			return Result{}, fmt.Errorf("unknown group-by column %q (want one of %s)", c, strings.Join(Columns(), ", "))
		}
	}

	res := Result{GroupBy: slices.Clone(groupBy)}
	counts := make(map[string]*Row)
	for i, path := range []string{opts.File1, opts.File2} {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		n, err := Each(path, logger, func(rec annotation.Record) {
			key := make([]string, len(groupBy))
			for j, c := range groupBy {
				key[j] = columns[c](rec)
			}
			k := strings.Join(key, "\t")
			row, ok := counts[k]
			if !ok {
				row = &Row{Key: key}
				counts[k] = row
			}
			if i == 0 {
				row.Count1++
			} else {
				row.Count2++
			}
		})
		if err != nil {
			return Result{}, err
		}
		if i == 0 {
			res.Total1 = n
		} else {
			res.Total2 = n
		}
	}

	for _, row := range counts {
		if opts.RestrictToDecreases && row.Delta() >= 0 {
			continue
		}
		res.Rows = append(res.Rows, *row)
	}
	sort.Slice(res.Rows, func(i, j int) bool {
		return slices.Compare(res.Rows[i].Key, res.Rows[j].Key) < 0
	})

	if opts.OutputPrefix != "" {
		if err := writeSummary(opts.OutputPrefix+"_summary.tsv", res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Format is an annotation file format recognised from its header.
type Format string

const (
	FormatGAF  Format = "gaf"
	FormatGPAD Format = "gpad"
)

// Detect reads the header block of path and names its format.
func Detect(path string) (Format, error) {
	in, err := tsv.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()
	r := tsv.NewReader(in, "!")
	for r.Next() {
		if r.Line().Kind != tsv.KindHeader {
			break
		}
	}
	if err := r.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if _, ok := r.Directive("gaf-version"); ok {
		return FormatGAF, nil
	}
	if _, ok := r.Directive("gpa-version"); ok {
		return FormatGPAD, nil
	}
	if _, ok := r.Directive("gpad-version"); ok {
		return FormatGPAD, nil
	}
	return "", fmt.Errorf("%s: %w", path, tsv.ErrUndeclaredVersion)
}

// recordReader is the part of the gaf and gpad readers Each needs.
type recordReader interface {
	Next() bool
	Line() tsv.Line
	Record() annotation.Record
	Err() error
}

// Each calls fn for every valid record of a GAF or GPAD file and returns
// how many there were.
func Each(path string, logger *log.Logger, fn func(annotation.Record)) (int, error) {
	format, err := Detect(path)
	if err != nil {
		return 0, err
	}
	in, err := tsv.Open(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	var r recordReader
	if format == FormatGAF {
		r = gaf.NewReader(in, gaf.Options{})
	} else {
		r = gpad.NewReader(in, gpad.Options{})
	}
	n := 0
	for r.Next() {
		switch l := r.Line(); l.Kind {
		case tsv.KindData:
			n++
			fn(r.Record())
		case tsv.KindMalformed:
			logger.Debug("skipping malformed line", "path", path, "line", l.Number, "err", l.Err)
		case tsv.KindHeader:
		}
	}
	if err := r.Err(); err != nil {
		return n, fmt.Errorf("read %s: %w", path, err)
	}
	return n, nil
}

func writeSummary(path string, res Result) error {
	out, err := tsv.Create(path)
	if err != nil {
		return err
	}
	head := append(slices.Clone(res.GroupBy), "file1", "file2", "difference")
	if _, err := io.WriteString(out, strings.Join(head, "\t")+"\n"); err != nil {
		out.Close()
		return err
	}
	for _, row := range res.Rows {
		cells := append(slices.Clone(row.Key), strconv.Itoa(row.Count1), strconv.Itoa(row.Count2), strconv.Itoa(row.Delta()))
		if _, err := io.WriteString(out, strings.Join(cells, "\t")+"\n"); err != nil {
			out.Close()
			return err
		}
	}
	return out.Close()
}
