// Package tsv reads the line-oriented, tab-delimited files shared by the
// annotation formats. Every line comes back tagged as a header, a data row or
// a malformed row so callers handle each case explicitly.
package tsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrColumnCount       = errors.New("wrong column count")
	ErrUndeclaredVersion = errors.New("format version not declared")
	ErrUnknownVersion    = errors.New("unsupported format version")
	ErrBadValue          = errors.New("bad value")
)

// ParseError locates a failure on one input line. Column is 1-based; zero
// means the line as a whole.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("line %d: column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Kind tags a Line.
type Kind int

const (
	KindHeader Kind = iota + 1
	KindData
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindData:
		return "data"
	case KindMalformed:
		return "malformed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Line is one non-blank physical line. Fields is set for data lines, Err for
// malformed ones and Text always holds the raw line.
type Line struct {
	Kind   Kind
	Number int
	Text   string
	Fields []string
	Err    *ParseError
}

// Malformed builds a malformed line from a data line and its failure.
func (l Line) Malformed(column int, err error) Line {
	return Line{
		Kind:   KindMalformed,
		Number: l.Number,
		Text:   l.Text,
		Err:    &ParseError{Line: l.Number, Column: column, Err: err},
	}
}

// Reader splits input into tagged lines. Lines starting with the comment
// marker are headers; "key: value" headers seen before the first data line
// are kept as directives.
type Reader struct {
	sc         *bufio.Scanner
	comment    string
	number     int
	line       Line
	seenData   bool
	directives map[string]string
	// isHeader classifies extra non-comment header lines, such as a
	// column-title row.
	isHeader func(fields []string) bool
}

// NewReader reads lines from r, treating lines that start with comment as
// headers.
func NewReader(r io.Reader, comment string) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	return &Reader{sc: sc, comment: comment, directives: make(map[string]string)}
}

// HeaderFunc marks non-comment lines for which fn returns true as headers.
func (r *Reader) HeaderFunc(fn func(fields []string) bool) {
	r.isHeader = fn
}

// Next advances to the next non-blank line.
func (r *Reader) Next() bool {
	for r.sc.Scan() {
		r.number++
		text := strings.TrimRight(r.sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if strings.HasPrefix(text, r.comment) {
			if !r.seenData {
				r.directive(text)
			}
			r.line = Line{Kind: KindHeader, Number: r.number, Text: text}
			return true
		}
		fields := strings.Split(text, "\t")
		if r.isHeader != nil && r.isHeader(fields) {
			r.line = Line{Kind: KindHeader, Number: r.number, Text: text}
			return true
		}
		r.seenData = true
		r.line = Line{Kind: KindData, Number: r.number, Text: text, Fields: fields}
		return true
	}
	return false
}

// Line returns the current line.
func (r *Reader) Line() Line { return r.line }

// Err returns the first read error, if any.
func (r *Reader) Err() error { return r.sc.Err() }

// Directive returns the value of a "!key: value" header seen before the
// first data line. Keys are matched case-insensitively.
func (r *Reader) Directive(key string) (string, bool) {
	v, ok := r.directives[strings.ToLower(key)]
	return v, ok
}

func (r *Reader) directive(text string) {
	body := strings.TrimSpace(strings.TrimLeft(text, r.comment))
	k, v, ok := strings.Cut(body, ":")
	if !ok {
		return
	}
	k = strings.ToLower(strings.TrimSpace(k))
	if _, seen := r.directives[k]; seen {
		return
	}
	r.directives[k] = strings.TrimSpace(v)
}

// CheckColumns fails with ErrColumnCount unless fields has exactly n entries.
func CheckColumns(fields []string, n int) error {
	if len(fields) != n {
		return fmt.Errorf("%w: got %d, want %d", ErrColumnCount, len(fields), n)
	}
	return nil
}

// CheckCell fails with ErrBadValue when s would split the row or the line
// it is written into.
func CheckCell(s string) error {
	if strings.ContainsAny(s, "\t\r\n") {
		return fmt.Errorf("%w: %q contains a tab or line break", ErrBadValue, s)
	}
	return nil
}

// CheckItems fails with ErrBadValue unless every item reads back unchanged
// through SplitMulti once joined with one of seps.
func CheckItems(items []string, seps string) error {
	for _, it := range items {
		if it == "" || strings.TrimSpace(it) != it || strings.ContainsAny(it, seps) {
			return fmt.Errorf("%w: list item %q", ErrBadValue, it)
		}
		if err := CheckCell(it); err != nil {
			return err
		}
	}
	return nil
}

// SplitMulti splits a cell on any of the separators, dropping empty items.
func SplitMulti(s string, seps string) []string {
	var out []string
	for _, item := range strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	}) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
