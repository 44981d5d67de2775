package tsv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading, decompressing it when the name ends in ".gz".
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := pgzip.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip reader %s: %w", path, err)
	}
	return &readCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
}

type writeCloser struct {
	*bufio.Writer
	zw *pgzip.Writer
	f  *os.File
}

func (wc *writeCloser) Close() error {
	err := wc.Writer.Flush()
	if wc.zw != nil {
		if zerr := wc.zw.Close(); err == nil {
			err = zerr
		}
	}
	if ferr := wc.f.Close(); err == nil {
		err = ferr
	}
	return err
}

// Create truncates or creates path for buffered writing, compressing the
// output when the name ends in ".gz". Close flushes every layer.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	wc := &writeCloser{f: f}
	var out io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		wc.zw, err = pgzip.NewWriterLevel(f, pgzip.BestSpeed)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create gzip writer %s: %w", path, err)
		}
		out = wc.zw
	}
	wc.Writer = bufio.NewWriter(out)
	return wc, nil
}
