// Package download fetches the remote inputs of the pipelines into a local
// data directory and remembers when each one was retrieved.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/pgzip"

	"gopreprocess/internal/config"
)

// httpClient performs requests; tests may replace it with a mock transport.
// Deadlines come from the caller's context.
var httpClient = &http.Client{}

var (
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrNotFound       = errors.New("remote file not found")
	ErrOffline        = errors.New("not downloaded yet and fetcher is offline")
)

// StatusError is a non-200 HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

type Options struct {
	DataDir string
	// TTL is how long a fetched file stays fresh. Zero keeps files forever.
	TTL time.Duration
	// Timeout bounds each fetch. Zero leaves the caller's context alone.
	Timeout time.Duration
	// S3 serves s3:// URLs. Nil makes them fail.
	S3 ObjectGetter
	// Offline serves files already on disk, however old, and never
	// touches the network.
	Offline bool
	Logger  *log.Logger
}

// Fetcher resolves dataset keys to local files.
type Fetcher struct {
	reg      *config.Registry
	opts     Options
	manifest *manifest
	now      func() time.Time
}

func New(reg *config.Registry, opts Options) *Fetcher {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Fetcher{
		reg:      reg,
		opts:     opts,
		manifest: &manifest{path: filepath.Join(opts.DataDir, manifestName)},
		now:      time.Now,
	}
}

// Fetch makes the dataset available under <data_dir>/<key>/ and returns the
// local path. A fresh earlier download is reused without touching the network.
func (f *Fetcher) Fetch(ctx context.Context, key string) (string, error) {
	d, ok := f.reg.Lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDataset, key)
	}
	if f.opts.Offline {
		if p, ok := f.manifest.fresh(key, d.URL, 0, f.now()); ok {
			return p, nil
		}
		return "", fmt.Errorf("%w: %s", ErrOffline, key)
	}
	if p, ok := f.manifest.fresh(key, d.URL, f.opts.TTL, f.now()); ok {
		f.opts.Logger.Debug("dataset is fresh", "key", key, "path", p)
		return p, nil
	}

	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	dest := filepath.Join(f.opts.DataDir, key, localName(d))
	start := time.Now()
	n, err := f.fetchTo(ctx, d, dest)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", key, err)
	}
	f.opts.Logger.Info("downloaded dataset", "key", key, "url", d.URL, "path", dest, "bytes", n, "duration_ms", time.Since(start).Milliseconds())

	if err := f.manifest.record(key, manifestEntry{URL: d.URL, Path: dest, RetrievedAt: f.now().Unix()}); err != nil {
		f.opts.Logger.Warn("could not update download manifest", "err", err)
	}
	return dest, nil
}

// Inputs are the files an ortholog transfer between two taxa reads.
type Inputs struct {
	Ortho     string
	SourceGAF string
	TargetGPI string
}

// FetchForTaxa fetches the orthology file, the source taxon's GAF and the
// target taxon's GPI.
func (f *Fetcher) FetchForTaxa(ctx context.Context, source, target string) (Inputs, error) {
	var in Inputs
	wants := []struct {
		kind, taxon string
		dst         *string
	}{
		{config.KindOrtho, "", &in.Ortho},
		{config.KindGAF, source, &in.SourceGAF},
		{config.KindGPI, target, &in.TargetGPI},
	}
	for _, w := range wants {
		d, ok := f.reg.Find(w.kind, w.taxon)
		if !ok {
			return Inputs{}, fmt.Errorf("%w: no %s dataset for %q", ErrUnknownDataset, w.kind, w.taxon)
		}
		p, err := f.Fetch(ctx, d.Key)
		if err != nil {
			return Inputs{}, err
		}
		*w.dst = p
	}
	return in, nil
}

func (f *Fetcher) fetchTo(ctx context.Context, d config.Dataset, dest string) (int64, error) {
	body, err := f.open(ctx, d.URL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	var src io.Reader = body
	if d.Gunzip {
		zr, err := pgzip.NewReader(body)
		if err != nil {
			return 0, fmt.Errorf("gunzip %s: %w", d.URL, err)
		}
		defer zr.Close()
		src = zr
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".partial-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return n, err
	}
	return n, nil
}

func (f *Fetcher) open(ctx context.Context, raw string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(raw, "s3://"):
		if f.opts.S3 == nil {
			return nil, fmt.Errorf("%s: no s3 endpoint configured", raw)
		}
		bucket, key, err := splitS3(raw)
		if err != nil {
			return nil, err
		}
		return f.opts.S3.GetObject(ctx, bucket, key)
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "gopreprocess/1.0")
		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, &StatusError{URL: raw, Code: resp.StatusCode}
		}
		return resp.Body, nil
	default:
		return nil, fmt.Errorf("unsupported url scheme: %s", raw)
	}
}

// localName is the file name a dataset is stored under: the last URL path
// element, minus .gz when the download is decompressed.
func localName(d config.Dataset) string {
	name := path.Base(d.URL)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == "." || name == "/" {
		name = strings.ToLower(d.Key) + "." + d.Kind
	}
	if d.Gunzip {
		name = strings.TrimSuffix(name, ".gz")
	}
	return name
}
