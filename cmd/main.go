package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"gopreprocess/internal/config"
	"gopreprocess/internal/download"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
}

// Write buffers bytes until a newline is found; each full line goes to the
// underlying writer with a timestamp. Partial lines stay in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			// keep the partial line for the next write
			t.buf.WriteString(line)
			break
		}
		ts := time.Now().Format(time.RFC3339)
		if _, err := t.w.Write([]byte(ts + " " + line)); err != nil {
			return n, err
		}
	}
	return n, nil
}

// terminalWriter exposes an Fd method so the logger can detect a TTY
// through wrapped writers.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// app holds what every subcommand shares once the root has run.
type app struct {
	configPath string
	verbose    bool
	dryRun     bool

	cfg     *config.Config
	logger  *log.Logger
	logFile *os.File
}

// setup loads configuration and builds the logger. Flags override config.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	var loggerOut io.Writer = os.Stderr
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			// write to both stderr and file so running interactively still shows logs
			loggerOut = io.MultiWriter(os.Stderr, f)
			a.logFile = f
		}
	}
	if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		_ = os.Setenv("FORCE_COLOR", "1")
	}
	tw := &timestampWriter{w: loggerOut}
	a.logger = log.New(&terminalWriter{w: tw, fd: os.Stderr.Fd()})

	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	} else {
		switch strings.ToLower(cfg.LogLevel) {
		case "debug":
			a.logger.SetLevel(log.DebugLevel)
		case "info", "":
			a.logger.SetLevel(log.InfoLevel)
		case "warn", "warning":
			a.logger.SetLevel(log.WarnLevel)
		case "error":
			a.logger.SetLevel(log.ErrorLevel)
		default:
			a.logger.SetLevel(log.InfoLevel)
			a.logger.Warn("unknown log_level in config, defaulting to info", "provided", cfg.LogLevel)
		}
	}
	if cfg.LogFile != "" && a.logFile == nil {
		a.logger.Warn("log_file specified but could not be opened; logging to stderr only", "path", cfg.LogFile)
	}
	a.logger.Debug("loaded config",
		"data_dir", cfg.DataDir, "output_dir", cfg.OutputDir, "datasets_file", cfg.DatasetsFile,
		"workers", cfg.Workers, "strict_parse", cfg.StrictParse, "cache_ttl_seconds", cfg.CacheTTLSecs,
		"s3_endpoint", cfg.S3Endpoint, "dry_run", a.dryRun)
	a.logger.Info("starting "+cmd.Name(), "version", version)
	return nil
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// fetcher builds the download collaborator from configuration. A dry run
// only sees files that are already on disk.
func (a *app) fetcher() (*download.Fetcher, error) {
	reg, err := config.LoadRegistry(a.cfg.DatasetsFile)
	if err != nil {
		return nil, err
	}
	opts := download.Options{
		DataDir: a.cfg.DataDir,
		TTL:     a.cfg.CacheTTL(),
		Timeout: a.cfg.DownloadTimeout(),
		Offline: a.dryRun,
		Logger:  a.logger,
	}
	if a.cfg.S3Endpoint != "" {
		if opts.S3, err = download.NewS3(a.cfg.S3Endpoint, a.cfg.S3AccessKey, a.cfg.S3SecretKey, a.cfg.S3UseSSL); err != nil {
			return nil, err
		}
	}
	return download.New(reg, opts), nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "gopreprocess",
		Short:             "Preprocess Gene Ontology annotation files",
		Long:              "gopreprocess transfers GO annotations between species through orthology,\nreassigns protein annotations to genes and converts between GAF and GPAD versions.",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config.json (optional)")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable verbose (debug) logging")
	root.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false, "use only downloaded inputs and write no outputs")

	root.AddCommand(
		newConvertAnnotationsCmd(a),
		newConvertP2GCmd(a),
		newConvertNoctuaCmd(a),
		newConvertGPADCmd(a),
		newDownloadCmd(a),
		newCompareCmd(a),
		newMergeCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		if a.logger != nil {
			a.logger.Error("run failed", "err", err)
		}
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		a.close()
		os.Exit(1)
	}
	a.close()
}
