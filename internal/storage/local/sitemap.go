// Package local writes crawl results to the local filesystem.
package local

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/sitemap-crawler/internal/crawler"
	"github.com/JakeFAU/sitemap-crawler/internal/metrics"
)

// DefaultIndent is one level of sitemap indentation.
const DefaultIndent = "\t"

// Config captures the parameters for the sitemap writer.
type Config struct {
	// Path is the output file. Existing content is kept; lines are appended.
	Path string `mapstructure:"path" yaml:"path"`
	// Indent is repeated once per depth level in front of each url.
	Indent string `mapstructure:"indent" yaml:"indent"`
}

// WriteReport summarizes a Write call.
type WriteReport struct {
	Written int
	Failed  int
}

// SitemapWriter appends one line per link to a text file.
type SitemapWriter struct {
	path   string
	indent string
	echo   io.Writer
	logger *zap.Logger
	open   func(path string) (io.WriteCloser, error)
}

// Option customizes a SitemapWriter.
type Option func(*SitemapWriter)

// WithEcho copies every written line to out.
func WithEcho(out io.Writer) Option {
	return func(w *SitemapWriter) {
		w.echo = out
	}
}

// WithLogger sets the logger used for line failures.
func WithLogger(logger *zap.Logger) Option {
	return func(w *SitemapWriter) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates the writer, making sure the parent directory exists.
func New(cfg Config, opts ...Option) (*SitemapWriter, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("output path is required")
	}
	if info, err := os.Stat(cfg.Path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("output path %q is a directory", cfg.Path)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}
	indent := cfg.Indent
	if indent == "" {
		indent = DefaultIndent
	}
	w := &SitemapWriter{
		path:   cfg.Path,
		indent: indent,
		logger: zap.NewNop(),
		open:   openAppend,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the output file path.
func (w *SitemapWriter) Path() string {
	return w.path
}

// Write sorts links by url then depth and appends one line per link. Each
// line is written by its own open-append-flush-close cycle; a failed line is
// logged and the remaining lines are still attempted.
func (w *SitemapWriter) Write(links []crawler.Link) WriteReport {
	sorted := append([]crawler.Link(nil), links...)
	crawler.SortLinks(sorted)

	var report WriteReport
	for _, link := range sorted {
		line := link.Line(w.indent)
		if err := w.appendLine(line); err != nil {
			report.Failed++
			metrics.ObserveOutputLine("error")
			w.logger.Error("Failed to write sitemap line",
				zap.String("url", link.URL()), zap.String("path", w.path), zap.Error(err))
			continue
		}
		report.Written++
		metrics.ObserveOutputLine("ok")
		if w.echo != nil {
			_, _ = io.WriteString(w.echo, line)
		}
	}
	return report
}

func (w *SitemapWriter) appendLine(line string) (err error) {
	f, err := w.open(w.path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	buf := bufio.NewWriter(f)
	if _, err := buf.WriteString(line); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush line: %w", err)
	}
	return nil
}

func openAppend(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path comes from operator config.
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return f, nil
}
