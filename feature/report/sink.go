package report

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ledger-recon/core/reconcile"

	"go.uber.org/zap"
)

// Supported report extensions.
const (
	ExtXLSX = ".xlsx"
	ExtCSV  = ".csv"
	ExtJSON = ".json"
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
)

// ContentType returns the MIME type for a report path.
func ContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExtCSV:
		return "text/csv"
	case ExtJSON:
		return "application/json"
	case ExtYAML, ExtYML:
		return "application/yaml"
	}
	return "application/octet-stream"
}

// Supported reports whether the path extension has a renderer.
func Supported(path string) bool {
	return ContentType(path) != "application/octet-stream"
}

// FileSink renders a report to a local file. The format follows the file
// extension.
type FileSink struct {
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// NewFileSink creates a sink writing to path.
func NewFileSink(path string, logger *zap.Logger) *FileSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSink{path: path, logger: logger, now: time.Now}
}

var (
	_ reconcile.Sink   = (*FileSink)(nil)
	_ reconcile.Target = (*FileSink)(nil)
)

// Target implements reconcile.Target.
func (s *FileSink) Target() string {
	return s.path
}

// Render implements reconcile.Sink.
func (s *FileSink) Render(ctx context.Context, r *reconcile.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.path == "" {
		return &reconcile.ReportGenerationError{Err: fmt.Errorf("report path is empty")}
	}
	if !Supported(s.path) {
		return &reconcile.ReportGenerationError{Path: s.path, Err: fmt.Errorf("unsupported report format %q", filepath.Ext(s.path))}
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &reconcile.ReportGenerationError{Path: s.path, Err: err}
		}
	}

	generatedAt := s.now()
	if err := s.write(r, generatedAt); err != nil {
		return &reconcile.ReportGenerationError{Path: s.path, Err: err}
	}

	s.logger.Info("Report written",
		zap.String("run_id", r.RunID),
		zap.String("path", s.path),
		zap.Int("forward", len(r.Forward)),
		zap.Int("backward", len(r.Backward)),
	)
	return nil
}

func (s *FileSink) write(r *reconcile.Report, generatedAt time.Time) error {
	ext := strings.ToLower(filepath.Ext(s.path))
	if ext == ExtXLSX {
		return writeXLSX(s.path, r, generatedAt)
	}

	fh, err := os.Create(s.path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(fh)

	doc := Document{GeneratedAt: generatedAt, Summary: Summarize(r, generatedAt), Report: r}
	switch ext {
	case ExtCSV:
		err = writeCSV(w, r)
	case ExtJSON:
		err = writeJSON(w, doc)
	default:
		err = writeYAML(w, doc)
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	return err
}
