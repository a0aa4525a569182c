package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/vitorcapdeville/financas/pkg/importer"
	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/parser"
)

// Processor imports bank exports found on disk. Arguments may be files,
// directories (not walked recursively) or glob patterns.
type Processor struct {
	importer   *importer.Importer
	extensions []string
	logger     *log.Logger
}

func NewProcessor(imp *importer.Importer, registry *parser.Registry, logger *log.Logger) *Processor {
	var exts []string
	for _, info := range registry.Describe() {
		for _, ext := range info.Extensions {
			if !slices.Contains(exts, ext) {
				exts = append(exts, ext)
			}
		}
	}
	return &Processor{importer: imp, extensions: exts, logger: logger}
}

// Collect expands paths into the list of importable files, sorted and
// without duplicates.
func (p *Processor) Collect(paths ...string) ([]string, error) {
	var out []string
	for _, arg := range paths {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files found matching pattern %s", arg)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				p.logger.Warn("failed to stat file", "error", err, "file", match)
				continue
			}
			if !info.IsDir() {
				out = append(out, match)
				continue
			}
			files, err := p.collectDirectory(match)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func (p *Processor) collectDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !p.supported(entry.Name()) {
			p.logger.Debug("skipping unsupported file", "file", entry.Name())
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	return out, nil
}

func (p *Processor) supported(name string) bool {
	return slices.Contains(p.extensions, strings.ToLower(filepath.Ext(name)))
}

// Process imports every file matched by paths. password applies to all files;
// when empty the user's CPF is tried.
func (p *Processor) Process(ctx context.Context, userID int64, password string, paths ...string) (*models.BatchResult, error) {
	files, err := p.Collect(paths...)
	if err != nil {
		return nil, err
	}

	batch := make([]importer.File, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		p.logger.Info("processing file", "path", path, "parser", parser.Detect(path))
		batch = append(batch, importer.File{Name: filepath.Base(path), Data: data, Password: password})
	}
	return p.importer.ImportFiles(ctx, batch, userID)
}
