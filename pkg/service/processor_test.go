package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitorcapdeville/financas/pkg/importer"
	"github.com/vitorcapdeville/financas/pkg/parser"
	"github.com/vitorcapdeville/financas/pkg/store/memory"
)

func newProcessor() *Processor {
	logger := log.New(io.Discard)
	registry := parser.DefaultRegistry(logger)
	return NewProcessor(importer.New(registry, memory.New(), logger), registry, logger)
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeFiles(t, dir, map[string]string{
		"a.csv":     "",
		"b.xlsx":    "",
		"notes.md":  "",
		"c.CSV":     "",
		"other.pdf": "",
	})
	writeFiles(t, filepath.Join(dir, "nested"), map[string]string{"d.csv": ""})

	p := newProcessor()

	files, err := p.Collect(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.xlsx"),
		filepath.Join(dir, "c.CSV"),
	}, files)

	// explicit files are taken as given, duplicates collapse
	files, err = p.Collect(filepath.Join(dir, "notes.md"), filepath.Join(dir, "*.csv"), filepath.Join(dir, "a.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "notes.md")}, files)

	_, err = p.Collect(filepath.Join(dir, "*.ofx"))
	assert.ErrorContains(t, err, "no files found")
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"planilha.csv":          "data,descricao,valor,origem\n10/01/2024,Padaria,-12.00,extrato_bancario\n",
		"Nubank_2026-01-06.csv": "date,title,amount\n2026-01-02,Uber,23.45\n2026-01-03,iFood,40.00\n",
		"broken.csv":            "data,descricao\n",
	})

	batch, err := newProcessor().Process(context.Background(), 0, "", dir)
	require.NoError(t, err)
	assert.Equal(t, 3, batch.TotalFiles)
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, 3, batch.TotalImported)
}
