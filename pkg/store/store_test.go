package store

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitorcapdeville/financas/pkg/config"
	"github.com/vitorcapdeville/financas/pkg/store/memory"
)

func TestOpen(t *testing.T) {
	logger := log.New(io.Discard)

	s, closeFn, err := Open(config.DatabaseConfig{Driver: config.DriverMemory}, logger)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)
	assert.NoError(t, closeFn())

	_, _, err = Open(config.DatabaseConfig{Driver: "sqlite"}, logger)
	assert.ErrorContains(t, err, "unknown database driver")
}
