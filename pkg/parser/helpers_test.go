package parser

import (
	"bytes"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// workbook builds an in-memory xlsx whose rows start at column B, the way the
// BTG exports leave column A empty. A non-empty password encrypts it.
func workbook(t *testing.T, password string, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, r := range rows {
		ref, err := excelize.CoordinatesToCellName(2, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", ref, &row))
	}

	var buf bytes.Buffer
	if password != "" {
		require.NoError(t, f.Write(&buf, excelize.Options{Password: password}))
	} else {
		require.NoError(t, f.Write(&buf))
	}
	return buf.Bytes()
}
