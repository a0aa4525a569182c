package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"-50.00", "-50.00"},
		{"-50", "-50.00"},
		{"1234.5", "1234.50"},
		{"R$ 1.234,56", "1234.56"},
		{"-1234,56", "-1234.56"},
		{"1,234.56", "1234.56"},
		{" 10,00 ", "10.00"},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.StringFixed(2), tt.in)
	}

	for _, bad := range []string{"", "abc", "R$"} {
		_, err := parseAmount(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("15/01/2024 10:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), d)

	d, err = parseDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d)

	// day-first wins over month-first
	d, err = parseDate("02/03/2024")
	require.NoError(t, err)
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 2, d.Day())

	// Excel serial date
	d, err = parseDate("45306")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", d.Format("2006-01-02"))

	_, err = parseDate("not a date", "02/01/2006")
	assert.Error(t, err)
	_, err = parseDate("")
	assert.Error(t, err)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		from time.Time
		n    int
		want time.Time
	}{
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 2, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC), 3, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), 0, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, addMonths(tt.from, tt.n), "%s + %d", tt.from.Format("2006-01-02"), tt.n)
	}
}

func TestReadSheet_CorruptInput(t *testing.T) {
	_, err := readSheet([]byte("definitely not a spreadsheet"), "")
	assert.Error(t, err)

	_, err = readSheet([]byte("PK\x03\x04garbage"), "")
	assert.Error(t, err)
}

func TestReadCSV_Semicolon(t *testing.T) {
	rows, err := readCSV([]byte("\xef\xbb\xbfdata;valor\n01/01/2024;-10,00\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"data", "valor"}, rows[0])
	assert.Equal(t, "-10,00", rows[1][1])
}
