package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() Table {
	return Table{
		Report:  "Payment_History",
		Headers: []string{"Receipt No", "Student", "Address", "Amount"},
		Rows: [][]any{
			{"DC-1000", "Sharma, Aarav", "12 \"Green\" Park\nDelhi", decimal.NewFromInt(45000)},
			{"DC-1001", "Ishani Gupta", "", decimal.RequireFromString("1500.50")},
		},
	}
}

func TestCSVQuotesDelimiters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Receipt No", "Student", "Address", "Amount"}, records[0])
	assert.Equal(t, "Sharma, Aarav", records[1][1])
	assert.Equal(t, "12 \"Green\" Park\nDelhi", records[1][2])
	assert.Equal(t, "45000", records[1][3])
	assert.Equal(t, "1500.5", records[2][3])
}

func TestXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Payment History")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Receipt No", rows[0][0])
	assert.Equal(t, "Sharma, Aarav", rows[1][1])
	assert.Equal(t, "45000", rows[1][3])
}

func TestRenderNamesFile(t *testing.T) {
	day := time.Date(2024, 8, 1, 15, 0, 0, 0, time.UTC)

	file, err := Render(sampleTable(), FormatCSV, day)
	require.NoError(t, err)
	assert.Equal(t, "Payment_History_2024-08-01.csv", file.Name)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	file, err = Render(sampleTable(), FormatXLSX, day)
	require.NoError(t, err)
	assert.Equal(t, "Payment_History_2024-08-01.xlsx", file.Name)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}
