package storage

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"goldrate-scraper/models"
)

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "prices.json")
	records := makeRecords(2)
	summary := &models.ScrapeSummary{RunID: "run-1", TotalEntries: 2}

	require.NoError(t, WriteJSON(path, records, summary))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &got))
	require.Contains(t, got, "data")
	require.Contains(t, got, "summary")

	var data []map[string]any
	require.NoError(t, json.Unmarshal(got["data"], &data))
	require.Len(t, data, 2)
	require.Equal(t, 9000.0, data[0]["price"])
	require.Equal(t, "22K", data[0]["karat"])
	require.Nil(t, data[0]["source_url"])
}

func TestWriteJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, WriteJSON(path, nil, &models.ScrapeSummary{}))

	var dump struct {
		Data []any `json:"data"`
	}
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &dump))
	require.NotNil(t, dump.Data)
	require.Empty(t, dump.Data)
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prices.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	records := makeRecords(3)
	records[0].SourceURL = "https://example.com"
	require.NoError(t, w.Write(records))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, []string{"retailer", "city", "karat", "price", "date", "source_url", "captured_at"}, rows[0])
	require.Equal(t, "9000.00", rows[1][3])
	require.Equal(t, "https://example.com", rows[1][5])
	require.Equal(t, "2020-01-03", rows[3][4])
}
