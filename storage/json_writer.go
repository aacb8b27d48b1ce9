package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"goldrate-scraper/models"
)

// Dump is the JSON output file layout.
type Dump struct {
	Data    []models.PriceDocument `json:"data"`
	Summary *models.ScrapeSummary  `json:"summary"`
}

// WriteJSON writes records and summary to path as indented UTF-8 JSON,
// creating parent directories.
func WriteJSON(path string, records []models.PriceRecord, summary *models.ScrapeSummary) error {
	dump := Dump{
		Data:    make([]models.PriceDocument, 0, len(records)),
		Summary: summary,
	}
	for _, r := range records {
		dump.Data = append(dump.Data, r.Document())
	}

	b, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("json: encode: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("json: create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, append(b, '\n'), 0644); err != nil {
		return fmt.Errorf("json: write %q: %w", path, err)
	}
	return nil
}
