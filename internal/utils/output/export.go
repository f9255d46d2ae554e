package output

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/leadcrawl/pkg/models"
)

type writer struct {
	ext  string
	save func([]models.BusinessRecord, string) error
}

// Replaced in tests.
var (
	saveXLSX = SaveXLSX
	saveCSV  = SaveCSV
	saveTXT  = SaveTXT
)

// DefaultFilename is a timestamped workbook name in the working directory.
func DefaultFilename(now time.Time) string {
	return fmt.Sprintf("leads_%s.xlsx", now.Format("20060102_150405"))
}

// Export writes records to path and returns the file actually written.
//
// ".json" is written as is. Otherwise the writer for the extension is tried
// first and failures fall back along xlsx, csv, txt, changing the extension
// of path to match. An empty path uses DefaultFilename.
func Export(records []models.BusinessRecord, path string) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}
	if path == "" {
		path = DefaultFilename(time.Now())
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		return path, SaveJSON(records, path)
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	var lastErr error
	for _, w := range ladder(ext) {
		target := base + w.ext
		err := w.save(records, target)
		if err == nil {
			log.Info().Str("file", target).Int("records", len(records)).Msg("Records exported")
			return target, nil
		}
		log.Warn().Err(err).Str("file", target).Msg("Export failed, trying the next format")
		lastErr = err
	}
	return "", fmt.Errorf("export failed in every format: %w", lastErr)
}

func ladder(ext string) []writer {
	all := []writer{
		{".xlsx", saveXLSX},
		{".csv", saveCSV},
		{".txt", saveTXT},
	}
	for i, w := range all {
		if w.ext == ext {
			return all[i:]
		}
	}
	return all
}
