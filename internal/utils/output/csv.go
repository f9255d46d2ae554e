package output

import (
	"encoding/csv"
	"os"

	"github.com/law-makers/leadcrawl/pkg/models"
)

// SaveCSV writes records as UTF-8 CSV with a header row.
func SaveCSV(records []models.BusinessRecord, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	// Spreadsheet programs need the BOM to detect UTF-8.
	if _, err := file.WriteString("\ufeff"); err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write(Row(rec)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
