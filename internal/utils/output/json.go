package output

import (
	"encoding/json"
	"os"

	"github.com/law-makers/leadcrawl/pkg/models"
)

// SaveJSON writes records as an indented JSON array.
func SaveJSON(records []models.BusinessRecord, filepath string) error {
	if records == nil {
		records = []models.BusinessRecord{}
	}
	content, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, content, 0644)
}
