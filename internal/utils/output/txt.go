package output

import (
	"bufio"
	"fmt"
	"os"

	"github.com/law-makers/leadcrawl/pkg/models"
)

// SaveTXT is the last-resort format: one "Column: value" block per record.
func SaveTXT(records []models.BusinessRecord, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, rec := range records {
		for i, v := range Row(rec) {
			fmt.Fprintf(w, "%s: %s\n", Columns[i], v)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
