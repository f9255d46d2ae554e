// Package output writes collected business records to disk.
package output

import (
	"errors"
	"time"

	"github.com/law-makers/leadcrawl/pkg/models"
)

// ErrNoRecords is returned when there is nothing to export.
var ErrNoRecords = errors.New("no records to export")

// Columns is the header row shared by the tabular formats.
var Columns = []string{"Name", "Address", "Phone", "Website", "Emails", "Detail URL", "Collected At"}

// Row flattens rec in Columns order.
func Row(rec models.BusinessRecord) []string {
	collected := ""
	if !rec.CollectedAt.IsZero() {
		collected = rec.CollectedAt.Format(time.RFC3339)
	}
	return []string{
		rec.Name,
		rec.Address,
		rec.Phone,
		rec.Website,
		rec.EmailField(),
		rec.DetailURL,
		collected,
	}
}
