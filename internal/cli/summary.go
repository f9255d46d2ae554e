package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/law-makers/leadcrawl/internal/ui"
	"github.com/law-makers/leadcrawl/pkg/models"
)

// fieldCounts tallies how many records carry each optional field.
type fieldCounts struct {
	Total   int
	Address int
	Phone   int
	Website int
	Email   int
}

func countFields(records []models.BusinessRecord) fieldCounts {
	c := fieldCounts{Total: len(records)}
	for _, r := range records {
		if models.Found(r.Address) {
			c.Address++
		}
		if models.Found(r.Phone) {
			c.Phone++
		}
		if models.Found(r.Website) {
			c.Website++
		}
		if len(r.Emails) > 0 {
			c.Email++
		}
	}
	return c
}

// printRecords lists the collected businesses in aligned columns.
func printRecords(w io.Writer, records []models.BusinessRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ui.Bold("Name"), ui.Bold("Phone"), ui.Bold("Website"), ui.Bold("E-mails"))
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			truncate(r.Name, 32),
			r.Phone,
			truncate(r.Website, 36),
			strings.Join(r.Emails, ", "))
	}
	tw.Flush()
}

func printSummary(w io.Writer, records []models.BusinessRecord, file string, elapsed time.Duration) {
	c := countFields(records)
	ratio := func(n int) string {
		if c.Total == 0 {
			return "0"
		}
		return fmt.Sprintf("%d (%d%%)", n, n*100/c.Total)
	}

	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "\n%s\n", ui.Bold("Summary:"))
	fmt.Fprintf(w, "  %s %s\n", ui.Bold("Businesses:"), ui.Success(fmt.Sprintf("%d", c.Total)))
	fmt.Fprintln(w, ui.Field("With address", ratio(c.Address)))
	fmt.Fprintln(w, ui.Field("With phone", ratio(c.Phone)))
	fmt.Fprintln(w, ui.Field("With website", ratio(c.Website)))
	fmt.Fprintln(w, ui.Field("With e-mail", ratio(c.Email)))
	fmt.Fprintln(w, ui.Field("Duration", elapsed.Round(time.Second).String()))
	if file != "" {
		fmt.Fprintln(w, ui.Field("Saved to", file))
	}
}
