package models

import (
	"strings"
	"time"
)

// NotFound marks a field that no extraction strategy could fill.
const NotFound = "not found"

// BusinessRecord is one processed feed item.
type BusinessRecord struct {
	DetailURL   string    `json:"detail_url"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Website     string    `json:"website"`
	Emails      []string  `json:"emails,omitempty"`
	CollectedAt time.Time `json:"collected_at"`
}

// EmailField renders the e-mail set the way exports expect it.
func (r BusinessRecord) EmailField() string {
	if len(r.Emails) == 0 {
		return NotFound
	}
	return strings.Join(r.Emails, "; ")
}

// Found reports whether a field value carries real data.
func Found(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NotFound
}

// DataOptions selects which optional fields are extracted per item.
type DataOptions struct {
	CollectAddress bool `json:"collect_address"`
	CollectPhone   bool `json:"collect_phone"`
	CollectWebsite bool `json:"collect_website"`
	CollectEmail   bool `json:"collect_email"`
}

// AllData enables every optional field.
func AllData() DataOptions {
	return DataOptions{
		CollectAddress: true,
		CollectPhone:   true,
		CollectWebsite: true,
		CollectEmail:   true,
	}
}

// Normalize returns a copy in which e-mail collection implies website collection.
// E-mails are harvested from the business website, so one cannot be had without the other.
func (o DataOptions) Normalize() DataOptions {
	if o.CollectEmail {
		o.CollectWebsite = true
	}
	return o
}

// RunConfig is everything a scraping run consumes.
type RunConfig struct {
	SearchTerm string      `json:"search_term"`
	Location   string      `json:"location"`
	MaxItems   int         `json:"max_items"`
	Options    DataOptions `json:"options"`
}

// Query builds the free-text search sent to the map provider.
func (c RunConfig) Query() string {
	term := strings.TrimSpace(c.SearchTerm)
	loc := strings.TrimSpace(c.Location)
	if loc == "" {
		return term
	}
	return term + " " + loc
}
