package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/law-makers/leadcrawl/pkg/models"
)

func TestParseDSN(t *testing.T) {
	cfg, err := ParseDSN("leads:secret@tcp(127.0.0.1:3306)/leadcrawl")
	if err != nil {
		t.Fatalf("ParseDSN: %v", err)
	}
	if !cfg.ParseTime {
		t.Errorf("parseTime must be forced on")
	}
	if cfg.Params["charset"] != "utf8mb4" {
		t.Errorf("charset = %q", cfg.Params["charset"])
	}

	cfg, err = ParseDSN("leads:secret@tcp(127.0.0.1:3306)/leadcrawl?charset=latin1")
	if err != nil {
		t.Fatalf("ParseDSN: %v", err)
	}
	if cfg.Params["charset"] != "latin1" {
		t.Errorf("an explicit charset must be kept, got %q", cfg.Params["charset"])
	}

	if _, err := ParseDSN("not a dsn"); err == nil {
		t.Errorf("expected an error for a malformed dsn")
	}
}

func TestOpenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := Open(ctx, "leads:secret@tcp(127.0.0.1:1)/leadcrawl?timeout=500ms"); err == nil {
		t.Errorf("expected a connection error")
	}
}

func TestRowArgs(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	args, ok := rowArgs(" bakery Istanbul ", models.BusinessRecord{
		Name:        "Lezzet Fırını",
		Address:     models.NotFound,
		Phone:       "+90 216 555 01 02",
		Website:     models.NotFound,
		Emails:      []string{"a@lezzetfirini.com.tr", "b@lezzetfirini.com.tr"},
		DetailURL:   "https://www.google.com/maps/place/x",
		CollectedAt: at,
	})
	if !ok {
		t.Fatal("named record must be stored")
	}
	if args[0] != "bakery Istanbul" {
		t.Errorf("query = %v", args[0])
	}
	if args[2].(sql.NullString).Valid {
		t.Errorf("not found address must be NULL")
	}
	if got := args[5].(sql.NullString); got.String != "a@lezzetfirini.com.tr; b@lezzetfirini.com.tr" {
		t.Errorf("emails = %q", got.String)
	}
	if args[7] != at {
		t.Errorf("collected at = %v", args[7])
	}

	if _, ok := rowArgs("q", models.BusinessRecord{Name: models.NotFound}); ok {
		t.Errorf("records without a name must be skipped")
	}
	if args, _ := rowArgs("q", models.BusinessRecord{Name: "X Y Z"}); args[5].(sql.NullString).Valid {
		t.Errorf("no e-mails must be NULL")
	}
}
