// Package storage persists collected records to MySQL.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/leadcrawl/pkg/models"
)

const businessesDDL = `
CREATE TABLE IF NOT EXISTS businesses (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  query VARCHAR(255) NOT NULL,
  name VARCHAR(255) NOT NULL,
  address VARCHAR(512) NULL,
  telephone VARCHAR(50) NULL,
  website VARCHAR(512) NULL,
  emails TEXT NULL,
  url TEXT NULL,
  scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  UNIQUE KEY uniq_query_name (query, name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

const upsertBusiness = `
INSERT INTO businesses (query, name, address, telephone, website, emails, url, scraped_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  address=VALUES(address),
  telephone=VALUES(telephone),
  website=VALUES(website),
  emails=VALUES(emails),
  url=VALUES(url),
  scraped_at=VALUES(scraped_at);`

// MySQLStore upserts records keyed by search query and business name.
type MySQLStore struct {
	db *sql.DB
}

// ParseDSN validates dsn and forces the settings the schema relies on.
func ParseDSN(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}
	return cfg, nil
}

// Open connects to dsn, verifies the connection and creates the table.
func Open(ctx context.Context, dsn string) (*MySQLStore, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to %s: %w", cfg.Addr, err)
	}
	if _, err := db.ExecContext(ctx, businessesDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create businesses table: %w", err)
	}

	log.Debug().Str("addr", cfg.Addr).Str("db", cfg.DBName).Msg("MySQL store ready")
	return &MySQLStore{db: db}, nil
}

// Save upserts records found for query. Records without a name are skipped.
func (s *MySQLStore) Save(ctx context.Context, query string, records []models.BusinessRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertBusiness)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	saved := 0
	for _, rec := range records {
		args, ok := rowArgs(query, rec)
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("store %q: %w", rec.Name, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return saved, nil
}

// Close releases the connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func rowArgs(query string, rec models.BusinessRecord) ([]any, bool) {
	if !models.Found(rec.Name) {
		return nil, false
	}
	at := rec.CollectedAt
	if at.IsZero() {
		at = time.Now()
	}
	return []any{
		strings.TrimSpace(query),
		strings.TrimSpace(rec.Name),
		nullString(rec.Address),
		nullString(rec.Phone),
		nullString(rec.Website),
		nullString(strings.Join(rec.Emails, "; ")),
		nullString(rec.DetailURL),
		at,
	}, true
}

// nullString maps empty and not-found values to NULL.
func nullString(value string) sql.NullString {
	if !models.Found(value) {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.TrimSpace(value), Valid: true}
}
