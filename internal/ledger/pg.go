// Package ledger mirrors the certificate ledger into Postgres so issued
// certificates survive a Redis wipe and can be queried with SQL.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"skillforge/api/internal/progress"
)

func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

type PG struct {
	db *sql.DB
}

func NewPG(db *sql.DB) *PG {
	return &PG{db: db}
}

func (p *PG) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS certificate_ledger (
			verification_code TEXT PRIMARY KEY,
			account_key       TEXT NOT NULL,
			course_id         TEXT NOT NULL,
			tier              TEXT NOT NULL,
			issued_at         TIMESTAMPTZ NOT NULL,
			entry             JSONB NOT NULL
		)
	`
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure certificate_ledger: %w", err)
	}
	return nil
}

// Record inserts the ledger entry, ignoring codes already mirrored.
func (p *PG) Record(ctx context.Context, entry progress.CertificateLedgerEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal ledger entry: %w", err)
	}
	const insert = `
		INSERT INTO certificate_ledger (verification_code, account_key, course_id, tier, issued_at, entry)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (verification_code) DO NOTHING
	`
	if _, err := p.db.ExecContext(ctx, insert,
		entry.VerificationCode, entry.AccountKey, entry.CourseID, entry.Tier, entry.IssuedAt, payload); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// Lookup returns the mirrored entry for a verification code, or nil.
func (p *PG) Lookup(ctx context.Context, code string) (*progress.CertificateLedgerEntry, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT entry FROM certificate_ledger WHERE verification_code = $1`, code).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup ledger entry: %w", err)
	}
	var entry progress.CertificateLedgerEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("decode ledger entry: %w", err)
	}
	return &entry, nil
}

// List returns mirrored entries, newest issuance first.
func (p *PG) List(ctx context.Context, limit int) ([]progress.CertificateLedgerEntry, error) {
	query := `SELECT entry FROM certificate_ledger ORDER BY issued_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]progress.CertificateLedgerEntry, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		var entry progress.CertificateLedgerEntry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, fmt.Errorf("decode ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

var _ progress.LedgerMirror = (*PG)(nil)
