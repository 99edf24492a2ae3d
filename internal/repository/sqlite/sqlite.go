// Package sqlite implements store.Store on an embedded SQLite database
// (modernc.org/sqlite, no cgo). It backs local runs and the service tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oldfield/dashboard/internal/models"
	"github.com/oldfield/dashboard/internal/store"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS finance_account (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	institution TEXT,
	account_type TEXT,
	source_system TEXT NOT NULL,
	source_ref TEXT NOT NULL,
	as_of DATETIME NOT NULL,
	confidence TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS finance_security (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ticker TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	security_type TEXT NOT NULL,
	currency TEXT NOT NULL DEFAULT 'USD',
	source_system TEXT NOT NULL,
	source_ref TEXT NOT NULL,
	as_of DATETIME NOT NULL,
	confidence TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS finance_position (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	security_id INTEGER NOT NULL REFERENCES finance_security(id),
	account_id INTEGER NOT NULL REFERENCES finance_account(id),
	quantity TEXT NOT NULL,
	avg_cost TEXT,
	market_value TEXT,
	source_system TEXT NOT NULL,
	source_ref TEXT NOT NULL,
	as_of DATETIME NOT NULL,
	confidence TEXT NOT NULL,
	ingested_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_position_snapshot ON finance_position(account_id, source_system, source_ref);

CREATE TABLE IF NOT EXISTS source_manifest (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	domain TEXT NOT NULL,
	source_ref TEXT NOT NULL,
	status TEXT NOT NULL,
	as_of DATETIME,
	ingested_at DATETIME,
	row_count INTEGER NOT NULL DEFAULT 0,
	message TEXT,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_manifest_domain_ingested ON source_manifest(domain, ingested_at DESC);
`

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements store.Store on SQLite
type Store struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open creates or opens the database at dbPath and applies the schema.
// ":memory:" opens a private in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and ":memory:" is per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath, now: time.Now}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() {
	s.db.Close()
}

// DB exposes the handle for tests that need to seed rows directly.
func (s *Store) DB() *sql.DB {
	return s.db
}

type writer struct {
	q   querier
	now func() time.Time
}

func (s *Store) writer() writer {
	return writer{q: s.db, now: s.now}
}

func (s *Store) UpsertAccount(ctx context.Context, a *models.Account) error {
	return s.writer().UpsertAccount(ctx, a)
}

func (s *Store) UpsertSecurity(ctx context.Context, sec *models.Security) error {
	return s.writer().UpsertSecurity(ctx, sec)
}

func (s *Store) DeletePositions(ctx context.Context, accountID int64, system models.SourceSystem, sourceRef string) (int64, error) {
	return s.writer().DeletePositions(ctx, accountID, system, sourceRef)
}

func (s *Store) CreatePosition(ctx context.Context, p *models.Position) error {
	return s.writer().CreatePosition(ctx, p)
}

func (s *Store) AppendManifest(ctx context.Context, m *models.SourceManifest) error {
	return s.writer().AppendManifest(ctx, m)
}

// WithTx runs fn inside a single transaction
func (s *Store) WithTx(ctx context.Context, fn func(w store.Writer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(writer{q: tx, now: s.now}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (w writer) UpsertAccount(ctx context.Context, a *models.Account) error {
	if err := a.Provenance.Validate(); err != nil {
		return err
	}
	now := w.now().UTC()
	query := `
		INSERT INTO finance_account (name, institution, account_type, source_system, source_ref, as_of, confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE
		SET institution = excluded.institution,
		    account_type = excluded.account_type,
		    source_system = excluded.source_system,
		    source_ref = excluded.source_ref,
		    as_of = excluded.as_of,
		    confidence = excluded.confidence,
		    updated_at = excluded.updated_at
		RETURNING id
	`
	err := w.q.QueryRowContext(ctx, query,
		a.Name, a.Institution, a.AccountType,
		string(a.SourceSystem), a.SourceRef, a.AsOf.UTC(), string(a.Confidence), now, now,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert account %q: %w", a.Name, err)
	}
	return w.stamps(ctx, "finance_account", a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (w writer) UpsertSecurity(ctx context.Context, sec *models.Security) error {
	if err := sec.Provenance.Validate(); err != nil {
		return err
	}
	if sec.Currency == "" {
		sec.Currency = models.DefaultCurrency
	}
	now := w.now().UTC()
	query := `
		INSERT INTO finance_security (ticker, name, security_type, currency, source_system, source_ref, as_of, confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ticker) DO UPDATE
		SET name = excluded.name,
		    security_type = excluded.security_type,
		    currency = excluded.currency,
		    source_system = excluded.source_system,
		    source_ref = excluded.source_ref,
		    as_of = excluded.as_of,
		    confidence = excluded.confidence,
		    updated_at = excluded.updated_at
		RETURNING id
	`
	err := w.q.QueryRowContext(ctx, query,
		sec.Ticker, sec.Name, string(sec.SecurityType), sec.Currency,
		string(sec.SourceSystem), sec.SourceRef, sec.AsOf.UTC(), string(sec.Confidence), now, now,
	).Scan(&sec.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert security %s: %w", sec.Ticker, err)
	}
	return w.stamps(ctx, "finance_security", sec.ID, &sec.CreatedAt, &sec.UpdatedAt)
}

// stamps reads back created_at/updated_at after an upsert. RETURNING columns
// carry no declared type, so the driver would hand them back as plain text.
func (w writer) stamps(ctx context.Context, table string, id int64, created, updated *time.Time) error {
	err := w.q.QueryRowContext(ctx, "SELECT created_at, updated_at FROM "+table+" WHERE id = ?", id).Scan(created, updated)
	if err != nil {
		return fmt.Errorf("failed to read %s timestamps: %w", table, err)
	}
	return nil
}

func (w writer) DeletePositions(ctx context.Context, accountID int64, system models.SourceSystem, sourceRef string) (int64, error) {
	result, err := w.q.ExecContext(ctx,
		`DELETE FROM finance_position WHERE account_id = ? AND source_system = ? AND source_ref = ?`,
		accountID, string(system), sourceRef)
	if err != nil {
		return 0, fmt.Errorf("failed to delete positions: %w", err)
	}
	return result.RowsAffected()
}

func (w writer) CreatePosition(ctx context.Context, p *models.Position) error {
	if p.Quantity.IsZero() {
		return errors.New("position quantity must be non-zero")
	}
	if err := p.Provenance.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO finance_position (security_id, account_id, quantity, avg_cost, market_value,
		                              source_system, source_ref, as_of, confidence, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err := w.q.QueryRowContext(ctx, query,
		p.SecurityID, p.AccountID,
		p.Quantity.String(), nullDecimalArg(p.AvgCost), nullDecimalArg(p.MarketValue),
		string(p.SourceSystem), p.SourceRef, p.AsOf.UTC(), string(p.Confidence), p.IngestedAt.UTC(),
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

func (w writer) AppendManifest(ctx context.Context, m *models.SourceManifest) error {
	if m.IngestedAt == nil {
		now := w.now().UTC()
		m.IngestedAt = &now
	}
	m.UpdatedAt = w.now().UTC()
	query := `
		INSERT INTO source_manifest (domain, source_ref, status, as_of, ingested_at, row_count, message, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err := w.q.QueryRowContext(ctx, query,
		string(m.Domain), m.SourceRef, string(m.Status), utcPtr(m.AsOf), m.IngestedAt.UTC(),
		m.RowCount, m.Message, m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to append manifest: %w", err)
	}
	return nil
}

// ListManifests returns manifests ordered by domain, newest ingestion first
func (s *Store) ListManifests(ctx context.Context, limit int) ([]models.SourceManifest, error) {
	query := `
		SELECT id, domain, source_ref, status, as_of, ingested_at, row_count, message, updated_at
		FROM source_manifest
		ORDER BY domain ASC, ingested_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query manifests: %w", err)
	}
	defer rows.Close()

	var manifests []models.SourceManifest
	for rows.Next() {
		var m models.SourceManifest
		var domain, status string
		var asOf, ingestedAt sql.NullTime
		var message sql.NullString
		if err := rows.Scan(&m.ID, &domain, &m.SourceRef, &status, &asOf, &ingestedAt, &m.RowCount, &message, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan manifest: %w", err)
		}
		m.Domain = models.Domain(domain)
		m.Status = models.ManifestStatus(status)
		if asOf.Valid {
			m.AsOf = &asOf.Time
		}
		if ingestedAt.Valid {
			m.IngestedAt = &ingestedAt.Time
		}
		if message.Valid {
			m.Message = &message.String
		}
		manifests = append(manifests, m)
	}
	return manifests, rows.Err()
}

// ListPositions returns one snapshot joined with tickers, ordered by id
func (s *Store) ListPositions(ctx context.Context, accountID int64, system models.SourceSystem, sourceRef string) ([]models.Position, error) {
	query := `
		SELECT fp.id, fp.security_id, fp.account_id, fs.ticker,
		       fp.quantity, fp.avg_cost, fp.market_value,
		       fp.source_system, fp.source_ref, fp.as_of, fp.confidence, fp.ingested_at
		FROM finance_position fp
		JOIN finance_security fs ON fs.id = fp.security_id
		WHERE fp.account_id = ? AND fp.source_system = ? AND fp.source_ref = ?
		ORDER BY fp.id
	`
	rows, err := s.db.QueryContext(ctx, query, accountID, string(system), sourceRef)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		var qty string
		var avgCost, marketValue sql.NullString
		var sys, confidence string
		if err := rows.Scan(&p.ID, &p.SecurityID, &p.AccountID, &p.Ticker,
			&qty, &avgCost, &marketValue,
			&sys, &p.SourceRef, &p.AsOf, &confidence, &p.IngestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if p.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("failed to parse quantity %q: %w", qty, err)
		}
		if p.AvgCost, err = parseNullDecimal(avgCost); err != nil {
			return nil, fmt.Errorf("failed to parse avg cost: %w", err)
		}
		if p.MarketValue, err = parseNullDecimal(marketValue); err != nil {
			return nil, fmt.Errorf("failed to parse market value: %w", err)
		}
		p.SourceSystem = models.SourceSystem(sys)
		p.Confidence = models.Confidence(confidence)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// GetAccountByName retrieves an account by its unique name
func (s *Store) GetAccountByName(ctx context.Context, name string) (*models.Account, error) {
	query := `
		SELECT id, name, institution, account_type, source_system, source_ref, as_of, confidence, created_at, updated_at
		FROM finance_account
		WHERE name = ?
	`
	a := &models.Account{}
	var institution, accountType sql.NullString
	var system, confidence string
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&a.ID, &a.Name, &institution, &accountType,
		&system, &a.SourceRef, &a.AsOf, &confidence, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if institution.Valid {
		a.Institution = &institution.String
	}
	if accountType.Valid {
		a.AccountType = &accountType.String
	}
	a.SourceSystem = models.SourceSystem(system)
	a.Confidence = models.Confidence(confidence)
	return a, nil
}

// IsPath reports whether a DATABASE_URL value names a SQLite database
// ("sqlite:<path>", "file:<path>", or a path ending in .db / .sqlite).
func IsPath(url string) bool {
	return strings.HasPrefix(url, "sqlite:") || strings.HasPrefix(url, "file:") ||
		strings.HasSuffix(url, ".db") || strings.HasSuffix(url, ".sqlite")
}

// PathFromURL strips the scheme prefix accepted by IsPath.
func PathFromURL(url string) string {
	for _, prefix := range []string{"sqlite://", "sqlite:", "file:"} {
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}
	return url
}

func nullDecimalArg(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func parseNullDecimal(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
