package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/draxork/opentrustprotocol-go/pkg/identity"
	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

// Dialect selects placeholder syntax and the database/sql driver name.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect accepts the driver names used in configuration.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("store: unsupported driver %q", s)
	}
}

// bind rewrites '?' placeholders to the dialect's form.
func (d Dialect) bind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS judgments (
		judgment_id TEXT PRIMARY KEY,
		t DOUBLE PRECISION NOT NULL,
		i DOUBLE PRECISION NOT NULL,
		f DOUBLE PRECISION NOT NULL,
		body TEXT NOT NULL,
		archived_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outcomes (
		judgment_id TEXT PRIMARY KEY,
		links_to_judgment_id TEXT NOT NULL,
		outcome_type TEXT NOT NULL,
		oracle_source TEXT NOT NULL,
		body TEXT NOT NULL,
		archived_at TEXT NOT NULL
	)`,
}

// SQLArchive is an Archive over database/sql.
type SQLArchive struct {
	db      *sql.DB
	dialect Dialect
	clock   func() time.Time
	logger  *slog.Logger
}

// NewSQLArchive wraps an open database and creates the tables if needed.
func NewSQLArchive(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLArchive, error) {
	a := &SQLArchive{
		db:      db,
		dialect: dialect,
		clock:   time.Now,
		logger:  slog.Default().With("component", "store", "dialect", string(dialect)),
	}
	if err := a.migrate(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Open connects with the named driver and prepares the archive.
func Open(ctx context.Context, driver, dsn string) (*SQLArchive, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// An in-memory database lives on a single connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", dialect, err)
	}
	a, err := NewSQLArchive(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// WithClock overrides the archive timestamp source.
func (a *SQLArchive) WithClock(clock func() time.Time) *SQLArchive {
	a.clock = clock
	return a
}

func (a *SQLArchive) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

func (a *SQLArchive) now() string {
	return a.clock().UTC().Format(time.RFC3339Nano)
}

func (a *SQLArchive) PutJudgment(ctx context.Context, j *judgment.Judgment) (string, error) {
	if j == nil {
		return "", fmt.Errorf("store: nil judgment")
	}
	id, err := KeyFor(j)
	if err != nil {
		return "", fmt.Errorf("store: key judgment: %w", err)
	}
	body, err := json.Marshal(j)
	if err != nil {
		return "", fmt.Errorf("store: encode judgment: %w", err)
	}

	query := a.dialect.bind(`INSERT INTO judgments (judgment_id, t, i, f, body, archived_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (judgment_id) DO NOTHING`)
	res, err := a.db.ExecContext(ctx, query, id, j.T(), j.I(), j.F(), string(body), a.now())
	if err != nil {
		return "", fmt.Errorf("store: insert judgment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		a.logger.Debug("judgment already archived", "judgment_id", id)
	}
	return id, nil
}

func (a *SQLArchive) GetJudgment(ctx context.Context, id string) (*judgment.Judgment, error) {
	query := a.dialect.bind(`SELECT body FROM judgments WHERE judgment_id = ?`)
	var body string
	if err := a.db.QueryRowContext(ctx, query, id).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: judgment %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("store: get judgment: %w", err)
	}
	j, err := judgment.Parse([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("store: decode judgment %s: %w", id, err)
	}
	return j, nil
}

func (a *SQLArchive) PutOutcome(ctx context.Context, o *identity.OutcomeJudgment) error {
	if o == nil {
		return fmt.Errorf("store: nil outcome")
	}
	body, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("store: encode outcome: %w", err)
	}
	query := a.dialect.bind(`INSERT INTO outcomes (judgment_id, links_to_judgment_id, outcome_type, oracle_source, body, archived_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (judgment_id) DO NOTHING`)
	_, err = a.db.ExecContext(ctx, query,
		o.JudgmentID(), o.LinksToJudgmentID(), string(o.OutcomeType()), o.OracleSource(), string(body), a.now(),
	)
	if err != nil {
		return fmt.Errorf("store: insert outcome: %w", err)
	}
	return nil
}

func (a *SQLArchive) OutcomesFor(ctx context.Context, judgmentID string) ([]*identity.OutcomeJudgment, error) {
	query := a.dialect.bind(`SELECT body FROM outcomes
		WHERE links_to_judgment_id = ?
		ORDER BY archived_at ASC, judgment_id ASC`)
	rows, err := a.db.QueryContext(ctx, query, judgmentID)
	if err != nil {
		return nil, fmt.Errorf("store: list outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*identity.OutcomeJudgment
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		o, err := identity.ParseOutcome([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("store: decode outcome: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *SQLArchive) Close() error {
	return a.db.Close()
}
