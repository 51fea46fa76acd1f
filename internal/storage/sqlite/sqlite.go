package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/FranksOps/sift/internal/storage"
	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	niche TEXT NOT NULL,
	platform TEXT NOT NULL,
	audience TEXT NOT NULL,
	goal TEXT NOT NULL,
	failed BOOLEAN NOT NULL,
	error TEXT,
	elapsed_seconds REAL NOT NULL,
	research_count INTEGER NOT NULL,
	gaps_found INTEGER NOT NULL,
	result TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_niche_platform ON runs (niche, platform);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite archive: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, record *storage.RunRecord) error {
	query, args, err := storage.InsertRun(sq.StatementBuilder, record, string(record.Payload())).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run %s: %w", record.ID, err)
	}

	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.RunRecord, error) {
	q := storage.SelectRuns(sq.StatementBuilder, storage.RunColumns, filter)
	if filter.Limit <= 0 && filter.Offset > 0 {
		// SQLite only accepts OFFSET after a LIMIT clause.
		q = q.Limit(math.MaxInt64)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var results []*storage.RunRecord
	for rows.Next() {
		var r storage.RunRecord
		var errText sql.NullString
		var result string

		err := rows.Scan(
			&r.ID, &r.Niche, &r.Platform, &r.Audience, &r.Goal, &r.Failed, &errText,
			&r.ElapsedSeconds, &r.ResearchCount, &r.GapsFound, &result, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		r.Error = errText.String
		r.Result = []byte(result)
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
