package calendar

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/medrota/rosterd/core/model"
)

// SQLiteProvider persists holidays in a SQLite database, one row per date.
type SQLiteProvider struct {
	db   *sql.DB
	seed Seeder
}

// NewSQLiteProvider opens or creates the database and ensures schema. The
// seeder may be nil, in which case Generate produces empty years.
func NewSQLiteProvider(path string, seed Seeder) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS holidays (
        date TEXT PRIMARY KEY,
        year INTEGER,
        kind TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteProvider{db: db, seed: seed}, nil
}

// HolidaysFor returns the stored holidays of the year ordered by date.
func (p *SQLiteProvider) HolidaysFor(ctx context.Context, year int) ([]model.Holiday, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT date, kind FROM holidays WHERE year = ? ORDER BY date`, year)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Holiday
	for rows.Next() {
		var date, kind string
		if err := rows.Scan(&date, &kind); err != nil {
			return nil, err
		}
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, err
		}
		res = append(res, model.Holiday{Date: d, Kind: model.HolidayKind(kind)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Generate ingests the year through the seeder if no holidays are stored
// for it. Dates collide on the unique date column, last write wins.
func (p *SQLiteProvider) Generate(ctx context.Context, year int) error {
	var count int
	if err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM holidays WHERE year = ?`, year).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	var holidays []model.Holiday
	if p.seed != nil {
		var err error
		holidays, err = p.seed(ctx, year)
		if err != nil {
			return err
		}
	}
	for _, h := range holidays {
		_, err := p.db.ExecContext(ctx,
			`INSERT INTO holidays (date, year, kind) VALUES (?, ?, ?)
            ON CONFLICT(date) DO UPDATE SET kind = excluded.kind`,
			h.Date.UTC().Format("2006-01-02"), h.Date.UTC().Year(), string(h.Kind))
		if err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database.
func (p *SQLiteProvider) Close() error { return p.db.Close() }
