// Package sqlite stores the radar site table and the run catalog (processed
// files and volume summaries) in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/radar-basedata-etl/internal/domain"
	"github.com/couchcryptid/radar-basedata-etl/internal/site"
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// Catalog is a SQLite-backed site table and processed-file ledger.
// It implements site.Table.
type Catalog struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the catalog at path and applies pending
// migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	// A single connection serialises writers; SQLite allows one at a time.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("open catalog: %s: %w", p, err)
		}
	}

	c := &Catalog{db: db, logger: logger}
	if err := c.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Ping reports whether the database is reachable.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// UpsertSite inserts or replaces one site.
func (c *Catalog) UpsertSite(ctx context.Context, s site.Site) error {
	return upsertSite(ctx, c.db, s)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertSite(ctx context.Context, db execer, s site.Site) error {
	if s.Station == "" {
		return errors.New("upsert site: empty station")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO sites (station, name, latitude, longitude, altitude, frequency, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (station) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			altitude = excluded.altitude,
			frequency = excluded.frequency,
			updated_at = excluded.updated_at
	`, s.Station, s.Name, s.Latitude, s.Longitude, s.Altitude, s.Frequency, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert site %s: %w", s.Station, err)
	}
	return nil
}

// ImportSites reads a site CSV (see site.ParseCSV) and upserts every row in
// one transaction. It returns the number of sites imported.
func (c *Catalog) ImportSites(ctx context.Context, r io.Reader) (int, error) {
	sites, err := site.ParseCSV(r)
	if err != nil {
		return 0, fmt.Errorf("import sites: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("import sites: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, s := range sites {
		if err := upsertSite(ctx, tx, s); err != nil {
			return 0, fmt.Errorf("import sites: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import sites: %w", err)
	}
	c.logger.Info("sites imported", "count", len(sites))
	return len(sites), nil
}

// Lookup implements site.Table.
func (c *Catalog) Lookup(ctx context.Context, station string) (site.Site, error) {
	s := site.Site{Station: station}
	err := c.db.QueryRowContext(ctx, `
		SELECT name, latitude, longitude, altitude, frequency
		FROM sites WHERE station = ?
	`, station).Scan(&s.Name, &s.Latitude, &s.Longitude, &s.Altitude, &s.Frequency)
	if errors.Is(err, sql.ErrNoRows) {
		return site.Site{}, fmt.Errorf("%w: %s", site.ErrNotFound, station)
	}
	if err != nil {
		return site.Site{}, fmt.Errorf("lookup site %s: %w", station, err)
	}
	return s, nil
}

// Processed reports whether a file path already has a recorded outcome.
func (c *Catalog) Processed(ctx context.Context, path string) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM files WHERE path = ?`, path).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check processed %s: %w", path, err)
	}
	return n > 0, nil
}

// RecordOutcome stores the result of processing one file. A successful
// outcome also stores its volume record, replacing any earlier one with the
// same ID.
func (c *Catalog) RecordOutcome(ctx context.Context, file domain.RawFile, outcome domain.Outcome) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record outcome %s: %w", file.Name, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var (
		errText  string
		volumeID sql.NullString
	)
	if outcome.Err != nil {
		errText = outcome.Err.Error()
	}
	if rec := outcome.Volume; rec != nil {
		volumeID = sql.NullString{String: rec.ID, Valid: true}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("record outcome %s: %w", file.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO volumes (id, file, station, variant, start_time, record, processed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, rec.File, rec.Site.Station, rec.Variant, formatTime(rec.StartTime), string(data), formatTime(rec.ProcessedAt)); err != nil {
			return fmt.Errorf("record outcome %s: insert volume: %w", file.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO files (path, name, size, status, error, volume_id, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, file.Path, file.Name, file.Size, outcome.Status(), errText, volumeID, formatTime(time.Now())); err != nil {
		return fmt.Errorf("record outcome %s: insert file: %w", file.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record outcome %s: %w", file.Name, err)
	}
	return nil
}

const defaultListLimit = 100

// ListVolumes returns stored volume records, most recent scan first.
func (c *Catalog) ListVolumes(ctx context.Context, f domain.VolumeFilter) ([]domain.VolumeRecord, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT record FROM volumes`
	var args []any
	if f.Station != "" {
		query += ` WHERE station = ?`
		args = append(args, f.Station)
	}
	query += ` ORDER BY start_time DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list volumes: %w", err)
	}
	defer rows.Close()

	out := []domain.VolumeRecord{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("list volumes: %w", err)
		}
		var rec domain.VolumeRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("list volumes: decode record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list volumes: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
