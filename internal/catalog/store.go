package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies the schema.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("catalog database path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AddSeries inserts a new series row.
func (s *Store) AddSeries(ctx context.Context, name, directory string) (int64, error) {
	name = strings.TrimSpace(name)
	directory = strings.TrimSpace(directory)
	if name == "" || directory == "" {
		return 0, errors.New("series name and directory required")
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO tv_series (name, directory, created_at) VALUES (?, ?, ?)`,
		name,
		directory,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert series: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// AddEpisode inserts an episode row. filePath may be empty when placement is
// not yet known.
func (s *Store) AddEpisode(ctx context.Context, seriesID int64, season, episode int, filePath string) (int64, error) {
	if seriesID <= 0 {
		return 0, errors.New("series id required")
	}
	if season <= 0 || episode <= 0 {
		return 0, errors.New("season and episode must be positive")
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO tv_episodes (series_id, season, episode, file_path, created_at) VALUES (?, ?, ?, ?, ?)`,
		seriesID,
		season,
		episode,
		nullableString(filePath),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert episode: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetSeries fetches a series by identifier. Returns nil when absent.
func (s *Store) GetSeries(ctx context.Context, id int64) (*Series, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, directory, created_at FROM tv_series WHERE id = ?`,
		id,
	)
	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return series, nil
}

// ListSeries returns all known series, newest first.
func (s *Store) ListSeries(ctx context.Context) ([]Series, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, directory, created_at FROM tv_series ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var out []Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *series)
	}
	return out, rows.Err()
}

// ListSeasons returns the distinct known season numbers for a series in
// ascending order.
func (s *Store) ListSeasons(ctx context.Context, seriesID int64) ([]int, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT DISTINCT season FROM tv_episodes WHERE series_id = ? ORDER BY season`,
		seriesID,
	)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []int
	for rows.Next() {
		var season int
		if err := rows.Scan(&season); err != nil {
			return nil, err
		}
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}

func scanSeries(scanner interface{ Scan(dest ...any) error }) (*Series, error) {
	var (
		id         int64
		name       string
		directory  string
		createdRaw string
	)
	if err := scanner.Scan(&id, &name, &directory, &createdRaw); err != nil {
		return nil, err
	}
	series := &Series{ID: id, Name: name, Directory: directory}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		series.CreatedAt = created
	}
	return series, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
