// Package repository provides data access implementations
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abelzeko/ob-river-monitor/internal/entities"
)

// ReadingRepository archives fetched readings
type ReadingRepository interface {
	SaveReadings(ctx context.Context, readings []entities.StationReading) error
	GetRecentReadings(ctx context.Context, stationID string, limit int) ([]entities.StationReading, error)
	GetLastUpdateTime(ctx context.Context) (time.Time, error)
	Close() error
}

// SQLiteReadingRepository implements ReadingRepository using SQLite
type SQLiteReadingRepository struct {
	db     *sql.DB
	DBPath string
	logger *slog.Logger
}

// NewSQLiteReadingRepository creates and initializes a new SQLite repository
func NewSQLiteReadingRepository(dbPath string, logger *slog.Logger) (*SQLiteReadingRepository, error) {
	if dbPath == "" {
		// Set default path if not specified
		dbPath = filepath.Join("data", "readings.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Info("Opening database", "path", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS station_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id TEXT NOT NULL,
		station_name TEXT NOT NULL,
		water_level INTEGER,
		temperature REAL,
		last_update TEXT,
		status TEXT NOT NULL,
		error TEXT,
		captured_at INTEGER NOT NULL,
		UNIQUE(station_id, captured_at)
	);
	CREATE INDEX IF NOT EXISTS idx_station ON station_readings(station_id);
	CREATE INDEX IF NOT EXISTS idx_captured_at ON station_readings(captured_at);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteReadingRepository{
		db:     db,
		DBPath: dbPath,
		logger: logger,
	}, nil
}

// Close closes the database connection
func (r *SQLiteReadingRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveReadings stores readings in a single transaction
func (r *SQLiteReadingRepository) SaveReadings(ctx context.Context, readings []entities.StationReading) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO station_readings(station_id, station_name, water_level, temperature, last_update, status, error, captured_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id, captured_at) DO UPDATE SET
		water_level=excluded.water_level,
		temperature=excluded.temperature,
		last_update=excluded.last_update,
		status=excluded.status,
		error=excluded.error
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rd := range readings {
		_, err := stmt.ExecContext(ctx,
			rd.StationID,
			rd.StationName,
			nullInt(rd.WaterLevel),
			nullFloat(rd.Temperature),
			nullString(rd.LastUpdate),
			string(rd.Status),
			nullString(rd.Error),
			rd.Timestamp.UnixNano(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert reading for %s: %w", rd.StationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Successfully saved station readings", "count", len(readings))
	return nil
}

// GetRecentReadings returns up to limit archived readings for a station, newest first
func (r *SQLiteReadingRepository) GetRecentReadings(ctx context.Context, stationID string, limit int) ([]entities.StationReading, error) {
	query := `
		SELECT station_id, station_name, water_level, temperature, last_update, status, error, captured_at
		FROM station_readings
		WHERE station_id = ?
		ORDER BY captured_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, stationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings for %s: %w", stationID, err)
	}
	defer rows.Close()

	result := []entities.StationReading{}
	for rows.Next() {
		var (
			rd          entities.StationReading
			level       sql.NullInt64
			temperature sql.NullFloat64
			lastUpdate  sql.NullString
			status      string
			errMsg      sql.NullString
			capturedAt  int64
		)
		if err := rows.Scan(
			&rd.StationID,
			&rd.StationName,
			&level,
			&temperature,
			&lastUpdate,
			&status,
			&errMsg,
			&capturedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if level.Valid {
			v := int(level.Int64)
			rd.WaterLevel = &v
		}
		if temperature.Valid {
			rd.Temperature = &temperature.Float64
		}
		if lastUpdate.Valid {
			rd.LastUpdate = &lastUpdate.String
		}
		if errMsg.Valid {
			rd.Error = &errMsg.String
		}
		rd.Status = entities.ReadingStatus(status)
		rd.Timestamp = time.Unix(0, capturedAt).UTC()
		result = append(result, rd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return result, nil
}

// GetLastUpdateTime returns the capture time of the most recent archived reading
func (r *SQLiteReadingRepository) GetLastUpdateTime(ctx context.Context) (time.Time, error) {
	var capturedAt sql.NullInt64
	err := r.db.QueryRowContext(ctx, "SELECT MAX(captured_at) FROM station_readings").Scan(&capturedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last update time: %w", err)
	}

	// Empty table
	if !capturedAt.Valid {
		return time.Time{}, nil
	}
	return time.Unix(0, capturedAt.Int64).UTC(), nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
