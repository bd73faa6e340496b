package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS conversions (
			job_id            TEXT PRIMARY KEY,
			mode              TEXT,
			source            TEXT,
			output_files      TEXT,
			vertices          BIGINT,
			faces             BIGINT,
			width_mm          DOUBLE,
			depth_mm          DOUBLE,
			height_mm         DOUBLE,
			duration_ms       BIGINT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Conversion is one recorded model-generation job.
type Conversion struct {
	JobID      string    `json:"job_id"`
	Mode       string    `json:"mode"`
	Source     string    `json:"source"`
	Files      []string  `json:"files"`
	Vertices   int64     `json:"vertices"`
	Faces      int64     `json:"faces"`
	WidthMM    float64   `json:"width_mm"`
	DepthMM    float64   `json:"depth_mm"`
	HeightMM   float64   `json:"height_mm"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// RecordConversion inserts a finished job into the history table.
func (db *DB) RecordConversion(c Conversion) error {
	files, err := json.Marshal(c.Files)
	if err != nil {
		return fmt.Errorf("failed to encode output files: %w", err)
	}

	_, err = db.Exec(
		`INSERT INTO conversions (
			job_id, mode, source, output_files, vertices, faces,
			width_mm, depth_mm, height_mm, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.JobID, c.Mode, c.Source, string(files), c.Vertices, c.Faces,
		c.WidthMM, c.DepthMM, c.HeightMM, c.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record conversion: %w", err)
	}
	return nil
}

// GetConversion retrieves a single job by its ID.
func (db *DB) GetConversion(jobID string) (*Conversion, error) {
	row := db.QueryRow(
		`SELECT job_id, mode, source, output_files, vertices, faces,
			width_mm, depth_mm, height_mm, duration_ms, timestamp
		FROM conversions WHERE job_id = ?`,
		jobID,
	)

	c, err := scanConversion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion: %w", err)
	}
	return c, nil
}

// ListConversions returns the most recent jobs, newest first.
func (db *DB) ListConversions(limit int) ([]Conversion, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(
		`SELECT job_id, mode, source, output_files, vertices, faces,
			width_mm, depth_mm, height_mm, duration_ms, timestamp
		FROM conversions ORDER BY timestamp DESC, job_id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	defer rows.Close()

	conversions := []Conversion{}
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}
		conversions = append(conversions, *c)
	}
	return conversions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConversion(row scanner) (*Conversion, error) {
	var c Conversion
	var files string
	err := row.Scan(
		&c.JobID, &c.Mode, &c.Source, &files, &c.Vertices, &c.Faces,
		&c.WidthMM, &c.DepthMM, &c.HeightMM, &c.DurationMS, &c.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	if files != "" {
		if err := json.Unmarshal([]byte(files), &c.Files); err != nil {
			return nil, fmt.Errorf("failed to decode output files: %w", err)
		}
	}
	return &c, nil
}
