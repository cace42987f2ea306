// Package postgis stores generated hatching plans as LINESTRING geometries
// in a PostGIS database.
package postgis

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/kass/go-geo-hatch/pkg/models"
)

type LineStore struct {
	db *sql.DB
}

// NewLineStore opens a PostGIS connection
func NewLineStore(host, user, password, dbname string, port int) (*LineStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &LineStore{db: db}, nil
}

// InitSchema creates the survey_lines table, dropping any previous run
func (s *LineStore) InitSchema() error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,

		`DROP TABLE IF EXISTS survey_lines;`,

		`CREATE TABLE survey_lines (
			id SERIAL PRIMARY KEY,
			job TEXT NOT NULL,
			seq INT NOT NULL,
			geom GEOMETRY(LINESTRING, 4326)
		);`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}

	return nil
}

// CreateSpatialIndex creates a GIST index on the geometry column
func (s *LineStore) CreateSpatialIndex() error {
	query := `CREATE INDEX idx_survey_lines_geom ON survey_lines USING GIST(geom);`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create spatial index: %w", err)
	}

	if _, err := s.db.Exec("ANALYZE survey_lines;"); err != nil {
		return fmt.Errorf("failed to analyze table: %w", err)
	}

	return nil
}

// BulkInsertSegments inserts one job's segments in sweep order, re-arming
// the transaction every batch for better throughput on large plans.
func (s *LineStore) BulkInsertSegments(job string, segments []models.Segment) error {
	const batchSize = 1000

	stmt, err := s.db.Prepare(`
		INSERT INTO survey_lines (job, seq, geom)
		VALUES ($1, $2, ST_SetSRID(ST_MakeLine(ST_MakePoint($3, $4), ST_MakePoint($5, $6)), 4326))
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStmt := tx.Stmt(stmt)

	for i, seg := range segments {
		_, err := txStmt.Exec(job, i,
			seg.Start.Lon, seg.Start.Lat,
			seg.End.Lon, seg.End.Lat)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert segment %d: %w", i, err)
		}

		if (i+1)%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}

			tx, err = s.db.Begin()
			if err != nil {
				return fmt.Errorf("failed to begin new transaction: %w", err)
			}
			txStmt = tx.Stmt(stmt)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit final batch: %w", err)
	}

	return nil
}

// QueryBox returns all segments intersecting a bounding box, in insertion
// order.
func (s *LineStore) QueryBox(box models.BoundingBox) ([]models.Segment, error) {
	query := `
		SELECT ST_X(ST_StartPoint(geom)), ST_Y(ST_StartPoint(geom)),
		       ST_X(ST_EndPoint(geom)), ST_Y(ST_EndPoint(geom))
		FROM survey_lines
		WHERE geom && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		ORDER BY job, seq
	`

	rows, err := s.db.Query(query,
		box.BottomLeft.Lon, box.BottomLeft.Lat,
		box.TopRight.Lon, box.TopRight.Lat)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []models.Segment
	for rows.Next() {
		var seg models.Segment

		if err := rows.Scan(&seg.Start.Lon, &seg.Start.Lat, &seg.End.Lon, &seg.End.Lat); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		results = append(results, seg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return results, nil
}

// Count returns the number of stored segments
func (s *LineStore) Count() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM survey_lines").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count segments: %w", err)
	}
	return count, nil
}

// Stats returns table and index size statistics
func (s *LineStore) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var tableSize, indexSize string
	err := s.db.QueryRow(`
		SELECT
			pg_size_pretty(pg_total_relation_size('survey_lines')) as total_size,
			pg_size_pretty(pg_indexes_size('survey_lines')) as index_size
	`).Scan(&tableSize, &indexSize)
	if err != nil {
		// Table might not exist yet
		stats["table_size"] = "0 bytes"
		stats["index_size"] = "0 bytes"
	} else {
		stats["table_size"] = tableSize
		stats["index_size"] = indexSize
	}

	count, _ := s.Count()
	stats["row_count"] = count

	return stats, nil
}

// Close closes the database connection
func (s *LineStore) Close() error {
	return s.db.Close()
}
