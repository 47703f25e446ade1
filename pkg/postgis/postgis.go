// Package postgis loads point sets from a PostGIS table, as an alternative
// to CSV input when photo locations are kept in a database.
package postgis

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/kass/go-coldspot/pkg/models"
	"github.com/kass/go-coldspot/pkg/pointset"
)

// Source is a PostGIS-backed point-set provider.
type Source struct {
	db    *sql.DB
	table string
}

// Connect opens a connection to the database holding the point table.
func Connect(host string, port int, user, password, dbname, table string) (*Source, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Source{db: db, table: table}, nil
}

// InitSchema creates the point table with a geometry column.
func (s *Source) InitSchema() error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			location GEOMETRY(POINT, 4326)
		);`, s.table),
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// InsertPoints stores locations in the table.
func (s *Source) InsertPoints(points pointset.Set) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT INTO %s (location) VALUES (ST_SetSRID(ST_MakePoint($1, $2), 4326))`, s.table))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(p.Lon, p.Lat); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert point: %w", err)
		}
	}
	return tx.Commit()
}

// LoadPoints reads the full point set from the table.
func (s *Source) LoadPoints() (pointset.Set, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT ST_Y(location), ST_X(location) FROM %s ORDER BY id`, s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	var points []models.Location
	for rows.Next() {
		var p models.Location
		if err := rows.Scan(&p.Lat, &p.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read points: %w", err)
	}
	return pointset.New(points)
}

// LoadPointsWithinRadius reads only the points within radiusKm of the center,
// pushing the distance filter down to PostGIS.
func (s *Source) LoadPointsWithinRadius(center models.Location, radiusKm float64) (pointset.Set, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT ST_Y(location), ST_X(location) FROM %s
		 WHERE ST_DWithin(location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		 ORDER BY id`, s.table),
		center.Lon, center.Lat, radiusKm*1000)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	var points []models.Location
	for rows.Next() {
		var p models.Location
		if err := rows.Scan(&p.Lat, &p.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read points: %w", err)
	}
	return pointset.New(points)
}

// Close releases the database connection.
func (s *Source) Close() error {
	return s.db.Close()
}
