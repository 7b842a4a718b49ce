// Package store persists the attraction dataset in libSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/playperu/attractionmap/internal/attractions"
)

var ErrNotFound = errors.New("not found")

type AttractionStore struct {
	db *sql.DB
}

func New(db *sql.DB) *AttractionStore {
	return &AttractionStore{db: db}
}

const columns = `id, name, category, rating, reviews, price, duration, image, lat, lng`

type scanner interface {
	Scan(dest ...any) error
}

func scanAttraction(row scanner) (attractions.Attraction, error) {
	var a attractions.Attraction
	var category string
	err := row.Scan(&a.ID, &a.Name, &category, &a.Rating, &a.Reviews, &a.Price,
		&a.Duration, &a.Image, &a.Coordinate.Lat, &a.Coordinate.Lng)
	a.Category = attractions.Category(category)
	return a, err
}

// List returns the dataset in its original order.
func (s *AttractionStore) List(ctx context.Context) ([]attractions.Attraction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM attractions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing attractions: %w", err)
	}
	defer rows.Close()

	out := []attractions.Attraction{}
	for rows.Next() {
		a, err := scanAttraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning attraction: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *AttractionStore) Get(ctx context.Context, id string) (attractions.Attraction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM attractions WHERE id = ?`, id)
	a, err := scanAttraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return attractions.Attraction{}, ErrNotFound
	}
	if err != nil {
		return attractions.Attraction{}, fmt.Errorf("getting attraction %s: %w", id, err)
	}
	return a, nil
}

func (s *AttractionStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attractions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting attractions: %w", err)
	}
	return n, nil
}

// Seed inserts dataset when the table is empty and reports how many rows
// it wrote. A non-empty table is left alone.
func (s *AttractionStore) Seed(ctx context.Context, dataset []attractions.Attraction) (int, error) {
	for _, a := range dataset {
		if err := a.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning seed: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM attractions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting attractions: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	for i, a := range dataset {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attractions (`+columns+`, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, a.ID, a.Name, string(a.Category), a.Rating, a.Reviews, a.Price,
			a.Duration, a.Image, a.Coordinate.Lat, a.Coordinate.Lng, i)
		if err != nil {
			return 0, fmt.Errorf("inserting attraction %s: %w", a.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed: %w", err)
	}
	return len(dataset), nil
}
