// Package store reads the condition to symptom table from a database instead
// of the bundled model detail file.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Skufu/symptomcheck/internal/catalog"
)

const conditionSymptomsQuery = `SELECT disease, symptom FROM condition_symptoms ORDER BY disease, position`

// Querier is the part of a pgx connection the Postgres source queries through.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PostgresSource struct {
	db Querier
}

func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) LoadConditionSymptoms(ctx context.Context) (catalog.Table, error) {
	rows, err := s.db.Query(ctx, conditionSymptomsQuery)
	if err != nil {
		return nil, fmt.Errorf("query condition symptoms: %w", err)
	}
	defer rows.Close()

	table := catalog.Table{}
	for rows.Next() {
		var disease, symptom string
		if err := rows.Scan(&disease, &symptom); err != nil {
			return nil, fmt.Errorf("scan condition symptom: %w", err)
		}
		table[disease] = append(table[disease], symptom)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate condition symptoms: %w", err)
	}
	return table, nil
}

// ConnectPostgres opens a pool and pings it before handing it back.
func ConnectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}
