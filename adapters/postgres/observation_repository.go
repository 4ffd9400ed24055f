package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"winstack/domain/dataset"
	"winstack/internal/errors"
	"winstack/ports"
)

// observationRepository loads game-state observations from Postgres.
type observationRepository struct {
	db    *sqlx.DB
	table string
}

// Connect opens a Postgres connection pool from a URL.
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.DataSourceError("postgres", err)
	}
	return db, nil
}

// NewObservationRepository creates a repository reading from the given table.
// The table needs score_diff, time_left, label and game_id columns.
func NewObservationRepository(db *sqlx.DB, table string) ports.ObservationRepository {
	return &observationRepository{db: db, table: table}
}

// LoadObservations reads every row in deterministic order.
func (r *observationRepository) LoadObservations(ctx context.Context) (*dataset.Dataset, error) {
	query := fmt.Sprintf(`SELECT score_diff, time_left, label, game_id
		FROM %s ORDER BY game_id, time_left DESC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.DataSourceError("postgres", err)
	}
	defer rows.Close()

	var observations []dataset.Observation
	for rows.Next() {
		var scoreDiff, timeLeft, label int
		var gameID string
		if err := rows.Scan(&scoreDiff, &timeLeft, &label, &gameID); err != nil {
			return nil, errors.DataSourceError("postgres", err)
		}
		observations = append(observations, dataset.Observation{
			Features: dataset.StateFeatures(scoreDiff, timeLeft),
			Label:    label,
			GroupID:  gameID,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DataSourceError("postgres", err)
	}
	return dataset.New(observations)
}
