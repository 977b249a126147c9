package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizrunner/internal/domain"
)

// QuizSource serves the quiz catalog and quiz JSONB from Postgres. The
// manifest is synthesized from the quizzes table, so directory listing
// discovery does not apply here.
type QuizSource struct {
	pool *pgxpool.Pool
}

func NewQuizSource(pool *pgxpool.Pool) *QuizSource {
	return &QuizSource{pool: pool}
}

func (s *QuizSource) Manifest(ctx context.Context) ([]byte, error) {
	rows, err := s.pool.Query(ctx, `SELECT file, name FROM quizzes ORDER BY file`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var entries []domain.CatalogEntry
	for rows.Next() {
		var e domain.CatalogEntry
		if err := rows.Scan(&e.File, &e.Name); err != nil {
			return nil, fmt.Errorf("scan quiz row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return json.Marshal(entries)
}

func (s *QuizSource) Listing(context.Context) (string, error) {
	return "", errors.New("postgres source has no directory listing")
}

func (s *QuizSource) Quiz(ctx context.Context, file string) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE file=$1`, file).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, file)
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	return raw, nil
}
