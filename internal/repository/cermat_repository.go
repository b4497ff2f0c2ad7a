package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/latihanku/latihanku-backend/internal/model"
)

// CermatRepository handles the durable cermat attempt summaries.
type CermatRepository struct {
	pool *pgxpool.Pool
}

// NewCermatRepository creates a new CermatRepository.
func NewCermatRepository(pool *pgxpool.Pool) *CermatRepository {
	return &CermatRepository{pool: pool}
}

// CreateAttempt inserts the durable summary row at drill start.
func (r *CermatRepository) CreateAttempt(ctx context.Context, a *model.CermatAttempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO cermat_attempts (id, learner_id, mode, total_rounds)
		 VALUES ($1, $2, $3, $4)
		 RETURNING started_at`,
		a.ID, a.LearnerID, a.Mode, a.TotalRounds,
	).Scan(&a.StartedAt)
}

// CompleteAttempt persists the final aggregate after the last round.
func (r *CermatRepository) CompleteAttempt(ctx context.Context, a *model.CermatAttempt) error {
	roundsJSON, err := json.Marshal(a.RoundScores)
	if err != nil {
		return fmt.Errorf("encode round scores: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE cermat_attempts
		 SET average_score = $1, total_correct = $2, total_questions = $3,
		     round_scores = $4, completed_at = NOW()
		 WHERE id = $5`,
		a.AverageScore, a.TotalCorrect, a.TotalQuestions, roundsJSON, a.ID)
	return err
}

// ListByLearner retrieves a learner's completed drill history, newest first.
func (r *CermatRepository) ListByLearner(ctx context.Context, learnerID int) ([]model.CermatAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, learner_id, mode, total_rounds, average_score,
		        total_correct, total_questions, round_scores, started_at, completed_at
		 FROM cermat_attempts
		 WHERE learner_id = $1
		 ORDER BY started_at DESC`, learnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.CermatAttempt
	for rows.Next() {
		var a model.CermatAttempt
		var roundsRaw []byte
		if err := rows.Scan(&a.ID, &a.LearnerID, &a.Mode, &a.TotalRounds, &a.AverageScore,
			&a.TotalCorrect, &a.TotalQuestions, &roundsRaw, &a.StartedAt, &a.CompletedAt); err != nil {
			return nil, err
		}
		if len(roundsRaw) > 0 {
			if err := json.Unmarshal(roundsRaw, &a.RoundScores); err != nil {
				return nil, fmt.Errorf("decode round scores: %w", err)
			}
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
