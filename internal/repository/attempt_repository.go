package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/latihanku/latihanku-backend/internal/model"
)

// ErrQuotaExhausted is returned by StartAttempt when the learner's used
// count has reached the configured quota. The quota row is left unchanged.
var ErrQuotaExhausted = errors.New("membership quota exhausted")

// StartAttemptParams carries everything StartAttempt needs to create (or
// idempotently reuse) an attempt in one transaction.
type StartAttemptParams struct {
	LearnerID       int
	AssessmentID    uuid.UUID
	DurationSeconds int
	QuestionOrder   []uuid.UUID
	// ConsumeQuota is false for free-access assessments.
	ConsumeQuota bool
	Feature      model.Feature
	// ReuseWindow bounds how old an in-progress attempt may be and still be
	// returned instead of creating a new one.
	ReuseWindow time.Duration
}

// AttemptRepository handles attempt and answer-record data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, assessment_id, learner_id, started_at, completed_at,
	score, duration_seconds, question_order`

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	a := &model.Attempt{}
	var orderRaw []byte
	err := row.Scan(&a.ID, &a.AssessmentID, &a.LearnerID, &a.StartedAt,
		&a.CompletedAt, &a.Score, &a.DurationSeconds, &orderRaw)
	if err != nil {
		return nil, err
	}
	if len(orderRaw) > 0 {
		if err := json.Unmarshal(orderRaw, &a.QuestionOrder); err != nil {
			return nil, fmt.Errorf("decode question order: %w", err)
		}
	}
	return a, nil
}

// Start creates a new attempt, or returns the most recent in-progress one
// started within the reuse window. Quota consumption, the reuse check, and
// the insert share one transaction; an advisory lock serializes concurrent
// start requests for the same (learner, assessment) so double-submitted
// forms cannot create two attempts or consume quota twice.
func (r *AttemptRepository) Start(ctx context.Context, p StartAttemptParams) (*model.Attempt, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	lockKey := fmt.Sprintf("attempt:%d:%s", p.LearnerID, p.AssessmentID)
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return nil, false, fmt.Errorf("acquire start lock: %w", err)
	}

	existing, err := scanAttempt(tx.QueryRow(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts
		 WHERE learner_id = $1 AND assessment_id = $2
		   AND completed_at IS NULL
		   AND started_at > $3
		 ORDER BY started_at DESC
		 LIMIT 1`,
		p.LearnerID, p.AssessmentID, time.Now().Add(-p.ReuseWindow)))
	if err == nil {
		if err := tx.Commit(ctx); err != nil {
			return nil, false, fmt.Errorf("commit: %w", err)
		}
		return existing, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("check recent attempt: %w", err)
	}

	if p.ConsumeQuota {
		if err := consumeQuota(ctx, tx, p.LearnerID, p.Feature); err != nil {
			return nil, false, err
		}
	}

	orderJSON, err := json.Marshal(p.QuestionOrder)
	if err != nil {
		return nil, false, fmt.Errorf("encode question order: %w", err)
	}

	attempt := &model.Attempt{
		ID:              uuid.New(),
		AssessmentID:    p.AssessmentID,
		LearnerID:       p.LearnerID,
		DurationSeconds: p.DurationSeconds,
		QuestionOrder:   p.QuestionOrder,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO attempts (id, assessment_id, learner_id, duration_seconds, question_order)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING started_at`,
		attempt.ID, attempt.AssessmentID, attempt.LearnerID, attempt.DurationSeconds, orderJSON,
	).Scan(&attempt.StartedAt)
	if err != nil {
		return nil, false, fmt.Errorf("insert attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	return attempt, false, nil
}

// consumeQuota increments the feature's used count unless the quota is
// reached. Quota 0 means unlimited. Zero rows affected means exhausted.
func consumeQuota(ctx context.Context, tx pgx.Tx, learnerID int, feature model.Feature) error {
	var column string
	switch feature {
	case model.FeatureTryout:
		column = "tryout"
	case model.FeaturePractice:
		column = "practice"
	default:
		return fmt.Errorf("feature %q carries no quota", feature)
	}

	tag, err := tx.Exec(ctx, fmt.Sprintf(
		`UPDATE membership_grants
		 SET %[1]s_used = %[1]s_used + 1
		 WHERE learner_id = $1
		   AND is_active
		   AND (%[1]s_quota = 0 OR %[1]s_used < %[1]s_quota)`, column),
		learnerID)
	if err != nil {
		return fmt.Errorf("consume quota: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

// GetByID retrieves an attempt by id.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id))
}

// Complete grades an attempt in one transaction: the prior answer batch is
// dropped, the new one inserted via COPY, and the score and completion time
// set, so a client retry converges to a single consistent state.
func (r *AttemptRepository) Complete(ctx context.Context, attemptID uuid.UUID, answers []model.AnswerRecord, score float64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM answer_records WHERE attempt_id = $1`, attemptID); err != nil {
		return fmt.Errorf("clear prior answers: %w", err)
	}

	rows := make([][]interface{}, 0, len(answers))
	for _, a := range answers {
		rows = append(rows, []interface{}{a.AttemptID, a.QuestionID, a.OptionID, a.IsCorrect})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"answer_records"},
		[]string{"attempt_id", "question_id", "option_id", "is_correct"},
		pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("insert answers: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE attempts
		 SET score = $1, completed_at = COALESCE(completed_at, NOW())
		 WHERE id = $2`, score, attemptID); err != nil {
		return fmt.Errorf("finalize attempt: %w", err)
	}

	return tx.Commit(ctx)
}

// ListAnswers retrieves the stored answer batch for an attempt.
func (r *AttemptRepository) ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]model.AnswerRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT attempt_id, question_id, option_id, is_correct
		 FROM answer_records
		 WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.AnswerRecord
	for rows.Next() {
		var a model.AnswerRecord
		if err := rows.Scan(&a.AttemptID, &a.QuestionID, &a.OptionID, &a.IsCorrect); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ListByLearner retrieves a learner's attempt history, newest first.
func (r *AttemptRepository) ListByLearner(ctx context.Context, learnerID int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts
		 WHERE learner_id = $1
		 ORDER BY started_at DESC`, learnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}
