package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/latihanku/latihanku-backend/internal/model"
)

// AssessmentRepository handles assessment, question, and option data access.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

const assessmentColumns = `id, type, slug, title, duration_minutes, open_at, close_at,
	is_free, is_published, created_at, updated_at`

func scanAssessment(row pgx.Row) (*model.Assessment, error) {
	a := &model.Assessment{}
	err := row.Scan(&a.ID, &a.Type, &a.Slug, &a.Title, &a.DurationMinutes,
		&a.OpenAt, &a.CloseAt, &a.IsFree, &a.IsPublished, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetBySlug retrieves an assessment with its full question/option snapshot.
func (r *AssessmentRepository) GetBySlug(ctx context.Context, slug string) (*model.Assessment, error) {
	a, err := scanAssessment(r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE slug = $1`, slug))
	if err != nil {
		return nil, err
	}
	if err := r.loadQuestions(ctx, a); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return a, nil
}

// GetByID retrieves an assessment with its full question/option snapshot.
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	a, err := scanAssessment(r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadQuestions(ctx, a); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return a, nil
}

func (r *AssessmentRepository) loadQuestions(ctx context.Context, a *model.Assessment) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, assessment_id, prompt, media_url, explanation, order_num
		 FROM questions
		 WHERE assessment_id = $1
		 ORDER BY order_num ASC`, a.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.AssessmentID, &q.Prompt, &q.MediaURL, &q.Explanation, &q.OrderNum); err != nil {
			return err
		}
		index[q.ID] = len(a.Questions)
		a.Questions = append(a.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT o.id, o.question_id, o.label, o.is_correct, o.order_num
		 FROM options o
		 JOIN questions q ON q.id = o.question_id
		 WHERE q.assessment_id = $1
		 ORDER BY o.order_num ASC`, a.ID)
	if err != nil {
		return err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.Option
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Label, &o.IsCorrect, &o.OrderNum); err != nil {
			return err
		}
		if i, ok := index[o.QuestionID]; ok {
			a.Questions[i].Options = append(a.Questions[i].Options, o)
		}
	}
	return optRows.Err()
}

// ReplaceQuestions swaps an assessment's whole question set in one
// transaction. Used by the ingestion path after validation; attempts keep
// grading against the snapshot they pinned at start.
func (r *AssessmentRepository) ReplaceQuestions(ctx context.Context, assessmentID uuid.UUID, questions []model.QuestionInput) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM questions WHERE assessment_id = $1`, assessmentID); err != nil {
		return fmt.Errorf("delete old questions: %w", err)
	}

	for i, q := range questions {
		questionID := uuid.New()
		if _, err := tx.Exec(ctx,
			`INSERT INTO questions (id, assessment_id, prompt, media_url, explanation, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			questionID, assessmentID, q.Prompt, q.MediaURL, q.Explanation, i+1); err != nil {
			return fmt.Errorf("insert question %d: %w", i+1, err)
		}

		optRows := make([][]interface{}, 0, len(q.Options))
		for j, o := range q.Options {
			optRows = append(optRows, []interface{}{uuid.New(), questionID, o.Label, o.IsCorrect, j + 1})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"options"},
			[]string{"id", "question_id", "label", "is_correct", "order_num"},
			pgx.CopyFromRows(optRows)); err != nil {
			return fmt.Errorf("insert options for question %d: %w", i+1, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE assessments SET updated_at = NOW() WHERE id = $1`, assessmentID); err != nil {
		return fmt.Errorf("touch assessment: %w", err)
	}

	return tx.Commit(ctx)
}
