package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/rs/zerolog"
)

// QuestionReplacer swaps an assessment's whole question set atomically.
type QuestionReplacer interface {
	ReplaceQuestions(ctx context.Context, assessmentID uuid.UUID, questions []model.QuestionInput) error
}

// AssessmentService owns the question-bank authoring surface: validating
// and replacing question sets fed in by the ingestion collaborator.
type AssessmentService struct {
	assessments AssessmentStore
	replacer    QuestionReplacer
	log         zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(assessments AssessmentStore, replacer QuestionReplacer, log zerolog.Logger) *AssessmentService {
	return &AssessmentService{
		assessments: assessments,
		replacer:    replacer,
		log:         log.With().Str("component", "assessment_service").Logger(),
	}
}

// ValidateQuestionSet checks the structural rules every stored question must
// satisfy: at least two options and exactly one marked correct. The batch is
// all-or-nothing; the first offending question fails the whole set.
func ValidateQuestionSet(questions []model.QuestionInput) error {
	if len(questions) == 0 {
		return fmt.Errorf("empty question set: %w", ErrQuestionSetInvalid)
	}
	for i, q := range questions {
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d has %d options, need at least 2: %w", i+1, len(q.Options), ErrQuestionSetInvalid)
		}
		correct := 0
		for _, o := range q.Options {
			if o.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("question %d has %d correct options, need exactly 1: %w", i+1, correct, ErrQuestionSetInvalid)
		}
	}
	return nil
}

// ReplaceQuestions validates the batch and atomically replaces the
// assessment's question set. Meant for authoring before publication; an
// in-progress attempt whose questions were replaced cannot be graded.
func (s *AssessmentService) ReplaceQuestions(ctx context.Context, assessmentID uuid.UUID, questions []model.QuestionInput) error {
	if err := ValidateQuestionSet(questions); err != nil {
		return err
	}

	if _, err := s.assessments.GetByID(ctx, assessmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get assessment: %w", err)
	}

	if err := s.replacer.ReplaceQuestions(ctx, assessmentID, questions); err != nil {
		return fmt.Errorf("replace questions: %w", err)
	}

	s.log.Info().
		Str("assessment_id", assessmentID.String()).
		Int("questions", len(questions)).
		Msg("question set replaced")
	return nil
}

// Get returns an assessment with its question bank for admin inspection.
func (s *AssessmentService) Get(ctx context.Context, assessmentID uuid.UUID) (*model.Assessment, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return assessment, nil
}
