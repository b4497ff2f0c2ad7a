package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/latihanku/latihanku-backend/internal/repository"
	"github.com/rs/zerolog"
)

// AssessmentStore reads published assessments with their question banks.
type AssessmentStore interface {
	GetBySlug(ctx context.Context, slug string) (*model.Assessment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error)
}

// AttemptStore persists attempts and their graded answers.
type AttemptStore interface {
	Start(ctx context.Context, p repository.StartAttemptParams) (*model.Attempt, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	Complete(ctx context.Context, attemptID uuid.UUID, answers []model.AnswerRecord, score float64) error
	ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]model.AnswerRecord, error)
	ListByLearner(ctx context.Context, learnerID int) ([]model.Attempt, error)
}

// BlockGate answers whether a learner is currently suspended for an
// assessment type.
type BlockGate interface {
	CheckBlocked(ctx context.Context, learnerID int, btype model.BlockType) error
}

// StartResult bundles the started (or reused) attempt with the questions
// rendered in its pinned order.
type StartResult struct {
	Attempt    *model.Attempt
	Assessment *model.Assessment
	Questions  []model.Question
	Reused     bool
}

// AttemptService orchestrates the tryout/practice attempt lifecycle: gate
// checks, start, grading, and review.
type AttemptService struct {
	assessments AssessmentStore
	attempts    AttemptStore
	entitlement *EntitlementService
	blocks      BlockGate
	reuseWindow time.Duration
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	assessments AssessmentStore,
	attempts AttemptStore,
	entitlement *EntitlementService,
	blocks BlockGate,
	reuseWindow time.Duration,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		assessments: assessments,
		attempts:    attempts,
		entitlement: entitlement,
		blocks:      blocks,
		reuseWindow: reuseWindow,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// Info returns the assessment metadata plus the learner's access decision
// and window status, without starting anything or consuming quota.
func (s *AttemptService) Info(ctx context.Context, learnerID int, slug string) (*model.Assessment, WindowStatus, *AccessDecision, error) {
	assessment, err := s.getPublished(ctx, slug)
	if err != nil {
		return nil, "", nil, err
	}

	status := CheckWindow(time.Now(), assessment.OpenAt, assessment.CloseAt)

	decision, err := s.entitlement.ResolveAccess(ctx, learnerID, assessment.Type.Feature(), assessment.IsFree)
	if err != nil && !isEntitlementErr(err) {
		return nil, "", nil, err
	}
	if err != nil {
		decision = &AccessDecision{Allowed: false}
	}

	// Question bodies are not part of the info payload.
	assessment.Questions = nil
	return assessment, status, decision, nil
}

// Start runs the full gate chain and creates (or idempotently reuses) an
// attempt. The returned questions follow the attempt's pinned permutation.
func (s *AttemptService) Start(ctx context.Context, learnerID int, slug string) (*StartResult, error) {
	assessment, err := s.getPublished(ctx, slug)
	if err != nil {
		return nil, err
	}
	if len(assessment.Questions) == 0 {
		return nil, ErrNotFound
	}

	if err := WindowError(CheckWindow(time.Now(), assessment.OpenAt, assessment.CloseAt)); err != nil {
		return nil, err
	}

	if err := s.blocks.CheckBlocked(ctx, learnerID, model.BlockType(assessment.Type)); err != nil {
		return nil, err
	}

	decision, err := s.entitlement.ResolveAccess(ctx, learnerID, assessment.Type.Feature(), assessment.IsFree)
	if err != nil {
		return nil, err
	}

	order := QuestionOrderOf(ShuffleQuestions(assessment.Questions))
	attempt, reused, err := s.attempts.Start(ctx, repository.StartAttemptParams{
		LearnerID:       learnerID,
		AssessmentID:    assessment.ID,
		DurationSeconds: assessment.DurationMinutes * 60,
		QuestionOrder:   order,
		ConsumeQuota:    !decision.Free,
		Feature:         assessment.Type.Feature(),
		ReuseWindow:     s.reuseWindow,
	})
	if errors.Is(err, repository.ErrQuotaExhausted) {
		return nil, ErrQuotaExhausted
	}
	if err != nil {
		return nil, fmt.Errorf("start attempt: %w", err)
	}

	s.log.Info().
		Int("learner_id", learnerID).
		Str("assessment", slug).
		Str("attempt_id", attempt.ID.String()).
		Bool("reused", reused).
		Msg("attempt started")

	return &StartResult{
		Attempt:    attempt,
		Assessment: assessment,
		Questions:  OrderedQuestions(assessment.Questions, attempt.QuestionOrder, attempt.ID),
		Reused:     reused,
	}, nil
}

// Resume refetches an in-progress attempt with its questions in the pinned
// order. Completed attempts are rejected; the review endpoint serves those.
func (s *AttemptService) Resume(ctx context.Context, learnerID int, attemptID uuid.UUID) (*StartResult, error) {
	attempt, assessment, err := s.getOwned(ctx, learnerID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed() {
		return nil, ErrAttemptCompleted
	}

	return &StartResult{
		Attempt:    attempt,
		Assessment: assessment,
		Questions:  OrderedQuestions(assessment.Questions, attempt.QuestionOrder, attempt.ID),
		Reused:     true,
	}, nil
}

// Submit grades the submitted answers against the authored key and completes
// the attempt. A tryout resubmission regrades from scratch (old answer rows
// are replaced); a practice attempt is terminal after the first submit.
func (s *AttemptService) Submit(ctx context.Context, learnerID int, attemptID uuid.UUID, answers []model.SubmittedAnswer) (*model.SubmitAttemptResponse, error) {
	attempt, assessment, err := s.getOwned(ctx, learnerID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed() && assessment.Type == model.AssessmentTypePractice {
		return nil, ErrAttemptCompleted
	}

	records, correct, err := gradeAnswers(assessment.Questions, attempt.ID, answers)
	if err != nil {
		return nil, err
	}

	total := len(assessment.Questions)
	score := 0.0
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}

	if err := s.attempts.Complete(ctx, attempt.ID, records, score); err != nil {
		return nil, fmt.Errorf("complete attempt: %w", err)
	}

	s.log.Info().
		Int("learner_id", learnerID).
		Str("attempt_id", attempt.ID.String()).
		Float64("score", score).
		Msg("attempt submitted")

	return &model.SubmitAttemptResponse{
		AttemptID: attempt.ID,
		Score:     score,
		Correct:   correct,
		Total:     total,
	}, nil
}

// Review returns the completed attempt with per-question grading, the
// correct option, and the explanation. In-progress attempts get the same
// structure minus the key.
func (s *AttemptService) Review(ctx context.Context, learnerID int, attemptID uuid.UUID) (*model.ReviewResponse, error) {
	attempt, assessment, err := s.getOwned(ctx, learnerID, attemptID)
	if err != nil {
		return nil, err
	}

	chosen := map[uuid.UUID]model.AnswerRecord{}
	if attempt.Completed() {
		records, err := s.attempts.ListAnswers(ctx, attempt.ID)
		if err != nil {
			return nil, fmt.Errorf("list answers: %w", err)
		}
		for _, r := range records {
			chosen[r.QuestionID] = r
		}
	}

	ordered := OrderedQuestions(assessment.Questions, attempt.QuestionOrder, attempt.ID)
	questions := make([]model.ReviewQuestion, 0, len(ordered))
	for _, q := range ordered {
		rq := model.ReviewQuestion{
			QuestionID: q.ID,
			Prompt:     q.Prompt,
			MediaURL:   q.MediaURL,
			Options:    q.Options,
		}
		if attempt.Completed() {
			if rec, ok := chosen[q.ID]; ok {
				rq.ChosenOptionID = rec.OptionID
				isCorrect := rec.IsCorrect
				rq.IsCorrect = &isCorrect
			}
			if opt := q.CorrectOption(); opt != nil {
				id := opt.ID
				rq.CorrectOptionID = &id
			}
			rq.Explanation = q.Explanation
		}
		questions = append(questions, rq)
	}

	return &model.ReviewResponse{
		AttemptID:   attempt.ID,
		Assessment:  assessment.Title,
		Score:       attempt.Score,
		CompletedAt: attempt.CompletedAt,
		Questions:   questions,
	}, nil
}

// History lists the learner's attempts, newest first.
func (s *AttemptService) History(ctx context.Context, learnerID int) ([]model.Attempt, error) {
	attempts, err := s.attempts.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

func (s *AttemptService) getPublished(ctx context.Context, slug string) (*model.Assessment, error) {
	assessment, err := s.assessments.GetBySlug(ctx, slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	if !assessment.IsPublished {
		return nil, ErrNotFound
	}
	return assessment, nil
}

func (s *AttemptService) getOwned(ctx context.Context, learnerID int, attemptID uuid.UUID) (*model.Attempt, *model.Assessment, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.LearnerID != learnerID {
		return nil, nil, ErrForbidden
	}

	assessment, err := s.assessments.GetByID(ctx, attempt.AssessmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("get assessment: %w", err)
	}
	return attempt, assessment, nil
}

// gradeAnswers turns the submitted (question, option) pairs into graded
// records, one per authored question. Unknown question ids and options that
// do not belong to their question are rejected outright rather than graded
// as wrong, since they indicate a tampered payload.
func gradeAnswers(questions []model.Question, attemptID uuid.UUID, answers []model.SubmittedAnswer) ([]model.AnswerRecord, int, error) {
	optionOwner := map[uuid.UUID]uuid.UUID{}
	correctOf := map[uuid.UUID]uuid.UUID{}
	for _, q := range questions {
		for _, o := range q.Options {
			optionOwner[o.ID] = q.ID
			if o.IsCorrect {
				correctOf[q.ID] = o.ID
			}
		}
	}

	picked := map[uuid.UUID]*uuid.UUID{}
	for _, a := range answers {
		if _, known := correctOf[a.QuestionID]; !known {
			return nil, 0, fmt.Errorf("unknown question %s: %w", a.QuestionID, ErrQuestionSetInvalid)
		}
		if a.OptionID != nil && optionOwner[*a.OptionID] != a.QuestionID {
			return nil, 0, fmt.Errorf("option %s does not belong to question %s: %w", a.OptionID, a.QuestionID, ErrQuestionSetInvalid)
		}
		picked[a.QuestionID] = a.OptionID
	}

	records := make([]model.AnswerRecord, 0, len(questions))
	correct := 0
	for _, q := range questions {
		rec := model.AnswerRecord{
			AttemptID:  attemptID,
			QuestionID: q.ID,
		}
		if opt, answered := picked[q.ID]; answered && opt != nil {
			rec.OptionID = opt
			rec.IsCorrect = *opt == correctOf[q.ID]
		}
		if rec.IsCorrect {
			correct++
		}
		records = append(records, rec)
	}
	return records, correct, nil
}

func isEntitlementErr(err error) bool {
	return errors.Is(err, ErrMembershipRequired) ||
		errors.Is(err, ErrFeatureNotEntitled) ||
		errors.Is(err, ErrQuotaExhausted)
}
