package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/latihanku/latihanku-backend/internal/repository"
	"github.com/rs/zerolog"
)

type fakeAssessmentStore struct {
	bySlug map[string]*model.Assessment
}

func (f *fakeAssessmentStore) GetBySlug(_ context.Context, slug string) (*model.Assessment, error) {
	a, ok := f.bySlug[slug]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

func (f *fakeAssessmentStore) GetByID(_ context.Context, id uuid.UUID) (*model.Assessment, error) {
	for _, a := range f.bySlug {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeAttemptStore struct {
	mu             sync.Mutex
	attempts       map[uuid.UUID]*model.Attempt
	answers        map[uuid.UUID][]model.AnswerRecord
	quotaRemaining int
	quotaConsumed  int
}

func newFakeAttemptStore(quota int) *fakeAttemptStore {
	return &fakeAttemptStore{
		attempts:       map[uuid.UUID]*model.Attempt{},
		answers:        map[uuid.UUID][]model.AnswerRecord{},
		quotaRemaining: quota,
	}
}

func (f *fakeAttemptStore) Start(_ context.Context, p repository.StartAttemptParams) (*model.Attempt, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cutoff := time.Now().Add(-p.ReuseWindow)
	for _, a := range f.attempts {
		if a.LearnerID == p.LearnerID && a.AssessmentID == p.AssessmentID &&
			a.CompletedAt == nil && a.StartedAt.After(cutoff) {
			copy := *a
			return &copy, true, nil
		}
	}

	if p.ConsumeQuota {
		if f.quotaRemaining <= 0 {
			return nil, false, repository.ErrQuotaExhausted
		}
		f.quotaRemaining--
		f.quotaConsumed++
	}

	a := &model.Attempt{
		ID:              uuid.New(),
		AssessmentID:    p.AssessmentID,
		LearnerID:       p.LearnerID,
		StartedAt:       time.Now(),
		DurationSeconds: p.DurationSeconds,
		QuestionOrder:   p.QuestionOrder,
	}
	f.attempts[a.ID] = a
	copy := *a
	return &copy, false, nil
}

func (f *fakeAttemptStore) GetByID(_ context.Context, id uuid.UUID) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *a
	return &copy, nil
}

func (f *fakeAttemptStore) Complete(_ context.Context, attemptID uuid.UUID, answers []model.AnswerRecord, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[attemptID]
	if !ok {
		return pgx.ErrNoRows
	}
	f.answers[attemptID] = answers
	a.Score = &score
	if a.CompletedAt == nil {
		now := time.Now()
		a.CompletedAt = &now
	}
	return nil
}

func (f *fakeAttemptStore) ListAnswers(_ context.Context, attemptID uuid.UUID) ([]model.AnswerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers[attemptID], nil
}

func (f *fakeAttemptStore) ListByLearner(_ context.Context, learnerID int) ([]model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Attempt
	for _, a := range f.attempts {
		if a.LearnerID == learnerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeBlockGate struct {
	blocked bool
}

func (f *fakeBlockGate) CheckBlocked(context.Context, int, model.BlockType) error {
	if f.blocked {
		return ErrBlocked
	}
	return nil
}

func testAssessment(slug string, atype model.AssessmentType, n int) *model.Assessment {
	return &model.Assessment{
		ID:              uuid.New(),
		Type:            atype,
		Slug:            slug,
		Title:           "Tryout SKD",
		DurationMinutes: 30,
		IsPublished:     true,
		Questions:       makeQuestions(n, 4),
	}
}

type attemptServiceFixture struct {
	svc      *AttemptService
	attempts *fakeAttemptStore
	blocks   *fakeBlockGate
}

func newAttemptFixture(assessments map[string]*model.Assessment, quota int) *attemptServiceFixture {
	grants := map[int]*model.MembershipGrant{1: activeGrant(1)}
	store := newFakeAttemptStore(quota)
	gate := &fakeBlockGate{}
	svc := NewAttemptService(
		&fakeAssessmentStore{bySlug: assessments},
		store,
		NewEntitlementService(&fakeMembershipStore{grants: grants}),
		gate,
		2*time.Minute,
		zerolog.Nop(),
	)
	return &attemptServiceFixture{svc: svc, attempts: store, blocks: gate}
}

func TestStartCreatesAttemptWithPinnedOrder(t *testing.T) {
	a := testAssessment("tryout-1", model.AssessmentTypeTryout, 10)
	fx := newAttemptFixture(map[string]*model.Assessment{"tryout-1": a}, 3)

	result, err := fx.svc.Start(context.Background(), 1, "tryout-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if result.Reused {
		t.Error("Reused = true on first start")
	}
	if len(result.Attempt.QuestionOrder) != 10 {
		t.Fatalf("QuestionOrder len = %d, want 10", len(result.Attempt.QuestionOrder))
	}
	for i, q := range result.Questions {
		if q.ID != result.Attempt.QuestionOrder[i] {
			t.Errorf("question %d not in pinned order", i)
		}
	}
}

func TestStartIdempotentWithinWindow(t *testing.T) {
	a := testAssessment("tryout-1", model.AssessmentTypeTryout, 5)
	fx := newAttemptFixture(map[string]*model.Assessment{"tryout-1": a}, 3)
	ctx := context.Background()

	first, err := fx.svc.Start(ctx, 1, "tryout-1")
	if err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	second, err := fx.svc.Start(ctx, 1, "tryout-1")
	if err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	if !second.Reused {
		t.Error("Reused = false on repeated start")
	}
	if second.Attempt.ID != first.Attempt.ID {
		t.Error("repeated start created a new attempt")
	}
	if fx.attempts.quotaConsumed != 1 {
		t.Errorf("quota consumed %d times, want 1", fx.attempts.quotaConsumed)
	}

	// The replayed question order matches the pinned one.
	for i := range second.Questions {
		if second.Questions[i].ID != first.Questions[i].ID {
			t.Errorf("question %d order differs on reuse", i)
		}
	}
}

func TestStartQuotaExhausted(t *testing.T) {
	a := testAssessment("tryout-1", model.AssessmentTypeTryout, 5)
	fx := newAttemptFixture(map[string]*model.Assessment{"tryout-1": a}, 0)

	_, err := fx.svc.Start(context.Background(), 1, "tryout-1")
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("Start() error = %v, want ErrQuotaExhausted", err)
	}
}

func TestStartFreeSkipsQuota(t *testing.T) {
	a := testAssessment("free-1", model.AssessmentTypePractice, 5)
	a.IsFree = true
	fx := newAttemptFixture(map[string]*model.Assessment{"free-1": a}, 0)

	if _, err := fx.svc.Start(context.Background(), 1, "free-1"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if fx.attempts.quotaConsumed != 0 {
		t.Errorf("quota consumed %d times, want 0 for free assessment", fx.attempts.quotaConsumed)
	}
}

func TestStartBlockedLearner(t *testing.T) {
	a := testAssessment("tryout-1", model.AssessmentTypeTryout, 5)
	fx := newAttemptFixture(map[string]*model.Assessment{"tryout-1": a}, 3)
	fx.blocks.blocked = true

	_, err := fx.svc.Start(context.Background(), 1, "tryout-1")
	if !errors.Is(err, ErrBlocked) {
		t.Errorf("Start() error = %v, want ErrBlocked", err)
	}
}

func TestStartOutsideWindow(t *testing.T) {
	a := testAssessment("tryout-1", model.AssessmentTypeTryout, 5)
	past := time.Now().Add(-time.Hour)
	a.CloseAt = &past
	fx := newAttemptFixture(map[string]*model.Assessment{"tryout-1": a}, 3)

	_, err := fx.svc.Start(context.Background(), 1, "tryout-1")
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Start() error = %v, want ErrClosed", err)
	}
}

func TestStartUnpublishedAssessment(t *testing.T) {
	a := testAssessment("draft-1", model.AssessmentTypeTryout, 5)
	a.IsPublished = false
	fx := newAttemptFixture(map[string]*model.Assessment{"draft-1": a}, 3)

	_, err := fx.svc.Start(context.Background(), 1, "draft-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Start() error = %v, want ErrNotFound", err)
	}
}

func TestSubmitGradesAgainstKey(t *testing.T) {
	a := testAssessment("tryout-1", model.AssessmentTypeTryout, 10)
	fx := newAttemptFixture(map[string]*model.Assessment{"tryout-1": a}, 3)
	ctx := context.Background()

	started, err := fx.svc.Start(ctx, 1, "tryout-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// 6 correct, 2 wrong, 2 unanswered.
	answers := make([]model.SubmittedAnswer, 0, 8)
	for i, q := range a.Questions {
		if i >= 8 {
			break
		}
		opt := q.CorrectOption().ID
		if i >= 6 {
			opt = q.Options[1].ID // makeQuestions marks option 0 correct
		}
		optCopy := opt
		answers = append(answers, model.SubmittedAnswer{QuestionID: q.ID, OptionID: &optCopy})
	}

	result, err := fx.svc.Submit(ctx, 1, started.Attempt.ID, answers)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Correct != 6 || result.Total != 10 {
		t.Errorf("Correct/Total = %d/%d, want 6/10", result.Correct, result.Total)
	}
	if result.Score != 60 {
		t.Errorf("Score = %v, want 60", result.Score)
	}

	// Every authored question got a record, answered or not.
	records, _ := fx.attempts.ListAnswers(ctx, started.Attempt.ID)
	if len(records) != 10 {
		t.Errorf("answer records = %d, want 10", len(records))
	}
}

func TestSubmitRejectsForeignOption(t *testing.T) {
	a := testAssessment("tryout-1", model.AssessmentTypeTryout, 3)
	fx := newAttemptFixture(map[string]*model.Assessment{"tryout-1": a}, 3)
	ctx := context.Background()

	started, err := fx.svc.Start(ctx, 1, "tryout-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Option belongs to question 1, submitted for question 0.
	foreign := a.Questions[1].Options[0].ID
	answers := []model.SubmittedAnswer{{QuestionID: a.Questions[0].ID, OptionID: &foreign}}

	if _, err := fx.svc.Submit(ctx, 1, started.Attempt.ID, answers); !errors.Is(err, ErrQuestionSetInvalid) {
		t.Errorf("Submit() error = %v, want ErrQuestionSetInvalid", err)
	}
}

func TestSubmitPracticeTerminal(t *testing.T) {
	a := testAssessment("practice-1", model.AssessmentTypePractice, 3)
	fx := newAttemptFixture(map[string]*model.Assessment{"practice-1": a}, 3)
	ctx := context.Background()

	started, err := fx.svc.Start(ctx, 1, "practice-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := fx.svc.Submit(ctx, 1, started.Attempt.ID, nil); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if _, err := fx.svc.Submit(ctx, 1, started.Attempt.ID, nil); !errors.Is(err, ErrAttemptCompleted) {
		t.Errorf("second Submit() error = %v, want ErrAttemptCompleted", err)
	}
}

func TestSubmitTryoutResubmissionRegrades(t *testing.T) {
	a := testAssessment("tryout-1", model.AssessmentTypeTryout, 2)
	fx := newAttemptFixture(map[string]*model.Assessment{"tryout-1": a}, 3)
	ctx := context.Background()

	started, err := fx.svc.Start(ctx, 1, "tryout-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	first, err := fx.svc.Submit(ctx, 1, started.Attempt.ID, nil)
	if err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if first.Score != 0 {
		t.Errorf("first Score = %v, want 0", first.Score)
	}

	answers := make([]model.SubmittedAnswer, 0, 2)
	for _, q := range a.Questions {
		opt := q.CorrectOption().ID
		answers = append(answers, model.SubmittedAnswer{QuestionID: q.ID, OptionID: &opt})
	}
	second, err := fx.svc.Submit(ctx, 1, started.Attempt.ID, answers)
	if err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	if second.Score != 100 {
		t.Errorf("resubmitted Score = %v, want 100", second.Score)
	}
}

func TestSubmitOwnershipEnforced(t *testing.T) {
	a := testAssessment("tryout-1", model.AssessmentTypeTryout, 2)
	fx := newAttemptFixture(map[string]*model.Assessment{"tryout-1": a}, 3)
	ctx := context.Background()

	started, err := fx.svc.Start(ctx, 1, "tryout-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := fx.svc.Submit(ctx, 2, started.Attempt.ID, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("Submit() as other learner error = %v, want ErrForbidden", err)
	}
}

func TestReviewWithholdsKeyUntilCompleted(t *testing.T) {
	a := testAssessment("tryout-1", model.AssessmentTypeTryout, 3)
	expl := "Pembahasan lengkap"
	for i := range a.Questions {
		a.Questions[i].Explanation = &expl
	}
	fx := newAttemptFixture(map[string]*model.Assessment{"tryout-1": a}, 3)
	ctx := context.Background()

	started, err := fx.svc.Start(ctx, 1, "tryout-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	review, err := fx.svc.Review(ctx, 1, started.Attempt.ID)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	for _, q := range review.Questions {
		if q.CorrectOptionID != nil || q.Explanation != nil {
			t.Fatal("key material exposed before completion")
		}
	}

	opt := a.Questions[0].CorrectOption().ID
	if _, err := fx.svc.Submit(ctx, 1, started.Attempt.ID, []model.SubmittedAnswer{
		{QuestionID: a.Questions[0].ID, OptionID: &opt},
	}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	review, err = fx.svc.Review(ctx, 1, started.Attempt.ID)
	if err != nil {
		t.Fatalf("Review() after submit error = %v", err)
	}
	if review.Score == nil {
		t.Fatal("Score = nil after completion")
	}
	for _, q := range review.Questions {
		if q.CorrectOptionID == nil || q.Explanation == nil {
			t.Error("key material missing after completion")
		}
	}

	// The answered question carries its grading.
	found := false
	for _, q := range review.Questions {
		if q.QuestionID == a.Questions[0].ID {
			found = true
			if q.IsCorrect == nil || !*q.IsCorrect {
				t.Error("answered question not graded correct")
			}
		}
	}
	if !found {
		t.Error("answered question missing from review")
	}
}
