package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/rs/zerolog"
)

const cermatBaseSetSize = 5

// CermatStore persists durable drill attempts.
type CermatStore interface {
	CreateAttempt(ctx context.Context, a *model.CermatAttempt) error
	CompleteAttempt(ctx context.Context, a *model.CermatAttempt) error
	ListByLearner(ctx context.Context, learnerID int) ([]model.CermatAttempt, error)
}

// CermatSessionArena holds transient round state between start and submit.
type CermatSessionArena interface {
	Save(ctx context.Context, sess *model.CermatSession) error
	Get(ctx context.Context, id string) (*model.CermatSession, error)
	Delete(ctx context.Context, id string) error
}

// CermatConfig is the drill shape.
type CermatConfig struct {
	TotalRounds       int
	QuestionsPerRound int
	RoundSeconds      int
	BreakSeconds      int
}

// CermatService runs the timed accuracy drill: fixed rounds of
// spot-the-missing-token questions over a per-round reference set.
type CermatService struct {
	attempts    CermatStore
	sessions    CermatSessionArena
	entitlement *EntitlementService
	cfg         CermatConfig
	log         zerolog.Logger
}

// NewCermatService creates a new CermatService.
func NewCermatService(attempts CermatStore, sessions CermatSessionArena, entitlement *EntitlementService, cfg CermatConfig, log zerolog.Logger) *CermatService {
	return &CermatService{
		attempts:    attempts,
		sessions:    sessions,
		entitlement: entitlement,
		cfg:         cfg,
		log:         log.With().Str("component", "cermat_service").Logger(),
	}
}

// Start creates a durable drill attempt and its first round. Cermat is
// membership-gated with no free path and no numeric quota.
func (s *CermatService) Start(ctx context.Context, learnerID int, mode model.CermatMode) (*model.CermatSessionPayload, error) {
	if _, err := s.entitlement.ResolveAccess(ctx, learnerID, model.FeatureCermat, false); err != nil {
		return nil, err
	}

	attempt := &model.CermatAttempt{
		ID:          uuid.New(),
		LearnerID:   learnerID,
		Mode:        mode,
		TotalRounds: s.cfg.TotalRounds,
		StartedAt:   time.Now(),
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create cermat attempt: %w", err)
	}

	sess := s.newRound(attempt.ID, learnerID, mode, 1, nil)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.log.Info().
		Int("learner_id", learnerID).
		Str("mode", string(mode)).
		Str("attempt_id", attempt.ID.String()).
		Msg("cermat drill started")

	return s.payload(sess), nil
}

// SubmitRound grades one round and either issues the next round under a
// fresh session id or, after the final round, completes the attempt and
// returns the summary. The graded session is discarded only after its
// successor (or the durable summary) is persisted: the accumulated round
// results live in the session, so dropping it first would strand the
// whole drill on a mid-submit failure.
func (s *CermatService) SubmitRound(ctx context.Context, learnerID int, sessionID string, answers []model.CermatAnswer) (*model.SubmitCermatRoundResponse, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.LearnerID != learnerID {
		return nil, ErrForbidden
	}

	result := gradeCermatRound(sess, answers)
	results := append(sess.Results, result)

	var resp *model.SubmitCermatRoundResponse
	if sess.RoundIndex < sess.TotalRounds {
		next := s.newRound(sess.AttemptID, learnerID, sess.Mode, sess.RoundIndex+1, results)
		if err := s.sessions.Save(ctx, next); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		resp = &model.SubmitCermatRoundResponse{NextSession: s.payload(next)}
	} else {
		summary := summarize(sess.AttemptID, sess.Mode, results)
		now := time.Now()
		avg := summary.AverageScore
		attempt := &model.CermatAttempt{
			ID:             sess.AttemptID,
			LearnerID:      learnerID,
			Mode:           sess.Mode,
			TotalRounds:    sess.TotalRounds,
			AverageScore:   &avg,
			TotalCorrect:   summary.TotalCorrect,
			TotalQuestions: summary.TotalQuestions,
			RoundScores:    results,
			CompletedAt:    &now,
		}
		if err := s.attempts.CompleteAttempt(ctx, attempt); err != nil {
			return nil, fmt.Errorf("complete cermat attempt: %w", err)
		}

		s.log.Info().
			Int("learner_id", learnerID).
			Str("attempt_id", sess.AttemptID.String()).
			Float64("average_score", avg).
			Msg("cermat drill completed")

		resp = &model.SubmitCermatRoundResponse{Completed: true, Summary: summary}
	}

	// The round outcome is safe at this point; a failed delete just leaves
	// the stale session to its TTL.
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("graded session delete failed")
	}
	return resp, nil
}

// History lists the learner's drill attempts, newest first.
func (s *CermatService) History(ctx context.Context, learnerID int) ([]model.CermatAttempt, error) {
	attempts, err := s.attempts.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list cermat attempts: %w", err)
	}
	return attempts, nil
}

// newRound draws a fresh reference set and question list. Every round gets
// its own session id and base set; prior results ride along in the session.
func (s *CermatService) newRound(attemptID uuid.UUID, learnerID int, mode model.CermatMode, round int, results []model.CermatRoundResult) *model.CermatSession {
	base := drawBaseSet(mode)
	questions := make([][]string, s.cfg.QuestionsPerRound)
	answers := make([]string, s.cfg.QuestionsPerRound)
	for i := range questions {
		questions[i], answers[i] = dropOne(base)
	}

	return &model.CermatSession{
		ID:          uuid.NewString(),
		AttemptID:   attemptID,
		LearnerID:   learnerID,
		Mode:        mode,
		RoundIndex:  round,
		TotalRounds: s.cfg.TotalRounds,
		BaseSet:     base,
		Questions:   questions,
		Answers:     answers,
		Results:     results,
		CreatedAt:   time.Now(),
	}
}

func (s *CermatService) payload(sess *model.CermatSession) *model.CermatSessionPayload {
	return &model.CermatSessionPayload{
		SessionID:     sess.ID,
		Mode:          sess.Mode,
		BaseSet:       sess.BaseSet,
		Questions:     sess.Questions,
		SessionIndex:  sess.RoundIndex,
		TotalSessions: sess.TotalRounds,
		BreakSeconds:  s.cfg.BreakSeconds,
		TimerSeconds:  s.cfg.RoundSeconds,
	}
}

// drawBaseSet picks 5 distinct tokens from the mode's alphabet.
func drawBaseSet(mode model.CermatMode) []string {
	alphabet := "0123456789"
	if mode == model.CermatModeLetter {
		alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	}
	perm := rand.Perm(len(alphabet))
	base := make([]string, cermatBaseSetSize)
	for i := 0; i < cermatBaseSetSize; i++ {
		base[i] = string(alphabet[perm[i]])
	}
	return base
}

// dropOne returns the base set minus one randomly omitted token, shuffled,
// plus the omitted token as the expected answer.
func dropOne(base []string) (question []string, answer string) {
	omit := rand.IntN(len(base))
	answer = base[omit]
	question = make([]string, 0, len(base)-1)
	for i, tok := range base {
		if i != omit {
			question = append(question, tok)
		}
	}
	rand.Shuffle(len(question), func(i, j int) {
		question[i], question[j] = question[j], question[i]
	})
	return question, answer
}

// gradeCermatRound scores the round as a percentage. Answers arrive keyed by
// 1-based question order; missing or out-of-range entries count as wrong.
func gradeCermatRound(sess *model.CermatSession, answers []model.CermatAnswer) model.CermatRoundResult {
	given := make(map[int]string, len(answers))
	for _, a := range answers {
		given[a.Order] = strings.ToUpper(strings.TrimSpace(a.Value))
	}

	correct := 0
	for i, expected := range sess.Answers {
		if given[i+1] == strings.ToUpper(expected) {
			correct++
		}
	}

	total := len(sess.Answers)
	score := 0.0
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}
	return model.CermatRoundResult{
		Round:   sess.RoundIndex,
		Correct: correct,
		Total:   total,
		Score:   score,
	}
}

// summarize folds per-round results into the drill summary. The average is
// the mean of the round percentages, so every round weighs equally even if
// round sizes ever differ.
func summarize(attemptID uuid.UUID, mode model.CermatMode, results []model.CermatRoundResult) *model.CermatSummary {
	var sum float64
	correct, total := 0, 0
	for _, r := range results {
		sum += r.Score
		correct += r.Correct
		total += r.Total
	}
	avg := 0.0
	if len(results) > 0 {
		avg = sum / float64(len(results))
	}
	return &model.CermatSummary{
		AttemptID:      attemptID,
		Mode:           mode,
		AverageScore:   avg,
		TotalCorrect:   correct,
		TotalQuestions: total,
		Rounds:         results,
	}
}
