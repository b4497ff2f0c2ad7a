package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one scored instance of a learner taking an assessment.
// It moves through NotStarted -> InProgress (row created) -> Completed
// (score + completed_at set); a completed attempt is terminal.
type Attempt struct {
	ID              uuid.UUID  `json:"id"`
	AssessmentID    uuid.UUID  `json:"assessment_id"`
	LearnerID       int        `json:"learner_id"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Score           *float64   `json:"score,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`

	// QuestionOrder is the permutation pinned at start time. Every refetch of
	// an in-progress attempt replays this exact order.
	QuestionOrder []uuid.UUID `json:"question_order,omitempty"`
}

// Completed reports whether the attempt reached its terminal state.
func (a *Attempt) Completed() bool {
	return a.CompletedAt != nil
}

// AnswerRecord is the graded choice for one (attempt, question) pair.
// A nil OptionID means the question was left unanswered.
type AnswerRecord struct {
	AttemptID  uuid.UUID  `json:"attempt_id"`
	QuestionID uuid.UUID  `json:"question_id"`
	OptionID   *uuid.UUID `json:"option_id,omitempty"`
	IsCorrect  bool       `json:"is_correct"`
}

// SubmittedAnswer is one (question, option) pair sent by the client on submit.
// OptionID is optional so unanswered questions can be reported explicitly.
type SubmittedAnswer struct {
	QuestionID uuid.UUID  `json:"question_id" binding:"required"`
	OptionID   *uuid.UUID `json:"option_id" binding:"omitempty"`
}

// SubmitAttemptRequest is the payload for submitting an attempt.
type SubmitAttemptRequest struct {
	Answers []SubmittedAnswer `json:"answers" binding:"required,dive"`
}

// StartAttemptResponse is returned by the start endpoint.
type StartAttemptResponse struct {
	AttemptID       uuid.UUID `json:"attempt_id"`
	DurationMinutes int       `json:"duration_minutes"`
	Reused          bool      `json:"reused"`
}

// SubmitAttemptResponse is returned by the submit endpoint.
type SubmitAttemptResponse struct {
	AttemptID uuid.UUID `json:"attempt_id"`
	Score     float64   `json:"score"`
	Correct   int       `json:"correct"`
	Total     int       `json:"total"`
}

// ReviewQuestion merges a question with the learner's graded answer.
// CorrectOptionID and Explanation are populated only after completion.
type ReviewQuestion struct {
	QuestionID      uuid.UUID  `json:"question_id"`
	Prompt          string     `json:"prompt"`
	MediaURL        *string    `json:"media_url,omitempty"`
	Options         []Option   `json:"options"`
	ChosenOptionID  *uuid.UUID `json:"chosen_option_id,omitempty"`
	IsCorrect       *bool      `json:"is_correct,omitempty"`
	CorrectOptionID *uuid.UUID `json:"correct_option_id,omitempty"`
	Explanation     *string    `json:"explanation,omitempty"`
}

// ReviewResponse is the full attempt review for its owner.
type ReviewResponse struct {
	AttemptID   uuid.UUID        `json:"attempt_id"`
	Assessment  string           `json:"assessment"`
	Score       *float64         `json:"score,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Questions   []ReviewQuestion `json:"questions"`
}
