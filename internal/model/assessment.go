package model

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentType distinguishes the two question-bank assessment variants.
type AssessmentType string

const (
	AssessmentTypeTryout   AssessmentType = "TRYOUT"
	AssessmentTypePractice AssessmentType = "PRACTICE"
)

// Assessment is a published question-bank assessment (tryout or practice set).
// The question list is an immutable snapshot once an attempt references it.
type Assessment struct {
	ID              uuid.UUID      `json:"id"`
	Type            AssessmentType `json:"type"`
	Slug            string         `json:"slug"`
	Title           string         `json:"title"`
	DurationMinutes int            `json:"duration_minutes"`
	OpenAt          *time.Time     `json:"open_at,omitempty"`
	CloseAt         *time.Time     `json:"close_at,omitempty"`
	IsFree          bool           `json:"is_free"`
	IsPublished     bool           `json:"is_published"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	// Questions are loaded in authoring order. Per-attempt display order is a
	// separate permutation pinned on the attempt row.
	Questions []Question `json:"questions,omitempty"`
}

// Feature maps an assessment type to the membership feature that gates it.
func (t AssessmentType) Feature() Feature {
	if t == AssessmentTypePractice {
		return FeaturePractice
	}
	return FeatureTryout
}

// Question is a single multiple-choice question inside an assessment.
type Question struct {
	ID          uuid.UUID `json:"id"`
	AssessmentID uuid.UUID `json:"assessment_id"`
	Prompt      string    `json:"prompt"`
	MediaURL    *string   `json:"media_url,omitempty"`
	Explanation *string   `json:"explanation,omitempty"`
	OrderNum    int       `json:"order_num"`
	Options     []Option  `json:"options"`
}

// CorrectOption returns the option marked correct, or nil for a malformed
// question (the ingestion validator rejects those before they are stored).
func (q *Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// Option is one answer choice of a question.
type Option struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Label      string    `json:"label"`
	IsCorrect  bool      `json:"-"`
	OrderNum   int       `json:"order_num"`
}

// QuestionInput is one pre-parsed question from the ingestion collaborator
// (CSV parsing itself happens upstream).
type QuestionInput struct {
	Prompt      string        `json:"prompt" binding:"required,min=1,max=4000"`
	MediaURL    *string       `json:"media_url" binding:"omitempty,max=500"`
	Explanation *string       `json:"explanation" binding:"omitempty,max=4000"`
	Options     []OptionInput `json:"options" binding:"required,min=2,dive"`
}

// OptionInput is one answer choice of a QuestionInput.
type OptionInput struct {
	Label     string `json:"label" binding:"required,min=1,max=1000"`
	IsCorrect bool   `json:"is_correct"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing an assessment's
// question set with a validated ingestion batch.
type ReplaceQuestionsRequest struct {
	Questions []QuestionInput `json:"questions" binding:"required,min=1,dive"`
}
