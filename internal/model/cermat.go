package model

import (
	"time"

	"github.com/google/uuid"
)

// CermatMode selects the token alphabet of a cermat accuracy drill.
type CermatMode string

const (
	CermatModeNumber CermatMode = "NUMBER"
	CermatModeLetter CermatMode = "LETTER"
)

// CermatRoundResult is the grade of one completed round.
type CermatRoundResult struct {
	Round   int     `json:"round"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Score   float64 `json:"score"`
}

// CermatSession is the transient server-side state of one drill round.
// It lives in Redis under an opaque session id with an idle TTL and is
// discarded once the round is submitted; each round gets a fresh id so a
// stale client cannot resubmit a graded round.
type CermatSession struct {
	ID          string              `json:"id"`
	AttemptID   uuid.UUID           `json:"attempt_id"`
	LearnerID   int                 `json:"learner_id"`
	Mode        CermatMode          `json:"mode"`
	RoundIndex  int                 `json:"round_index"` // 1-based
	TotalRounds int                 `json:"total_rounds"`
	BaseSet     []string            `json:"base_set"`
	Questions   [][]string          `json:"questions"`
	// Answers[i] is the reference token omitted from Questions[i].
	Answers     []string            `json:"answers"`
	Results     []CermatRoundResult `json:"results"`
	CreatedAt   time.Time           `json:"created_at"`
}

// CermatAttempt is the durable multi-round drill summary. AverageScore is
// the mean of the per-round percentages, not a recombination of raw counts.
type CermatAttempt struct {
	ID             uuid.UUID           `json:"id"`
	LearnerID      int                 `json:"learner_id"`
	Mode           CermatMode          `json:"mode"`
	TotalRounds    int                 `json:"total_rounds"`
	AverageScore   *float64            `json:"average_score,omitempty"`
	TotalCorrect   int                 `json:"total_correct"`
	TotalQuestions int                 `json:"total_questions"`
	RoundScores    []CermatRoundResult `json:"round_scores,omitempty"`
	StartedAt      time.Time           `json:"started_at"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
}

// StartCermatRequest is the payload for starting a drill.
type StartCermatRequest struct {
	Mode CermatMode `json:"mode" binding:"required,oneof=NUMBER LETTER"`
}

// CermatAnswer is one answer of a round submission; Order is the 1-based
// question index within the round.
type CermatAnswer struct {
	Order int    `json:"order" binding:"required,min=1"`
	Value string `json:"value" binding:"required,max=1"`
}

// SubmitCermatRoundRequest is the payload for submitting a round.
type SubmitCermatRoundRequest struct {
	Answers []CermatAnswer `json:"answers" binding:"required,dive"`
}

// CermatSessionPayload is the client-facing view of a round (no answers).
type CermatSessionPayload struct {
	SessionID     string         `json:"session_id"`
	Mode          CermatMode     `json:"mode"`
	BaseSet       []string       `json:"base_set"`
	Questions     [][]string     `json:"questions"`
	SessionIndex  int            `json:"session_index"`
	TotalSessions int            `json:"total_sessions"`
	BreakSeconds  int            `json:"break_seconds"`
	TimerSeconds  int            `json:"timer_seconds"`
}

// CermatSummary is returned after the final round.
type CermatSummary struct {
	AttemptID      uuid.UUID           `json:"attempt_id"`
	Mode           CermatMode          `json:"mode"`
	AverageScore   float64             `json:"average_score"`
	TotalCorrect   int                 `json:"total_correct"`
	TotalQuestions int                 `json:"total_questions"`
	Rounds         []CermatRoundResult `json:"rounds"`
}

// SubmitCermatRoundResponse wraps either the next round or the summary.
type SubmitCermatRoundResponse struct {
	Completed   bool                  `json:"completed"`
	NextSession *CermatSessionPayload `json:"next_session,omitempty"`
	Summary     *CermatSummary        `json:"summary,omitempty"`
}
