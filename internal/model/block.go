package model

import (
	"time"

	"github.com/google/uuid"
)

// BlockType is the assessment type an exam block suspends.
type BlockType string

const (
	BlockTypePractice BlockType = "PRACTICE"
	BlockTypeTryout   BlockType = "TRYOUT"
)

// BlockContext selects which enable-flag and type filter apply when
// consulting active blocks. UJIAN is the higher-stakes exam context where
// both block types are gated by a single flag.
type BlockContext string

const (
	BlockContextStandard BlockContext = "STANDARD"
	BlockContextUjian    BlockContext = "UJIAN"
)

// ExamBlock suspends a learner's access to one assessment type until the
// current unlock code is submitted or an admin resolves it. At most one row
// per (learner, type) may have a null resolved_at; the partial unique index
// in the schema enforces this under concurrent violation reports.
type ExamBlock struct {
	ID             uuid.UUID  `json:"id"`
	LearnerID      int        `json:"learner_id"`
	Type           BlockType  `json:"type"`
	Reason         string     `json:"reason"`
	ViolationCount int        `json:"violation_count"`
	UnlockCode     string     `json:"-"`
	BlockedAt      time.Time  `json:"blocked_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// Active reports whether the block still suspends access.
func (b *ExamBlock) Active() bool {
	return b.ResolvedAt == nil
}

// ViolationEvent is the raw anti-cheat event reported by the presentation
// layer, persisted asynchronously as an audit trail.
type ViolationEvent struct {
	LearnerID int       `json:"learner_id"`
	Type      BlockType `json:"type"`
	Reason    string    `json:"reason"`
	Timestamp int64     `json:"timestamp"`
}

// ReportViolationRequest is the payload for a client-reported violation.
type ReportViolationRequest struct {
	Type    BlockType    `json:"type" binding:"required,oneof=PRACTICE TRYOUT"`
	Context BlockContext `json:"context" binding:"omitempty,oneof=STANDARD UJIAN"`
	Reason  string       `json:"reason" binding:"omitempty,max=500"`
}

// UnlockRequest is the payload for submitting an unlock code.
type UnlockRequest struct {
	Type BlockType `json:"type" binding:"required,oneof=PRACTICE TRYOUT"`
	Code string    `json:"code" binding:"required,len=6,numeric"`
}
