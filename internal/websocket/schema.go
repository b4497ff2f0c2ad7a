package websocket

import (
	"github.com/latihanku/latihanku-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventViolation Event = "violation"
	EventPong      Event = "pong"
)

// ViolationResponse pushes one live violation event to the admin monitor.
type ViolationResponse struct {
	Event     Event                `json:"event"`
	Violation model.ViolationEvent `json:"violation"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
