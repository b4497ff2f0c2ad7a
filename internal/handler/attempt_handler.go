package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/latihanku/latihanku-backend/internal/middleware"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/latihanku/latihanku-backend/internal/response"
	"github.com/latihanku/latihanku-backend/internal/service"
	"github.com/latihanku/latihanku-backend/internal/validator"
)

// AttemptHandler serves the learner-facing attempt lifecycle.
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// GetAssessmentInfo godoc
// GET /api/v1/learner/assessments/:slug
func (h *AttemptHandler) GetAssessmentInfo(c *gin.Context) {
	claims := middleware.GetClaims(c)

	assessment, status, decision, err := h.attemptService.Info(c.Request.Context(), claims.UserID, c.Param("slug"))
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"assessment":    assessment,
		"window_status": status,
		"access": gin.H{
			"allowed": decision.Allowed,
			"free":    decision.Free,
		},
	})
}

// StartAttempt godoc
// POST /api/v1/learner/assessments/:slug/attempts
// Idempotent within the reuse window: a double-submitted start returns the
// existing in-progress attempt instead of creating a second one.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)

	result, err := h.attemptService.Start(c.Request.Context(), claims.UserID, c.Param("slug"))
	if err != nil {
		failDomain(c, err)
		return
	}

	status := http.StatusCreated
	if result.Reused {
		status = http.StatusOK
	}
	response.Success(c, status, startPayload(result))
}

// GetAttempt godoc
// GET /api/v1/learner/attempts/:attempt_id
// Refetches an in-progress attempt with its pinned question order.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.attemptService.Resume(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, startPayload(result))
}

// SubmitAttempt godoc
// POST /api/v1/learner/attempts/:attempt_id/submit
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), claims.UserID, attemptID, req.Answers)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ReviewAttempt godoc
// GET /api/v1/learner/attempts/:attempt_id/review
func (h *AttemptHandler) ReviewAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	review, err := h.attemptService.Review(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, review)
}

// ListAttempts godoc
// GET /api/v1/learner/attempts
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attempts, err := h.attemptService.History(c.Request.Context(), claims.UserID)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// startPayload shapes the attempt plus its questions for the taking UI.
// Explanations stay server-side until the attempt is completed.
func startPayload(result *service.StartResult) gin.H {
	questions := make([]model.Question, len(result.Questions))
	copy(questions, result.Questions)
	for i := range questions {
		questions[i].Explanation = nil
	}

	return gin.H{
		"attempt": model.StartAttemptResponse{
			AttemptID:       result.Attempt.ID,
			DurationMinutes: result.Assessment.DurationMinutes,
			Reused:          result.Reused,
		},
		"started_at": result.Attempt.StartedAt,
		"questions":  questions,
	}
}
