package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/latihanku/latihanku-backend/internal/response"
	"github.com/latihanku/latihanku-backend/internal/service"
	"github.com/latihanku/latihanku-backend/internal/validator"
)

// AdminAssessmentHandler serves question-bank authoring for admins.
type AdminAssessmentHandler struct {
	assessmentService *service.AssessmentService
}

// NewAdminAssessmentHandler creates a new AdminAssessmentHandler.
func NewAdminAssessmentHandler(assessmentService *service.AssessmentService) *AdminAssessmentHandler {
	return &AdminAssessmentHandler{assessmentService: assessmentService}
}

// GetAssessment godoc
// GET /api/v1/admin/assessments/:assessment_id
func (h *AdminAssessmentHandler) GetAssessment(c *gin.Context) {
	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	assessment, err := h.assessmentService.Get(c.Request.Context(), assessmentID)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, assessment)
}

// ReplaceQuestions godoc
// PUT /api/v1/admin/assessments/:assessment_id/questions
// Atomically replaces the whole question set with a validated batch.
func (h *AdminAssessmentHandler) ReplaceQuestions(c *gin.Context) {
	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.assessmentService.ReplaceQuestions(c.Request.Context(), assessmentID, req.Questions); err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": len(req.Questions)})
}
