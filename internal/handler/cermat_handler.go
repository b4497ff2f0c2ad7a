package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/latihanku/latihanku-backend/internal/middleware"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/latihanku/latihanku-backend/internal/response"
	"github.com/latihanku/latihanku-backend/internal/service"
	"github.com/latihanku/latihanku-backend/internal/validator"
)

// CermatHandler serves the timed accuracy drill.
type CermatHandler struct {
	cermatService *service.CermatService
}

// NewCermatHandler creates a new CermatHandler.
func NewCermatHandler(cermatService *service.CermatService) *CermatHandler {
	return &CermatHandler{cermatService: cermatService}
}

// StartDrill godoc
// POST /api/v1/learner/cermat
func (h *CermatHandler) StartDrill(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.StartCermatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	payload, err := h.cermatService.Start(c.Request.Context(), claims.UserID, req.Mode)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusCreated, payload)
}

// SubmitRound godoc
// POST /api/v1/learner/cermat/sessions/:session_id/submit
// Returns either the next round under a fresh session id or, after the
// final round, the drill summary.
func (h *CermatHandler) SubmitRound(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.SubmitCermatRoundRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.cermatService.SubmitRound(c.Request.Context(), claims.UserID, c.Param("session_id"), req.Answers)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ListHistory godoc
// GET /api/v1/learner/cermat/history
func (h *CermatHandler) ListHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attempts, err := h.cermatService.History(c.Request.Context(), claims.UserID)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}
