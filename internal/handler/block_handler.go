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

// BlockHandler serves the learner-facing violation and unlock surface.
type BlockHandler struct {
	blockService *service.BlockService
}

// NewBlockHandler creates a new BlockHandler.
func NewBlockHandler(blockService *service.BlockService) *BlockHandler {
	return &BlockHandler{blockService: blockService}
}

// ReportViolation godoc
// POST /api/v1/learner/violations
// Returns the resulting block state, or no block when the subsystem is
// disabled for this context.
func (h *BlockHandler) ReportViolation(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.ReportViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	block, err := h.blockService.RecordViolation(c.Request.Context(), claims.UserID, req.Type, req.Context, req.Reason)
	if err != nil {
		failDomain(c, err)
		return
	}

	if block == nil {
		response.Success(c, http.StatusOK, gin.H{"blocked": false})
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"blocked": true,
		"block":   block,
	})
}

// GetActiveBlocks godoc
// GET /api/v1/learner/blocks/active?context=STANDARD|UJIAN
func (h *BlockHandler) GetActiveBlocks(c *gin.Context) {
	claims := middleware.GetClaims(c)

	bctx := model.BlockContext(c.DefaultQuery("context", string(model.BlockContextStandard)))
	if bctx != model.BlockContextStandard && bctx != model.BlockContextUjian {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	blocks, err := h.blockService.ActiveBlocks(c.Request.Context(), claims.UserID, bctx)
	if err != nil {
		failDomain(c, err)
		return
	}
	if blocks == nil {
		blocks = []model.ExamBlock{}
	}
	response.Success(c, http.StatusOK, gin.H{"blocks": blocks})
}

// Unlock godoc
// POST /api/v1/learner/blocks/unlock
// Rate limited by IP: the code space is 6 digits.
func (h *BlockHandler) Unlock(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.UnlockRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	block, err := h.blockService.Unlock(c.Request.Context(), claims.UserID, req.Type, req.Code)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"unlocked":    true,
		"type":        block.Type,
		"resolved_at": block.ResolvedAt,
	})
}
