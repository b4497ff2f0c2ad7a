package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/latihanku/latihanku-backend/internal/response"
	"github.com/latihanku/latihanku-backend/internal/service"
)

// AdminBlockHandler serves block oversight for admins.
type AdminBlockHandler struct {
	blockService *service.BlockService
}

// NewAdminBlockHandler creates a new AdminBlockHandler.
func NewAdminBlockHandler(blockService *service.BlockService) *AdminBlockHandler {
	return &AdminBlockHandler{blockService: blockService}
}

// ListActiveBlocks godoc
// GET /api/v1/admin/blocks/active?type=PRACTICE|TRYOUT
func (h *AdminBlockHandler) ListActiveBlocks(c *gin.Context) {
	var types []model.BlockType
	switch t := c.Query("type"); t {
	case "":
	case string(model.BlockTypePractice), string(model.BlockTypeTryout):
		types = []model.BlockType{model.BlockType(t)}
	default:
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	blocks, err := h.blockService.ListActive(c.Request.Context(), types)
	if err != nil {
		failDomain(c, err)
		return
	}
	if blocks == nil {
		blocks = []model.ExamBlock{}
	}

	// Admins see the current unlock code so they can hand it out.
	out := make([]gin.H, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, gin.H{
			"id":              b.ID,
			"learner_id":      b.LearnerID,
			"type":            b.Type,
			"reason":          b.Reason,
			"violation_count": b.ViolationCount,
			"unlock_code":     b.UnlockCode,
			"blocked_at":      b.BlockedAt,
		})
	}
	response.Success(c, http.StatusOK, gin.H{"blocks": out})
}

// ResolveBlock godoc
// POST /api/v1/admin/blocks/:block_id/resolve
// Closes a block without a code (admin override).
func (h *AdminBlockHandler) ResolveBlock(c *gin.Context) {
	blockID, err := uuid.Parse(c.Param("block_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.blockService.Resolve(c.Request.Context(), blockID); err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"resolved": true})
}

// RegenerateCode godoc
// POST /api/v1/admin/blocks/:block_id/regenerate-code
func (h *AdminBlockHandler) RegenerateCode(c *gin.Context) {
	blockID, err := uuid.Parse(c.Param("block_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	code, err := h.blockService.RegenerateCode(c.Request.Context(), blockID)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unlock_code": code})
}
