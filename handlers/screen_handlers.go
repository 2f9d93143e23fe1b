package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"podium-server-go/db"
)

// GetPlanning handles GET /api/planning
func (h *APIHandler) GetPlanning(c *gin.Context) {
	c.JSON(http.StatusOK, h.Views.Planning())
}

// GetAssignation handles GET /api/assignation?filter=All|Day N
func (h *APIHandler) GetAssignation(c *gin.Context) {
	c.JSON(http.StatusOK, h.Views.Assignation(c.Query("filter")))
}

// ToggleAssignation handles POST /api/assignation/toggle with
// {"category_id", "vip_id", "role"}.
func (h *APIHandler) ToggleAssignation(c *gin.Context) {
	var req struct {
		CategoryID string `json:"category_id" binding:"required"`
		VipID      string `json:"vip_id" binding:"required"`
		Role       string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	a, err := h.Views.ToggleVIP(req.CategoryID, req.VipID, req.Role)
	if err != nil {
		h.fail(c, err, "Failed to update assignment")
		return
	}
	c.JSON(http.StatusOK, a)
}

// ClearAssignation handles DELETE /api/assignation/:categoryId
func (h *APIHandler) ClearAssignation(c *gin.Context) {
	if err := h.Views.ClearVIPs(c.Param("categoryId")); err != nil {
		h.fail(c, err, "Failed to clear assignment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category_id": c.Param("categoryId"), "vip_ids": []string{}})
}

// GetLive handles GET /api/live
func (h *APIHandler) GetLive(c *gin.Context) {
	c.JSON(http.StatusOK, h.Views.Live())
}

// ValidateLive handles POST /api/live/validate
func (h *APIHandler) ValidateLive(c *gin.Context) {
	id, err := h.Views.ValidateLive()
	if err != nil {
		h.fail(c, err, "Failed to validate podium")
		return
	}
	c.JSON(http.StatusOK, gin.H{"validated": id, "live": h.Views.Live()})
}

// ResetLive handles POST /api/live/reset
func (h *APIHandler) ResetLive(c *gin.Context) {
	h.resetPage(c, db.PageLive)
}

// GetPrepRoom handles GET /api/prep-room
func (h *APIHandler) GetPrepRoom(c *gin.Context) {
	c.JSON(http.StatusOK, h.Views.PrepRoom())
}

// SendPrepRoom handles POST /api/prep-room/:categoryId/send
func (h *APIHandler) SendPrepRoom(c *gin.Context) {
	if err := h.Views.SendPrepRoom(c.Param("categoryId")); err != nil {
		h.fail(c, err, "Failed to send podium")
		return
	}
	c.JSON(http.StatusOK, h.Views.PrepRoom())
}

// ResetPrepRoom handles POST /api/prep-room/reset
func (h *APIHandler) ResetPrepRoom(c *gin.Context) {
	h.resetPage(c, db.PagePrepRoom)
}

func (h *APIHandler) resetPage(c *gin.Context, page string) {
	if err := h.Store.ResetPage(page); err != nil {
		h.fail(c, err, "Failed to reset view")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "View reset", "page": page})
}

// ResetViewFilters handles POST /api/view-filters/reset
func (h *APIHandler) ResetViewFilters(c *gin.Context) {
	if err := h.Store.ResetAllPages(); err != nil {
		h.fail(c, err, "Failed to reset views")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All views reset"})
}

// GetSpeaker handles GET /api/speaker?index=
func (h *APIHandler) GetSpeaker(c *gin.Context) {
	idx, err := intQuery(c, "index", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Views.Speaker(idx))
}

// GetHostess handles GET /api/hostess?index=
func (h *APIHandler) GetHostess(c *gin.Context) {
	idx, err := intQuery(c, "index", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Views.Hostess(idx))
}

// --- Settings ---

// GetSettings handles GET /api/settings
func (h *APIHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Settings())
}

// PatchSettings handles PATCH /api/settings. Unknown keys are dropped.
func (h *APIHandler) PatchSettings(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	cfg, err := h.Store.SaveSettings(patch)
	if err != nil {
		h.fail(c, err, "Failed to save settings")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// maskKey hides all but the last four characters of an API key.
func maskKey(key string) string {
	if len(key) <= 4 {
		if key == "" {
			return ""
		}
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// GetAPIConfig handles GET /api/api-config. The API key is masked.
func (h *APIHandler) GetAPIConfig(c *gin.Context) {
	cfg := h.Store.APIConfig()
	cfg.APIKey = maskKey(cfg.APIKey)
	c.JSON(http.StatusOK, cfg)
}

// PatchAPIConfig handles PATCH /api/api-config
func (h *APIHandler) PatchAPIConfig(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	cfg, err := h.Store.SaveAPIConfig(patch)
	if err != nil {
		h.fail(c, err, "Failed to save API config")
		return
	}
	cfg.APIKey = maskKey(cfg.APIKey)
	c.JSON(http.StatusOK, cfg)
}

// ResetAPIConfig handles POST /api/api-config/reset
func (h *APIHandler) ResetAPIConfig(c *gin.Context) {
	cfg, err := h.Store.ResetAPIConfig()
	if err != nil {
		h.fail(c, err, "Failed to reset API config")
		return
	}
	c.JSON(http.StatusOK, cfg)
}
