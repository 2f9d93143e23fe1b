package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"podium-server-go/db"
	"podium-server-go/models"
)

// GetAllVIPs handles GET /api/vips
func (h *APIHandler) GetAllVIPs(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.VIPs())
}

// GetVIPByID handles GET /api/vips/:id
func (h *APIHandler) GetVIPByID(c *gin.Context) {
	vip, err := h.Store.VIPByID(c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to retrieve VIP")
		return
	}
	c.JSON(http.StatusOK, vip)
}

// GetVIPPhoto handles GET /api/vips/:id/photo
func (h *APIHandler) GetVIPPhoto(c *gin.Context) {
	vip, err := h.Store.VIPByID(c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to retrieve VIP")
		return
	}
	path := h.Views.ResolvePhoto(vip)
	if path == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No photo for this VIP"})
		return
	}
	c.File(path)
}

// AddVIP handles POST /api/vips. An existing id is updated in place.
func (h *APIHandler) AddVIP(c *gin.Context) {
	var vip models.VIP
	if err := c.ShouldBindJSON(&vip); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	saved, err := h.Store.UpsertVIP(vip)
	if err != nil {
		h.fail(c, err, "Failed to save VIP")
		return
	}
	h.log.Info("vip saved", zap.String("id", saved.ID))
	c.JSON(http.StatusCreated, saved)
}

// UpdateVIP handles PUT /api/vips/:id. The body may carry a new id.
func (h *APIHandler) UpdateVIP(c *gin.Context) {
	var vip models.VIP
	if err := c.ShouldBindJSON(&vip); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if vip.ID == "" {
		vip.ID = c.Param("id")
	}
	saved, err := h.Store.UpdateVIP(c.Param("id"), vip)
	if err != nil {
		h.fail(c, err, "Failed to update VIP")
		return
	}
	c.JSON(http.StatusOK, saved)
}

// DeleteVIP handles DELETE /api/vips/:id
func (h *APIHandler) DeleteVIP(c *gin.Context) {
	n, err := h.Store.DeleteVIPs(c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to delete VIP")
		return
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "VIP not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// DeleteVIPs handles POST /api/vips/delete with {"ids": [...]}
func (h *APIHandler) DeleteVIPs(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	n, err := h.Store.DeleteVIPs(req.IDs...)
	if err != nil {
		h.fail(c, err, "Failed to delete VIPs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// ClearVIPs handles DELETE /api/vips
func (h *APIHandler) ClearVIPs(c *gin.Context) {
	if err := h.Store.SaveVIPs([]models.VIP{}); err != nil {
		h.fail(c, err, "Failed to clear VIPs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All VIPs deleted"})
}

// GetAllCategories handles GET /api/categories
func (h *APIHandler) GetAllCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Categories())
}

// GetCategoryByID handles GET /api/categories/:id
func (h *APIHandler) GetCategoryByID(c *gin.Context) {
	cat, ok := h.Store.CategoriesByID()[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	c.JSON(http.StatusOK, cat)
}

// ResetData handles POST /api/data/reset. Every document is deleted; the
// settings defaults are written back.
func (h *APIHandler) ResetData(c *gin.Context) {
	if err := h.Store.Reset(); err != nil {
		h.fail(c, err, "Failed to reset data")
		return
	}
	h.Store.EnsureSettings()
	h.log.Warn("all data reset")
	c.JSON(http.StatusOK, gin.H{"message": "All data deleted", "documents": db.DocumentNames()})
}
