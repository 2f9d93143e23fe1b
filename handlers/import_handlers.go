package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"podium-server-go/importer"
	"podium-server-go/models"
	"podium-server-go/parser"
)

// uploadFormat picks the format from ?format=, else the file extension,
// else def.
func uploadFormat(c *gin.Context, filename, def string) string {
	if f := strings.ToLower(strings.TrimSpace(c.Query("format"))); f != "" {
		return f
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		return ext
	}
	return def
}

// ImportResults handles POST /api/results/import?format=txt|csv|xlsx&mode=merge|replace.
// With ?preview=true the parsed categories are returned without saving.
func (h *APIHandler) ImportResults(c *gin.Context) {
	mode := c.Query("mode")
	if err := importer.CheckMode(mode); err != nil {
		h.fail(c, err, "Failed to import results")
		return
	}
	data, filename, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		incoming []models.Category
		stats    *parser.Stats
	)
	switch format := uploadFormat(c, filename, "txt"); format {
	case "txt", "text":
		parsed, st := parser.ParseResultsText(string(data))
		incoming, stats = importer.FromParsedText(parsed), &st
	case "csv", "xlsx":
		var rows [][]string
		if format == "csv" {
			rows, err = parser.ReadCSV(bytes.NewReader(data))
		} else {
			rows, err = parser.ReadXLSX(bytes.NewReader(data), c.Query("sheet"))
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		table, err := parser.ParseResultsRows(rows)
		if err != nil {
			h.fail(c, err, "Failed to read results")
			return
		}
		incoming = importer.FromTable(table)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported format %q", format)})
		return
	}

	resp := gin.H{"categories": incoming, "count": len(incoming)}
	if stats != nil {
		resp["stats"] = stats
	}
	if len(incoming) == 0 {
		resp["warning"] = "No categories found in the file"
	}
	if c.Query("preview") == "true" || len(incoming) == 0 {
		c.JSON(http.StatusOK, resp)
		return
	}

	cats, err := h.Importer.ApplyResults(incoming, mode)
	if err != nil {
		h.fail(c, err, "Failed to import results")
		return
	}
	h.log.Info("results file imported", zap.String("file", filename), zap.Int("categories", len(incoming)))
	resp["total"] = len(cats)
	resp["message"] = "Import successful"
	c.JSON(http.StatusOK, resp)
}

// ClearResults handles POST /api/results/clear
func (h *APIHandler) ClearResults(c *gin.Context) {
	if err := h.Importer.ClearResults(); err != nil {
		h.fail(c, err, "Failed to clear results")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Results cleared"})
}

// ClearPlanning handles POST /api/results/clear-planning
func (h *APIHandler) ClearPlanning(c *gin.Context) {
	if err := h.Importer.ClearPlanning(); err != nil {
		h.fail(c, err, "Failed to clear planning")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Planning cleared"})
}

// DeleteAllResults handles POST /api/results/delete-all
func (h *APIHandler) DeleteAllResults(c *gin.Context) {
	if err := h.Importer.DeleteAll(); err != nil {
		h.fail(c, err, "Failed to delete data")
		return
	}
	h.log.Warn("categories, days and assignments deleted")
	c.JSON(http.StatusOK, gin.H{"message": "All categories deleted"})
}

// ImportCategories handles POST /api/categories/import?format=csv|txt|xlsx&sheet=
func (h *APIHandler) ImportCategories(c *gin.Context) {
	data, filename, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var cats []models.Category
	format := uploadFormat(c, filename, "csv")
	switch format {
	case "csv":
		cats, err = importer.ParseCategoriesCSV(bytes.NewReader(data))
	case "txt", "text":
		cats, err = importer.ParseCategoriesTXT(bytes.NewReader(data))
	case "xlsx":
		cats, err = importer.ParseCategoriesXLSX(bytes.NewReader(data), c.Query("sheet"))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported format %q", format)})
		return
	}
	if err != nil {
		h.fail(c, err, "Failed to read categories")
		return
	}
	h.saveImportedCategories(c, cats, format)
}

// ImportCategoriesFromAPI handles POST /api/categories/import/api with
// {"url": "...", "token": "..."}. The url defaults to the stored base url.
func (h *APIHandler) ImportCategoriesFromAPI(c *gin.Context) {
	var req struct {
		URL   string `json:"url"`
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	cfg := h.Store.APIConfig()
	if req.URL == "" {
		req.URL = cfg.BaseURL
	}
	if req.Token == "" {
		req.Token = cfg.APIKey
	}

	cats, err := h.Importer.FetchCategories(c.Request.Context(), req.URL, req.Token)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": "API import failed: " + err.Error()})
		return
	}
	h.saveImportedCategories(c, cats, "api")
}

func (h *APIHandler) saveImportedCategories(c *gin.Context, cats []models.Category, source string) {
	if len(cats) == 0 {
		c.JSON(http.StatusOK, gin.H{"count": 0, "categories": cats, "warning": "No valid categories found"})
		return
	}
	n, err := h.Importer.SaveCategories(cats, source)
	if err != nil {
		h.fail(c, err, "Failed to save categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Import successful", "count": n, "categories": cats})
}

// ResetCategories handles POST /api/categories/reset
func (h *APIHandler) ResetCategories(c *gin.Context) {
	if err := h.Importer.ResetCategories(); err != nil {
		h.fail(c, err, "Failed to reset categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Categories, planning and days cleared"})
}
