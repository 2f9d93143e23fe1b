package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"podium-server-go/export"
	"podium-server-go/models"
	"podium-server-go/scheduler"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// --- Days ---

// GetDays handles GET /api/days
func (h *APIHandler) GetDays(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"num_days": h.Scheduler.NumDays(),
		"days":     h.Scheduler.DayKeys(),
		"finals":   h.Store.FinalsDays(),
	})
}

// SetNumDays handles PUT /api/days/meta with {"num_days": n}
func (h *APIHandler) SetNumDays(c *gin.Context) {
	var meta models.DaysMeta
	if err := c.ShouldBindJSON(&meta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.Scheduler.SetNumDays(meta.NumDays); err != nil {
		h.fail(c, err, "Failed to save number of days")
		return
	}
	c.JSON(http.StatusOK, meta)
}

// SaveDay handles PUT /api/days/:day with {"category_ids": [...]}
func (h *APIHandler) SaveDay(c *gin.Context) {
	var req struct {
		CategoryIDs []string `json:"category_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	ids, err := h.Scheduler.SaveDay(c.Param("day"), req.CategoryIDs)
	if err != nil {
		h.fail(c, err, "Failed to save day")
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": c.Param("day"), "category_ids": ids})
}

// ClearDay handles DELETE /api/days/:day
func (h *APIHandler) ClearDay(c *gin.Context) {
	if err := h.Scheduler.ClearDay(c.Param("day")); err != nil {
		h.fail(c, err, "Failed to clear day")
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": c.Param("day"), "category_ids": []string{}})
}

// PushDay handles POST /api/days/:day/push
func (h *APIHandler) PushDay(c *gin.Context) {
	fb, err := h.Scheduler.PushDay(c.Param("day"))
	if err != nil {
		h.fail(c, err, "Failed to push day to final block")
		return
	}
	resp := gin.H{"final_block": fb}
	if len(fb.Finals) == 0 {
		resp["warning"] = "No categories assigned to this day"
	}
	c.JSON(http.StatusOK, resp)
}

// --- Final block ---

// GetFinalBlock handles GET /api/final-block?day=. Both finals and by_mat
// hold only the items visible for the day.
func (h *APIHandler) GetFinalBlock(c *gin.Context) {
	fb := h.Scheduler.Load()
	fb.Finals = scheduler.FilterByDay(fb.Finals, c.Query("day"), h.Store.FinalsDays())
	c.JSON(http.StatusOK, gin.H{
		"mats":   fb.Mats,
		"finals": fb.Finals,
		"by_mat": scheduler.GroupByMat(fb),
	})
}

// update runs one scheduler edit and answers with the saved block.
func (h *APIHandler) update(c *gin.Context, msg string, fn func(fb *models.FinalBlock) error) {
	fb, err := h.Scheduler.Update(fn)
	if err != nil {
		h.fail(c, err, msg)
		return
	}
	c.JSON(http.StatusOK, fb)
}

// SetMats handles PUT /api/final-block/mats with {"mats": n}
func (h *APIHandler) SetMats(c *gin.Context) {
	var req struct {
		Mats int `json:"mats" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	h.update(c, "Failed to set mats", func(fb *models.FinalBlock) error {
		return scheduler.SetMats(fb, req.Mats)
	})
}

// AutoBalance handles POST /api/final-block/auto-balance?day=
func (h *APIHandler) AutoBalance(c *gin.Context) {
	days := h.Store.FinalsDays()
	h.update(c, "Failed to auto-balance", func(fb *models.FinalBlock) error {
		scheduler.AutoBalance(fb, c.Query("day"), days)
		return nil
	})
}

// UnassignAll handles POST /api/final-block/unassign-all?day=
func (h *APIHandler) UnassignAll(c *gin.Context) {
	days := h.Store.FinalsDays()
	h.update(c, "Failed to unassign", func(fb *models.FinalBlock) error {
		scheduler.UnassignAll(fb, c.Query("day"), days)
		return nil
	})
}

// AddBreak handles POST /api/final-block/breaks with {"mat": n}
func (h *APIHandler) AddBreak(c *gin.Context) {
	var req struct {
		Mat int `json:"mat"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	var added models.FinalBlockItem
	fb, err := h.Scheduler.Update(func(fb *models.FinalBlock) error {
		var err error
		added, err = scheduler.AddBreak(fb, req.Mat)
		return err
	})
	if err != nil {
		h.fail(c, err, "Failed to add break")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"break": added, "final_block": fb})
}

// DeleteBreak handles DELETE /api/final-block/breaks/:id
func (h *APIHandler) DeleteBreak(c *gin.Context) {
	h.update(c, "Failed to delete break", func(fb *models.FinalBlock) error {
		return scheduler.DeleteBreak(fb, c.Param("id"))
	})
}

// DeleteAllBreaks handles DELETE /api/final-block/breaks
func (h *APIHandler) DeleteAllBreaks(c *gin.Context) {
	removed := 0
	fb, err := h.Scheduler.Update(func(fb *models.FinalBlock) error {
		removed = scheduler.DeleteAllBreaks(fb)
		return nil
	})
	if err != nil {
		h.fail(c, err, "Failed to delete breaks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": removed, "final_block": fb})
}

type moveRequest struct {
	Mat       int    `json:"mat"`
	Index     int    `json:"index"`
	Direction string `json:"direction" binding:"required,oneof=up down top"`
}

// MoveItem handles POST /api/final-block/move. Index is the position within
// the mat; out of range moves change nothing.
func (h *APIHandler) MoveItem(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	h.update(c, "Failed to move item", func(fb *models.FinalBlock) error {
		switch req.Direction {
		case "up":
			scheduler.SwapUp(fb, req.Mat, req.Index)
		case "down":
			scheduler.SwapDown(fb, req.Mat, req.Index)
		default:
			scheduler.MoveTop(fb, req.Mat, req.Index)
		}
		return nil
	})
}

// ReindexFinalBlock handles POST /api/final-block/reindex
func (h *APIHandler) ReindexFinalBlock(c *gin.Context) {
	h.update(c, "Failed to reindex", func(fb *models.FinalBlock) error {
		scheduler.Reindex(fb)
		return nil
	})
}

// ResetFinalBlock handles POST /api/final-block/reset
func (h *APIHandler) ResetFinalBlock(c *gin.Context) {
	h.update(c, "Failed to reset final block", func(fb *models.FinalBlock) error {
		scheduler.Reset(fb)
		return nil
	})
}

// GetBoard handles GET /api/final-block/board?day=
func (h *APIHandler) GetBoard(c *gin.Context) {
	fb := h.Scheduler.Load()
	cols := scheduler.Board(fb, c.Query("day"), h.Store.FinalsDays(), h.Scheduler.Titles())
	c.JSON(http.StatusOK, gin.H{"mats": fb.Mats, "columns": cols})
}

// SaveBoard handles POST /api/final-block/board with {"columns": [[key...]...]}.
// Column 0 is the pool, column i is mat i.
func (h *APIHandler) SaveBoard(c *gin.Context) {
	var req struct {
		Columns [][]string `json:"columns" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	changed := false
	fb, err := h.Scheduler.Update(func(fb *models.FinalBlock) error {
		var err error
		changed, err = scheduler.Reconcile(fb, req.Columns)
		return err
	})
	if err != nil {
		h.fail(c, err, "Failed to save board")
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed, "final_block": fb})
}

// ExportFinalBlock handles GET /api/final-block/export.xlsx?day=&final_block_time=&podium_time=
func (h *APIHandler) ExportFinalBlock(c *gin.Context) {
	fb := h.Scheduler.Load()
	day := c.Query("day")
	fb.Finals = scheduler.FilterByDay(fb.Finals, day, h.Store.FinalsDays())

	header := export.Header{
		CompetitionName: h.Store.Settings().CompetitionName,
		Day:             day,
		FinalBlockTime:  c.Query("final_block_time"),
		PodiumTime:      c.Query("podium_time"),
		GeneratedAt:     time.Now(),
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, fb, h.Scheduler.Titles(), header); err != nil {
		h.fail(c, err, "Failed to export final block")
		return
	}
	h.log.Info("final block exported", zap.String("day", day), zap.Int("bytes", buf.Len()))

	name := "final_block.xlsx"
	if day != "" {
		name = fmt.Sprintf("final_block_day_%s.xlsx", day)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
