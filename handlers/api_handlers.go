package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"podium-server-go/db"
	"podium-server-go/export"
	"podium-server-go/importer"
	"podium-server-go/parser"
	"podium-server-go/scheduler"
	"podium-server-go/views"
)

// maxUploadBytes caps results and category files.
const maxUploadBytes = 16 << 20

// APIHandler holds the dependencies for API handlers.
type APIHandler struct {
	Store     *db.DocumentStore
	Importer  *importer.Importer
	Scheduler *scheduler.Scheduler
	Views     *views.Views

	log *zap.Logger

	// mu serialises mutating requests; every write is a read-modify-write
	// of a whole document.
	mu sync.Mutex
}

// NewAPIHandler wires the services over one document store.
func NewAPIHandler(store *db.DocumentStore, photosDir string, log *zap.Logger) *APIHandler {
	return &APIHandler{
		Store:     store,
		Importer:  importer.New(store, log),
		Scheduler: scheduler.New(store, log),
		Views:     views.New(store, photosDir, log),
		log:       log.Named("api"),
	}
}

// RegisterRoutes mounts every endpoint on r (usually the /api group).
func (h *APIHandler) RegisterRoutes(r gin.IRoutes) {
	r.Use(h.serializeWrites)

	r.GET("/ping", PingHandler)

	// VIPs
	r.GET("/vips", h.GetAllVIPs)
	r.GET("/vips/:id", h.GetVIPByID)
	r.GET("/vips/:id/photo", h.GetVIPPhoto)
	r.POST("/vips", h.AddVIP)
	r.PUT("/vips/:id", h.UpdateVIP)
	r.DELETE("/vips/:id", h.DeleteVIP)
	r.POST("/vips/delete", h.DeleteVIPs)
	r.DELETE("/vips", h.ClearVIPs)

	// Categories and results
	r.GET("/categories", h.GetAllCategories)
	r.GET("/categories/:id", h.GetCategoryByID)
	r.POST("/categories/import", h.ImportCategories)
	r.POST("/categories/import/api", h.ImportCategoriesFromAPI)
	r.POST("/categories/reset", h.ResetCategories)
	r.POST("/results/import", h.ImportResults)
	r.POST("/results/clear", h.ClearResults)
	r.POST("/results/clear-planning", h.ClearPlanning)
	r.POST("/results/delete-all", h.DeleteAllResults)

	// Days
	r.GET("/days", h.GetDays)
	r.PUT("/days/meta", h.SetNumDays)
	r.PUT("/days/:day", h.SaveDay)
	r.DELETE("/days/:day", h.ClearDay)
	r.POST("/days/:day/push", h.PushDay)

	// Final block
	r.GET("/final-block", h.GetFinalBlock)
	r.PUT("/final-block/mats", h.SetMats)
	r.POST("/final-block/auto-balance", h.AutoBalance)
	r.POST("/final-block/unassign-all", h.UnassignAll)
	r.POST("/final-block/breaks", h.AddBreak)
	r.DELETE("/final-block/breaks/:id", h.DeleteBreak)
	r.DELETE("/final-block/breaks", h.DeleteAllBreaks)
	r.POST("/final-block/move", h.MoveItem)
	r.POST("/final-block/reindex", h.ReindexFinalBlock)
	r.POST("/final-block/reset", h.ResetFinalBlock)
	r.GET("/final-block/board", h.GetBoard)
	r.POST("/final-block/board", h.SaveBoard)
	r.GET("/final-block/export.xlsx", h.ExportFinalBlock)

	// Live-operation screens
	r.GET("/planning", h.GetPlanning)
	r.GET("/assignation", h.GetAssignation)
	r.POST("/assignation/toggle", h.ToggleAssignation)
	r.DELETE("/assignation/:categoryId", h.ClearAssignation)
	r.GET("/live", h.GetLive)
	r.POST("/live/validate", h.ValidateLive)
	r.POST("/live/reset", h.ResetLive)
	r.GET("/prep-room", h.GetPrepRoom)
	r.POST("/prep-room/:categoryId/send", h.SendPrepRoom)
	r.POST("/prep-room/reset", h.ResetPrepRoom)
	r.POST("/view-filters/reset", h.ResetViewFilters)
	r.GET("/speaker", h.GetSpeaker)
	r.GET("/hostess", h.GetHostess)

	// Settings
	r.GET("/settings", h.GetSettings)
	r.PATCH("/settings", h.PatchSettings)
	r.GET("/api-config", h.GetAPIConfig)
	r.PATCH("/api-config", h.PatchAPIConfig)
	r.POST("/api-config/reset", h.ResetAPIConfig)
	r.POST("/data/reset", h.ResetData)
}

func (h *APIHandler) serializeWrites(c *gin.Context) {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		c.Next()
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Next()
}

// PingHandler handles GET /api/ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}

// badRequest lists the errors caused by the caller's input.
var badRequest = []error{
	db.ErrVIPIDRequired,
	db.ErrVIPIDInvalid,
	db.ErrUnknownDocument,
	parser.ErrMissingColumns,
	importer.ErrInvalidMode,
	importer.ErrNoCategories,
	importer.ErrMissingURL,
	scheduler.ErrInvalidMats,
	scheduler.ErrInvalidMat,
	scheduler.ErrInvalidLayout,
	scheduler.ErrInvalidDays,
	scheduler.ErrInvalidDay,
	views.ErrInvalidRole,
	views.ErrNothingToValidate,
	export.ErrNothingToExport,
}

var notFound = []error{
	db.ErrVIPNotFound,
	scheduler.ErrBreakNotFound,
}

func statusFor(err error) int {
	for _, target := range notFound {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// fail writes {"error": msg} with the status matching err. Server errors are
// logged; the caller's mistakes are not.
func (h *APIHandler) fail(c *gin.Context, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(status, gin.H{"error": fmt.Sprintf("%s: %v", msg, err)})
}

// readUpload returns the "file" form field of a multipart request, or the raw
// body for any other content type (curl --data-binary sends urlencoded).
func readUpload(c *gin.Context) ([]byte, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("no file uploaded: %w", err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read uploaded file: %w", err)
		}
		return data, header.Filename, nil
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read request body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, "", errors.New("no file uploaded")
	}
	return data, "", nil
}

// intQuery reads an integer query parameter, falling back to def.
func intQuery(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}
