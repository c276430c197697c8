package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/crackmap-backend-go/internal/damagemap"
	"github.com/jengzang/crackmap-backend-go/internal/service"
	"github.com/jengzang/crackmap-backend-go/pkg/response"
)

// DamageHandler handles HTTP requests for damage records, captures and maps
type DamageHandler struct {
	service *service.MapService
}

// NewDamageHandler creates a new damage handler
func NewDamageHandler(service *service.MapService) *DamageHandler {
	return &DamageHandler{service: service}
}

// GetDamage handles GET /api/v1/damage
func (h *DamageHandler) GetDamage(c *gin.Context) {
	resp, err := h.service.Damage(c.Request.Context())
	if errors.Is(err, service.ErrNoDetectRun) {
		response.NotFound(c, "No detection run found")
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get damage records", err)
		return
	}
	response.Success(c, resp)
}

// GetDamageByID handles GET /api/v1/damage/:id
func (h *DamageHandler) GetDamageByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rec, err := h.service.DamageByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get damage record", err)
		return
	}
	if rec == nil {
		response.NotFound(c, "Damage record not found")
		return
	}
	response.Success(c, rec)
}

// GetCaptures handles GET /api/v1/captures
func (h *DamageHandler) GetCaptures(c *gin.Context) {
	runID, records, err := h.service.Captures(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get capture records", err)
		return
	}
	response.Success(c, gin.H{
		"runId": runID,
		"data":  records,
		"total": len(records),
	})
}

// GetPath handles GET /api/v1/path
func (h *DamageHandler) GetPath(c *gin.Context) {
	path, err := h.service.Path(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to build path", err)
		return
	}
	response.Success(c, path)
}

// GetTotalMap handles GET /api/v1/maps/total
func (h *DamageHandler) GetTotalMap(c *gin.Context) {
	doc, err := h.service.RenderTotal(c.Request.Context())
	if errors.Is(err, damagemap.ErrEmptyDamageSet) {
		response.NotFound(c, "No damage records to map")
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to render map", err)
		return
	}
	writeDocument(c, doc)
}

// GetSingleMap handles GET /api/v1/maps/single/:id
func (h *DamageHandler) GetSingleMap(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	doc, err := h.service.RenderSingle(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to render map", err)
		return
	}
	if doc == nil {
		response.NotFound(c, "Damage record not found")
		return
	}
	writeDocument(c, doc)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "Invalid damage record ID", err)
		return 0, false
	}
	return id, true
}

func writeDocument(c *gin.Context, doc *damagemap.Document) {
	var buf bytes.Buffer
	if err := doc.WriteHTML(&buf); err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to render map", err)
		return
	}
	response.HTML(c, buf.Bytes())
}
