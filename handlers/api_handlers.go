package handlers

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export handles GET /admin/export
func (h *PageHandler) Export(c *gin.Context) {
	state := readState(h.session(c))
	if Route(state) != ViewAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	buf := &bytes.Buffer{}
	if err := h.Service.ExportRoster(buf); err != nil {
		log.Printf("Error in Export handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export students"})
		return
	}

	filename := "mahasiswa-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Ping handles GET /ping and reports whether the store answers
func (h *PageHandler) Ping(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.Service.Ping(ctx); err != nil {
		log.Printf("Error in Ping handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Store unavailable", "students": h.Service.StudentCount()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pong!", "students": h.Service.StudentCount()})
}
