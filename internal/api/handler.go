// internal/api/handler.go
package api

import (
	"context"
	"fmt"
	"net/http"

	"application-documents/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentGenerator returns nil when no document can be produced.
type DocumentGenerator interface {
	Generate(ctx context.Context, applicationID uuid.UUID, baseURI string) []byte
}

type DocumentHandler struct {
	generator      DocumentGenerator
	defaultBaseURI string
	logger         logger.Logger
}

func NewDocumentHandler(generator DocumentGenerator, defaultBaseURI string, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		generator:      generator,
		defaultBaseURI: defaultBaseURI,
		logger:         log.WithFields(map[string]interface{}{"component": "document-api"}),
	}
}

func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	apps := rg.Group("/applications")
	{
		apps.GET("/:id/document", h.GetDocument)
	}
}

// GetDocument streams the application's PDF. The generator has already
// logged why a document is unavailable, so a 404 carries no detail.
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	baseURI := c.DefaultQuery("baseUri", h.defaultBaseURI)

	doc := h.generator.Generate(c.Request.Context(), id, baseURI)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not available"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", doc)
}
