package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"techticks-chat/internal/service"
)

type CatalogHandler struct {
	logger  *zap.Logger
	catalog *service.CatalogService
}

func NewCatalogHandler(logger *zap.Logger, catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{logger: logger, catalog: catalog}
}

// GetCatalog maneja GET /api/catalog.
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"catalog": h.catalog.Load(c.Request.Context())})
}

// SuggestFAQs maneja GET /api/catalog/suggestions?q=.
func (h *CatalogHandler) SuggestFAQs(c *gin.Context) {
	faqs := h.catalog.Suggest(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"faqs": faqs})
}
