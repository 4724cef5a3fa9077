package ateliers

import (
	"github.com/gin-gonic/gin"

	"github.com/summercamp/backend/pkg/response"
)

// Handler serves the workshop catalog.
type Handler struct{}

// NewHandler creates an ateliers handler.
func NewHandler() *Handler {
	return &Handler{}
}

// List handles GET /ateliers.
func (h *Handler) List(c *gin.Context) {
	response.OK(c, Catalog)
}
