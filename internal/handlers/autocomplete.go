package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dealscout/backend/internal/logger"
	"github.com/dealscout/backend/internal/services"
)

type AutocompleteHandler struct {
	log            *logger.Logger
	productService services.ProductService
}

func NewAutocompleteHandler(log *logger.Logger, productService services.ProductService) *AutocompleteHandler {
	handlerLog := log.With("handler", "AutocompleteHandler")
	return &AutocompleteHandler{log: handlerLog, productService: productService}
}

// GetSuggestions handles GET /api/autocomplete?query=.
// Requires at least 2 characters; short inputs are rejected before touching
// the database.
func (ah *AutocompleteHandler) GetSuggestions(c *gin.Context) {
	query := c.Query("query")
	if len(query) < 2 {
		RespondMessage(c, 400, "Query must be at least 2 characters")
		return
	}

	suggestions, err := ah.productService.Suggest(c.Request.Context(), query)
	if err != nil {
		ah.log.Warn("Autocomplete lookup failed", "error", err)
		RespondError(c, err)
		return
	}
	RespondOK(c, suggestions)
}
