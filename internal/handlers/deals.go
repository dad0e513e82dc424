package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dealscout/backend/internal/logger"
	"github.com/dealscout/backend/internal/middleware"
	"github.com/dealscout/backend/internal/services"
)

type DealsHandler struct {
	log         *logger.Logger
	dealService services.DealService
}

func NewDealsHandler(log *logger.Logger, dealService services.DealService) *DealsHandler {
	handlerLog := log.With("handler", "DealsHandler")
	return &DealsHandler{log: handlerLog, dealService: dealService}
}

type dealsRequestBody struct {
	Products []services.ProductRef `json:"products"`
}

// GetProductDeals handles POST /api/deals.
// Body: {products: [{id?, name}]}; query: start (default 0), groupAI
// (default true).
func (dh *DealsHandler) GetProductDeals(c *gin.Context) {
	var body dealsRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondMessage(c, 400, "Products array is required")
		return
	}

	start, err := strconv.Atoi(c.DefaultQuery("start", "0"))
	if err != nil || start < 0 {
		start = 0
	}
	groupAI := c.DefaultQuery("groupAI", "true") != "false"

	resp, err := dh.dealService.GetProductDeals(c.Request.Context(), services.DealRequest{
		Products:      body.Products,
		Start:         start,
		Authenticated: middleware.IsAuthenticated(c),
		GroupAI:       groupAI,
	})
	if err != nil {
		dh.log.Warn("GetProductDeals failed", "error", err)
		RespondError(c, err)
		return
	}

	if resp.Grouped {
		RespondOK(c, resp.Groups)
		return
	}
	RespondOK(c, resp.Results)
}
