package store

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/voltmark/intraday/pkg/response"
)

// GinHandlers contains HTTP handlers for the results API
type GinHandlers struct {
	store *Store
}

// NewGinHandlers creates a new set of HTTP handlers backed by the store
func NewGinHandlers(store *Store) *GinHandlers {
	return &GinHandlers{store: store}
}

// ListRunsHandler handles GET requests for recent runs. The limit query
// parameter caps the result, default 50.
func (h *GinHandlers) ListRunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				response.BadRequest(c, "Invalid limit parameter")
				return
			}
			limit = n
		}
		runs, err := h.store.ListRuns(limit)
		response.Handle(c, runs, err)
	}
}

// GetRunHandler handles GET requests for a single run by id
func (h *GinHandlers) GetRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := h.store.GetRun(c.Param("run_id"))
		response.Handle(c, run, err)
	}
}

// GetTradesHandler handles GET requests for a run's trades, optionally
// filtered by the product_id query parameter
func (h *GinHandlers) GetTradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		productID := 0
		if raw := c.Query("product_id"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				response.BadRequest(c, "Invalid product_id parameter")
				return
			}
			productID = n
		}
		trades, err := h.store.GetTrades(c.Param("run_id"), productID)
		response.Handle(c, trades, err)
	}
}

// GetSettlementsHandler handles GET requests for a run's settlements,
// optionally filtered by the agent_id query parameter
func (h *GinHandlers) GetSettlementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		agentID := 0
		if raw := c.Query("agent_id"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				response.BadRequest(c, "Invalid agent_id parameter")
				return
			}
			agentID = n
		}
		settlements, err := h.store.GetSettlements(c.Param("run_id"), agentID)
		response.Handle(c, settlements, err)
	}
}

// GetProductsHandler handles GET requests for a run's final product states
func (h *GinHandlers) GetProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := h.store.GetProducts(c.Param("run_id"))
		response.Handle(c, products, err)
	}
}
