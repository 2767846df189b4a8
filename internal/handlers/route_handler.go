package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smarttransit/shuttle-tracking-backend/internal/routes"
)

// RouteHandler serves the static route and station configuration.
type RouteHandler struct {
	registry *routes.Registry
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(registry *routes.Registry) *RouteHandler {
	return &RouteHandler{registry: registry}
}

// RouteStopsResponse describes one route and its ordered stops.
type RouteStopsResponse struct {
	RouteID      string           `json:"route_id"`
	RouteName    string           `json:"route_name"`
	FromLocation string           `json:"from_location"`
	ToLocation   string           `json:"to_location"`
	Stops        []routes.Station `json:"stops"`
}

// ListRoutes handles GET /api/client/routes.
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.Routes())
}

// GetRouteStops handles GET /api/client/routes/:route_id/stops.
func (h *RouteHandler) GetRouteStops(c *gin.Context) {
	routeID := c.Param("route_id")

	route, ok := h.registry.Route(routeID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Route not found",
			"code":    "ROUTE_NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, RouteStopsResponse{
		RouteID:      route.ID,
		RouteName:    route.Name,
		FromLocation: route.FromLocation,
		ToLocation:   route.ToLocation,
		Stops:        h.registry.RouteStops(routeID),
	})
}
