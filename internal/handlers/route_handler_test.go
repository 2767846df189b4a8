package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupRouteRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewRouteHandler(testRegistry(t))

	router := gin.New()
	router.GET("/routes", handler.ListRoutes)
	router.GET("/routes/:route_id/stops", handler.GetRouteStops)
	return router
}

func TestListRoutes(t *testing.T) {
	router := setupRouteRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/routes", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"test-route"`)
}

func TestGetRouteStops(t *testing.T) {
	router := setupRouteRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/routes/test-route/stops", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"route_id":"test-route"`)
	assert.Contains(t, body, `"Alpha"`)
	assert.Contains(t, body, `"Bravo"`)
	assert.Contains(t, body, `"Charlie"`)
}

func TestGetRouteStops_Unknown(t *testing.T) {
	router := setupRouteRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/routes/no-such-route/stops", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ROUTE_NOT_FOUND")
}
