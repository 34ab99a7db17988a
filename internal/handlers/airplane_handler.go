package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/airhive/airline-backend/internal/models"
	"github.com/airhive/airline-backend/internal/services"
)

// AirplaneHandler handles fleet management endpoints
type AirplaneHandler struct {
	airplaneService *services.AirplaneService
}

// NewAirplaneHandler creates a new airplane handler
func NewAirplaneHandler(airplaneService *services.AirplaneService) *AirplaneHandler {
	return &AirplaneHandler{
		airplaneService: airplaneService,
	}
}

// Create handles POST /api/v1/airplanes (staff)
func (h *AirplaneHandler) Create(c *gin.Context) {
	var req models.CreateAirplaneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	airplane, err := h.airplaneService.CreateAirplane(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, airplane)
}

// List handles GET /api/v1/airplanes
func (h *AirplaneHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	airplanes, err := h.airplaneService.ListAirplanes(activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, airplanes)
}

// Get handles GET /api/v1/airplanes/:id
func (h *AirplaneHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	airplane, err := h.airplaneService.GetAirplane(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, airplane)
}

// Deactivate handles DELETE /api/v1/airplanes/:id (staff).
// Retires the airplane and cancels its not-yet-departed flights.
func (h *AirplaneHandler) Deactivate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.airplaneService.DeactivateAirplane(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "airplane retired"})
}
