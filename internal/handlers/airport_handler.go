package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/airhive/airline-backend/internal/models"
	"github.com/airhive/airline-backend/internal/services"
)

// AirportHandler handles the airport directory endpoints
type AirportHandler struct {
	airportService *services.AirportService
}

// NewAirportHandler creates a new airport handler
func NewAirportHandler(airportService *services.AirportService) *AirportHandler {
	return &AirportHandler{
		airportService: airportService,
	}
}

// Create handles POST /api/v1/airports (staff)
func (h *AirportHandler) Create(c *gin.Context) {
	var req models.CreateAirportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	airport, err := h.airportService.CreateAirport(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, airport)
}

// List handles GET /api/v1/airports
func (h *AirportHandler) List(c *gin.Context) {
	airports, err := h.airportService.ListAirports()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, airports)
}

// Get handles GET /api/v1/airports/:id
func (h *AirportHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	airport, err := h.airportService.GetAirport(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, airport)
}
