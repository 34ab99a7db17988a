package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/airhive/airline-backend/internal/models"
	"github.com/airhive/airline-backend/internal/services"
)

// FlightHandler handles flight schedule and search endpoints
type FlightHandler struct {
	flightService *services.FlightService
}

// NewFlightHandler creates a new flight handler
func NewFlightHandler(flightService *services.FlightService) *FlightHandler {
	return &FlightHandler{
		flightService: flightService,
	}
}

// Create handles POST /api/v1/flights (staff)
func (h *FlightHandler) Create(c *gin.Context) {
	var req models.CreateFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	flight, err := h.flightService.CreateFlight(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, flight)
}

// Search handles GET /api/v1/flights?from=JFK&to=LHR&date=2026-03-01&all=true
func (h *FlightHandler) Search(c *gin.Context) {
	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "date must be YYYY-MM-DD"})
			return
		}
		date = &parsed
	}

	showAll := c.Query("all") == "true"

	flights, err := h.flightService.SearchFlights(c.Request.Context(), c.Query("from"), c.Query("to"), date, showAll)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, flights)
}

// Get handles GET /api/v1/flights/:id
func (h *FlightHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	flight, err := h.flightService.GetFlight(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, flight)
}

// Update handles PATCH /api/v1/flights/:id (staff)
func (h *FlightHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	flight, err := h.flightService.UpdateFlight(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, flight)
}

// SeatMap handles GET /api/v1/flights/:id/seats
func (h *FlightHandler) SeatMap(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	seatMap, err := h.flightService.GetSeatMap(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, seatMap)
}
