package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/airhive/airline-backend/internal/models"
	"github.com/airhive/airline-backend/internal/services"
)

// BookingHandler handles booking lifecycle endpoints
type BookingHandler struct {
	bookingService *services.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// HoldSeat handles POST /api/v1/seats/:id/hold
func (h *BookingHandler) HoldSeat(c *gin.Context) {
	if _, _, ok := currentUser(c); !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	seat, err := h.bookingService.HoldSeat(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "seat held",
		"seat":       seat,
		"held_until": seat.HeldUntil,
	})
}

// Create handles POST /api/v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	detail, err := h.bookingService.CreateBooking(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, detail)
}

// ListMine handles GET /api/v1/bookings
func (h *BookingHandler) ListMine(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	details, err := h.bookingService.ListMyBookings(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// Get handles GET /api/v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	userID, isStaff, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.bookingService.GetBooking(userID, isStaff, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Confirm handles POST /api/v1/bookings/:id/confirm
func (h *BookingHandler) Confirm(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.bookingService.Confirm(userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Cancel handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	userID, isStaff, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.bookingService.CancelBooking(userID, isStaff, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Pay handles POST /api/v1/bookings/:id/pay
func (h *BookingHandler) Pay(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Method models.PaymentMethod `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	payment, err := h.bookingService.Pay(userID, &models.CreatePaymentRequest{
		BookingID: id,
		Method:    body.Method,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// CancelTicket handles DELETE /api/v1/tickets/:id
func (h *BookingHandler) CancelTicket(c *gin.Context) {
	userID, isStaff, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.bookingService.CancelTicket(userID, isStaff, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ticket cancelled"})
}

// ReassignSeat handles POST /api/v1/tickets/:id/reassign (staff)
func (h *BookingHandler) ReassignSeat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body struct {
		SeatID int64 `json:"seat_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	ticket, err := h.bookingService.ReassignSeat(id, body.SeatID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// FindByPNR handles GET /api/v1/staff/bookings/:pnr (staff)
func (h *BookingHandler) FindByPNR(c *gin.Context) {
	pnr := strings.ToUpper(strings.TrimSpace(c.Param("pnr")))
	if len(pnr) != 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "PNR must be 6 characters"})
		return
	}

	detail, err := h.bookingService.FindByPNR(pnr)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}
