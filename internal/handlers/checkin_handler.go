package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/airhive/airline-backend/internal/services"
)

// CheckInHandler handles online check-in endpoints
type CheckInHandler struct {
	checkInService *services.CheckInService
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(checkInService *services.CheckInService) *CheckInHandler {
	return &CheckInHandler{
		checkInService: checkInService,
	}
}

// CheckIn handles POST /api/v1/tickets/:id/check-in
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	pass, err := h.checkInService.CheckIn(userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pass)
}

// GetBoardingPass handles GET /api/v1/tickets/:id/boarding-pass
func (h *CheckInHandler) GetBoardingPass(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	pass, err := h.checkInService.GetBoardingPass(userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pass)
}
