package services

import (
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airhive/airline-backend/internal/models"
)

func TestBuildBoardingPass(t *testing.T) {
	svc := &CheckInService{
		cfg:    stateMachineConfig(),
		logger: testLogger(),
		now:    time.Now,
	}

	departure := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ticket := &models.TicketWithSeat{
		Ticket: models.Ticket{
			ID:                 1,
			PassengerFirstName: "Jane",
			PassengerLastName:  "Doe",
			TicketNumber:       "TKA1B2C3D4",
		},
		Seat: models.Seat{SeatNumber: "12A"},
	}
	flight := &models.FlightWithAirports{
		Flight: models.Flight{
			FlightNumber:  "AH101",
			Gate:          "A4",
			DepartureTime: departure,
			ArrivalTime:   departure.Add(2 * time.Hour),
		},
	}
	checkIn := &models.CheckIn{BoardingPassNumber: "BPA1B2C3D4E5F6"}

	pass, err := svc.buildBoardingPass(ticket, flight, checkIn)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", pass.PassengerName)
	assert.Equal(t, "12A", pass.SeatNumber)
	assert.Equal(t, "A4", pass.Gate)

	// Boarding opens 30 minutes before departure.
	wantBoarding := departure.Add(-30 * time.Minute)
	assert.Equal(t, wantBoarding, pass.BoardingTime)

	wantPayload := fmt.Sprintf("BP:BPA1B2C3D4E5F6|FN:AH101|SEAT:12A|GATE:A4|BT:%s",
		wantBoarding.Format(time.RFC3339))
	assert.Equal(t, wantPayload, pass.QRPayload)

	png, err := base64.StdEncoding.DecodeString(pass.QRCodePNG)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
