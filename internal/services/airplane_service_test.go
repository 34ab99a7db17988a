package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airhive/airline-backend/internal/apperrors"
	"github.com/airhive/airline-backend/internal/models"
)

func intPtr(v int) *int { return &v }

func TestGenerateSeatMap(t *testing.T) {
	t.Run("Rows And Letters", func(t *testing.T) {
		seats, err := generateSeatMap(&models.CreateAirplaneRequest{
			Model:       "A320",
			Rows:        intPtr(3),
			SeatsPerRow: intPtr(2),
			SeatLetters: "AB",
		})
		require.NoError(t, err)
		require.Len(t, seats, 6)
		assert.Equal(t, "1A", seats[0].SeatNumber)
		assert.Equal(t, "1B", seats[1].SeatNumber)
		assert.Equal(t, "3B", seats[5].SeatNumber)
		for _, seat := range seats {
			assert.Equal(t, models.SeatCategoryStandard, seat.Category)
		}
	})

	t.Run("Extra Legroom Rows", func(t *testing.T) {
		seats, err := generateSeatMap(&models.CreateAirplaneRequest{
			Model:            "A320",
			Rows:             intPtr(2),
			SeatsPerRow:      intPtr(2),
			SeatLetters:      "AB",
			ExtraLegroomRows: []int{1},
		})
		require.NoError(t, err)
		assert.Equal(t, models.SeatCategoryExtraLegroom, seats[0].Category)
		assert.Equal(t, models.SeatCategoryExtraLegroom, seats[1].Category)
		assert.Equal(t, models.SeatCategoryStandard, seats[2].Category)
	})

	t.Run("Missing Dimensions", func(t *testing.T) {
		_, err := generateSeatMap(&models.CreateAirplaneRequest{Model: "A320"})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindPreconditionFailed, apperrors.KindOf(err))
	})

	t.Run("Too Many Seats Per Row", func(t *testing.T) {
		_, err := generateSeatMap(&models.CreateAirplaneRequest{
			Model:       "A320",
			Rows:        intPtr(1),
			SeatsPerRow: intPtr(3),
			SeatLetters: "AB",
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindPreconditionFailed, apperrors.KindOf(err))
	})
}
