package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seat-desk-api/internal/models"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
	"github.com/noah-isme/seat-desk-api/pkg/response"
)

type seatService interface {
	TotalSeats() int
	GetSeatsStatus(ctx context.Context) ([]models.Seat, error)
	Availability(ctx context.Context, seat int, rawSlots []string, excludeID string) (*models.SeatAvailability, error)
	Quote(plan models.PlanType, duration models.PlanDuration, locker bool) int64
}

// PlanOption describes one plan for the admission form.
type PlanOption struct {
	Type              models.PlanType               `json:"type"`
	Hours             int                           `json:"hours"`
	RequiredSlotCount int                           `json:"required_slot_count"`
	Prices            map[models.PlanDuration]int64 `json:"prices"`
}

// Catalog lists plans, slots and the locker surcharge.
type Catalog struct {
	TotalSeats          int           `json:"total_seats"`
	Plans               []PlanOption  `json:"plans"`
	Slots               []models.Slot `json:"slots"`
	LockerPricePerMonth int64         `json:"locker_price_per_month"`
}

// SeatHandler exposes the derived seat grid and pricing.
type SeatHandler struct {
	seats seatService
}

// NewSeatHandler constructs SeatHandler.
func NewSeatHandler(seats seatService) *SeatHandler {
	return &SeatHandler{seats: seats}
}

// Status godoc
// @Summary Seat grid with occupants and free slots
// @Tags Seats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /seats [get]
func (h *SeatHandler) Status(c *gin.Context) {
	seats, err := h.seats.GetSeatsStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, seats, nil, map[string]interface{}{"total_seats": len(seats)})
}

// Availability godoc
// @Summary Check slots and locker on one seat
// @Tags Seats
// @Produce json
// @Param number path int true "Seat number"
// @Param slots query string false "Comma separated slot ids, e.g. S1,S2"
// @Param exclude query string false "Student ID to ignore"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /seats/{number}/availability [get]
func (h *SeatHandler) Availability(c *gin.Context) {
	seat, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "seat number must be an integer"))
		return
	}
	result, err := h.seats.Availability(c.Request.Context(), seat, csvQuery(c, "slots"), strings.TrimSpace(c.Query("exclude")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Catalog godoc
// @Summary Plans, slots and fees
// @Tags Seats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pricing [get]
func (h *SeatHandler) Catalog(c *gin.Context) {
	durations := []models.PlanDuration{models.Duration1Month, models.Duration3Months, models.Duration6Months}
	catalog := Catalog{
		TotalSeats:          h.seats.TotalSeats(),
		Slots:               models.AllSlots,
		LockerPricePerMonth: h.seats.Quote(models.Plan6H, models.Duration1Month, true) - h.seats.Quote(models.Plan6H, models.Duration1Month, false),
	}
	for _, plan := range models.PlanTypes {
		option := PlanOption{
			Type:              plan,
			Hours:             plan.Hours(),
			RequiredSlotCount: plan.RequiredSlotCount(),
			Prices:            make(map[models.PlanDuration]int64, len(durations)),
		}
		for _, d := range durations {
			option.Prices[d] = h.seats.Quote(plan, d, false)
		}
		catalog.Plans = append(catalog.Plans, option)
	}
	response.OK(c, catalog)
}

// Quote godoc
// @Summary Fee for a plan, duration and locker choice
// @Tags Seats
// @Produce json
// @Param plan query string true "Plan type"
// @Param duration query int true "Months (1, 3 or 6)"
// @Param locker query bool false "Locker required"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /pricing/quote [get]
func (h *SeatHandler) Quote(c *gin.Context) {
	plan, err := models.ParsePlanType(c.Query("plan"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}
	months, err := strconv.Atoi(c.Query("duration"))
	duration := models.PlanDuration(months)
	if err != nil || !duration.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "duration must be 1, 3 or 6"))
		return
	}
	locker := false
	if v := boolQuery(c, "locker"); v != nil {
		locker = *v
	}
	response.OK(c, gin.H{
		"plan_type":       plan,
		"duration":        duration,
		"locker_required": locker,
		"amount":          h.seats.Quote(plan, duration, locker),
	})
}
