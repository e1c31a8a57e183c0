package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/court-club-reservation/internal/schedule"
	"github.com/iliyamo/court-club-reservation/internal/service"
)

// CourtHandler exposes the read-only court catalog and the per-day
// availability view.  Court mutation belongs to the external admin
// surface.
type CourtHandler struct {
	Reservations *service.ReservationService
	Courts       service.CourtStore
}

// NewCourtHandler constructs a CourtHandler.
func NewCourtHandler(svc *service.ReservationService, courts service.CourtStore) *CourtHandler {
	if svc == nil || courts == nil {
		panic("nil dependency passed to NewCourtHandler")
	}
	return &CourtHandler{Reservations: svc, Courts: courts}
}

// List handles GET /v1/courts and returns every active court.
func (h *CourtHandler) List(c echo.Context) error {
	courts, err := h.Courts.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load courts"})
	}
	items := make([]echo.Map, 0, len(courts))
	for i := range courts {
		ct := &courts[i]
		item := echo.Map{
			"id":             ct.ID,
			"name":           ct.Name,
			"type":           ct.Type,
			"price_per_hour": ct.PricePerHour,
		}
		if ct.Description != nil {
			item["description"] = *ct.Description
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Availability handles GET /v1/courts/:id/availability?date=YYYY-MM-DD and
// returns the occupied intervals of the court on that date.  Expired holds
// are already filtered out even when the reaper has not removed them.
func (h *CourtHandler) Availability(c echo.Context) error {
	courtID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || courtID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid court id"})
	}
	date, err := schedule.ParseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	slots, err := h.Reservations.Availability(c.Request().Context(), courtID, date)
	if err != nil {
		if writeDomainError(c, err) {
			return nil
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"court_id": courtID,
		"date":     schedule.FormatDate(date),
		"occupied": slots,
	})
}
