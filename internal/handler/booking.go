package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/court-club-reservation/internal/model"
	"github.com/iliyamo/court-club-reservation/internal/repository"
	"github.com/iliyamo/court-club-reservation/internal/schedule"
	"github.com/iliyamo/court-club-reservation/internal/service"
)

// BookingHandler exposes the reservation flows over HTTP.  All methods
// assume the JWT middleware has already run; the caller's member ID always
// comes from the token, never from the request body.
type BookingHandler struct {
	Reservations *service.ReservationService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc *service.ReservationService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Reservations: svc}
}

type slotRequest struct {
	CourtID   uint64 `json:"court_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// parseSlot validates the common slot fields of hold and create requests.
func parseSlot(r slotRequest) (date time.Time, startMin, endMin int, err error) {
	if date, err = schedule.ParseDate(r.Date); err != nil {
		return
	}
	if startMin, err = schedule.ParseClock(r.StartTime); err != nil {
		return
	}
	endMin, err = schedule.ParseClock(r.EndTime)
	return
}

// Hold handles POST /v1/bookings/hold.  It places (or extends) a
// five-minute soft hold on one slot and returns the hold's booking ID and
// expiry.  A slot held or booked by someone else yields 409.
func (h *BookingHandler) Hold(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body slotRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date, startMin, endMin, err := parseSlot(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Reservations.Hold(c.Request().Context(), service.HoldRequest{
		CourtID:     body.CourtID,
		MemberID:    memberID,
		Date:        date,
		StartMinute: startMin,
		EndMinute:   endMin,
	})
	if err != nil {
		if writeDomainError(c, err) {
			return nil
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hold slot"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id": res.BookingID,
		"expires_at": res.ExpiresAt.Format(time.RFC3339),
	})
}

// Release handles POST /v1/bookings/:id/release.  Only the owner of a
// HOLDING row may release it; any other status yields 409.
func (h *BookingHandler) Release(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	if err := h.Reservations.Release(c.Request().Context(), bookingID, memberID); err != nil {
		if writeDomainError(c, err) {
			return nil
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release hold"})
	}
	return c.JSON(http.StatusOK, echo.Map{"released": true})
}

// Cancel handles POST /v1/bookings/:id/cancel.  Only the owner of a
// CONFIRMED booking with a date that has not passed may cancel; the price
// is refunded to the wallet.
func (h *BookingHandler) Cancel(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	if err := h.Reservations.Cancel(c.Request().Context(), bookingID, memberID); err != nil {
		if writeDomainError(c, err) {
			return nil
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled": true})
}

type createRequest struct {
	slotRequest
	IsRecurring    bool   `json:"is_recurring"`
	RecurrenceType string `json:"recurrence_type"`
	RecurrenceEnd  string `json:"recurrence_end"`
}

// Create handles POST /v1/bookings.  It books and pays for one slot or a
// recurring series atomically and reports the member's new balance and
// tier.  Failure leaves no side effects: 400 for validation, 402 for
// insufficient funds, 409 for any conflicting occurrence.
func (h *BookingHandler) Create(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body createRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date, startMin, endMin, err := parseSlot(body.slotRequest)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	req := service.CreateRequest{
		CourtID:     body.CourtID,
		MemberID:    memberID,
		Date:        date,
		StartMinute: startMin,
		EndMinute:   endMin,
		IsRecurring: body.IsRecurring,
	}
	if body.IsRecurring {
		req.RecurrenceType = model.RecurrenceType(body.RecurrenceType)
		switch req.RecurrenceType {
		case model.RecurrenceDaily, model.RecurrenceWeekly, model.RecurrenceMonthly:
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid recurrence_type"})
		}
		if body.RecurrenceEnd == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "recurrence_end is required"})
		}
		end, err := schedule.ParseDate(body.RecurrenceEnd)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		req.RecurrenceEnd = &end
	}
	res, err := h.Reservations.Create(c.Request().Context(), req)
	if err != nil {
		if writeDomainError(c, err) {
			return nil
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	resp := echo.Map{
		"booking_ids": res.BookingIDs,
		"total_price": res.TotalPrice,
		"new_balance": res.NewBalance,
		"new_tier":    res.NewTier.String(),
	}
	if res.SeriesID != nil {
		resp["series_id"] = *res.SeriesID
	}
	return c.JSON(http.StatusCreated, resp)
}

// List handles GET /v1/bookings.  Optional query parameters court_id,
// member_id, from and to narrow the result; ordering is date descending,
// start time ascending.
func (h *BookingHandler) List(c echo.Context) error {
	var f repository.BookingFilter
	if v := c.QueryParam("court_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid court_id"})
		}
		f.CourtID = id
	}
	if v := c.QueryParam("member_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member_id"})
		}
		f.MemberID = id
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := schedule.ParseDate(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := schedule.ParseDate(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		f.To = &t
	}
	items, err := h.Reservations.Query(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, bookingJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get handles GET /v1/bookings/:id for the owning member.
func (h *BookingHandler) Get(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Reservations.Get(c.Request().Context(), bookingID, memberID)
	if err != nil {
		if writeDomainError(c, err) {
			return nil
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": bookingFields(b, echo.Map{})})
}

func bookingJSON(d *repository.BookingDetail) echo.Map {
	m := echo.Map{
		"court_name":  d.CourtName,
		"member_name": d.MemberName,
	}
	return bookingFields(&d.Booking, m)
}

func bookingFields(b *model.Booking, m echo.Map) echo.Map {
	m["id"] = b.ID
	m["court_id"] = b.CourtID
	m["member_id"] = b.MemberID
	m["booking_date"] = schedule.FormatDate(b.BookingDate)
	m["start_time"] = schedule.FormatClock(b.StartMinute)
	m["end_time"] = schedule.FormatClock(b.EndMinute)
	m["total_price"] = b.TotalPrice
	m["status"] = string(b.Status)
	m["created_at"] = b.CreatedAt.UTC().Format(time.RFC3339)
	m["is_recurring"] = b.IsRecurring
	if b.HoldExpiry != nil {
		m["hold_expiry"] = b.HoldExpiry.UTC().Format(time.RFC3339)
	}
	if b.IsRecurring {
		m["recurrence_type"] = string(b.RecurrenceType)
		if b.RecurrenceEnd != nil {
			m["recurrence_end"] = schedule.FormatDate(*b.RecurrenceEnd)
		}
	}
	if b.SeriesID != nil {
		m["series_id"] = *b.SeriesID
	}
	return m
}
