package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/court-club-reservation/internal/repository"
	"github.com/iliyamo/court-club-reservation/internal/schedule"
	"github.com/iliyamo/court-club-reservation/internal/service"
)

// getMemberID extracts the member_id the JWT middleware stored on the
// context and converts it to uint64.
func getMemberID(c echo.Context) (uint64, error) {
	v := c.Get("member_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid member_id in context")
}

// writeDomainError maps a service or repository error onto the HTTP
// response, keeping each failure kind distinguishable for clients.  It
// returns true when the error was recognized and written.
func writeDomainError(c echo.Context, err error) bool {
	switch {
	case errors.Is(err, repository.ErrCourtNotFound),
		errors.Is(err, repository.ErrMemberNotFound),
		errors.Is(err, repository.ErrBookingNotFound):
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrInsufficientFunds):
		_ = c.JSON(http.StatusPaymentRequired, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrSlotConflict):
		_ = c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		_ = c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrTierTooLow),
		errors.Is(err, service.ErrInvalidInterval),
		errors.Is(err, service.ErrCourtInactive),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, schedule.ErrTooManyOccurrences):
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return false
	}
	return true
}
