// Package handler holds the echo handlers of the ticket API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/service"
)

// bookingError writes the response for an error returned by the booking
// service.  Causes of server errors are logged, never sent.
func bookingError(c echo.Context, log *zap.Logger, err error) error {
	var (
		invalid  *service.ValidationError
		missing  *service.SeatNotFoundError
		showtime *service.InvalidShowtimeError
		conflict *service.SeatConflictError
	)
	switch {
	case errors.As(err, &invalid):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": invalid.Error(), "field": invalid.Field})
	case errors.As(err, &missing):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found", "seat": missing.Label})
	case errors.As(err, &showtime):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show_time", "show_time": showtime.Input})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seats already booked", "seats": conflict.Seats})
	case errors.Is(err, service.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	case errors.Is(err, service.ErrWriteFailed):
		log.Error("ticket write failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save ticket"})
	default:
		log.Error("request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}
