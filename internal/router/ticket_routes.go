package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/handler"
)

// registerTickets mounts ticket, seat and history routes.  Seat occupancy
// (/tickets/booked) is never cached; only the seat catalog is.
func registerTickets(e *echo.Echo, h *handler.TicketHandler, mw, seatMW []echo.MiddlewareFunc) {
	e.GET("/tickets", h.List, mw...)
	e.POST("/tickets", h.Create, mw...)
	e.GET("/tickets/booked", h.BookedSeats, mw...)
	e.GET("/tickets/:id", h.Get, mw...)
	e.PUT("/tickets/:id", h.Update, mw...)
	e.DELETE("/tickets/:id", h.Delete, mw...)

	e.GET("/users/:userId/tickets", h.ListByUser, mw...)
	e.GET("/users/:userId/ticket-logs", h.Logs, mw...)

	e.GET("/seats", h.Seats, seatMW...)
}

func registerFeedback(e *echo.Echo, h *handler.FeedbackHandler, mw []echo.MiddlewareFunc) {
	e.POST("/feedback", h.Create, mw...)
	e.GET("/feedbacks", h.List, mw...)
}
