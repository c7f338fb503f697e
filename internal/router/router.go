// Package router registers the HTTP routes of the ticket API.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/handler"
)

// Routes bundles what Register mounts.  Nil middleware is skipped.
type Routes struct {
	Health    echo.HandlerFunc
	Tickets   *handler.TicketHandler
	Feedback  *handler.FeedbackHandler
	UploadDir string

	RateLimit echo.MiddlewareFunc // applied to every API route
	SeatCache echo.MiddlewareFunc // applied to GET /seats only
}

// Register mounts all routes on e and installs the JSON 404 fallback.
func Register(e *echo.Echo, r Routes) {
	e.GET("/healthz", r.Health)

	api := chain(r.RateLimit)
	registerTickets(e, r.Tickets, api, chain(r.RateLimit, r.SeatCache))
	if r.Feedback != nil {
		registerFeedback(e, r.Feedback, api)
	}
	if r.UploadDir != "" {
		e.Static("/uploads", r.UploadDir)
	}

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Not Found"})
	})
}

func chain(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mw))
	for _, m := range mw {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
