package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/service"
)

// TicketService is the part of the booking service the HTTP layer uses.
type TicketService interface {
	Create(ctx context.Context, req service.BookingRequest) (*model.Ticket, error)
	Update(ctx context.Context, id uint64, req service.BookingRequest) (*model.Ticket, error)
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context) ([]model.Ticket, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error)
	Get(ctx context.Context, id uint64) (*model.Ticket, error)
	BookedSeats(ctx context.Context, title, showTime string, excludeTicketID uint64) ([]string, error)
	Seats(ctx context.Context) ([]model.Seat, error)
	Logs(ctx context.Context, userID uint64) ([]model.TicketLog, error)
}

// TicketHandler serves tickets, seats and ticket history.
type TicketHandler struct {
	svc TicketService
	log *zap.Logger
}

// NewTicketHandler panics on a nil service.
func NewTicketHandler(svc TicketService, log *zap.Logger) *TicketHandler {
	if svc == nil {
		panic("nil service passed to NewTicketHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TicketHandler{svc: svc, log: log}
}

type ticketBody struct {
	UserID     uint64   `json:"user_id"`
	MovieTitle string   `json:"movie_title"`
	ShowTime   string   `json:"show_time"`
	Seats      []string `json:"seats"`
	Price      float64  `json:"price"`
}

func (b ticketBody) request() service.BookingRequest {
	return service.BookingRequest{
		UserID:     b.UserID,
		MovieTitle: b.MovieTitle,
		ShowTime:   b.ShowTime,
		Seats:      b.Seats,
		Price:      b.Price,
	}
}

// List handles GET /tickets.
func (h *TicketHandler) List(c echo.Context) error {
	tickets, err := h.svc.List(c.Request().Context())
	if err != nil {
		return bookingError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": tickets})
}

// ListByUser handles GET /users/:userId/tickets.
func (h *TicketHandler) ListByUser(c echo.Context) error {
	userID, ok := pathID(c, "userId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	tickets, err := h.svc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return bookingError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": tickets})
}

// Get handles GET /tickets/:id.
func (h *TicketHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": t})
}

// Create handles POST /tickets.  The body carries user_id, movie_title,
// show_time, seats (labels) and price.
func (h *TicketHandler) Create(c echo.Context) error {
	var body ticketBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	t, err := h.svc.Create(c.Request().Context(), body.request())
	if err != nil {
		return bookingError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Ticket created successfully",
		"data":    echo.Map{"ticket_id": t.ID, "ticket": t},
	})
}

// Update handles PUT /tickets/:id.  user_id in the body is ignored.
func (h *TicketHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var body ticketBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	t, err := h.svc.Update(c.Request().Context(), id, body.request())
	if err != nil {
		return bookingError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Ticket updated successfully", "data": t})
}

// Delete handles DELETE /tickets/:id.
func (h *TicketHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return bookingError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Ticket deleted successfully"})
}

// Seats handles GET /seats.
func (h *TicketHandler) Seats(c echo.Context) error {
	seats, err := h.svc.Seats(c.Request().Context())
	if err != nil {
		return bookingError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": seats})
}

// BookedSeats handles GET /tickets/booked?title=&show_time=[&exclude_ticket_id=].
func (h *TicketHandler) BookedSeats(c echo.Context) error {
	title := c.QueryParam("title")
	showTime := c.QueryParam("show_time")
	if title == "" || showTime == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing title or show_time"})
	}
	var exclude uint64
	if raw := c.QueryParam("exclude_ticket_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exclude_ticket_id"})
		}
		exclude = n
	}
	labels, err := h.svc.BookedSeats(c.Request().Context(), title, showTime, exclude)
	if err != nil {
		return bookingError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": labels})
}

// Logs handles GET /users/:userId/ticket-logs.
func (h *TicketHandler) Logs(c echo.Context) error {
	userID, ok := pathID(c, "userId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	logs, err := h.svc.Logs(c.Request().Context(), userID)
	if err != nil {
		return bookingError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": logs})
}
