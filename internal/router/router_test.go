package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/blob"
	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/service"
)

func newTestServer(t *testing.T, seatCache echo.MiddlewareFunc) *echo.Echo {
	t.Helper()
	store := repository.NewMemoryStore()
	require.NoError(t, store.SeedSeats(context.Background(), []string{"A1", "A2", "A3"}))
	svc := service.NewBookingService(store, nil, nil, nil)

	e := echo.New()
	Register(e, Routes{
		Health:    handler.Health(nil, nil),
		Tickets:   handler.NewTicketHandler(svc, nil),
		Feedback:  handler.NewFeedbackHandler(repository.NewMemoryFeedbackStore(), blob.NewLocalStore(t.TempDir(), "/uploads"), nil),
		SeatCache: seatCache,
	})
	return e
}

func request(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBookingFlowOverHTTP(t *testing.T) {
	e := newTestServer(t, nil)

	rec := request(e, http.MethodPost, "/tickets",
		`{"user_id":1,"movie_title":"Dune","show_time":"2024-06-01T19:00:00Z","seats":["A1","A2"],"price":20}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = request(e, http.MethodPost, "/tickets",
		`{"user_id":2,"movie_title":"Dune","show_time":"2024-06-01T21:00:00+02:00","seats":["A2","A3"],"price":20}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	var conflict struct {
		Seats []string `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conflict))
	assert.Equal(t, []string{"A2"}, conflict.Seats)

	rec = request(e, http.MethodGet, "/tickets/booked?title=Dune&show_time=2024-06-01T19:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":["A1","A2"]}`, rec.Body.String())

	rec = request(e, http.MethodGet, "/users/1/ticket-logs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"action":"BOOKED"`)
}

func TestNotFoundFallback(t *testing.T) {
	e := newTestServer(t, nil)

	rec := request(e, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())

	assert.Equal(t, "ok", request(e, http.MethodGet, "/healthz", "").Body.String())
}

func TestSeatCacheOnlyOnCatalog(t *testing.T) {
	var hits int32
	counting := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddInt32(&hits, 1)
			return next(c)
		}
	}
	e := newTestServer(t, counting)

	request(e, http.MethodGet, "/seats", "")
	request(e, http.MethodGet, "/tickets/booked?title=Dune&show_time=2024-06-01T19:00:00Z", "")
	request(e, http.MethodGet, "/tickets", "")

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
