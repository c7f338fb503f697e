package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/blob"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// FeedbackHandler accepts feedback with an optional image.
type FeedbackHandler struct {
	store  repository.FeedbackStore
	blobs  blob.Store
	policy blob.ImagePolicy
	log    *zap.Logger
}

// NewFeedbackHandler wires the handler with the default image policy.
func NewFeedbackHandler(store repository.FeedbackStore, blobs blob.Store, log *zap.Logger) *FeedbackHandler {
	if store == nil || blobs == nil {
		panic("nil dependency passed to NewFeedbackHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedbackHandler{store: store, blobs: blobs, policy: blob.DefaultImagePolicy, log: log}
}

// Create handles POST /feedback (multipart: user_id, message, rating, image).
func (h *FeedbackHandler) Create(c echo.Context) error {
	userID, err := strconv.ParseUint(c.FormValue("user_id"), 10, 64)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}
	message := strings.TrimSpace(c.FormValue("message"))
	if message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message is required"})
	}
	rating := 0
	if raw := c.FormValue("rating"); raw != "" {
		rating, err = strconv.Atoi(raw)
		if err != nil || rating < 1 || rating > 5 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
		}
	}

	f := &model.Feedback{UserID: userID, Message: message, Rating: rating, CreatedAt: time.Now().UTC().Truncate(time.Second)}

	fh, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid multipart form"})
	default:
		if fh.Size > h.policy.MaxBytes {
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "image too large"})
		}
		src, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image"})
		}
		defer src.Close()
		key, url, err := blob.SaveImage(c.Request().Context(), h.blobs, h.policy, "feedback", src)
		switch {
		case errors.Is(err, blob.ErrTooLarge):
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "image too large"})
		case errors.Is(err, blob.ErrUnsupportedType):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "image must be jpeg, png, gif or webp"})
		case err != nil:
			h.log.Error("store feedback image failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
		}
		f.ImageKey, f.ImageURL = key, url
	}

	if err := h.store.Create(c.Request().Context(), f); err != nil {
		h.log.Error("save feedback failed", zap.Error(err))
		if f.ImageKey != "" {
			_ = h.blobs.Delete(c.Request().Context(), f.ImageKey)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save feedback"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Feedback submitted successfully", "data": f})
}

// List handles GET /feedbacks.
func (h *FeedbackHandler) List(c echo.Context) error {
	items, err := h.store.List(c.Request().Context())
	if err != nil {
		h.log.Error("list feedback failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch feedback"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}
