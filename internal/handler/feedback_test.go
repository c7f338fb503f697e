package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/blob"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

func multipartRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "poster.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/feedback", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func setupFeedback(t *testing.T) (*echo.Echo, *repository.MemoryFeedbackStore, string) {
	t.Helper()
	dir := t.TempDir()
	store := repository.NewMemoryFeedbackStore()
	h := NewFeedbackHandler(store, blob.NewLocalStore(dir, "/uploads"), nil)
	e := echo.New()
	e.POST("/feedback", h.Create)
	e.GET("/feedbacks", h.List)
	return e, store, dir
}

func TestFeedback_CreateWithImage(t *testing.T) {
	e, _, dir := setupFeedback(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, multipartRequest(t, map[string]string{"user_id": "3", "message": "loved it", "rating": "5"}, png))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := decode(t, rec)["data"].(map[string]interface{})
	url, _ := data["image_url"].(string)
	assert.True(t, strings.HasPrefix(url, "/uploads/feedback/"), url)
	_, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	assert.NoError(t, err)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feedbacks", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)
}

func TestFeedback_Rejections(t *testing.T) {
	e, store, _ := setupFeedback(t)

	cases := []struct {
		name   string
		fields map[string]string
		image  []byte
		status int
	}{
		{"missing user", map[string]string{"message": "hi"}, nil, http.StatusBadRequest},
		{"missing message", map[string]string{"user_id": "1"}, nil, http.StatusBadRequest},
		{"rating out of range", map[string]string{"user_id": "1", "message": "hi", "rating": "9"}, nil, http.StatusBadRequest},
		{"not an image", map[string]string{"user_id": "1", "message": "hi"}, []byte("just text"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, multipartRequest(t, tc.fields, tc.image))
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	items, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFeedback_WithoutImage(t *testing.T) {
	e, _, _ := setupFeedback(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, multipartRequest(t, map[string]string{"user_id": "2", "message": "ok"}, nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.NotContains(t, data, "image_url")
}
