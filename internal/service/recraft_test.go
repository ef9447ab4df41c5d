package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefscript/backend/config"
)

func newTestRecraftService(t *testing.T, handler http.Handler) *RecraftService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewRecraftService(
		&config.Config{RecraftKey: "test-key", RecraftAPIURL: server.URL},
		NewScheduler(100, time.Minute, 0),
	)
	require.NoError(t, err)
	return svc
}

func TestRecraftGenerateImage(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the generated image URL", func(t *testing.T) {
		svc := newTestRecraftService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/images/generations", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "realistic_image", req["style"])
			assert.Nil(t, req["style_id"])

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]string{{"url": "https://images.recraft.ai/out.png"}},
			})
		}))

		url, err := svc.GenerateImage(ctx, "greek salad", GenerateImageOptions{})
		require.NoError(t, err)
		assert.Equal(t, "https://images.recraft.ai/out.png", url)
	})

	t.Run("style id takes precedence over style name", func(t *testing.T) {
		svc := newTestRecraftService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "custom-style-id", req["style_id"])
			assert.Nil(t, req["style"])

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]string{{"url": "https://images.recraft.ai/out.png"}},
			})
		}))

		_, err := svc.GenerateImage(ctx, "greek salad", GenerateImageOptions{
			Style:   "realistic_image",
			StyleID: "custom-style-id",
		})
		require.NoError(t, err)
	})

	t.Run("maps provider error statuses", func(t *testing.T) {
		cases := []struct {
			status int
			want   error
		}{
			{http.StatusTooManyRequests, ErrRateLimited},
			{http.StatusUnauthorized, ErrUnauthorized},
			{http.StatusPaymentRequired, ErrInsufficientCredits},
		}
		for _, tc := range cases {
			status := tc.status
			svc := newTestRecraftService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
			}))

			_, err := svc.GenerateImage(ctx, "greek salad", GenerateImageOptions{})
			assert.ErrorIs(t, err, tc.want, "status=%d", status)
		}
	})

	t.Run("credit exhaustion in the body maps without a 402", func(t *testing.T) {
		svc := newTestRecraftService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "not_enough_credits"})
		}))

		_, err := svc.GenerateImage(ctx, "greek salad", GenerateImageOptions{})
		assert.ErrorIs(t, err, ErrInsufficientCredits)
	})
}

func TestRecraftCreateStyle(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads reference images as numbered form files", func(t *testing.T) {
		svc := newTestRecraftService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/styles", r.URL.Path)
			require.NoError(t, r.ParseMultipartForm(10<<20))
			assert.Equal(t, "digital_illustration", r.FormValue("style"))
			assert.NotNil(t, r.MultipartForm.File["file1"])
			assert.NotNil(t, r.MultipartForm.File["file2"])

			_ = json.NewEncoder(w).Encode(map[string]string{"id": "style-123"})
		}))

		id, err := svc.CreateStyle(ctx, "digital_illustration", []StyleImage{
			{Name: "a.png", Data: []byte{1, 2, 3}},
			{Name: "b.png", Data: []byte{4, 5, 6}},
		})
		require.NoError(t, err)
		assert.Equal(t, "style-123", id)
	})

	t.Run("requires at least one image", func(t *testing.T) {
		svc := newTestRecraftService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		_, err := svc.CreateStyle(ctx, "realistic_image", nil)
		assert.ErrorContains(t, err, "at least one reference image")
	})
}
