package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefscript/backend/config"
	"github.com/chefscript/backend/internal/api"
)

func setupProxyRouter(t *testing.T, upstreamURL string) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := api.NewProxyHandler(&config.Config{
		WinstonAPIURL: upstreamURL,
		WinstonKey:    "test-key",
	})
	handler.RegisterRoutes(router)
	return router
}

func postPlagiarism(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/plagiarism", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestProxyForward(t *testing.T) {
	t.Run("relays the provider response as-is", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/plagiarism", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "some essay text", req["text"])
			assert.Equal(t, "en", req["language"])
			assert.Equal(t, "us", req["country"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":{"score":12}}`))
		}))
		defer upstream.Close()

		router := setupProxyRouter(t, upstream.URL)
		w := postPlagiarism(router, `{"text":"some essay text"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"result":{"score":12}}`, w.Body.String())
	})

	t.Run("keeps upstream error statuses", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"bad key"}`))
		}))
		defer upstream.Close()

		router := setupProxyRouter(t, upstream.URL)
		w := postPlagiarism(router, `{"text":"some essay text"}`)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"bad key"}`, w.Body.String())
	})

	t.Run("rejects an empty text", func(t *testing.T) {
		router := setupProxyRouter(t, "http://localhost:1")

		for _, body := range []string{`{}`, `{"text":"   "}`, `not json`} {
			w := postPlagiarism(router, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, "body=%s", body)
			assert.Contains(t, w.Body.String(), "Text is required")
		}
	})

	t.Run("refuses without a provider key and never calls upstream", func(t *testing.T) {
		var calls int
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		defer upstream.Close()

		gin.SetMode(gin.TestMode)
		router := gin.New()
		handler := api.NewProxyHandler(&config.Config{WinstonAPIURL: upstream.URL})
		handler.RegisterRoutes(router)

		w := postPlagiarism(router, `{"text":"some essay text"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "not configured")
		assert.Equal(t, 0, calls)
	})

	t.Run("maps a refused connection to 503", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		upstream.Close()

		router := setupProxyRouter(t, upstream.URL)
		w := postPlagiarism(router, `{"text":"some essay text"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "unavailable")
	})

	t.Run("maps an upstream timeout to 504", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer upstream.Close()

		gin.SetMode(gin.TestMode)
		router := gin.New()
		handler := api.NewProxyHandlerWithTimeout(&config.Config{
			WinstonAPIURL: upstream.URL,
			WinstonKey:    "test-key",
		}, 20*time.Millisecond)
		handler.RegisterRoutes(router)

		w := postPlagiarism(router, `{"text":"some essay text"}`)

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Contains(t, w.Body.String(), "timed out")
	})
}

func TestProxyHealth(t *testing.T) {
	router := setupProxyRouter(t, "http://localhost:1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
