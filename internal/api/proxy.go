package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chefscript/backend/config"
)

// ProxyHandler forwards plagiarism checks to the detection provider so its
// secret key never reaches a client. It is mounted outside the
// authenticated v1 group and mirrors the provider's responses.
type ProxyHandler struct {
	upstreamURL string
	apiKey      string
	client      *http.Client
}

func NewProxyHandler(cfg *config.Config) *ProxyHandler {
	return NewProxyHandlerWithTimeout(cfg, 3*time.Minute)
}

// NewProxyHandlerWithTimeout builds a proxy with an explicit upstream timeout.
func NewProxyHandlerWithTimeout(cfg *config.Config, timeout time.Duration) *ProxyHandler {
	return &ProxyHandler{
		upstreamURL: strings.TrimRight(cfg.WinstonAPIURL, "/") + "/v2/plagiarism",
		apiKey:      cfg.WinstonKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (h *ProxyHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/plagiarism", h.Forward)
	router.GET("/health", h.Health)
}

func (h *ProxyHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type proxyRequest struct {
	Text         string   `json:"text"`
	ExcludedURLs []string `json:"excludedUrls"`
}

// Forward relays the check to the provider. Connection refusal maps to 503,
// a timeout to 504, and any other upstream failure keeps its status code.
func (h *ProxyHandler) Forward(c *gin.Context) {
	if h.apiKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Plagiarism service is not configured"})
		return
	}

	var req proxyRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required"})
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"text":             req.Text,
		"excluded_sources": req.ExcludedURLs,
		"language":         "en",
		"country":          "us",
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build upstream request"})
		return
	}

	upstream, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, h.upstreamURL, bytes.NewReader(payload))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build upstream request"})
		return
	}
	upstream.Header.Set("Content-Type", "application/json")
	upstream.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.client.Do(upstream)
	if err != nil {
		switch {
		case errors.Is(err, syscall.ECONNREFUSED):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Plagiarism service is unavailable"})
		case isTimeout(err):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Plagiarism service timed out"})
		default:
			log.Printf("[ProxyHandler] Upstream request failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Plagiarism check failed"})
		}
		return
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upstream response"})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, body)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
