package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/chefscript/backend/config"
)

// Recraft quota: 100 operations per rolling minute, 600ms between operations.
const (
	recraftRateLimit = 100
	recraftSpacing   = 600 * time.Millisecond
)

// NewRecraftScheduler builds the process-wide scheduler for the Recraft quota.
func NewRecraftScheduler() *Scheduler {
	return NewScheduler(recraftRateLimit, time.Minute, recraftSpacing)
}

// RecraftService generates images and creates custom styles via the Recraft
// API. All operations share one scheduler so the provider's rate limit is
// observed across the whole process.
type RecraftService struct {
	apiKey string
	apiURL string
	client *http.Client
	sched  *Scheduler
}

// NewRecraftService creates a new RecraftService instance
func NewRecraftService(cfg *config.Config, sched *Scheduler) (*RecraftService, error) {
	if cfg.RecraftKey == "" {
		return nil, fmt.Errorf("Recraft API key: %w", ErrNotConfigured)
	}

	return &RecraftService{
		apiKey: cfg.RecraftKey,
		apiURL: strings.TrimRight(cfg.RecraftAPIURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		sched: sched,
	}, nil
}

// GenerateImageOptions selects the style and output shape for a generation.
// StyleID takes precedence over Style when both are set.
type GenerateImageOptions struct {
	Style      string
	StyleID    string
	Resolution string
	NumImages  int
}

// GenerateImage generates an image from a prompt and returns its hosted URL
func (s *RecraftService) GenerateImage(ctx context.Context, prompt string, opts GenerateImageOptions) (string, error) {
	if opts.Resolution == "" {
		opts.Resolution = "1024x1024"
	}
	if opts.NumImages == 0 {
		opts.NumImages = 1
	}

	reqBody := map[string]interface{}{
		"prompt":     prompt,
		"resolution": opts.Resolution,
		"num_images": opts.NumImages,
	}
	if opts.StyleID != "" {
		reqBody["style_id"] = opts.StyleID
	} else if opts.Style != "" {
		reqBody["style"] = opts.Style
	} else {
		reqBody["style"] = "realistic_image"
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var imageURL string
	err = s.sched.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL+"/images/generations", bytes.NewBuffer(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to send request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return s.classifyError(resp.StatusCode, body)
		}

		var result struct {
			Data []struct {
				URL string `json:"url"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		if len(result.Data) == 0 || result.Data[0].URL == "" {
			return fmt.Errorf("no image URL in response")
		}

		imageURL = result.Data[0].URL
		return nil
	})
	if err != nil {
		return "", err
	}

	return imageURL, nil
}

// StyleImage is one reference image for style creation.
type StyleImage struct {
	Name string
	Data []byte
}

// CreateStyle creates a custom style from reference images and returns the
// provider-assigned style identifier
func (s *RecraftService) CreateStyle(ctx context.Context, baseStyle string, images []StyleImage) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("at least one reference image is required")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("style", baseStyle); err != nil {
		return "", fmt.Errorf("failed to build form: %w", err)
	}
	for i, img := range images {
		part, err := writer.CreateFormFile(fmt.Sprintf("file%d", i+1), img.Name)
		if err != nil {
			return "", fmt.Errorf("failed to build form: %w", err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return "", fmt.Errorf("failed to build form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build form: %w", err)
	}

	var styleID string
	err := s.sched.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL+"/styles", bytes.NewReader(buf.Bytes()))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to send request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return s.classifyError(resp.StatusCode, body)
		}

		var result struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		if result.ID == "" {
			return fmt.Errorf("no style ID in response")
		}

		styleID = result.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	return styleID, nil
}

// classifyError maps provider failures onto the shared error kinds with the
// user-facing messages.
func (s *RecraftService) classifyError(status int, body []byte) error {
	message := errorMessage(body)
	log.Printf("[RecraftService] API request failed with status %d: %s", status, message)

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("service is busy, please try again in a few moments: %w", ErrRateLimited)
	case status == http.StatusUnauthorized:
		return fmt.Errorf("image generation service is temporarily unavailable: %w", ErrUnauthorized)
	case status == http.StatusPaymentRequired || strings.Contains(message, "not_enough_credits"):
		return fmt.Errorf("the image generation service needs more credits, please try again later: %w", ErrInsufficientCredits)
	}
	return fmt.Errorf("image generation failed: %s", message)
}
