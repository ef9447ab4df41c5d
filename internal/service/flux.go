package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chefscript/backend/config"
)

// Flux polling: every 500ms, at most 120 attempts (one minute).
const (
	fluxPollInterval = 500 * time.Millisecond
	fluxMaxAttempts  = 120
)

// Flux task statuses. The status set is closed; anything else is a terminal
// failure.
const (
	fluxStatusNotFound         = "Task not found"
	fluxStatusPending          = "Pending"
	fluxStatusRequestModerated = "Request Moderated"
	fluxStatusContentModerated = "Content Moderated"
	fluxStatusReady            = "Ready"
	fluxStatusError            = "Error"
)

// FluxService generates images through the asynchronous BFL API:
// submit a prompt, then poll the task until it resolves.
type FluxService struct {
	apiKey string
	apiURL string
	client *http.Client

	pollInterval time.Duration
	maxAttempts  int
	sleep        func(time.Duration)
}

// NewFluxService creates a new FluxService instance
func NewFluxService(cfg *config.Config) (*FluxService, error) {
	if cfg.FluxKey == "" {
		return nil, fmt.Errorf("Flux API key: %w", ErrNotConfigured)
	}

	return &FluxService{
		apiKey: cfg.FluxKey,
		apiURL: strings.TrimRight(cfg.FluxAPIURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		pollInterval: fluxPollInterval,
		maxAttempts:  fluxMaxAttempts,
		sleep:        time.Sleep,
	}, nil
}

type fluxResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result *struct {
		Sample string `json:"sample,omitempty"`
		Error  string `json:"error,omitempty"`
	} `json:"result,omitempty"`
}

// GenerateImage submits a prompt and polls until the task is ready, returning
// the generated image URL
func (s *FluxService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"prompt":          prompt,
		"negative_prompt": "blurry, low-quality, cartoon, unrealistic, watermark, text, signature",
		"width":           1024,
		"height":          1024,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL+"/flux-pro-1.1", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", s.classifyError(resp.StatusCode, body)
	}

	var submitted struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &submitted); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if submitted.ID == "" {
		return "", fmt.Errorf("no task ID received from Flux API")
	}

	log.Printf("[FluxService] Task created with ID %s", submitted.ID)
	return s.pollResult(ctx, submitted.ID)
}

// pollResult polls the task status until Ready, a terminal failure, or the
// attempt ceiling. Exceeding the ceiling is a timeout, distinct from a
// provider-reported failure.
func (s *FluxService) pollResult(ctx context.Context, taskID string) (string, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		result, err := s.getResult(ctx, taskID)
		if err != nil {
			return "", err
		}

		switch result.Status {
		case fluxStatusReady:
			if result.Result == nil || result.Result.Sample == "" {
				return "", fmt.Errorf("no image URL in completed response")
			}
			return result.Result.Sample, nil

		case fluxStatusError:
			if result.Result != nil && result.Result.Error != "" {
				return "", fmt.Errorf("image generation failed: %s", result.Result.Error)
			}
			return "", fmt.Errorf("image generation failed")

		case fluxStatusRequestModerated, fluxStatusContentModerated:
			return "", fmt.Errorf("content was flagged by moderation system")

		case fluxStatusNotFound:
			return "", fmt.Errorf("image generation task not found")

		case fluxStatusPending:
			s.sleep(s.pollInterval)

		default:
			return "", fmt.Errorf("unexpected status: %s", result.Status)
		}
	}

	return "", fmt.Errorf("image generation took too long: %w", ErrTimeout)
}

func (s *FluxService) getResult(ctx context.Context, taskID string) (*fluxResult, error) {
	endpoint := fmt.Sprintf("%s/get_result?id=%s", s.apiURL, url.QueryEscape(taskID))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, s.classifyError(resp.StatusCode, body)
	}

	var result fluxResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

func (s *FluxService) classifyError(status int, body []byte) error {
	message := errorMessage(body)
	log.Printf("[FluxService] API request failed with status %d: %s", status, message)

	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("invalid Flux API key: %w", ErrUnauthorized)
	case http.StatusTooManyRequests:
		return fmt.Errorf("maximum number of active tasks reached, please wait for some tasks to complete: %w", ErrRateLimited)
	case http.StatusPaymentRequired:
		return fmt.Errorf("insufficient credits, please add credits to your Flux account: %w", ErrInsufficientCredits)
	}
	return fmt.Errorf("Flux API error: %s", message)
}
