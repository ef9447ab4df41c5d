package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chefscript/backend/internal/types"
)

const (
	winstonMaxRetries = 3
	winstonRetryDelay = time.Second
	winstonTimeout    = 3 * time.Minute
)

// WinstonService checks text for plagiarism through the local proxy endpoint.
// The proxy holds the provider's secret key; this client never talks to the
// provider directly.
type WinstonService struct {
	endpoint string
	client   *http.Client
	ledger   *TokenLedger

	maxRetries int
	retryDelay time.Duration
	sleep      func(time.Duration)
}

// NewWinstonService creates a new WinstonService. endpoint is the full URL of
// the plagiarism proxy.
func NewWinstonService(endpoint string, ledger *TokenLedger) *WinstonService {
	return &WinstonService{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: winstonTimeout,
		},
		ledger:     ledger,
		maxRetries: winstonMaxRetries,
		retryDelay: winstonRetryDelay,
		sleep:      time.Sleep,
	}
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CheckPlagiarism verifies the user's token balance covers the check, runs it
// through the proxy with retries, deducts the tokens, and returns the
// normalized result. A deduction failure after a successful check is reported
// as an error.
func (s *WinstonService) CheckPlagiarism(ctx context.Context, userID uuid.UUID, text string, excludedURLs []string) (*types.PlagiarismResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is required for plagiarism check")
	}

	wordCount := CountWords(text)
	requiredTokens := PlagiarismTokenCost(wordCount)

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token balance: %w", err)
	}
	if balance < requiredTokens {
		return nil, fmt.Errorf("this check requires %d tokens based on word count (%d words): %w",
			requiredTokens, wordCount, ErrInsufficientTokens)
	}

	cleaned := make([]string, 0, len(excludedURLs))
	for _, u := range excludedURLs {
		if strings.TrimSpace(u) != "" {
			cleaned = append(cleaned, u)
		}
	}

	raw, err := s.checkWithRetries(ctx, text, cleaned)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Debit(ctx, userID, requiredTokens); err != nil {
		// The check already succeeded; surface the deduction failure anyway.
		return nil, fmt.Errorf("failed to deduct tokens: %w", err)
	}

	return normalizeWinstonResponse(raw), nil
}

type winstonResponse struct {
	Score   float64 `json:"score"`
	Sources []struct {
		URL             string  `json:"url"`
		Score           float64 `json:"score"`
		PlagiarismFound []struct {
			Sequence string `json:"sequence"`
		} `json:"plagiarismFound"`
		IdenticalWordCounts int `json:"identicalWordCounts"`
		SimilarWordCounts   int `json:"similarWordCounts"`
		TotalNumberOfWords  int `json:"totalNumberOfWords"`
	} `json:"sources"`
	CreditsUsed          int `json:"credits_used"`
	CreditsRemaining     int `json:"credits_remaining"`
	TextWordCounts       int `json:"textWordCounts"`
	TotalPlagiarismWords int `json:"totalPlagiarismWords"`
}

// checkWithRetries issues the proxy request, retrying only generic failures
// with a linearly growing delay. Authorization and payment failures propagate
// immediately; a timeout is reported distinctly and never retried.
func (s *WinstonService) checkWithRetries(ctx context.Context, text string, excludedURLs []string) (*winstonResponse, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"text":         text,
		"excludedUrls": excludedURLs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		result, err := s.checkOnce(ctx, payload)
		if err == nil {
			return result, nil
		}

		if errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrInsufficientCredits) {
			return nil, err
		}

		log.Printf("[WinstonService] Request failed, attempt %d/%d: %v", attempt, s.maxRetries, err)
		lastErr = err
		if attempt < s.maxRetries {
			s.sleep(s.retryDelay * time.Duration(attempt))
		}
	}

	return nil, fmt.Errorf("failed to check plagiarism after %d retries: %w", s.maxRetries, lastErr)
}

func (s *WinstonService) checkOnce(ctx context.Context, payload []byte) (*winstonResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeoutError(err) {
			return nil, fmt.Errorf("the plagiarism check is taking longer than expected, please try with a smaller text or try again later: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := errorMessage(body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return nil, fmt.Errorf("%s: %w", message, ErrUnauthorized)
		case http.StatusPaymentRequired:
			return nil, fmt.Errorf("%s: %w", message, ErrInsufficientCredits)
		case http.StatusGatewayTimeout:
			return nil, fmt.Errorf("the plagiarism check is taking longer than expected, please try with a smaller text or try again later: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("plagiarism check failed with status %d: %s", resp.StatusCode, message)
	}

	var result winstonResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// normalizeWinstonResponse converts the provider's 0-100 scores into the
// internal 0-1 result shape.
func normalizeWinstonResponse(raw *winstonResponse) *types.PlagiarismResult {
	result := &types.PlagiarismResult{
		Score:   raw.Score / 100,
		Matches: make([]types.PlagiarismMatch, 0, len(raw.Sources)),
		Stats: types.PlagiarismStats{
			CreditsUsed:      raw.CreditsUsed,
			CreditsRemaining: raw.CreditsRemaining,
			WordCount:        raw.TextWordCounts,
			PlagiarizedWords: raw.TotalPlagiarismWords,
		},
	}

	for _, source := range raw.Sources {
		sequences := make([]string, 0, len(source.PlagiarismFound))
		for _, found := range source.PlagiarismFound {
			sequences = append(sequences, found.Sequence)
		}

		match := types.PlagiarismMatch{
			Text:       strings.Join(sequences, " "),
			Source:     source.URL,
			Similarity: source.Score / 100,
		}
		match.Details.Identical = source.IdenticalWordCounts
		match.Details.Similar = source.SimilarWordCounts
		match.Details.Total = source.TotalNumberOfWords
		result.Matches = append(result.Matches, match)
	}

	return result
}

// isTimeoutError reports whether err is a connection abort or deadline hit.
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
