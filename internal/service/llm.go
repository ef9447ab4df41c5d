package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chefscript/backend/config"
)

const llmModel = "gpt-4-turbo-preview"

// requiredSections are the bracketed markers every generated recipe must carry.
var requiredSections = []string{
	"TITLE", "DESCRIPTION", "INGREDIENTS", "INSTRUCTIONS",
	"TOP_VIEW_PROMPT", "MACRO_PROMPT", "HASHTAGS",
}

// LLMService handles interactions with the OpenAI chat completions API
type LLMService struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewLLMService creates a new LLMService instance
func NewLLMService(cfg *config.Config) (*LLMService, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key: %w", ErrNotConfigured)
	}

	return &LLMService{
		apiKey: cfg.OpenAIKey,
		apiURL: cfg.OpenAIAPIURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents a request to the chat completions API
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Complete sends a chat request and returns the first choice's content.
// Absence of content is a hard failure.
func (s *LLMService) Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	reqBody := Request{
		Model:       llmModel,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

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
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return "", fmt.Errorf("OpenAI API error: %w", ErrUnauthorized)
		case http.StatusTooManyRequests:
			return "", fmt.Errorf("OpenAI API error: %w", ErrRateLimited)
		case http.StatusPaymentRequired:
			return "", fmt.Errorf("OpenAI API error: %w", ErrInsufficientCredits)
		}
		return "", fmt.Errorf("OpenAI API error: status %d: %s", resp.StatusCode, errorMessage(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("invalid response from OpenAI")
	}

	return result.Choices[0].Message.Content, nil
}

// GenerateRecipe generates recipe text for a recipe name. The response must
// contain every bracketed section marker; missing markers are named in the
// returned error.
func (s *LLMService) GenerateRecipe(ctx context.Context, recipeName string) (string, error) {
	if strings.TrimSpace(recipeName) == "" {
		return "", fmt.Errorf("recipe name is required")
	}

	prompt := fmt.Sprintf(`
Create a detailed recipe for %q following this EXACT format with all sections:

[TITLE]
%s

[DESCRIPTION]
Write 2-3 compelling sentences about the dish.

[INGREDIENTS]
List all ingredients with exact measurements.

[INSTRUCTIONS]
Provide clear step-by-step cooking instructions.

[TOP_VIEW_PROMPT]
Write a detailed prompt for AI image generation describing how the finished dish should look from above.

[MACRO_PROMPT]
Write a detailed prompt for AI image generation describing a close-up shot of the dish.

[HASHTAGS]
List 5-7 relevant hashtags.

IMPORTANT:
- Include ALL sections with their exact markers
- Keep the [TITLE] exactly as provided
- Make descriptions engaging but concise
- Use metric measurements
- Include cooking times and temperatures
- Focus on visual details in image prompts
- Make hashtags relevant and trending
- Maintain the exact format with section markers`, recipeName, recipeName)

	messages := []Message{
		{
			Role:    "system",
			Content: "You are a professional recipe writer and food photographer. Always maintain the exact format with all section markers ([TITLE], [DESCRIPTION], etc.) and include all required sections.",
		},
		{
			Role:    "user",
			Content: prompt,
		},
	}

	content, err := s.Complete(ctx, messages, 0.7, 2000)
	if err != nil {
		return "", err
	}

	var missing []string
	for _, section := range requiredSections {
		if !strings.Contains(content, "["+section+"]") {
			missing = append(missing, section)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required sections: %s", strings.Join(missing, ", "))
	}

	return content, nil
}

// GenerateRecipeList turns feed analytics data into a list of recipe names,
// one per line.
func (s *LLMService) GenerateRecipeList(ctx context.Context, feedData string, count int) (string, error) {
	prompt := fmt.Sprintf(`
Analyze the following FeedSpy data and generate %d unique recipe ideas that would appeal to the same audience. Format the output as a simple list of recipe names, one per line.

FeedSpy Data:
%s

Rules:
- Generate exactly %d recipes
- Each recipe should be unique
- Keep names concise but descriptive
- Focus on trending and popular recipes
- Consider seasonal ingredients
- One recipe per line
- No numbers or bullet points
`, count, feedData, count)

	messages := []Message{
		{
			Role:    "system",
			Content: "You are a professional recipe developer who specializes in creating trending recipe content for social media.",
		},
		{
			Role:    "user",
			Content: prompt,
		},
	}

	return s.Complete(ctx, messages, 0.8, 0)
}

// errorMessage pulls a provider error message out of a response body,
// falling back to the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error.Message != "" {
			return payload.Error.Message
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(body))
}
