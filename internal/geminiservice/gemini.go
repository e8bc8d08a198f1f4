package geminiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// --- Gemini API Configuration ---
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash"

	defaultCallTimeout = 60 * time.Second
	maxErrorBody       = 512
)

var (
	ErrNotConfigured = errors.New("GEMINI_API_KEY is not set")
	ErrEmptyResponse = errors.New("no content found in Gemini response")
)

// --- Structs for Gemini API Request/Response ---

type GeminiPayload struct {
	Contents          []GeminiContent   `json:"contents"`
	SystemInstruction *GeminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

// GenerationConfig is the sampling configuration sent with every call.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Turn is one message of a chat conversation. Role is "user" or "model".
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// GenerationError reports a failed call to the generation API: transport
// faults, timeouts, non-200 statuses and empty candidates.
type GenerationError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gemini %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gemini %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Client calls the generateContent endpoint. Each call is a single attempt
// bounded by the call timeout.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	callTimeout time.Duration
	httpClient  *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithModel(m string) Option {
	return func(c *Client) {
		if m != "" {
			c.model = m
		}
	}
}

func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		model:       DefaultModel,
		baseURL:     DefaultBaseURL,
		callTimeout: defaultCallTimeout,
		httpClient:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends a single-turn prompt and returns the text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	payload := GeminiPayload{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: prompt}}},
		},
		GenerationConfig: &cfg,
	}
	return c.call(ctx, "generate", payload)
}

// Chat continues a conversation. history holds the earlier turns, message is
// the new user input.
func (c *Client) Chat(ctx context.Context, history []Turn, message string) (string, error) {
	contents := make([]GeminiContent, 0, len(history)+1)
	for _, t := range history {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		role := "user"
		if t.Role == "model" || t.Role == "bot" {
			role = "model"
		}
		contents = append(contents, GeminiContent{Role: role, Parts: []GeminiPart{{Text: t.Text}}})
	}
	contents = append(contents, GeminiContent{Role: "user", Parts: []GeminiPart{{Text: message}}})

	cfg := ChatConfig
	payload := GeminiPayload{
		Contents:          contents,
		SystemInstruction: &GeminiContent{Parts: []GeminiPart{{Text: ChatSystemPrompt}}},
		GenerationConfig:  &cfg,
	}
	return c.call(ctx, "chat", payload)
}

// call handles the actual HTTP request to the Gemini API
func (c *Client) call(ctx context.Context, op string, payload GeminiPayload) (string, error) {
	logger := zerolog.Ctx(ctx)

	if c.apiKey == "" {
		logger.Error().Msg("GEMINI_API_KEY environment variable is not set")
		return "", &GenerationError{Op: op, Err: ErrNotConfigured}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", &GenerationError{Op: op, Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", &GenerationError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the key; report the cause only.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", &GenerationError{Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &GenerationError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("API returned non-200 status: %s", strings.TrimSpace(string(body))),
		}
	}

	var geminiResp GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", &GenerationError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	logger.Debug().
		Str("op", op).
		Dur("latency", time.Since(start)).
		Int("candidates", len(geminiResp.Candidates)).
		Msg("Gemini call completed")

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		if reason := geminiResp.PromptFeedback.BlockReason; reason != "" {
			return "", &GenerationError{Op: op, Err: fmt.Errorf("%w: blocked (%s)", ErrEmptyResponse, reason)}
		}
		return "", &GenerationError{Op: op, Err: ErrEmptyResponse}
	}

	var sb strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
