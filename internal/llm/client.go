package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://api.groq.com/openai/v1"
	defaultModel      = "llama-3.3-70b-versatile"
	defaultMaxRetries = 2
)

// retryBaseDelay is the backoff unit between retry attempts.
const retryBaseDelay = 500 * time.Millisecond

// Options configures a completion client. Zero values fall back to the
// reference defaults: Groq's OpenAI-compatible endpoint, the
// llama-3.3-70b-versatile model, and two retries.
type Options struct {
	BaseURL    string
	Model      string
	MaxRetries int
}

// Client calls a hosted text-generation API with fixed decoding
// parameters: temperature 0, no output-length cap, no request timeout.
// A Client is constructed once at process start and passed to every
// component that needs completions.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	client     *http.Client
}

// New creates a completion client. An empty API key is a constructor-time
// failure: no client is returned, and the caller decides whether to run
// degraded (surfacing ErrEngineUnavailable per call) or abort.
func New(apiKey string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrEngineUnavailable
	}

	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultMaxRetries
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
		maxRetries: opts.MaxRetries,
		client:     &http.Client{},
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one blocking chat-completion request and returns the
// generated text trimmed of surrounding whitespace. Transient failures
// (transport errors, 429, 5xx) are retried up to the configured limit;
// exhaustion surfaces a CompletionError wrapping the last cause.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	attempts := c.maxRetries + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", &CompletionError{Attempts: attempt, Err: ctx.Err()}
			case <-time.After(retryBaseDelay * time.Duration(attempt)):
			}
		}

		text, retryable, err := c.callAPI(ctx, prompt)
		if err == nil {
			return strings.TrimSpace(text), nil
		}

		lastErr = err
		if !retryable {
			return "", &CompletionError{Attempts: attempt + 1, Err: err}
		}
	}

	return "", &CompletionError{Attempts: attempts, Err: lastErr}
}

// callAPI makes a single request to the chat completions endpoint.
// The second return value reports whether the failure is transient.
func (c *Client) callAPI(
	ctx context.Context,
	prompt string,
) (string, bool, error) {
	reqBody := apiRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", false, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("calling completion API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode >= 500

		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", retryable, fmt.Errorf(
				"API error (%d): %s", resp.StatusCode, apiErr.Error.Message,
			)
		}
		return "", retryable, fmt.Errorf(
			"API error (%d): %s", resp.StatusCode, string(respBody),
		)
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", false, fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", false, fmt.Errorf("response contained no choices")
	}

	return result.Choices[0].Message.Content, false, nil
}

// --- Chat completions API types ---

type apiRequest struct {
	Model       string       `json:"model"`
	Temperature float64      `json:"temperature"`
	Messages    []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	ID      string      `json:"id"`
	Model   string      `json:"model"`
	Choices []apiChoice `json:"choices"`
}

type apiChoice struct {
	Index        int        `json:"index"`
	Message      apiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
