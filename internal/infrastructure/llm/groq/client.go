package groq

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/score-labs/score-backend/internal/infrastructure/resilience"
)

// Client talks to a hosted OpenAI-compatible chat-completions API. All
// prompt-driven components share this one client through the Oracle port.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client

	limiter  *rate.Limiter
	executor *resilience.Executor
}

type Options struct {
	Temperature float64
	Timeout     time.Duration

	// RequestsPerMinute throttles outgoing calls ahead of the provider's own
	// limit so bursts degrade to waiting instead of 429 storms. Zero disables
	// the limiter.
	RequestsPerMinute  int
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey, model string) *Client {
	return NewWithOptions(baseURL, apiKey, model, Options{})
}

func NewWithOptions(baseURL, apiKey, model string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	temperature := options.Temperature
	if temperature <= 0 {
		temperature = 0.3
	}

	var limiter *rate.Limiter
	if options.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(options.RequestsPerMinute)/60.0), options.RequestsPerMinute)
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     limiter,
		executor:    options.ResilienceExecutor,
	}
}

// Complete sends one prompt and returns the trimmed completion text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	reqBody := map[string]any{
		"model":       c.model,
		"temperature": c.temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/chat/completions", reqBody, &response, "complete")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "groq.complete", call, classifyGroqError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("complete", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("groq complete: empty choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
