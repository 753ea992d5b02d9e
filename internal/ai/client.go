// Package ai talks to an OpenAI-compatible chat completions endpoint to
// decompose tasks into daily subtasks and to analyse efficiency figures.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	defaultTopP             = 1.0
	defaultFrequencyPenalty = 0
	defaultPresencePenalty  = 0
)

// Client is stateless between calls and safe for concurrent use. Each call
// makes exactly one HTTP attempt.
type Client struct {
	http   *http.Client
	logger *log.Logger
	now    func() time.Time
}

type Option func(*Client)

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock overrides the source of today's date in prompts.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{},
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decompose asks the model to split req into a dated list of subtasks.
func (c *Client) Decompose(ctx context.Context, cfg Config, req DecompositionRequest) (*Decomposition, error) {
	if !cfg.Ready() {
		return nil, ErrNotConfigured
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	content, err := c.complete(ctx, cfg, []chatMessage{
		{Role: "system", Content: decompositionSystemPrompt},
		{Role: "user", Content: decompositionPrompt(req, c.now())},
	})
	if err != nil {
		return nil, err
	}

	d, err := ParseDecomposition(content)
	if err != nil {
		c.logger.Warn("decomposition reply rejected", "err", err)
		return nil, err
	}
	c.logger.Debug("decomposition parsed", "subtasks", len(d.SubTasks))
	return d, nil
}

// AnalyzeEfficiency returns the model's free-form commentary on stats.
func (c *Client) AnalyzeEfficiency(ctx context.Context, cfg Config, stats EfficiencyStats) (string, error) {
	if !cfg.Ready() {
		return "", ErrNotConfigured
	}
	return c.complete(ctx, cfg, []chatMessage{
		{Role: "system", Content: efficiencySystemPrompt},
		{Role: "user", Content: efficiencyPrompt(stats)},
	})
}

// complete performs one chat completion and returns the first choice's
// content, or "" when the reply has no choices.
func (c *Client) complete(ctx context.Context, cfg Config, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:            cfg.Model,
		Messages:         messages,
		Temperature:      cfg.Temperature,
		MaxTokens:        cfg.MaxTokens,
		TopP:             defaultTopP,
		FrequencyPenalty: defaultFrequencyPenalty,
		PresencePenalty:  defaultPresencePenalty,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := cfg.endpoint()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &APIError{Message: err.Error(), Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	c.logger.Debug("chat completion", "url", url, "model", cfg.Model)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &APIError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "read response body: " + err.Error(), Err: err}
	}
	c.logger.Debug("chat completion done", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp, respBody)}
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "empty response body"}
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", &MalformedResponseError{Err: fmt.Errorf("decode chat completion: %w", err)}
	}
	if len(cr.Choices) == 0 {
		return "", nil
	}
	return cr.Choices[0].Message.Content, nil
}

// errorMessage prefers the provider's error envelope, then the raw body,
// then the status text.
func errorMessage(resp *http.Response, body []byte) string {
	var pe providerError
	if json.Unmarshal(body, &pe) == nil && pe.Error.Message != "" {
		return pe.Error.Message
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}
