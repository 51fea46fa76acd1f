// Package llm talks to an Ollama-compatible text-generation backend.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FranksOps/sift/internal/metrics"
	"github.com/FranksOps/sift/pkg/httpclient"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "qwen2.5-coder:7b"
	DefaultNumCtx  = 2048

	defaultPingTimeout = 5 * time.Second
	// trimRatio is the target length of a prompt retried after a context overflow.
	trimRatio = 0.7
)

var (
	// ErrUnreachable means the backend could not be contacted.
	ErrUnreachable = errors.New("llm: backend unreachable")
	// ErrModelNotFound means the backend is up but the configured model is not installed.
	ErrModelNotFound = errors.New("llm: model not found")
)

// GenerationError is a failed generation: a non-200 status, an error field
// in the reply, or an undecodable body.
type GenerationError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *GenerationError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("llm: generation failed: %v", e.Err)
	case e.StatusCode != 0 && e.StatusCode != http.StatusOK:
		return fmt.Sprintf("llm: generation failed with status %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("llm: generation failed: %s", e.Message)
	}
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ContextLengthError is returned when a prompt still overflows the model
// context after it was trimmed once.
type ContextLengthError struct {
	PromptChars int
}

func (e *ContextLengthError) Error() string {
	return fmt.Sprintf("llm: context limit exceeded after trimming (%d chars)", e.PromptChars)
}

// Request is a single non-streaming generation.
type Request struct {
	Prompt      string
	Temperature float64
	// NumCtx overrides the configured context window when > 0.
	NumCtx int
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	Model       string
	NumCtx      int
	PingTimeout time.Duration
}

// Client is a Generator backed by the Ollama HTTP API.
type Client struct {
	config Config
	http   *httpclient.Client
	logger *slog.Logger
}

var _ Generator = (*Client)(nil)

// NewClient creates a client. Generation calls carry no client timeout;
// cancel ctx to abandon one.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.NumCtx <= 0 {
		cfg.NumCtx = DefaultNumCtx
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = defaultPingTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	hc, err := httpclient.New(httpclient.Config{
		Timeout:      -1,
		MaxBodyBytes: 8 << 20,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create http client: %w", err)
	}
	return &Client{config: cfg, http: hc, logger: logger}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.config.Model }

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Ping checks that the backend answers and has the configured model, or
// a variant of its family, installed.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.PingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	body, err := c.http.ReadBody(resp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return fmt.Errorf("%w: decode tags: %v", ErrUnreachable, err)
	}

	family, _, _ := strings.Cut(c.config.Model, ":")
	for _, m := range tags.Models {
		if strings.Contains(m.Name, c.config.Model) || strings.Contains(m.Name, family) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrModelNotFound, c.config.Model)
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
}

type generatePayload struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response *string `json:"response"`
	Error    string  `json:"error"`
}

var errOverflow = errors.New("context overflow")

// Generate sends the prompt and returns the trimmed reply. A context
// overflow is retried once with the prompt cut to 70% of its length.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := c.generateWithTrim(ctx, req)
	metrics.RecordGeneration(time.Since(start), err == nil)
	return out, err
}

func (c *Client) generateWithTrim(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	out, err := c.generate(ctx, prompt, req)
	if !errors.Is(err, errOverflow) {
		return out, err
	}

	trimmed := TrimPrompt(prompt, int(float64(len(prompt))*trimRatio))
	c.logger.Warn("prompt overflowed model context, retrying trimmed",
		"model", c.config.Model, "chars", len(prompt), "trimmed_chars", len(trimmed))

	out, err = c.generate(ctx, trimmed, req)
	if errors.Is(err, errOverflow) {
		return "", &ContextLengthError{PromptChars: len(trimmed)}
	}
	return out, err
}

func (c *Client) generate(ctx context.Context, prompt string, req Request) (string, error) {
	numCtx := req.NumCtx
	if numCtx <= 0 {
		numCtx = c.config.NumCtx
	}
	payload, err := json.Marshal(generatePayload{
		Model:  c.config.Model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: req.Temperature,
			NumCtx:      numCtx,
		},
	})
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	body, err := c.http.ReadBody(resp)
	if err != nil {
		return "", &GenerationError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		head := strings.ToLower(prefix(string(body), 500))
		if containsAny(head, "context", "too long", "token") {
			return "", errOverflow
		}
		return "", &GenerationError{StatusCode: resp.StatusCode, Message: prefix(string(body), 300)}
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", &GenerationError{StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if gr.Response == nil {
		if containsAny(strings.ToLower(gr.Error), "context", "token") {
			return "", errOverflow
		}
		return "", &GenerationError{StatusCode: resp.StatusCode, Message: "unexpected response: " + gr.Error}
	}
	return strings.TrimSpace(*gr.Response), nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
