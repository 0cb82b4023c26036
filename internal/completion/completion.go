// Package completion calls an OpenAI-compatible chat-completions endpoint and
// records token usage in a session ledger.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pkt.systems/inkwell/internal/logx"
	"pkt.systems/inkwell/internal/prompts"
	"pkt.systems/inkwell/internal/usage"
	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the chat model used when none is configured.
	DefaultModel schema.ModelID = "gpt-4o-mini"
	// DefaultTemperature is the sampling temperature sent with every request.
	DefaultTemperature = 0.7
	// DefaultMaxTokens caps the completion length.
	DefaultMaxTokens = 2048
	// DefaultTimeout bounds one request.
	DefaultTimeout = 60 * time.Second

	maxErrorBody = 1 << 20
)

// CredentialSource yields the current API credential. An empty string means none is set.
type CredentialSource interface {
	Credential(ctx context.Context) string
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func(ctx context.Context) string

// Credential implements CredentialSource.
func (f CredentialFunc) Credential(ctx context.Context) string {
	return f(ctx)
}

// StaticCredential returns a CredentialSource that always yields key.
func StaticCredential(key string) CredentialSource {
	return CredentialFunc(func(context.Context) string { return key })
}

// Config controls the request shape.
type Config struct {
	BaseURL     string
	Model       schema.ModelID
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client performs chat completions.
type Client struct {
	cfg         Config
	credentials CredentialSource
	ledger      *usage.Ledger
	http        *http.Client
	log         pslog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(log pslog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient builds a completion client. A nil ledger gets a fresh one with default prices.
func NewClient(cfg Config, credentials CredentialSource, ledger *usage.Ledger, opts ...Option) *Client {
	cfg = normalizeConfig(cfg)
	if ledger == nil {
		ledger = usage.NewLedger(usage.DefaultPricing())
	}
	if credentials == nil {
		credentials = StaticCredential("")
	}
	c := &Client{
		cfg:         cfg,
		credentials: credentials,
		ledger:      ledger,
		http:        &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func normalizeConfig(cfg Config) Config {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(string(cfg.Model)) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

// Ledger returns the session ledger the client records into.
func (c *Client) Ledger() *usage.Ledger {
	return c.ledger
}

// Available reports whether a credential is configured.
func (c *Client) Available(ctx context.Context) bool {
	return strings.TrimSpace(c.credentials.Credential(ctx)) != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       schema.ModelID `json:"model"`
	Messages    []chatMessage  `json:"messages"`
	Temperature float64        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one system/user exchange and returns the trimmed reply.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (schema.Completion, error) {
	log := c.logger(ctx)
	key := strings.TrimSpace(c.credentials.Credential(ctx))
	if key == "" {
		log.Debug("completion skipped", "reason", "missing credential")
		return schema.Completion{}, schema.ErrMissingCredential
	}
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return schema.Completion{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return schema.Completion{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	started := time.Now()
	log.Debug("completion request start", "model", c.cfg.Model, "prompt_chars", len(userPrompt))
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("completion request failed", "err", err, "duration_ms", time.Since(started).Milliseconds())
		return schema.Completion{}, fmt.Errorf("%w: %w", schema.ErrTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := statusError(resp)
		log.Warn("completion request rejected", "status", resp.StatusCode, "err", err, "duration_ms", time.Since(started).Milliseconds())
		return schema.Completion{}, err
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Warn("completion decode failed", "err", err)
		return schema.Completion{}, fmt.Errorf("%w: decode response: %w", schema.ErrTransport, err)
	}
	text := ""
	if len(payload.Choices) > 0 {
		text = strings.TrimSpace(payload.Choices[0].Message.Content)
	}
	if text == "" {
		log.Warn("completion response empty", "duration_ms", time.Since(started).Milliseconds())
		return schema.Completion{}, schema.ErrEmptyResponse
	}

	call := c.ledger.Record(payload.Usage.PromptTokens, payload.Usage.CompletionTokens, payload.Usage.TotalTokens)
	session := c.ledger.Snapshot()
	log.Info("completion request ok",
		"input_tokens", call.InputTokens,
		"output_tokens", call.OutputTokens,
		"cost", call.Cost,
		"session_cost", session.Cost,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return schema.Completion{Text: text, Usage: call, Session: session}, nil
}

// RunAction looks up a catalog action and completes its prompt for input.
func (c *Client) RunAction(ctx context.Context, id schema.ActionID, input string) (schema.Completion, error) {
	action, ok := prompts.Lookup(id)
	if !ok {
		return schema.Completion{}, fmt.Errorf("%w: %s", schema.ErrUnknownAction, id)
	}
	ctx = pslog.ContextWithLogger(ctx, c.logger(ctx))
	log := logx.WithProjectAction(ctx, "", id)
	ctx = logx.ContextWithAction(pslog.ContextWithLogger(ctx, log), id)
	result, err := c.Complete(ctx, action.SystemPrompt, action.BuildPrompt(input))
	if err != nil {
		return schema.Completion{}, err
	}
	return result, nil
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return schema.ErrRateLimited
	case http.StatusUnauthorized:
		return schema.ErrInvalidCredential
	case http.StatusPaymentRequired, http.StatusForbidden:
		return schema.ErrAccessDenied
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		envelope.Error.Message = ""
	}
	return &schema.ServiceError{Status: resp.StatusCode, Message: strings.TrimSpace(envelope.Error.Message)}
}

// logger prefers the context logger so caller fields survive, falling back
// to the client logger.
func (c *Client) logger(ctx context.Context) pslog.Logger {
	if log := pslog.Ctx(ctx); log != pslog.NoopLogger() {
		return log
	}
	if c.log != nil {
		return c.log
	}
	return pslog.NoopLogger()
}

// IsUserError reports whether err stems from caller input rather than the service.
func IsUserError(err error) bool {
	return errors.Is(err, schema.ErrMissingCredential) ||
		errors.Is(err, schema.ErrUnknownAction) ||
		errors.Is(err, schema.ErrEmptyInput)
}
