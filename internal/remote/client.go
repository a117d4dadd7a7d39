package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pageguard/pageguard/internal/model"
)

// Default client behavior. The analysis pipeline falls back to local
// heuristics on persistent failure, so retries stay small and fast.
const (
	// DefaultTimeout is the per-request timeout. The service is expected
	// to run locally; anything slower than this is treated as down.
	DefaultTimeout = 10 * time.Second

	// DefaultRetryCount is the number of retries before giving up.
	DefaultRetryCount = 1

	// DefaultRetryWait is the wait between retries.
	DefaultRetryWait = 200 * time.Millisecond
)

// ErrUnexpectedStatus is returned when the service responds with a
// non-2xx status. Callers treat it like any transport failure and fall
// back to local heuristics; it exists so tests and logs can distinguish
// the two.
var ErrUnexpectedStatus = errors.New("unexpected response status from moderation service")

// Client talks to the remote moderation service over HTTP.
//
// The wire contract has two endpoints:
//
//	POST /analyze  {text}           -> {isHarmful, category, confidence, explanation, text}
//	POST /rephrase {text, category} -> {original, rephrased}
//
// Both degrade to the local heuristics at the call site on any failure;
// this client never retries beyond its small bounded budget.
type Client struct {
	// resty is the underlying HTTP client.
	resty *resty.Client

	// logger is used for request-level debug logging.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.resty.SetTimeout(d)
		}
	}
}

// WithRetry sets the retry count and wait between retries.
func WithRetry(count int, wait time.Duration) Option {
	return func(c *Client) {
		if count >= 0 {
			c.resty.SetRetryCount(count)
		}
		if wait > 0 {
			c.resty.SetRetryWaitTime(wait)
		}
	}
}

// WithLogger sets a custom logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(DefaultTimeout).
		SetRetryCount(DefaultRetryCount).
		SetRetryWaitTime(DefaultRetryWait).
		SetHeader("Content-Type", "application/json").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})

	c := &Client{
		resty:  r,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// analyzeRequest is the /analyze request body.
type analyzeRequest struct {
	Text string `json:"text"`
}

// analyzeResponse is the /analyze response body.
type analyzeResponse struct {
	IsHarmful   bool    `json:"isHarmful"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
	Text        string  `json:"text"`
}

// rephraseRequest is the /rephrase request body.
type rephraseRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// rephraseResponse is the /rephrase response body.
type rephraseResponse struct {
	Original  string `json:"original"`
	Rephrased string `json:"rephrased"`
}

// Analyze classifies text through the remote service.
func (c *Client) Analyze(ctx context.Context, text string) (model.Verdict, error) {
	var body analyzeResponse
	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(analyzeRequest{Text: text}).
		SetResult(&body).
		Post("/analyze")
	if err != nil {
		return model.Verdict{}, fmt.Errorf("analyze request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return model.Verdict{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}

	c.logger.Debug("remote analyze completed",
		"category", body.Category,
		"confidence", body.Confidence,
		"length", len(text),
	)

	return model.Verdict{
		Category:     model.ParseCategory(body.Category),
		Confidence:   body.Confidence,
		Explanation:  body.Explanation,
		OriginalText: text,
		Source:       model.SourceRemote,
		AnalyzedAt:   time.Now(),
	}, nil
}

// Rephrase requests a rewrite of flagged text from the remote service.
func (c *Client) Rephrase(ctx context.Context, text string, category model.Category) (model.RephraseResult, error) {
	var body rephraseResponse
	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(rephraseRequest{Text: text, Category: category.String()}).
		SetResult(&body).
		Post("/rephrase")
	if err != nil {
		return model.RephraseResult{}, fmt.Errorf("rephrase request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return model.RephraseResult{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}

	c.logger.Debug("remote rephrase completed",
		"category", category.String(),
		"length", len(text),
	)

	return model.RephraseResult{
		Original:  body.Original,
		Rephrased: body.Rephrased,
		Source:    model.SourceRemote,
	}, nil
}
