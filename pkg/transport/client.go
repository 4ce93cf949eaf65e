package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/chat-widget/pkg/widget"
)

const (
	// ChatPath is appended to the configured base URL.
	ChatPath = "chat"

	DefaultTimeout = 60 * time.Second

	maxResponseBytes = 4 << 20
)

// ChatRequest is the JSON body posted to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the part of the endpoint's answer the widget consumes.
// Other fields the backend sends along are ignored.
type ChatResponse struct {
	Response *string `json:"response"`
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout is left
// untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// Client talks to the assistant endpoint. Each Send performs exactly one
// HTTP round trip and never retries.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	headers    http.Header
}

var _ widget.Sender = (*Client)(nil)

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	endpoint, err := EndpointURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		userAgent:  "chat-widget",
		headers:    http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// EndpointURL validates baseURL and joins the chat path onto it.
func EndpointURL(baseURL string) (string, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return "", errors.New("base URL is empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parse base URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.Errorf("base URL must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.Errorf("base URL %q has no host", baseURL)
	}
	return u.JoinPath(ChatPath).String(), nil
}

func (c *Client) Endpoint() string { return c.endpoint }

// Send posts text to the endpoint and returns the response text. Every
// failure is reported as a *Error. A well-formed answer without a usable
// response field is not a failure: it yields widget.NoAnswerContent.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(ChatRequest{Message: text})
	if err != nil {
		return "", newError(CategoryRequest, errors.Wrap(err, "encode chat request"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", newError(CategoryRequest, errors.Wrap(err, "build chat request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		category := CategoryNetwork
		if isTimeout(ctx, err) {
			category = CategoryTimeout
		}
		log.Debug().Str("component", "transport").Str("category", string(category)).
			Err(err).Msg("chat request failed")
		return "", newError(category, errors.Wrap(err, "post chat request"))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
	}()

	log.Debug().Str("component", "transport").Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("chat response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := newError(CategoryStatus, errors.Errorf("unexpected status %s", resp.Status))
		e.StatusCode = resp.StatusCode
		return "", e
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		category := CategoryNetwork
		if isTimeout(ctx, err) {
			category = CategoryTimeout
		}
		return "", newError(category, errors.Wrap(err, "read chat response"))
	}
	if len(data) > maxResponseBytes {
		return "", newError(CategoryDecode, errors.New("chat response too large"))
	}

	return decodeResponse(data)
}

func decodeResponse(data []byte) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", newError(CategoryDecode, errors.New("chat response is not a JSON object"))
	}
	var out ChatResponse
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return "", newError(CategoryDecode, errors.Wrap(err, "decode chat response"))
	}
	if out.Response == nil || strings.TrimSpace(*out.Response) == "" {
		log.Debug().Str("component", "transport").Msg("chat response has no answer, using fallback")
		return widget.NoAnswerContent, nil
	}
	return *out.Response, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
