// Package api is the client for the livestream commerce analytics backend.
// It covers the plain REST surface (videos, analytics, upload, status
// fetch) and the three streaming call sites — chat tokens, processing
// status, live events — each configured as data over the generic stream
// engine.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/livelens/lens"
	"github.com/livelens/lens/stream"
)

// Per-call-site streaming policy. The values are deliberate: chat is
// request/response-shaped and never reconnects; status streams are short
// and fall back to polling; live sessions run for hours and tolerate the
// most blips.
var (
	chatRetryPolicy   = stream.RetryPolicy{}
	statusRetryPolicy = stream.RetryPolicy{MaxAttempts: 3, Delay: 5 * time.Second}
	liveRetryPolicy   = stream.RetryPolicy{MaxAttempts: 5, Delay: 3 * time.Second}
)

const (
	statusStaleAfter   = 120 * time.Second
	statusPollInterval = 5 * time.Second
)

// Interface compliance check.
var _ lens.ChatStreamer = (*Client)(nil)

// Client talks to the analytics backend. The zero value is not usable;
// construct with New.
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	logger       *slog.Logger
	normalize    func(string) string
	pollInterval time.Duration
	statusRetry  stream.RetryPolicy
	liveRetry    stream.RetryPolicy
	staleReconn  bool
}

// Option configures a [Client].
type Option func(*Client)

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient sets a custom HTTP client. Streaming requests are
// long-lived, so the client must not carry a total timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger for stream diagnostics (reconnects,
// staleness, skipped payloads).
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTokenNormalizer replaces the chat token post-processor. Pass the
// identity function to disable normalization; it is a cosmetic pass, not a
// correctness requirement.
func WithTokenNormalizer(f func(string) string) Option {
	return func(c *Client) { c.normalize = f }
}

// WithReconnectOnStale promotes status-stream staleness from a logged
// observation to a forced reconnect.
func WithReconnectOnStale() Option {
	return func(c *Client) { c.staleReconn = true }
}

// WithStatusRetry overrides the processing-status stream's reconnect policy.
func WithStatusRetry(p stream.RetryPolicy) Option {
	return func(c *Client) { c.statusRetry = p }
}

// WithLiveRetry overrides the live-event stream's reconnect policy.
func WithLiveRetry(p stream.RetryPolicy) Option {
	return func(c *Client) { c.liveRetry = p }
}

// New creates a backend client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		httpClient:   http.DefaultClient,
		logger:       slog.New(slog.DiscardHandler),
		normalize:    NormalizeToken,
		pollInterval: statusPollInterval,
		statusRetry:  statusRetryPolicy,
		liveRetry:    liveRetryPolicy,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListVideos returns all analyzed and in-flight videos.
func (c *Client) ListVideos(ctx context.Context) ([]lens.Video, error) {
	var videos []lens.Video
	if err := c.get(ctx, "/api/videos", &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// GetVideo returns one video by ID.
func (c *Client) GetVideo(ctx context.Context, id string) (lens.Video, error) {
	var v lens.Video
	err := c.get(ctx, "/api/videos/"+url.PathEscape(id), &v)
	return v, err
}

// GetAnalytics returns the full analytics report for a processed video.
func (c *Client) GetAnalytics(ctx context.Context, id string) (lens.VideoAnalytics, error) {
	var a lens.VideoAnalytics
	err := c.get(ctx, "/api/videos/"+url.PathEscape(id)+"/analytics", &a)
	return a, err
}

// ProcessingStatus fetches the current processing status once. The
// processing-status watcher uses it as its polling fallback.
func (c *Client) ProcessingStatus(ctx context.Context, id string) (lens.ProcessingStatus, error) {
	var s lens.ProcessingStatus
	err := c.get(ctx, "/api/videos/"+url.PathEscape(id)+"/status", &s)
	return s, err
}

// UploadVideo uploads a local video file for analysis and returns the
// created record. The file is streamed, not buffered.
func (c *Client) UploadVideo(ctx context.Context, path, title string) (lens.Video, error) {
	f, err := os.Open(path)
	if err != nil {
		return lens.Video{}, fmt.Errorf("api: open video: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		if title != "" {
			if err := mw.WriteField("title", title); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/videos", pr)
	if err != nil {
		return lens.Video{}, fmt.Errorf("api: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return lens.Video{}, fmt.Errorf("api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return lens.Video{}, parseHTTPError(resp)
	}

	var v lens.Video
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return lens.Video{}, fmt.Errorf("api: decode response: %w", err)
	}
	return v, nil
}

// get issues an authenticated GET and decodes a JSON response into out.
// There is no synthetic fallback for 404/501: a missing resource is an
// error the caller sees.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseHTTPError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

type apiErrorResponse struct {
	Error string `json:"error"`
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error == "" {
		return fmt.Errorf("api: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("api: HTTP %d: %s", resp.StatusCode, apiErr.Error)
}
