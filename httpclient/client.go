// Package httpclient is the outbound companion to the server side: a small
// JSON-first HTTP client with query params, retries, and interceptor chains
// on both the request and the response.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = 500 * time.Millisecond
)

// RequestInterceptor inspects or mutates the outgoing request. Returning an
// error aborts the call before anything is sent.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor runs after a response arrives, before it is decoded.
type ResponseInterceptor func(res *http.Response) error

// Options shape a single call. The zero value sends a bare request.
type Options struct {
	// Data is JSON-encoded as the request body.
	Data any
	// Params are merged into the URL query string.
	Params  map[string]string
	Headers map[string]string
	// Content is a raw body; ignored when Data is set.
	Content string
	Timeout time.Duration
	// FollowRedirects defaults to true; set the pointer to disable.
	FollowRedirects *bool
	// MaxRetries re-issues the request on transport errors and 5xx answers,
	// doubling RetryDelay between attempts.
	MaxRetries int
	RetryDelay time.Duration
}

// Response is the decoded outcome of a call.
type Response struct {
	StatusCode int
	Headers    http.Header
	// Content is the raw body.
	Content []byte
	// Data is the body decoded as JSON, or nil when it isn't JSON.
	Data any
}

// StatusError is returned for non-2xx answers after retries are exhausted.
// The Response is still populated so callers can inspect the body.
type StatusError struct {
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.Response.StatusCode)
}

// Client issues JSON-first requests. The zero value is not usable; construct
// with New.
type Client struct {
	httpClient           *http.Client
	baseURL              string
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// New returns a client. baseURL may be empty, in which case every call takes
// an absolute URL.
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// WithHTTPClient swaps the underlying transport client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// OnRequest appends a request interceptor. Interceptors run in registration
// order on every call.
func (c *Client) OnRequest(ic RequestInterceptor) { c.requestInterceptors = append(c.requestInterceptors, ic) }

// OnResponse appends a response interceptor.
func (c *Client) OnResponse(ic ResponseInterceptor) { c.responseInterceptors = append(c.responseInterceptors, ic) }

func (c *Client) Get(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Call(ctx, http.MethodGet, url, opts)
}

func (c *Client) Post(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Call(ctx, http.MethodPost, url, opts)
}

func (c *Client) Put(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Call(ctx, http.MethodPut, url, opts)
}

func (c *Client) Patch(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Call(ctx, http.MethodPatch, url, opts)
}

func (c *Client) Del(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Call(ctx, http.MethodDelete, url, opts)
}

// Call issues one request, retrying per opts. A non-2xx final answer returns
// both the Response and a *StatusError.
func (c *Client) Call(ctx context.Context, method, rawURL string, opts *Options) (*Response, error) {
	if opts == nil {
		opts = &Options{}
	}

	target, body, contentType, err := c.buildRequest(rawURL, opts)
	if err != nil {
		return nil, err
	}

	client := c.httpClient
	if opts.Timeout > 0 || (opts.FollowRedirects != nil && !*opts.FollowRedirects) {
		clone := *client
		if opts.Timeout > 0 {
			clone.Timeout = opts.Timeout
		}
		if opts.FollowRedirects != nil && !*opts.FollowRedirects {
			clone.CheckRedirect = func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}
		}
		client = &clone
	}

	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var (
		lastRes *Response
		lastErr error
	)
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		res, retry, err := c.attempt(ctx, client, method, target, body, contentType, opts)
		if err == nil {
			return res, nil
		}
		lastRes, lastErr = res, err
		if !retry {
			break
		}
	}
	return lastRes, lastErr
}

func (c *Client) buildRequest(rawURL string, opts *Options) (target string, body []byte, contentType string, err error) {
	target = rawURL
	if !strings.Contains(rawURL, "://") {
		target = c.baseURL + "/" + strings.TrimLeft(rawURL, "/")
	}

	if len(opts.Params) > 0 {
		parsed, perr := url.Parse(target)
		if perr != nil {
			return "", nil, "", fmt.Errorf("invalid url %q: %w", target, perr)
		}
		query := parsed.Query()
		for k, v := range opts.Params {
			query.Set(k, v)
		}
		parsed.RawQuery = query.Encode()
		target = parsed.String()
	}

	switch {
	case opts.Data != nil:
		body, err = json.Marshal(opts.Data)
		if err != nil {
			return "", nil, "", fmt.Errorf("encode request body: %w", err)
		}
		contentType = "application/json"
	case opts.Content != "":
		body = []byte(opts.Content)
	}
	return target, body, contentType, nil
}

// attempt runs one try. retry reports whether the failure is worth another
// attempt: transport errors and 5xx are, everything else is final.
func (c *Client) attempt(ctx context.Context, client *http.Client, method, target string, body []byte, contentType string, opts *Options) (*Response, bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, false, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	for _, ic := range c.requestInterceptors {
		if err := ic(req); err != nil {
			return nil, false, fmt.Errorf("request interceptor: %w", err)
		}
	}

	httpRes, err := client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer httpRes.Body.Close()

	for _, ic := range c.responseInterceptors {
		if err := ic(httpRes); err != nil {
			return nil, false, fmt.Errorf("response interceptor: %w", err)
		}
	}

	raw, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response body: %w", err)
	}

	res := &Response{
		StatusCode: httpRes.StatusCode,
		Headers:    httpRes.Header,
		Content:    raw,
	}
	if len(raw) > 0 && strings.Contains(httpRes.Header.Get("Content-Type"), "json") {
		var data any
		if err := json.Unmarshal(raw, &data); err == nil {
			res.Data = data
		}
	}

	if httpRes.StatusCode >= 500 {
		return res, true, &StatusError{Response: res}
	}
	if httpRes.StatusCode >= 400 {
		return res, false, &StatusError{Response: res}
	}
	return res, false, nil
}
