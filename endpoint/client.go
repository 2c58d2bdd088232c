package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/MrEthical07/goAuthMonitor/jwt"
)

const maxBodyBytes = 1 << 20

var (
	// ErrNetwork is returned when a request cannot be sent or its body cannot be read
	// as JSON.
	ErrNetwork = errors.New("token endpoint unreachable")
	// ErrEndpoint is returned when an endpoint answers with a non-success status.
	ErrEndpoint = errors.New("token endpoint rejected request")
	// ErrMalformedResponse is returned when a success response lacks a required field.
	ErrMalformedResponse = errors.New("token endpoint response incomplete")
)

// StatusError carries the HTTP status of a rejected request.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d", ErrEndpoint, e.URL, e.Code)
}

// Unwrap makes StatusError match [ErrEndpoint].
func (e *StatusError) Unwrap() error {
	return ErrEndpoint
}

// CheckResponse is the body returned by the token-check endpoint.
type CheckResponse struct {
	Exp        int64
	RedirectTo string
}

// RenewResponse is the body returned by the token-renewal endpoint. Exp is zero when
// the endpoint does not report the new expiry.
type RenewResponse struct {
	AccessToken string
	Exp         int64
}

// Config points a [Client] at its endpoints.
type Config struct {
	CheckURL string
	RenewURL string
	Headers  map[string]string
	Timeout  time.Duration
}

// Client performs token-check and token-renewal requests.
type Client struct {
	http   *http.Client
	config Config
}

// New returns a [Client]. A nil httpClient uses [http.DefaultClient].
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	cfg.Headers = headers
	return &Client{http: httpClient, config: cfg}
}

// Check asks the check endpoint for the status of token. An empty token sends the
// request without an Authorization header, leaving cookie-based auth to the transport.
func (c *Client) Check(ctx context.Context, token string) (*CheckResponse, error) {
	var body struct {
		Exp        json.Number `json:"exp"`
		RedirectTo string      `json:"redirect_to"`
	}
	if err := c.get(ctx, c.config.CheckURL, token, &body); err != nil {
		return nil, err
	}

	if body.Exp == "" {
		return nil, fmt.Errorf("%w: exp missing", ErrMalformedResponse)
	}
	exp, err := parseEpoch(body.Exp)
	if err != nil {
		return nil, fmt.Errorf("%w: exp: %v", ErrMalformedResponse, err)
	}
	return &CheckResponse{Exp: exp, RedirectTo: body.RedirectTo}, nil
}

// Renew exchanges token for a replacement.
func (c *Client) Renew(ctx context.Context, token string) (*RenewResponse, error) {
	var body struct {
		AccessToken string      `json:"access_token"`
		Exp         json.Number `json:"exp"`
	}
	if err := c.get(ctx, c.config.RenewURL, token, &body); err != nil {
		return nil, err
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("%w: access_token missing", ErrMalformedResponse)
	}

	exp, err := parseEpoch(body.Exp)
	if err != nil {
		exp = 0
	}
	return &RenewResponse{AccessToken: body.AccessToken, Exp: exp}, nil
}

func (c *Client) get(ctx context.Context, url, token string, out any) error {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	if token != "" {
		req.Header.Set("Authorization", jwt.WithScheme(token))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{URL: url, Code: resp.StatusCode}
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrNetwork, err)
	}
	return nil
}

func parseEpoch(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
