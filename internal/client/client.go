package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"StockCast/internal/domain/models"
	xhttp "StockCast/pkg/http"

	"github.com/gorilla/websocket"
)

// ErrBusy is returned when Run is called while a request is loading.
var ErrBusy = errors.New("request already in progress")

// APIError is a failure body returned by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the outbound client.
func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithStream makes Run use the websocket endpoint instead of POST.
func WithStream(enabled bool) Option {
	return func(c *Client) { c.stream = enabled }
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithStateHook is called on every state transition.
func WithStateHook(fn func(RequestState)) Option {
	return func(c *Client) { c.onState = fn }
}

// Client talks to the prediction API and tracks the state of the last request.
type Client struct {
	baseURL string
	http    *xhttp.Client
	dialer  *websocket.Dialer
	stream  bool
	onState func(RequestState)

	mu     sync.Mutex
	state  RequestState
	result *models.PredictResponse
	err    error
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		dialer:  websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient()
	}
	return c
}

func (c *Client) State() RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the last successful response, nil otherwise.
func (c *Client) Result() *models.PredictResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Err returns the failure of the last request.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Run checks the form, then moves Idle/Success/Failed -> Loading -> Success or Failed.
// A form that fails the check leaves the state untouched.
func (c *Client) Run(ctx context.Context, f Form) (*models.PredictResponse, error) {
	if err := f.Check(); err != nil {
		return nil, err
	}
	if !c.begin() {
		return nil, ErrBusy
	}

	req := f.request()
	var (
		resp *models.PredictResponse
		err  error
	)
	if c.stream {
		resp, err = c.predictStream(ctx, req)
	} else {
		resp, err = c.predict(ctx, req)
	}
	c.finish(resp, err)
	return resp, err
}

// History fetches the historical-only view. It does not touch the request state.
func (c *Client) History(ctx context.Context, ticker, start, end string) (*models.PredictResponse, error) {
	var resp models.PredictResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/history",
		QueryParams: map[string][]string{
			"ticker":    {ticker},
			"startDate": {start},
			"endDate":   {end},
		},
	}, &resp)
	if err != nil {
		return nil, apiError(err)
	}
	return &resp, nil
}

func (c *Client) begin() bool {
	c.mu.Lock()
	if c.state == StateLoading {
		c.mu.Unlock()
		return false
	}
	c.state = StateLoading
	c.result = nil
	c.err = nil
	hook := c.onState
	c.mu.Unlock()
	if hook != nil {
		hook(StateLoading)
	}
	return true
}

func (c *Client) finish(resp *models.PredictResponse, err error) {
	c.mu.Lock()
	if err != nil {
		c.state = StateFailed
		c.err = err
	} else {
		c.state = StateSuccess
		c.result = resp
	}
	state := c.state
	hook := c.onState
	c.mu.Unlock()
	if hook != nil {
		hook(state)
	}
}

func (c *Client) predict(ctx context.Context, req models.PredictRequest) (*models.PredictResponse, error) {
	var resp models.PredictResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.baseURL + "/api/predict",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    req,
	}, &resp)
	if err != nil {
		return nil, apiError(err)
	}
	return &resp, nil
}

func (c *Client) predictStream(ctx context.Context, req models.PredictRequest) (*models.PredictResponse, error) {
	wsURL, err := streamURL(c.baseURL)
	if err != nil {
		return nil, err
	}
	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	// Unblock ReadJSON when ctx ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	for {
		var ev models.StreamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read event: %w", err)
		}
		switch ev.State {
		case "loading":
			continue
		case "success":
			if ev.Result == nil {
				return nil, errors.New("success event without result")
			}
			return ev.Result, nil
		case "failed":
			if ev.Error == nil {
				return nil, &APIError{Code: xhttp.CodeInternal, Message: "request failed"}
			}
			return nil, &APIError{Code: ev.Error.Code, Message: ev.Error.Error}
		default:
			return nil, fmt.Errorf("unknown stream state %q", ev.State)
		}
	}
}

func streamURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/predict/ws"
	return u.String(), nil
}

func apiError(err error) error {
	var se *xhttp.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var body models.ErrorResponse
	if jerr := json.Unmarshal(se.Body, &body); jerr != nil || body.Error == "" {
		return &APIError{Status: se.StatusCode, Code: xhttp.CodeInternal, Message: strings.TrimSpace(string(se.Body))}
	}
	return &APIError{Status: se.StatusCode, Code: body.Code, Message: body.Error}
}
