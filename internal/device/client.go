package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smartfarmer_console/internal/models"
)

// Device endpoints and wire constants.
const (
	dataPath = "/api/data"
	pumpPath = "/api/pump"

	formContentType = "application/x-www-form-urlencoded"
	requestIDHeader = "X-Request-ID"

	// maxBodyBytes bounds what a misbehaving device can make us buffer.
	maxBodyBytes = 1 << 16
)

var (
	// ErrBadStatus marks a non-2xx reply from the device.
	ErrBadStatus = errors.New("unexpected device status")
	// ErrMalformed marks a reply that does not decode into the expected fields.
	ErrMalformed = errors.New("malformed device response")
)

// Client talks to the device's two HTTP endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL (e.g. "http://192.168.4.1").
// A zero timeout leaves requests unbounded.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// wireSnapshot uses pointers so a missing field is told apart from a zero value.
type wireSnapshot struct {
	MoisturePct    *float64 `json:"moisture_pct"`
	AIWiltingProb  *float64 `json:"ai_wilting_prob"`
	SecondsToSleep *int     `json:"seconds_to_sleep"`
	PumpActive     *bool    `json:"pump_active"`
}

type wirePump struct {
	PumpActive *bool `json:"pump_active"`
}

// FetchTelemetry reads GET /api/data.
func (c *Client) FetchTelemetry(ctx context.Context, requestID string) (models.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+dataPath, nil)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("build telemetry request: %w", err)
	}
	var w wireSnapshot
	if err := c.do(req, requestID, &w); err != nil {
		return models.Snapshot{}, fmt.Errorf("fetch telemetry: %w", err)
	}
	if w.MoisturePct == nil || w.AIWiltingProb == nil || w.SecondsToSleep == nil || w.PumpActive == nil {
		return models.Snapshot{}, fmt.Errorf("fetch telemetry: %w: missing field", ErrMalformed)
	}
	return models.Snapshot{
		MoisturePct:    *w.MoisturePct,
		AIWiltingProb:  *w.AIWiltingProb,
		SecondsToSleep: *w.SecondsToSleep,
		PumpActive:     *w.PumpActive,
	}, nil
}

// SetPump posts state=1 (on) or state=0 (off) and returns the device's resulting pump state,
// which may differ from what was asked for.
func (c *Client) SetPump(ctx context.Context, requestID string, on bool) (bool, error) {
	form := url.Values{}
	form.Set("state", stateValue(on))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pumpPath, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build pump request: %w", err)
	}
	req.Header.Set("Content-Type", formContentType)

	var w wirePump
	if err := c.do(req, requestID, &w); err != nil {
		return false, fmt.Errorf("set pump: %w", err)
	}
	if w.PumpActive == nil {
		return false, fmt.Errorf("set pump: %w: missing pump_active", ErrMalformed)
	}
	return *w.PumpActive, nil
}

func stateValue(on bool) string {
	if on {
		return "1"
	}
	return "0"
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, requestID string, out any) error {
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set(requestIDHeader, requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
