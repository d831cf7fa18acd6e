// Package sheets records interactions by posting them to a spreadsheet
// webhook (a Google Apps Script web app that appends one row per call).
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds each webhook call.
const DefaultTimeout = 30 * time.Second

// FailureReason classifies why an interaction was not recorded.
type FailureReason string

const (
	ReasonNone          FailureReason = ""
	ReasonNotConfigured FailureReason = "not_configured"
	ReasonTransport     FailureReason = "transport"
	ReasonStatus        FailureReason = "status"
	ReasonMalformed     FailureReason = "malformed"
	ReasonRejected      FailureReason = "rejected"
)

// ErrNotConfigured is reported when no webhook URL is set.
var ErrNotConfigured = errors.New("spreadsheet webhook URL is not configured")

// Interaction is one row sent to the sheet. Contact fields are omitted when
// empty.
type Interaction struct {
	Timestamp    string `json:"timestamp"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// Result is the outcome of one Log call.
type Result struct {
	Reason FailureReason
	Err    error
}

// OK reports whether the webhook confirmed the row.
func (r Result) OK() bool {
	return r.Reason == ReasonNone
}

type webhookReply struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Client posts interactions to the webhook.
type Client struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a client for the webhook at url. A zero timeout uses
// DefaultTimeout.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// Log sends one interaction. It never returns an error; every failure mode is
// folded into the Result. A Timestamp left empty is filled with the current
// local time in ISO-8601.
func (c *Client) Log(ctx context.Context, in Interaction) Result {
	if c.url == "" {
		return Result{Reason: ReasonNotConfigured, Err: ErrNotConfigured}
	}
	if in.Timestamp == "" {
		in.Timestamp = c.now().Format("2006-01-02T15:04:05.000000")
	}

	body, err := json.Marshal(in)
	if err != nil {
		return Result{Reason: ReasonMalformed, Err: fmt.Errorf("marshaling interaction: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{Reason: ReasonTransport, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Reason: ReasonTransport, Err: fmt.Errorf("posting interaction: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Reason: ReasonStatus, Err: fmt.Errorf("webhook returned status %d", resp.StatusCode)}
	}

	var reply webhookReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return Result{Reason: ReasonMalformed, Err: fmt.Errorf("decoding webhook reply: %w", err)}
	}
	if reply.Status != "success" {
		return Result{Reason: ReasonRejected, Err: fmt.Errorf("webhook status %q: %s", reply.Status, reply.Message)}
	}
	return Result{}
}
