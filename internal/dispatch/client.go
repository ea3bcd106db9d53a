// Package dispatch implements the HTTP client for the external generation
// worker. Dispatch is fire-and-forget beyond the accept acknowledgement: the
// worker reports the terminal result later through the callback endpoint.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"briefdesk/internal/config"
)

const tokenHeader = "X-Plugin-Token"

// Request is the JSON body sent to the worker's trigger endpoint.
type Request struct {
	BriefID         int64  `json:"brief_id"`
	Prompt          string `json:"prompt"`
	TargetWordCount int    `json:"target_word_count"`
	Keyword         string `json:"keyword"`
	CallbackURL     string `json:"callback_url"`
}

// Ack is the worker's acceptance response. A dispatch only counts as accepted
// on HTTP 202 with status "queued" and a task id.
type Ack struct {
	Status  string `json:"status"`
	TaskID  string `json:"task_id"`
	Message string `json:"message,omitempty"`
}

// Error is a typed dispatch failure carrying whatever the worker said.
type Error struct {
	StatusCode int    // 0 for transport errors
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return "dispatch failed: " + e.Message
	}
	return fmt.Sprintf("dispatch rejected (HTTP %d): %s", e.StatusCode, e.Message)
}

// Dispatcher accepts generation requests and answers reachability probes.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (*Ack, error)
	Ping(ctx context.Context) error
}

// Client talks to the worker over HTTP with a short timeout.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient builds a dispatcher client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.DispatcherURL, "/"),
		token:   cfg.PluginToken,
		client:  &http.Client{Timeout: timeout},
	}
}

// Dispatch posts a generation request and parses the acceptance response.
func (c *Client) Dispatch(ctx context.Context, req Request) (*Ack, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/trigger-generation", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(tokenHeader, c.token)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "unreadable response body"}
	}

	var ack Ack
	if err := json.Unmarshal(raw, &ack); err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "invalid response body"}
	}

	if resp.StatusCode != http.StatusAccepted || ack.Status != "queued" || ack.TaskID == "" {
		msg := ack.Message
		if msg == "" {
			msg = "worker did not queue the task"
		}
		return nil, &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	return &ack, nil
}

// Ping probes the worker's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("worker health check returned HTTP %d", resp.StatusCode)
	}
	return nil
}
