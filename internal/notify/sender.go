// Package notify sends transactional and broadcast email through a
// configurable backend.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender is the interface any mail backend must implement. Keeping it
// minimal means backends are trivially swappable without changing the
// fan-out logic.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// APISender delivers mail through a REST mail provider using stdlib
// net/http only, no SDK dependency. Any provider that accepts a JSON
// {from, to, subject, text} POST with bearer auth works.
type APISender struct {
	apiURL     string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewAPISender creates an APISender ready to use.
func NewAPISender(apiURL, apiKey, from string) *APISender {
	return &APISender{
		apiURL:     apiURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type mailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type mailResponse struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Send dispatches msg to the mail API. It returns a non-nil error if
// the HTTP request fails or the provider returns a non-2xx status; the
// caller decides whether the failure matters.
func (s *APISender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(mailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail api returned %d: %s", resp.StatusCode, string(respBody))
	}

	var mailResp mailResponse
	if err := json.Unmarshal(respBody, &mailResp); err == nil && len(mailResp.Errors) > 0 {
		return fmt.Errorf("mail api error %s: %s", mailResp.Errors[0].Code, mailResp.Errors[0].Detail)
	}
	return nil
}
