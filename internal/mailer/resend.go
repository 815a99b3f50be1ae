package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultResendURL is the Resend send-email endpoint.
const DefaultResendURL = "https://api.resend.com/emails"

// ResendTransport sends through the Resend HTTP API.
type ResendTransport struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewResendTransport(apiKey string) *ResendTransport {
	return &ResendTransport{
		apiKey:     apiKey,
		endpoint:   DefaultResendURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// WithEndpoint points the transport at another URL, e.g. a test server.
func (t *ResendTransport) WithEndpoint(u string) *ResendTransport {
	t.endpoint = u
	return t
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

func (t *ResendTransport) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(resendRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("marshal resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("resend returned HTTP %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
