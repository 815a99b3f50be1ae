package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2/clientcredentials"
)

// DefaultGraphBaseURL is the Microsoft Graph v1.0 root.
const DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

// GraphConfig holds the app registration used to send as Sender.
type GraphConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// Sender is the mailbox (UPN or id) the mail is sent from.
	Sender string
}

// GraphTransport sends through Microsoft Graph's sendMail. The HTTP client
// must already carry authentication; NewGraphTransport builds one from
// client credentials.
type GraphTransport struct {
	httpClient *http.Client
	baseURL    string
	sender     string
}

// NewGraphTransport returns a transport whose client fetches and refreshes
// app-only tokens automatically.
func NewGraphTransport(ctx context.Context, cfg GraphConfig) *GraphTransport {
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	return NewGraphTransportWithClient(creds.Client(ctx), DefaultGraphBaseURL, cfg.Sender)
}

func NewGraphTransportWithClient(httpClient *http.Client, baseURL, sender string) *GraphTransport {
	return &GraphTransport{
		httpClient: httpClient,
		baseURL:    baseURL,
		sender:     sender,
	}
}

type graphAddress struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
}

type graphMessage struct {
	Subject string `json:"subject"`
	Body    struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	ToRecipients []graphAddress `json:"toRecipients"`
	ReplyTo      []graphAddress `json:"replyTo,omitempty"`
}

type sendMailRequest struct {
	Message         graphMessage `json:"message"`
	SaveToSentItems bool         `json:"saveToSentItems"`
}

func address(a string) graphAddress {
	var out graphAddress
	out.EmailAddress.Address = a
	return out
}

// Send posts to /users/{sender}/sendMail. Graph always sends from the
// sender mailbox, so msg.From is ignored.
func (t *GraphTransport) Send(ctx context.Context, msg Message) error {
	var gm graphMessage
	gm.Subject = msg.Subject
	gm.Body.ContentType = "HTML"
	gm.Body.Content = msg.HTML
	for _, to := range msg.To {
		gm.ToRecipients = append(gm.ToRecipients, address(to))
	}
	if msg.ReplyTo != "" {
		gm.ReplyTo = []graphAddress{address(msg.ReplyTo)}
	}

	body, err := json.Marshal(sendMailRequest{Message: gm})
	if err != nil {
		return fmt.Errorf("marshal sendMail request: %w", err)
	}

	u := fmt.Sprintf("%s/users/%s/sendMail", t.baseURL, url.PathEscape(t.sender))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph sendMail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("graph sendMail returned HTTP %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
