// Package mailer delivers composed HTML emails through a transactional
// email provider.
package mailer

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"
)

// Message is one outbound email.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Transport sends a message or returns why it could not.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// LogTransport writes messages to the log instead of sending them.
// Useful for local development.
type LogTransport struct {
	Logger *slog.Logger
}

func (t LogTransport) Send(_ context.Context, msg Message) error {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email not sent (log transport)",
		"from", msg.From,
		"to", msg.To,
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
		"html_bytes", len(msg.HTML),
	)
	return nil
}

// Throttle caps the rate at which the wrapped transport is called. Send
// waits for a token and gives up when ctx is done.
type Throttle struct {
	next    Transport
	limiter *rate.Limiter
}

func NewThrottle(next Transport, perSecond float64, burst int) *Throttle {
	return &Throttle{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (t *Throttle) Send(ctx context.Context, msg Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.next.Send(ctx, msg)
}
