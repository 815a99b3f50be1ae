// Package submission runs a form submission through rate limiting,
// verification, validation, attachment upload and notification, stopping at
// the first failure.
package submission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/adrayandaleandrew/baring-construction/internal/fingerprint"
	"github.com/adrayandaleandrew/baring-construction/internal/models"
	"github.com/adrayandaleandrew/baring-construction/internal/notify"
	"github.com/adrayandaleandrew/baring-construction/internal/ratelimit"
	"github.com/adrayandaleandrew/baring-construction/internal/recaptcha"
	"github.com/adrayandaleandrew/baring-construction/internal/storage"
	"github.com/adrayandaleandrew/baring-construction/internal/validation"
)

// Notifier sends the two emails of an accepted submission.
type Notifier interface {
	NotifyOperator(ctx context.Context, n notify.OperatorNotice) error
	NotifyAcknowledgment(ctx context.Context, to, name string) error
}

// Deps are the capabilities shared by every pipeline. Verifier and Store
// may be no-op implementations; the pipeline calls them regardless.
type Deps struct {
	Limiter  ratelimit.Limiter
	Verifier recaptcha.Verifier
	Store    storage.Store
	Notifier Notifier
	Logger   *slog.Logger
}

// Form is the decoded body of a submission.
type Form struct {
	Token       string
	Fields      map[string]string
	Attachments []models.Attachment
}

// Request is one incoming submission before any checks. Decode is called
// only once the client has passed the rate limit.
type Request struct {
	ClientID string
	Decode   func() (Form, error)
}

// FormRequest wraps an already decoded form.
func FormRequest(clientID string, form Form) Request {
	return Request{
		ClientID: clientID,
		Decode:   func() (Form, error) { return form, nil },
	}
}

// Result describes an accepted submission.
type Result struct {
	ID          string
	Fingerprint string
	Message     string
}

type Pipeline[T models.Submission] struct {
	kind Kind[T]
	deps Deps
}

func New[T models.Submission](kind Kind[T], deps Deps) *Pipeline[T] {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline[T]{kind: kind, deps: deps}
}

// Submit processes req in order: rate limit, body decoding, verification,
// field validation, attachments, upload, operator email, acknowledgment.
// Errors are one of ErrRateLimited, ErrAbuseRejected,
// *ClientInputError or *DependencyFailure.
func (p *Pipeline[T]) Submit(ctx context.Context, req Request) (Result, error) {
	log := p.deps.Logger.With("kind", p.kind.Name, "client", req.ClientID)

	// A broken shared ledger must not take the forms down.
	limited, err := p.deps.Limiter.Check(ctx, req.ClientID)
	if err != nil {
		log.Warn("rate limit check failed, admitting", "error", err)
	}
	if limited {
		return Result{}, ErrRateLimited
	}

	form, err := req.Decode()
	if err != nil {
		return Result{}, &ClientInputError{Err: fmt.Errorf("%w: %v", ErrMalformedBody, err)}
	}

	// Clients that could not load the widget send no token.
	if form.Token != "" {
		outcome, err := p.deps.Verifier.Verify(ctx, form.Token, p.kind.Name)
		if err != nil {
			log.Warn("recaptcha verification error", "error", err)
			return Result{}, ErrAbuseRejected
		}
		if !outcome.Valid {
			log.Info("recaptcha rejected submission", "score", outcome.Score)
			return Result{}, ErrAbuseRejected
		}
	}

	sub, fieldErrs := p.kind.Validate(form.Fields)
	if len(fieldErrs) > 0 {
		return Result{}, &ClientInputError{Fields: fieldErrs}
	}

	var files []notify.File
	if p.kind.AcceptsFiles {
		accepted, err := validation.Attachments(form.Attachments)
		if err != nil {
			return Result{}, &ClientInputError{Err: err}
		}
		files, err = p.upload(ctx, accepted)
		if err != nil {
			return Result{}, &DependencyFailure{Step: "upload", Err: err}
		}
	}

	id := uuid.NewString()
	fp, err := fingerprint.Of(sub)
	if err != nil {
		log.Warn("fingerprint failed", "id", id, "error", err)
	}

	notice, err := p.kind.Notice(sub, files)
	if err != nil {
		return Result{}, &DependencyFailure{Step: "compose", Err: err}
	}
	notice.Reference = fp

	if err := p.deps.Notifier.NotifyOperator(ctx, notice); err != nil {
		return Result{}, &DependencyFailure{Step: "notify operator", Err: err}
	}
	who := sub.Submitter()
	if err := p.deps.Notifier.NotifyAcknowledgment(ctx, who.Email, who.Name); err != nil {
		return Result{}, &DependencyFailure{Step: "acknowledge", Err: err}
	}

	log.Info("submission accepted", "id", id, "fingerprint", fp, "files", len(files))
	return Result{ID: id, Fingerprint: fp, Message: p.kind.SuccessMessage}, nil
}

func (p *Pipeline[T]) upload(ctx context.Context, attachments []models.Attachment) ([]notify.File, error) {
	files := make([]notify.File, 0, len(attachments))
	for _, a := range attachments {
		u, err := p.put(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Filename, err)
		}
		files = append(files, notify.File{Name: a.Filename, URL: u})
	}
	return files, nil
}

func (p *Pipeline[T]) put(ctx context.Context, a models.Attachment) (string, error) {
	rc, err := a.Open()
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer rc.Close()
	return p.deps.Store.Put(ctx, a.Filename, a.ContentType, rc)
}
