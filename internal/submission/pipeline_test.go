package submission

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/adrayandaleandrew/baring-construction/internal/models"
	"github.com/adrayandaleandrew/baring-construction/internal/notify"
	"github.com/adrayandaleandrew/baring-construction/internal/recaptcha"
	"github.com/adrayandaleandrew/baring-construction/internal/validation"
)

////////////////////////////////////////////////////////////
// Fakes
////////////////////////////////////////////////////////////

type trace []string

type fakeLimiter struct {
	trace   *trace
	limited bool
	err     error
}

func (f *fakeLimiter) Check(context.Context, string) (bool, error) {
	*f.trace = append(*f.trace, "ratelimit")
	return f.limited, f.err
}

type fakeVerifier struct {
	trace   *trace
	outcome recaptcha.Outcome
	err     error
	action  string
}

func (f *fakeVerifier) Verify(_ context.Context, _, action string) (recaptcha.Outcome, error) {
	*f.trace = append(*f.trace, "verify")
	f.action = action
	return f.outcome, f.err
}

type fakeStore struct {
	trace *trace
	url   string
	err   error
	puts  []string
}

func (f *fakeStore) Put(_ context.Context, name, _ string, r io.Reader) (string, error) {
	*f.trace = append(*f.trace, "upload")
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.puts = append(f.puts, name)
	if f.url == "" {
		return "", nil
	}
	return f.url + name, nil
}

type fakeNotifier struct {
	trace       *trace
	operatorErr error
	ackErr      error
	notices     []notify.OperatorNotice
	acks        []string
}

func (f *fakeNotifier) NotifyOperator(_ context.Context, n notify.OperatorNotice) error {
	*f.trace = append(*f.trace, "operator")
	if f.operatorErr != nil {
		return f.operatorErr
	}
	f.notices = append(f.notices, n)
	return nil
}

func (f *fakeNotifier) NotifyAcknowledgment(_ context.Context, to, _ string) error {
	*f.trace = append(*f.trace, "ack")
	if f.ackErr != nil {
		return f.ackErr
	}
	f.acks = append(f.acks, to)
	return nil
}

type harness struct {
	trace    *trace
	limiter  *fakeLimiter
	verifier *fakeVerifier
	store    *fakeStore
	notifier *fakeNotifier
}

func newHarness() *harness {
	tr := &trace{}
	return &harness{
		trace:    tr,
		limiter:  &fakeLimiter{trace: tr},
		verifier: &fakeVerifier{trace: tr, outcome: recaptcha.Outcome{Valid: true, Score: 0.9}},
		store:    &fakeStore{trace: tr},
		notifier: &fakeNotifier{trace: tr},
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Limiter:  h.limiter,
		Verifier: h.verifier,
		Store:    h.store,
		Notifier: h.notifier,
	}
}

func (h *harness) steps() string {
	return strings.Join(*h.trace, ",")
}

func contactFields() map[string]string {
	return map[string]string{
		"name":        "Juan Dela Cruz",
		"email":       "juan@example.com",
		"phone":       "09171234567",
		"projectType": "Residential Construction",
		"message":     "I need a house built please.",
	}
}

func quoteFields() map[string]string {
	return map[string]string{
		"name":        "Maria Santos",
		"email":       "maria@example.com",
		"phone":       "09171234567",
		"projectType": "Commercial Construction",
		"location":    "Batangas City, Batangas",
		"budget":      "₱1M - ₱3M",
		"timeline":    "1-3 months",
		"description": "We need a complete commercial fit-out for our new office space including electrical works.",
	}
}

func attachment(name, contentType string, size int) models.Attachment {
	return models.Attachment{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(size),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(strings.Repeat("x", size))), nil
		},
	}
}

////////////////////////////////////////////////////////////
// Contact
////////////////////////////////////////////////////////////

func TestContact_Success(t *testing.T) {
	h := newHarness()
	p := New(Contact, h.deps())

	res, err := p.Submit(context.Background(), FormRequest("203.0.113.7", Form{
		Token:  "tok",
		Fields: contactFields(),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message != "Message sent successfully" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if res.ID == "" || len(res.Fingerprint) != 16 {
		t.Fatalf("expected id and fingerprint, got %+v", res)
	}
	if got := h.steps(); got != "ratelimit,verify,operator,ack" {
		t.Fatalf("unexpected steps %s", got)
	}
	if h.verifier.action != "contact" {
		t.Fatalf("expected action contact, got %q", h.verifier.action)
	}
	if len(h.notifier.notices) != 1 || len(h.notifier.acks) != 1 {
		t.Fatalf("expected one operator email and one acknowledgment")
	}
	if h.notifier.acks[0] != "juan@example.com" {
		t.Fatalf("acknowledgment sent to %q", h.notifier.acks[0])
	}
	if h.notifier.notices[0].Reference != res.Fingerprint {
		t.Fatalf("notice reference %q does not match fingerprint %q", h.notifier.notices[0].Reference, res.Fingerprint)
	}
}

func TestContact_RateLimitedShortCircuits(t *testing.T) {
	h := newHarness()
	h.limiter.limited = true
	p := New(Contact, h.deps())

	_, err := p.Submit(context.Background(), FormRequest("x", Form{Token: "tok", Fields: contactFields()}))
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if got := h.steps(); got != "ratelimit" {
		t.Fatalf("expected only the rate check, got %s", got)
	}
}

func TestContact_LimiterErrorAdmits(t *testing.T) {
	h := newHarness()
	h.limiter.err = errors.New("redis: connection refused")
	p := New(Contact, h.deps())

	if _, err := p.Submit(context.Background(), FormRequest("x", Form{Fields: contactFields()})); err != nil {
		t.Fatalf("expected submission to be admitted, got %v", err)
	}
}

func TestContact_NoTokenSkipsVerification(t *testing.T) {
	h := newHarness()
	h.verifier.outcome = recaptcha.Outcome{Valid: false}
	p := New(Contact, h.deps())

	if _, err := p.Submit(context.Background(), FormRequest("x", Form{Fields: contactFields()})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(h.steps(), "verify") {
		t.Fatalf("verifier called without a token")
	}
}

func TestContact_VerificationRejected(t *testing.T) {
	for name, v := range map[string]fakeVerifier{
		"low score":       {outcome: recaptcha.Outcome{Valid: false, Score: 0.1}},
		"transport error": {err: errors.New("dial tcp: timeout")},
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			h.verifier.outcome = v.outcome
			h.verifier.err = v.err
			p := New(Contact, h.deps())

			_, err := p.Submit(context.Background(), FormRequest("x", Form{Token: "tok", Fields: contactFields()}))
			if !errors.Is(err, ErrAbuseRejected) {
				t.Fatalf("expected ErrAbuseRejected, got %v", err)
			}
			if got := h.steps(); got != "ratelimit,verify" {
				t.Fatalf("unexpected steps %s", got)
			}
		})
	}
}

func TestContact_FieldErrors(t *testing.T) {
	h := newHarness()
	p := New(Contact, h.deps())
	fields := contactFields()
	fields["name"] = "A"

	_, err := p.Submit(context.Background(), FormRequest("x", Form{Fields: fields}))
	var cie *ClientInputError
	if !errors.As(err, &cie) {
		t.Fatalf("expected ClientInputError, got %v", err)
	}
	if len(cie.Fields["name"]) == 0 || !strings.Contains(cie.Fields["name"][0], "at least 2 characters") {
		t.Fatalf("unexpected field errors %v", cie.Fields)
	}
	if len(h.notifier.notices) != 0 || len(h.notifier.acks) != 0 {
		t.Fatalf("emails sent for invalid submission")
	}
}

func TestContact_IgnoresAttachments(t *testing.T) {
	h := newHarness()
	p := New(Contact, h.deps())

	_, err := p.Submit(context.Background(), FormRequest("x", Form{
		Fields:      contactFields(),
		Attachments: []models.Attachment{attachment("a.exe", "application/x-msdownload", 10)},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(h.steps(), "upload") {
		t.Fatalf("contact submissions must not upload files")
	}
}

func TestContact_OperatorEmailFailure(t *testing.T) {
	h := newHarness()
	h.notifier.operatorErr = errors.New("resend: 500")
	p := New(Contact, h.deps())

	_, err := p.Submit(context.Background(), FormRequest("x", Form{Fields: contactFields()}))
	var df *DependencyFailure
	if !errors.As(err, &df) || df.Step != "notify operator" {
		t.Fatalf("expected operator DependencyFailure, got %v", err)
	}
	if got := h.steps(); got != "ratelimit,operator" {
		t.Fatalf("acknowledgment attempted after operator failure: %s", got)
	}
}

func TestContact_AcknowledgmentFailure(t *testing.T) {
	h := newHarness()
	h.notifier.ackErr = errors.New("resend: 500")
	p := New(Contact, h.deps())

	_, err := p.Submit(context.Background(), FormRequest("x", Form{Fields: contactFields()}))
	var df *DependencyFailure
	if !errors.As(err, &df) || df.Step != "acknowledge" {
		t.Fatalf("expected acknowledgment DependencyFailure, got %v", err)
	}
}

////////////////////////////////////////////////////////////
// Quote
////////////////////////////////////////////////////////////

func TestQuote_UploadsAcceptedFiles(t *testing.T) {
	h := newHarness()
	h.store.url = "https://blob.example.com/"
	p := New(Quote, h.deps())

	res, err := p.Submit(context.Background(), FormRequest("x", Form{
		Fields:      quoteFields(),
		Attachments: []models.Attachment{
			attachment("plan.pdf", "application/pdf", 1024),
			attachment("empty.png", "image/png", 0),
			attachment("site.jpg", "image/jpeg", 2048),
		},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message != "Quote request submitted successfully" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if got := h.steps(); got != "ratelimit,upload,upload,operator,ack" {
		t.Fatalf("unexpected steps %s", got)
	}
	if strings.Join(h.store.puts, ",") != "plan.pdf,site.jpg" {
		t.Fatalf("unexpected uploads %v", h.store.puts)
	}
	if n := h.notifier.notices[0]; n.Label != "Quote Request" || n.Email != "maria@example.com" {
		t.Fatalf("unexpected notice %+v", n)
	}
}

func TestQuote_TooManyFiles(t *testing.T) {
	h := newHarness()
	p := New(Quote, h.deps())

	files := make([]models.Attachment, 6)
	for i := range files {
		files[i] = attachment("plan.pdf", "application/pdf", 1024)
	}
	_, err := p.Submit(context.Background(), FormRequest("x", Form{Fields: quoteFields(), Attachments: files}))

	var cie *ClientInputError
	if !errors.As(err, &cie) || !errors.Is(err, validation.ErrTooManyFiles) {
		t.Fatalf("expected too-many-files ClientInputError, got %v", err)
	}
	if cie.Error() != "Maximum 5 files allowed" {
		t.Fatalf("unexpected message %q", cie.Error())
	}
	if got := h.steps(); got != "ratelimit" {
		t.Fatalf("unexpected steps %s", got)
	}
}

func TestQuote_FileTooLarge(t *testing.T) {
	h := newHarness()
	p := New(Quote, h.deps())

	_, err := p.Submit(context.Background(), FormRequest("x", Form{
		Fields:      quoteFields(),
		Attachments: []models.Attachment{attachment("big.pdf", "application/pdf", 6*1024*1024)},
	}))
	if !errors.Is(err, validation.ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if len(h.notifier.notices) != 0 {
		t.Fatalf("email sent for oversize file")
	}
}

func TestQuote_UploadFailure(t *testing.T) {
	h := newHarness()
	h.store.err = errors.New("blob: 503")
	p := New(Quote, h.deps())

	_, err := p.Submit(context.Background(), FormRequest("x", Form{
		Fields:      quoteFields(),
		Attachments: []models.Attachment{attachment("plan.pdf", "application/pdf", 10)},
	}))
	var df *DependencyFailure
	if !errors.As(err, &df) || df.Step != "upload" {
		t.Fatalf("expected upload DependencyFailure, got %v", err)
	}
	if strings.Contains(h.steps(), "operator") {
		t.Fatalf("email sent after upload failure")
	}
}

func TestQuote_FieldsCheckedBeforeFiles(t *testing.T) {
	h := newHarness()
	p := New(Quote, h.deps())
	fields := quoteFields()
	fields["description"] = "too short"

	files := make([]models.Attachment, 6)
	for i := range files {
		files[i] = attachment("plan.pdf", "application/pdf", 1)
	}
	_, err := p.Submit(context.Background(), FormRequest("x", Form{Fields: fields, Attachments: files}))

	var cie *ClientInputError
	if !errors.As(err, &cie) || cie.Fields == nil {
		t.Fatalf("expected field errors first, got %v", err)
	}
}

func TestSubmit_MalformedBodyAfterRateLimit(t *testing.T) {
	h := newHarness()
	p := New(Contact, h.deps())

	_, err := p.Submit(context.Background(), Request{
		ClientID: "x",
		Decode:   func() (Form, error) { return Form{}, errors.New("unexpected EOF") },
	})
	if !errors.Is(err, ErrMalformedBody) {
		t.Fatalf("expected ErrMalformedBody, got %v", err)
	}
	if got := h.steps(); got != "ratelimit" {
		t.Fatalf("unexpected steps %s", got)
	}
}

func TestSubmit_LimitedRequestIsNotDecoded(t *testing.T) {
	h := newHarness()
	h.limiter.limited = true
	p := New(Contact, h.deps())

	decoded := false
	_, err := p.Submit(context.Background(), Request{
		ClientID: "x",
		Decode: func() (Form, error) {
			decoded = true
			return Form{}, nil
		},
	})
	if !errors.Is(err, ErrRateLimited) || decoded {
		t.Fatalf("expected rate limit before decoding, err=%v decoded=%v", err, decoded)
	}
}
