// Package notify composes the operator and acknowledgment emails for form
// submissions and hands them to a mailer transport.
package notify

import (
	"context"
	"fmt"

	"github.com/adrayandaleandrew/baring-construction/internal/mailer"
	"github.com/adrayandaleandrew/baring-construction/internal/models"
)

// Site identifies the business in acknowledgment emails.
type Site struct {
	Name  string
	Phone string
	Email string
}

// DefaultSite is used for any Site field left empty.
var DefaultSite = Site{Name: "Baring Construction Services"}

// File is an attachment as reported to the operator. URL is empty when the
// file was not uploaded.
type File struct {
	Name string
	URL  string
}

// OperatorNotice is a composed operator email waiting to be sent.
type OperatorNotice struct {
	Label       string // "Contact Form" or "Quote Request"
	Name        string
	Email       string
	ProjectType string
	// Reference is shown in the footer; empty hides the footer.
	Reference string

	body string
}

// Subject is "<label>: <name> - <project type>".
func (n OperatorNotice) Subject() string {
	return fmt.Sprintf("%s: %s - %s", n.Label, n.Name, n.ProjectType)
}

// ContactNotice composes the operator email for a contact message.
func ContactNotice(c models.ContactSubmission) (OperatorNotice, error) {
	body, err := render("contact", struct {
		Rows    []row
		Message string
	}{
		Rows: []row{
			{"Name", c.Name},
			{"Email", c.Email},
			{"Phone", c.Phone},
			{"Project Type", c.ProjectType},
		},
		Message: c.Message,
	})
	if err != nil {
		return OperatorNotice{}, fmt.Errorf("render contact notice: %w", err)
	}
	return OperatorNotice{
		Label:       "Contact Form",
		Name:        c.Name,
		Email:       c.Email,
		ProjectType: c.ProjectType,
		body:        body,
	}, nil
}

// QuoteNotice composes the operator email for a quote request. The Company
// row appears only when a company was given.
func QuoteNotice(q models.QuoteSubmission, files []File) (OperatorNotice, error) {
	contact := []row{
		{"Name", q.Name},
		{"Email", q.Email},
		{"Phone", q.Phone},
	}
	if q.Company != "" {
		contact = append(contact, row{"Company", q.Company})
	}

	body, err := render("quote", struct {
		Contact     []row
		Project     []row
		Description string
		Files       []File
	}{
		Contact: contact,
		Project: []row{
			{"Type", q.ProjectType},
			{"Location", q.Location},
			{"Budget", q.Budget},
			{"Timeline", q.Timeline},
		},
		Description: q.Description,
		Files:       files,
	})
	if err != nil {
		return OperatorNotice{}, fmt.Errorf("render quote notice: %w", err)
	}
	return OperatorNotice{
		Label:       "Quote Request",
		Name:        q.Name,
		Email:       q.Email,
		ProjectType: q.ProjectType,
		body:        body,
	}, nil
}

// Dispatcher sends submission emails.
type Dispatcher struct {
	transport mailer.Transport
	from      string
	operator  string
	site      Site
}

func NewDispatcher(transport mailer.Transport, from, operator string, site Site) *Dispatcher {
	if site.Name == "" {
		site.Name = DefaultSite.Name
	}
	return &Dispatcher{
		transport: transport,
		from:      from,
		operator:  operator,
		site:      site,
	}
}

// NotifyOperator emails the notice to the operator inbox with reply-to set
// to the submitter.
func (d *Dispatcher) NotifyOperator(ctx context.Context, n OperatorNotice) error {
	html, err := render("operator", struct {
		Body      string
		Reference string
	}{n.body, n.Reference})
	if err != nil {
		return fmt.Errorf("render operator email: %w", err)
	}

	err = d.transport.Send(ctx, mailer.Message{
		From:    d.from,
		To:      []string{d.operator},
		ReplyTo: n.Email,
		Subject: n.Subject(),
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("send operator email: %w", err)
	}
	return nil
}

// NotifyAcknowledgment thanks the submitter.
func (d *Dispatcher) NotifyAcknowledgment(ctx context.Context, to, name string) error {
	html, err := render("acknowledgment", struct {
		Name string
		Site Site
	}{name, d.site})
	if err != nil {
		return fmt.Errorf("render acknowledgment: %w", err)
	}

	err = d.transport.Send(ctx, mailer.Message{
		From:    d.from,
		To:      []string{to},
		Subject: "Thank you for contacting " + d.site.Name,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("send acknowledgment: %w", err)
	}
	return nil
}
