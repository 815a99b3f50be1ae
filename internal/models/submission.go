package models

import "io"

// Submitter identifies the person behind a validated submission.
type Submitter struct {
	Name  string
	Email string
}

// Submission is implemented by every validated submission kind.
type Submission interface {
	Submitter() Submitter
}

// ContactSubmission is a validated POST /contact payload.
type ContactSubmission struct {
	Name        string `json:"name" validate:"min=2,max=100"`
	Email       string `json:"email" validate:"email,max=100"`
	Phone       string `json:"phone" validate:"ph_phone"`
	ProjectType string `json:"projectType" validate:"project_type"`
	Message     string `json:"message" validate:"min=10,max=1000"`
}

func (s ContactSubmission) Submitter() Submitter {
	return Submitter{Name: s.Name, Email: s.Email}
}

// QuoteSubmission is the validated text part of a POST /quote form.
// Company is optional; an empty value is accepted.
type QuoteSubmission struct {
	Name        string `json:"name" validate:"min=2,max=100"`
	Email       string `json:"email" validate:"email,max=100"`
	Phone       string `json:"phone" validate:"ph_phone"`
	Company     string `json:"company,omitempty" validate:"omitempty,max=100"`
	ProjectType string `json:"projectType" validate:"project_type"`
	Location    string `json:"location" validate:"min=3,max=200"`
	Budget      string `json:"budget" validate:"budget_range"`
	Timeline    string `json:"timeline" validate:"timeline"`
	Description string `json:"description" validate:"min=50,max=2000"`
}

func (s QuoteSubmission) Submitter() Submitter {
	return Submitter{Name: s.Name, Email: s.Email}
}

// ContactRequest is the raw JSON body of POST /contact.
// Fields are decoded as-is and validated afterwards.
type ContactRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	ProjectType    string `json:"projectType"`
	Message        string `json:"message"`
	RecaptchaToken string `json:"recaptchaToken,omitempty"`
}

// Fields returns the text fields keyed by their wire names.
func (r ContactRequest) Fields() map[string]string {
	return map[string]string{
		"name":        r.Name,
		"email":       r.Email,
		"phone":       r.Phone,
		"projectType": r.ProjectType,
		"message":     r.Message,
	}
}

// SubmissionResponse is returned on success by both endpoints.
type SubmissionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is returned on every failure. Details is only set for
// field validation failures.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details map[string][]string `json:"details,omitempty"`
}

// Attachment describes one uploaded file. Open returns the file content;
// it is only called for attachments that passed validation.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}
