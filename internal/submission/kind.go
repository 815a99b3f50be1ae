package submission

import (
	"github.com/adrayandaleandrew/baring-construction/internal/models"
	"github.com/adrayandaleandrew/baring-construction/internal/notify"
	"github.com/adrayandaleandrew/baring-construction/internal/validation"
)

// Kind is the per-form configuration of the pipeline.
type Kind[T models.Submission] struct {
	// Name labels logs and is the expected verification action.
	Name     string
	Validate func(fields map[string]string) (T, validation.FieldErrors)
	// AcceptsFiles enables the attachment and upload steps. Attachments
	// sent to a kind that does not accept them are ignored.
	AcceptsFiles   bool
	Notice         func(sub T, files []notify.File) (notify.OperatorNotice, error)
	SuccessMessage string
}

var Contact = Kind[models.ContactSubmission]{
	Name:     "contact",
	Validate: validation.Contact,
	Notice: func(sub models.ContactSubmission, _ []notify.File) (notify.OperatorNotice, error) {
		return notify.ContactNotice(sub)
	},
	SuccessMessage: "Message sent successfully",
}

var Quote = Kind[models.QuoteSubmission]{
	Name:           "quote",
	Validate:       validation.Quote,
	AcceptsFiles:   true,
	Notice:         notify.QuoteNotice,
	SuccessMessage: "Quote request submitted successfully",
}
