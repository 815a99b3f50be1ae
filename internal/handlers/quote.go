package handlers

import (
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/adrayandaleandrew/baring-construction/internal/clientid"
	"github.com/adrayandaleandrew/baring-construction/internal/models"
	"github.com/adrayandaleandrew/baring-construction/internal/submission"
)

// RegisterQuoteRoutes registers the quote request endpoint.
//
// POST /quote
// - multipart/form-data: text fields, recaptchaToken?, zero or more "files" parts
// - 200 on success, 400 validation/attachment/verification, 429 rate limited,
//   500 upload or email failure
func RegisterQuoteRoutes(r gin.IRoutes, p *submission.Pipeline[models.QuoteSubmission]) {
	r.POST("/quote", func(c *gin.Context) {
		req := submission.Request{
			ClientID: clientid.ID(c),
			Decode: func() (submission.Form, error) {
				form, err := c.MultipartForm()
				if err != nil {
					return submission.Form{}, err
				}
				return quoteForm(form), nil
			},
		}

		res, err := p.Submit(c.Request.Context(), req)
		respond(c, res, err)
	})
}

func quoteForm(form *multipart.Form) submission.Form {
	// First value wins for repeated text fields.
	fields := make(map[string]string, len(form.Value))
	for k, v := range form.Value {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	token := fields["recaptchaToken"]
	delete(fields, "recaptchaToken")

	var attachments []models.Attachment
	for _, fh := range form.File["files"] {
		attachments = append(attachments, models.Attachment{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}

	return submission.Form{
		Token:       token,
		Fields:      fields,
		Attachments: attachments,
	}
}
