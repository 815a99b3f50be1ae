package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/adrayandaleandrew/baring-construction/internal/clientid"
	"github.com/adrayandaleandrew/baring-construction/internal/models"
	"github.com/adrayandaleandrew/baring-construction/internal/submission"
)

// RegisterContactRoutes registers the contact form endpoint.
//
// POST /contact
// - JSON body: name, email, phone, projectType, message, recaptchaToken?
// - 200 on success, 400 validation/verification, 429 rate limited, 500 email failure
func RegisterContactRoutes(r gin.IRoutes, p *submission.Pipeline[models.ContactSubmission]) {
	r.POST("/contact", func(c *gin.Context) {
		req := submission.Request{
			ClientID: clientid.ID(c),
			Decode: func() (submission.Form, error) {
				var body models.ContactRequest
				if err := c.ShouldBindJSON(&body); err != nil {
					return submission.Form{}, err
				}
				return submission.Form{
					Token:  body.RecaptchaToken,
					Fields: body.Fields(),
				}, nil
			},
		}

		res, err := p.Submit(c.Request.Context(), req)
		respond(c, res, err)
	})
}
