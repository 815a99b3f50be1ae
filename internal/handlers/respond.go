package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adrayandaleandrew/baring-construction/internal/clientid"
	"github.com/adrayandaleandrew/baring-construction/internal/models"
	"github.com/adrayandaleandrew/baring-construction/internal/submission"
)

// respond maps a pipeline outcome onto the public response contract.
// Internal error details are logged, never returned.
func respond(c *gin.Context, res submission.Result, err error) {
	if err == nil {
		c.JSON(http.StatusOK, models.SubmissionResponse{Success: true, Message: res.Message})
		return
	}

	var input *submission.ClientInputError
	switch {
	case errors.Is(err, submission.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Error: "Too many requests. Please try again later."})
	case errors.Is(err, submission.ErrAbuseRejected):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "reCAPTCHA verification failed"})
	case errors.Is(err, submission.ErrMalformedBody):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
	case errors.As(err, &input) && input.Fields != nil:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Validation failed", Details: input.Fields})
	case input != nil:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: input.Error()})
	default:
		slog.Error("submission failed",
			"path", c.FullPath(),
			"client", clientid.ID(c),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}
