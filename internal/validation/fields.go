// Package validation checks submitted form fields and file attachments
// before anything is sent anywhere.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/adrayandaleandrew/baring-construction/internal/models"
)

// ProjectTypes are the accepted projectType values for both forms.
var ProjectTypes = []string{
	"Residential Construction",
	"Commercial Construction",
	"Electrical Works",
	"Civil & Structural Works",
	"MEPF Services",
	"Renovation/Fit-out",
	"Swimming Pool & Landscaping",
	"Industrial Projects",
	"Other",
}

// BudgetRanges are the accepted quote budget values.
var BudgetRanges = []string{
	"₱500K - ₱1M",
	"₱1M - ₱3M",
	"₱3M - ₱5M",
	"₱5M - ₱10M",
	"₱10M+",
	"Not Sure Yet",
}

// Timelines are the accepted quote timeline values.
var Timelines = []string{
	"ASAP (Within 1 month)",
	"1-3 months",
	"3-6 months",
	"6+ months",
	"Flexible",
}

var phonePattern = regexp.MustCompile(`^(\+63|0)?[0-9\s\-()]{10,}$`)

// messages maps "<field>.<tag>" to the message reported for that rule.
var messages = map[string]string{
	"name.min":                 "Name must be at least 2 characters",
	"name.max":                 "Name must be less than 100 characters",
	"email.email":              "Invalid email address",
	"email.max":                "Email too long",
	"phone.ph_phone":           "Invalid Philippine phone number",
	"company.max":              "Company must be at most 100 characters",
	"projectType.project_type": "Invalid project type",
	"message.min":              "Message must be at least 10 characters",
	"message.max":              "Message must be less than 1000 characters",
	"location.min":             "Location must be at least 3 characters",
	"location.max":             "Location must be at most 200 characters",
	"budget.budget_range":      "Invalid budget range",
	"timeline.timeline":        "Invalid timeline",
	"description.min":          "Please provide at least 50 characters describing your project",
	"description.max":          "Description must be less than 2000 characters",
}

// FieldErrors maps a field's wire name to its validation messages.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so details line up with the request.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	register(v, "ph_phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	register(v, "project_type", oneOf(ProjectTypes))
	register(v, "budget_range", oneOf(BudgetRanges))
	register(v, "timeline", oneOf(Timelines))
	return v
}

func register(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(values, fl.Field().String())
	}
}

// Contact validates the fields of a contact form submission.
// Unknown keys in fields are ignored.
func Contact(fields map[string]string) (models.ContactSubmission, FieldErrors) {
	s := models.ContactSubmission{
		Name:        fields["name"],
		Email:       fields["email"],
		Phone:       fields["phone"],
		ProjectType: fields["projectType"],
		Message:     fields["message"],
	}
	if errs := check(s); errs != nil {
		return models.ContactSubmission{}, errs
	}
	return s, nil
}

// Quote validates the text fields of a quote request.
// Unknown keys in fields are ignored.
func Quote(fields map[string]string) (models.QuoteSubmission, FieldErrors) {
	s := models.QuoteSubmission{
		Name:        fields["name"],
		Email:       fields["email"],
		Phone:       fields["phone"],
		Company:     fields["company"],
		ProjectType: fields["projectType"],
		Location:    fields["location"],
		Budget:      fields["budget"],
		Timeline:    fields["timeline"],
		Description: fields["description"],
	}
	if errs := check(s); errs != nil {
		return models.QuoteSubmission{}, errs
	}
	return s, nil
}

// check runs the struct rules and collects the first failed rule per field.
func check(s any) FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": {err.Error()}}
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	if m, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return m
	}
	return fmt.Sprintf("Invalid %s", fe.Field())
}
