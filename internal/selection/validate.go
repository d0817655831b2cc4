package selection

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
)

// newsFields mirrors the validated fields of catalog.News. Tag order is the
// order in which checks run; the first failing tag decides the message.
type newsFields struct {
	Title       string `validate:"required,max=150,nodigits"`
	Body        string `validate:"required,min=80"`
	Author      string `validate:"required"`
	ArchiveDate string `validate:"required"`
}

var fieldKeys = map[string]string{
	"Title":       catalog.FieldTitle,
	"Body":        catalog.FieldBody,
	"Author":      catalog.FieldAuthor,
	"ArchiveDate": catalog.FieldArchiveDate,
}

var fieldTags = map[string]string{
	catalog.FieldTitle:       "required,max=150,nodigits",
	catalog.FieldBody:        "required,min=80",
	catalog.FieldAuthor:      "required",
	catalog.FieldArchiveDate: "required",
}

var messages = map[string]map[string]string{
	catalog.FieldTitle: {
		"required": "Title cannot be null.",
		"max":      "Title cannot exceed 150 chars.",
		"nodigits": "Title cannot contain numbers.",
	},
	catalog.FieldBody: {
		"required": "Body cannot be null.",
		"min":      "Body must have at least 80 characters.",
	},
	catalog.FieldAuthor: {
		"required": "Author cannot be null.",
	},
	catalog.FieldArchiveDate: {
		"required": "Archive Date cannot be null.",
	},
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func newsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// ASCII digits only, like a \d regular expression.
		_ = validate.RegisterValidation("nodigits", func(fl validator.FieldLevel) bool {
			return !strings.ContainsAny(fl.Field().String(), "0123456789")
		})
	})
	return validate
}

// Validate checks every validated field of n and returns the messages of the
// failing ones. An empty result means the draft may be submitted.
func Validate(n catalog.News) catalog.FieldErrors {
	out := catalog.FieldErrors{}
	err := newsValidator().Struct(newsFields{
		Title:       n.Title,
		Body:        n.Body,
		Author:      n.Author,
		ArchiveDate: n.ArchiveDate,
	})
	if err == nil {
		return out
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Set(catalog.FieldSubmit, err.Error())
		return out
	}
	for _, fe := range verrs {
		key := fieldKeys[fe.StructField()]
		out.Set(key, messageFor(key, fe.Tag()))
	}
	return out
}

// ValidateField checks a single field value as it is typed. Fields without
// rules always pass.
func ValidateField(field, value string) string {
	tag, ok := fieldTags[field]
	if !ok {
		return ""
	}
	err := newsValidator().Var(value, tag)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return messageFor(field, verrs[0].Tag())
	}
	return err.Error()
}

func messageFor(field, tag string) string {
	if msg, ok := messages[field][tag]; ok {
		return msg
	}
	return field + " is invalid."
}

// CanSubmit reports whether the draft passes validation, has a main category
// and carries no field errors from earlier keystrokes.
func CanSubmit(d *catalog.Draft) bool {
	if d.News.MainCategory == "" {
		return false
	}
	for field, msg := range d.Errors {
		if field != catalog.FieldSubmit && msg != "" {
			return false
		}
	}
	return !Validate(d.News).Blocking()
}
