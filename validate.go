package folio

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var slugRule = validation.NewStringRule(ValidSlug, "must be lowercase letters, digits and dashes")

// Validate checks a record before it is saved. Links need a URL, posts and
// pages need a body.
func (c Content) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&c.Slug, validation.Required, validation.Length(1, 200), slugRule),
		validation.Field(&c.Type, validation.Required, validation.In(TypePost, TypePage, TypeLink)),
		validation.Field(&c.Content, validation.When(c.Type != TypeLink, validation.Required)),
		validation.Field(&c.URL, validation.When(c.Type == TypeLink, validation.Required), is.URL),
		validation.Field(&c.Excerpt, validation.Length(0, 1000)),
	)
}

// validationMessages flattens ozzo field errors for templates and JSON.
// It returns nil for anything that is not a field error.
func validationMessages(err error) map[string]string {
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return nil
	}
	out := make(map[string]string, len(fields))
	for name, e := range fields {
		out[name] = e.Error()
	}
	return out
}
