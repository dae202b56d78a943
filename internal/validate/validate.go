// Package validate checks form payloads before they are sent to the backend.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/and161185/newsboard/internal/errs"
)

var (
	once  sync.Once
	v     *govalidator.Validate
	trans ut.Translator
)

func setup() {
	v = govalidator.New(govalidator.WithRequiredStructEnabled())
	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)
}

// FieldError is a rejected form with one message per field.
type FieldError struct {
	Fields map[string]string
	first  string
}

func (e *FieldError) Error() string { return e.first }

// Unwrap lets callers match errs.ErrValidation.
func (e *FieldError) Unwrap() error { return errs.ErrValidation }

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	once.Do(setup)
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	fe := &FieldError{Fields: make(map[string]string, len(ve))}
	for _, e := range ve {
		msg := e.Translate(trans)
		fe.Fields[e.Field()] = msg
		if fe.first == "" {
			fe.first = msg
		}
	}
	return fe
}
