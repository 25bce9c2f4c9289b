// Package validate wraps go-playground/validator with English translations and
// maps failures to configuration errors
package validate

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	perr "hh4b/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldLevel aliases validator.FieldLevel
type FieldLevel = validator.FieldLevel

// FieldError aliases validator.FieldError
type FieldError = validator.FieldError

// Svc holds a singleton validator and translator
type Svc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *Svc
)

// Get initializes the singleton on first use with english translations.
// Field names in messages come from the `flag` struct tag, then `yaml`, then the Go name.
func Get() *Svc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(tagName)

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		registerShort(v, trans, "oneof", "{0} must be one of [{1}]", true)
		registerShort(v, trans, "min", "{0} must have at least {1} value(s)", true)
		registerShort(v, trans, "required", "{0} is required", false)

		vSvc = &Svc{Validator: v, Translator: trans}
	})
	return vSvc
}

func tagName(fld reflect.StructField) string {
	for _, key := range []string{"flag", "yaml"} {
		tag := fld.Tag.Get(key)
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		if tag != "" && tag != "-" {
			return tag
		}
	}
	return fld.Name
}

// Register adds a custom tag together with its English message.
// msg may reference {0} (field) and {1} (offending value).
func Register(tag string, fn validator.Func, msg string) error {
	s := Get()
	if err := s.Validator.RegisterValidation(tag, fn); err != nil {
		return err
	}
	return s.Validator.RegisterTranslation(tag, s.Translator,
		func(t ut.Translator) error { return t.Add(tag, msg, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			out, _ := t.T(tag, fe.Field(), valueString(fe.Value()))
			return out
		},
	)
}

// Struct validates v and returns a configuration error naming every failing field
func Struct(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	if inv, ok := err.(*validator.InvalidValidationError); ok {
		return perr.Wrap(inv, perr.ErrorCodeUnknown, "validator internal error")
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return perr.Wrap(err, perr.ErrorCodeConfiguration, "invalid configuration")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(Get().Translator))
	}
	out := perr.Configf("invalid configuration: %s", strings.Join(msgs, "; "))
	return perr.WithField(out, fieldPath(verrs[0]))
}

// fieldPath drops the root struct name and any element index: "RunConfig.years[1]" -> "years"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.Index(ns, "["); i >= 0 {
		ns = ns[:i]
	}
	return ns
}

func valueString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func registerShort(v *validator.Validate, trans ut.Translator, tag, text string, withParam bool) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, text, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			if withParam {
				msg, _ := t.T(tag, fe.Field(), fe.Param())
				return msg
			}
			msg, _ := t.T(tag, fe.Field())
			return msg
		},
	)
}
