// Package forms holds the declarative field validation rules that gate
// form submission. Every rule is a plain func(string) error so it can
// be installed directly as a huh field Validate hook; the per-form
// schemas run the same rules in bulk and return field-keyed messages.
// Validation is purely local: a failed rule suppresses the submit and
// no network call is made.
package forms

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"unicode"
)

// Rule validates a single field value.
type Rule func(string) error

// Schema maps field names to the ordered rules applied to them.
type Schema map[string][]Rule

// Validate runs a schema against the given field values and returns
// one message per violated field (the first failing rule wins). An
// empty map means the form may be submitted.
func Validate(schema Schema, values map[string]string) map[string]string {
	errs := make(map[string]string)
	for field, rules := range schema {
		for _, rule := range rules {
			if err := rule(values[field]); err != nil {
				errs[field] = err.Error()
				break
			}
		}
	}
	return errs
}

// FieldRule chains one field's rules into a single func usable as a
// huh Validate hook.
func (s Schema) FieldRule(field string) Rule {
	rules := s[field]
	return func(v string) error {
		for _, rule := range rules {
			if err := rule(v); err != nil {
				return err
			}
		}
		return nil
	}
}

// Required rejects empty or whitespace-only values.
func Required(name string) Rule {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// MinLen rejects values shorter than n characters.
func MinLen(name string, n int) Rule {
	return func(s string) error {
		if len(s) < n {
			return fmt.Errorf("%s must be at least %d characters", name, n)
		}
		return nil
	}
}

// MaxLen rejects values longer than n characters. Empty values pass.
func MaxLen(name string, n int) Rule {
	return func(s string) error {
		if len(s) > n {
			return fmt.Errorf("%s must be at most %d characters", name, n)
		}
		return nil
	}
}

// Email rejects values that are not a syntactically valid address.
func Email(name string) Rule {
	return func(s string) error {
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return fmt.Errorf("%s must be a valid email address", name)
		}
		return nil
	}
}

// OneOf rejects values outside the allowed set.
func OneOf(name string, allowed ...string) Rule {
	return func(s string) error {
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("%s must be one of: %s", name, strings.Join(allowed, ", "))
	}
}

// PositiveInt rejects values that do not parse as an integer > 0.
func PositiveInt(name string) Rule {
	return func(s string) error {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer", name)
		}
		return nil
	}
}

// StrongPassword requires at least one uppercase letter, one lowercase
// letter, and one digit. Length is checked separately with MinLen.
func StrongPassword(name string) Rule {
	return func(s string) error {
		var hasUpper, hasLower, hasDigit bool
		for _, r := range s {
			switch {
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		if !hasUpper || !hasLower || !hasDigit {
			return fmt.Errorf(
				"%s must include an uppercase letter, a lowercase letter, and a digit",
				name,
			)
		}
		return nil
	}
}
