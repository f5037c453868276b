package validation

import "github.com/go-playground/validator/v10"

// plain validates single values outside of request binding.
var plain = validator.New()

// IsEmail reports whether s is a non-empty, well-formed email address.
func IsEmail(s string) bool {
	return plain.Var(s, "required,email") == nil
}
