package validation

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Usernames are 3 to 30 characters and end up in comma-separated
// collaborator lists, so only letters, digits, '_' and '-' are allowed,
// with a letter or digit at both ends.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{1,28}[a-zA-Z0-9]$`)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

func init() {
	mustRegister("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	mustRegister("password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// StrongPassword reports whether password has the required length and mixes
// upper case, lower case, digits and symbols.
func StrongPassword(password string) bool {
	if n := len(password); n < minPasswordLength || n > maxPasswordLength {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
