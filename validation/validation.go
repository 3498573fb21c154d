package validation

import (
	"math"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldError is a message code scoped to a form field.
type FieldError struct {
	Field   string
	Message string
}

// Errors keeps field errors in the order the rules ran.
type Errors []FieldError

func (e *Errors) Add(field, msg string) { *e = append(*e, FieldError{Field: field, Message: msg}) }

func (e Errors) Empty() bool { return len(e) == 0 }

// Has reports whether field has at least one error.
func (e Errors) Has(field string) bool { return e.For(field) != "" }

// For returns the first message for field, or "".
func (e Errors) For(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

func (e Errors) Messages() []string {
	out := make([]string, 0, len(e))
	for _, fe := range e {
		out = append(out, fe.Message)
	}
	return out
}

// Basic validators. Each appends msg to v on failure and reports success.

func Required(field, value, msg string, v *Errors) bool {
	if strings.TrimSpace(value) == "" {
		v.Add(field, msg)
		return false
	}
	return true
}

func MinLength(field, value string, n int, msg string, v *Errors) bool {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
		v.Add(field, msg)
		return false
	}
	return true
}

func MaxLength(field, value string, n int, msg string, v *Errors) bool {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > n {
		v.Add(field, msg)
		return false
	}
	return true
}

func Email(field, value, msg string, v *Errors) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil || addr.Address != strings.TrimSpace(value) || !strings.Contains(addr.Address, ".") {
		v.Add(field, msg)
		return false
	}
	return true
}

func Matches(field, value string, re *regexp.Regexp, msg string, v *Errors) bool {
	if !re.MatchString(strings.TrimSpace(value)) {
		v.Add(field, msg)
		return false
	}
	return true
}

// Integer parses value as a base-10 integer.
func Integer(field, value, msg string, v *Errors) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		v.Add(field, msg)
		return 0, false
	}
	return n, true
}

// IntRange parses value and checks minVal <= n <= maxVal.
func IntRange(field, value string, minVal, maxVal int, msg string, v *Errors) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < minVal || n > maxVal {
		v.Add(field, msg)
		return 0, false
	}
	return n, true
}

// FloatMin parses value and checks it is at least minVal.
func FloatMin(field, value string, minVal float64, msg string, v *Errors) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < minVal {
		v.Add(field, msg)
		return 0, false
	}
	return f, true
}

// MaxBytes checks the byte length of value, untrimmed.
func MaxBytes(field, value string, n int, msg string, v *Errors) bool {
	if len(value) > n {
		v.Add(field, msg)
		return false
	}
	return true
}

// Password requires 8+ characters with an upper-case letter, a digit and a
// special character.
func Password(field, value, msg string, v *Errors) bool {
	var upper, digit, special bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			special = true
		}
	}
	if utf8.RuneCountInString(value) < 8 || !upper || !digit || !special {
		v.Add(field, msg)
		return false
	}
	return true
}
