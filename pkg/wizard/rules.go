package wizard

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Rule checks one field of the draft. Check returns the message to show, or "" when
// the field is valid. A rule runs on the step its field belongs to.
type Rule[D any] struct {
	Field string
	Check func(draft D) string
}

// Required fails when the trimmed value is empty.
func Required[D any](field string, get func(D) string, message string) Rule[D] {
	return Rule[D]{Field: field, Check: func(d D) string {
		if strings.TrimSpace(get(d)) == "" {
			return message
		}

		return ""
	}}
}

// Email fails when the value is set but is not an address. The value is matched as
// entered, so surrounding spaces fail. An empty value passes; pair it with Required for
// mandatory addresses.
func Email[D any](field string, get func(D) string, message string) Rule[D] {
	return Rule[D]{Field: field, Check: func(d D) string {
		value := get(d)
		if value != "" && !IsEmail(value) {
			return message
		}

		return ""
	}}
}

// Range fails when the value is below min or above max. Both bounds are inclusive.
func Range[D any](field string, get func(D) float64, minimum, maximum float64, message string) Rule[D] {
	return Rule[D]{Field: field, Check: func(d D) string {
		value := get(d)
		if value < minimum || value > maximum {
			return message
		}

		return ""
	}}
}

// FileRequired fails when no file reference is set.
func FileRequired[D any](field string, get func(D) *FileRef, message string) Rule[D] {
	return Rule[D]{Field: field, Check: func(d D) string {
		if !get(d).Present() {
			return message
		}

		return ""
	}}
}

// MinLength fails when the value has fewer than n characters.
func MinLength[D any](field string, get func(D) string, n int, message string) Rule[D] {
	return Rule[D]{Field: field, Check: func(d D) string {
		if utf8.RuneCountInString(get(d)) < n {
			return message
		}

		return ""
	}}
}

// Matches fails when the value differs from other, e.g. a password confirmation.
func Matches[D any](field string, get, other func(D) string, message string) Rule[D] {
	return Rule[D]{Field: field, Check: func(d D) string {
		if get(d) != other(d) {
			return message
		}

		return ""
	}}
}

// RequiredWhen is Required guarded by a condition on the rest of the draft.
func RequiredWhen[D any](field string, get func(D) string, when func(D) bool, message string) Rule[D] {
	required := Required(field, get, message)

	return Rule[D]{Field: field, Check: func(d D) string {
		if !when(d) {
			return ""
		}

		return required.Check(d)
	}}
}

// OneOf fails when the value is set and not among options.
func OneOf[D any](field string, get func(D) string, options []string, message string) Rule[D] {
	return Rule[D]{Field: field, Check: func(d D) string {
		value := get(d)
		if value != "" && !slices.Contains(options, value) {
			return message
		}

		return ""
	}}
}

// Checked fails unless the flag is set.
func Checked[D any](field string, get func(D) bool, message string) Rule[D] {
	return Rule[D]{Field: field, Check: func(d D) string {
		if !get(d) {
			return message
		}

		return ""
	}}
}
