package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"
)

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// Rule checks one property value. It returns the violation message, or ""
// when the value is valid. Nil values are left to NotBlankRule.
type Rule interface {
	Check(value interface{}) string
}

// NotBlankRule rejects nil, zero and empty values
type NotBlankRule struct{}

func (NotBlankRule) Check(value interface{}) string {
	if isBlank(value) {
		return "This value should not be blank."
	}
	return ""
}

// MinRule bounds numbers from below, and the rune count of strings
type MinRule struct {
	Min float64
}

func (r MinRule) Check(value interface{}) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		if float64(utf8.RuneCountInString(s)) < r.Min {
			return fmt.Sprintf("This value is too short. It should have %v characters or more.", r.Min)
		}
		return ""
	}
	n, ok := toFloat64(value)
	if !ok {
		return "This value should be a number."
	}
	if n < r.Min {
		return fmt.Sprintf("This value should be %v or more.", r.Min)
	}
	return ""
}

// MaxRule bounds numbers from above, and the rune count of strings
type MaxRule struct {
	Max float64
}

func (r MaxRule) Check(value interface{}) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		if float64(utf8.RuneCountInString(s)) > r.Max {
			return fmt.Sprintf("This value is too long. It should have %v characters or less.", r.Max)
		}
		return ""
	}
	n, ok := toFloat64(value)
	if !ok {
		return "This value should be a number."
	}
	if n > r.Max {
		return fmt.Sprintf("This value should be %v or less.", r.Max)
	}
	return ""
}

// PatternRule matches strings against a regular expression
type PatternRule struct {
	Pattern *regexp.Regexp
}

func (r PatternRule) Check(value interface{}) string {
	s, ok := value.(string)
	if value == nil || ok && s == "" {
		return ""
	}
	if !ok || !r.Pattern.MatchString(s) {
		return "This value is not valid."
	}
	return ""
}

// EmailRule accepts RFC 5322 addresses
type EmailRule struct{}

func (EmailRule) Check(value interface{}) string {
	s, ok := value.(string)
	if value == nil || ok && s == "" {
		return ""
	}
	if !ok {
		return "This value is not a valid email address."
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return "This value is not a valid email address."
	}
	return ""
}

// URLRule accepts absolute URLs with a scheme and a host
type URLRule struct{}

func (URLRule) Check(value interface{}) string {
	s, ok := value.(string)
	if value == nil || ok && s == "" {
		return ""
	}
	if !ok {
		return "This value is not a valid URL."
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "This value is not a valid URL."
	}
	return ""
}

// PhoneRule accepts E.164 phone numbers
type PhoneRule struct{}

func (PhoneRule) Check(value interface{}) string {
	s, ok := value.(string)
	if value == nil || ok && s == "" {
		return ""
	}
	if !ok || !e164Pattern.MatchString(strings.TrimSpace(s)) {
		return "This value is not a valid phone number."
	}
	return ""
}

// CountRule bounds the number of elements of slices and maps. A negative
// bound is not checked.
type CountRule struct {
	Min, Max int
}

func (r CountRule) Check(value interface{}) string {
	if value == nil {
		return ""
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
	default:
		return "This value should be a collection."
	}
	if r.Min >= 0 && v.Len() < r.Min {
		return fmt.Sprintf("This collection should contain %d elements or more.", r.Min)
	}
	if r.Max >= 0 && v.Len() > r.Max {
		return fmt.Sprintf("This collection should contain %d elements or less.", r.Max)
	}
	return ""
}

// ChoiceRule accepts one of a fixed set of strings
type ChoiceRule struct {
	Choices []string
}

func (r ChoiceRule) Check(value interface{}) string {
	if value == nil {
		return ""
	}
	s := fmt.Sprint(value)
	for _, c := range r.Choices {
		if c == s {
			return ""
		}
	}
	return "The value you selected is not a valid choice."
}

func isBlank(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	}
	return false
}

func toFloat64(value interface{}) (float64, bool) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}
