package validation

import (
	"regexp"
	"sort"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// NonFieldErrors is the key used for errors not tied to a single field.
const NonFieldErrors = "non_field_errors"

// Common messages.
const (
	MsgRequired       = "This field is required."
	MsgNullNotAllowed = "This field may not be null."
	MsgInvalidEmail   = "Enter a valid email address."
	MsgInvalidChoice  = "Select a valid choice."
	MsgDoesNotExist   = "Object does not exist."
)

// Errors collects messages per field. The zero value is ready to use.
type Errors map[string][]string

// Add appends a message for field.
func (e *Errors) Add(field, message string) {
	if *e == nil {
		*e = Errors{}
	}
	(*e)[field] = append((*e)[field], message)
}

// Empty reports whether no errors were recorded.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Error implements error so validation failures travel through service returns.
func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// OrNil returns nil when e holds no errors.
func (e Errors) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}
