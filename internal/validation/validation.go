package validation

import (
	"net/mail"
	"regexp"
	"strings"
)

// FieldError is one per-field rejection, returned to the client in the
// errors array of a 400 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type FieldErrors []FieldError

func (e FieldErrors) Empty() bool { return len(e) == 0 }

var (
	nameRegex      = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	digitRegex     = regexp.MustCompile(`\d`)
)

// NormalizeEmail applies the normalization used everywhere an email is
// compared or stored: trim and lowercase.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// ValidateRegister checks a registration payload. Client-side checks are
// advisory only, every rule is enforced here.
func ValidateRegister(name, email, password string) FieldErrors {
	var errs FieldErrors

	name = strings.TrimSpace(name)
	switch {
	case name == "":
		errs = append(errs, FieldError{"name", "Full name is required"})
	case len(name) < 2 || len(name) > 50:
		errs = append(errs, FieldError{"name", "Full name must be between 2 and 50 characters long"})
	case !nameRegex.MatchString(name):
		errs = append(errs, FieldError{"name", "Full name can only contain letters and spaces"})
	}

	email = NormalizeEmail(email)
	switch {
	case email == "":
		errs = append(errs, FieldError{"email", "Email is required"})
	case !validEmail(email):
		errs = append(errs, FieldError{"email", "Please provide a valid email address"})
	case len(email) > 100:
		errs = append(errs, FieldError{"email", "Email must not exceed 100 characters"})
	}

	switch {
	case password == "":
		errs = append(errs, FieldError{"password", "Password is required"})
	case len(password) < 6 || len(password) > 128:
		errs = append(errs, FieldError{"password", "Password must be at least 6 characters long"})
	case !uppercaseRegex.MatchString(password) ||
		!lowercaseRegex.MatchString(password) ||
		!digitRegex.MatchString(password):
		errs = append(errs, FieldError{"password", "Password must contain at least one uppercase letter, one lowercase letter, and one number"})
	}

	return errs
}

// ValidateLogin checks a login payload. Password rules are not re-applied
// here, presence is enough; anything else is just a failed login.
func ValidateLogin(email, password string) FieldErrors {
	var errs FieldErrors

	email = NormalizeEmail(email)
	switch {
	case email == "":
		errs = append(errs, FieldError{"email", "Email is required"})
	case !validEmail(email):
		errs = append(errs, FieldError{"email", "Please provide a valid email address"})
	}

	if password == "" {
		errs = append(errs, FieldError{"password", "Password is required"})
	}

	return errs
}
