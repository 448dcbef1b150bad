package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func ValidateRegister(email, displayName, password string) ValidationErrors {
	errs := make(ValidationErrors)

	// Email
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	// Display name
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		errs.Add("display_name", "Display name is required")
	} else if len(displayName) < 2 {
		errs.Add("display_name", "Display name must be at least 2 characters")
	} else if len(displayName) > 100 {
		errs.Add("display_name", "Display name is too long")
	}

	// Password
	validatePassword(password, errs)

	return errs
}

func ValidateParcel(originCity, destinationCity, parcelType string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(originCity) == "" {
		errs.Add("origin_city", "Origin city is required")
	}
	if strings.TrimSpace(destinationCity) == "" {
		errs.Add("destination_city", "Destination city is required")
	}
	if strings.TrimSpace(parcelType) == "" {
		errs.Add("parcel_type", "Parcel type is required")
	} else if len(parcelType) > 100 {
		errs.Add("parcel_type", "Parcel type is too long")
	}

	return errs
}

func ValidateTrip(originCity, destinationCity string, from, until time.Time) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(originCity) == "" {
		errs.Add("origin_city", "Origin city is required")
	}
	if strings.TrimSpace(destinationCity) == "" {
		errs.Add("destination_city", "Destination city is required")
	}
	if from.IsZero() {
		errs.Add("available_from", "Start of the availability window is required")
	}
	if until.IsZero() {
		errs.Add("available_until", "End of the availability window is required")
	} else if !from.IsZero() && until.Before(from) {
		errs.Add("available_until", "Availability window must end after it starts")
	}

	return errs
}

func validatePassword(password string, errs ValidationErrors) {
	if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
		return
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	missing := []string{}
	if !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "one number")
	}

	if len(missing) > 0 {
		errs.Add("password", fmt.Sprintf("Password must contain at least %s", strings.Join(missing, ", ")))
	}
}
