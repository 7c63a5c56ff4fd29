package models

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

// EmailPattern is the loose address shape accepted at registration.
var EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

// Validate checks the registration payload.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("Please enter your name")),
		validation.Field(
			&r.Email,
			validation.Required.Error("Please enter your email"),
			validation.Match(EmailPattern).Error("Please enter a valid email"),
		),
		validation.Field(
			&r.Password,
			validation.Required.Error("Please enter a password!"),
			validation.Length(MinPasswordLength, 0).Error("Password must be at least 6 characters!"),
			validation.By(maxBytes(MaxPasswordBytes, "Password must be at most 72 bytes!")),
		),
	)
}

// Validate checks the activation payload.
func (r ActivateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ActivationToken, validation.Required),
		validation.Field(&r.ActivationCode, validation.Required),
	)
}

// maxBytes limits the encoded length of a string, unlike validation.Length
// which counts runes.
func maxBytes(limit int, msg string) validation.RuleFunc {
	return func(value interface{}) error {
		if s, ok := value.(string); ok && len(s) > limit {
			return errors.New(msg)
		}
		return nil
	}
}
