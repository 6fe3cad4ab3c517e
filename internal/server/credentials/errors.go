package credentials

import (
	"fmt"

	"github.com/dmitrijs2005/tenantgov/internal/common"
)

type Reason string

const (
	ReasonBlank        Reason = "blank password not allowed"
	ReasonTooShort     Reason = "password is too short"
	ReasonTooLong      Reason = "password is too long"
	ReasonInvalidChar  Reason = "invalid character found in password"
	ReasonLower        Reason = "requires additional lower-alpha characters"
	ReasonUpper        Reason = "requires additional upper-alpha characters"
	ReasonAlpha        Reason = "requires additional alpha characters"
	ReasonDigits       Reason = "requires additional digit characters"
	ReasonSpecial      Reason = "requires additional special characters"
	ReasonNonAlpha     Reason = "requires additional non-alpha characters"
	ReasonCategories   Reason = "requires additional character categories"
	ReasonEncodedBlank Reason = "encoded password is blank"
	ReasonMatchesPrior Reason = "must not match prior password"
)

// ValidationError is returned when a new password violates the policy.
// It matches common.ErrPasswordRejected with errors.Is.
type ValidationError struct {
	Reason Reason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", common.ErrPasswordRejected, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return common.ErrPasswordRejected
}

func reject(r Reason) error {
	return &ValidationError{Reason: r}
}
