package credentials

import "github.com/dmitrijs2005/tenantgov/internal/common"

// TempPasswordLength is the length of passwords issued by ResetPassword.
const TempPasswordLength = 8

// tempPasswordAlphabet has no vowels so issued passwords do not spell words.
const tempPasswordAlphabet = "0123456789" +
	"bcdfghjkmnpqrstvwxyz" +
	"BCDFGHJKLMNPQRSTVWXYZ" +
	"#$%*-"

// NewTempPassword returns a random password drawn from the restricted
// alphabet.
func NewTempPassword() (string, error) {
	return common.RandomString(tempPasswordAlphabet, TempPasswordLength)
}
