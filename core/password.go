package core

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	pwdMinLen = 8
	pwdMaxSim = 0.7
)

var (
	errPwdTooShort   = FieldError{Field: "password", Error: "must be at least 8 characters long"}
	errPwdWhiteSpace = FieldError{Field: "password", Error: "must not contain whitespace"}
	errPwdAllNumeric = FieldError{Field: "password", Error: "must not be entirely numeric"}
	errPwdAttrSim    = FieldError{Field: "password", Error: "is too similar to other account attributes"}
)

// ValidatePassword applies the password policy to the provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no similarity with the account attributes
func ValidatePassword(pwd string, attrs ...string) error {
	report := func(fld FieldError) error {
		return NewValidationError(errors.New("invalid password"), fld)
	}

	runes := []rune(pwd)
	if len(runes) < pwdMinLen {
		return report(errPwdTooShort)
	}

	var digitCount int
	for _, char := range runes {
		if unicode.IsSpace(char) {
			return report(errPwdWhiteSpace)
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len(runes) {
		return report(errPwdAllNumeric)
	}

	getRatio := func(pass, attr string) float64 {
		if attr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(attr, "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if getRatio(lpwd, strings.ToLower(attr)) >= pwdMaxSim {
			return report(errPwdAttrSim)
		}
	}
	return nil
}
