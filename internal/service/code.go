package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

const MaxCodeLength = 50

var codePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidateCode checks referral code syntax. Codes are compared verbatim:
// no trimming or case folding happens anywhere.
func ValidateCode(code string) error {
	if len(code) == 0 || len(code) > MaxCodeLength {
		return fmt.Errorf("%w: code must be 1-%d characters", ErrInvalidInput, MaxCodeLength)
	}
	if !codePattern.MatchString(code) {
		return fmt.Errorf("%w: code may only contain lowercase letters, digits and hyphens", ErrInvalidInput)
	}
	return nil
}

// SuggestCode derives a candidate code from free text, e.g. a link
// description. The result may be empty when text has no usable characters.
func SuggestCode(text string) string {
	s := slug.Make(text)
	if len(s) > MaxCodeLength {
		s = s[:MaxCodeLength]
	}
	return strings.Trim(s, "-")
}
