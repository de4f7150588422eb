package utils

import (
	"errors"
	"regexp"
)

var (
	usernameRe    = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,32}$`)
	batchNumberRe = regexp.MustCompile(`^[^\s/\\]{1,100}$`)
)

func ValidateUsername(s string) error {
	if !usernameRe.MatchString(s) {
		return errors.New("invalid username")
	}
	return nil
}

// ValidateBatchNumber rejects whitespace and path separators; batch numbers
// end up in filenames and QR payloads.
func ValidateBatchNumber(s string) error {
	if !batchNumberRe.MatchString(s) {
		return errors.New("invalid batch number")
	}
	return nil
}
