package store

import (
	"errors"
	"strings"
)

// ErrDuplicateBatch is returned when a resin-spinning insert or update
// collides with an existing batch number.
var ErrDuplicateBatch = errors.New("batch number already exists")

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key")
}

func likePattern(s string) string {
	return "%" + strings.TrimSpace(s) + "%"
}
