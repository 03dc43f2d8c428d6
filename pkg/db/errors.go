package db

import "strings"

// IsUniqueViolation reports whether err is a unique-constraint violation.
// When constraintName is given it matches the named Postgres constraint,
// falling back to the driver-agnostic violation text for drivers that do
// not surface constraint names (sqlite).
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
