package storage

import "strings"

// isUniqueViolation detects a UNIQUE constraint failure from the sqlite
// driver without depending on its error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
