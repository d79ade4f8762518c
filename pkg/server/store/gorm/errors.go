package gorm

import "strings"

// isUniqueViolation reports whether err is a unique-constraint violation.
// Matched on the postgres error text so it works with both the pgx and pq
// drivers (sqlstate 23505).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "23505")
}
