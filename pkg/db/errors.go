package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
)

// IsUniqueViolation reports whether the error is a unique constraint violation.
// Postgres errors are matched on SQLSTATE 23505, SQLite on its message text.
// When constraintName is provided it must also appear in the error.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return constraintName == "" || strings.Contains(err.Error(), constraintName)
	}
	if code := pkgerrors.PGCode(err); code != "" {
		if code != pkgerrors.PGUniqueViolation {
			return false
		}
		if constraintName == "" {
			return true
		}
		return pkgerrors.PGConstraint(err) == constraintName || strings.Contains(err.Error(), constraintName)
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return true
}

// IsNotFound reports whether the error is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
