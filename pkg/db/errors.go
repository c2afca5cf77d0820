package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err is a unique constraint failure on either
// Postgres or SQLite. When constraintName is provided, the helper also requires
// the constraint (or column) text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	unique := strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return true
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ForUpdate reports whether row locks should be requested on tx. SQLite has no
// row locks; its write lock is taken for the whole transaction at BEGIN.
func ForUpdate(tx *gorm.DB) bool {
	return tx != nil && tx.Dialector != nil && tx.Dialector.Name() == "postgres"
}
