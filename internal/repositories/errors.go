package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is the storage-level sentinel for a missing row. Services
// translate it into their client-visible NotFound error.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err represents a missing row, from either
// this package's sentinel or gorm directly.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
