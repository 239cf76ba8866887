package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/classpulse/feedback-service/internal/repositories"
)

// translateError maps gorm's not-found sentinel to the repository-level one
// so services never import gorm to classify errors.
func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return err
}
