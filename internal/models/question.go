package models

import (
	"time"
)

// DefaultCollectionID is the reserved "Default" collection. It always exists
// and can never be renamed or deleted.
const DefaultCollectionID uint = 1

type Question struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Text            string    `json:"text" gorm:"type:text;not null"`
	GradingCriteria string    `json:"grading_criteria" gorm:"type:text;not null"`
	CollectionID    uint      `json:"collection_id" gorm:"not null;index;default:1"`
	CreatedAt       time.Time `json:"created_at"`

	// Relations
	Collection *Collection `json:"-" gorm:"foreignKey:CollectionID"`

	// Computed on reads (joined from collection)
	CollectionName string `json:"collection_name,omitempty" gorm:"-"`
}

type Collection struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;size:200"`
	CreatedAt time.Time `json:"created_at"`

	// Computed on reads
	QuestionCount int `json:"question_count" gorm:"-"`
}

// IsDefault reports whether this is the reserved Default collection.
func (c *Collection) IsDefault() bool {
	return c.ID == DefaultCollectionID
}
