package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey is one issued credential. Rows are removed outright on delete,
// so there is no gorm.DeletedAt column.
type APIKey struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Key         string `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"not null"`
	Description *string
	OwnerID     string `gorm:"index;not null"`
	UsageCount  int64  `gorm:"not null;default:0"`
	UsageLimit  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.New().String()
	}
	return nil
}

func (APIKey) TableName() string {
	return "api_keys"
}

// KeyPatch carries the mutable fields of an APIKey. Nil means "leave
// unchanged"; a non-nil Description pointing at an empty string clears it.
type KeyPatch struct {
	Name        *string
	Description *string
}

func (p KeyPatch) Empty() bool {
	return p.Name == nil && p.Description == nil
}
