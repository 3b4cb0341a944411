package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/gitgist/gitgist/pkg/config"
	"github.com/gitgist/gitgist/pkg/storage/database/gorm"
	"github.com/gitgist/gitgist/pkg/storage/database/models"
)

// Database is the persistence boundary for API keys. Implementations must
// make ConsumeKey a single atomic conditional update: two concurrent calls
// against a key with one remaining use admit exactly one.
type Database interface {
	CreateKey(ctx context.Context, ownerID, name string, description *string) (models.APIKey, error)
	ListKeysByOwner(ctx context.Context, ownerID string) ([]models.APIKey, error)
	GetKeyByID(ctx context.Context, id string) (models.APIKey, error)
	GetKeyByKey(ctx context.Context, key string) (models.APIKey, error)
	UpdateKey(ctx context.Context, id, ownerID string, patch models.KeyPatch) (models.APIKey, error)
	SetKeyLimit(ctx context.Context, id, ownerID string, limit *int64) (models.APIKey, error)

	// DeleteKey reports whether a row was actually removed. Callers that
	// want idempotent delete semantics ignore the bool.
	DeleteKey(ctx context.Context, id, ownerID string) (bool, error)

	// ConsumeKey increments the key's usage count by one and returns the
	// new count, or models.ErrUsageExceeded without incrementing when the
	// limit has been reached.
	ConsumeKey(ctx context.Context, id string) (int64, error)
}

func NewConnection(conf config.Database) (Database, error) {
	switch conf.Type {
	case "sqlite", "postgres":
		return gorm.NewGorm(conf)
	}
	return nil, fmt.Errorf("unknown database type: %s", conf.Type)
}

func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrKeyNotFound)
}
