package gorm

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gitgist/gitgist/pkg/config"
	"github.com/gitgist/gitgist/pkg/storage/database/models"
	"github.com/gitgist/gitgist/pkg/util"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const keyPrefix = "gg-"

type Gorm struct {
	DSN string `mapstructure:"dsn"`
	db  *gorm.DB
}

func NewGorm(conf config.Database) (*Gorm, error) {
	rc := util.ConfigToStruct[Gorm](conf.Settings)
	var (
		db  *gorm.DB
		err error
	)
	switch conf.Type {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(rc.DSN), &gorm.Config{})
	case "postgres":
		db, err = gorm.Open(postgres.Open(rc.DSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unknown database type: %s", conf.Type)
	}
	if err != nil {
		return nil, err
	}

	if conf.Type == "sqlite" {
		// sqlite has a single writer; serialize connections so concurrent
		// conditional updates queue instead of failing with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	rc.db = db

	if err := db.AutoMigrate(&models.APIKey{}); err != nil {
		return nil, err
	}

	return rc, nil
}

func generateKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}
	return keyPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

func (s *Gorm) CreateKey(ctx context.Context, ownerID, name string, description *string) (models.APIKey, error) {
	key, err := generateKey()
	if err != nil {
		return models.APIKey{}, err
	}

	k := models.APIKey{
		Key:         key,
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
	}
	if res := s.db.WithContext(ctx).Create(&k); res.Error != nil {
		return models.APIKey{}, res.Error
	}
	return k, nil
}

func (s *Gorm) ListKeysByOwner(ctx context.Context, ownerID string) ([]models.APIKey, error) {
	keys := make([]models.APIKey, 0)
	res := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&keys)
	if res.Error != nil {
		return nil, res.Error
	}
	return keys, nil
}

func (s *Gorm) GetKeyByID(ctx context.Context, id string) (models.APIKey, error) {
	var k models.APIKey
	res := s.db.WithContext(ctx).First(&k, "id = ?", id)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return models.APIKey{}, models.ErrKeyNotFound
	}
	return k, res.Error
}

func (s *Gorm) GetKeyByKey(ctx context.Context, key string) (models.APIKey, error) {
	var k models.APIKey
	res := s.db.WithContext(ctx).First(&k, "key = ?", key)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return models.APIKey{}, models.ErrKeyNotFound
	}
	return k, res.Error
}

func (s *Gorm) UpdateKey(ctx context.Context, id, ownerID string, patch models.KeyPatch) (models.APIKey, error) {
	if patch.Empty() {
		return s.GetKeyByID(ctx, id)
	}

	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		if trimmed := strings.TrimSpace(*patch.Description); trimmed != "" {
			updates["description"] = trimmed
		} else {
			updates["description"] = nil
		}
	}

	res := s.db.WithContext(ctx).
		Model(&models.APIKey{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(updates)
	if res.Error != nil {
		return models.APIKey{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.APIKey{}, models.ErrKeyNotFound
	}

	return s.GetKeyByID(ctx, id)
}

func (s *Gorm) SetKeyLimit(ctx context.Context, id, ownerID string, limit *int64) (models.APIKey, error) {
	res := s.db.WithContext(ctx).
		Model(&models.APIKey{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]any{"usage_limit": limit})
	if res.Error != nil {
		return models.APIKey{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.APIKey{}, models.ErrKeyNotFound
	}

	return s.GetKeyByID(ctx, id)
}

func (s *Gorm) DeleteKey(ctx context.Context, id, ownerID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.APIKey{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ConsumeKey is the metering write. The limit check and the increment are a
// single conditional UPDATE so concurrent consumers cannot both take the
// last remaining use.
func (s *Gorm) ConsumeKey(ctx context.Context, id string) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.APIKey{}).
		Where("id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", id).
		Updates(map[string]any{"usage_count": gorm.Expr("usage_count + 1")})
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		// Either the key is gone or the limit blocked the increment.
		if _, err := s.GetKeyByID(ctx, id); err != nil {
			return 0, err
		}
		return 0, models.ErrUsageExceeded
	}

	k, err := s.GetKeyByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return k.UsageCount, nil
}
