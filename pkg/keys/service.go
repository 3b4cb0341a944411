package keys

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gitgist/gitgist/pkg/storage/database"
	"github.com/gitgist/gitgist/pkg/storage/database/models"
)

var (
	// ErrValidation covers malformed or missing input.
	ErrValidation = errors.New("invalid request")
	// ErrUnauthorized covers unknown keys and ownership mismatches alike, so
	// a caller cannot probe which keys exist.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when an update or delete targets a key the
	// owner does not hold.
	ErrNotFound = errors.New("key not found")
	// ErrRateLimited is returned when a key's usage limit has been reached.
	ErrRateLimited = errors.New("usage limit exceeded")
)

// Key is the normalized record handed to callers: timestamps as RFC 3339
// strings, usage count always present, limit null when unset. The key value
// itself is never omitted; masking is a presentation concern.
type Key struct {
	ID          string  `json:"id"`
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	UsageCount  int64   `json:"usage_count"`
	UsageLimit  *int64  `json:"usage_limit"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// Patch carries the caller-mutable fields. Nil leaves a field unchanged; a
// Description pointing at whitespace clears it.
type Patch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type Service struct {
	db database.Database
}

func NewService(db database.Database) *Service {
	return &Service{db: db}
}

func normalize(k models.APIKey) Key {
	return Key{
		ID:          k.ID,
		Key:         k.Key,
		Name:        k.Name,
		Description: k.Description,
		UsageCount:  k.UsageCount,
		UsageLimit:  k.UsageLimit,
		CreatedAt:   k.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   k.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Service) Create(ctx context.Context, ownerID, name string, description *string) (Key, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Key{}, fmt.Errorf("%w: missing key name", ErrValidation)
	}

	if description != nil {
		trimmed := strings.TrimSpace(*description)
		if trimmed == "" {
			description = nil
		} else {
			description = &trimmed
		}
	}

	k, err := s.db.CreateKey(ctx, ownerID, name, description)
	if err != nil {
		return Key{}, err
	}

	log.Info().Str("owner_id", ownerID).Str("key_id", k.ID).Msg("Created API key")
	return normalize(k), nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]Key, error) {
	rows, err := s.db.ListKeysByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	rc := make([]Key, len(rows))
	for i, row := range rows {
		rc[i] = normalize(row)
	}
	return rc, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id string, patch Patch) (Key, error) {
	if patch.Name == nil && patch.Description == nil {
		return Key{}, fmt.Errorf("%w: provide name or description to update", ErrValidation)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return Key{}, fmt.Errorf("%w: key name cannot be empty", ErrValidation)
	}

	k, err := s.db.UpdateKey(ctx, id, ownerID, models.KeyPatch{
		Name:        patch.Name,
		Description: patch.Description,
	})
	if database.IsNotFound(err) {
		return Key{}, ErrNotFound
	}
	if err != nil {
		return Key{}, err
	}
	return normalize(k), nil
}

// SetLimit sets or clears a key's usage limit. A nil limit removes the cap.
func (s *Service) SetLimit(ctx context.Context, ownerID, id string, limit *int64) (Key, error) {
	if limit != nil && *limit < 0 {
		return Key{}, fmt.Errorf("%w: usage limit cannot be negative", ErrValidation)
	}

	k, err := s.db.SetKeyLimit(ctx, id, ownerID, limit)
	if database.IsNotFound(err) {
		return Key{}, ErrNotFound
	}
	if err != nil {
		return Key{}, err
	}
	return normalize(k), nil
}

// Delete always reports success to the caller: removing a key that is
// already gone is not an error the end user can act on.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	removed, err := s.db.DeleteKey(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !removed {
		log.Debug().Str("owner_id", ownerID).Str("key_id", id).Msg("Delete matched no key")
	}
	return nil
}

// Verify checks a literal key value and meters one use on success. When an
// owner id is supplied the key must also belong to that owner; unknown keys
// and ownership mismatches are reported identically.
func (s *Service) Verify(ctx context.Context, literalKey, ownerID string) error {
	literalKey = strings.TrimSpace(literalKey)
	if literalKey == "" {
		return fmt.Errorf("%w: missing key", ErrValidation)
	}

	k, err := s.db.GetKeyByKey(ctx, literalKey)
	if database.IsNotFound(err) {
		return ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if ownerID != "" && k.OwnerID != ownerID {
		return ErrUnauthorized
	}

	count, err := s.db.ConsumeKey(ctx, k.ID)
	if errors.Is(err, models.ErrUsageExceeded) {
		return ErrRateLimited
	}
	if database.IsNotFound(err) {
		// Deleted between lookup and increment.
		return ErrUnauthorized
	}
	if err != nil {
		return err
	}

	log.Debug().Str("key_id", k.ID).Int64("usage_count", count).Msg("Verified API key")
	return nil
}
