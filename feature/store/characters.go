package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"roster-sync/core/identity"
	"roster-sync/feature/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Characters persists character rows.
type Characters struct {
	db *gorm.DB
}

// CharacterUpdate holds the fields written after a successful profile fetch.
type CharacterUpdate struct {
	ExternalID  int64
	Name        string
	Realm       string
	Region      string
	IdentityKey string
	Level       int
	Class       string
	Profile     datatypes.JSON
	// IdentityHash is written only when non-nil.
	IdentityHash *string
	SyncedAt     time.Time
}

// FindByID returns the character with the given local id.
func (s *Characters) FindByID(ctx context.Context, id uint) (*models.Character, error) {
	var c models.Character
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindByKey returns the character with the given identity key in region.
func (s *Characters) FindByKey(ctx context.Context, region, key string) (*models.Character, error) {
	var c models.Character
	err := s.db.WithContext(ctx).
		Where("region = ? AND identity_key = ?", region, key).
		Order("id").
		First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// IDsByKeys maps identity keys to character ids for the characters of region
// that match any of keys. When duplicates exist the oldest row wins.
func (s *Characters) IDsByKeys(ctx context.Context, region string, keys []string) (map[string]uint, error) {
	out := make(map[string]uint, len(keys))
	for _, chunk := range chunks(keys, lookupChunk) {
		var rows []struct {
			ID          uint
			IdentityKey string
		}
		err := s.db.WithContext(ctx).Model(&models.Character{}).
			Select("id", "identity_key").
			Where("region = ? AND identity_key IN ?", region, chunk).
			Order("id").
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to look up characters: %w", err)
		}
		for _, r := range rows {
			if _, ok := out[r.IdentityKey]; !ok {
				out[r.IdentityKey] = r.ID
			}
		}
	}
	return out, nil
}

// LinkedUser returns the account linked to the character with the given key
// in region, or nil when there is none.
func (s *Characters) LinkedUser(ctx context.Context, region, key string) (*uint, error) {
	var c models.Character
	err := s.db.WithContext(ctx).
		Select("user_id").
		Where("region = ? AND identity_key = ? AND user_id IS NOT NULL", region, key).
		Order("id").
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c.UserID, nil
}

// Register returns the character matching region, realm and name, creating it
// when it is not tracked yet. The boolean reports whether a row was created.
func (s *Characters) Register(ctx context.Context, region, realm, name string) (*models.Character, bool, error) {
	name = strings.TrimSpace(name)
	if region == "" || realm == "" || name == "" {
		return nil, false, fmt.Errorf("region, realm and name are required")
	}
	region = strings.ToLower(region)
	realm = identity.Slug(realm)
	key := identity.Key(name, realm)

	c, err := s.FindByKey(ctx, region, key)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up character: %w", err)
	}

	c = &models.Character{
		Name:        name,
		Realm:       realm,
		Region:      region,
		IdentityKey: key,
		Role:        models.DefaultRole,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create character: %w", err)
	}
	return c, true, nil
}

// CreateBatch inserts characters in batches and fills their ids.
func (s *Characters) CreateBatch(ctx context.Context, chars []*models.Character, batchSize int) error {
	if len(chars) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(chars, batchSize).Error
}

// ApplySync writes a successful sync: the refreshed profile, availability and
// a reset failure counter.
func (s *Characters) ApplySync(ctx context.Context, id uint, u CharacterUpdate) error {
	fields := map[string]any{
		"external_id":                 u.ExternalID,
		"name":                        u.Name,
		"realm":                       u.Realm,
		"region":                      u.Region,
		"identity_key":                u.IdentityKey,
		"level":                       u.Level,
		"class":                       u.Class,
		"profile":                     u.Profile,
		"is_available":                models.Active,
		"consecutive_update_failures": 0,
		"last_synced_at":              u.SyncedAt,
	}
	if u.IdentityHash != nil {
		fields["identity_hash"] = *u.IdentityHash
	}
	return s.db.WithContext(ctx).Model(&models.Character{}).Where("id = ?", id).Updates(fields).Error
}

// MarkUnavailable flags the character as no longer present remotely.
func (s *Characters) MarkUnavailable(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Character{}).Where("id = ?", id).Updates(map[string]any{
		"is_available":   models.Unavailable,
		"last_synced_at": at,
	}).Error
}

// RecordFailure increments the consecutive failure counter. When at is
// non-nil last_synced_at is bumped as well.
func (s *Characters) RecordFailure(ctx context.Context, id uint, at *time.Time) error {
	fields := map[string]any{
		"consecutive_update_failures": gorm.Expr("consecutive_update_failures + ?", 1),
	}
	if at != nil {
		fields["last_synced_at"] = *at
	}
	return s.db.WithContext(ctx).Model(&models.Character{}).Where("id = ?", id).Updates(fields).Error
}

// ResetFailures clears the failure counter so the character is scheduled again.
func (s *Characters) ResetFailures(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.Character{}).Where("id = ?", id).
		Update("consecutive_update_failures", 0).Error
}

// FindOutdated returns available characters whose last sync is older than
// before (or that were never synced). Characters with fewer consecutive
// failures come first, then the oldest. When maxFailures is positive,
// characters that failed at least that many times in a row are left out.
func (s *Characters) FindOutdated(ctx context.Context, before time.Time, maxFailures, limit int) ([]models.Character, error) {
	var chars []models.Character
	q := s.db.WithContext(ctx).
		Where("is_available = ?", models.Active).
		Where("last_synced_at IS NULL OR last_synced_at < ?", before)
	if maxFailures > 0 {
		q = q.Where("consecutive_update_failures < ?", maxFailures)
	}
	// Failing rows sort last so they cannot fill every batch
	q = q.Order("consecutive_update_failures").
		Order("last_synced_at IS NOT NULL").Order("last_synced_at").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&chars).Error; err != nil {
		return nil, fmt.Errorf("failed to find outdated characters: %w", err)
	}
	return chars, nil
}
