package store

import (
	"context"
	"fmt"

	"roster-sync/feature/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Memberships persists guild membership rows.
type Memberships struct {
	db *gorm.DB
}

// MembershipUpdate holds the fields refreshed on an existing membership.
// RankID and CharacterID are written only when non-nil.
type MembershipUpdate struct {
	ID          uint
	RankID      *int
	CharacterID *uint
	Name        string
	Realm       string
	ClassName   string
	Member      datatypes.JSON
}

// FindByGuild returns every membership of a guild, available or not.
func (s *Memberships) FindByGuild(ctx context.Context, guildID uint) ([]models.Membership, error) {
	var out []models.Membership
	if err := s.db.WithContext(ctx).Where("guild_id = ?", guildID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}
	return out, nil
}

// FindActive returns the available membership of a character in a guild.
func (s *Memberships) FindActive(ctx context.Context, guildID, characterID uint) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND character_id = ? AND is_available = ?", guildID, characterID, models.Active).
		First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// CreateBatch inserts memberships in batches.
func (s *Memberships) CreateBatch(ctx context.Context, rows []*models.Membership, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(rows, batchSize).Error
}

// Update refreshes the snapshot of an existing membership and marks it available.
func (s *Memberships) Update(ctx context.Context, u MembershipUpdate) error {
	fields := map[string]any{
		"name":         u.Name,
		"realm":        u.Realm,
		"class_name":   u.ClassName,
		"member":       u.Member,
		"is_available": models.Active,
	}
	if u.RankID != nil {
		fields["rank_id"] = *u.RankID
	}
	if u.CharacterID != nil {
		fields["character_id"] = *u.CharacterID
	}
	return s.db.WithContext(ctx).Model(&models.Membership{}).Where("id = ?", u.ID).Updates(fields).Error
}

// RefreshSnapshot updates the cached name and class and marks the membership available.
func (s *Memberships) RefreshSnapshot(ctx context.Context, id uint, name, className string) error {
	return s.db.WithContext(ctx).Model(&models.Membership{}).Where("id = ?", id).Updates(map[string]any{
		"name":         name,
		"class_name":   className,
		"is_available": models.Active,
	}).Error
}

// Deactivate marks the given memberships unavailable. Rows are kept.
func (s *Memberships) Deactivate(ctx context.Context, ids []uint) error {
	for _, chunk := range chunks(ids, lookupChunk) {
		err := s.db.WithContext(ctx).Model(&models.Membership{}).
			Where("id IN ?", chunk).
			Update("is_available", models.Unavailable).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// DeactivateByCharacter marks every available membership of a character
// unavailable and returns how many rows changed.
func (s *Memberships) DeactivateByCharacter(ctx context.Context, characterID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("character_id = ? AND is_available = ?", characterID, models.Active).
		Update("is_available", models.Unavailable)
	return res.RowsAffected, res.Error
}
