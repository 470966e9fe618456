package store

import (
	"context"
	"fmt"

	"roster-sync/feature/models"

	"gorm.io/gorm"
)

// Ranks persists guild rank rows.
type Ranks struct {
	db *gorm.DB
}

// FindByGuild returns the ranks of a guild ordered by rank id.
func (s *Ranks) FindByGuild(ctx context.Context, guildID uint) ([]models.Rank, error) {
	var out []models.Rank
	if err := s.db.WithContext(ctx).Where("guild_id = ?", guildID).Order("rank_id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load ranks: %w", err)
	}
	return out, nil
}

// Create inserts a rank.
func (s *Ranks) Create(ctx context.Context, r *models.Rank) error {
	return s.db.WithContext(ctx).Create(r).Error
}

// UpdateCount sets the member count of a rank, leaving its name untouched.
func (s *Ranks) UpdateCount(ctx context.Context, guildID uint, rankID, count int) error {
	return s.db.WithContext(ctx).Model(&models.Rank{}).
		Where("guild_id = ? AND rank_id = ?", guildID, rankID).
		Update("member_count", count).Error
}

// Rename sets a custom display name for a rank.
func (s *Ranks) Rename(ctx context.Context, guildID uint, rankID int, name string) error {
	res := s.db.WithContext(ctx).Model(&models.Rank{}).
		Where("guild_id = ? AND rank_id = ?", guildID, rankID).
		Update("rank_name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL reports zero affected rows when the name is unchanged
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Rank{}).
		Where("guild_id = ? AND rank_id = ?", guildID, rankID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
