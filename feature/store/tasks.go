package store

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"roster-sync/feature/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxTaskError bounds the stored last_error in bytes.
const maxTaskError = 512

// Tasks persists pending guild sync requests.
type Tasks struct {
	db *gorm.DB
}

// Enqueue records a pending sync for a guild. Enqueuing a guild that already
// has a pending task is a no-op.
func (s *Tasks) Enqueue(ctx context.Context, guildID uint, at time.Time) error {
	task := models.GuildSyncTask{GuildID: guildID, EnqueuedAt: at}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&task).Error
}

// Pending returns queued tasks, oldest first.
func (s *Tasks) Pending(ctx context.Context, limit int) ([]models.GuildSyncTask, error) {
	var out []models.GuildSyncTask
	q := s.db.WithContext(ctx).Order("enqueued_at").Order("guild_id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load sync tasks: %w", err)
	}
	return out, nil
}

// Complete removes the task of a guild.
func (s *Tasks) Complete(ctx context.Context, guildID uint) error {
	return s.db.WithContext(ctx).Where("guild_id = ?", guildID).Delete(&models.GuildSyncTask{}).Error
}

// Fail records a failed attempt and returns the new attempt count.
func (s *Tasks) Fail(ctx context.Context, guildID uint, cause error) (int, error) {
	msg := ""
	if cause != nil {
		msg = truncate(cause.Error(), maxTaskError)
	}
	err := s.db.WithContext(ctx).Model(&models.GuildSyncTask{}).Where("guild_id = ?", guildID).Updates(map[string]any{
		"attempts":   gorm.Expr("attempts + ?", 1),
		"last_error": msg,
	}).Error
	if err != nil {
		return 0, err
	}

	var task models.GuildSyncTask
	if err := s.db.WithContext(ctx).Where("guild_id = ?", guildID).First(&task).Error; err != nil {
		return 0, notFound(err)
	}
	return task.Attempts, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
