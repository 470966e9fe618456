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

// Guilds persists guild rows.
type Guilds struct {
	db *gorm.DB
}

// GuildCore holds the fields refreshed by a guild sync.
type GuildCore struct {
	ExternalID  int64
	Name        string
	Realm       string
	Faction     string
	Roster      datatypes.JSON
	MemberCount int
	// LeaderID is written only when non-nil.
	LeaderID *uint
	SyncedAt time.Time
}

// FindByID returns the guild with the given local id.
func (s *Guilds) FindByID(ctx context.Context, id uint) (*models.Guild, error) {
	var g models.Guild
	if err := s.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// FindByExternalID returns the guild with the given remote id.
func (s *Guilds) FindByExternalID(ctx context.Context, externalID int64) (*models.Guild, error) {
	var g models.Guild
	if err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&g).Error; err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// FindByName returns the guild matching region, realm and name, ignoring case.
func (s *Guilds) FindByName(ctx context.Context, region, realm, name string) (*models.Guild, error) {
	var g models.Guild
	err := s.db.WithContext(ctx).
		Where("region = ? AND realm = ? AND LOWER(name) = ?",
			strings.ToLower(region), identity.Slug(realm), strings.ToLower(strings.TrimSpace(name))).
		First(&g).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// Register returns the guild matching region, realm and name, creating it when
// it is not tracked yet. The boolean reports whether a row was created.
func (s *Guilds) Register(ctx context.Context, region, realm, name string) (*models.Guild, bool, error) {
	name = strings.TrimSpace(name)
	if region == "" || realm == "" || name == "" {
		return nil, false, fmt.Errorf("region, realm and name are required")
	}

	g, err := s.FindByName(ctx, region, realm, name)
	if err == nil {
		return g, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up guild: %w", err)
	}

	g = &models.Guild{
		Name:   name,
		Realm:  identity.Slug(realm),
		Region: strings.ToLower(region),
	}
	if err := s.db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create guild: %w", err)
	}
	return g, true, nil
}

// CreateStub returns the guild with the given remote id, creating a minimal
// row that has never been synced when it is unknown. A guild registered by
// name that has no remote id yet is adopted instead of duplicated. The
// boolean reports whether a row was created.
func (s *Guilds) CreateStub(ctx context.Context, externalID int64, region, realm, name string) (*models.Guild, bool, error) {
	g, err := s.FindByExternalID(ctx, externalID)
	if err == nil {
		return g, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	g, err = s.FindByName(ctx, region, realm, name)
	switch {
	case err == nil && g.ExternalID == nil:
		if err := s.db.WithContext(ctx).Model(&models.Guild{}).
			Where("id = ? AND external_id IS NULL", g.ID).
			Update("external_id", externalID).Error; err != nil {
			return nil, false, fmt.Errorf("failed to adopt guild %d: %w", g.ID, err)
		}
		g.ExternalID = &externalID
		return g, false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, false, fmt.Errorf("failed to look up guild: %w", err)
	}

	g = &models.Guild{
		ExternalID: &externalID,
		Name:       name,
		Realm:      identity.Slug(realm),
		Region:     strings.ToLower(region),
	}
	if err := s.db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create guild stub: %w", err)
	}
	return g, true, nil
}

// UpdateCore writes the fields refreshed by a successful guild and roster fetch.
// It bumps both last_synced_at and last_roster_synced_at.
func (s *Guilds) UpdateCore(ctx context.Context, id uint, core GuildCore) error {
	fields := map[string]any{
		"external_id":           core.ExternalID,
		"name":                  core.Name,
		"realm":                 core.Realm,
		"faction":               core.Faction,
		"roster":                core.Roster,
		"member_count":          core.MemberCount,
		"last_synced_at":        core.SyncedAt,
		"last_roster_synced_at": core.SyncedAt,
	}
	if core.LeaderID != nil {
		fields["leader_id"] = *core.LeaderID
	}
	return s.db.WithContext(ctx).Model(&models.Guild{}).Where("id = ?", id).Updates(fields).Error
}

// Touch bumps last_synced_at without changing anything else.
func (s *Guilds) Touch(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Guild{}).Where("id = ?", id).
		Update("last_synced_at", at).Error
}

// Exclude marks a guild as permanently removed from the sync schedule.
func (s *Guilds) Exclude(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Guild{}).Where("id = ?", id).Updates(map[string]any{
		"excluded_from_sync": true,
		"last_synced_at":     at,
	}).Error
}

// Include clears the exclusion flag so the guild is scheduled again.
func (s *Guilds) Include(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.Guild{}).Where("id = ?", id).
		Update("excluded_from_sync", false).Error
}

// FindOutdated returns guilds not excluded from sync whose last sync is older
// than before (or that were never synced), oldest first.
func (s *Guilds) FindOutdated(ctx context.Context, before time.Time, limit int) ([]models.Guild, error) {
	var guilds []models.Guild
	q := s.db.WithContext(ctx).
		Where("excluded_from_sync = ?", false).
		Where("last_synced_at IS NULL OR last_synced_at < ?", before).
		Order("last_synced_at IS NOT NULL").
		Order("last_synced_at").
		Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&guilds).Error; err != nil {
		return nil, fmt.Errorf("failed to find outdated guilds: %w", err)
	}
	return guilds, nil
}
