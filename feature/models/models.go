package models

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// DefaultRole is assigned to characters first seen through a roster.
const DefaultRole = "DPS"

// Guild is a locally tracked guild. Rows are never deleted; ExcludedFromSync
// is the terminal state after the remote API confirms the guild is gone.
type Guild struct {
	ID                 uint           `gorm:"column:id;primaryKey"`
	ExternalID         *int64         `gorm:"column:external_id;uniqueIndex"`
	Name               string         `gorm:"column:name;size:64;not null;index:idx_guild_lookup,priority:3"`
	Realm              string         `gorm:"column:realm;size:64;not null;index:idx_guild_lookup,priority:2"` // realm slug
	Region             string         `gorm:"column:region;size:8;not null;index:idx_guild_lookup,priority:1"`
	Faction            string         `gorm:"column:faction;size:16"`
	Roster             datatypes.JSON `gorm:"column:roster"`
	LeaderID           *uint          `gorm:"column:leader_id"`
	MemberCount        int            `gorm:"column:member_count;not null;default:0"`
	LastSyncedAt       *time.Time     `gorm:"column:last_synced_at;index"`
	LastRosterSyncedAt *time.Time     `gorm:"column:last_roster_synced_at"`
	ExcludedFromSync   bool           `gorm:"column:excluded_from_sync;not null;default:false"`
	CreatedAt          time.Time      `gorm:"column:created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Guild) TableName() string {
	return "guilds"
}

// Character is a locally tracked character.
type Character struct {
	ID                        uint           `gorm:"column:id;primaryKey"`
	ExternalID                *int64         `gorm:"column:external_id;index"`
	Name                      string         `gorm:"column:name;size:64;not null"`
	Realm                     string         `gorm:"column:realm;size:64;not null"` // realm slug
	Region                    string         `gorm:"column:region;size:8;not null;index:idx_character_identity,priority:1"`
	IdentityKey               string         `gorm:"column:identity_key;size:191;not null;index:idx_character_identity,priority:2"`
	Level                     int            `gorm:"column:level"`
	Class                     string         `gorm:"column:class;size:32"`
	Role                      string         `gorm:"column:role;size:16;not null"`
	Availability              Availability   `gorm:"column:is_available;type:boolean;not null"`
	ConsecutiveUpdateFailures int            `gorm:"column:consecutive_update_failures;not null;default:0"`
	Profile                   datatypes.JSON `gorm:"column:profile"`
	IdentityHash              *string        `gorm:"column:identity_hash;size:64"`
	UserID                    *uint          `gorm:"column:user_id;index"` // linked owner account
	LastSyncedAt              *time.Time     `gorm:"column:last_synced_at;index"`
	CreatedAt                 time.Time      `gorm:"column:created_at"`
	UpdatedAt                 time.Time      `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Character) TableName() string {
	return "characters"
}

// Membership links a character to a guild with a rank and a cached roster snapshot.
type Membership struct {
	ID           uint           `gorm:"column:id;primaryKey"`
	GuildID      uint           `gorm:"column:guild_id;not null;uniqueIndex:idx_membership_key,priority:1"`
	IdentityKey  string         `gorm:"column:identity_key;size:191;not null;uniqueIndex:idx_membership_key,priority:2"`
	CharacterID  *uint          `gorm:"column:character_id;index"`
	Name         string         `gorm:"column:name;size:64"`
	Realm        string         `gorm:"column:realm;size:64"`
	ClassName    string         `gorm:"column:class_name;size:32"`
	RankID       int            `gorm:"column:rank_id;not null"`
	Availability Availability   `gorm:"column:is_available;type:boolean;not null"`
	Member       datatypes.JSON `gorm:"column:member"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Membership) TableName() string {
	return "guild_memberships"
}

// Rank is a guild rank keyed by (guild, rank id). Rows are kept with a zero
// count when the rank disappears so custom names survive.
type Rank struct {
	GuildID     uint   `gorm:"column:guild_id;primaryKey;autoIncrement:false"`
	RankID      int    `gorm:"column:rank_id;primaryKey;autoIncrement:false"`
	RankName    string `gorm:"column:rank_name;size:64;not null"`
	MemberCount int    `gorm:"column:member_count;not null;default:0"`
}

// TableName overrides the table name.
func (Rank) TableName() string {
	return "guild_ranks"
}

// GuildSyncTask is a pending request to sync one guild outside the staleness schedule.
type GuildSyncTask struct {
	GuildID    uint      `gorm:"column:guild_id;primaryKey;autoIncrement:false"`
	EnqueuedAt time.Time `gorm:"column:enqueued_at;not null;index"`
	Attempts   int       `gorm:"column:attempts;not null;default:0"`
	LastError  string    `gorm:"column:last_error;size:512"`
}

// TableName overrides the table name.
func (GuildSyncTask) TableName() string {
	return "guild_sync_tasks"
}

// RankName returns the default display name for a rank id.
func RankName(rankID int) string {
	if rankID == 0 {
		return "Guild Master"
	}
	return "Rank " + strconv.Itoa(rankID)
}
