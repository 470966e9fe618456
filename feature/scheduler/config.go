package scheduler

import "time"

// Config holds configuration for the sync schedule.
type Config struct {
	// Interval is the time between two scheduled cycles.
	Interval time.Duration `mapstructure:"interval" default:"15m"`
	// GuildStaleAfter is the age after which a guild is due for sync.
	GuildStaleAfter time.Duration `mapstructure:"guild_stale_after" default:"1h"`
	// CharacterStaleAfter is the age after which a character is due for sync.
	CharacterStaleAfter time.Duration `mapstructure:"character_stale_after" default:"6h"`
	// BatchSize caps the guilds and characters selected per cycle and the rows per insert.
	BatchSize int `mapstructure:"batch_size" default:"200"`
	// MaxUpdateFailures stops selecting characters that failed this many times in a row. 0 disables the cap.
	MaxUpdateFailures int `mapstructure:"max_update_failures" default:"0"`
	// RunOnStart runs a cycle as soon as the scheduler starts.
	RunOnStart bool `mapstructure:"run_on_start" default:"true"`
}
