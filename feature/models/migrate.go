package models

import "gorm.io/gorm"

// All returns every model owned by the sync engine, in dependency order.
func All() []any {
	return []any{
		&Guild{},
		&Character{},
		&Membership{},
		&Rank{},
		&GuildSyncTask{},
	}
}

// Migrate creates or updates the sync engine tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
