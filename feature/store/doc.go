// Package store implements the gorm persistence collaborators of the sync engine.
//
// A Store groups one accessor per entity (Guilds, Characters, Memberships,
// Ranks, Tasks). Store.Transaction hands the callback a Store whose accessors
// all run inside the same transaction.
//
// Writes go through map based Updates so zero values (a member count of 0, an
// Unavailable flag) are persisted.
package store
