// Package models defines the persisted entities of the sync engine.
//
// Guild, Character, Membership and Rank rows are never physically deleted here.
// Absence from the remote API is recorded through Availability or
// Guild.ExcludedFromSync instead, since other parts of the application may
// still reference the rows.
package models
