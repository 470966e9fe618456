// Package guild runs the sync of a single guild.
//
// A sync fetches the remote guild and roster, refreshes the guild's core fields
// (roster snapshot, member count, faction, leader), optionally archives the raw
// roster, then reconciles memberships and ranks.
//
// A remote not-found on either fetch sets excluded_from_sync, after which the
// guild is skipped until an operator clears the flag. A failed membership
// transaction leaves the guild included; its sync time is still bumped so the
// staleness query does not pick it again right away.
package guild
