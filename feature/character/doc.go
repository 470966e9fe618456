// Package character refreshes one character at a time from the remote API.
//
// A sync fetches the consolidated profile, resolves the authoritative region
// through the character's guild, computes a mount based identity hash for
// characters without a linked account, persists the profile and refreshes the
// character's membership snapshot in that guild.
//
// A remote not-found is terminal: the character and every active membership
// referencing it are marked unavailable and later syncs skip it.
package character
