// Package identity builds the normalized join keys used by every roster diff.
//
// Remote rosters and local rows never share object identity, so all matching goes
// through Key(name, realm). Matching is case-insensitive and tolerant of empty fields.
package identity
