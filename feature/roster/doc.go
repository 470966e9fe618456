// Package roster reconciles a guild's local memberships and ranks with its remote roster.
//
// # Members
//
// Diff is a pure function over maps keyed by identity key. It splits the roster into
// memberships to add, memberships to update, memberships to deactivate and
// characters to create. MemberReconciler loads the local state, computes the plan
// and applies it inside one transaction, in that order:
//
//  1. create characters never seen before
//  2. insert memberships (for known and freshly created characters)
//  3. refresh existing memberships (rank, character link, snapshot, availability)
//  4. deactivate memberships missing from the roster
//
// Deactivated memberships stay in the table with is_available=false.
//
// # Ranks
//
// RankReconciler tallies members per rank. Missing ranks are created with a default
// name ("Guild Master" for rank 0, "Rank N" otherwise), changed counts are updated,
// and ranks that vanished from the roster are kept with a count of 0 so custom
// names survive. One failing rank does not stop the others.
package roster
