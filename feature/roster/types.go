package roster

import (
	"errors"

	"roster-sync/feature/models"

	"gorm.io/datatypes"
)

// ErrApply wraps any failure of the membership transaction. Nothing from the
// failed transaction is persisted.
var ErrApply = errors.New("roster apply failed")

// RemoteMember is a roster entry keyed by identity.
type RemoteMember struct {
	Key        string
	ExternalID int64
	Name       string
	Realm      string // realm slug
	RankID     int
	ClassName  string
	Level      int
	Raw        datatypes.JSON
}

// LocalMembership is the part of an existing membership the diff needs.
type LocalMembership struct {
	ID           uint
	CharacterID  *uint
	RankID       int
	Availability models.Availability
}

// Input is everything a diff is computed from. All maps are keyed by identity key.
type Input struct {
	Roster      map[string]RemoteMember
	Memberships map[string]LocalMembership
	Characters  map[string]uint
	Region      string
}

// NewMembership is a membership to insert for a character that already exists.
type NewMembership struct {
	Key         string
	CharacterID uint
}

// MemberUpdate is a refresh of an existing membership. Snapshot fields are
// always rewritten and the membership is marked available.
type MemberUpdate struct {
	MembershipID uint
	Key          string
	// RankChanged is set when the remote rank differs from the stored one.
	RankChanged bool
	// LinkCharacterID backfills a missing character link.
	LinkCharacterID *uint
}

// Plan is the outcome of a diff. The four sets are disjoint by identity key.
type Plan struct {
	MembersToAdd          []NewMembership
	MembersToUpdate       []MemberUpdate
	MemberIDsToDeactivate []uint
	CharactersToCreate    []string
}

// Summary counts the rows a plan touches.
type Summary struct {
	CharactersCreated int `json:"characters_created"`
	MembersAdded      int `json:"members_added"`
	MembersUpdated    int `json:"members_updated"`
	RankChanges       int `json:"rank_changes"`
	LinksBackfilled   int `json:"links_backfilled"`
	MembersRemoved    int `json:"members_removed"`
}

// Summary counts the rows the plan touches.
func (p *Plan) Summary() Summary {
	s := Summary{
		CharactersCreated: len(p.CharactersToCreate),
		MembersAdded:      len(p.MembersToAdd) + len(p.CharactersToCreate),
		MembersUpdated:    len(p.MembersToUpdate),
		MembersRemoved:    len(p.MemberIDsToDeactivate),
	}
	for _, u := range p.MembersToUpdate {
		if u.RankChanged {
			s.RankChanges++
		}
		if u.LinkCharacterID != nil {
			s.LinksBackfilled++
		}
	}
	return s
}
