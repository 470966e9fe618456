package roster

import (
	"encoding/json"
	"sort"

	"roster-sync/core/armory"
	"roster-sync/core/identity"
)

// FromArmory indexes a remote roster by identity key. When a key appears
// twice the last entry wins.
func FromArmory(members []armory.RosterMember) map[string]RemoteMember {
	out := make(map[string]RemoteMember, len(members))
	for _, m := range members {
		c := m.Character
		raw, _ := json.Marshal(m)
		key := identity.Key(c.Name, c.Realm.Slug)
		out[key] = RemoteMember{
			Key:        key,
			ExternalID: c.ID,
			Name:       c.Name,
			Realm:      c.Realm.Slug,
			RankID:     m.Rank,
			ClassName:  c.ClassName(),
			Level:      c.Level,
			Raw:        raw,
		}
	}
	return out
}

// Diff walks the remote roster once and sorts every key into exactly one of
// the plan's sets. Memberships never visited are deactivated when they are
// still active. Output is ordered by key so plans are deterministic.
func Diff(in Input) *Plan {
	plan := &Plan{}
	processed := make(map[string]struct{}, len(in.Roster))

	for _, key := range sortedKeys(in.Roster) {
		remote := in.Roster[key]

		if local, ok := in.Memberships[key]; ok {
			processed[key] = struct{}{}
			update := MemberUpdate{
				MembershipID: local.ID,
				Key:          key,
				RankChanged:  local.RankID != remote.RankID,
			}
			if local.CharacterID == nil {
				if id, known := in.Characters[key]; known {
					update.LinkCharacterID = &id
				}
			}
			plan.MembersToUpdate = append(plan.MembersToUpdate, update)
			continue
		}

		if id, known := in.Characters[key]; known {
			plan.MembersToAdd = append(plan.MembersToAdd, NewMembership{Key: key, CharacterID: id})
			continue
		}

		plan.CharactersToCreate = append(plan.CharactersToCreate, key)
	}

	for _, key := range sortedKeys(in.Memberships) {
		if _, ok := processed[key]; ok {
			continue
		}
		if local := in.Memberships[key]; local.Availability.IsActive() {
			plan.MemberIDsToDeactivate = append(plan.MemberIDsToDeactivate, local.ID)
		}
	}

	return plan
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
