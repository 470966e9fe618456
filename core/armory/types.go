package armory

import "encoding/json"

// Link is a hypermedia reference to another API resource.
type Link struct {
	Href string `json:"href"`
}

// Ref is a keyed reference to another resource (class, race, realm...).
type Ref struct {
	Key  *Link `json:"key,omitempty"`
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Realm identifies a realm by id, display name and slug.
type Realm struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
	Slug string `json:"slug"`
}

// GuildRef is the short guild reference embedded in rosters and profiles.
type GuildRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Realm Realm  `json:"realm"`
}

// Guild is the remote guild metadata.
type Guild struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Realm       Realm  `json:"realm"`
	MemberCount int    `json:"member_count"`
	Faction     *Ref   `json:"faction,omitempty"`
}

// Roster is the remote list of guild members.
type Roster struct {
	Guild   GuildRef       `json:"guild"`
	Members []RosterMember `json:"members"`
}

// RosterMember is one character and its rank in a roster.
type RosterMember struct {
	Character RosterCharacter `json:"character"`
	Rank      int             `json:"rank"`
}

// RosterCharacter is the character snapshot carried by a roster entry.
type RosterCharacter struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Realm         Realm  `json:"realm"`
	Level         int    `json:"level"`
	PlayableClass Ref    `json:"playable_class"`
	PlayableRace  Ref    `json:"playable_race"`
}

// ClassName resolves the display class of a roster character.
// Roster payloads usually carry only the class id.
func (c RosterCharacter) ClassName() string {
	if c.PlayableClass.Name != "" {
		return c.PlayableClass.Name
	}
	return ClassName(c.PlayableClass.ID)
}

// CharacterSummary is the core character profile.
type CharacterSummary struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Realm             Realm     `json:"realm"`
	Level             int       `json:"level"`
	CharacterClass    Ref       `json:"character_class"`
	ActiveSpec        *Ref      `json:"active_spec,omitempty"`
	Guild             *GuildRef `json:"guild,omitempty"`
	EquippedItemLevel int       `json:"equipped_item_level"`
}

// ProfileBundle is the consolidated remote profile of a character: the summary
// plus the equipment, mythic keystone and professions documents. Secondary
// documents are nil when the remote has none for the character.
type ProfileBundle struct {
	Summary        CharacterSummary `json:"summary"`
	Equipment      json.RawMessage  `json:"equipment,omitempty"`
	MythicKeystone json.RawMessage  `json:"mythic_keystone,omitempty"`
	Professions    json.RawMessage  `json:"professions,omitempty"`
}

// CollectionsIndex links to the character's collection documents.
type CollectionsIndex struct {
	Mounts *Link `json:"mounts,omitempty"`
	Pets   *Link `json:"pets,omitempty"`
}

// MountsCollection is the document behind CollectionsIndex.Mounts.
type MountsCollection struct {
	Mounts []struct {
		Mount Ref `json:"mount"`
	} `json:"mounts"`
}

var playableClasses = map[int64]string{
	1:  "Warrior",
	2:  "Paladin",
	3:  "Hunter",
	4:  "Rogue",
	5:  "Priest",
	6:  "Death Knight",
	7:  "Shaman",
	8:  "Mage",
	9:  "Warlock",
	10: "Monk",
	11: "Druid",
	12: "Demon Hunter",
	13: "Evoker",
}

// ClassName returns the display name of a playable class id, or "" if unknown.
func ClassName(id int64) string {
	return playableClasses[id]
}
