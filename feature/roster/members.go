package roster

import (
	"context"
	"fmt"

	"roster-sync/feature/models"
	"roster-sync/feature/store"

	"go.uber.org/zap"
)

// DefaultBatchSize is used when no positive batch size is configured.
const DefaultBatchSize = 200

// MemberReconciler aligns a guild's memberships with its remote roster.
type MemberReconciler struct {
	store     *store.Store
	logger    *zap.Logger
	batchSize int
}

// NewMemberReconciler creates a MemberReconciler.
func NewMemberReconciler(s *store.Store, logger *zap.Logger, batchSize int) *MemberReconciler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &MemberReconciler{store: s, logger: logger, batchSize: batchSize}
}

// Reconcile loads the guild's local state, diffs it against roster and applies
// the plan in a single transaction. On error nothing is persisted and the
// returned error wraps ErrApply.
func (r *MemberReconciler) Reconcile(ctx context.Context, guild *models.Guild, roster map[string]RemoteMember) (*Plan, error) {
	var plan *Plan
	err := r.store.Transaction(ctx, func(tx *store.Store) error {
		in, err := r.load(ctx, tx, guild, roster)
		if err != nil {
			return err
		}
		plan = Diff(in)
		return r.apply(ctx, tx, guild, in, plan)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: guild %d: %w", ErrApply, guild.ID, err)
	}

	summary := plan.Summary()
	r.logger.Info("Roster reconciled",
		zap.Uint("guild_id", guild.ID),
		zap.String("guild", guild.Name),
		zap.Int("characters_created", summary.CharactersCreated),
		zap.Int("members_added", summary.MembersAdded),
		zap.Int("members_updated", summary.MembersUpdated),
		zap.Int("rank_changes", summary.RankChanges),
		zap.Int("members_removed", summary.MembersRemoved),
	)
	return plan, nil
}

func (r *MemberReconciler) load(ctx context.Context, tx *store.Store, guild *models.Guild, roster map[string]RemoteMember) (Input, error) {
	rows, err := tx.Memberships.FindByGuild(ctx, guild.ID)
	if err != nil {
		return Input{}, err
	}
	memberships := make(map[string]LocalMembership, len(rows))
	for _, m := range rows {
		memberships[m.IdentityKey] = LocalMembership{
			ID:           m.ID,
			CharacterID:  m.CharacterID,
			RankID:       m.RankID,
			Availability: m.Availability,
		}
	}

	characters, err := tx.Characters.IDsByKeys(ctx, guild.Region, sortedKeys(roster))
	if err != nil {
		return Input{}, err
	}

	return Input{
		Roster:      roster,
		Memberships: memberships,
		Characters:  characters,
		Region:      guild.Region,
	}, nil
}

// apply writes a plan in a fixed order: characters, new memberships,
// membership updates, deactivations. New memberships reference the ids of
// characters created in the same transaction.
func (r *MemberReconciler) apply(ctx context.Context, tx *store.Store, guild *models.Guild, in Input, plan *Plan) error {
	created := make(map[string]uint, len(plan.CharactersToCreate))
	if len(plan.CharactersToCreate) > 0 {
		chars := make([]*models.Character, 0, len(plan.CharactersToCreate))
		for _, key := range plan.CharactersToCreate {
			m := in.Roster[key]
			chars = append(chars, &models.Character{
				Name:         m.Name,
				Realm:        m.Realm,
				Region:       in.Region,
				IdentityKey:  key,
				Level:        m.Level,
				Class:        m.ClassName,
				Role:         models.DefaultRole,
				Availability: models.Active,
			})
		}
		if err := tx.Characters.CreateBatch(ctx, chars, r.batchSize); err != nil {
			return fmt.Errorf("failed to create characters: %w", err)
		}
		for _, c := range chars {
			created[c.IdentityKey] = c.ID
		}
	}

	adds := make([]*models.Membership, 0, len(plan.MembersToAdd)+len(created))
	for _, add := range plan.MembersToAdd {
		adds = append(adds, newMembership(guild.ID, in.Roster[add.Key], add.CharacterID))
	}
	for _, key := range plan.CharactersToCreate {
		adds = append(adds, newMembership(guild.ID, in.Roster[key], created[key]))
	}
	if err := tx.Memberships.CreateBatch(ctx, adds, r.batchSize); err != nil {
		return fmt.Errorf("failed to create memberships: %w", err)
	}

	for _, u := range plan.MembersToUpdate {
		m := in.Roster[u.Key]
		update := store.MembershipUpdate{
			ID:          u.MembershipID,
			CharacterID: u.LinkCharacterID,
			Name:        m.Name,
			Realm:       m.Realm,
			ClassName:   m.ClassName,
			Member:      m.Raw,
		}
		if u.RankChanged {
			rank := m.RankID
			update.RankID = &rank
		}
		if err := tx.Memberships.Update(ctx, update); err != nil {
			return fmt.Errorf("failed to update membership %d: %w", u.MembershipID, err)
		}
	}

	if err := tx.Memberships.Deactivate(ctx, plan.MemberIDsToDeactivate); err != nil {
		return fmt.Errorf("failed to deactivate memberships: %w", err)
	}
	return nil
}

func newMembership(guildID uint, m RemoteMember, characterID uint) *models.Membership {
	id := characterID
	return &models.Membership{
		GuildID:      guildID,
		IdentityKey:  m.Key,
		CharacterID:  &id,
		Name:         m.Name,
		Realm:        m.Realm,
		ClassName:    m.ClassName,
		RankID:       m.RankID,
		Availability: models.Active,
		Member:       m.Raw,
	}
}
