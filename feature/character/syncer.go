package character

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roster-sync/core/armory"
	"roster-sync/core/identity"
	"roster-sync/feature/models"
	"roster-sync/feature/store"

	"go.uber.org/zap"
)

// Outcome is the result of syncing one character.
type Outcome int

const (
	// Skipped means the character was already unavailable and nothing was fetched.
	Skipped Outcome = iota
	// Synced means the profile was refreshed.
	Synced
	// Unavailable means the remote API no longer knows the character.
	Unavailable
	// Failed means the sync did not complete; the failure counter was incremented.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Synced:
		return "synced"
	case Unavailable:
		return "unavailable"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// GuildQueue schedules a sync of a newly discovered guild.
type GuildQueue interface {
	Enqueue(ctx context.Context, guildID uint) error
}

// Syncer refreshes single characters from the remote API.
type Syncer struct {
	store  *store.Store
	api    armory.API
	queue  GuildQueue
	logger *zap.Logger
	now    func() time.Time
}

// NewSyncer creates a Syncer. queue may be nil, in which case discovered
// guilds are only picked up by the staleness schedule.
func NewSyncer(s *store.Store, api armory.API, queue GuildQueue, logger *zap.Logger) *Syncer {
	return &Syncer{
		store:  s,
		api:    api,
		queue:  queue,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Sync refreshes c. A remote not-found marks the character and its active
// memberships unavailable and is not an error. A failed profile fetch is
// returned so the caller can log it; the character stays due for the next cycle.
// Failures after a successful fetch are logged here and reported as Failed
// with a nil error, with last_synced_at bumped.
func (s *Syncer) Sync(ctx context.Context, c *models.Character) (Outcome, error) {
	log := s.logger.With(
		zap.Uint("character_id", c.ID),
		zap.String("character", c.Name),
		zap.String("realm", c.Realm),
		zap.String("region", c.Region),
	)

	if !c.Availability.IsActive() {
		log.Debug("Character unavailable, skipping")
		return Skipped, nil
	}

	bundle, err := s.api.CharacterProfile(ctx, c.Region, c.Realm, c.Name)
	if armory.IsNotFound(err) {
		if err := s.markUnavailable(ctx, c); err != nil {
			log.Error("Failed to mark character unavailable", zap.Error(err))
			return Failed, nil
		}
		log.Warn("Character not found remotely, marked unavailable")
		return Unavailable, nil
	}
	if err != nil {
		if recErr := s.store.Characters.RecordFailure(ctx, c.ID, nil); recErr != nil {
			log.Error("Failed to record character failure", zap.Error(recErr))
		}
		return Failed, fmt.Errorf("failed to fetch character %s-%s: %w", c.Name, c.Realm, err)
	}

	if err := s.refresh(ctx, c, bundle); err != nil {
		log.Warn("Character sync failed", zap.Error(err))
		at := s.now()
		if recErr := s.store.Characters.RecordFailure(ctx, c.ID, &at); recErr != nil {
			log.Error("Failed to record character failure", zap.Error(recErr))
		}
		return Failed, nil
	}

	log.Debug("Character synced")
	return Synced, nil
}

// SyncByName syncs the character with the given name, registering it first
// when it is not tracked yet.
func (s *Syncer) SyncByName(ctx context.Context, region, realm, name string) (Outcome, error) {
	c, _, err := s.store.Characters.Register(ctx, region, realm, name)
	if err != nil {
		return Failed, err
	}
	return s.Sync(ctx, c)
}

func (s *Syncer) markUnavailable(ctx context.Context, c *models.Character) error {
	return s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.Characters.MarkUnavailable(ctx, c.ID, s.now()); err != nil {
			return err
		}
		n, err := tx.Memberships.DeactivateByCharacter(ctx, c.ID)
		if err != nil {
			return err
		}
		s.logger.Debug("Memberships deactivated", zap.Uint("character_id", c.ID), zap.Int64("count", n))
		return nil
	})
}

// refresh resolves the region, computes the identity hash and persists the
// profile along with the membership snapshot in the resolved guild.
func (s *Syncer) refresh(ctx context.Context, c *models.Character, bundle *armory.ProfileBundle) error {
	summary := bundle.Summary

	region, guild, err := s.resolveRegion(ctx, c, summary.Guild)
	if err != nil {
		return err
	}

	var hash *string
	if c.UserID == nil {
		hash, err = s.identityHash(ctx, c)
		if err != nil {
			s.logger.Debug("Identity hash unavailable, keeping previous value",
				zap.Uint("character_id", c.ID), zap.Error(err))
		}
	}

	profile, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	name := summary.Name
	if name == "" {
		name = c.Name
	}
	realm := summary.Realm.Slug
	if realm == "" {
		realm = c.Realm
	}
	class := summary.CharacterClass.Name
	if class == "" {
		class = armory.ClassName(summary.CharacterClass.ID)
	}

	update := store.CharacterUpdate{
		ExternalID:   summary.ID,
		Name:         name,
		Realm:        realm,
		Region:       region,
		IdentityKey:  identity.Key(name, realm),
		Level:        summary.Level,
		Class:        class,
		Profile:      profile,
		IdentityHash: hash,
		SyncedAt:     s.now(),
	}

	return s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.Characters.ApplySync(ctx, c.ID, update); err != nil {
			return fmt.Errorf("failed to save character: %w", err)
		}
		if guild == nil {
			return nil
		}

		m, err := tx.Memberships.FindActive(ctx, guild.ID, c.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Memberships.RefreshSnapshot(ctx, m.ID, name, class); err != nil {
			return fmt.Errorf("failed to refresh membership %d: %w", m.ID, err)
		}
		return nil
	})
}

// resolveRegion returns the authoritative region of c and its local guild.
// A known guild's region wins. An unknown guild is created as a stub and
// queued for its own sync while c keeps its previous region.
func (s *Syncer) resolveRegion(ctx context.Context, c *models.Character, ref *armory.GuildRef) (string, *models.Guild, error) {
	if ref == nil || ref.ID == 0 {
		return c.Region, nil, nil
	}

	guild, err := s.store.Guilds.FindByExternalID(ctx, ref.ID)
	if err == nil {
		return guild.Region, guild, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", nil, fmt.Errorf("failed to look up guild %d: %w", ref.ID, err)
	}

	stub, created, err := s.store.Guilds.CreateStub(ctx, ref.ID, c.Region, ref.Realm.Slug, ref.Name)
	if err != nil {
		return "", nil, err
	}
	if created {
		s.logger.Info("Discovered guild",
			zap.Uint("guild_id", stub.ID),
			zap.String("guild", stub.Name),
			zap.String("realm", stub.Realm),
		)
	}
	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, stub.ID); err != nil {
			s.logger.Warn("Failed to queue guild sync", zap.Uint("guild_id", stub.ID), zap.Error(err))
		}
	}
	return c.Region, nil, nil
}
