package guild

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"roster-sync/core/armory"
	"roster-sync/feature/models"
	"roster-sync/feature/roster"
	"roster-sync/feature/store"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Outcome is the result of syncing one guild.
type Outcome int

const (
	// Skipped means the guild is excluded from sync.
	Skipped Outcome = iota
	// Synced means guild fields, memberships and ranks were refreshed.
	Synced
	// Excluded means the remote API no longer knows the guild.
	Excluded
	// Failed means the cycle did not complete.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Synced:
		return "synced"
	case Excluded:
		return "excluded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Archiver stores raw roster payloads.
type Archiver interface {
	StoreRoster(ctx context.Context, region, realm, guild string, fetchedAt time.Time, payload []byte) (string, error)
}

// Syncer runs the full sync of one guild: metadata, roster, memberships and ranks.
type Syncer struct {
	store   *store.Store
	api     armory.API
	members *roster.MemberReconciler
	ranks   *roster.RankReconciler
	archive Archiver
	logger  *zap.Logger
	now     func() time.Time
	group   singleflight.Group
}

// NewSyncer creates a Syncer. archive may be nil to skip roster archiving.
func NewSyncer(s *store.Store, api armory.API, archive Archiver, batchSize int, logger *zap.Logger) *Syncer {
	return &Syncer{
		store:   s,
		api:     api,
		members: roster.NewMemberReconciler(s, logger, batchSize),
		ranks:   roster.NewRankReconciler(s, logger),
		archive: archive,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Sync runs one cycle for g. Concurrent calls for the same guild share a
// single run. A remote not-found excludes the guild and is not an error.
func (s *Syncer) Sync(ctx context.Context, g *models.Guild) (Outcome, error) {
	v, err, _ := s.group.Do(strconv.FormatUint(uint64(g.ID), 10), func() (any, error) {
		return s.sync(ctx, g)
	})
	return v.(Outcome), err
}

// SyncByID loads the guild with the given id and syncs it.
func (s *Syncer) SyncByID(ctx context.Context, id uint) (Outcome, error) {
	g, err := s.store.Guilds.FindByID(ctx, id)
	if err != nil {
		return Failed, fmt.Errorf("failed to load guild %d: %w", id, err)
	}
	return s.Sync(ctx, g)
}

func (s *Syncer) sync(ctx context.Context, g *models.Guild) (Outcome, error) {
	log := s.logger.With(
		zap.Uint("guild_id", g.ID),
		zap.String("guild", g.Name),
		zap.String("realm", g.Realm),
		zap.String("region", g.Region),
	)

	if g.ExcludedFromSync {
		log.Debug("Guild excluded from sync, skipping")
		return Skipped, nil
	}

	data, err := s.api.GuildData(ctx, g.Region, g.Realm, g.Name)
	if armory.IsNotFound(err) {
		return s.exclude(ctx, g, log)
	}
	if err != nil {
		return Failed, fmt.Errorf("failed to fetch guild: %w", err)
	}

	remote, err := s.api.GuildRoster(ctx, g.Region, g.Realm, g.Name)
	if armory.IsNotFound(err) {
		return s.exclude(ctx, g, log)
	}
	if err != nil {
		return Failed, fmt.Errorf("failed to fetch roster: %w", err)
	}

	now := s.now()
	members := roster.FromArmory(remote.Members)

	payload, err := json.Marshal(remote)
	if err != nil {
		return Failed, fmt.Errorf("failed to encode roster: %w", err)
	}

	core := store.GuildCore{
		ExternalID:  data.ID,
		Name:        data.Name,
		Realm:       data.Realm.Slug,
		Roster:      payload,
		MemberCount: len(remote.Members),
		LeaderID:    s.resolveLeader(ctx, g, members, log),
		SyncedAt:    now,
	}
	if core.Name == "" {
		core.Name = g.Name
	}
	if core.Realm == "" {
		core.Realm = g.Realm
	}
	if data.Faction != nil {
		core.Faction = data.Faction.Name
	}
	if err := s.store.Guilds.UpdateCore(ctx, g.ID, core); err != nil {
		s.touch(ctx, g.ID, now, log)
		return Failed, fmt.Errorf("failed to update guild: %w", err)
	}

	s.archiveRoster(ctx, g, core, now, payload, log)

	if _, err := s.members.Reconcile(ctx, g, members); err != nil {
		log.Error("Member reconcile failed", zap.Error(err))
		return Failed, err
	}

	result, err := s.ranks.Reconcile(ctx, g.ID, members)
	if err != nil {
		log.Warn("Some ranks were not updated", zap.Int("failed", result.Failed), zap.Error(err))
	}

	log.Info("Guild synced",
		zap.Int("members", len(members)),
		zap.Int("ranks_created", result.Created),
		zap.Int("ranks_updated", result.Updated+result.Zeroed),
	)
	return Synced, nil
}

func (s *Syncer) exclude(ctx context.Context, g *models.Guild, log *zap.Logger) (Outcome, error) {
	if err := s.store.Guilds.Exclude(ctx, g.ID, s.now()); err != nil {
		return Failed, fmt.Errorf("failed to exclude guild: %w", err)
	}
	log.Warn("Guild not found remotely, excluded from sync")
	return Excluded, nil
}

func (s *Syncer) touch(ctx context.Context, id uint, at time.Time, log *zap.Logger) {
	if err := s.store.Guilds.Touch(ctx, id, at); err != nil {
		log.Error("Failed to bump guild sync time", zap.Error(err))
	}
}

// resolveLeader returns the account linked to the rank 0 member, if any.
// Lookup failures are logged and yield nil.
func (s *Syncer) resolveLeader(ctx context.Context, g *models.Guild, members map[string]roster.RemoteMember, log *zap.Logger) *uint {
	for key, m := range members {
		if m.RankID != 0 {
			continue
		}
		user, err := s.store.Characters.LinkedUser(ctx, g.Region, key)
		if err != nil {
			log.Debug("Leader lookup failed", zap.String("leader", key), zap.Error(err))
			return nil
		}
		return user
	}
	return nil
}

func (s *Syncer) archiveRoster(ctx context.Context, g *models.Guild, core store.GuildCore, at time.Time, payload []byte, log *zap.Logger) {
	if s.archive == nil {
		return
	}
	key, err := s.archive.StoreRoster(ctx, g.Region, core.Realm, core.Name, at, payload)
	if err != nil {
		log.Warn("Roster archive failed", zap.Error(err))
		return
	}
	log.Debug("Roster archived", zap.String("key", key))
}
