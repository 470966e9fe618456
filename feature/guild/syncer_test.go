package guild

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"roster-sync/core/armory"
	armorymocks "roster-sync/core/armory/mocks"
	"roster-sync/core/storage"
	storagemocks "roster-sync/core/storage/mocks"
	"roster-sync/feature/models"
	"roster-sync/feature/roster"
	"roster-sync/feature/store"
	"roster-sync/feature/store/storetest"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr[T any](v T) *T { return &v }

func rosterMember(name string, rank int) armory.RosterMember {
	return armory.RosterMember{
		Rank: rank,
		Character: armory.RosterCharacter{
			Name:          name,
			Realm:         armory.Realm{Slug: "area-52"},
			Level:         80,
			PlayableClass: armory.Ref{ID: 2},
		},
	}
}

func setup(t *testing.T) (*store.Store, *models.Guild, *armorymocks.Client) {
	s := storetest.New(t)
	g, _, err := s.Guilds.Register(context.Background(), "us", "area-52", "Raid Team")
	require.NoError(t, err)
	return s, g, new(armorymocks.Client)
}

func expectRemote(api *armorymocks.Client, members ...armory.RosterMember) {
	api.On("GuildData", mock.Anything, "us", "area-52", "Raid Team").Return(&armory.Guild{
		ID:      99,
		Name:    "Raid Team",
		Realm:   armory.Realm{Slug: "area-52"},
		Faction: &armory.Ref{Name: "Horde"},
	}, nil)
	api.On("GuildRoster", mock.Anything, "us", "area-52", "Raid Team").Return(&armory.Roster{Members: members}, nil)
}

func reload(t *testing.T, s *store.Store, id uint) *models.Guild {
	g, err := s.Guilds.FindByID(context.Background(), id)
	require.NoError(t, err)
	return g
}

func TestSync_Full(t *testing.T) {
	s, g, api := setup(t)
	ctx := context.Background()

	anna := &models.Character{Name: "Anna", Realm: "area-52", Region: "us", IdentityKey: "anna-area-52", Role: "Tank", UserID: ptr(uint(42))}
	require.NoError(t, s.Characters.CreateBatch(ctx, []*models.Character{anna}, 10))
	require.NoError(t, s.Memberships.CreateBatch(ctx, []*models.Membership{
		{GuildID: g.ID, IdentityKey: "anna-area-52", CharacterID: &anna.ID, RankID: 1},
	}, 10))
	require.NoError(t, s.Ranks.Create(ctx, &models.Rank{GuildID: g.ID, RankID: 3, RankName: "Raiders", MemberCount: 5}))

	expectRemote(api, rosterMember("Anna", 0), rosterMember("Bob", 1))

	objects := new(storagemocks.Client)
	objects.On("PutObject", mock.Anything, "rosters", mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "rosters/us/area-52/raid-team/")
	}), mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)

	syncer := NewSyncer(s, api, storage.NewArchive(objects, "rosters"), 0, zap.NewNop())
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	syncer.now = func() time.Time { return now }

	outcome, err := syncer.Sync(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, Synced, outcome)

	loaded := reload(t, s, g.ID)
	require.NotNil(t, loaded.ExternalID)
	assert.Equal(t, int64(99), *loaded.ExternalID)
	assert.Equal(t, "Horde", loaded.Faction)
	assert.Equal(t, 2, loaded.MemberCount)
	require.NotNil(t, loaded.LeaderID)
	assert.Equal(t, uint(42), *loaded.LeaderID)
	require.NotNil(t, loaded.LastSyncedAt)
	assert.True(t, now.Equal(*loaded.LastSyncedAt))
	require.NotNil(t, loaded.LastRosterSyncedAt)
	assert.Contains(t, string(loaded.Roster), `"Bob"`)

	rows, err := s.Memberships.FindByGuild(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].RankID)

	ranks, err := s.Ranks.FindByGuild(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, ranks, 3)
	assert.Equal(t, models.Rank{GuildID: g.ID, RankID: 0, RankName: "Guild Master", MemberCount: 1}, ranks[0])
	assert.Equal(t, models.Rank{GuildID: g.ID, RankID: 1, RankName: "Rank 1", MemberCount: 1}, ranks[1])
	assert.Equal(t, models.Rank{GuildID: g.ID, RankID: 3, RankName: "Raiders", MemberCount: 0}, ranks[2])

	api.AssertExpectations(t)
	objects.AssertExpectations(t)
}

func TestSync_AfterDiscoveryOfRegisteredGuild(t *testing.T) {
	s, g, api := setup(t)
	ctx := context.Background()

	stub, created, err := s.Guilds.CreateStub(ctx, 99, "us", "area-52", "Raid Team")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, g.ID, stub.ID)

	expectRemote(api, rosterMember("Anna", 0))
	syncer := NewSyncer(s, api, nil, 0, zap.NewNop())

	outcome, err := syncer.Sync(ctx, reload(t, s, g.ID))
	require.NoError(t, err)
	assert.Equal(t, Synced, outcome)

	var count int64
	require.NoError(t, s.DB().Model(&models.Guild{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	loaded := reload(t, s, g.ID)
	require.NotNil(t, loaded.ExternalID)
	assert.Equal(t, int64(99), *loaded.ExternalID)
	assert.Equal(t, 1, loaded.MemberCount)
}

func TestSync_LeaderWithoutAccount(t *testing.T) {
	s, g, api := setup(t)
	expectRemote(api, rosterMember("Anna", 0))

	outcome, err := NewSyncer(s, api, nil, 0, zap.NewNop()).Sync(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, Synced, outcome)
	assert.Nil(t, reload(t, s, g.ID).LeaderID)
}

func TestSync_NotFoundExcludes(t *testing.T) {
	t.Run("Guild", func(t *testing.T) {
		s, g, api := setup(t)
		api.On("GuildData", mock.Anything, "us", "area-52", "Raid Team").Return(nil, armory.ErrNotFound)

		outcome, err := NewSyncer(s, api, nil, 0, zap.NewNop()).Sync(context.Background(), g)
		require.NoError(t, err)
		assert.Equal(t, Excluded, outcome)
		assert.True(t, reload(t, s, g.ID).ExcludedFromSync)
		api.AssertNotCalled(t, "GuildRoster", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Roster", func(t *testing.T) {
		s, g, api := setup(t)
		api.On("GuildData", mock.Anything, "us", "area-52", "Raid Team").Return(&armory.Guild{ID: 99, Name: "Raid Team"}, nil)
		api.On("GuildRoster", mock.Anything, "us", "area-52", "Raid Team").
			Return(nil, &armory.APIError{StatusCode: 404, Err: armory.ErrNotFound})

		outcome, err := NewSyncer(s, api, nil, 0, zap.NewNop()).Sync(context.Background(), g)
		require.NoError(t, err)
		assert.Equal(t, Excluded, outcome)
		assert.True(t, reload(t, s, g.ID).ExcludedFromSync)
	})
}

func TestSync_SkipsExcluded(t *testing.T) {
	s, g, api := setup(t)
	g.ExcludedFromSync = true

	outcome, err := NewSyncer(s, api, nil, 0, zap.NewNop()).Sync(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)
	api.AssertExpectations(t)
}

func TestSync_TransientRemoteError(t *testing.T) {
	s, g, api := setup(t)
	api.On("GuildData", mock.Anything, "us", "area-52", "Raid Team").Return(nil, armory.ErrThrottled)

	outcome, err := NewSyncer(s, api, nil, 0, zap.NewNop()).Sync(context.Background(), g)
	assert.Equal(t, Failed, outcome)
	assert.ErrorIs(t, err, armory.ErrThrottled)

	loaded := reload(t, s, g.ID)
	assert.False(t, loaded.ExcludedFromSync)
	assert.Nil(t, loaded.LastSyncedAt)
}

func TestSync_MemberFailureIsNotExclusion(t *testing.T) {
	s, g, api := setup(t)
	ctx := context.Background()
	expectRemote(api, rosterMember("Anna", 0))
	require.NoError(t, s.DB().Migrator().DropTable(&models.Membership{}))

	outcome, err := NewSyncer(s, api, nil, 0, zap.NewNop()).Sync(ctx, g)
	assert.Equal(t, Failed, outcome)
	assert.ErrorIs(t, err, roster.ErrApply)

	loaded := reload(t, s, g.ID)
	assert.False(t, loaded.ExcludedFromSync)
	assert.NotNil(t, loaded.LastSyncedAt)

	ranks, err := s.Ranks.FindByGuild(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, ranks, "ranks are not reconciled after a failed member apply")

	var chars int64
	require.NoError(t, s.DB().Model(&models.Character{}).Count(&chars).Error)
	assert.Zero(t, chars, "character creation was rolled back")
}

func TestSync_ArchiveFailureIsIgnored(t *testing.T) {
	s, g, api := setup(t)
	expectRemote(api, rosterMember("Anna", 0))

	objects := new(storagemocks.Client)
	objects.On("PutObject", mock.Anything, "rosters", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection refused"))

	outcome, err := NewSyncer(s, api, storage.NewArchive(objects, "rosters"), 0, zap.NewNop()).Sync(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, Synced, outcome)
}

func TestSyncByID(t *testing.T) {
	s, g, api := setup(t)
	expectRemote(api)

	outcome, err := NewSyncer(s, api, nil, 0, zap.NewNop()).SyncByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, Synced, outcome)

	_, err = NewSyncer(s, api, nil, 0, zap.NewNop()).SyncByID(context.Background(), 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
