package roster

import (
	"context"
	"errors"
	"testing"

	"roster-sync/core/armory"
	"roster-sync/feature/models"
	"roster-sync/feature/store"
	"roster-sync/feature/store/storetest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRankReconciler_CreatesAndCounts(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	roster := FromArmory([]armory.RosterMember{
		member("A", "r", 0, 1),
		member("B", "r", 2, 1),
		member("C", "r", 2, 1),
	})

	r := NewRankReconciler(s, zap.NewNop())
	result, err := r.Reconcile(ctx, 1, roster)
	require.NoError(t, err)
	assert.Equal(t, RankResult{Created: 2}, result)

	ranks, err := s.Ranks.FindByGuild(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ranks, 2)
	assert.Equal(t, models.Rank{GuildID: 1, RankID: 0, RankName: "Guild Master", MemberCount: 1}, ranks[0])
	assert.Equal(t, models.Rank{GuildID: 1, RankID: 2, RankName: "Rank 2", MemberCount: 2}, ranks[1])

	// Unchanged roster writes nothing.
	result, err = r.Reconcile(ctx, 1, roster)
	require.NoError(t, err)
	assert.Equal(t, RankResult{}, result)
}

func TestRankReconciler_KeepsCustomNames(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	require.NoError(t, s.Ranks.Create(ctx, &models.Rank{GuildID: 1, RankID: 1, RankName: "Officer", MemberCount: 1}))
	require.NoError(t, s.Ranks.Create(ctx, &models.Rank{GuildID: 1, RankID: 3, RankName: "Raiders", MemberCount: 5}))

	roster := FromArmory([]armory.RosterMember{
		member("A", "r", 1, 1),
		member("B", "r", 1, 1),
	})

	result, err := NewRankReconciler(s, zap.NewNop()).Reconcile(ctx, 1, roster)
	require.NoError(t, err)
	assert.Equal(t, RankResult{Updated: 1, Zeroed: 1}, result)

	ranks, err := s.Ranks.FindByGuild(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ranks, 2)
	assert.Equal(t, "Officer", ranks[0].RankName)
	assert.Equal(t, 2, ranks[0].MemberCount)
	assert.Equal(t, "Raiders", ranks[1].RankName)
	assert.Zero(t, ranks[1].MemberCount)
}

func TestRankReconciler_IsolatesFailures(t *testing.T) {
	db, mock := setupMockDB(t)
	s := store.New(db)

	mock.ExpectQuery("SELECT (.+) FROM `guild_ranks`").
		WillReturnRows(sqlmock.NewRows([]string{"guild_id", "rank_id", "rank_name", "member_count"}).
			AddRow(1, 1, "Officer", 1).
			AddRow(1, 3, "Raiders", 5))
	mock.ExpectExec("INSERT INTO `guild_ranks`").WillReturnError(errors.New("duplicate entry"))
	mock.ExpectExec("UPDATE `guild_ranks`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `guild_ranks`").WillReturnResult(sqlmock.NewResult(0, 1))

	roster := FromArmory([]armory.RosterMember{
		member("A", "r", 0, 1),
		member("B", "r", 1, 1),
		member("C", "r", 1, 1),
	})

	result, err := NewRankReconciler(s, zap.NewNop()).Reconcile(context.Background(), 1, roster)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank 0: duplicate entry")
	assert.Equal(t, RankResult{Updated: 1, Zeroed: 1, Failed: 1}, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
