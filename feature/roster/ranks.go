package roster

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"roster-sync/feature/models"
	"roster-sync/feature/store"

	"go.uber.org/zap"
)

// RankResult counts the rank rows touched by a reconcile.
type RankResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Zeroed  int `json:"zeroed"`
	Failed  int `json:"failed"`
}

// RankReconciler keeps a guild's rank rows and member counts in line with its roster.
type RankReconciler struct {
	store  *store.Store
	logger *zap.Logger
}

// NewRankReconciler creates a RankReconciler.
func NewRankReconciler(s *store.Store, logger *zap.Logger) *RankReconciler {
	return &RankReconciler{store: s, logger: logger}
}

// Tally counts roster members per rank id.
func Tally(roster map[string]RemoteMember) map[int]int {
	counts := make(map[int]int)
	for _, m := range roster {
		counts[m.RankID]++
	}
	return counts
}

// Reconcile creates missing ranks with a default name, updates counts that
// changed and zeroes ranks absent from the roster. Existing names are never
// overwritten. Every rank is attempted; failures are logged and returned joined.
func (r *RankReconciler) Reconcile(ctx context.Context, guildID uint, roster map[string]RemoteMember) (RankResult, error) {
	var result RankResult

	existing, err := r.store.Ranks.FindByGuild(ctx, guildID)
	if err != nil {
		return result, err
	}
	local := make(map[int]models.Rank, len(existing))
	for _, rank := range existing {
		local[rank.RankID] = rank
	}

	counts := Tally(roster)
	present := make([]int, 0, len(counts))
	for id := range counts {
		present = append(present, id)
	}
	sort.Ints(present)

	var errs []error
	fail := func(rankID int, err error) {
		result.Failed++
		r.logger.Warn("Rank update failed",
			zap.Uint("guild_id", guildID),
			zap.Int("rank_id", rankID),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("rank %d: %w", rankID, err))
	}

	for _, id := range present {
		count := counts[id]
		rank, ok := local[id]
		if !ok {
			err := r.store.Ranks.Create(ctx, &models.Rank{
				GuildID:     guildID,
				RankID:      id,
				RankName:    models.RankName(id),
				MemberCount: count,
			})
			if err != nil {
				fail(id, err)
				continue
			}
			result.Created++
			continue
		}
		if rank.MemberCount == count {
			continue
		}
		if err := r.store.Ranks.UpdateCount(ctx, guildID, id, count); err != nil {
			fail(id, err)
			continue
		}
		result.Updated++
	}

	for _, rank := range existing {
		if _, ok := counts[rank.RankID]; ok || rank.MemberCount == 0 {
			continue
		}
		if err := r.store.Ranks.UpdateCount(ctx, guildID, rank.RankID, 0); err != nil {
			fail(rank.RankID, err)
			continue
		}
		result.Zeroed++
	}

	return result, errors.Join(errs...)
}
