package character

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"roster-sync/core/armory"
	"roster-sync/feature/models"
)

// EmptyCollectionHash is stored when a character confirmably has no mounts.
// It is the digest of an empty mount list.
const EmptyCollectionHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// MountsHash digests a mount collection independently of its order.
func MountsHash(ids []int64) string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}

// identityHash fetches the mount collection of c and digests it. A missing
// collection yields EmptyCollectionHash. Any other fetch error is returned
// with a nil hash so the stored value is left alone.
func (s *Syncer) identityHash(ctx context.Context, c *models.Character) (*string, error) {
	sentinel := EmptyCollectionHash

	index, err := s.api.CollectionsIndex(ctx, c.Region, c.Realm, c.Name)
	if armory.IsNotFound(err) {
		return &sentinel, nil
	}
	if err != nil {
		return nil, err
	}
	if index == nil || index.Mounts == nil || index.Mounts.Href == "" {
		return &sentinel, nil
	}

	var mounts armory.MountsCollection
	err = s.api.Follow(ctx, index.Mounts.Href, &mounts)
	if armory.IsNotFound(err) {
		return &sentinel, nil
	}
	if err != nil {
		return nil, err
	}
	if len(mounts.Mounts) == 0 {
		return &sentinel, nil
	}

	ids := make([]int64, len(mounts.Mounts))
	for i, m := range mounts.Mounts {
		ids[i] = m.Mount.ID
	}
	hash := MountsHash(ids)
	return &hash, nil
}
