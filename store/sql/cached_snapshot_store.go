package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-custody/core"
)

const snapshotCacheKeyPrefix = "go-custody::snapshot::v1"

// CachedSnapshotStore reads snapshots through a cache and drops the cached
// entry after every save.
type CachedSnapshotStore struct {
	base  core.SnapshotStore
	cache repositorycache.CacheService
}

func NewCachedSnapshotStore(base core.SnapshotStore, cacheService repositorycache.CacheService) (*CachedSnapshotStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base snapshot store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: snapshot cache service is required")
	}
	return &CachedSnapshotStore{base: base, cache: cacheService}, nil
}

// SnapshotCacheKey returns go-custody::snapshot::v1::<originator_id> with the
// originator segment URL-path escaped.
func SnapshotCacheKey(originatorID string) (string, error) {
	originatorID = strings.TrimSpace(originatorID)
	if originatorID == "" {
		return "", fmt.Errorf("sqlstore: originator id is required")
	}
	return snapshotCacheKeyPrefix + "::" + url.PathEscape(originatorID), nil
}

func (s *CachedSnapshotStore) Get(ctx context.Context, originatorID string) (core.ProvisioningSnapshot, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.ProvisioningSnapshot{}, fmt.Errorf("sqlstore: cached snapshot store is not configured")
	}
	cacheKey, err := SnapshotCacheKey(originatorID)
	if err != nil {
		return core.ProvisioningSnapshot{}, err
	}
	originatorID = strings.TrimSpace(originatorID)
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.ProvisioningSnapshot, error) {
		return s.base.Get(ctx, originatorID)
	})
}

func (s *CachedSnapshotStore) Save(ctx context.Context, artifacts core.ProvisioningArtifacts) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached snapshot store is not configured")
	}
	if err := s.base.Save(ctx, artifacts); err != nil {
		return err
	}
	cacheKey, err := SnapshotCacheKey(artifacts.Snapshot.OriginatorID())
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}
