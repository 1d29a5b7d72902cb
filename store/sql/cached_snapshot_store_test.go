package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-custody/core"
)

type stubSnapshotStore struct {
	mu        sync.Mutex
	snapshots map[string]core.ProvisioningSnapshot
	getCalls  int
	saveCalls int
	saveErr   error
}

func (s *stubSnapshotStore) Get(_ context.Context, originatorID string) (core.ProvisioningSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	snapshot, ok := s.snapshots[originatorID]
	if !ok {
		return core.ProvisioningSnapshot{}, fmt.Errorf("%w: %s", core.ErrSnapshotNotFound, originatorID)
	}
	return snapshot, nil
}

func (s *stubSnapshotStore) Save(_ context.Context, artifacts core.ProvisioningArtifacts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.snapshots == nil {
		s.snapshots = map[string]core.ProvisioningSnapshot{}
	}
	s.snapshots[artifacts.Snapshot.OriginatorID()] = artifacts.Snapshot
	return nil
}

func testArtifacts(originatorID string, subOrganizationID string) core.ProvisioningArtifacts {
	return core.ProvisioningArtifacts{
		Snapshot: core.ProvisioningSnapshot{
			SubOrganizationID: subOrganizationID,
			Metadata:          map[string]string{core.SnapshotMetadataOriginatorID: originatorID},
		},
	}
}

func TestCachedSnapshotStore_Get_MissFetchThenHit(t *testing.T) {
	base := &stubSnapshotStore{}
	if err := base.Save(context.Background(), testArtifacts("orig-1", "sub-1")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store, err := NewCachedSnapshotStore(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	for i := 0; i < 2; i++ {
		snapshot, err := store.Get(context.Background(), " orig-1 ")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if snapshot.SubOrganizationID != "sub-1" {
			t.Fatalf("unexpected snapshot: %+v", snapshot)
		}
	}
	if base.getCalls != 1 {
		t.Fatalf("expected a single base read, got %d", base.getCalls)
	}
}

func TestCachedSnapshotStore_Save_InvalidatesCachedKey(t *testing.T) {
	base := &stubSnapshotStore{}
	_ = base.Save(context.Background(), testArtifacts("orig-2", "sub-old"))
	store, err := NewCachedSnapshotStore(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}
	if _, err := store.Get(context.Background(), "orig-2"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	if err := store.Save(context.Background(), testArtifacts("orig-2", "sub-new")); err != nil {
		t.Fatalf("save: %v", err)
	}
	snapshot, err := store.Get(context.Background(), "orig-2")
	if err != nil {
		t.Fatalf("get after save: %v", err)
	}
	if base.getCalls != 2 {
		t.Fatalf("expected invalidation to force a second read, got %d", base.getCalls)
	}
	if snapshot.SubOrganizationID != "sub-new" {
		t.Fatalf("expected refreshed snapshot, got %+v", snapshot)
	}
}

func TestCachedSnapshotStore_SaveErrorSkipsInvalidation(t *testing.T) {
	base := &stubSnapshotStore{saveErr: errors.New("write failed")}
	store, _ := NewCachedSnapshotStore(base, newTestCacheService(t))
	if err := store.Save(context.Background(), testArtifacts("orig-3", "sub")); err == nil {
		t.Fatalf("expected save error")
	}
}

func TestCachedSnapshotStore_NotFoundPassesThrough(t *testing.T) {
	store, _ := NewCachedSnapshotStore(&stubSnapshotStore{}, newTestCacheService(t))
	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, core.ErrSnapshotNotFound) {
		t.Fatalf("expected snapshot not found, got %v", err)
	}
}

func TestSnapshotCacheKey_Contract(t *testing.T) {
	key, err := SnapshotCacheKey(" Org/Alpha Team ")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if key != "go-custody::snapshot::v1::Org%2FAlpha%20Team" {
		t.Fatalf("unexpected cache key %q", key)
	}
	if _, err := SnapshotCacheKey("  "); err == nil {
		t.Fatalf("expected empty originator error")
	}
}

func TestNewCachedSnapshotStore_RequiresDependencies(t *testing.T) {
	if _, err := NewCachedSnapshotStore(nil, newTestCacheService(t)); err == nil {
		t.Fatalf("expected base store error")
	}
	if _, err := NewCachedSnapshotStore(&stubSnapshotStore{}, nil); err == nil {
		t.Fatalf("expected cache service error")
	}
}

func newTestCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	cacheService, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return cacheService
}
