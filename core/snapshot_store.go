package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MemorySnapshotStore keeps snapshots keyed by originator ID. Values are
// deep copied on the way in and out.
type MemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snapshots: map[string][]byte{}}
}

func (s *MemorySnapshotStore) Save(_ context.Context, artifacts ProvisioningArtifacts) error {
	if s == nil {
		return fmt.Errorf("core: snapshot store is nil")
	}
	originatorID := artifacts.Snapshot.OriginatorID()
	if originatorID == "" {
		return ErrOriginatorMetadataMissing
	}
	payload, err := json.Marshal(artifacts.Snapshot)
	if err != nil {
		return fmt.Errorf("core: encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshots == nil {
		s.snapshots = map[string][]byte{}
	}
	s.snapshots[originatorID] = payload
	return nil
}

func (s *MemorySnapshotStore) Get(_ context.Context, originatorID string) (ProvisioningSnapshot, error) {
	if s == nil {
		return ProvisioningSnapshot{}, fmt.Errorf("core: snapshot store is nil")
	}
	originatorID = strings.TrimSpace(originatorID)

	s.mu.RLock()
	payload, ok := s.snapshots[originatorID]
	s.mu.RUnlock()
	if !ok {
		return ProvisioningSnapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, originatorID)
	}

	var snapshot ProvisioningSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return ProvisioningSnapshot{}, fmt.Errorf("core: decode snapshot: %w", err)
	}
	return snapshot, nil
}
