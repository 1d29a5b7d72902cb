package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/goliatone/go-custody/core"
)

// SnapshotStore persists one provisioning snapshot per originator. Automation
// credentials are only written when a secret provider is configured; without
// one they are dropped and never reach the database.
type SnapshotStore struct {
	repo    repository.Repository[*snapshotRecord]
	secrets core.SecretProvider
	now     func() time.Time
}

type SnapshotStoreOption func(*SnapshotStore)

func WithSecretProvider(provider core.SecretProvider) SnapshotStoreOption {
	return func(s *SnapshotStore) {
		s.secrets = provider
	}
}

// keyInfo is implemented by providers that expose the key used for sealing.
type keyInfo interface {
	KeyID() string
	Version() int
}

func NewSnapshotStore(repo repository.Repository[*snapshotRecord], opts ...SnapshotStoreOption) (*SnapshotStore, error) {
	if repo == nil {
		return nil, fmt.Errorf("sqlstore: snapshot repository is required")
	}
	store := &SnapshotStore{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// Save inserts or replaces the snapshot for the originator named in the
// snapshot metadata. Sealed credentials from an earlier save are kept when
// artifacts carries none.
func (s *SnapshotStore) Save(ctx context.Context, artifacts core.ProvisioningArtifacts) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	originatorID := artifacts.Snapshot.OriginatorID()
	if originatorID == "" {
		return core.ErrOriginatorMetadataMissing
	}

	existing, err := s.find(ctx, originatorID)
	if err != nil {
		return err
	}

	now := s.now()
	record := existing
	if record == nil {
		record = &snapshotRecord{
			ID:           uuid.NewString(),
			OriginatorID: originatorID,
			CreatedAt:    now,
		}
	}
	record.SubOrganizationID = strings.TrimSpace(artifacts.Snapshot.SubOrganizationID)
	record.PlatformConfigHash = strings.TrimSpace(artifacts.PlatformConfigHash)
	record.Snapshot = artifacts.Snapshot
	record.ResolvedTemplates = copyStringMap(artifacts.ResolvedTemplates)
	record.UpdatedAt = now

	if len(artifacts.AutomationCredentials) > 0 && s.secrets != nil {
		if err := s.seal(ctx, record, artifacts.AutomationCredentials); err != nil {
			return err
		}
	}

	if existing == nil {
		if _, err := s.repo.Create(ctx, record); err != nil {
			return fmt.Errorf("sqlstore: create snapshot for %q: %w", originatorID, err)
		}
		return nil
	}
	if _, err := s.repo.Update(ctx, record, repository.UpdateByID(record.ID)); err != nil {
		return fmt.Errorf("sqlstore: update snapshot for %q: %w", originatorID, err)
	}
	return nil
}

func (s *SnapshotStore) Get(ctx context.Context, originatorID string) (core.ProvisioningSnapshot, error) {
	if s == nil || s.repo == nil {
		return core.ProvisioningSnapshot{}, fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	record, err := s.require(ctx, originatorID)
	if err != nil {
		return core.ProvisioningSnapshot{}, err
	}
	return record.Snapshot, nil
}

// GetArtifacts returns the stored artifacts, decrypting automation
// credentials when they were sealed.
func (s *SnapshotStore) GetArtifacts(ctx context.Context, originatorID string) (core.ProvisioningArtifacts, error) {
	if s == nil || s.repo == nil {
		return core.ProvisioningArtifacts{}, fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	record, err := s.require(ctx, originatorID)
	if err != nil {
		return core.ProvisioningArtifacts{}, err
	}
	artifacts := core.ProvisioningArtifacts{
		PlatformConfigHash: record.PlatformConfigHash,
		Snapshot:           record.Snapshot,
		ResolvedTemplates:  copyStringMap(record.ResolvedTemplates),
	}
	if len(record.SealedCredentials) == 0 {
		return artifacts, nil
	}
	if s.secrets == nil {
		return core.ProvisioningArtifacts{}, fmt.Errorf("sqlstore: secret provider is required to open sealed credentials")
	}
	plaintext, err := s.secrets.Decrypt(ctx, record.SealedCredentials)
	if err != nil {
		return core.ProvisioningArtifacts{}, fmt.Errorf("sqlstore: open credentials for %q: %w", record.OriginatorID, err)
	}
	credentials := map[string]core.AutomationCredentials{}
	if err := json.Unmarshal(plaintext, &credentials); err != nil {
		return core.ProvisioningArtifacts{}, fmt.Errorf("sqlstore: decode credentials: %w", err)
	}
	artifacts.AutomationCredentials = credentials
	return artifacts, nil
}

func (s *SnapshotStore) seal(ctx context.Context, record *snapshotRecord, credentials map[string]core.AutomationCredentials) error {
	plaintext, err := json.Marshal(credentials)
	if err != nil {
		return fmt.Errorf("sqlstore: encode credentials: %w", err)
	}
	sealed, err := s.secrets.Encrypt(ctx, plaintext)
	if err != nil {
		return fmt.Errorf("sqlstore: seal credentials: %w", err)
	}
	record.SealedCredentials = sealed
	record.EncryptionKeyID = ""
	record.EncryptionVersion = 0
	if info, ok := s.secrets.(keyInfo); ok {
		record.EncryptionKeyID = info.KeyID()
		record.EncryptionVersion = info.Version()
	}
	return nil
}

func (s *SnapshotStore) require(ctx context.Context, originatorID string) (*snapshotRecord, error) {
	originatorID = strings.TrimSpace(originatorID)
	if originatorID == "" {
		return nil, fmt.Errorf("sqlstore: originator id is required")
	}
	record, err := s.find(ctx, originatorID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrSnapshotNotFound, originatorID)
	}
	return record, nil
}

func (s *SnapshotStore) find(ctx context.Context, originatorID string) (*snapshotRecord, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("originator_id", "=", originatorID),
		repository.OrderBy("updated_at DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: load snapshot for %q: %w", originatorID, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
