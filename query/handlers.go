package query

import (
	"context"

	"github.com/goliatone/go-custody/core"
)

type SnapshotReader interface {
	GetProvisioningSnapshot(ctx context.Context, originatorID string) (core.ProvisioningSnapshot, error)
}

// ArtifactReader is implemented by stores that can return the full
// provisioning artifacts, including opened automation credentials.
type ArtifactReader interface {
	GetArtifacts(ctx context.Context, originatorID string) (core.ProvisioningArtifacts, error)
}

type GetProvisioningSnapshotQuery struct {
	reader SnapshotReader
}

func NewGetProvisioningSnapshotQuery(reader SnapshotReader) *GetProvisioningSnapshotQuery {
	return &GetProvisioningSnapshotQuery{reader: reader}
}

func (q *GetProvisioningSnapshotQuery) Query(
	ctx context.Context,
	msg GetProvisioningSnapshotMessage,
) (core.ProvisioningSnapshot, error) {
	if q == nil || q.reader == nil {
		return core.ProvisioningSnapshot{}, queryDependencyError("query: snapshot reader is required")
	}
	return q.reader.GetProvisioningSnapshot(ctx, msg.OriginatorID)
}

type GetProvisioningArtifactsQuery struct {
	reader ArtifactReader
}

func NewGetProvisioningArtifactsQuery(reader ArtifactReader) *GetProvisioningArtifactsQuery {
	return &GetProvisioningArtifactsQuery{reader: reader}
}

func (q *GetProvisioningArtifactsQuery) Query(
	ctx context.Context,
	msg GetProvisioningArtifactsMessage,
) (core.ProvisioningArtifacts, error) {
	if q == nil || q.reader == nil {
		return core.ProvisioningArtifacts{}, queryDependencyError("query: artifact reader is required")
	}
	return q.reader.GetArtifacts(ctx, msg.OriginatorID)
}

type ValidateConfigurationQuery struct {
	validator core.ConfigurationValidator
}

func NewValidateConfigurationQuery(validator core.ConfigurationValidator) *ValidateConfigurationQuery {
	return &ValidateConfigurationQuery{validator: validator}
}

func (q *ValidateConfigurationQuery) Query(
	ctx context.Context,
	msg ValidateConfigurationMessage,
) (core.ValidationResult, error) {
	if q == nil || q.validator == nil {
		return core.ValidationResult{}, queryDependencyError("query: configuration validator is required")
	}
	return q.validator.Validate(ctx, msg.Configuration), nil
}
