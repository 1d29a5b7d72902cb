package query

import (
	"strings"

	"github.com/goliatone/go-custody/core"
)

const (
	TypeGetProvisioningSnapshot  = "custody.provisioning_snapshot"
	TypeGetProvisioningArtifacts = "custody.provisioning_artifacts"
	TypeValidateConfiguration    = "custody.validate_configuration"
)

type GetProvisioningSnapshotMessage struct {
	OriginatorID string
}

func (GetProvisioningSnapshotMessage) Type() string { return TypeGetProvisioningSnapshot }

func (m GetProvisioningSnapshotMessage) Validate() error {
	if strings.TrimSpace(m.OriginatorID) == "" {
		return queryValidationError("originator_id", "originator id is required")
	}
	return nil
}

type GetProvisioningArtifactsMessage struct {
	OriginatorID string
}

func (GetProvisioningArtifactsMessage) Type() string { return TypeGetProvisioningArtifacts }

func (m GetProvisioningArtifactsMessage) Validate() error {
	if strings.TrimSpace(m.OriginatorID) == "" {
		return queryValidationError("originator_id", "originator id is required")
	}
	return nil
}

type ValidateConfigurationMessage struct {
	Configuration core.OriginatorConfiguration
}

func (ValidateConfigurationMessage) Type() string { return TypeValidateConfiguration }

func (ValidateConfigurationMessage) Validate() error { return nil }
