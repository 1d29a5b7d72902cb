package command

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-custody/core"
	"github.com/goliatone/go-custody/validation"
)

const (
	TypeInitializePlatform   = "custody.initialize_platform"
	TypeProvisionOriginator  = "custody.provision_originator"
	TypeRegisterArtifacts    = "custody.register_artifacts"
	TypeInitiateDisbursement = "custody.initiate_disbursement"
)

type InitializePlatformMessage struct {
	Platform core.PlatformConfig
}

func (InitializePlatformMessage) Type() string { return TypeInitializePlatform }

func (m InitializePlatformMessage) Validate() error {
	if strings.TrimSpace(m.Platform.OrganizationID) == "" {
		return commandValidationError("organization_id", "organization id is required")
	}
	return nil
}

type ProvisionOriginatorMessage struct {
	Configuration core.OriginatorConfiguration
}

func (ProvisionOriginatorMessage) Type() string { return TypeProvisionOriginator }

func (m ProvisionOriginatorMessage) Validate() error {
	if strings.TrimSpace(m.Configuration.Platform.Originator.OriginatorID) == "" {
		return commandValidationError("originator_id", "originator id is required")
	}
	if strings.TrimSpace(m.Configuration.Platform.OrganizationID) == "" {
		return commandValidationError("organization_id", "organization id is required")
	}
	result := validation.NewValidator().Validate(context.Background(), m.Configuration)
	if !result.IsValid {
		return commandWrapValidation(
			errors.New(strings.Join(result.Errors, "; ")),
			"command: originator configuration is invalid",
		)
	}
	return nil
}

type RegisterArtifactsMessage struct {
	Artifacts core.ProvisioningArtifacts
}

func (RegisterArtifactsMessage) Type() string { return TypeRegisterArtifacts }

func (m RegisterArtifactsMessage) Validate() error {
	if m.Artifacts.Snapshot.OriginatorID() == "" {
		return commandValidationError("snapshot.metadata.originator_id", "originator id metadata is required")
	}
	if strings.TrimSpace(m.Artifacts.Snapshot.SubOrganizationID) == "" {
		return commandValidationError("snapshot.sub_organization_id", "sub-organization id is required")
	}
	return nil
}

type InitiateDisbursementMessage struct {
	Request core.DisbursementRequest
}

func (InitiateDisbursementMessage) Type() string { return TypeInitiateDisbursement }

func (m InitiateDisbursementMessage) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"originator_id", m.Request.OriginatorID},
		{"partner_id", m.Request.PartnerID},
		{"loan_id", m.Request.LoanID},
		{"amount", m.Request.Amount},
		{"chain_id", m.Request.ChainID},
		{"borrower_address", m.Request.BorrowerAddress},
	}
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			return commandValidationError(item.field, strings.ReplaceAll(item.field, "_", " ")+" is required")
		}
	}
	return nil
}
