package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-custody/core"
)

var (
	_ gocmd.Querier[GetProvisioningSnapshotMessage, core.ProvisioningSnapshot]   = (*GetProvisioningSnapshotQuery)(nil)
	_ gocmd.Querier[GetProvisioningArtifactsMessage, core.ProvisioningArtifacts] = (*GetProvisioningArtifactsQuery)(nil)
	_ gocmd.Querier[ValidateConfigurationMessage, core.ValidationResult]         = (*ValidateConfigurationQuery)(nil)

	_ SnapshotReader = core.CustodyService(nil)
)
