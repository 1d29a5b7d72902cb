package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[InitializePlatformMessage]   = (*InitializePlatformCommand)(nil)
	_ gocmd.Commander[ProvisionOriginatorMessage]  = (*ProvisionOriginatorCommand)(nil)
	_ gocmd.Commander[RegisterArtifactsMessage]    = (*RegisterArtifactsCommand)(nil)
	_ gocmd.Commander[InitiateDisbursementMessage] = (*InitiateDisbursementCommand)(nil)
)
