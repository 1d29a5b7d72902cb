package custody

import (
	"fmt"

	custodycommand "github.com/goliatone/go-custody/command"
	"github.com/goliatone/go-custody/core"
	custodyquery "github.com/goliatone/go-custody/query"
)

type CommandQueryService interface {
	custodycommand.MutatingService
	custodyquery.SnapshotReader
}

type Commands struct {
	InitializePlatform   *custodycommand.InitializePlatformCommand
	ProvisionOriginator  *custodycommand.ProvisionOriginatorCommand
	RegisterArtifacts    *custodycommand.RegisterArtifactsCommand
	InitiateDisbursement *custodycommand.InitiateDisbursementCommand
}

type Queries struct {
	ProvisioningSnapshot  *custodyquery.GetProvisioningSnapshotQuery
	ProvisioningArtifacts *custodyquery.GetProvisioningArtifactsQuery
	ValidateConfiguration *custodyquery.ValidateConfigurationQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	artifactReader      custodyquery.ArtifactReader
	validator           core.ConfigurationValidator
	disbursementOptions []core.DisbursementOption
}

func WithArtifactReader(reader custodyquery.ArtifactReader) FacadeOption {
	return func(options *facadeOptions) {
		options.artifactReader = reader
	}
}

func WithConfigurationValidator(validator core.ConfigurationValidator) FacadeOption {
	return func(options *facadeOptions) {
		options.validator = validator
	}
}

// WithDisbursementOptions binds opts to every disbursement command execution.
func WithDisbursementOptions(opts ...core.DisbursementOption) FacadeOption {
	return func(options *facadeOptions) {
		options.disbursementOptions = append(options.disbursementOptions, opts...)
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("custody: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	deps := resolveDependencies(service)
	reader := cfg.artifactReader
	if reader == nil {
		reader = resolveArtifactReader(service, deps)
	}
	validator := cfg.validator
	if validator == nil {
		validator = deps.Validator
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		InitializePlatform:   custodycommand.NewInitializePlatformCommand(service),
		ProvisionOriginator:  custodycommand.NewProvisionOriginatorCommand(service),
		RegisterArtifacts:    custodycommand.NewRegisterArtifactsCommand(service),
		InitiateDisbursement: custodycommand.NewInitiateDisbursementCommand(service, cfg.disbursementOptions...),
	}
	facade.queries = Queries{
		ProvisioningSnapshot:  custodyquery.NewGetProvisioningSnapshotQuery(service),
		ProvisioningArtifacts: custodyquery.NewGetProvisioningArtifactsQuery(reader),
		ValidateConfiguration: custodyquery.NewValidateConfigurationQuery(validator),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

func resolveDependencies(service CommandQueryService) core.ServiceDependencies {
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return core.ServiceDependencies{}
	}
	return provider.Dependencies()
}

// resolveArtifactReader prefers the service itself, then its snapshot store.
func resolveArtifactReader(service CommandQueryService, deps core.ServiceDependencies) custodyquery.ArtifactReader {
	if reader, ok := service.(custodyquery.ArtifactReader); ok {
		return reader
	}
	if deps.SnapshotStore == nil {
		return nil
	}
	if reader, ok := deps.SnapshotStore.(custodyquery.ArtifactReader); ok {
		return reader
	}
	return nil
}
