package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-custody/core"
)

// MutatingService is the write side of the custody service.
type MutatingService interface {
	Initialize(ctx context.Context, platform core.PlatformConfig) error
	ProvisionOriginator(ctx context.Context, cfg core.OriginatorConfiguration) (core.ProvisioningResult, error)
	RegisterProvisioningArtifacts(ctx context.Context, artifacts core.ProvisioningArtifacts) error
	InitiateDisbursement(
		ctx context.Context,
		req core.DisbursementRequest,
		opts ...core.DisbursementOption,
	) (core.DisbursementResult, error)
}

type InitializePlatformCommand struct {
	service MutatingService
}

func NewInitializePlatformCommand(service MutatingService) *InitializePlatformCommand {
	return &InitializePlatformCommand{service: service}
}

func (c *InitializePlatformCommand) Execute(ctx context.Context, msg InitializePlatformMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: initialize service is required")
	}
	return c.service.Initialize(ctx, msg.Platform)
}

type ProvisionOriginatorCommand struct {
	service MutatingService
}

func NewProvisionOriginatorCommand(service MutatingService) *ProvisionOriginatorCommand {
	return &ProvisionOriginatorCommand{service: service}
}

func (c *ProvisionOriginatorCommand) Execute(ctx context.Context, msg ProvisionOriginatorMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: provisioning service is required")
	}
	out, err := c.service.ProvisionOriginator(ctx, msg.Configuration)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RegisterArtifactsCommand struct {
	service MutatingService
}

func NewRegisterArtifactsCommand(service MutatingService) *RegisterArtifactsCommand {
	return &RegisterArtifactsCommand{service: service}
}

func (c *RegisterArtifactsCommand) Execute(ctx context.Context, msg RegisterArtifactsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: artifact registration service is required")
	}
	return c.service.RegisterProvisioningArtifacts(ctx, msg.Artifacts)
}

type InitiateDisbursementCommand struct {
	service MutatingService
	opts    []core.DisbursementOption
}

// NewInitiateDisbursementCommand binds opts to every execution.
func NewInitiateDisbursementCommand(service MutatingService, opts ...core.DisbursementOption) *InitiateDisbursementCommand {
	return &InitiateDisbursementCommand{service: service, opts: opts}
}

func (c *InitiateDisbursementCommand) Execute(ctx context.Context, msg InitiateDisbursementMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: disbursement service is required")
	}
	out, err := c.service.InitiateDisbursement(ctx, msg.Request, c.opts...)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
