package custody

import (
	"github.com/goliatone/go-custody/core"
	"github.com/goliatone/go-custody/disbursement"
	"github.com/goliatone/go-custody/provisioning"
	"github.com/goliatone/go-custody/rpc"
	"github.com/goliatone/go-custody/validation"
)

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type OriginatorConfiguration = core.OriginatorConfiguration
type PlatformConfig = core.PlatformConfig
type ProvisioningArtifacts = core.ProvisioningArtifacts
type ProvisioningSnapshot = core.ProvisioningSnapshot
type ProvisioningResult = core.ProvisioningResult

type DisbursementRequest = core.DisbursementRequest
type DisbursementResult = core.DisbursementResult
type DisbursementOption = core.DisbursementOption

var (
	WithLogger               = core.WithLogger
	WithLoggerProvider       = core.WithLoggerProvider
	WithMetricsRecorder      = core.WithMetricsRecorder
	WithErrorFactory         = core.WithErrorFactory
	WithErrorMapper          = core.WithErrorMapper
	WithConfigProvider       = core.WithConfigProvider
	WithOptionsResolver      = core.WithOptionsResolver
	WithClientGateway        = core.WithClientGateway
	WithClientFactory        = core.WithClientFactory
	WithPlatformClient       = core.WithPlatformClient
	WithValidator            = core.WithValidator
	WithProvisioner          = core.WithProvisioner
	WithProvisionerFactory   = core.WithProvisionerFactory
	WithDisbursementExecutor = core.WithDisbursementExecutor
	WithExecutorFactory      = core.WithExecutorFactory
	WithSnapshotStore        = core.WithSnapshotStore
	WithAccountLocker        = core.WithAccountLocker
	WithSnapshot             = core.WithSnapshot
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// DefaultProvisionerFactory runs the provisioning orchestrator against the
// initialized custody platform.
func DefaultProvisionerFactory(opts ...provisioning.Option) core.ProvisionerFactory {
	return func(platform core.CustodyPlatform) (core.Provisioner, error) {
		return provisioning.NewOrchestrator(platform, opts...), nil
	}
}

// WithDisbursement wires the token registry and chain RPC used to build,
// sign and broadcast disbursement transactions.
func WithDisbursement(tokens disbursement.TokenRegistry, chain core.ChainRPC, opts ...disbursement.Option) Option {
	return core.WithExecutorFactory(disbursement.NewExecutorFactory(tokens, chain, opts...))
}

// NewChainRPC returns a JSON-RPC client for the endpoints in cfg.
func NewChainRPC(cfg Config, opts ...rpc.Option) *rpc.Client {
	return rpc.NewClient(cfg.RPC.Endpoints, opts...)
}

// NewService builds a custody service with the default validator and
// provisioning orchestrator. Options given by the caller take precedence.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	defaults := []Option{
		core.WithValidator(validation.NewValidator()),
		core.WithProvisionerFactory(DefaultProvisionerFactory()),
	}
	return core.NewService(cfg, append(defaults, opts...)...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}
