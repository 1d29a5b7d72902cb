package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig      Config
	logger             Logger
	loggerProvider     LoggerProvider
	metricsRecorder    MetricsRecorder
	errorFactory       ErrorFactory
	errorMapper        ErrorMapper
	configProvider     ConfigProvider
	optionsResolver    OptionsResolver
	clientGateway      ClientGateway
	clientFactory      ClientFactory
	validator          ConfigurationValidator
	provisioner        Provisioner
	provisionerFactory ProvisionerFactory
	executor           DisbursementExecutor
	executorFactory    DisbursementExecutorFactory
	snapshotStore      SnapshotStore
	accountLocker      AccountLocker
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

// WithClientGateway injects the gateway that owns the custody client.
func WithClientGateway(gateway ClientGateway) Option {
	return func(b *serviceBuilder) {
		b.clientGateway = gateway
	}
}

// WithClientFactory builds a StaticClientGateway around factory.
func WithClientFactory(factory ClientFactory) Option {
	return func(b *serviceBuilder) {
		b.clientFactory = factory
	}
}

// WithPlatformClient uses an already constructed custody client.
func WithPlatformClient(client PlatformClient) Option {
	return func(b *serviceBuilder) {
		b.clientGateway = NewInitializedClientGateway(client)
	}
}

func WithValidator(validator ConfigurationValidator) Option {
	return func(b *serviceBuilder) {
		b.validator = validator
	}
}

// WithProvisioner takes precedence over WithProvisionerFactory.
func WithProvisioner(provisioner Provisioner) Option {
	return func(b *serviceBuilder) {
		b.provisioner = provisioner
	}
}

func WithProvisionerFactory(factory ProvisionerFactory) Option {
	return func(b *serviceBuilder) {
		b.provisionerFactory = factory
	}
}

// WithDisbursementExecutor takes precedence over WithExecutorFactory.
func WithDisbursementExecutor(executor DisbursementExecutor) Option {
	return func(b *serviceBuilder) {
		b.executor = executor
	}
}

func WithExecutorFactory(factory DisbursementExecutorFactory) Option {
	return func(b *serviceBuilder) {
		b.executorFactory = factory
	}
}

func WithSnapshotStore(store SnapshotStore) Option {
	return func(b *serviceBuilder) {
		b.snapshotStore = store
	}
}

// WithAccountLocker serializes disbursements per signing account. There is
// no locking unless a locker is configured.
func WithAccountLocker(locker AccountLocker) Option {
	return func(b *serviceBuilder) {
		b.accountLocker = locker
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve(defaultServiceName, nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return serviceErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver layers defaults < loaded config < runtime overrides.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	disbursement := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Disbursement.DefaultFlowID) != "" {
		disbursement["default_flow_id"] = cfg.Disbursement.DefaultFlowID
	}
	if includeZero || strings.TrimSpace(cfg.Disbursement.DefaultAccountAlias) != "" {
		disbursement["default_account_alias"] = cfg.Disbursement.DefaultAccountAlias
	}
	if includeZero || strings.TrimSpace(cfg.Disbursement.DefaultAutomationTemplateID) != "" {
		disbursement["default_automation_template_id"] = cfg.Disbursement.DefaultAutomationTemplateID
	}
	if includeZero || strings.TrimSpace(cfg.Disbursement.TransactionType) != "" {
		disbursement["transaction_type"] = cfg.Disbursement.TransactionType
	}
	if includeZero || cfg.Disbursement.AccountLockTTL > 0 {
		disbursement["account_lock_ttl"] = cfg.Disbursement.AccountLockTTL
	}
	if len(disbursement) > 0 {
		layer["disbursement"] = disbursement
	}

	cache := map[string]any{}
	if includeZero || cfg.SnapshotCache.Enabled {
		cache["enabled"] = cfg.SnapshotCache.Enabled
	}
	if includeZero || cfg.SnapshotCache.TTL > 0 {
		cache["ttl"] = cfg.SnapshotCache.TTL
	}
	if len(cache) > 0 {
		layer["snapshot_cache"] = cache
	}

	if includeZero || len(cfg.RPC.Endpoints) > 0 {
		endpoints := make(map[string]any, len(cfg.RPC.Endpoints))
		for chainID, endpoint := range cfg.RPC.Endpoints {
			endpoints[chainID] = endpoint
		}
		layer["rpc"] = map[string]any{"endpoints": endpoints}
	}
	return layer
}
