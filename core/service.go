package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type Service struct {
	config             Config
	logger             Logger
	loggerProvider     LoggerProvider
	metricsRecorder    MetricsRecorder
	errorFactory       ErrorFactory
	errorMapper        ErrorMapper
	configProvider     ConfigProvider
	optionsResolver    OptionsResolver
	clientGateway      ClientGateway
	validator          ConfigurationValidator
	provisioner        Provisioner
	provisionerFactory ProvisionerFactory
	executor           DisbursementExecutor
	executorFactory    DisbursementExecutorFactory
	snapshotStore      SnapshotStore
	accountLocker      AccountLocker
}

type ServiceDependencies struct {
	Logger               Logger
	LoggerProvider       LoggerProvider
	MetricsRecorder      MetricsRecorder
	ErrorFactory         ErrorFactory
	ErrorMapper          ErrorMapper
	ConfigProvider       ConfigProvider
	OptionsResolver      OptionsResolver
	ClientGateway        ClientGateway
	Validator            ConfigurationValidator
	Provisioner          Provisioner
	DisbursementExecutor DisbursementExecutor
	SnapshotStore        SnapshotStore
	AccountLocker        AccountLocker
}

type ProvisioningResult struct {
	Artifacts ProvisioningArtifacts
	Warnings  []string
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve(defaultServiceName, builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(defaultServiceName); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.clientGateway == nil && builder.clientFactory != nil {
		builder.clientGateway = NewStaticClientGateway(builder.clientFactory)
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:             finalConfig,
		logger:             logger,
		loggerProvider:     provider,
		metricsRecorder:    builder.metricsRecorder,
		errorFactory:       builder.errorFactory,
		errorMapper:        builder.errorMapper,
		configProvider:     builder.configProvider,
		optionsResolver:    builder.optionsResolver,
		clientGateway:      builder.clientGateway,
		validator:          builder.validator,
		provisioner:        builder.provisioner,
		provisionerFactory: builder.provisionerFactory,
		executor:           builder.executor,
		executorFactory:    builder.executorFactory,
		snapshotStore:      builder.snapshotStore,
		accountLocker:      builder.accountLocker,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:               s.logger,
		LoggerProvider:       s.loggerProvider,
		MetricsRecorder:      s.metricsRecorder,
		ErrorFactory:         s.errorFactory,
		ErrorMapper:          s.errorMapper,
		ConfigProvider:       s.configProvider,
		OptionsResolver:      s.optionsResolver,
		ClientGateway:        s.clientGateway,
		Validator:            s.validator,
		Provisioner:          s.provisioner,
		DisbursementExecutor: s.executor,
		SnapshotStore:        s.snapshotStore,
		AccountLocker:        s.accountLocker,
	}
}

// Initialize builds the custody client for platform through the gateway.
func (s *Service) Initialize(ctx context.Context, platform PlatformConfig) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"originator_id": platform.Originator.OriginatorID}
	defer func() {
		s.observeOperation(ctx, startedAt, "initialize", err, fields)
	}()

	_, err = s.ensureClient(ctx, platform)
	return err
}

// ProvisionOriginator validates cfg, provisions the originator and saves the
// artifacts when a snapshot store is configured.
func (s *Service) ProvisionOriginator(ctx context.Context, cfg OriginatorConfiguration) (result ProvisioningResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"originator_id": cfg.Platform.Originator.OriginatorID}
	defer func() {
		s.observeOperation(ctx, startedAt, "provision_originator", err, fields)
	}()

	if s == nil {
		return ProvisioningResult{}, fmt.Errorf("core: service is nil")
	}

	var warnings []string
	if s.validator != nil {
		validation := s.validator.Validate(ctx, cfg)
		warnings = append(warnings, validation.Warnings...)
		if !validation.IsValid {
			err = s.serviceError(
				"originator configuration failed validation",
				goerrors.CategoryValidation,
				ServiceErrorValidationFailed,
				map[string]any{
					"errors":   append([]string(nil), validation.Errors...),
					"warnings": append([]string(nil), validation.Warnings...),
				},
			)
			return ProvisioningResult{Warnings: warnings}, err
		}
	}

	client, err := s.ensureClient(ctx, cfg.Platform)
	if err != nil {
		return ProvisioningResult{Warnings: warnings}, err
	}
	provisioner, err := s.resolveProvisioner(client)
	if err != nil {
		return ProvisioningResult{Warnings: warnings}, err
	}

	artifacts, err := provisioner.Provision(ctx, cfg)
	if err != nil {
		err = s.mapError(err)
		return ProvisioningResult{Warnings: warnings}, err
	}
	fields["sub_organization_id"] = artifacts.Snapshot.SubOrganizationID

	if s.snapshotStore != nil {
		if err = s.snapshotStore.Save(ctx, artifacts); err != nil {
			err = s.mapError(err)
			return ProvisioningResult{Artifacts: artifacts, Warnings: warnings}, err
		}
	}
	return ProvisioningResult{Artifacts: artifacts, Warnings: warnings}, nil
}

func (s *Service) RegisterProvisioningArtifacts(ctx context.Context, artifacts ProvisioningArtifacts) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"originator_id": artifacts.Snapshot.OriginatorID()}
	defer func() {
		s.observeOperation(ctx, startedAt, "register_provisioning_artifacts", err, fields)
	}()

	store, err := s.requireSnapshotStore()
	if err != nil {
		return err
	}
	if err = store.Save(ctx, artifacts); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

func (s *Service) GetProvisioningSnapshot(ctx context.Context, originatorID string) (snapshot ProvisioningSnapshot, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"originator_id": originatorID}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_provisioning_snapshot", err, fields)
	}()

	store, err := s.requireSnapshotStore()
	if err != nil {
		return ProvisioningSnapshot{}, err
	}
	originatorID = strings.TrimSpace(originatorID)
	if originatorID == "" {
		err = s.mapError(fmt.Errorf("core: originator id is required"))
		return ProvisioningSnapshot{}, err
	}
	snapshot, err = store.Get(ctx, originatorID)
	if err != nil {
		err = s.mapError(err)
		return ProvisioningSnapshot{}, err
	}
	return snapshot, nil
}

func (s *Service) ensureClient(ctx context.Context, platform PlatformConfig) (PlatformClient, error) {
	if s == nil || s.clientGateway == nil {
		return nil, s.mapError(ErrClientNotInitialized)
	}
	client, err := s.clientGateway.Initialize(ctx, platform)
	if err != nil {
		return nil, s.mapError(err)
	}
	return client, nil
}

func (s *Service) currentClient() (PlatformClient, error) {
	if s == nil || s.clientGateway == nil {
		return nil, s.mapError(ErrClientNotInitialized)
	}
	client, err := s.clientGateway.Client()
	if err != nil {
		return nil, s.mapError(err)
	}
	return client, nil
}

func (s *Service) resolveProvisioner(client PlatformClient) (Provisioner, error) {
	if s.provisioner != nil {
		return s.provisioner, nil
	}
	if s.provisionerFactory == nil {
		return nil, s.serviceError(
			"provisioner is not configured",
			goerrors.CategoryInternal,
			ServiceErrorProvisionerNotConfigured,
			nil,
		)
	}
	provisioner, err := s.provisionerFactory(client)
	if err != nil {
		return nil, s.mapError(err)
	}
	return provisioner, nil
}

func (s *Service) requireSnapshotStore() (SnapshotStore, error) {
	if s == nil || s.snapshotStore == nil {
		return nil, s.serviceError(
			"snapshot store is not configured",
			goerrors.CategoryInternal,
			ServiceErrorSnapshotStoreNotConfigured,
			nil,
		)
	}
	return s.snapshotStore, nil
}

func (s *Service) serviceError(
	message string,
	category goerrors.Category,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	factory := goerrors.New
	if s != nil && s.errorFactory != nil {
		factory = s.errorFactory
	}
	err := factory(message, category).WithTextCode(textCode)
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return ensureServiceErrorEnvelope(err)
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
