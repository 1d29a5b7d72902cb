package core

import (
	"context"
	"encoding/json"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// TemplateContext carries substitution values for platform name templates
// (originator.*, platform.*, partner.*).
type TemplateContext map[string]string

func (c TemplateContext) With(values map[string]string) TemplateContext {
	out := make(TemplateContext, len(c)+len(values))
	for key, value := range c {
		out[key] = value
	}
	for key, value := range values {
		out[key] = value
	}
	return out
}

type ProvisionedWalletRecord struct {
	WalletID         string
	WalletName       string
	AccountIDs       []string
	AccountAddresses []string
}

type SubOrganizationResult struct {
	SubOrganizationID   string
	SubOrganizationName string
	RootUserIDs         []string
	// Wallets is keyed by flow ID.
	Wallets map[string]ProvisionedWalletRecord
}

type AutomationUserResult struct {
	TemplateID      string
	UserID          string
	APIKeyID        string
	APIKeyIDs       []string
	APIKeyPublicKey string
	SessionIDs      []string
	// Credentials is nil unless a key pair was generated during the call.
	Credentials *AutomationCredentials
}

type AutomationBootstrapResult struct {
	AutomationUsers []AutomationUserResult
}

type ResolvedBinding struct {
	Type   PolicyBindingType
	Target string
}

type PolicyDeploymentRequest struct {
	SubOrganizationID string
	// BindingContexts maps template ID to original target -> resolved value.
	BindingContexts  map[string]map[string]string
	ResolvedBindings map[string][]ResolvedBinding
	TemplateContext  TemplateContext
}

type PolicyDeploymentResult struct {
	PolicyIDs       map[string]string
	PartnerPolicies map[string][]string
}

type CustodyPlatform interface {
	ProvisionSubOrganization(
		ctx context.Context,
		cfg ProvisioningConfig,
		wallets WalletArchitecture,
		templateContext TemplateContext,
	) (SubOrganizationResult, error)
	BootstrapAutomation(
		ctx context.Context,
		cfg *AutomationConfig,
		templateContext TemplateContext,
		subOrganizationID string,
	) (AutomationBootstrapResult, error)
	ProvisionWalletForTemplate(
		ctx context.Context,
		subOrganizationID string,
		template WalletTemplate,
		templateContext TemplateContext,
	) (ProvisionedWalletRecord, error)
	ProvisionAutomationUser(
		ctx context.Context,
		template AutomationUserTemplate,
		templateContext TemplateContext,
		subOrganizationID string,
	) (AutomationUserResult, error)
	ConfigurePolicies(
		ctx context.Context,
		access AccessControlConfig,
		business BusinessModelConfig,
		req PolicyDeploymentRequest,
	) (PolicyDeploymentResult, error)
}

type SignTransactionRequest struct {
	SubOrganizationID    string
	SignWith             string
	UnsignedTransaction  string
	TransactionType      string
	AutomationTemplateID string
}

type SignTransactionResult struct {
	SignedTransaction string
	ActivityID        string
}

// BroadcastFunc submits a signed transaction and returns its hash.
type BroadcastFunc func(ctx context.Context, signedTransaction string) (string, error)

type SignAndSendRequest struct {
	SignTransactionRequest
	Broadcast BroadcastFunc
}

type SignAndSendResult struct {
	SignTransactionResult
	TransactionHash string
}

type TransactionSigner interface {
	SignTransaction(ctx context.Context, req SignTransactionRequest) (SignTransactionResult, error)
}

// TransactionSignSender is implemented by signers that can sign and hand the
// payload to a broadcast callback in one activity.
type TransactionSignSender interface {
	SignAndSendTransaction(ctx context.Context, req SignAndSendRequest) (SignAndSendResult, error)
}

// PlatformClient is the full surface of an initialized custody client.
type PlatformClient interface {
	CustodyPlatform
	TransactionSigner
}

type ClientFactory func(ctx context.Context, platform PlatformConfig) (PlatformClient, error)

type ClientGateway interface {
	Initialize(ctx context.Context, platform PlatformConfig) (PlatformClient, error)
	Client() (PlatformClient, error)
}

// ChainRPC issues JSON-RPC requests against the endpoint registered for a
// chain ID. The chain ID is used as given.
type ChainRPC interface {
	Call(ctx context.Context, chainID string, method string, params ...any) (json.RawMessage, error)
}

type SnapshotStore interface {
	Save(ctx context.Context, artifacts ProvisioningArtifacts) error
	Get(ctx context.Context, originatorID string) (ProvisioningSnapshot, error)
}

type ValidationResult struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

type ConfigurationValidator interface {
	Validate(ctx context.Context, cfg OriginatorConfiguration) ValidationResult
}

type Provisioner interface {
	Provision(ctx context.Context, cfg OriginatorConfiguration) (ProvisioningArtifacts, error)
}

type ProvisionerFactory func(platform CustodyPlatform) (Provisioner, error)

type DisbursementExecutor interface {
	Execute(ctx context.Context, disbursement DisbursementContext) (DisbursementResult, error)
}

type DisbursementExecutorFactory func(signer TransactionSigner) (DisbursementExecutor, error)

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type LockHandle interface {
	Unlock(ctx context.Context) error
}

// AccountLocker serializes work per signing account.
type AccountLocker interface {
	Acquire(ctx context.Context, accountID string, ttl time.Duration) (LockHandle, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type CustodyService interface {
	Initialize(ctx context.Context, platform PlatformConfig) error
	ProvisionOriginator(ctx context.Context, cfg OriginatorConfiguration) (ProvisioningResult, error)
	RegisterProvisioningArtifacts(ctx context.Context, artifacts ProvisioningArtifacts) error
	GetProvisioningSnapshot(ctx context.Context, originatorID string) (ProvisioningSnapshot, error)
	InitiateDisbursement(ctx context.Context, req DisbursementRequest, opts ...DisbursementOption) (DisbursementResult, error)
}
