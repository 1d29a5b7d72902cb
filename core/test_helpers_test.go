package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

// stubPlatformClient satisfies PlatformClient; the provisioning calls are
// never reached from core tests because the provisioner is stubbed.
type stubPlatformClient struct {
	name string
}

func (stubPlatformClient) ProvisionSubOrganization(context.Context, ProvisioningConfig, WalletArchitecture, TemplateContext) (SubOrganizationResult, error) {
	return SubOrganizationResult{}, nil
}

func (stubPlatformClient) BootstrapAutomation(context.Context, *AutomationConfig, TemplateContext, string) (AutomationBootstrapResult, error) {
	return AutomationBootstrapResult{}, nil
}

func (stubPlatformClient) ProvisionWalletForTemplate(context.Context, string, WalletTemplate, TemplateContext) (ProvisionedWalletRecord, error) {
	return ProvisionedWalletRecord{}, nil
}

func (stubPlatformClient) ProvisionAutomationUser(context.Context, AutomationUserTemplate, TemplateContext, string) (AutomationUserResult, error) {
	return AutomationUserResult{}, nil
}

func (stubPlatformClient) ConfigurePolicies(context.Context, AccessControlConfig, BusinessModelConfig, PolicyDeploymentRequest) (PolicyDeploymentResult, error) {
	return PolicyDeploymentResult{}, nil
}

func (stubPlatformClient) SignTransaction(context.Context, SignTransactionRequest) (SignTransactionResult, error) {
	return SignTransactionResult{SignedTransaction: "0xsigned"}, nil
}

type stubValidator struct {
	result ValidationResult
	calls  int
}

func (v *stubValidator) Validate(context.Context, OriginatorConfiguration) ValidationResult {
	v.calls++
	return v.result
}

type stubProvisioner struct {
	artifacts ProvisioningArtifacts
	err       error
	calls     int
}

func (p *stubProvisioner) Provision(context.Context, OriginatorConfiguration) (ProvisioningArtifacts, error) {
	p.calls++
	return p.artifacts, p.err
}

type stubExecutor struct {
	mu       sync.Mutex
	contexts []DisbursementContext
	result   DisbursementResult
	err      error
	onRun    func(DisbursementContext)
}

func (e *stubExecutor) Execute(_ context.Context, disbursement DisbursementContext) (DisbursementResult, error) {
	if e.onRun != nil {
		e.onRun(disbursement)
	}
	e.mu.Lock()
	e.contexts = append(e.contexts, disbursement)
	e.mu.Unlock()
	if e.err != nil {
		return DisbursementResult{}, e.err
	}
	result := e.result
	if result.LoanID == "" {
		result.LoanID = disbursement.Request.LoanID
	}
	if result.Status == "" {
		result.Status = DisbursementStatusSubmitted
	}
	return result, nil
}

func (e *stubExecutor) last() DisbursementContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.contexts) == 0 {
		return DisbursementContext{}
	}
	return e.contexts[len(e.contexts)-1]
}

type failingLocker struct {
	err error
}

func (l failingLocker) Acquire(context.Context, string, time.Duration) (LockHandle, error) {
	return nil, l.err
}

func testPlatform(originatorID string) PlatformConfig {
	return PlatformConfig{
		Environment:    PlatformEnvironmentSandbox,
		OrganizationID: "org-1",
		Originator: OriginatorIdentity{
			OriginatorID: originatorID,
			DisplayName:  "Originator " + originatorID,
		},
	}
}

// testSnapshot returns a snapshot with a shared distribution wallet, a
// partner override wallet for partner-b and automation users for both the
// shared and partner scoped templates.
func testSnapshot(originatorID string) ProvisioningSnapshot {
	return ProvisioningSnapshot{
		SubOrganizationID:   "sub-" + originatorID,
		Name:                "Originator " + originatorID,
		RootQuorumThreshold: 1,
		RootUsers:           []ProvisionedRootUser{{TemplateID: "root", UserID: "root-user"}},
		WalletFlows: []ProvisionedWalletFlow{
			{
				FlowID:                FlowDistribution,
				WalletTemplateID:      "treasury",
				WalletID:              "wallet-shared",
				AccountIDByAlias:      map[string]string{"hot": "acct-hot", "cold": PendingIdentifier},
				AccountAddressByAlias: map[string]string{"hot": "0xhot"},
			},
			{
				FlowID:                FlowDistribution,
				WalletTemplateID:      "partner-treasury",
				WalletID:              "wallet-b",
				AccountIDByAlias:      map[string]string{"primary": "acct-b"},
				AccountAddressByAlias: map[string]string{"primary": "0xb"},
				Metadata:              map[string]string{WalletFlowMetadataPartnerID: "partner-b"},
			},
			{
				FlowID:           FlowCollection,
				WalletTemplateID: "collection",
				WalletID:         PendingIdentifier,
				AccountIDByAlias: map[string]string{"primary": PendingIdentifier},
			},
		},
		AutomationUsers: []ProvisionedAutomationUser{
			{TemplateID: "disburser", UserID: "auto-shared", APIKeyID: "key-shared"},
			{TemplateID: "disburser", UserID: "auto-b", APIKeyID: "key-b", PartnerID: "partner-b"},
			{TemplateID: "reporter", UserID: PendingIdentifier},
		},
		Partners: []PartnerRuntime{
			{
				PartnerID:   "partner-a",
				WalletFlows: map[string]string{FlowDistribution: "wallet-shared"},
				PolicyIDs:   []string{"policy-a"},
			},
			{
				PartnerID:                "partner-b",
				WalletFlows:              map[string]string{FlowDistribution: "wallet-b", FlowCollection: PendingIdentifier},
				PolicyIDs:                []string{"policy-b"},
				AutomationUserTemplateID: "disburser",
			},
			{
				PartnerID:                "partner-c",
				WalletFlows:              map[string]string{},
				AutomationUserTemplateID: "reporter",
			},
		},
		Metadata: map[string]string{SnapshotMetadataOriginatorID: originatorID},
	}
}

func testRequest(partnerID string) DisbursementRequest {
	return DisbursementRequest{
		OriginatorID:    "orig-1",
		PartnerID:       partnerID,
		LoanID:          fmt.Sprintf("loan-%s", partnerID),
		Amount:          "125.50",
		AssetSymbol:     "USDC",
		ChainID:         "8453",
		BorrowerAddress: "0x00000000000000000000000000000000000000aa",
	}
}
