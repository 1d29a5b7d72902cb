// Package provisioning turns an originator configuration into a custody
// sub-organization with default and partner specific wallets, automation
// users and policies.
package provisioning

import (
	"context"
	"encoding/json"
	"fmt"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-custody/core"
	"github.com/goliatone/go-custody/policy"
)

const (
	flowMetadataSource = "flow_source"
)

type PolicyDeployer interface {
	Deploy(ctx context.Context, req policy.DeployRequest) (policy.DeployResult, error)
}

type Orchestrator struct {
	platform core.CustodyPlatform
	policies PolicyDeployer
	logger   core.Logger
}

type Option func(*Orchestrator)

func WithPolicyDeployer(deployer PolicyDeployer) Option {
	return func(o *Orchestrator) {
		if deployer != nil {
			o.policies = deployer
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func NewOrchestrator(platform core.CustodyPlatform, opts ...Option) *Orchestrator {
	orchestrator := &Orchestrator{platform: platform, logger: glog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(orchestrator)
		}
	}
	if orchestrator.policies == nil {
		orchestrator.policies = policy.NewProvisioner(platform, policy.WithLogger(orchestrator.logger))
	}
	return orchestrator
}

// Provision runs the provisioning workflow. Platform calls are issued one at
// a time and are never retried; a failure leaves already created remote
// resources in place.
func (o *Orchestrator) Provision(ctx context.Context, cfg core.OriginatorConfiguration) (core.ProvisioningArtifacts, error) {
	if o == nil || o.platform == nil {
		return core.ProvisioningArtifacts{}, fmt.Errorf("provisioning: custody platform is not configured")
	}

	registry, err := checkWalletArchitecture(cfg.BusinessModel.Wallets)
	if err != nil {
		return core.ProvisioningArtifacts{}, err
	}
	plans, err := buildPartnerPlans(cfg, registry)
	if err != nil {
		return core.ProvisioningArtifacts{}, err
	}
	platformHash, err := core.HashPlatformConfig(cfg.Platform)
	if err != nil {
		return core.ProvisioningArtifacts{}, err
	}

	templateContext := buildTemplateContext(cfg.Platform)
	originatorID := cfg.Platform.Originator.OriginatorID
	logger := o.logger

	suborg, err := o.platform.ProvisionSubOrganization(ctx, cfg.Provisioning, cfg.BusinessModel.Wallets, templateContext)
	if err != nil {
		return core.ProvisioningArtifacts{}, fmt.Errorf("provisioning: provision sub-organization: %w", err)
	}
	logger.Debug("sub-organization provisioned",
		"originator_id", originatorID,
		"sub_organization_id", suborg.SubOrganizationID,
	)
	runtimeContext := runtimeTemplateContext(templateContext, suborg)

	bootstrap, err := o.platform.BootstrapAutomation(ctx, cfg.AccessControl.Automation, runtimeContext, suborg.SubOrganizationID)
	if err != nil {
		return core.ProvisioningArtifacts{}, fmt.Errorf("provisioning: bootstrap automation: %w", err)
	}

	credentials := map[string]core.AutomationCredentials{}
	automationUsers := make([]core.ProvisionedAutomationUser, 0, len(bootstrap.AutomationUsers))
	automationUserIDs := map[string]string{}
	for _, user := range bootstrap.AutomationUsers {
		key := core.CredentialKey("", user.TemplateID)
		if user.Credentials != nil {
			credentials[key] = *user.Credentials
		}
		mapped := mapAutomationUser(user, "", key)
		automationUsers = append(automationUsers, mapped)
		if core.IsMaterialized(mapped.UserID) {
			automationUserIDs[mapped.TemplateID] = mapped.UserID
		}
	}

	defaultFlows := make([]core.ProvisionedWalletFlow, 0, len(cfg.BusinessModel.Wallets.Flows))
	defaultByFlow := make(map[string]core.ProvisionedWalletFlow, len(cfg.BusinessModel.Wallets.Flows))
	for _, flowID := range registry.FlowIDs() {
		template, _ := registry.FlowTemplate(flowID)
		record, ok := suborg.Wallets[flowID]
		flow := newWalletFlow(flowID, template, record, ok, nil)
		defaultFlows = append(defaultFlows, flow)
		defaultByFlow[flowID] = flow
	}

	overrideByKey := map[string]core.ProvisionedWalletFlow{}
	overrideFlows := []core.ProvisionedWalletFlow{}
	partnerAutomationIDs := map[string][]string{}
	for _, plan := range plans {
		partnerID := plan.partner.PartnerID
		for _, selection := range plan.overrides() {
			key := overrideKey(partnerID, selection.flowID)
			if _, done := overrideByKey[key]; done {
				continue
			}
			record, err := o.platform.ProvisionWalletForTemplate(
				ctx,
				suborg.SubOrganizationID,
				selection.template,
				overrideTemplateContext(runtimeContext, partnerID, selection),
			)
			if err != nil {
				return core.ProvisioningArtifacts{}, fmt.Errorf(
					"provisioning: provision %s wallet for partner %s: %w", selection.flowID, partnerID, err,
				)
			}
			flow := newWalletFlow(selection.flowID, selection.template, record, true, map[string]string{
				core.WalletFlowMetadataPartnerID: partnerID,
				flowMetadataSource:               string(sourceOverride),
			})
			overrideByKey[key] = flow
			overrideFlows = append(overrideFlows, flow)
			logger.Debug("override wallet provisioned",
				"partner_id", partnerID,
				"flow_id", selection.flowID,
				"wallet_id", flow.WalletID,
			)
		}

		if plan.automation != nil {
			user, err := o.platform.ProvisionAutomationUser(
				ctx,
				*plan.automation,
				partnerTemplateContext(runtimeContext, plan.partner),
				suborg.SubOrganizationID,
			)
			if err != nil {
				return core.ProvisioningArtifacts{}, fmt.Errorf(
					"provisioning: provision automation user for partner %s: %w", partnerID, err,
				)
			}
			key := core.CredentialKey(partnerID, plan.automation.TemplateID)
			if user.Credentials != nil {
				credentials[key] = *user.Credentials
			}
			if user.TemplateID == "" {
				user.TemplateID = plan.automation.TemplateID
			}
			mapped := mapAutomationUser(user, partnerID, key)
			automationUsers = append(automationUsers, mapped)
			partnerAutomationIDs[partnerID] = append(partnerAutomationIDs[partnerID], mapped.UserID)
		}
	}

	walletFlows := make([]core.ProvisionedWalletFlow, 0, len(defaultFlows)+len(overrideFlows))
	walletFlows = append(walletFlows, defaultFlows...)
	walletFlows = append(walletFlows, overrideFlows...)

	deployment, err := o.policies.Deploy(ctx, policy.DeployRequest{
		SubOrganizationID: suborg.SubOrganizationID,
		AccessControl:     cfg.AccessControl,
		BusinessModel:     cfg.BusinessModel,
		Bindings:          buildBindingContext(cfg, walletFlows, defaultFlows, automationUserIDs),
		TemplateContext:   runtimeContext,
	})
	if err != nil {
		return core.ProvisioningArtifacts{}, err
	}

	snapshot := core.ProvisioningSnapshot{
		SubOrganizationID:   suborg.SubOrganizationID,
		Name:                suborg.SubOrganizationName,
		RootQuorumThreshold: cfg.Provisioning.RootQuorumThreshold,
		RootUsers:           mapRootUsers(cfg.Provisioning, suborg.RootUserIDs),
		FeatureToggles:      append([]core.FeatureToggle(nil), cfg.Provisioning.FeatureToggles...),
		AutomationUsers:     automationUsers,
		WalletFlows:         walletFlows,
		Policies:            deployment.Policies,
		Partners:            buildPartnerRuntimes(plans, deployment.PartnerPolicies, defaultByFlow, overrideByKey, partnerAutomationIDs),
		Metadata:            snapshotMetadata(cfg.Platform.Originator, suborg.SubOrganizationName),
	}

	artifacts := core.ProvisioningArtifacts{
		PlatformConfigHash: platformHash,
		Snapshot:           snapshot,
		ResolvedTemplates:  map[string]string{cfg.Provisioning.NameTemplate: snapshot.Name},
	}
	if len(credentials) > 0 {
		artifacts.AutomationCredentials = credentials
	}
	logger.Info("originator provisioned",
		"originator_id", originatorID,
		"sub_organization_id", snapshot.SubOrganizationID,
		"wallet_flows", len(snapshot.WalletFlows),
		"partners", len(snapshot.Partners),
	)
	return artifacts, nil
}

func overrideKey(partnerID string, flowID string) string {
	return partnerID + ":" + flowID
}

func newWalletFlow(
	flowID string,
	template core.WalletTemplate,
	record core.ProvisionedWalletRecord,
	provisioned bool,
	metadata map[string]string,
) core.ProvisionedWalletFlow {
	flow := core.ProvisionedWalletFlow{
		FlowID:           flowID,
		WalletTemplateID: template.TemplateID,
		WalletID:         core.PendingIdentifier,
		WalletName:       template.WalletNameTemplate,
		AccountIDByAlias: make(map[string]string, len(template.Accounts)),
		Metadata:         metadata,
	}
	if provisioned {
		if record.WalletID != "" {
			flow.WalletID = record.WalletID
		}
		if record.WalletName != "" {
			flow.WalletName = record.WalletName
		}
	}

	addresses := map[string]string{}
	for index, account := range template.Accounts {
		accountID := core.PendingIdentifier
		if index < len(record.AccountIDs) && record.AccountIDs[index] != "" {
			accountID = record.AccountIDs[index]
		}
		flow.AccountIDByAlias[account.Alias] = accountID
		if index < len(record.AccountAddresses) && record.AccountAddresses[index] != "" {
			addresses[account.Alias] = record.AccountAddresses[index]
		}
	}
	if len(addresses) > 0 {
		flow.AccountAddressByAlias = addresses
	}
	return flow
}

func mapAutomationUser(user core.AutomationUserResult, partnerID string, credentialKey string) core.ProvisionedAutomationUser {
	apiKeyIDs := append([]string(nil), user.APIKeyIDs...)
	if len(apiKeyIDs) == 0 && user.APIKeyID != "" {
		apiKeyIDs = []string{user.APIKeyID}
	}
	primary := user.APIKeyID
	if len(apiKeyIDs) > 0 {
		primary = apiKeyIDs[0]
	}
	publicKey := user.APIKeyPublicKey
	if user.Credentials != nil && user.Credentials.APIPublicKey != "" {
		publicKey = user.Credentials.APIPublicKey
	}
	return core.ProvisionedAutomationUser{
		TemplateID:      user.TemplateID,
		UserID:          user.UserID,
		APIKeyID:        primary,
		APIKeyIDs:       apiKeyIDs,
		APIKeyPublicKey: publicKey,
		SessionIDs:      append([]string{}, user.SessionIDs...),
		PartnerID:       partnerID,
		CredentialKey:   credentialKey,
	}
}

func mapRootUsers(cfg core.ProvisioningConfig, rootUserIDs []string) []core.ProvisionedRootUser {
	users := make([]core.ProvisionedRootUser, 0, len(cfg.RootUsers))
	for index, template := range cfg.RootUsers {
		userID := core.PendingIdentifier
		if index < len(rootUserIDs) && rootUserIDs[index] != "" {
			userID = rootUserIDs[index]
		}
		users = append(users, core.ProvisionedRootUser{
			TemplateID:       template.TemplateID,
			UserID:           userID,
			APIKeyIDs:        []string{},
			AuthenticatorIDs: []string{},
		})
	}
	return users
}

func buildBindingContext(
	cfg core.OriginatorConfiguration,
	walletFlows []core.ProvisionedWalletFlow,
	defaultFlows []core.ProvisionedWalletFlow,
	automationUserIDs map[string]string,
) policy.BindingContext {
	bindings := policy.NewBindingContext()
	bindings.WalletTemplates = buildWalletTemplateMap(defaultFlows)
	bindings.WalletAliases = buildWalletAliasMap(walletFlows)
	bindings.AutomationUsers = automationUserIDs

	for _, partner := range cfg.BusinessModel.EnabledPartners() {
		bindings.PartnerIDs[partner.PartnerID] = struct{}{}
	}
	for _, user := range cfg.Provisioning.RootUsers {
		for _, tag := range user.UserTags {
			bindings.UserTags[tag] = struct{}{}
		}
	}
	if automation := cfg.AccessControl.Automation; automation != nil {
		for _, template := range automation.Templates {
			bindings.AutomationTemplateIDs[template.TemplateID] = struct{}{}
			for _, tag := range template.UserTags {
				bindings.UserTags[tag] = struct{}{}
			}
		}
	}
	for _, role := range cfg.AccessControl.Roles {
		if role.UserTagTemplate != "" {
			bindings.UserTags[role.UserTagTemplate] = struct{}{}
		}
	}
	return bindings
}

func buildPartnerRuntimes(
	plans []partnerPlan,
	partnerPolicies map[string][]string,
	defaults map[string]core.ProvisionedWalletFlow,
	overrides map[string]core.ProvisionedWalletFlow,
	automationIDs map[string][]string,
) []core.PartnerRuntime {
	runtimes := make([]core.PartnerRuntime, 0, len(plans))
	for _, plan := range plans {
		partnerID := plan.partner.PartnerID
		walletFlows := make(map[string]string, len(plan.selections))
		for _, selection := range plan.selections {
			walletID := core.PendingIdentifier
			if selection.source == sourceOverride {
				if flow, ok := overrides[overrideKey(partnerID, selection.flowID)]; ok {
					walletID = flow.WalletID
				}
			} else if flow, ok := defaults[selection.flowID]; ok {
				walletID = flow.WalletID
			}
			walletFlows[selection.flowID] = walletID
		}

		runtime := core.PartnerRuntime{
			PartnerID:         partnerID,
			DisplayName:       plan.partner.DisplayName,
			WalletFlows:       walletFlows,
			PolicyIDs:         append([]string{}, partnerPolicies[partnerID]...),
			AutomationUserIDs: append([]string{}, automationIDs[partnerID]...),
			WebhookURL:        plan.partner.WebhookURLTemplate,
			Metadata:          plan.partner.Metadata,
		}
		if plan.automation != nil {
			runtime.AutomationUserTemplateID = plan.automation.TemplateID
		}
		runtimes = append(runtimes, runtime)
	}
	return runtimes
}

func snapshotMetadata(originator core.OriginatorIdentity, subOrganizationName string) map[string]string {
	metadata := map[string]string{
		core.SnapshotMetadataOriginatorID:    originator.OriginatorID,
		core.SnapshotMetadataSubOrganization: subOrganizationName,
	}
	if len(originator.Metadata) > 0 {
		if encoded, err := json.Marshal(originator.Metadata); err == nil {
			metadata[core.SnapshotMetadataOriginatorMetadata] = string(encoded)
		}
	}
	return metadata
}
