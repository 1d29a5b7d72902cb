package core

import (
	"strings"
	"time"
)

const (
	SnapshotMetadataOriginatorID       = "originator_id"
	SnapshotMetadataSubOrganization    = "sub_organization_name"
	SnapshotMetadataOriginatorMetadata = "originator_metadata"

	WalletFlowMetadataPartnerID = "partner_id"
)

type ProvisionedRootUser struct {
	TemplateID       string   `json:"template_id"`
	UserID           string   `json:"user_id"`
	APIKeyIDs        []string `json:"api_key_ids,omitempty"`
	AuthenticatorIDs []string `json:"authenticator_ids,omitempty"`
}

type ProvisionedAutomationUser struct {
	TemplateID      string     `json:"template_id"`
	UserID          string     `json:"user_id"`
	APIKeyID        string     `json:"api_key_id,omitempty"`
	APIKeyIDs       []string   `json:"api_key_ids,omitempty"`
	APIKeyPublicKey string     `json:"api_key_public_key,omitempty"`
	SessionIDs      []string   `json:"session_ids,omitempty"`
	PartnerID       string     `json:"partner_id,omitempty"`
	CredentialKey   string     `json:"credential_key,omitempty"`
	RotatedAt       *time.Time `json:"rotated_at,omitempty"`
}

// Usable reports whether the user was materialized on the platform.
func (u ProvisionedAutomationUser) Usable() bool {
	return IsMaterialized(u.UserID)
}

type ProvisionedWalletFlow struct {
	FlowID                string            `json:"flow_id"`
	WalletTemplateID      string            `json:"wallet_template_id"`
	WalletID              string            `json:"wallet_id"`
	WalletName            string            `json:"wallet_name,omitempty"`
	AccountIDByAlias      map[string]string `json:"account_id_by_alias"`
	AccountAddressByAlias map[string]string `json:"account_address_by_alias,omitempty"`
	Metadata              map[string]string `json:"metadata,omitempty"`
}

// PartnerID returns the owning partner for override flows, or "".
func (f ProvisionedWalletFlow) PartnerID() string {
	if len(f.Metadata) == 0 {
		return ""
	}
	return strings.TrimSpace(f.Metadata[WalletFlowMetadataPartnerID])
}

type AppliedPolicyBinding struct {
	Type     PolicyBindingType `json:"type"`
	Target   string            `json:"target"`
	PolicyID string            `json:"policy_id"`
}

type ProvisionedPolicy struct {
	TemplateID string                 `json:"template_id"`
	PolicyID   string                 `json:"policy_id"`
	AppliedTo  []AppliedPolicyBinding `json:"applied_to,omitempty"`
}

type PartnerRuntime struct {
	PartnerID                string            `json:"partner_id"`
	DisplayName              string            `json:"display_name,omitempty"`
	WalletFlows              map[string]string `json:"wallet_flows"`
	PolicyIDs                []string          `json:"policy_ids,omitempty"`
	AutomationUserTemplateID string            `json:"automation_user_template_id,omitempty"`
	AutomationUserIDs        []string          `json:"automation_user_ids,omitempty"`
	WebhookURL               string            `json:"webhook_url,omitempty"`
	Metadata                 map[string]string `json:"metadata,omitempty"`
}

type ProvisioningSnapshot struct {
	SubOrganizationID   string                      `json:"sub_organization_id"`
	Name                string                      `json:"name"`
	RootQuorumThreshold int                         `json:"root_quorum_threshold"`
	RootUsers           []ProvisionedRootUser       `json:"root_users"`
	FeatureToggles      []FeatureToggle             `json:"feature_toggles,omitempty"`
	AutomationUsers     []ProvisionedAutomationUser `json:"automation_users,omitempty"`
	WalletFlows         []ProvisionedWalletFlow     `json:"wallet_flows"`
	Policies            []ProvisionedPolicy         `json:"policies,omitempty"`
	Partners            []PartnerRuntime            `json:"partners,omitempty"`
	Metadata            map[string]string           `json:"metadata,omitempty"`
}

func (s ProvisioningSnapshot) OriginatorID() string {
	if len(s.Metadata) == 0 {
		return ""
	}
	return strings.TrimSpace(s.Metadata[SnapshotMetadataOriginatorID])
}

func (s ProvisioningSnapshot) Partner(partnerID string) (PartnerRuntime, bool) {
	partnerID = strings.TrimSpace(partnerID)
	for _, partner := range s.Partners {
		if partner.PartnerID == partnerID {
			return partner, true
		}
	}
	return PartnerRuntime{}, false
}

// WalletFlow finds the flow entry matching both the flow and the wallet ID.
func (s ProvisioningSnapshot) WalletFlow(flowID string, walletID string) (ProvisionedWalletFlow, bool) {
	for _, flow := range s.WalletFlows {
		if flow.FlowID == flowID && flow.WalletID == walletID {
			return flow, true
		}
	}
	return ProvisionedWalletFlow{}, false
}

// DefaultWalletFlow returns the shared (non partner) flow entry.
func (s ProvisioningSnapshot) DefaultWalletFlow(flowID string) (ProvisionedWalletFlow, bool) {
	for _, flow := range s.WalletFlows {
		if flow.FlowID == flowID && flow.PartnerID() == "" {
			return flow, true
		}
	}
	return ProvisionedWalletFlow{}, false
}

func (s ProvisioningSnapshot) AutomationUser(templateID string) (ProvisionedAutomationUser, bool) {
	templateID = strings.TrimSpace(templateID)
	for _, user := range s.AutomationUsers {
		if user.TemplateID == templateID {
			return user, true
		}
	}
	return ProvisionedAutomationUser{}, false
}

type AutomationCredentials struct {
	APIKeyID      string `json:"api_key_id,omitempty"`
	APIPublicKey  string `json:"api_public_key"`
	APIPrivateKey string `json:"api_private_key"`
}

type ProvisioningArtifacts struct {
	PlatformConfigHash    string                           `json:"platform_config_hash"`
	Snapshot              ProvisioningSnapshot             `json:"snapshot"`
	ResolvedTemplates     map[string]string                `json:"resolved_templates,omitempty"`
	AutomationCredentials map[string]AutomationCredentials `json:"-"`
}

// CredentialKey scopes credentials by partner when the automation user was
// provisioned for one.
func CredentialKey(partnerID string, templateID string) string {
	partnerID = strings.TrimSpace(partnerID)
	templateID = strings.TrimSpace(templateID)
	if partnerID == "" {
		return templateID
	}
	return partnerID + "::" + templateID
}

// IsMaterialized reports whether id is a concrete platform identifier.
func IsMaterialized(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != PendingIdentifier
}
