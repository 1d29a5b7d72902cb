package core

import (
	"errors"
	"sort"
	"strings"
)

const (
	FlowDistribution = "distribution"
	FlowCollection   = "collection"

	// PendingIdentifier marks an identifier the custody platform has not
	// materialized yet.
	PendingIdentifier = "pending"
)

var (
	ErrSnapshotNotFound          = errors.New("core: provisioning snapshot not found")
	ErrRPCEndpointNotConfigured  = errors.New("core: rpc endpoint not configured")
	ErrClientNotInitialized      = errors.New("core: custody client not initialized")
	ErrClientAlreadyInitialized  = errors.New("core: custody client already initialized with a different platform")
	ErrOriginatorMetadataMissing = errors.New("core: snapshot metadata is missing originator_id")
)

type PlatformEnvironment string

const (
	PlatformEnvironmentSandbox    PlatformEnvironment = "sandbox"
	PlatformEnvironmentProduction PlatformEnvironment = "production"
)

type OriginatorIdentity struct {
	OriginatorID    string            `json:"originator_id" yaml:"originator_id"`
	DisplayName     string            `json:"display_name" yaml:"display_name"`
	LegalEntityName string            `json:"legal_entity_name,omitempty" yaml:"legal_entity_name,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

type PlatformConfig struct {
	Environment    PlatformEnvironment `json:"environment" yaml:"environment"`
	OrganizationID string              `json:"organization_id" yaml:"organization_id"`
	APIBaseURL     string              `json:"api_base_url,omitempty" yaml:"api_base_url,omitempty"`
	Originator     OriginatorIdentity  `json:"originator" yaml:"originator"`
}

type RootUserTemplate struct {
	TemplateID        string   `json:"template_id" yaml:"template_id"`
	UserNameTemplate  string   `json:"user_name_template" yaml:"user_name_template"`
	UserEmailTemplate string   `json:"user_email_template,omitempty" yaml:"user_email_template,omitempty"`
	UserTags          []string `json:"user_tags,omitempty" yaml:"user_tags,omitempty"`
}

type FeatureToggle struct {
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Value   string `json:"value,omitempty" yaml:"value,omitempty"`
}

type ProvisioningConfig struct {
	NameTemplate        string             `json:"name_template" yaml:"name_template"`
	RootQuorumThreshold int                `json:"root_quorum_threshold" yaml:"root_quorum_threshold"`
	RootUsers           []RootUserTemplate `json:"root_users" yaml:"root_users"`
	FeatureToggles      []FeatureToggle    `json:"feature_toggles,omitempty" yaml:"feature_toggles,omitempty"`
}

type WalletAccountTemplate struct {
	Alias         string `json:"alias" yaml:"alias"`
	Curve         string `json:"curve" yaml:"curve"`
	PathFormat    string `json:"path_format" yaml:"path_format"`
	Path          string `json:"path" yaml:"path"`
	AddressFormat string `json:"address_format" yaml:"address_format"`
}

type WalletTemplate struct {
	TemplateID         string                  `json:"template_id" yaml:"template_id"`
	Usage              string                  `json:"usage" yaml:"usage"`
	WalletNameTemplate string                  `json:"wallet_name_template" yaml:"wallet_name_template"`
	Accounts           []WalletAccountTemplate `json:"accounts" yaml:"accounts"`
}

// WalletArchitecture maps flow IDs (distribution, collection, ...) to the
// template provisioned for them.
type WalletArchitecture struct {
	Templates []WalletTemplate  `json:"templates" yaml:"templates"`
	Flows     map[string]string `json:"flows" yaml:"flows"`
}

// FlowIDs returns the declared flow IDs in lexical order.
func (w WalletArchitecture) FlowIDs() []string {
	return SortedKeys(w.Flows)
}

type PartnerConfiguration struct {
	PartnerID                string            `json:"partner_id" yaml:"partner_id"`
	DisplayName              string            `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Enabled                  bool              `json:"enabled" yaml:"enabled"`
	FlowOverrides            map[string]string `json:"flow_overrides,omitempty" yaml:"flow_overrides,omitempty"`
	AutomationUserTemplateID string            `json:"automation_user_template_id,omitempty" yaml:"automation_user_template_id,omitempty"`
	PolicyIDs                []string          `json:"policy_ids,omitempty" yaml:"policy_ids,omitempty"`
	WebhookURLTemplate       string            `json:"webhook_url_template,omitempty" yaml:"webhook_url_template,omitempty"`
	Metadata                 map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

type BusinessModelConfig struct {
	Wallets  WalletArchitecture     `json:"wallets" yaml:"wallets"`
	Partners []PartnerConfiguration `json:"partners,omitempty" yaml:"partners,omitempty"`
}

// EnabledPartners preserves configuration order.
func (b BusinessModelConfig) EnabledPartners() []PartnerConfiguration {
	out := make([]PartnerConfiguration, 0, len(b.Partners))
	for _, partner := range b.Partners {
		if partner.Enabled {
			out = append(out, partner)
		}
	}
	return out
}

type PolicyBindingType string

const (
	PolicyBindingWalletTemplate PolicyBindingType = "wallet_template"
	PolicyBindingWalletAlias    PolicyBindingType = "wallet_alias"
	PolicyBindingPartner        PolicyBindingType = "partner"
	PolicyBindingUserTag        PolicyBindingType = "user_tag"
	PolicyBindingAutomationUser PolicyBindingType = "automation_user"
	PolicyBindingCustom         PolicyBindingType = "custom"
)

func (t PolicyBindingType) Valid() bool {
	switch t {
	case PolicyBindingWalletTemplate, PolicyBindingWalletAlias, PolicyBindingPartner,
		PolicyBindingUserTag, PolicyBindingAutomationUser, PolicyBindingCustom:
		return true
	default:
		return false
	}
}

type PolicyBinding struct {
	Type   PolicyBindingType `json:"type" yaml:"type"`
	Target string            `json:"target" yaml:"target"`
}

type PolicyEffect string

const (
	PolicyEffectAllow PolicyEffect = "EFFECT_ALLOW"
	PolicyEffectDeny  PolicyEffect = "EFFECT_DENY"
)

type PolicyTemplate struct {
	TemplateID string          `json:"template_id" yaml:"template_id"`
	Name       string          `json:"name" yaml:"name"`
	Effect     PolicyEffect    `json:"effect" yaml:"effect"`
	Condition  string          `json:"condition,omitempty" yaml:"condition,omitempty"`
	Consensus  string          `json:"consensus,omitempty" yaml:"consensus,omitempty"`
	Notes      string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	AppliesTo  []PolicyBinding `json:"applies_to,omitempty" yaml:"applies_to,omitempty"`
}

type RoleDefinition struct {
	RoleID          string `json:"role_id" yaml:"role_id"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
	UserTagTemplate string `json:"user_tag_template,omitempty" yaml:"user_tag_template,omitempty"`
}

type AutomationUserTemplate struct {
	TemplateID         string   `json:"template_id" yaml:"template_id"`
	UserNameTemplate   string   `json:"user_name_template" yaml:"user_name_template"`
	UserTags           []string `json:"user_tags,omitempty" yaml:"user_tags,omitempty"`
	APIKeyNameTemplate string   `json:"api_key_name_template,omitempty" yaml:"api_key_name_template,omitempty"`
	// APIPublicKey is set when the key pair is generated outside the
	// platform; no credentials are materialized for such users.
	APIPublicKey string `json:"api_public_key,omitempty" yaml:"api_public_key,omitempty"`
}

type AutomationConfig struct {
	Templates []AutomationUserTemplate `json:"templates" yaml:"templates"`
}

// Template returns the automation template with the given ID.
func (a *AutomationConfig) Template(templateID string) (AutomationUserTemplate, bool) {
	if a == nil {
		return AutomationUserTemplate{}, false
	}
	templateID = strings.TrimSpace(templateID)
	for _, template := range a.Templates {
		if template.TemplateID == templateID {
			return template, true
		}
	}
	return AutomationUserTemplate{}, false
}

type PolicyConfig struct {
	Templates []PolicyTemplate `json:"templates,omitempty" yaml:"templates,omitempty"`
}

type AccessControlConfig struct {
	Roles      []RoleDefinition  `json:"roles,omitempty" yaml:"roles,omitempty"`
	Automation *AutomationConfig `json:"automation,omitempty" yaml:"automation,omitempty"`
	Policies   PolicyConfig      `json:"policies" yaml:"policies"`
}

type OriginatorConfiguration struct {
	Platform      PlatformConfig      `json:"platform" yaml:"platform"`
	Provisioning  ProvisioningConfig  `json:"provisioning" yaml:"provisioning"`
	BusinessModel BusinessModelConfig `json:"business_model" yaml:"business_model"`
	AccessControl AccessControlConfig `json:"access_control" yaml:"access_control"`
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
