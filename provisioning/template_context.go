package provisioning

import (
	"github.com/goliatone/go-custody/core"
)

const (
	contextOriginatorID          = "originator_id"
	contextOriginatorDisplayName = "originator_display_name"
	contextOriginatorLegalName   = "originator_legal_entity_name"
	contextPlatformEnvironment   = "platform_environment"
	contextPlatformOrganization  = "platform_organization_id"
	contextOriginatorMetadata    = "originator_metadata."
	contextSubOrganizationID     = "sub_organization_id"
	contextSubOrganizationName   = "sub_organization_name"
	contextPartnerID             = "partner_id"
	contextPartnerDisplayName    = "partner_display_name"
	contextWalletFlowID          = "wallet_flow_id"
	contextWalletTemplateID      = "wallet_template_id"
	contextWalletUsage           = "wallet_usage"
)

func buildTemplateContext(platform core.PlatformConfig) core.TemplateContext {
	originator := platform.Originator
	ctx := core.TemplateContext{
		contextOriginatorID:          originator.OriginatorID,
		contextOriginatorDisplayName: originator.DisplayName,
		contextOriginatorLegalName:   originator.LegalEntityName,
		contextPlatformEnvironment:   string(platform.Environment),
		contextPlatformOrganization:  platform.OrganizationID,
	}
	for key, value := range originator.Metadata {
		ctx[contextOriginatorMetadata+key] = value
	}
	return ctx
}

func runtimeTemplateContext(base core.TemplateContext, result core.SubOrganizationResult) core.TemplateContext {
	return base.With(map[string]string{
		contextSubOrganizationID:   result.SubOrganizationID,
		contextSubOrganizationName: result.SubOrganizationName,
	})
}

func overrideTemplateContext(runtime core.TemplateContext, partnerID string, selection flowSelection) core.TemplateContext {
	return runtime.With(map[string]string{
		contextPartnerID:        partnerID,
		contextWalletFlowID:     selection.flowID,
		contextWalletTemplateID: selection.template.TemplateID,
		contextWalletUsage:      selection.template.Usage,
	})
}

func partnerTemplateContext(runtime core.TemplateContext, partner core.PartnerConfiguration) core.TemplateContext {
	return runtime.With(map[string]string{
		contextPartnerID:          partner.PartnerID,
		contextPartnerDisplayName: partner.DisplayName,
	})
}
