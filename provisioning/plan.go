package provisioning

import (
	"strings"

	"github.com/goliatone/go-custody/core"
	"github.com/goliatone/go-custody/wallets"
)

type selectionSource string

const (
	sourceDefault  selectionSource = "default"
	sourceOverride selectionSource = "override"
)

type flowSelection struct {
	flowID   string
	template core.WalletTemplate
	source   selectionSource
}

type partnerPlan struct {
	partner    core.PartnerConfiguration
	selections []flowSelection
	automation *core.AutomationUserTemplate
}

func (p partnerPlan) overrides() []flowSelection {
	out := make([]flowSelection, 0, len(p.selections))
	for _, selection := range p.selections {
		if selection.source == sourceOverride {
			out = append(out, selection)
		}
	}
	return out
}

// checkWalletArchitecture validates the parts of the wallet architecture the
// orchestrator depends on and returns a registry over it.
func checkWalletArchitecture(architecture core.WalletArchitecture) (*wallets.Registry, error) {
	if len(architecture.Templates) == 0 {
		return nil, newConfigurationError("business_model.wallets.templates", "must contain at least one wallet template")
	}
	if len(architecture.Flows) == 0 {
		return nil, newConfigurationError("business_model.wallets.flows", "must be defined")
	}
	registry, err := wallets.NewRegistry(architecture)
	if err != nil {
		return nil, newConfigurationError("business_model.wallets.templates", "%v", err)
	}
	for _, flowID := range registry.FlowIDs() {
		if _, ok := registry.FlowTemplate(flowID); !ok {
			return nil, newConfigurationError(
				"business_model.wallets.flows",
				"wallet template %q referenced by flow %q is not defined",
				architecture.Flows[flowID], flowID,
			)
		}
	}
	return registry, nil
}

func buildPartnerPlans(cfg core.OriginatorConfiguration, registry *wallets.Registry) ([]partnerPlan, error) {
	partners := cfg.BusinessModel.EnabledPartners()
	plans := make([]partnerPlan, 0, len(partners))
	for _, partner := range partners {
		plan := partnerPlan{partner: partner}
		for _, flowID := range registry.FlowIDs() {
			selection, err := selectFlowTemplate(registry, partner, flowID)
			if err != nil {
				return nil, err
			}
			plan.selections = append(plan.selections, selection)
		}
		automation, err := resolveAutomationTemplate(cfg.AccessControl.Automation, partner)
		if err != nil {
			return nil, err
		}
		plan.automation = automation
		plans = append(plans, plan)
	}
	return plans, nil
}

func selectFlowTemplate(registry *wallets.Registry, partner core.PartnerConfiguration, flowID string) (flowSelection, error) {
	overrideID := strings.TrimSpace(partner.FlowOverrides[flowID])
	if overrideID == "" {
		template, _ := registry.FlowTemplate(flowID)
		return flowSelection{flowID: flowID, template: template, source: sourceDefault}, nil
	}
	template, ok := registry.Template(overrideID)
	if !ok {
		return flowSelection{}, newConfigurationError(
			"business_model.partners",
			"wallet template %q overriding flow %q for partner %q is not defined",
			overrideID, flowID, partner.PartnerID,
		)
	}
	return flowSelection{flowID: flowID, template: template, source: sourceOverride}, nil
}

func resolveAutomationTemplate(
	automation *core.AutomationConfig,
	partner core.PartnerConfiguration,
) (*core.AutomationUserTemplate, error) {
	templateID := strings.TrimSpace(partner.AutomationUserTemplateID)
	if templateID == "" {
		return nil, nil
	}
	template, ok := automation.Template(templateID)
	if !ok {
		return nil, newConfigurationError(
			"business_model.partners",
			"automation user template %q referenced by partner %q is not defined",
			templateID, partner.PartnerID,
		)
	}
	return &template, nil
}
