package validation

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-custody/core"
)

// referenceIndex holds the identifiers other sections may refer to.
type referenceIndex struct {
	walletTemplates     map[string]struct{}
	flows               map[string]struct{}
	partners            map[string]struct{}
	automationTemplates map[string]struct{}
	automationDefined   bool
}

func newReferenceIndex(cfg core.OriginatorConfiguration) referenceIndex {
	index := referenceIndex{
		walletTemplates:     map[string]struct{}{},
		flows:               map[string]struct{}{},
		partners:            map[string]struct{}{},
		automationTemplates: map[string]struct{}{},
		automationDefined:   cfg.AccessControl.Automation != nil,
	}
	for _, template := range cfg.BusinessModel.Wallets.Templates {
		addID(index.walletTemplates, template.TemplateID)
	}
	for flowID := range cfg.BusinessModel.Wallets.Flows {
		addID(index.flows, flowID)
	}
	for _, partner := range cfg.BusinessModel.Partners {
		addID(index.partners, partner.PartnerID)
	}
	if cfg.AccessControl.Automation != nil {
		for _, template := range cfg.AccessControl.Automation.Templates {
			addID(index.automationTemplates, template.TemplateID)
		}
	}
	return index
}

func addID(set map[string]struct{}, id string) {
	if id = strings.TrimSpace(id); id != "" {
		set[id] = struct{}{}
	}
}

func (i referenceIndex) walletTemplateRule() validation.RuleFunc {
	return i.lookup(i.walletTemplates, "wallet template")
}

func (i referenceIndex) partnerRule() validation.RuleFunc {
	return i.lookup(i.partners, "partner")
}

func (i referenceIndex) automationTemplateRule() validation.RuleFunc {
	lookup := i.lookup(i.automationTemplates, "automation user template")
	return func(value any) error {
		id, _ := value.(string)
		if strings.TrimSpace(id) != "" && !i.automationDefined {
			return fmt.Errorf("references automation user template %q but access_control.automation is not configured", strings.TrimSpace(id))
		}
		return lookup(value)
	}
}

func (i referenceIndex) lookup(set map[string]struct{}, label string) validation.RuleFunc {
	return func(value any) error {
		id, _ := value.(string)
		id = strings.TrimSpace(id)
		if id == "" {
			return nil
		}
		if _, ok := set[id]; !ok {
			return fmt.Errorf("%s %q is not defined", label, id)
		}
		return nil
	}
}
