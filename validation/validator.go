// Package validation checks originator configurations before any platform
// call is made. Rules are expressed with ozzo-validation and flattened into
// "path: message" strings.
package validation

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-custody/core"
)

// RequiredFlows must be mapped by every wallet architecture.
var RequiredFlows = []string{core.FlowDistribution, core.FlowCollection}

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(_ context.Context, cfg core.OriginatorConfiguration) core.ValidationResult {
	index := newReferenceIndex(cfg)
	errs := validation.Errors{
		"platform":       validatePlatform(cfg.Platform),
		"provisioning":   validateProvisioning(cfg.Provisioning),
		"business_model": validateBusinessModel(cfg.BusinessModel, index),
		"access_control": validateAccessControl(cfg.AccessControl, index),
	}.Filter()

	result := core.ValidationResult{
		Errors:   Flatten(errs),
		Warnings: warnings(cfg),
	}
	result.IsValid = len(result.Errors) == 0
	return result
}

// Flatten turns nested validation.Errors into sorted "a.b[0].c: message"
// entries.
func Flatten(err error) []string {
	out := []string{}
	flatten("", err, &out)
	return out
}

func flatten(prefix string, err error, out *[]string) {
	if err == nil {
		return
	}
	if nested, ok := err.(validation.Errors); ok {
		keys := make([]string, 0, len(nested))
		for key := range nested {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			flatten(joinPath(prefix, key), nested[key], out)
		}
		return
	}
	if prefix == "" {
		*out = append(*out, err.Error())
		return
	}
	*out = append(*out, prefix+": "+err.Error())
}

func joinPath(prefix string, key string) string {
	switch {
	case key == "":
		return prefix
	case prefix == "":
		return key
	case strings.HasPrefix(key, "["):
		return prefix + key
	default:
		return prefix + "." + key
	}
}

func indexKey(i int) string {
	return fmt.Sprintf("[%d]", i)
}

func validatePlatform(platform core.PlatformConfig) error {
	originator := platform.Originator
	return validation.Errors{
		"": validation.ValidateStruct(&platform,
			validation.Field(&platform.Environment,
				validation.Required,
				validation.In(core.PlatformEnvironmentSandbox, core.PlatformEnvironmentProduction),
			),
			validation.Field(&platform.OrganizationID, validation.Required),
			validation.Field(&platform.APIBaseURL, validation.By(absoluteURL)),
		),
		"originator": validation.ValidateStruct(&originator,
			validation.Field(&originator.OriginatorID, validation.Required),
			validation.Field(&originator.DisplayName, validation.Required),
		),
	}.Filter()
}

func validateProvisioning(provisioning core.ProvisioningConfig) error {
	thresholdRules := []validation.Rule{
		validation.Required.Error("must be at least 1"),
		validation.Min(1),
	}
	if len(provisioning.RootUsers) > 0 {
		thresholdRules = append(thresholdRules,
			validation.Max(len(provisioning.RootUsers)).Error("must not exceed the number of root users"),
		)
	}
	errs := validation.Errors{
		"": validation.ValidateStruct(&provisioning,
			validation.Field(&provisioning.NameTemplate, validation.Required),
			validation.Field(&provisioning.RootUsers, validation.Required),
			validation.Field(&provisioning.RootQuorumThreshold, thresholdRules...),
		),
	}

	seen := map[string]struct{}{}
	rootUsers := validation.Errors{}
	for i := range provisioning.RootUsers {
		user := provisioning.RootUsers[i]
		userErrs := validation.Errors{
			"": validation.ValidateStruct(&user,
				validation.Field(&user.TemplateID, validation.Required, validation.By(unique(seen, "root user template"))),
				validation.Field(&user.UserNameTemplate, validation.Required),
			),
		}.Filter()
		if userErrs != nil {
			rootUsers[indexKey(i)] = userErrs
		}
	}
	errs["root_users"] = rootUsers.Filter()
	return errs.Filter()
}

func validateBusinessModel(model core.BusinessModelConfig, index referenceIndex) error {
	architecture := model.Wallets
	errs := validation.Errors{
		"wallets": validation.Errors{
			"": validation.ValidateStruct(&architecture,
				validation.Field(&architecture.Templates, validation.Required),
				validation.Field(&architecture.Flows, validation.Required, validation.By(requiredFlows)),
			),
			"templates": validateWalletTemplates(architecture.Templates),
			"flows":     validateFlowReferences(architecture.Flows, index),
		}.Filter(),
	}

	seen := map[string]struct{}{}
	partners := validation.Errors{}
	for i := range model.Partners {
		partner := model.Partners[i]
		partnerErrs := validation.Errors{
			"": validation.ValidateStruct(&partner,
				validation.Field(&partner.PartnerID, validation.Required, validation.By(unique(seen, "partner id"))),
				validation.Field(&partner.AutomationUserTemplateID, validation.By(index.automationTemplateRule())),
			),
			"flow_overrides": validateFlowOverrides(partner.FlowOverrides, index),
		}.Filter()
		if partnerErrs != nil {
			partners[indexKey(i)] = partnerErrs
		}
	}
	errs["partners"] = partners.Filter()
	return errs.Filter()
}

func validateWalletTemplates(templates []core.WalletTemplate) error {
	templateIDs := map[string]struct{}{}
	aliases := map[string]string{}
	errs := validation.Errors{}
	for i := range templates {
		template := templates[i]
		templateErrs := validation.Errors{
			"": validation.ValidateStruct(&template,
				validation.Field(&template.TemplateID, validation.Required, validation.By(unique(templateIDs, "wallet template id"))),
				validation.Field(&template.WalletNameTemplate, validation.Required),
				validation.Field(&template.Accounts, validation.Required),
			),
		}
		accounts := validation.Errors{}
		for j := range template.Accounts {
			account := template.Accounts[j]
			accountErr := validation.ValidateStruct(&account,
				validation.Field(&account.Alias, validation.Required, validation.By(uniqueAlias(aliases, template.TemplateID))),
				validation.Field(&account.Curve, validation.Required),
				validation.Field(&account.AddressFormat, validation.Required),
			)
			if accountErr != nil {
				accounts[indexKey(j)] = accountErr
			}
		}
		templateErrs["accounts"] = accounts.Filter()
		if filtered := templateErrs.Filter(); filtered != nil {
			errs[indexKey(i)] = filtered
		}
	}
	return errs.Filter()
}

func validateFlowReferences(flows map[string]string, index referenceIndex) error {
	errs := validation.Errors{}
	for flowID, templateID := range flows {
		if strings.TrimSpace(flowID) == "" {
			errs["<empty>"] = fmt.Errorf("flow id cannot be blank")
			continue
		}
		if err := validation.Validate(templateID, validation.Required, validation.By(index.walletTemplateRule())); err != nil {
			errs[flowID] = err
		}
	}
	return errs.Filter()
}

func validateFlowOverrides(overrides map[string]string, index referenceIndex) error {
	errs := validation.Errors{}
	for flowID, templateID := range overrides {
		if _, ok := index.flows[strings.TrimSpace(flowID)]; !ok {
			errs[flowID] = fmt.Errorf("flow %q is not defined by the wallet architecture", flowID)
			continue
		}
		if err := validation.Validate(templateID, validation.Required, validation.By(index.walletTemplateRule())); err != nil {
			errs[flowID] = err
		}
	}
	return errs.Filter()
}

func validateAccessControl(access core.AccessControlConfig, index referenceIndex) error {
	errs := validation.Errors{}

	roleIDs := map[string]struct{}{}
	roles := validation.Errors{}
	for i := range access.Roles {
		role := access.Roles[i]
		if err := validation.ValidateStruct(&role,
			validation.Field(&role.RoleID, validation.Required, validation.By(unique(roleIDs, "role id"))),
		); err != nil {
			roles[indexKey(i)] = err
		}
	}
	errs["roles"] = roles.Filter()

	if access.Automation != nil {
		templateIDs := map[string]struct{}{}
		templates := validation.Errors{}
		for i := range access.Automation.Templates {
			template := access.Automation.Templates[i]
			if err := validation.ValidateStruct(&template,
				validation.Field(&template.TemplateID, validation.Required, validation.By(unique(templateIDs, "automation template id"))),
				validation.Field(&template.UserNameTemplate, validation.Required),
			); err != nil {
				templates[indexKey(i)] = err
			}
		}
		errs["automation"] = validation.Errors{"templates": templates.Filter()}.Filter()
	}

	policyIDs := map[string]struct{}{}
	policies := validation.Errors{}
	for i := range access.Policies.Templates {
		template := access.Policies.Templates[i]
		policyErrs := validation.Errors{
			"": validation.ValidateStruct(&template,
				validation.Field(&template.TemplateID, validation.Required, validation.By(unique(policyIDs, "policy template id"))),
				validation.Field(&template.Name, validation.Required),
				validation.Field(&template.Effect, validation.Required, validation.In(core.PolicyEffectAllow, core.PolicyEffectDeny)),
			),
		}
		bindings := validation.Errors{}
		for j := range template.AppliesTo {
			if err := validateBinding(template.AppliesTo[j], index); err != nil {
				bindings[indexKey(j)] = err
			}
		}
		policyErrs["applies_to"] = bindings.Filter()
		if filtered := policyErrs.Filter(); filtered != nil {
			policies[indexKey(i)] = filtered
		}
	}
	errs["policies"] = validation.Errors{"templates": policies.Filter()}.Filter()
	return errs.Filter()
}

func validateBinding(binding core.PolicyBinding, index referenceIndex) error {
	targetRules := []validation.Rule{validation.Required}
	switch binding.Type {
	case core.PolicyBindingWalletTemplate:
		targetRules = append(targetRules, validation.By(index.walletTemplateRule()))
	case core.PolicyBindingPartner:
		targetRules = append(targetRules, validation.By(index.partnerRule()))
	case core.PolicyBindingAutomationUser:
		targetRules = append(targetRules, validation.By(index.automationTemplateRule()))
	}
	return validation.ValidateStruct(&binding,
		validation.Field(&binding.Type, validation.Required, validation.By(bindingType)),
		validation.Field(&binding.Target, targetRules...),
	)
}

func warnings(cfg core.OriginatorConfiguration) []string {
	out := []string{}
	if len(cfg.BusinessModel.EnabledPartners()) == 0 {
		out = append(out, "no partners are enabled")
	}
	for _, template := range cfg.AccessControl.Policies.Templates {
		if len(template.AppliesTo) == 0 {
			out = append(out, fmt.Sprintf("policy %q has no bindings and will not be attached to any resource", template.TemplateID))
		}
	}
	return out
}

func requiredFlows(value any) error {
	flows, _ := value.(map[string]string)
	missing := []string{}
	for _, flowID := range RequiredFlows {
		if strings.TrimSpace(flows[flowID]) == "" {
			missing = append(missing, flowID)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("must map the %s flow(s)", strings.Join(missing, ", "))
	}
	return nil
}

func bindingType(value any) error {
	bindingType, _ := value.(core.PolicyBindingType)
	if bindingType == "" || bindingType.Valid() {
		return nil
	}
	return fmt.Errorf("unsupported binding type %q", string(bindingType))
}

func absoluteURL(value any) error {
	raw, _ := value.(string)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}

func unique(seen map[string]struct{}, label string) validation.RuleFunc {
	return func(value any) error {
		id, _ := value.(string)
		id = strings.TrimSpace(id)
		if id == "" {
			return nil
		}
		if _, exists := seen[id]; exists {
			return fmt.Errorf("duplicate %s %q", label, id)
		}
		seen[id] = struct{}{}
		return nil
	}
}

// uniqueAlias enforces that an account alias is declared once across every
// template in the architecture.
func uniqueAlias(owners map[string]string, templateID string) validation.RuleFunc {
	return func(value any) error {
		alias, _ := value.(string)
		alias = strings.TrimSpace(alias)
		if alias == "" {
			return nil
		}
		if owner, exists := owners[alias]; exists {
			return fmt.Errorf("alias %q is already declared by wallet template %q", alias, owner)
		}
		owners[alias] = templateID
		return nil
	}
}
