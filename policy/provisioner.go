package policy

import (
	"context"
	"errors"
	"fmt"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-custody/core"
)

type DeployRequest struct {
	SubOrganizationID string
	AccessControl     core.AccessControlConfig
	BusinessModel     core.BusinessModelConfig
	Bindings          BindingContext
	TemplateContext   core.TemplateContext
}

type DeployResult struct {
	Policies        []core.ProvisionedPolicy
	PartnerPolicies map[string][]string
}

type Provisioner struct {
	platform core.CustodyPlatform
	logger   core.Logger
}

type ProvisionerOption func(*Provisioner)

func WithLogger(logger core.Logger) ProvisionerOption {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewProvisioner(platform core.CustodyPlatform, opts ...ProvisionerOption) *Provisioner {
	provisioner := &Provisioner{platform: platform, logger: glog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(provisioner)
		}
	}
	return provisioner
}

// Deploy resolves every binding and issues a single ConfigurePolicies call.
// A binding that fails to resolve aborts the deployment before the call.
func (p *Provisioner) Deploy(ctx context.Context, req DeployRequest) (DeployResult, error) {
	if p == nil || p.platform == nil {
		return DeployResult{}, fmt.Errorf("policy: custody platform is not configured")
	}
	resolver := NewResolver(req.Bindings)
	templates := req.AccessControl.Policies.Templates

	bindingContexts := make(map[string]map[string]string, len(templates))
	resolvedBindings := make(map[string][]core.ResolvedBinding, len(templates))
	for _, template := range templates {
		targets := make(map[string]string, len(template.AppliesTo))
		resolved := make([]core.ResolvedBinding, 0, len(template.AppliesTo))
		for _, binding := range template.AppliesTo {
			value, err := resolver.Resolve(binding)
			if err != nil {
				var bindingErr *BindingError
				if errors.As(err, &bindingErr) {
					bindingErr.TemplateID = template.TemplateID
				}
				return DeployResult{}, err
			}
			targets[binding.Target] = value
			resolved = append(resolved, core.ResolvedBinding{Type: binding.Type, Target: value})
		}
		bindingContexts[template.TemplateID] = targets
		resolvedBindings[template.TemplateID] = resolved
	}

	p.logger.Debug("deploying policy templates",
		"sub_organization_id", req.SubOrganizationID,
		"template_count", len(templates),
	)
	deployment, err := p.platform.ConfigurePolicies(ctx, req.AccessControl, req.BusinessModel, core.PolicyDeploymentRequest{
		SubOrganizationID: req.SubOrganizationID,
		BindingContexts:   bindingContexts,
		ResolvedBindings:  resolvedBindings,
		TemplateContext:   req.TemplateContext,
	})
	if err != nil {
		return DeployResult{}, fmt.Errorf("policy: configure policies: %w", err)
	}

	policies := make([]core.ProvisionedPolicy, 0, len(templates))
	for _, template := range templates {
		policyID := deployment.PolicyIDs[template.TemplateID]
		applied := make([]core.AppliedPolicyBinding, 0, len(resolvedBindings[template.TemplateID]))
		for _, binding := range resolvedBindings[template.TemplateID] {
			applied = append(applied, core.AppliedPolicyBinding{
				Type:     binding.Type,
				Target:   binding.Target,
				PolicyID: policyID,
			})
		}
		policies = append(policies, core.ProvisionedPolicy{
			TemplateID: template.TemplateID,
			PolicyID:   policyID,
			AppliedTo:  applied,
		})
	}

	partnerPolicies := deployment.PartnerPolicies
	if partnerPolicies == nil {
		partnerPolicies = map[string][]string{}
	}
	return DeployResult{Policies: policies, PartnerPolicies: partnerPolicies}, nil
}
