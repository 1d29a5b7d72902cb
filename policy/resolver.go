// Package policy resolves policy bindings to runtime identifiers and deploys
// policy templates through the custody platform.
package policy

import (
	"strings"

	"github.com/goliatone/go-custody/core"
)

// WalletAlias is the account an alias key points at.
type WalletAlias struct {
	WalletID  string
	AccountID string
	Address   string
}

type BindingContext struct {
	// WalletTemplates maps template ID to wallet ID.
	WalletTemplates map[string]string
	// WalletAliases is keyed by plain, flow scoped, template scoped and
	// partner scoped alias keys.
	WalletAliases         map[string]WalletAlias
	PartnerIDs            map[string]struct{}
	UserTags              map[string]struct{}
	AutomationTemplateIDs map[string]struct{}
	// AutomationUsers maps automation template ID to the materialized user ID.
	AutomationUsers map[string]string
}

func NewBindingContext() BindingContext {
	return BindingContext{
		WalletTemplates:       map[string]string{},
		WalletAliases:         map[string]WalletAlias{},
		PartnerIDs:            map[string]struct{}{},
		UserTags:              map[string]struct{}{},
		AutomationTemplateIDs: map[string]struct{}{},
		AutomationUsers:       map[string]string{},
	}
}

type Resolver struct {
	context BindingContext
}

func NewResolver(context BindingContext) *Resolver {
	return &Resolver{context: context}
}

// Resolve maps binding to the identifier the platform expects.
func (r *Resolver) Resolve(binding core.PolicyBinding) (string, error) {
	var context BindingContext
	if r != nil {
		context = r.context
	}
	return Resolve(context, binding)
}

func Resolve(context BindingContext, binding core.PolicyBinding) (string, error) {
	target := strings.TrimSpace(binding.Target)
	if target == "" {
		return "", &BindingError{Binding: binding, Err: ErrBindingTargetRequired}
	}

	switch binding.Type {
	case core.PolicyBindingWalletTemplate:
		walletID := context.WalletTemplates[target]
		if !core.IsMaterialized(walletID) {
			return "", &BindingError{Binding: binding, Err: ErrWalletTemplateNotProvisioned}
		}
		return walletID, nil
	case core.PolicyBindingWalletAlias:
		alias, ok := context.WalletAliases[target]
		if !ok || !core.IsMaterialized(alias.AccountID) {
			return "", &BindingError{Binding: binding, Err: ErrWalletAliasNotMaterialized}
		}
		return alias.AccountID, nil
	case core.PolicyBindingPartner:
		if _, ok := context.PartnerIDs[target]; !ok {
			return "", &BindingError{Binding: binding, Err: ErrUnknownPartner}
		}
		return target, nil
	case core.PolicyBindingUserTag:
		if _, ok := context.UserTags[target]; !ok {
			return "", &BindingError{Binding: binding, Err: ErrUnknownUserTag}
		}
		return target, nil
	case core.PolicyBindingAutomationUser:
		if userID := context.AutomationUsers[target]; core.IsMaterialized(userID) {
			return userID, nil
		}
		if _, ok := context.AutomationTemplateIDs[target]; ok {
			return target, nil
		}
		return "", &BindingError{Binding: binding, Err: ErrAutomationUserUnavailable}
	case core.PolicyBindingCustom:
		return target, nil
	default:
		return "", &BindingError{Binding: binding, Err: ErrUnsupportedBindingType}
	}
}
