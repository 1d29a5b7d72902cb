package policy

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-custody/core"
)

const TextCodeBindingUnresolved = "POLICY_BINDING_UNRESOLVED"

var (
	ErrBindingTargetRequired        = errors.New("policy: binding target is required")
	ErrUnsupportedBindingType       = errors.New("policy: unsupported binding type")
	ErrWalletTemplateNotProvisioned = errors.New("policy: wallet template has not been provisioned")
	ErrWalletAliasNotMaterialized   = errors.New("policy: wallet alias was not materialized during provisioning")
	ErrUnknownPartner               = errors.New("policy: partner is not known to the originator")
	ErrUnknownUserTag               = errors.New("policy: user tag was not generated during provisioning")
	ErrAutomationUserUnavailable    = errors.New("policy: automation user is not available in the sub-organization")
)

// BindingError reports a binding that could not be resolved. Err is one of
// the package sentinels.
type BindingError struct {
	TemplateID string
	Binding    core.PolicyBinding
	Err        error
}

func (e *BindingError) Error() string {
	if e == nil {
		return ""
	}
	if e.TemplateID != "" {
		return fmt.Sprintf("%v: %s %q (policy template %q)", e.Err, e.Binding.Type, e.Binding.Target, e.TemplateID)
	}
	return fmt.Sprintf("%v: %s %q", e.Err, e.Binding.Type, e.Binding.Target)
}

func (e *BindingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *BindingError) ErrorTextCode() string {
	return TextCodeBindingUnresolved
}

func (e *BindingError) ErrorCategory() goerrors.Category {
	return goerrors.CategoryBadInput
}
