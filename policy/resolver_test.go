package policy

import (
	"errors"
	"testing"

	"github.com/goliatone/go-custody/core"
)

func testBindingContext() BindingContext {
	ctx := NewBindingContext()
	ctx.WalletTemplates["tpl-distribution"] = "wallet-1"
	ctx.WalletTemplates["tpl-pending"] = core.PendingIdentifier
	ctx.WalletAliases["primary"] = WalletAlias{WalletID: "wallet-1", AccountID: "account-1", Address: "0xabc"}
	ctx.WalletAliases["partner-a:primary"] = WalletAlias{WalletID: "wallet-2", AccountID: "account-2"}
	ctx.WalletAliases["reserve"] = WalletAlias{WalletID: "wallet-1", AccountID: core.PendingIdentifier}
	ctx.PartnerIDs["partner-a"] = struct{}{}
	ctx.UserTags["ops-approvers"] = struct{}{}
	ctx.AutomationTemplateIDs["disburser"] = struct{}{}
	ctx.AutomationTemplateIDs["collector"] = struct{}{}
	ctx.AutomationUsers["disburser"] = "user-9"
	return ctx
}

func TestResolve_SuccessfulBindings(t *testing.T) {
	ctx := testBindingContext()
	cases := []struct {
		name    string
		binding core.PolicyBinding
		want    string
	}{
		{"wallet template", core.PolicyBinding{Type: core.PolicyBindingWalletTemplate, Target: "tpl-distribution"}, "wallet-1"},
		{"wallet alias", core.PolicyBinding{Type: core.PolicyBindingWalletAlias, Target: "primary"}, "account-1"},
		{"partner scoped alias", core.PolicyBinding{Type: core.PolicyBindingWalletAlias, Target: "partner-a:primary"}, "account-2"},
		{"partner", core.PolicyBinding{Type: core.PolicyBindingPartner, Target: "partner-a"}, "partner-a"},
		{"user tag", core.PolicyBinding{Type: core.PolicyBindingUserTag, Target: "ops-approvers"}, "ops-approvers"},
		{"materialized automation user", core.PolicyBinding{Type: core.PolicyBindingAutomationUser, Target: "disburser"}, "user-9"},
		{"automation template fallback", core.PolicyBinding{Type: core.PolicyBindingAutomationUser, Target: "collector"}, "collector"},
		{"custom", core.PolicyBinding{Type: core.PolicyBindingCustom, Target: "anything goes"}, "anything goes"},
	}

	resolver := NewResolver(ctx)
	for _, tc := range cases {
		got, err := resolver.Resolve(tc.binding)
		if err != nil {
			t.Fatalf("%s: resolve: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestResolve_Failures(t *testing.T) {
	ctx := testBindingContext()
	cases := []struct {
		name    string
		binding core.PolicyBinding
		want    error
	}{
		{"empty target", core.PolicyBinding{Type: core.PolicyBindingCustom, Target: " "}, ErrBindingTargetRequired},
		{"unknown template", core.PolicyBinding{Type: core.PolicyBindingWalletTemplate, Target: "tpl-missing"}, ErrWalletTemplateNotProvisioned},
		{"pending template", core.PolicyBinding{Type: core.PolicyBindingWalletTemplate, Target: "tpl-pending"}, ErrWalletTemplateNotProvisioned},
		{"unknown alias", core.PolicyBinding{Type: core.PolicyBindingWalletAlias, Target: "missing"}, ErrWalletAliasNotMaterialized},
		{"pending alias", core.PolicyBinding{Type: core.PolicyBindingWalletAlias, Target: "reserve"}, ErrWalletAliasNotMaterialized},
		{"unknown partner", core.PolicyBinding{Type: core.PolicyBindingPartner, Target: "partner-z"}, ErrUnknownPartner},
		{"unknown tag", core.PolicyBinding{Type: core.PolicyBindingUserTag, Target: "nobody"}, ErrUnknownUserTag},
		{"unknown automation", core.PolicyBinding{Type: core.PolicyBindingAutomationUser, Target: "ghost"}, ErrAutomationUserUnavailable},
		{"unsupported type", core.PolicyBinding{Type: "wallet_flow", Target: "distribution"}, ErrUnsupportedBindingType},
	}

	for _, tc := range cases {
		_, err := Resolve(ctx, tc.binding)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		var bindingErr *BindingError
		if !errors.As(err, &bindingErr) {
			t.Fatalf("%s: expected *BindingError, got %T", tc.name, err)
		}
		if bindingErr.Binding.Type != tc.binding.Type {
			t.Fatalf("%s: expected binding type to be preserved", tc.name)
		}
	}
}
