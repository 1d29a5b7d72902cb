package provisioning

import (
	"strings"

	"github.com/goliatone/go-custody/core"
	"github.com/goliatone/go-custody/policy"
)

// buildWalletTemplateMap maps template ID to wallet ID using default flows
// only. The first flow to claim a template wins.
func buildWalletTemplateMap(defaults []core.ProvisionedWalletFlow) map[string]string {
	out := make(map[string]string, len(defaults))
	for _, flow := range defaults {
		if _, claimed := out[flow.WalletTemplateID]; claimed {
			continue
		}
		out[flow.WalletTemplateID] = flow.WalletID
	}
	return out
}

// buildWalletAliasMap indexes every account alias under its plain key and
// its flow, template and partner scoped keys. The first flow to claim a key
// keeps it, so flows must list default flows before overrides.
func buildWalletAliasMap(flows []core.ProvisionedWalletFlow) map[string]policy.WalletAlias {
	out := map[string]policy.WalletAlias{}
	claim := func(key string, entry policy.WalletAlias) {
		if strings.TrimSpace(key) == "" {
			return
		}
		if _, claimed := out[key]; !claimed {
			out[key] = entry
		}
	}

	for _, flow := range flows {
		partnerID := flow.PartnerID()
		for _, alias := range core.SortedKeys(flow.AccountIDByAlias) {
			if strings.TrimSpace(alias) == "" {
				continue
			}
			entry := policy.WalletAlias{
				WalletID:  flow.WalletID,
				AccountID: flow.AccountIDByAlias[alias],
				Address:   flow.AccountAddressByAlias[alias],
			}

			claim(alias, entry)
			claim(flow.FlowID+":"+alias, entry)
			claim(flow.WalletTemplateID+":"+alias, entry)

			if partnerID != "" {
				claim(partnerID+":"+alias, entry)
				claim(partnerID+":"+flow.FlowID+":"+alias, entry)
				claim(partnerID+":"+flow.WalletTemplateID+":"+alias, entry)
			}
		}
	}
	return out
}
