package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig lists the environment variables understood by EnvConfigLoader.
type EnvConfig struct {
	ServiceName                 string            `env:"SERVICE_NAME"`
	DefaultFlowID               string            `env:"DISBURSEMENT_DEFAULT_FLOW_ID"`
	DefaultAccountAlias         string            `env:"DISBURSEMENT_DEFAULT_ACCOUNT_ALIAS"`
	DefaultAutomationTemplateID string            `env:"DISBURSEMENT_DEFAULT_AUTOMATION_TEMPLATE_ID"`
	TransactionType             string            `env:"DISBURSEMENT_TRANSACTION_TYPE"`
	AccountLockTTL              time.Duration     `env:"DISBURSEMENT_ACCOUNT_LOCK_TTL"`
	SnapshotCacheEnabled        bool              `env:"SNAPSHOT_CACHE_ENABLED"`
	SnapshotCacheTTL            time.Duration     `env:"SNAPSHOT_CACHE_TTL"`
	RPCEndpoints                map[string]string `env:"RPC_ENDPOINTS" envSeparator:"," envKeyValSeparator:"="`
}

// EnvConfigLoader reads CUSTODY_* variables (or Prefix) into a raw config
// map for CfgxConfigProvider. Unset variables are left out so lower layers
// keep their values.
type EnvConfigLoader struct {
	Prefix      string
	Environment map[string]string
}

func NewEnvConfigLoader() EnvConfigLoader {
	return EnvConfigLoader{Prefix: "CUSTODY_"}
}

func (l EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	var parsed EnvConfig
	options := env.Options{Prefix: l.Prefix}
	if l.Environment != nil {
		options.Environment = l.Environment
	}
	if err := env.ParseWithOptions(&parsed, options); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return parsed.raw(), nil
}

func (c EnvConfig) raw() map[string]any {
	raw := map[string]any{}
	if value := strings.TrimSpace(c.ServiceName); value != "" {
		raw["service_name"] = value
	}

	disbursement := map[string]any{}
	if value := strings.TrimSpace(c.DefaultFlowID); value != "" {
		disbursement["default_flow_id"] = value
	}
	if value := strings.TrimSpace(c.DefaultAccountAlias); value != "" {
		disbursement["default_account_alias"] = value
	}
	if value := strings.TrimSpace(c.DefaultAutomationTemplateID); value != "" {
		disbursement["default_automation_template_id"] = value
	}
	if value := strings.TrimSpace(c.TransactionType); value != "" {
		disbursement["transaction_type"] = value
	}
	if c.AccountLockTTL > 0 {
		disbursement["account_lock_ttl"] = c.AccountLockTTL
	}
	if len(disbursement) > 0 {
		raw["disbursement"] = disbursement
	}

	cache := map[string]any{}
	if c.SnapshotCacheEnabled {
		cache["enabled"] = true
	}
	if c.SnapshotCacheTTL > 0 {
		cache["ttl"] = c.SnapshotCacheTTL
	}
	if len(cache) > 0 {
		raw["snapshot_cache"] = cache
	}

	if len(c.RPCEndpoints) > 0 {
		endpoints := make(map[string]any, len(c.RPCEndpoints))
		for chainID, endpoint := range c.RPCEndpoints {
			endpoints[strings.TrimSpace(chainID)] = strings.TrimSpace(endpoint)
		}
		raw["rpc"] = map[string]any{"endpoints": endpoints}
	}
	return raw
}
