package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultServiceName      = "custody"
	defaultTransactionType  = "TRANSACTION_TYPE_ETHEREUM"
	defaultSnapshotCacheTTL = 5 * time.Minute
	defaultAccountLockTTL   = 2 * time.Minute
)

type DisbursementConfig struct {
	DefaultFlowID               string        `koanf:"default_flow_id" mapstructure:"default_flow_id"`
	DefaultAccountAlias         string        `koanf:"default_account_alias" mapstructure:"default_account_alias"`
	DefaultAutomationTemplateID string        `koanf:"default_automation_template_id" mapstructure:"default_automation_template_id"`
	TransactionType             string        `koanf:"transaction_type" mapstructure:"transaction_type"`
	AccountLockTTL              time.Duration `koanf:"account_lock_ttl" mapstructure:"account_lock_ttl"`
}

type SnapshotCacheConfig struct {
	Enabled bool          `koanf:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `koanf:"ttl" mapstructure:"ttl"`
}

type RPCConfig struct {
	// Endpoints is keyed by chain ID exactly as it appears in token and
	// disbursement requests.
	Endpoints map[string]string `koanf:"endpoints" mapstructure:"endpoints"`
}

type Config struct {
	ServiceName   string              `koanf:"service_name" mapstructure:"service_name"`
	Disbursement  DisbursementConfig  `koanf:"disbursement" mapstructure:"disbursement"`
	SnapshotCache SnapshotCacheConfig `koanf:"snapshot_cache" mapstructure:"snapshot_cache"`
	RPC           RPCConfig           `koanf:"rpc" mapstructure:"rpc"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: defaultServiceName,
		Disbursement: DisbursementConfig{
			DefaultFlowID:   FlowDistribution,
			TransactionType: defaultTransactionType,
			AccountLockTTL:  defaultAccountLockTTL,
		},
		SnapshotCache: SnapshotCacheConfig{
			TTL: defaultSnapshotCacheTTL,
		},
		RPC: RPCConfig{Endpoints: map[string]string{}},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Disbursement.DefaultFlowID) == "" {
		return fmt.Errorf("core: disbursement.default_flow_id is required")
	}
	if strings.TrimSpace(c.Disbursement.TransactionType) == "" {
		return fmt.Errorf("core: disbursement.transaction_type is required")
	}
	if c.Disbursement.AccountLockTTL < 0 {
		return fmt.Errorf("core: disbursement.account_lock_ttl must not be negative")
	}
	if c.SnapshotCache.Enabled && c.SnapshotCache.TTL <= 0 {
		return fmt.Errorf("core: snapshot_cache.ttl must be positive when the cache is enabled")
	}
	for chainID, endpoint := range c.RPC.Endpoints {
		if strings.TrimSpace(chainID) == "" {
			return fmt.Errorf("core: rpc.endpoints contains an empty chain id")
		}
		if strings.TrimSpace(endpoint) == "" {
			return fmt.Errorf("core: rpc.endpoints[%s] is empty", chainID)
		}
	}
	return nil
}
