package disbursement

import (
	"fmt"
	"strings"
)

type TokenMetadata struct {
	Symbol          string `json:"symbol" yaml:"symbol"`
	ChainID         string `json:"chain_id" yaml:"chain_id"`
	ContractAddress string `json:"contract_address" yaml:"contract_address"`
	// Decimals is optional; the executor default applies when nil.
	Decimals *int `json:"decimals,omitempty" yaml:"decimals,omitempty"`
}

type TokenRegistry interface {
	ResolveToken(symbol string, chainID string) (TokenMetadata, bool)
}

// StaticTokenRegistry is a fixed lookup keyed by upper-cased symbol and the
// chain ID string exactly as configured.
type StaticTokenRegistry struct {
	tokens map[string]TokenMetadata
}

func NewStaticTokenRegistry(entries ...TokenMetadata) (*StaticTokenRegistry, error) {
	registry := &StaticTokenRegistry{tokens: make(map[string]TokenMetadata, len(entries))}
	for _, entry := range entries {
		address, err := NormalizeAddress(entry.ContractAddress)
		if err != nil {
			return nil, fmt.Errorf("disbursement: token %s on chain %s: %w", entry.Symbol, entry.ChainID, err)
		}
		entry.ContractAddress = address
		registry.tokens[tokenKey(entry.Symbol, entry.ChainID)] = entry
	}
	return registry, nil
}

func (r *StaticTokenRegistry) ResolveToken(symbol string, chainID string) (TokenMetadata, bool) {
	if r == nil {
		return TokenMetadata{}, false
	}
	token, ok := r.tokens[tokenKey(symbol, chainID)]
	return token, ok
}

func tokenKey(symbol string, chainID string) string {
	return strings.ToUpper(strings.TrimSpace(symbol)) + "::" + strings.TrimSpace(chainID)
}
