package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
)

// StaticClientGateway builds the custody client once. Initializing again with
// the same platform returns the existing client; a different platform fails
// with ErrClientAlreadyInitialized.
type StaticClientGateway struct {
	factory ClientFactory

	mu           sync.Mutex
	client       PlatformClient
	platformHash string
}

func NewStaticClientGateway(factory ClientFactory) *StaticClientGateway {
	return &StaticClientGateway{factory: factory}
}

// NewInitializedClientGateway wraps a client that was built elsewhere. Any
// Initialize call returns it unchanged.
func NewInitializedClientGateway(client PlatformClient) *StaticClientGateway {
	return &StaticClientGateway{client: client}
}

func (g *StaticClientGateway) Initialize(ctx context.Context, platform PlatformConfig) (PlatformClient, error) {
	if g == nil {
		return nil, fmt.Errorf("core: client gateway is not configured")
	}
	hash, err := HashPlatformConfig(platform)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		if g.platformHash == "" || g.platformHash == hash {
			return g.client, nil
		}
		return nil, ErrClientAlreadyInitialized
	}
	if g.factory == nil {
		return nil, fmt.Errorf("core: client factory is required")
	}
	client, err := g.factory(ctx, platform)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("core: client factory returned nil client")
	}
	g.client = client
	g.platformHash = hash
	return client, nil
}

func (g *StaticClientGateway) Client() (PlatformClient, error) {
	if g == nil {
		return nil, ErrClientNotInitialized
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil, ErrClientNotInitialized
	}
	return g.client, nil
}

// HashPlatformConfig returns the hex SHA-256 of the platform config JSON.
func HashPlatformConfig(platform PlatformConfig) (string, error) {
	payload, err := json.Marshal(platform)
	if err != nil {
		return "", fmt.Errorf("core: encode platform config: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
