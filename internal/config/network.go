package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/samber/lo"
	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
)

const (
	// LocalPrivateKeyEnv holds the key of a rich wallet on local test nodes
	LocalPrivateKeyEnv = "LOCAL_TESTNET_RICH_WALLET_PRIVATE_KEY"
	// DefaultPrivateKeyEnv holds the deployer key on every other network
	DefaultPrivateKeyEnv = "PRIVATE_KEY"

	chainIDTimeout = 10 * time.Second
)

// ChainIDFetcher returns the chain ID served by an RPC endpoint
type ChainIDFetcher func(ctx context.Context, rpcURL string) (uint64, error)

// NetworkResolver resolves network names to configurations with caching
type NetworkResolver struct {
	projectRoot   string
	projectConfig *config.ProjectConfig
	cache         *NetworkCache
	fetch         ChainIDFetcher
	mu            sync.RWMutex
}

// NetworkCache caches chain ID lookups
type NetworkCache struct {
	Networks   map[string]uint64   `json:"networks"`   // name -> chainID
	RPCs       map[string]uint64   `json:"rpcs"`       // rpcURL -> chainID
	ChainNames map[uint64][]string `json:"chainNames"` // chainID -> names
	UpdatedAt  time.Time           `json:"updatedAt"`
}

func newNetworkCache() *NetworkCache {
	return &NetworkCache{
		Networks:   make(map[string]uint64),
		RPCs:       make(map[string]uint64),
		ChainNames: make(map[uint64][]string),
		UpdatedAt:  time.Now(),
	}
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(projectRoot string, projectConfig *config.ProjectConfig) *NetworkResolver {
	r := &NetworkResolver{
		projectRoot:   projectRoot,
		projectConfig: projectConfig,
		fetch:         fetchChainID,
	}

	r.loadCache()

	return r
}

// WithChainIDFetcher replaces the RPC lookup, mainly for tests
func (r *NetworkResolver) WithChainIDFetcher(fetch ChainIDFetcher) *NetworkResolver {
	r.fetch = fetch
	return r
}

// GetNetworks returns the configured network names, sorted
func (r *NetworkResolver) GetNetworks() []string {
	if r.projectConfig == nil {
		return nil
	}
	names := lo.Keys(r.projectConfig.Networks)
	slices.Sort(names)
	return names
}

// Resolve resolves a network name to its configuration
func (r *NetworkResolver) Resolve(networkName string) (*config.Network, error) {
	return r.ResolveContext(context.Background(), networkName)
}

// ResolveContext resolves a network name, fetching the chain ID from the RPC when the profile does not pin one
func (r *NetworkResolver) ResolveContext(ctx context.Context, networkName string) (*config.Network, error) {
	var profile config.NetworkConfig
	exists := false
	if r.projectConfig != nil {
		profile, exists = r.projectConfig.Networks[networkName]
	}
	if !exists {
		return nil, fmt.Errorf("network '%s' not found in %s [networks] (available: %v): %w",
			networkName, ProjectFile, r.GetNetworks(), domain.ErrNotFound)
	}
	if profile.URL == "" {
		return nil, &domain.ConfigError{
			Setting: "networks." + networkName + ".url",
			Message: fmt.Sprintf("network '%s' has no url in %s", networkName, ProjectFile),
		}
	}

	chainID := profile.ChainID
	if chainID == 0 {
		r.mu.RLock()
		cached, ok := r.cache.Networks[networkName]
		if !ok {
			cached, ok = r.cache.RPCs[profile.URL]
		}
		r.mu.RUnlock()

		if ok {
			chainID = cached
		} else {
			fetched, err := r.fetch(ctx, profile.URL)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch chain ID for network %s: %w", networkName, err)
			}
			chainID = fetched
			r.updateCache(networkName, profile.URL, chainID)
		}
	}

	privateKeyEnv := profile.PrivateKeyEnv
	if privateKeyEnv == "" {
		privateKeyEnv = DefaultPrivateKeyEnv
		if profile.Local {
			privateKeyEnv = LocalPrivateKeyEnv
		}
	}

	network := &config.Network{
		Name:          networkName,
		RPCURL:        profile.URL,
		EthNetwork:    profile.EthNetwork,
		ZkSync:        profile.ZkSync,
		Local:         profile.Local,
		ChainID:       chainID,
		ExplorerURL:   profile.Explorer,
		VerifyURL:     profile.VerifyURL,
		PrivateKeyEnv: privateKeyEnv,
	}
	if network.ExplorerURL == "" {
		network.ExplorerURL = getExplorerURL(chainID)
	}
	if network.VerifyURL == "" && network.ZkSync {
		network.VerifyURL = getVerifyURL(chainID)
	}

	return network, nil
}

// fetchChainID asks the RPC endpoint for its chain ID
func fetchChainID(ctx context.Context, rpcURL string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, chainIDTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_chainId: %w", err)
	}
	if !chainID.IsUint64() {
		return 0, fmt.Errorf("chain ID %s out of range", chainID)
	}
	return chainID.Uint64(), nil
}

// getExplorerURL returns the block explorer for well-known chains
func getExplorerURL(chainID uint64) string {
	switch chainID {
	case 1:
		return "https://etherscan.io"
	case 5:
		return "https://goerli.etherscan.io"
	case 11155111:
		return "https://sepolia.etherscan.io"
	case 324:
		return "https://explorer.zksync.io"
	case 280:
		return "https://goerli.explorer.zksync.io"
	case 300:
		return "https://sepolia.explorer.zksync.io"
	default:
		return ""
	}
}

// getVerifyURL returns the zkSync contract verification endpoint for well-known chains
func getVerifyURL(chainID uint64) string {
	switch chainID {
	case 324:
		return "https://zksync2-mainnet-explorer.zksync.io/contract_verification"
	case 280:
		return "https://zksync2-testnet-explorer.zksync.dev/contract_verification"
	case 300:
		return "https://explorer.sepolia.era.zksync.dev/contract_verification"
	default:
		return ""
	}
}

func (r *NetworkResolver) cachePath() string {
	return filepath.Join(r.projectRoot, "cache", "chainIds.json")
}

// loadCache loads the chain ID cache from disk
func (r *NetworkResolver) loadCache() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache = newNetworkCache()

	data, err := os.ReadFile(r.cachePath())
	if err != nil {
		return
	}

	loaded := newNetworkCache()
	if err := json.Unmarshal(data, loaded); err != nil {
		return
	}
	// Explicit nulls in the file clear the maps
	if loaded.Networks == nil {
		loaded.Networks = make(map[string]uint64)
	}
	if loaded.RPCs == nil {
		loaded.RPCs = make(map[string]uint64)
	}
	if loaded.ChainNames == nil {
		loaded.ChainNames = make(map[uint64][]string)
	}
	r.cache = loaded
}

// updateCache updates the cache with new chain ID information
func (r *NetworkResolver) updateCache(networkName, rpcURL string, chainID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Networks[networkName] = chainID
	r.cache.RPCs[rpcURL] = chainID
	if !slices.Contains(r.cache.ChainNames[chainID], networkName) {
		r.cache.ChainNames[chainID] = append(r.cache.ChainNames[chainID], networkName)
	}
	r.cache.UpdatedAt = time.Now()

	// Cache write failures only cost a future RPC call
	_ = r.saveCache()
}

// saveCache saves the cache to disk. Caller holds the lock.
func (r *NetworkResolver) saveCache() error {
	path := r.cachePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(r.cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
