package campaigns

import (
	"context"
	"sync"

	"sms_chatbot_backend/platform/logger"
)

// store is the persistence surface the provider needs.
type store interface {
	GetByEndpoint(ctx context.Context, endpoint string) (*Config, error)
	List(ctx context.Context) ([]Config, error)
	Create(ctx context.Context, cfg *Config) (*Config, error)
}

// Provider serves campaign configs from an in-memory cache keyed by endpoint.
// The cache is loaded at boot and refreshed on admin writes or an explicit
// reload. Unknown endpoints fall through to the store once before failing,
// so a campaign added out-of-band is picked up without a restart.
type Provider struct {
	store store
	log   *logger.Logger

	mu         sync.RWMutex
	byEndpoint map[string]Config
}

// NewProvider creates a campaign provider over the given store.
func NewProvider(store store, log *logger.Logger) *Provider {
	return &Provider{
		store:      store,
		log:        log,
		byEndpoint: make(map[string]Config),
	}
}

// Reload replaces the cache with the store's current contents.
func (p *Provider) Reload(ctx context.Context) error {
	configs, err := p.store.List(ctx)
	if err != nil {
		return err
	}

	fresh := make(map[string]Config, len(configs))
	for _, cfg := range configs {
		fresh[cfg.Endpoint] = cfg
	}

	p.mu.Lock()
	p.byEndpoint = fresh
	p.mu.Unlock()

	p.log.Info("campaign configs loaded", "count", len(fresh))
	return nil
}

// ByEndpoint resolves the campaign config for an inbound webhook endpoint.
// Returns ErrNotFound for endpoints no campaign listens on.
func (p *Provider) ByEndpoint(ctx context.Context, endpoint string) (*Config, error) {
	p.mu.RLock()
	cfg, ok := p.byEndpoint[endpoint]
	p.mu.RUnlock()
	if ok {
		copied := cfg
		return &copied, nil
	}

	fetched, err := p.store.GetByEndpoint(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.byEndpoint[fetched.Endpoint] = *fetched
	p.mu.Unlock()

	return fetched, nil
}

// List returns all configs from the store (not the cache) so admin reads
// always reflect persisted state.
func (p *Provider) List(ctx context.Context) ([]Config, error) {
	return p.store.List(ctx)
}

// Create persists a new config and adds it to the cache.
func (p *Provider) Create(ctx context.Context, cfg *Config) (*Config, error) {
	created, err := p.store.Create(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.byEndpoint[created.Endpoint] = *created
	p.mu.Unlock()

	return created, nil
}
