package backends

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/procuraduria/docket/pkg/presenter/discord"
)

// Config holds backend configuration from HCL
type Config struct {
	// Audit backend (always enabled if present)
	Audit *AuditConfig `hcl:"audit,block"`

	// Discord backend configuration
	Discord *DiscordConfig `hcl:"discord,block"`
}

// AuditConfig configures the audit backend
type AuditConfig struct {
	Enabled bool `hcl:"enabled,optional"`
}

// DiscordConfig configures the discord backend. The token usually comes from
// the discord block of the main configuration.
type DiscordConfig struct {
	Enabled bool `hcl:"enabled,optional"`

	Token   string `hcl:"token,optional"`
	BaseURL string `hcl:"base_url,optional"`
}

// Registry manages available notification backends
type Registry struct {
	backends map[string]Backend
}

// NewRegistry creates a new backend registry from configuration
func NewRegistry(cfg *Config, logger hclog.Logger) (*Registry, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	registry := &Registry{
		backends: make(map[string]Backend),
	}

	if cfg == nil {
		return registry, nil
	}

	if cfg.Audit != nil && cfg.Audit.Enabled {
		registry.Register(NewAuditBackend(logger.Named("audit")))
		logger.Info("initialized audit backend")
	}

	if cfg.Discord != nil && cfg.Discord.Enabled {
		client, err := discord.New(discord.Config{
			Token:   cfg.Discord.Token,
			BaseURL: cfg.Discord.BaseURL,
		}, logger.Named("discord"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize discord backend: %w", err)
		}
		registry.Register(NewDiscordBackend(client))
		logger.Info("initialized discord backend")
	}

	return registry, nil
}

// Register adds or replaces a backend under its name.
func (r *Registry) Register(b Backend) {
	r.backends[b.Name()] = b
}

// GetBackend returns a backend by name
func (r *Registry) GetBackend(name string) (Backend, bool) {
	backend, ok := r.backends[name]
	return backend, ok
}

// GetAll returns all registered backends
func (r *Registry) GetAll() []Backend {
	backends := make([]Backend, 0, len(r.backends))
	for _, name := range r.GetBackendNames() {
		backends = append(backends, r.backends[name])
	}
	return backends
}

// GetBackendNames returns the sorted names of all registered backends
func (r *Registry) GetBackendNames() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
