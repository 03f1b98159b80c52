package router

import (
	"log/slog"
	"sync"

	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/provider"
	"github.com/tradedocs/tradedocs/internal/provider/gemini"
	"github.com/tradedocs/tradedocs/internal/provider/openai"
)

// Registry owns the process-wide provider clients. Clients are constructed
// lazily on first use and cached together with the is-configured check; the
// cache is never invalidated except through Clear, so credential changes made
// after first use are not observed without an explicit Clear.
type Registry struct {
	mu         sync.Mutex
	cfg        common.ProviderConfig
	logger     *slog.Logger
	clients    map[provider.Name]provider.Adapter
	configured map[provider.Name]bool
}

func NewRegistry(cfg common.ProviderConfig, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cfg:        cfg,
		logger:     logger,
		clients:    make(map[provider.Name]provider.Adapter),
		configured: make(map[provider.Name]bool),
	}
}

// Default returns the process default provider from configuration.
func (r *Registry) Default() provider.Name {
	if name, ok := provider.ParseName(r.cfg.Default); ok {
		return name
	}
	return provider.Gemini
}

// IsConfigured reports whether the provider's credential is present. The
// answer is cached on first evaluation.
func (r *Registry) IsConfigured(name provider.Name) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isConfiguredLocked(name)
}

func (r *Registry) isConfiguredLocked(name provider.Name) bool {
	if v, ok := r.configured[name]; ok {
		return v
	}
	var v bool
	switch name {
	case provider.Gemini:
		v = r.cfg.GeminiKey != ""
	case provider.OpenAI:
		v = r.cfg.OpenAIKey != ""
	}
	r.configured[name] = v
	return v
}

// Adapter returns the cached client for name, constructing it on first use.
// A missing credential is a configuration error, surfaced immediately and
// never retried.
func (r *Registry) Adapter(name provider.Name) (provider.Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.clients[name]; ok {
		return a, nil
	}
	if !r.isConfiguredLocked(name) {
		return nil, common.NewAppError("PROVIDER_NOT_CONFIGURED",
			"missing credential for provider "+string(name), common.ErrProviderNotConfigured)
	}

	var a provider.Adapter
	switch name {
	case provider.Gemini:
		a = gemini.NewClient(gemini.Config{
			APIKey:      r.cfg.GeminiKey,
			BaseURL:     r.cfg.GeminiBaseURL,
			Model:       r.cfg.GeminiModel,
			Temperature: r.cfg.Temperature,
			Timeout:     r.cfg.Timeout,
		}, r.logger)
	case provider.OpenAI:
		a = openai.NewClient(openai.Config{
			APIKey:      r.cfg.OpenAIKey,
			BaseURL:     r.cfg.OpenAIBaseURL,
			Model:       r.cfg.OpenAIModel,
			Temperature: r.cfg.Temperature,
			Timeout:     r.cfg.Timeout,
		}, r.logger)
	default:
		return nil, common.NewAppError("PROVIDER_UNKNOWN",
			"unknown provider "+string(name), common.ErrInvalidInput)
	}

	r.clients[name] = a
	r.logger.Info("provider.registry.client_created", "provider", string(name))
	return a, nil
}

// Put registers a pre-built adapter, replacing any cached client. Used for
// wiring stubs in tests.
func (r *Registry) Put(a provider.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[a.Name()] = a
	r.configured[a.Name()] = true
}

// Clear drops all cached clients and configured checks so the next use
// re-reads credentials. Tests use this to reset state deterministically.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = make(map[provider.Name]provider.Adapter)
	r.configured = make(map[provider.Name]bool)
}
