package router

import (
	"context"
	"log/slog"

	"github.com/tradedocs/tradedocs/constants"
	"github.com/tradedocs/tradedocs/internal/provider"
)

// RouteParams carries one invocation plus the hints the Router selects a
// provider from.
type RouteParams struct {
	// Format classifies the document driving this request; it feeds the
	// task-type heuristic when Provider is empty.
	Format constants.FileFormat
	// Provider is an explicit override. Empty means "decide for me".
	Provider provider.Name
	Request  provider.ChatRequest
}

// Router decides which adapter services a request and recovers when the
// chosen one is unavailable. Exactly one successful attempt or one propagated
// failure per call; the single retry always targets the fallback provider.
type Router struct {
	reg    *Registry
	logger *slog.Logger
}

func NewRouter(reg *Registry, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{reg: reg, logger: logger}
}

// Route resolves the desired provider (explicit override, then task-type
// heuristic, then process default), transparently substitutes the fallback
// when the desired one is unconfigured, and retries once against the fallback
// on invocation failure.
func (rt *Router) Route(ctx context.Context, params RouteParams) (*provider.ChatResponse, error) {
	desired := rt.resolve(params)
	fallback := rt.fallback()

	if desired != fallback && !rt.reg.IsConfigured(desired) {
		rt.logger.Info("router.substitute",
			"desired", string(desired), "fallback", string(fallback),
			"reason", "not configured")
		desired = fallback
	}

	adapter, err := rt.reg.Adapter(desired)
	if err != nil {
		return nil, err
	}

	resp, err := adapter.Invoke(ctx, params.Request)
	if err == nil {
		return resp, nil
	}
	if desired == fallback {
		return nil, err
	}

	rt.logger.Warn("router.fallback",
		"failed_provider", string(desired),
		"fallback", string(fallback),
		"error", err,
	)

	fb, fbErr := rt.reg.Adapter(fallback)
	if fbErr != nil {
		// fallback unusable; surface the original invocation failure
		return nil, err
	}
	return fb.Invoke(ctx, params.Request)
}

// resolve picks the desired provider: explicit config wins, then the
// task-type heuristic, then the process default. Documents needing native
// embedded-file interpretation prefer Gemini; image and plain-text tasks
// prefer OpenAI when configured.
func (rt *Router) resolve(params RouteParams) provider.Name {
	if params.Provider != "" {
		return params.Provider
	}
	switch params.Format {
	case constants.PDF, constants.OFFICE:
		return provider.Gemini
	case constants.IMAGE, constants.TEXT:
		if rt.reg.IsConfigured(provider.OpenAI) {
			return provider.OpenAI
		}
		return rt.reg.Default()
	default:
		return rt.reg.Default()
	}
}

// fallback is the provider a failed or unconfigured choice degrades to. The
// process default is assumed always available; when even it has no credential
// the other provider takes its place.
func (rt *Router) fallback() provider.Name {
	def := rt.reg.Default()
	if rt.reg.IsConfigured(def) {
		return def
	}
	if def == provider.Gemini && rt.reg.IsConfigured(provider.OpenAI) {
		return provider.OpenAI
	}
	if def == provider.OpenAI && rt.reg.IsConfigured(provider.Gemini) {
		return provider.Gemini
	}
	return def
}
