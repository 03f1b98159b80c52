package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedocs/tradedocs/constants"
	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/provider"
)

// stubAdapter records invocations and returns a canned response or error.
type stubAdapter struct {
	name  provider.Name
	calls int
	resp  *provider.ChatResponse
	err   error
}

func (s *stubAdapter) Name() provider.Name { return s.name }

func (s *stubAdapter) Invoke(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func okResponse(text string) *provider.ChatResponse {
	return &provider.ChatResponse{
		Choices: []provider.Choice{
			{Message: provider.ResponseMessage{Role: "assistant", Content: text}},
		},
	}
}

func newTestRegistry(defaultName string) *Registry {
	return NewRegistry(common.ProviderConfig{Default: defaultName}, nil)
}

func TestRouteHeuristicPrefersGeminiForEmbeddedFiles(t *testing.T) {
	reg := newTestRegistry("gemini")
	gem := &stubAdapter{name: provider.Gemini, resp: okResponse("g")}
	oai := &stubAdapter{name: provider.OpenAI, resp: okResponse("o")}
	reg.Put(gem)
	reg.Put(oai)
	rt := NewRouter(reg, nil)

	for _, format := range []constants.FileFormat{constants.PDF, constants.OFFICE} {
		_, err := rt.Route(context.Background(), RouteParams{Format: format})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, gem.calls)
	assert.Equal(t, 0, oai.calls)
}

func TestRouteHeuristicPrefersOpenAIForImagesAndText(t *testing.T) {
	reg := newTestRegistry("gemini")
	gem := &stubAdapter{name: provider.Gemini, resp: okResponse("g")}
	oai := &stubAdapter{name: provider.OpenAI, resp: okResponse("o")}
	reg.Put(gem)
	reg.Put(oai)
	rt := NewRouter(reg, nil)

	for _, format := range []constants.FileFormat{constants.IMAGE, constants.TEXT} {
		_, err := rt.Route(context.Background(), RouteParams{Format: format})
		require.NoError(t, err)
	}
	assert.Equal(t, 0, gem.calls)
	assert.Equal(t, 2, oai.calls)
}

func TestRouteExplicitOverrideWins(t *testing.T) {
	reg := newTestRegistry("gemini")
	gem := &stubAdapter{name: provider.Gemini, resp: okResponse("g")}
	oai := &stubAdapter{name: provider.OpenAI, resp: okResponse("o")}
	reg.Put(gem)
	reg.Put(oai)
	rt := NewRouter(reg, nil)

	// PDF would normally route to Gemini; the override forces OpenAI.
	_, err := rt.Route(context.Background(), RouteParams{
		Format:   constants.PDF,
		Provider: provider.OpenAI,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, gem.calls)
	assert.Equal(t, 1, oai.calls)
}

func TestRouteSubstitutesDefaultWhenDesiredUnconfigured(t *testing.T) {
	// Only Gemini is configured; an image request that wants OpenAI must be
	// served by Gemini without error.
	reg := NewRegistry(common.ProviderConfig{Default: "gemini"}, nil)
	gem := &stubAdapter{name: provider.Gemini, resp: okResponse("g")}
	reg.Put(gem)
	rt := NewRouter(reg, nil)

	resp, err := rt.Route(context.Background(), RouteParams{
		Format:   constants.IMAGE,
		Provider: provider.OpenAI,
	})
	require.NoError(t, err)
	assert.Equal(t, "g", resp.Content())
	assert.Equal(t, 1, gem.calls)
}

func TestRouteRetriesOnceAgainstFallback(t *testing.T) {
	reg := newTestRegistry("openai")
	gem := &stubAdapter{name: provider.Gemini, err: errors.New("upstream 500")}
	oai := &stubAdapter{name: provider.OpenAI, resp: okResponse("rescued")}
	reg.Put(gem)
	reg.Put(oai)
	rt := NewRouter(reg, nil)

	resp, err := rt.Route(context.Background(), RouteParams{Format: constants.PDF})
	require.NoError(t, err)
	assert.Equal(t, "rescued", resp.Content())
	assert.Equal(t, 1, gem.calls)
	assert.Equal(t, 1, oai.calls)
}

func TestRouteNoSecondRetryWhenFallbackFails(t *testing.T) {
	reg := newTestRegistry("openai")
	gem := &stubAdapter{name: provider.Gemini, err: errors.New("gemini down")}
	oai := &stubAdapter{name: provider.OpenAI, err: errors.New("openai down")}
	reg.Put(gem)
	reg.Put(oai)
	rt := NewRouter(reg, nil)

	_, err := rt.Route(context.Background(), RouteParams{Format: constants.PDF})
	require.Error(t, err)
	assert.Equal(t, 1, gem.calls)
	assert.Equal(t, 1, oai.calls, "fallback is attempted exactly once")
}

func TestRouteFallbackFailureIsNotRetriedOnItself(t *testing.T) {
	reg := newTestRegistry("gemini")
	gem := &stubAdapter{name: provider.Gemini, err: errors.New("gemini down")}
	reg.Put(gem)
	rt := NewRouter(reg, nil)

	_, err := rt.Route(context.Background(), RouteParams{Format: constants.PDF})
	require.Error(t, err)
	assert.Equal(t, 1, gem.calls, "desired == fallback means a single attempt")
}

func TestRegistryUnconfiguredProviderError(t *testing.T) {
	reg := NewRegistry(common.ProviderConfig{Default: "gemini"}, nil)

	_, err := reg.Adapter(provider.Gemini)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrProviderNotConfigured)
}

func TestRegistryConfiguredCheckIsCachedUntilClear(t *testing.T) {
	cfg := common.ProviderConfig{Default: "gemini"}
	reg := NewRegistry(cfg, nil)

	assert.False(t, reg.IsConfigured(provider.OpenAI))

	// Mutating the config after the first check is not observed.
	reg.cfg.OpenAIKey = "sk-test"
	assert.False(t, reg.IsConfigured(provider.OpenAI))

	// Clear resets the cache, so the new credential is picked up.
	reg.Clear()
	assert.True(t, reg.IsConfigured(provider.OpenAI))
}

func TestRegistryDefaultFallsBackToGemini(t *testing.T) {
	reg := NewRegistry(common.ProviderConfig{Default: "no-such-provider"}, nil)
	assert.Equal(t, provider.Gemini, reg.Default())
}
