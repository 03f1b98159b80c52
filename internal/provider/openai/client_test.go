package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedocs/tradedocs/internal/provider"
)

func newTestServer(t *testing.T, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		*capture = body

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": `{"reference":"R"}`,
					},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     12,
				"completion_tokens": 8,
				"total_tokens":      20,
			},
		})
	}))
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{APIKey: "sk-test", BaseURL: baseURL}, nil)
}

func TestInvokeTranslatesRequestAndResponse(t *testing.T) {
	var captured map[string]any
	srv := newTestServer(t, &captured)
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.Invoke(context.Background(), provider.ChatRequest{
		Messages: []provider.Message{
			{Role: "system", Content: "extract fields"},
			{Role: "user", Content: "document text"},
		},
		ResponseFormat: "json",
		MaxTokens:      1024,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"reference":"R"}`, resp.Content())
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 20, resp.Usage.TotalTokens)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	rf, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", rf["type"])
	assert.EqualValues(t, 1024, captured["max_tokens"])
}

func TestInvokeMultiPartImageMessage(t *testing.T) {
	var captured map[string]any
	srv := newTestServer(t, &captured)
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Invoke(context.Background(), provider.ChatRequest{
		Messages: []provider.Message{
			{
				Role: "user",
				Parts: []provider.Part{
					{Type: provider.PartText, Text: "read this scan"},
					{Type: provider.PartImageURL, ImageURL: "data:image/png;base64,AAAA"},
				},
			},
		},
	})
	require.NoError(t, err)

	msgs := captured["messages"].([]any)
	require.Len(t, msgs, 1)
	parts := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].(map[string]any)["type"])
	img := parts[1].(map[string]any)
	assert.Equal(t, "image_url", img["type"])
	assert.Equal(t, "data:image/png;base64,AAAA",
		img["image_url"].(map[string]any)["url"])
}

func TestInvokeEmbeddedFileBecomesPlaceholder(t *testing.T) {
	var captured map[string]any
	srv := newTestServer(t, &captured)
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Invoke(context.Background(), provider.ChatRequest{
		Messages: []provider.Message{
			{
				Role: "user",
				Parts: []provider.Part{
					{Type: provider.PartText, Text: "read this document"},
					{Type: provider.PartFileURL, MediaType: "application/pdf", FileData: "AAAA"},
				},
			},
		},
	})
	require.NoError(t, err)

	parts := captured["messages"].([]any)[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	placeholder := parts[1].(map[string]any)
	assert.Equal(t, "text", placeholder["type"])
	assert.Contains(t, placeholder["text"], "application/pdf")
	assert.Contains(t, placeholder["text"], "not supported")
}

func TestInvokeUpstreamErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Invoke(context.Background(), provider.ChatRequest{
		Messages: []provider.Message{{Role: "user", Content: "x"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai")
}
