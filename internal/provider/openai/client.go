package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradedocs/tradedocs/internal/provider"
)

// Invoke implements provider.Adapter against the chat/completions endpoint.
// Embedded-file parts are not supported by this API surface: they are replaced
// with a textual placeholder and a warning instead of failing the call.
func (c *Client) Invoke(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	rid := uuid.New().String()
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	body := map[string]any{
		"model":    model,
		"messages": c.buildMessages(rid, req.Messages),
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	} else {
		body["temperature"] = c.cfg.Temperature
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.ResponseFormat == "json" {
		body["response_format"] = map[string]any{"type": "json_object"}
	}
	if len(req.Tools) > 0 {
		tools := make([]map[string]any, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.Parameters,
				},
			})
		}
		body["tools"] = tools
		if req.ToolChoice != "" {
			body["tool_choice"] = req.ToolChoice
		}
	}

	c.logger.Info("openai.invoke.start",
		"req_id", rid,
		"model", model,
		"messages", len(req.Messages),
	)

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := provider.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("openai.invoke.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("openai: %w", err)
	}

	var wire struct {
		ID      string `json:"id"`
		Created int64  `json:"created"`
		Model   string `json:"model"`
		Choices []struct {
			Index   int `json:"index"`
			Message struct {
				Role      string `json:"role"`
				Content   string `json:"content"`
				ToolCalls []struct {
					ID       string `json:"id"`
					Function struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage *struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		c.logger.Error("openai.invoke.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(wire.Choices) == 0 {
		c.logger.Error("openai.invoke.no_choices", "req_id", rid, "raw_bytes", len(raw))
		return nil, fmt.Errorf("openai: no choices in response")
	}

	out := &provider.ChatResponse{
		ID:      wire.ID,
		Created: wire.Created,
		Model:   wire.Model,
	}
	for _, ch := range wire.Choices {
		msg := provider.ResponseMessage{
			Role:    ch.Message.Role,
			Content: ch.Message.Content,
		}
		for _, tc := range ch.Message.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, provider.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		out.Choices = append(out.Choices, provider.Choice{
			Index:        ch.Index,
			Message:      msg,
			FinishReason: ch.FinishReason,
		})
	}
	if wire.Usage != nil {
		out.Usage = &provider.Usage{
			PromptTokens:     wire.Usage.PromptTokens,
			CompletionTokens: wire.Usage.CompletionTokens,
			TotalTokens:      wire.Usage.TotalTokens,
		}
	}

	c.logger.Info("openai.invoke.ok",
		"req_id", rid,
		"finish_reason", out.Choices[0].FinishReason,
		"content_len", len(out.Content()),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *Client) Name() provider.Name { return provider.OpenAI }

// buildMessages translates unified messages to the chat/completions shape.
// Plain-text messages stay strings; multi-part messages become content arrays.
func (c *Client) buildMessages(rid string, msgs []provider.Message) []map[string]any {
	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		if len(m.Parts) == 0 {
			out = append(out, map[string]any{"role": m.Role, "content": m.Content})
			continue
		}
		parts := make([]map[string]any, 0, len(m.Parts))
		for _, p := range m.Parts {
			switch p.Type {
			case provider.PartText:
				parts = append(parts, map[string]any{"type": "text", "text": p.Text})
			case provider.PartImageURL:
				parts = append(parts, map[string]any{
					"type":      "image_url",
					"image_url": map[string]any{"url": p.ImageURL},
				})
			case provider.PartFileURL:
				c.logger.Warn("openai.invoke.unsupported_part",
					"req_id", rid, "part_type", p.Type, "media_type", p.MediaType)
				parts = append(parts, map[string]any{
					"type": "text",
					"text": fmt.Sprintf("[embedded %s file omitted: not supported by this provider]", p.MediaType),
				})
			default:
				c.logger.Warn("openai.invoke.unknown_part", "req_id", rid, "part_type", p.Type)
				parts = append(parts, map[string]any{"type": "text", "text": p.Text})
			}
		}
		out = append(out, map[string]any{"role": m.Role, "content": parts})
	}
	return out
}
