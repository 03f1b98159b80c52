package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradedocs/tradedocs/internal/provider"
)

// Invoke implements provider.Adapter against the generateContent endpoint.
// Gemini interprets embedded files natively, so file parts are forwarded as
// inline data rather than placeholders.
func (c *Client) Invoke(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	rid := uuid.New().String()
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	system, contents := c.buildContents(rid, req.Messages)

	genCfg := map[string]any{}
	if req.Temperature != nil {
		genCfg["temperature"] = *req.Temperature
	} else {
		genCfg["temperature"] = c.cfg.Temperature
	}
	if req.MaxTokens > 0 {
		genCfg["maxOutputTokens"] = req.MaxTokens
	}
	if req.ResponseFormat == "json" {
		genCfg["responseMimeType"] = "application/json"
	}

	body := map[string]any{
		"contents":         contents,
		"generationConfig": genCfg,
	}
	if system != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]any{{"text": system}},
		}
	}
	if len(req.Tools) > 0 {
		decls := make([]map[string]any, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			})
		}
		body["tools"] = []map[string]any{{"functionDeclarations": decls}}
	}

	c.logger.Info("gemini.invoke.start",
		"req_id", rid,
		"model", model,
		"messages", len(req.Messages),
	)

	// Credential travels in a header so request logs never carry it.
	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), model)
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}
	raw, _, err := provider.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("gemini.invoke.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("gemini: %w", err)
	}

	var wire struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text         string `json:"text"`
					FunctionCall *struct {
						Name string         `json:"name"`
						Args map[string]any `json:"args"`
					} `json:"functionCall"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		UsageMetadata *struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
		ModelVersion string `json:"modelVersion"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		c.logger.Error("gemini.invoke.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(wire.Candidates) == 0 {
		c.logger.Error("gemini.invoke.no_candidates", "req_id", rid, "raw_bytes", len(raw))
		return nil, fmt.Errorf("gemini: no candidates in response")
	}

	out := &provider.ChatResponse{
		ID:      rid,
		Created: time.Now().Unix(),
		Model:   model,
	}
	if wire.ModelVersion != "" {
		out.Model = wire.ModelVersion
	}
	for i, cand := range wire.Candidates {
		var sb strings.Builder
		msg := provider.ResponseMessage{Role: "assistant"}
		for _, p := range cand.Content.Parts {
			if p.FunctionCall != nil {
				args, _ := json.Marshal(p.FunctionCall.Args)
				msg.ToolCalls = append(msg.ToolCalls, provider.ToolCall{
					Name:      p.FunctionCall.Name,
					Arguments: string(args),
				})
				continue
			}
			sb.WriteString(p.Text)
		}
		msg.Content = sb.String()
		out.Choices = append(out.Choices, provider.Choice{
			Index:        i,
			Message:      msg,
			FinishReason: mapFinishReason(cand.FinishReason),
		})
	}
	if wire.UsageMetadata != nil {
		out.Usage = &provider.Usage{
			PromptTokens:     wire.UsageMetadata.PromptTokenCount,
			CompletionTokens: wire.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      wire.UsageMetadata.TotalTokenCount,
		}
	}

	c.logger.Info("gemini.invoke.ok",
		"req_id", rid,
		"finish_reason", out.Choices[0].FinishReason,
		"content_len", len(out.Content()),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *Client) Name() provider.Name { return provider.Gemini }

// buildContents splits system turns into the systemInstruction and maps the
// remaining messages to Gemini contents. Remote image URLs cannot be fetched
// by the API, so they degrade to a placeholder with a warning.
func (c *Client) buildContents(rid string, msgs []provider.Message) (string, []map[string]any) {
	var system []string
	contents := make([]map[string]any, 0, len(msgs))

	for _, m := range msgs {
		if m.Role == "system" {
			if len(m.Parts) == 0 {
				system = append(system, m.Content)
			} else {
				for _, p := range m.Parts {
					if p.Type == provider.PartText {
						system = append(system, p.Text)
					}
				}
			}
			continue
		}

		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}

		var parts []map[string]any
		if len(m.Parts) == 0 {
			parts = []map[string]any{{"text": m.Content}}
		} else {
			for _, p := range m.Parts {
				switch p.Type {
				case provider.PartText:
					parts = append(parts, map[string]any{"text": p.Text})
				case provider.PartImageURL:
					if mt, data, ok := splitDataURL(p.ImageURL); ok {
						parts = append(parts, map[string]any{
							"inline_data": map[string]any{"mime_type": mt, "data": data},
						})
					} else {
						c.logger.Warn("gemini.invoke.unsupported_part",
							"req_id", rid, "part_type", p.Type, "hint", "remote image URL")
						parts = append(parts, map[string]any{"text": "[remote image omitted: not supported by this provider]"})
					}
				case provider.PartFileURL:
					parts = append(parts, map[string]any{
						"inline_data": map[string]any{"mime_type": p.MediaType, "data": p.FileData},
					})
				default:
					c.logger.Warn("gemini.invoke.unknown_part", "req_id", rid, "part_type", p.Type)
					parts = append(parts, map[string]any{"text": p.Text})
				}
			}
		}
		contents = append(contents, map[string]any{"role": role, "parts": parts})
	}

	return strings.Join(system, "\n"), contents
}

// splitDataURL decodes "data:<mime>;base64,<payload>" URLs.
func splitDataURL(u string) (mimeType, data string, ok bool) {
	if !strings.HasPrefix(u, "data:") {
		return "", "", false
	}
	rest := strings.TrimPrefix(u, "data:")
	sep := strings.Index(rest, ";base64,")
	if sep < 0 {
		return "", "", false
	}
	return rest[:sep], rest[sep+len(";base64,"):], true
}

func mapFinishReason(r string) string {
	switch strings.ToUpper(r) {
	case "STOP":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION", "BLOCKLIST":
		return "content_filter"
	default:
		return strings.ToLower(r)
	}
}
