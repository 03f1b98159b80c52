package extract

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tradedocs/tradedocs/constants"
	"github.com/tradedocs/tradedocs/internal/provider"
	"github.com/tradedocs/tradedocs/internal/provider/router"
)

// Invoker routes one unified request to a provider. Satisfied by
// *router.Router; tests plug in stubs.
type Invoker interface {
	Route(ctx context.Context, params router.RouteParams) (*provider.ChatResponse, error)
}

// Input describes one document to extract.
type Input struct {
	DocumentID uuid.UUID
	FileName   string
	Category   constants.Category
	Format     constants.FileFormat
	MediaType  string
	Content    []byte
	// Provider is an optional explicit override threaded to the Router.
	Provider provider.Name
}

// Extractor drives one extraction: builds the category prompt and message
// parts from the document, routes the invocation, and normalizes the reply.
// Every failure comes back inside the Result, never as an error, so callers
// can iterate batches without per-document recovery.
type Extractor struct {
	invoker Invoker
	logger  *slog.Logger
}

func NewExtractor(invoker Invoker, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{invoker: invoker, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, in Input) Result {
	start := time.Now()

	cat := in.Category
	if cat == constants.Other || cat == "" {
		cat = constants.SniffFromFilename(in.FileName)
	}
	if _, ok := SpecFor(cat); !ok {
		return Failure(in.DocumentID, in.FileName, cat,
			"cannot determine document category: "+FailureNote)
	}

	req := e.buildRequest(cat, in)

	e.logger.Info("extract.start",
		"document_id", in.DocumentID,
		"file", in.FileName,
		"category", string(cat),
		"format", string(in.Format),
		"content_bytes", len(in.Content),
	)

	resp, err := e.invoker.Route(ctx, router.RouteParams{
		Format:   in.Format,
		Provider: in.Provider,
		Request:  req,
	})
	if err != nil {
		e.logger.Error("extract.invoke_failed",
			"document_id", in.DocumentID, "file", in.FileName, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Failure(in.DocumentID, in.FileName, cat, FailureNote)
	}

	res := Normalize(cat, in.DocumentID, in.FileName, []byte(resp.Content()), e.logger)

	e.logger.Info("extract.done",
		"document_id", in.DocumentID,
		"file", in.FileName,
		"success", res.Success,
		"confidence", res.Confidence.Overall(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

// buildRequest assembles the unified chat request. Scanned PDFs and office
// documents ride along as embedded file parts, images as data URLs, and
// plain text inline in the user prompt.
func (e *Extractor) buildRequest(cat constants.Category, in Input) provider.ChatRequest {
	system := provider.Message{Role: "system", Content: BuildSystemPrompt(cat)}

	var user provider.Message
	switch in.Format {
	case constants.IMAGE:
		user = provider.Message{
			Role: "user",
			Parts: []provider.Part{
				{Type: provider.PartText, Text: BuildUserPrompt(in.FileName, "", true)},
				{Type: provider.PartImageURL, ImageURL: asDataURL(in.MediaType, in.Content)},
			},
		}
	case constants.PDF, constants.OFFICE:
		user = provider.Message{
			Role: "user",
			Parts: []provider.Part{
				{Type: provider.PartText, Text: BuildUserPrompt(in.FileName, "", true)},
				{
					Type:      provider.PartFileURL,
					MediaType: in.MediaType,
					FileData:  base64.StdEncoding.EncodeToString(in.Content),
				},
			},
		}
	default:
		user = provider.Message{
			Role:    "user",
			Content: BuildUserPrompt(in.FileName, string(in.Content), false),
		}
	}

	return provider.ChatRequest{
		Messages:       []provider.Message{system, user},
		ResponseFormat: "json",
		MaxTokens:      4096,
	}
}

func asDataURL(mediaType string, content []byte) string {
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(content)
}
