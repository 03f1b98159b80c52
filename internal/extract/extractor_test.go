package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedocs/tradedocs/constants"
	"github.com/tradedocs/tradedocs/internal/provider"
	"github.com/tradedocs/tradedocs/internal/provider/router"
)

// stubInvoker captures the routed params and replies with canned output.
type stubInvoker struct {
	params router.RouteParams
	reply  string
	err    error
}

func (s *stubInvoker) Route(ctx context.Context, params router.RouteParams) (*provider.ChatResponse, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return &provider.ChatResponse{
		Choices: []provider.Choice{
			{Message: provider.ResponseMessage{Role: "assistant", Content: s.reply}},
		},
	}, nil
}

const tenderReply = `{"reference":"TN-5","title":"Gravel supply","organization":"Roads Dept",
	"closingDate":"2026-12-01","items":[{"itemDescription":"Gravel","quantity":40,"unit":"ton"}],"notes":""}`

func TestExtractHappyPath(t *testing.T) {
	stub := &stubInvoker{reply: "```json\n" + tenderReply + "\n```"}
	e := NewExtractor(stub, nil)

	res := e.Extract(context.Background(), Input{
		DocumentID: uuid.New(),
		FileName:   "notice.pdf",
		Category:   constants.Tender,
		Format:     constants.PDF,
		MediaType:  "application/pdf",
		Content:    []byte("%PDF-1.7"),
	})

	require.True(t, res.Success, "error: %s", res.Error)
	require.NotNil(t, res.Tender)
	assert.Equal(t, "TN-5", res.Tender.Reference)

	// The routed request carries the document as an embedded file part.
	req := stub.params.Request
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	require.Len(t, req.Messages[1].Parts, 2)
	assert.Equal(t, provider.PartFileURL, req.Messages[1].Parts[1].Type)
	assert.Equal(t, "application/pdf", req.Messages[1].Parts[1].MediaType)
	assert.Equal(t, "json", req.ResponseFormat)
}

func TestExtractImageBecomesDataURL(t *testing.T) {
	stub := &stubInvoker{reply: tenderReply}
	e := NewExtractor(stub, nil)

	res := e.Extract(context.Background(), Input{
		DocumentID: uuid.New(),
		FileName:   "scan.png",
		Category:   constants.Tender,
		Format:     constants.IMAGE,
		MediaType:  "image/png",
		Content:    []byte{0x89, 'P', 'N', 'G'},
	})

	require.True(t, res.Success, "error: %s", res.Error)
	parts := stub.params.Request.Messages[1].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, provider.PartImageURL, parts[1].Type)
	assert.Contains(t, parts[1].ImageURL, "data:image/png;base64,")
}

func TestExtractTextInlinedInPrompt(t *testing.T) {
	stub := &stubInvoker{reply: tenderReply}
	e := NewExtractor(stub, nil)

	res := e.Extract(context.Background(), Input{
		DocumentID: uuid.New(),
		FileName:   "tender.txt",
		Category:   constants.Tender,
		Format:     constants.TEXT,
		Content:    []byte("Tender notice TN-5 for gravel"),
	})

	require.True(t, res.Success, "error: %s", res.Error)
	user := stub.params.Request.Messages[1]
	assert.Empty(t, user.Parts)
	assert.Contains(t, user.Content, "Tender notice TN-5 for gravel")
}

func TestExtractSniffsCategoryFromFilename(t *testing.T) {
	stub := &stubInvoker{reply: tenderReply}
	e := NewExtractor(stub, nil)

	res := e.Extract(context.Background(), Input{
		DocumentID: uuid.New(),
		FileName:   "city-tender-2026.txt",
		Category:   constants.Other,
		Format:     constants.TEXT,
		Content:    []byte("text"),
	})

	require.True(t, res.Success, "error: %s", res.Error)
	assert.Equal(t, constants.Tender, res.Category)
}

func TestExtractUnresolvableCategoryFailsAsData(t *testing.T) {
	stub := &stubInvoker{reply: tenderReply}
	e := NewExtractor(stub, nil)

	res := e.Extract(context.Background(), Input{
		DocumentID: uuid.New(),
		FileName:   "scan001.txt",
		Category:   constants.Other,
		Format:     constants.TEXT,
		Content:    []byte("text"),
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, FailureNote)
	assert.Empty(t, stub.params.Request.Messages, "no provider call without a category")
}

func TestExtractProviderFailureFailsAsData(t *testing.T) {
	stub := &stubInvoker{err: errors.New("both providers down")}
	e := NewExtractor(stub, nil)

	res := e.Extract(context.Background(), Input{
		DocumentID: uuid.New(),
		FileName:   "notice.pdf",
		Category:   constants.Tender,
		Format:     constants.PDF,
		MediaType:  "application/pdf",
		Content:    []byte("%PDF-1.7"),
	})

	assert.False(t, res.Success)
	assert.Equal(t, FailureNote, res.Error)
	assert.Equal(t, constants.Tender, res.Category)
}

func TestExtractOverrideThreadedToRouter(t *testing.T) {
	stub := &stubInvoker{reply: tenderReply}
	e := NewExtractor(stub, nil)

	e.Extract(context.Background(), Input{
		DocumentID: uuid.New(),
		FileName:   "notice.pdf",
		Category:   constants.Tender,
		Format:     constants.PDF,
		MediaType:  "application/pdf",
		Content:    []byte("%PDF-1.7"),
		Provider:   provider.OpenAI,
	})

	assert.Equal(t, provider.OpenAI, stub.params.Provider)
	assert.Equal(t, constants.PDF, stub.params.Format)
}
