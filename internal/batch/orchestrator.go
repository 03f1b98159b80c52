package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradedocs/tradedocs/constants"
	"github.com/tradedocs/tradedocs/internal/common"
	"github.com/tradedocs/tradedocs/internal/entity"
	"github.com/tradedocs/tradedocs/internal/extract"
	"github.com/tradedocs/tradedocs/internal/repository"
)

// DocumentExtractor runs one extraction. Satisfied by *extract.Extractor;
// tests plug in deterministic stubs.
type DocumentExtractor interface {
	Extract(ctx context.Context, in extract.Input) extract.Result
}

// EntryOutcome is the per-file line of a submission report.
type EntryOutcome struct {
	FileName   string                `json:"fileName"`
	DocumentID uuid.UUID             `json:"documentId"`
	Success    bool                  `json:"success"`
	Data       *extract.TenderFields `json:"data,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// Outcome summarizes one submission pass.
type Outcome struct {
	TotalFiles int            `json:"totalFiles"`
	Successful int            `json:"successful"`
	Results    []EntryOutcome `json:"results"`
}

// Orchestrator drives a review session end to end: batch extraction,
// re-extraction, draft persistence, and the final tender commit.
type Orchestrator struct {
	extractor DocumentExtractor
	documents repository.DocumentRepository
	tenders   repository.TenderRepository
	drafts    repository.DraftRepository
	logger    *slog.Logger
}

func NewOrchestrator(
	extractor DocumentExtractor,
	documents repository.DocumentRepository,
	tenders repository.TenderRepository,
	drafts repository.DraftRepository,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		extractor: extractor,
		documents: documents,
		tenders:   tenders,
		drafts:    drafts,
		logger:    logger,
	}
}

// RunBatch extracts every input sequentially, in order. A failed extraction
// occupies its slot as failure data and never stops the batch.
func (o *Orchestrator) RunBatch(ctx context.Context, inputs []extract.Input) *Session {
	start := time.Now()
	session := &Session{Entries: make([]Entry, 0, len(inputs))}

	o.logger.Info("batch.run.start", "files", len(inputs))

	for _, in := range inputs {
		res := o.extractor.Extract(ctx, in)
		session.Entries = append(session.Entries, Entry{
			FileName:   in.FileName,
			DocumentID: in.DocumentID,
			Status:     constants.EntryStatusExtracted,
			Result:     res,
		})
	}

	ok := 0
	for i := range session.Entries {
		if session.Entries[i].Result.Success {
			ok++
		}
	}
	o.logger.Info("batch.run.done",
		"files", len(inputs),
		"succeeded", ok,
		"failed", len(inputs)-ok,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return session
}

// ReExtract reruns extraction for one entry and replaces its result in
// place. The document content is reloaded from the stored file.
func (o *Orchestrator) ReExtract(ctx context.Context, s *Session, index int) error {
	e, err := s.entryAt(index)
	if err != nil {
		return err
	}
	if e.Status == constants.EntryStatusRemoved || e.Status == constants.EntryStatusSubmitted {
		return fmt.Errorf("entry %d is %s and cannot be re-extracted", index, e.Status)
	}

	doc, err := o.documents.GetByID(ctx, e.DocumentID)
	if err != nil {
		return common.WrapError(err, "document lookup failed")
	}
	content, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return fmt.Errorf("read stored document %s: %w", doc.FilePath, err)
	}

	o.logger.Info("batch.reextract", "index", index, "document_id", doc.ID, "file", doc.FileName)

	e.Result = o.extractor.Extract(ctx, InputFromDocument(doc, content))
	e.Status = constants.EntryStatusExtracted
	return nil
}

// InputFromDocument builds an extraction input from a stored document row
// and its file bytes.
func InputFromDocument(doc *entity.Document, content []byte) extract.Input {
	return extract.Input{
		DocumentID: doc.ID,
		FileName:   doc.FileName,
		Category:   doc.Category,
		Format:     formatOf(doc),
		MediaType:  doc.MediaType,
		Content:    content,
	}
}

func formatOf(doc *entity.Document) constants.FileFormat {
	if f, ok := constants.AllowedMediaTypes[strings.ToLower(doc.MediaType)]; ok {
		return f
	}
	return constants.MapExtToFormat(filepath.Ext(doc.FileName))
}

// SaveDraft snapshots the session for an operator, replacing any earlier
// draft for the same operator.
func (o *Orchestrator) SaveDraft(ctx context.Context, operator string, s *Session) (*entity.BatchDraft, error) {
	payload, err := s.Marshal(time.Now())
	if err != nil {
		return nil, common.WrapError(err, "serialize draft")
	}
	return o.drafts.Save(ctx, operator, payload)
}

// RestoreDraft loads the operator's latest draft and rebuilds the session
// from it, discarding whatever was in memory.
func (o *Orchestrator) RestoreDraft(ctx context.Context, operator string) (*Session, time.Time, error) {
	draft, err := o.drafts.Latest(ctx, operator)
	if err != nil {
		return nil, time.Time{}, err
	}
	s, savedAt, err := RestoreSession(draft.Payload)
	if err != nil {
		return nil, time.Time{}, common.WrapError(err, "restore draft")
	}
	o.logger.Info("batch.draft.restored",
		"operator", operator, "entries", len(s.Entries), "saved_at", savedAt)
	return s, savedAt, nil
}

// DiscardDraft removes the operator's stored snapshot. The in-memory session
// is unaffected.
func (o *Orchestrator) DiscardDraft(ctx context.Context, operator string) error {
	return o.drafts.Delete(ctx, operator)
}

// Submit materializes every accepted entry as a tender, sequentially. One
// failed commit marks its entry SUBMISSION_FAILED and the pass continues.
// Removed and already-submitted entries are skipped but still counted in
// TotalFiles.
func (o *Orchestrator) Submit(ctx context.Context, s *Session) Outcome {
	out := Outcome{TotalFiles: len(s.Entries)}

	for i := range s.Entries {
		e := &s.Entries[i]
		res := EntryOutcome{FileName: e.FileName, DocumentID: e.DocumentID}

		switch {
		case e.Status == constants.EntryStatusRemoved:
			res.Error = "removed by operator"
		case e.Status == constants.EntryStatusSubmitted:
			res.Error = "already submitted"
		case !e.Result.Success || e.Result.Tender == nil:
			res.Error = e.Result.Error
			if res.Error == "" {
				res.Error = "no extracted data"
			}
		default:
			tender, err := tenderFromFields(e.DocumentID, e.Result.Tender)
			if err == nil {
				err = o.tenders.Create(ctx, tender)
			}
			if err != nil {
				e.Status = constants.EntryStatusSubmissionFailed
				res.Error = err.Error()
				o.logger.Error("batch.submit.entry_failed",
					"index", i, "file", e.FileName, "error", err)
			} else {
				e.Status = constants.EntryStatusSubmitted
				res.Success = true
				res.Data = e.Result.Tender
				out.Successful++
			}
		}
		out.Results = append(out.Results, res)
	}

	o.logger.Info("batch.submit.done",
		"total", out.TotalFiles, "successful", out.Successful)
	return out
}

// tenderFromFields maps an extracted payload to a persistable tender.
// Normalization guarantees item defaults, so only the date needs parsing.
func tenderFromFields(documentID uuid.UUID, f *extract.TenderFields) (*entity.Tender, error) {
	t := &entity.Tender{
		Reference:    f.Reference,
		Title:        f.Title,
		Organization: f.Organization,
		Notes:        f.Notes,
	}
	if documentID != uuid.Nil {
		id := documentID
		t.DocumentID = &id
	}
	if f.ClosingDate != "" {
		d, err := time.Parse("2006-01-02", f.ClosingDate)
		if err != nil {
			return nil, fmt.Errorf("invalid closing date %q: %w", f.ClosingDate, err)
		}
		t.ClosingDate = &d
	}
	for pos, it := range f.Items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		unit := it.Unit
		if unit == "" {
			unit = extract.DefaultUnit
		}
		t.Items = append(t.Items, entity.TenderItem{
			Position:    pos + 1,
			Description: it.ItemDescription,
			Quantity:    qty,
			Unit:        unit,
		})
	}
	return t, nil
}
