package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradedocs/tradedocs/constants"
	"github.com/tradedocs/tradedocs/internal/batch"
	"github.com/tradedocs/tradedocs/internal/entity"
	"github.com/tradedocs/tradedocs/internal/extract"
	"github.com/tradedocs/tradedocs/internal/provider"
)

// handleBatchExtract accepts a multipart upload, persists every valid file
// as a document, and runs the batch extraction. The resulting session
// replaces any previous one for the operator.
func (s *Server) handleBatchExtract(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "multipart form required: "+err.Error())
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		badRequest(c, "no files uploaded")
		return
	}

	override, err := parseProviderOverride(c.Query("provider"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	category, ok := constants.Canonicalize(c.Query("category"))
	if !ok {
		category = constants.Other
	}

	// Reject the whole batch on any invalid header before storing anything,
	// so a late bad file cannot leave earlier ones half-ingested.
	for _, fh := range files {
		if err := validateUpload(fh); err != nil {
			badRequest(c, fmt.Sprintf("%s: %v", fh.Filename, err))
			return
		}
	}

	inputs := make([]extract.Input, 0, len(files))
	for _, fh := range files {
		in, err := s.ingestUpload(c, fh, category, override)
		if err != nil {
			badRequest(c, fmt.Sprintf("%s: %v", fh.Filename, err))
			return
		}
		inputs = append(inputs, in)
	}

	session := s.orchestrator.RunBatch(c.Request.Context(), inputs)
	s.sessions.put(operatorOf(c), session)

	c.JSON(http.StatusOK, session)
}

// validateUpload rejects a file by its header alone: unsupported extension
// or a declared size over the cap.
func validateUpload(fh *multipart.FileHeader) error {
	ext := filepath.Ext(fh.Filename)
	if constants.MapExtToFormat(ext) == "" {
		return fmt.Errorf("unsupported file type %q", ext)
	}
	if fh.Size > constants.MaxUploadBytes {
		return fmt.Errorf("file exceeds %d byte limit", constants.MaxUploadBytes)
	}
	return nil
}

// ingestUpload stores one pre-validated upload and records the document row.
func (s *Server) ingestUpload(
	c *gin.Context,
	fh *multipart.FileHeader,
	category constants.Category,
	override provider.Name,
) (extract.Input, error) {
	if err := validateUpload(fh); err != nil {
		return extract.Input{}, err
	}
	ext := filepath.Ext(fh.Filename)

	mediaType := fh.Header.Get("Content-Type")
	if _, ok := constants.AllowedMediaTypes[mediaType]; !ok {
		mediaType = constants.MediaTypeForExt(ext)
	}

	src, err := fh.Open()
	if err != nil {
		return extract.Input{}, err
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, constants.MaxUploadBytes+1))
	if err != nil {
		return extract.Input{}, err
	}
	if int64(len(content)) > constants.MaxUploadBytes {
		return extract.Input{}, fmt.Errorf("file exceeds %d byte limit", constants.MaxUploadBytes)
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return extract.Input{}, err
	}
	stored := filepath.Join(s.cfg.UploadDir, uuid.New().String()+filepath.Ext(fh.Filename))
	if err := os.WriteFile(stored, content, 0o644); err != nil {
		return extract.Input{}, err
	}

	doc := &entity.Document{
		FileName:  fh.Filename,
		FilePath:  stored,
		MediaType: mediaType,
		Category:  category,
		SizeBytes: int64(len(content)),
	}
	if err := s.documents.Create(c.Request.Context(), doc); err != nil {
		return extract.Input{}, err
	}

	in := batch.InputFromDocument(doc, content)
	in.Provider = override
	return in, nil
}

func parseProviderOverride(raw string) (provider.Name, error) {
	if raw == "" {
		return "", nil
	}
	name, ok := provider.ParseName(raw)
	if !ok {
		return "", fmt.Errorf("unknown provider %q", raw)
	}
	return name, nil
}

func (s *Server) currentSession(c *gin.Context) (*batch.Session, bool) {
	sess, ok := s.sessions.get(operatorOf(c))
	if !ok {
		c.JSON(http.StatusNotFound, apiError{Error: "no active session"})
		return nil, false
	}
	return sess, true
}

func entryIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "invalid entry index")
		return 0, false
	}
	return idx, true
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleReExtract(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	idx, ok := entryIndex(c)
	if !ok {
		return
	}
	if err := s.orchestrator.ReExtract(c.Request.Context(), sess, idx); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Entries[idx])
}

type editEntryRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

func (s *Server) handleEditEntry(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	idx, ok := entryIndex(c)
	if !ok {
		return
	}
	var req editEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := sess.SetField(idx, req.Field, req.Value); err != nil {
		c.JSON(http.StatusUnprocessableEntity, apiError{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess.Entries[idx])
}

func (s *Server) handleRemoveEntry(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	idx, ok := entryIndex(c)
	if !ok {
		return
	}
	if err := sess.RemoveEntry(idx); err != nil {
		c.JSON(http.StatusUnprocessableEntity, apiError{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAddItem(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	idx, ok := entryIndex(c)
	if !ok {
		return
	}
	var item extract.TenderLineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := sess.AddItem(idx, item); err != nil {
		c.JSON(http.StatusUnprocessableEntity, apiError{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess.Entries[idx])
}

func (s *Server) handleUpdateItem(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	idx, ok := entryIndex(c)
	if !ok {
		return
	}
	itemIdx, err := strconv.Atoi(c.Param("item"))
	if err != nil {
		badRequest(c, "invalid item index")
		return
	}
	var item extract.TenderLineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := sess.UpdateItem(idx, itemIdx, item); err != nil {
		c.JSON(http.StatusUnprocessableEntity, apiError{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess.Entries[idx])
}

func (s *Server) handleRemoveItem(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	idx, ok := entryIndex(c)
	if !ok {
		return
	}
	itemIdx, err := strconv.Atoi(c.Param("item"))
	if err != nil {
		badRequest(c, "invalid item index")
		return
	}
	if err := sess.RemoveItem(idx, itemIdx); err != nil {
		c.JSON(http.StatusUnprocessableEntity, apiError{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess.Entries[idx])
}

func (s *Server) handleApplyToAll(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	var req editEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	applied := sess.ApplyToAll(req.Field, req.Value)
	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

func (s *Server) handleSaveDraft(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	draft, err := s.orchestrator.SaveDraft(c.Request.Context(), operatorOf(c), sess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"savedAt": draft.SavedAt.UTC().Format(time.RFC3339)})
}

func (s *Server) handleRestoreDraft(c *gin.Context) {
	op := operatorOf(c)
	sess, savedAt, err := s.orchestrator.RestoreDraft(c.Request.Context(), op)
	if err != nil {
		writeError(c, err)
		return
	}
	s.sessions.put(op, sess)
	c.JSON(http.StatusOK, gin.H{
		"savedAt": savedAt.UTC().Format(time.RFC3339),
		"session": sess,
	})
}

func (s *Server) handleDeleteDraft(c *gin.Context) {
	if err := s.orchestrator.DiscardDraft(c.Request.Context(), operatorOf(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSubmit(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	outcome := s.orchestrator.Submit(c.Request.Context(), sess)
	// A fully-settled session has nothing left to review; clear it.
	if sess.Settled() {
		s.sessions.drop(operatorOf(c))
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleExport(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	data, err := batch.ExportXLSX(sess, s.logger)
	if err != nil {
		writeError(c, err)
		return
	}
	name := "tenders-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
