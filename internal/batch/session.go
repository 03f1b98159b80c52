package batch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradedocs/tradedocs/constants"
	"github.com/tradedocs/tradedocs/internal/extract"
)

// LowConfidenceThreshold marks successful extractions that need manual
// review instead of being blocked.
const LowConfidenceThreshold = 0.70

// Entry is one document's slot in a review session.
type Entry struct {
	FileName   string                `json:"fileName"`
	DocumentID uuid.UUID             `json:"documentId"`
	Status     constants.EntryStatus `json:"status"`
	Result     extract.Result        `json:"result"`
}

// NeedsReview reports whether a successful entry should be flagged for
// manual review.
func (e *Entry) NeedsReview() bool {
	return e.Result.Success && e.Result.Confidence.Overall() < LowConfidenceThreshold
}

// editable entries are the only targets of field edits and bulk overwrites.
func (e *Entry) editable() bool {
	return e.Status == constants.EntryStatusExtracted && e.Result.Success && e.Result.Tender != nil
}

// Session is the transient, single-operator review state for one upload
// batch. It is not safe for concurrent writers.
type Session struct {
	Entries []Entry `json:"entries"`
}

// Snapshot is the durable draft artifact: the serialized entries plus the
// save timestamp.
type Snapshot struct {
	ExtractedTenders []Entry `json:"extractedTenders"`
	Timestamp        string  `json:"timestamp"` // ISO-8601
}

// Marshal serializes the session into a restorable snapshot.
func (s *Session) Marshal(now time.Time) ([]byte, error) {
	snap := Snapshot{
		ExtractedTenders: s.Entries,
		Timestamp:        now.UTC().Format(time.RFC3339),
	}
	return json.Marshal(snap)
}

// RestoreSession rebuilds a session from a snapshot payload, replacing any
// in-memory state wholesale. Returns the snapshot's save time.
func RestoreSession(payload []byte) (*Session, time.Time, error) {
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode draft snapshot: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, snap.Timestamp)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse draft timestamp: %w", err)
	}
	return &Session{Entries: snap.ExtractedTenders}, ts, nil
}

// Settled reports whether every entry has reached a terminal status, so the
// session has nothing left to review or submit.
func (s *Session) Settled() bool {
	for i := range s.Entries {
		switch s.Entries[i].Status {
		case constants.EntryStatusSubmitted, constants.EntryStatusRemoved:
		default:
			return false
		}
	}
	return true
}

func (s *Session) entryAt(index int) (*Entry, error) {
	if index < 0 || index >= len(s.Entries) {
		return nil, fmt.Errorf("entry index %d out of range (0..%d)", index, len(s.Entries)-1)
	}
	return &s.Entries[index], nil
}

// SetField edits one scalar field of a successful entry's tender payload.
func (s *Session) SetField(index int, field, value string) error {
	e, err := s.entryAt(index)
	if err != nil {
		return err
	}
	if !e.editable() {
		return fmt.Errorf("entry %d is not editable", index)
	}
	return setTenderField(e.Result.Tender, field, value)
}

// AddItem appends a line item to a successful entry.
func (s *Session) AddItem(index int, item extract.TenderLineItem) error {
	e, err := s.entryAt(index)
	if err != nil {
		return err
	}
	if !e.editable() {
		return fmt.Errorf("entry %d is not editable", index)
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.Unit == "" {
		item.Unit = extract.DefaultUnit
	}
	e.Result.Tender.Items = append(e.Result.Tender.Items, item)
	return nil
}

// UpdateItem replaces one line item of a successful entry.
func (s *Session) UpdateItem(index, itemIndex int, item extract.TenderLineItem) error {
	e, err := s.entryAt(index)
	if err != nil {
		return err
	}
	if !e.editable() {
		return fmt.Errorf("entry %d is not editable", index)
	}
	items := e.Result.Tender.Items
	if itemIndex < 0 || itemIndex >= len(items) {
		return fmt.Errorf("item index %d out of range", itemIndex)
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.Unit == "" {
		item.Unit = extract.DefaultUnit
	}
	items[itemIndex] = item
	return nil
}

// RemoveItem deletes one line item of a successful entry.
func (s *Session) RemoveItem(index, itemIndex int) error {
	e, err := s.entryAt(index)
	if err != nil {
		return err
	}
	if !e.editable() {
		return fmt.Errorf("entry %d is not editable", index)
	}
	items := e.Result.Tender.Items
	if itemIndex < 0 || itemIndex >= len(items) {
		return fmt.Errorf("item index %d out of range", itemIndex)
	}
	e.Result.Tender.Items = append(items[:itemIndex], items[itemIndex+1:]...)
	return nil
}

// RemoveEntry marks an entry deleted by the operator. Submitted entries
// cannot be removed.
func (s *Session) RemoveEntry(index int) error {
	e, err := s.entryAt(index)
	if err != nil {
		return err
	}
	if e.Status == constants.EntryStatusSubmitted {
		return fmt.Errorf("entry %d already submitted", index)
	}
	e.Status = constants.EntryStatusRemoved
	return nil
}

// ApplyToAll overwrites one field across every editable entry. Failed and
// removed entries are excluded.
func (s *Session) ApplyToAll(field, value string) int {
	applied := 0
	for i := range s.Entries {
		e := &s.Entries[i]
		if !e.editable() {
			continue
		}
		if err := setTenderField(e.Result.Tender, field, value); err == nil {
			applied++
		}
	}
	return applied
}

func setTenderField(t *extract.TenderFields, field, value string) error {
	switch strings.TrimSpace(field) {
	case "reference":
		t.Reference = value
	case "title":
		t.Title = value
	case "organization":
		t.Organization = value
	case "closingDate":
		t.ClosingDate = value
	case "notes":
		t.Notes = value
	default:
		return fmt.Errorf("unknown tender field %q", field)
	}
	return nil
}
