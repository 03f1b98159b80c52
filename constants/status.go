package constants

// EntryStatus is the canonical state of one batch entry.
type EntryStatus string

// Stable values (serialized into draft snapshots).
const (
	EntryStatusPending          EntryStatus = "PENDING"           // not extracted yet
	EntryStatusExtracted        EntryStatus = "EXTRACTED"         // extraction returned, success flag on result
	EntryStatusRemoved          EntryStatus = "REMOVED"           // operator deleted the entry
	EntryStatusSubmitted        EntryStatus = "SUBMITTED"         // materialized as a tender; terminal
	EntryStatusSubmissionFailed EntryStatus = "SUBMISSION_FAILED" // commit attempt failed; retryable
)

// InvoiceStatus is the lifecycle status of an invoice record.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	InvoiceStatusSent  InvoiceStatus = "SENT"
	InvoiceStatusPaid  InvoiceStatus = "PAID"
)
