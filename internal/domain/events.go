package domain

import "time"

// Event types
const (
	EventTypeJournalEntryCreated = "journal_entry.created"
	EventTypeJournalEntryPosted  = "journal_entry.posted"
	EventTypeAccountCreated      = "account.created"
)

// Aggregate types
const (
	AggregateTypeJournalEntry = "journal_entry"
	AggregateTypeAccount      = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Payload       map[string]any
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Published     bool
}

// JournalEntryEventPayload is the payload of journal entry events.
func JournalEntryEventPayload(e *JournalEntry) map[string]any {
	debit, credit := e.Totals()
	payload := map[string]any{
		"entry_id":     e.ID,
		"entry_number": e.EntryNumber,
		"date":         e.Date.Format(time.DateOnly),
		"is_posted":    e.IsPosted,
		"total_debit":  debit.String(),
		"total_credit": credit.String(),
		"account_ids":  e.AccountIDs(),
	}
	if e.Reference != nil {
		payload["reference"] = *e.Reference
	}
	return payload
}

// AccountCreatedPayload is the payload of account.created.
func AccountCreatedPayload(a *Account) map[string]any {
	payload := map[string]any{
		"account_id":     a.ID,
		"account_number": a.AccountNumber,
		"name":           a.Name,
		"type_id":        a.TypeID,
	}
	if a.ParentID != nil {
		payload["parent_account_id"] = *a.ParentID
	}
	return payload
}
