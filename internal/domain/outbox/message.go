package outbox

import (
	"encoding/json"
	"time"

	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/shared"
)

// Message stores a journal entry written in the same store transaction as the change it describes
type Message struct {
	ID            int64               `json:"id"`
	EventID       string              `json:"event_id"`
	OwnerID       string              `json:"owner_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(entry *journal.Entry) (*Message, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:   entry.EventID,
		OwnerID:   entry.OwnerID,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		Attempts:  0,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// JournalEntry decodes the payload
func (m *Message) JournalEntry() (*journal.Entry, error) {
	var entry journal.Entry
	if err := json.Unmarshal(m.Payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
