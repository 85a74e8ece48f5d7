package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds emitted by the allocation engine.
const (
	ExpenseCreated = "expense.created"
	ExpenseUpdated = "expense.updated"
	ExpenseDeleted = "expense.deleted"
	IncomeCreated  = "income.created"
	IncomeUpdated  = "income.updated"
	IncomeDeleted  = "income.deleted"

	// SummaryRefresh marks a scheduled pass rather than a mutation.
	SummaryRefresh = "summary.refresh"
)

// LedgerEvent is a lightweight notification that a ledger mutation was
// committed. Consumers re-read state from the store; the event carries
// only enough to know which user and month were touched.
type LedgerEvent struct {
	Kind      string    `json:"kind"`
	EntityID  int64     `json:"entity_id"`
	UserID    int64     `json:"user_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(kind string, entityID, userID int64, year, month int) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		EntityID:  entityID,
		UserID:    userID,
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var evt LedgerEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}
