package domain

import (
	"encoding/json"
	"time"
)

// DeliveryLogEntry records one outbound webhook attempt. Entries are
// append-only and never updated.
type DeliveryLogEntry struct {
	ID           int64           `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Destination  string          `db:"destination" json:"destination"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	ResponseCode int             `db:"response_code" json:"response_code"`
	ResponseBody string          `db:"response_body" json:"response_body"`
	Success      bool            `db:"success" json:"success"`
	Timestamp    time.Time       `db:"timestamp" json:"timestamp"`
}

// DeliveryResult is the outcome of a single delivery attempt.
type DeliveryResult struct {
	Success      bool
	Unconfigured bool
	ResponseCode int
	Body         string
}
