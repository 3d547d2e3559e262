package models

import (
	"time"
)

// DinnerStatusEvent is published after a dinner changes status
type DinnerStatusEvent struct {
	DinnerID    int64        `json:"dinner_id"`
	TableNumber int          `json:"table_number"`
	OldStatus   DinnerStatus `json:"old_status"`
	NewStatus   DinnerStatus `json:"new_status"`
	ChangedBy   string       `json:"changed_by"`
	TotalCost   *int64       `json:"total_cost,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// NewDinnerStatusEvent creates a status event for the dinner's current state
func NewDinnerStatusEvent(dinner *Dinner, oldStatus DinnerStatus, changedBy string) *DinnerStatusEvent {
	return &DinnerStatusEvent{
		DinnerID:    dinner.ID,
		TableNumber: dinner.TableNumber,
		OldStatus:   oldStatus,
		NewStatus:   dinner.Status,
		ChangedBy:   changedBy,
		TotalCost:   dinner.TotalCost,
		Timestamp:   time.Now().UTC(),
	}
}
