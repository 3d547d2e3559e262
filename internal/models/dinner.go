package models

import (
	"fmt"
	"time"
)

// DinnerStatus represents the lifecycle status of a dinner (table order)
type DinnerStatus string

const (
	DinnerDraft     DinnerStatus = "draft"
	DinnerDeleted   DinnerStatus = "deleted"
	DinnerFormed    DinnerStatus = "formed"
	DinnerCompleted DinnerStatus = "completed"
	DinnerRejected  DinnerStatus = "rejected"
)

// DefaultDraftTableNumber is the table assigned to a draft created implicitly
// when a guest adds the first dish. The creator sets the real table when forming.
const DefaultDraftTableNumber = 1

// ParseDinnerStatus validates a status name
func ParseDinnerStatus(s string) (DinnerStatus, error) {
	switch DinnerStatus(s) {
	case DinnerDraft, DinnerDeleted, DinnerFormed, DinnerCompleted, DinnerRejected:
		return DinnerStatus(s), nil
	default:
		return "", fmt.Errorf("status must be one of: draft, deleted, formed, completed, rejected")
	}
}

// IsTerminal reports whether no further transitions leave this status
func (s DinnerStatus) IsTerminal() bool {
	return s == DinnerDeleted || s == DinnerCompleted || s == DinnerRejected
}

// IsFrozen reports whether line items of a dinner in this status must stay untouched
func (s DinnerStatus) IsFrozen() bool {
	return s.IsTerminal()
}

// Dinner represents a table order
type Dinner struct {
	ID             int64        `json:"id" db:"id"`
	TableNumber    int          `json:"table_number" db:"table_number"`
	Status         DinnerStatus `json:"status" db:"status"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	FormedAt       *time.Time   `json:"formed_at,omitempty" db:"formed_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	CreatorID      int64        `json:"creator_id" db:"creator_id"`
	CreatorEmail   string       `json:"creator" db:"creator_email"`
	ModeratorID    *int64       `json:"moderator_id,omitempty" db:"moderator_id"`
	ModeratorEmail *string      `json:"moderator,omitempty" db:"moderator_email"`
	TotalCost      *int64       `json:"total_cost,omitempty" db:"total_cost"`
}

// DinnerDish is a line item linking one dinner to one dish
type DinnerDish struct {
	ID       int64  `json:"id" db:"id"`
	DinnerID int64  `json:"dinner_id" db:"dinner_id"`
	DishID   int64  `json:"dish_id" db:"dish_id"`
	User     string `json:"user" db:"user_label"`
	Count    int    `json:"count" db:"count"`
}

// LineItem is a line item joined with the dish data needed for costing
type LineItem struct {
	DinnerDish
	DishName  string `json:"dish_name"`
	DishPrice int64  `json:"dish_price"`
}

// DinnerFilter narrows dinner listings; all set conditions must hold
type DinnerFilter struct {
	CreatorID       *int64
	ExcludeStatuses []DinnerStatus
	DateFrom        *time.Time
	DateTo          *time.Time
	Status          *DinnerStatus
}

// DinnerDetail is a dinner together with its line items
type DinnerDetail struct {
	Dinner
	Dishes    []LineItem `json:"dishes"`
	DishCount int64      `json:"dish_count"`
}

// TransitionRequest carries the payload of the form and complete/reject actions
type TransitionRequest struct {
	TableNumber *int          `json:"table_number"`
	Status      *DinnerStatus `json:"status"`
}

// EditDinnerRequest is an unrestricted partial update of a dinner
type EditDinnerRequest struct {
	TableNumber *int          `json:"table_number,omitempty"`
	Status      *DinnerStatus `json:"status,omitempty"`
	TotalCost   *int64        `json:"total_cost,omitempty"`
}

// UpsertDinnerRequest creates a dinner or, when ID is set, updates an existing one
type UpsertDinnerRequest struct {
	ID          *int64        `json:"id,omitempty"`
	TableNumber *int          `json:"table_number"`
	Status      *DinnerStatus `json:"status,omitempty"`
}

// UpdateLineItemRequest is a partial update of a line item
type UpdateLineItemRequest struct {
	User  *string `json:"user,omitempty"`
	Count *int    `json:"count,omitempty"`
}

// GuestLine is one dish ordered by one guest
type GuestLine struct {
	DishID   int64  `json:"dish_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// GuestSummary groups the lines ordered by one guest
type GuestSummary struct {
	Guest    string      `json:"guest"`
	Lines    []GuestLine `json:"lines"`
	Subtotal int64       `json:"subtotal"`
}

// Receipt is the rendered order summary of a dinner
type Receipt struct {
	DinnerID    int64          `json:"dinner_id"`
	TableNumber int            `json:"table_number"`
	Guests      []GuestSummary `json:"guests"`
	Total       int64          `json:"total"`
	Text        string         `json:"text"`
	PaymentCode string         `json:"payment_code"`
}
