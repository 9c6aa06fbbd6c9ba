package returns

import (
	"context"
	"embed"
)

// Migrations holds the goose SQL migrations for the returns table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Status is the lifecycle state of a return.
type Status string

const (
	StatusCreated  Status = "created"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusRefunded Status = "refunded"
)

// Statuses lists every valid status, in lifecycle order.
var Statuses = []Status{StatusCreated, StatusApproved, StatusRejected, StatusRefunded}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Return is a customer's request to return a previously placed order.
type Return struct {
	ID      int64  `json:"id"`
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
	Status  Status `json:"status"`
}

// Repository is the durable mapping from return ID to Return.
// Every method is its own commit boundary.
type Repository interface {
	// Create persists ret under a freshly assigned, never reused ID and returns the stored record.
	Create(ctx context.Context, ret Return) (*Return, error)

	// List returns every stored return.
	List(ctx context.Context) ([]Return, error)

	// Get returns the return with the given ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Return, error)

	// UpdateStatus overwrites the status and returns the updated record, or ErrNotFound.
	UpdateStatus(ctx context.Context, id int64, status Status) (*Return, error)

	// Delete hard-removes the return, or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error
}
