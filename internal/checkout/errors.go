package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBag   = errors.New("your shopping bag is empty")
	ErrProcessing = errors.New("order placement already in progress")
	ErrWrongStage = errors.New("illegal transition of checkout stage")
)

const (
	PhaseOrder      = "order"
	PhaseOrderItems = "order_items"
)

// PersistenceError is a failed order or order-items write. OrderID is set
// when the order header was created before the failure.
type PersistenceError struct {
	Phase   string
	OrderID string
	Err     error
}

func (e *PersistenceError) Error() string {
	switch e.Phase {
	case PhaseOrder:
		return fmt.Sprintf("failed to create order: %v", e.Err)
	case PhaseOrderItems:
		return fmt.Sprintf("failed to create order items for order %s: %v", e.OrderID, e.Err)
	default:
		return fmt.Sprintf("order placement failed: %v", e.Err)
	}
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Retryable is always true: the shopper may re-run the whole placement.
func (e *PersistenceError) Retryable() bool { return true }

var errUnsuccessful = errors.New("store reported failure")
