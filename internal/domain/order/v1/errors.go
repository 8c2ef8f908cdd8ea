package orderv1

import "errors"

var (
	// ErrInvalidPayload marks an undecodable or inconsistent transfer payload.
	// Funds are bounced to the sender and no state changes.
	ErrInvalidPayload = errors.New("invalid transfer payload")
	// ErrWrongState marks a command received in a state that forbids it.
	ErrWrongState = errors.New("command not allowed in current state")
	// ErrUnauthorized marks a caller lacking the required key or role.
	ErrUnauthorized = errors.New("caller not authorized")
	// ErrEmergencyLock marks a non-manager command while the order is frozen.
	ErrEmergencyLock = errors.New("order is in emergency mode")
	// ErrWrongToken marks a deposit of an asset the contract does not trade.
	ErrWrongToken = errors.New("unexpected token for this order")
	// ErrZeroAmount marks a transfer or command with a non-positive amount.
	ErrZeroAmount = errors.New("amount must be positive")
	// ErrOrderNotFound marks a factory command naming an unknown order.
	ErrOrderNotFound = errors.New("order not found")
	// ErrNoPool marks a swap attempt on an order without a routable pool.
	ErrNoPool = errors.New("no pool for token pair")
	// ErrClosed marks a message sent to an order whose mailbox was shut down.
	ErrClosed = errors.New("order mailbox closed")
)
