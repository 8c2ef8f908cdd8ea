package journalv1

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Entry is the durable record of an order's last observed state.
type Entry struct {
	Status         uint8
	CurrentReceive *big.Int
	SpentRemaining *big.Int
	UpdatedAt      int64
}

// Store persists order state transitions keyed by order address.
type Store interface {
	// Record overwrites the entry for the given order.
	Record(order common.Address, e Entry) error
	// Load returns the last recorded entry, reporting whether one exists.
	Load(order common.Address) (Entry, bool, error)
	// Close releases the underlying storage.
	Close() error
}
