package orderv1

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Status represents the lifecycle state of a limit order. The numeric values
// are part of the public query surface and must stay stable.
type Status uint8

const (
	// StatusUnknown is the zero value, never reported by a live order.
	StatusUnknown Status = 0
	// StatusActive accepts receive-token deposits; swap and cancel are available.
	StatusActive Status = 2
	// StatusFilled means the expected receive amount was reached and both legs paid out.
	StatusFilled Status = 3
	// StatusCancelled means the order was closed before a full fill.
	StatusCancelled Status = 5
	// StatusEmergency means the factory suspended normal transitions; only the
	// designated manager may move funds out.
	StatusEmergency Status = 6
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	case StatusEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status allows no further settlement.
func (s Status) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled
}

// Params holds the immutable parameters an order is deployed with.
type Params struct {
	// Owner created the order and is the sole authority for cancel/swap
	// outside of emergency mode.
	Owner common.Address
	// SpentToken is the asset sold, ReceiveToken the asset bought.
	SpentToken   common.Address
	ReceiveToken common.Address
	// SpentAmount is the total deposit made at creation.
	SpentAmount *big.Int
	// ExpectedReceiveAmount is the target total of ReceiveToken to fully fill.
	ExpectedReceiveAmount *big.Int
	// BackendPublicKey authorizes a designated backend to force-route the
	// remaining spent amount through the pool. Zero disables backend swaps.
	BackendPublicKey *big.Int
	// DeployWalletValue is carried from the creation payload and attached to
	// wallet-deploying payouts.
	DeployWalletValue *big.Int
}

// Filler records one counter-party contribution, in arrival order.
type Filler struct {
	Account            common.Address `json:"account"`
	ReceiveContributed *big.Int       `json:"receiveContributed"`
	SpentPaid          *big.Int       `json:"spentPaid"`
}

// Details is a point-in-time snapshot of an order's observable state.
type Details struct {
	Address               common.Address
	Root                  common.Address
	Factory               common.Address
	Owner                 common.Address
	SpentToken            common.Address
	ReceiveToken          common.Address
	SpentAmount           *big.Int
	ExpectedReceiveAmount *big.Int
	CurrentReceiveAmount  *big.Int
	SpentRemaining        *big.Int
	BackendPublicKey      *big.Int
	Status                Status
	Fillers               []Filler
}
