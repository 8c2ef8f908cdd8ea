package orderv1

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Inbound is the closed set of messages an order processes, one at a time,
// in arrival order. Only types in this package implement it.
type Inbound interface {
	inbound()
}

// TokenTransfer is an incoming transfer notification: tokens already credited
// to the order's wallet, with the sender's routing payload attached.
type TokenTransfer struct {
	TransferID     string
	Token          common.Address
	Sender         common.Address
	Amount         *big.Int
	Payload        []byte
	RemainingGasTo common.Address
}

// Cancel closes an active order, returning the remaining spent tokens to the owner.
type Cancel struct {
	Caller         common.Address
	AttachedValue  *big.Int
	RemainingGasTo common.Address
}

// Swap routes the remaining spent amount through the pool at the quoted
// price, on the owner's authority.
type Swap struct {
	Caller            common.Address
	DeployWalletValue *big.Int
	AttachedValue     *big.Int
	RemainingGasTo    common.Address
}

// BackendSwap is the backend-authorized variant of Swap, authenticated by the
// order's backend public key.
type BackendSwap struct {
	CallerKey      *big.Int
	AttachedValue  *big.Int
	RemainingGasTo common.Address
}

// SetEmergency toggles emergency mode. Only the factory may send it.
type SetEmergency struct {
	Caller         common.Address
	Enabled        bool
	Manager        *big.Int
	AttachedValue  *big.Int
	RemainingGasTo common.Address
}

// ProxyTokensTransfer moves an arbitrary token balance out of a frozen order,
// on the emergency manager's authority. It bypasses settlement accounting.
type ProxyTokensTransfer struct {
	CallerKey         *big.Int
	Token             common.Address
	Amount            *big.Int
	Recipient         common.Address
	GasValue          *big.Int
	DeployWalletValue *big.Int
	RemainingGasTo    common.Address
	Notify            bool
	Payload           []byte
	AttachedValue     *big.Int
}

// Flush is a barrier: the order closes Done once every message enqueued
// before it has been processed. It exists for callers that need to observe a
// settled state, replacing arbitrary sleeps.
type Flush struct {
	Done chan struct{}
}

func (TokenTransfer) inbound()       {}
func (Cancel) inbound()              {}
func (Swap) inbound()                {}
func (BackendSwap) inbound()         {}
func (SetEmergency) inbound()        {}
func (ProxyTokensTransfer) inbound() {}
func (Flush) inbound()               {}
