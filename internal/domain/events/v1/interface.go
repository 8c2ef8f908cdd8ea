package eventsv1

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Kind enumerates the lifecycle events published for off-chain consumers.
type Kind string

const (
	// KindCreateOrder announces a newly deployed order.
	KindCreateOrder Kind = "create_order"
	// KindPartExchange reports one processed fill.
	KindPartExchange Kind = "part_exchange"
	// KindStateFilled reports the transition to the filled state.
	KindStateFilled Kind = "state_filled"
	// KindStateCancelled reports the transition to the cancelled state.
	KindStateCancelled Kind = "state_cancelled"
	// KindSwapSuccess reports a completed pool swap of the remaining amount.
	KindSwapSuccess Kind = "swap_success"
	// KindSwapCancel reports a pool swap that was not executed.
	KindSwapCancel Kind = "swap_cancel"
	// KindOrderReject reports a bounced transfer or rejected command.
	KindOrderReject Kind = "order_reject"
	// KindEmergencyEnabled reports an order being frozen by the factory.
	KindEmergencyEnabled Kind = "emergency_enabled"
	// KindEmergencyDisabled reports an order being re-armed by the factory.
	KindEmergencyDisabled Kind = "emergency_disabled"
)

// Event is one lifecycle notification. Amount fields are set where they make
// sense for the kind and nil otherwise.
type Event struct {
	Kind      Kind           `json:"kind"`
	Order     common.Address `json:"order"`
	Root      common.Address `json:"root,omitempty"`
	ID        uint64         `json:"id,omitempty"`
	Account   common.Address `json:"account,omitempty"`
	Spent     *big.Int       `json:"spent,omitempty"`
	Receive   *big.Int       `json:"receive,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	CreatedAt int64          `json:"createdAt"`
}

// Publisher delivers lifecycle events to external consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
