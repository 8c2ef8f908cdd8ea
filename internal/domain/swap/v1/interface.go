package swapv1

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Quote is a pool's answer to "what would I get for spending this amount".
type Quote struct {
	ExpectedAmount *big.Int
	ExpectedFee    *big.Int
}

// Pair is the AMM swap router collaborator: a pool that quotes and performs a
// direct exchange between the two assets it trades. Pool pricing internals
// are outside the engine.
type Pair interface {
	// Address returns the pool's ledger address.
	Address() common.Address
	// Tokens returns the two token roots the pool trades.
	Tokens() (common.Address, common.Address)
	// ExpectedExchange quotes the proceeds of spending amount of spentToken.
	ExpectedExchange(ctx context.Context, spentToken common.Address, amount *big.Int) (Quote, error)
	// Exchange spends amount of spentToken from the spender account and
	// credits the proceeds to recipient. Returns the proceeds.
	Exchange(ctx context.Context, spentToken common.Address, amount *big.Int, spender, recipient common.Address) (*big.Int, error)
}
