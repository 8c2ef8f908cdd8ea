package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	ledgerv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/ledger/v1"
	swapv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/swap/v1"
)

var (
	ErrUnknownToken = errors.New("token not traded by this pool")
	ErrDryPool      = errors.New("pool reserves cannot cover the exchange")
)

const feeDenominator = 10_000

// Pair is a quoted-rate pool between two token roots. It implements the AMM
// swap router boundary with a fixed left→right rate; actual pool pricing is
// outside the engine's scope.
type Pair struct {
	mu      sync.Mutex
	address common.Address
	left    common.Address
	right   common.Address

	// one unit of left buys rateNum/rateDen units of right
	rateNum *big.Int
	rateDen *big.Int
	feeBps  int64

	ledger ledgerv1.Ledger
}

// Config holds pool construction parameters.
type Config struct {
	Address common.Address
	Left    common.Address
	Right   common.Address
	RateNum *big.Int
	RateDen *big.Int
	FeeBps  int64
}

// NewPair creates a pool. Reserves must be minted to cfg.Address before the
// pool can pay out.
func NewPair(cfg Config, l ledgerv1.Ledger) (*Pair, error) {
	if cfg.RateNum == nil || cfg.RateNum.Sign() <= 0 || cfg.RateDen == nil || cfg.RateDen.Sign() <= 0 {
		return nil, fmt.Errorf("pool rate must be positive")
	}
	if cfg.FeeBps < 0 || cfg.FeeBps >= feeDenominator {
		return nil, fmt.Errorf("pool fee out of range: %d", cfg.FeeBps)
	}
	return &Pair{
		address: cfg.Address,
		left:    cfg.Left,
		right:   cfg.Right,
		rateNum: cfg.RateNum,
		rateDen: cfg.RateDen,
		feeBps:  cfg.FeeBps,
		ledger:  l,
	}, nil
}

// Address returns the pool's ledger address.
func (p *Pair) Address() common.Address {
	return p.address
}

// Tokens returns the two token roots the pool trades.
func (p *Pair) Tokens() (common.Address, common.Address) {
	return p.left, p.right
}

// ExpectedExchange quotes the proceeds of spending amount of spentToken.
func (p *Pair) ExpectedExchange(_ context.Context, spentToken common.Address, amount *big.Int) (swapv1.Quote, error) {
	if amount == nil || amount.Sign() <= 0 {
		return swapv1.Quote{}, fmt.Errorf("exchange amount must be positive")
	}
	out, fee, err := p.quote(spentToken, amount)
	if err != nil {
		return swapv1.Quote{}, err
	}
	return swapv1.Quote{ExpectedAmount: out, ExpectedFee: fee}, nil
}

// Exchange spends amount of spentToken from the spender account and credits
// the quoted proceeds to recipient.
func (p *Pair) Exchange(ctx context.Context, spentToken common.Address, amount *big.Int, spender, recipient common.Address) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("exchange amount must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	out, _, err := p.quote(spentToken, amount)
	if err != nil {
		return nil, err
	}
	receiveToken := p.other(spentToken)
	if p.ledger.TokenBalance(receiveToken, p.address).Cmp(out) < 0 {
		return nil, ErrDryPool
	}

	if err := p.ledger.Transfer(ctx, spentToken, spender, p.address, amount, ledgerv1.TransferOptions{}); err != nil {
		return nil, err
	}
	if err := p.ledger.Transfer(ctx, receiveToken, p.address, recipient, out, ledgerv1.TransferOptions{}); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pair) quote(spentToken common.Address, amount *big.Int) (out, fee *big.Int, err error) {
	fee = new(big.Int).Div(new(big.Int).Mul(amount, big.NewInt(p.feeBps)), big.NewInt(feeDenominator))
	effective := new(big.Int).Sub(amount, fee)

	switch spentToken {
	case p.left:
		out = new(big.Int).Div(new(big.Int).Mul(effective, p.rateNum), p.rateDen)
	case p.right:
		out = new(big.Int).Div(new(big.Int).Mul(effective, p.rateDen), p.rateNum)
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownToken, spentToken)
	}
	return out, fee, nil
}

func (p *Pair) other(token common.Address) common.Address {
	if token == p.left {
		return p.right
	}
	return p.left
}
