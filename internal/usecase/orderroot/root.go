package orderroot

import (
	"context"
	"encoding/binary"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	eventsv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/events/v1"
	journalv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/journal/v1"
	ledgerv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/ledger/v1"
	orderv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/order/v1"
	swapv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/swap/v1"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/order"
	"github.com/muhammadchandra19/limit-order-engine/pkg/logger"
)

// PairSource resolves the routable pool for a token pair. A nil pair means
// no pool exists and deployed orders cannot swap.
type PairSource interface {
	Pair(left, right common.Address) swapv1.Pair
}

// Registry receives every order the root deploys. The factory implements it
// so emergency commands can be addressed to orders by address.
type Registry interface {
	Attach(o *order.Actor)
}

// Config holds everything a root is deployed with.
type Config struct {
	Address    common.Address
	SpentToken common.Address
	Factory    common.Address
	Ledger     ledgerv1.Ledger
	Pairs      PairSource
	Registry   Registry
	Publisher  eventsv1.Publisher
	Journal    journalv1.Store
	Logger     *logger.Logger
	Options    *order.Options
}

// Root deploys one order per valid spent-token deposit. It trades exactly one
// spent token; deposits of anything else bounce.
type Root struct {
	address    common.Address
	spentToken common.Address
	factory    common.Address

	ledger    ledgerv1.Ledger
	pairs     PairSource
	registry  Registry
	publisher eventsv1.Publisher
	journal   journalv1.Store
	logger    *logger.Logger
	opts      *order.Options

	mu     sync.Mutex
	nextID uint64
	seen   map[string]common.Address
	orders map[common.Address]*order.Actor
}

// New deploys a root for one spent token and registers it with the ledger.
func New(cfg Config) *Root {
	r := &Root{
		address:    cfg.Address,
		spentToken: cfg.SpentToken,
		factory:    cfg.Factory,
		ledger:     cfg.Ledger,
		pairs:      cfg.Pairs,
		registry:   cfg.Registry,
		publisher:  cfg.Publisher,
		journal:    cfg.Journal,
		logger:     cfg.Logger.WithFields(logger.NewField("root", cfg.Address.Hex())),
		opts:       cfg.Options,
		seen:       make(map[string]common.Address),
		orders:     make(map[common.Address]*order.Actor),
	}
	cfg.Ledger.RegisterSink(r.address, r)
	return r
}

// Address returns the root's ledger address.
func (r *Root) Address() common.Address {
	return r.address
}

// SpentToken returns the one token this root accepts deposits of.
func (r *Root) SpentToken() common.Address {
	return r.spentToken
}

// BuildPayload encodes the order-creation payload an owner attaches to its
// spent-token deposit. Pure and stateless.
func (r *Root) BuildPayload(p orderv1.RootPayload) ([]byte, error) {
	return orderv1.EncodeRootPayload(p)
}

// Order returns a deployed order by address.
func (r *Root) Order(addr common.Address) (*order.Actor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[addr]
	return o, ok
}

// OnTokenTransfer implements the ledger notification sink. A valid deposit of
// the root's spent token with a well-formed creation payload deploys a new
// order and forwards the deposit to it; anything else bounces to the sender.
// Processing is idempotent per transfer ID.
func (r *Root) OnTokenTransfer(ctx context.Context, n ledgerv1.Notification) {
	defer r.refundGas(n.RemainingGasTo, n.Sender)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, done := r.seen[n.ID]; done {
		return
	}

	if n.Token != r.spentToken {
		r.bounce(ctx, n, orderv1.ErrWrongToken)
		return
	}
	payload, err := orderv1.DecodeRootPayload(n.Payload)
	if err != nil {
		r.bounce(ctx, n, err)
		return
	}
	if n.Amount == nil || n.Amount.Sign() <= 0 {
		r.bounce(ctx, n, orderv1.ErrZeroAmount)
		return
	}
	if payload.ExpectedTokenAmount == nil || payload.ExpectedTokenAmount.Sign() <= 0 {
		r.bounce(ctx, n, orderv1.ErrInvalidPayload)
		return
	}

	id := r.nextID
	r.nextID++
	addr := r.deriveAddress(id, n.Sender, payload.TokenReceive)

	o := order.New(order.Config{
		Address: addr,
		Root:    r.address,
		Factory: r.factory,
		Params: orderv1.Params{
			Owner:                 n.Sender,
			SpentToken:            r.spentToken,
			ReceiveToken:          payload.TokenReceive,
			SpentAmount:           new(big.Int).Set(n.Amount),
			ExpectedReceiveAmount: new(big.Int).Set(payload.ExpectedTokenAmount),
			BackendPublicKey:      payload.BackPK,
			DeployWalletValue:     payload.DeployWalletValue,
		},
		Ledger:    r.ledger,
		Pair:      r.pairs.Pair(r.spentToken, payload.TokenReceive),
		Publisher: r.publisher,
		Journal:   r.journal,
		Logger:    r.logger,
		Options:   r.opts,
	})

	// Move the deposit onto the fresh order before it becomes reachable.
	// No notification: the deposit is the order's own capital, not a fill.
	if err := r.ledger.Transfer(ctx, r.spentToken, r.address, addr, n.Amount, ledgerv1.TransferOptions{}); err != nil {
		r.logger.Error(err, logger.NewField("transfer_id", n.ID))
		o.Close()
		return
	}
	r.ledger.RegisterSink(addr, o)

	r.seen[n.ID] = addr
	r.orders[addr] = o
	if r.registry != nil {
		r.registry.Attach(o)
	}

	r.logger.Info("order deployed",
		logger.NewField("order", addr.Hex()),
		logger.NewField("owner", n.Sender.Hex()),
		logger.NewField("spent_amount", n.Amount.String()),
		logger.NewField("expected_receive", payload.ExpectedTokenAmount.String()),
	)
	r.emit(ctx, eventsv1.Event{
		Kind:    eventsv1.KindCreateOrder,
		Order:   addr,
		ID:      id,
		Account: n.Sender,
		Spent:   new(big.Int).Set(n.Amount),
		Receive: new(big.Int).Set(payload.ExpectedTokenAmount),
	})
}

// deriveAddress computes the deterministic address of the order deployed for
// (root, id, owner, receive token).
func (r *Root) deriveAddress(id uint64, owner, tokenReceive common.Address) common.Address {
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], id)

	h := sha3.NewLegacyKeccak256()
	h.Write(r.address.Bytes())
	h.Write(seq[:])
	h.Write(owner.Bytes())
	h.Write(r.spentToken.Bytes())
	h.Write(tokenReceive.Bytes())
	return common.BytesToAddress(h.Sum(nil)[12:])
}

func (r *Root) bounce(ctx context.Context, n ledgerv1.Notification, reason error) {
	r.logger.Warn("deposit bounced",
		logger.NewField("transfer_id", n.ID),
		logger.NewField("reason", reason.Error()),
	)
	if n.Amount != nil && n.Amount.Sign() > 0 {
		if err := r.ledger.Transfer(ctx, n.Token, r.address, n.Sender, n.Amount, ledgerv1.TransferOptions{}); err != nil {
			r.logger.Error(err, logger.NewField("transfer_id", n.ID))
			return
		}
	}
	r.emit(ctx, eventsv1.Event{
		Kind:    eventsv1.KindOrderReject,
		Account: n.Sender,
		Receive: n.Amount,
		Reason:  reason.Error(),
	})
}

func (r *Root) refundGas(gasTo, fallback common.Address) {
	target := gasTo
	if target == (common.Address{}) {
		target = fallback
	}
	balance := r.ledger.NativeBalance(r.address)
	if balance.Sign() == 0 {
		return
	}
	if err := r.ledger.SendValue(r.address, target, balance); err != nil {
		r.logger.Error(err)
	}
}

func (r *Root) emit(ctx context.Context, ev eventsv1.Event) {
	if r.publisher == nil {
		return
	}
	ev.Root = r.address
	if ev.CreatedAt == 0 {
		ev.CreatedAt = time.Now().Unix()
	}
	if err := r.publisher.Publish(ctx, ev); err != nil {
		r.logger.Error(err, logger.NewField("kind", string(ev.Kind)))
	}
}
