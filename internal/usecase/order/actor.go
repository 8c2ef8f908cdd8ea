package order

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	eventsv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/events/v1"
	journalv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/journal/v1"
	ledgerv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/ledger/v1"
	orderv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/order/v1"
	swapv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/swap/v1"
	"github.com/muhammadchandra19/limit-order-engine/pkg/logger"
)

// Config holds everything an order actor is deployed with.
type Config struct {
	Address   common.Address
	Root      common.Address
	Factory   common.Address
	Params    orderv1.Params
	Ledger    ledgerv1.Ledger
	Pair      swapv1.Pair // nil when no pool exists for the pair
	Publisher eventsv1.Publisher
	Journal   journalv1.Store
	Logger    *logger.Logger
	Options   *Options
}

// Actor owns one limit order: its state machine, accumulated deposits and
// settlement. It consumes an ordered mailbox, one message per atomic turn;
// nothing outside the actor goroutine mutates its state.
type Actor struct {
	address common.Address
	root    common.Address
	factory common.Address
	params  orderv1.Params

	ledger    ledgerv1.Ledger
	pair      swapv1.Pair
	publisher eventsv1.Publisher
	journal   journalv1.Store
	logger    *logger.Logger
	opts      *Options

	mu                 sync.RWMutex
	status             orderv1.Status
	currentReceive     *big.Int
	spentRemaining     *big.Int
	fillers            []orderv1.Filler
	emergencyManager   *big.Int
	statusBeforeFreeze orderv1.Status

	mailbox   chan orderv1.Inbound
	done      chan struct{}
	closeOnce sync.Once
}

// New deploys an order actor in the active state and starts its message loop.
func New(cfg Config) *Actor {
	opts := cfg.Options
	if opts == nil {
		opts = DefaultOptions()
	}

	a := &Actor{
		address:        cfg.Address,
		root:           cfg.Root,
		factory:        cfg.Factory,
		params:         cfg.Params,
		ledger:         cfg.Ledger,
		pair:           cfg.Pair,
		publisher:      cfg.Publisher,
		journal:        cfg.Journal,
		logger:         cfg.Logger.WithFields(logger.NewField("order", cfg.Address.Hex())),
		opts:           opts,
		status:         orderv1.StatusActive,
		currentReceive: new(big.Int),
		spentRemaining: new(big.Int).Set(cfg.Params.SpentAmount),
		mailbox:        make(chan orderv1.Inbound, opts.MailboxSize),
		done:           make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Actor) run() {
	ctx := context.Background()
	for {
		select {
		case <-a.done:
			return
		case msg := <-a.mailbox:
			a.handle(ctx, msg)
		}
	}
}

func (a *Actor) handle(ctx context.Context, msg orderv1.Inbound) {
	switch m := msg.(type) {
	case orderv1.TokenTransfer:
		a.handleTransfer(ctx, m)
	case orderv1.Cancel:
		a.handleCancel(ctx, m)
	case orderv1.Swap:
		a.handleSwap(ctx, m)
	case orderv1.BackendSwap:
		a.handleBackendSwap(ctx, m)
	case orderv1.SetEmergency:
		a.handleSetEmergency(ctx, m)
	case orderv1.ProxyTokensTransfer:
		a.handleProxyTransfer(ctx, m)
	case orderv1.Flush:
		close(m.Done)
	}
}

func (a *Actor) send(msg orderv1.Inbound) error {
	select {
	case <-a.done:
		return orderv1.ErrClosed
	default:
	}
	select {
	case <-a.done:
		return orderv1.ErrClosed
	case a.mailbox <- msg:
		return nil
	}
}

// OnTokenTransfer implements the ledger notification sink: fills and any
// other deposits arrive here after the tokens were credited to the order.
func (a *Actor) OnTokenTransfer(_ context.Context, n ledgerv1.Notification) {
	err := a.send(orderv1.TokenTransfer{
		TransferID:     n.ID,
		Token:          n.Token,
		Sender:         n.Sender,
		Amount:         n.Amount,
		Payload:        n.Payload,
		RemainingGasTo: n.RemainingGasTo,
	})
	if err != nil {
		a.logger.Error(err, logger.NewField("transfer_id", n.ID))
	}
}

// Cancel enqueues an owner cancellation.
func (a *Actor) Cancel(cmd orderv1.Cancel) error {
	return a.send(cmd)
}

// Swap enqueues an owner-initiated pool swap of the remaining spent amount.
func (a *Actor) Swap(cmd orderv1.Swap) error {
	return a.send(cmd)
}

// BackendSwap enqueues a backend-authorized pool swap.
func (a *Actor) BackendSwap(cmd orderv1.BackendSwap) error {
	return a.send(cmd)
}

// SetEmergency enqueues an emergency toggle. Only the factory sends these.
func (a *Actor) SetEmergency(cmd orderv1.SetEmergency) error {
	return a.send(cmd)
}

// ProxyTokensTransfer enqueues an emergency-manager fund extraction.
func (a *Actor) ProxyTokensTransfer(cmd orderv1.ProxyTokensTransfer) error {
	return a.send(cmd)
}

// Flush blocks until every message enqueued before it has been processed.
func (a *Actor) Flush(ctx context.Context) error {
	barrier := orderv1.Flush{Done: make(chan struct{})}
	if err := a.send(barrier); err != nil {
		return err
	}
	select {
	case <-barrier.Done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the message loop. Pending messages are dropped.
func (a *Actor) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
	})
}

// Address returns the order's ledger address.
func (a *Actor) Address() common.Address {
	return a.address
}

// Status returns the current lifecycle state.
func (a *Actor) Status() orderv1.Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// BuildPayload encodes the fill payload counter-parties attach to their
// transfers. Pure and stateless.
func (a *Actor) BuildPayload(p orderv1.FillPayload) ([]byte, error) {
	return orderv1.EncodeFillPayload(p)
}

// Details returns a snapshot of the order's observable state.
func (a *Actor) Details() orderv1.Details {
	a.mu.RLock()
	defer a.mu.RUnlock()

	fillers := make([]orderv1.Filler, len(a.fillers))
	for i, f := range a.fillers {
		fillers[i] = orderv1.Filler{
			Account:            f.Account,
			ReceiveContributed: new(big.Int).Set(f.ReceiveContributed),
			SpentPaid:          new(big.Int).Set(f.SpentPaid),
		}
	}

	return orderv1.Details{
		Address:               a.address,
		Root:                  a.root,
		Factory:               a.factory,
		Owner:                 a.params.Owner,
		SpentToken:            a.params.SpentToken,
		ReceiveToken:          a.params.ReceiveToken,
		SpentAmount:           new(big.Int).Set(a.params.SpentAmount),
		ExpectedReceiveAmount: new(big.Int).Set(a.params.ExpectedReceiveAmount),
		CurrentReceiveAmount:  new(big.Int).Set(a.currentReceive),
		SpentRemaining:        new(big.Int).Set(a.spentRemaining),
		BackendPublicKey:      new(big.Int).Set(orZero(a.params.BackendPublicKey)),
		Status:                a.status,
		Fillers:               fillers,
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
