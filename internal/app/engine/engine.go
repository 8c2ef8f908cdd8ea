package engine

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	eventsv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/events/v1"
	journalv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/journal/v1"
	ledgerv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/ledger/v1"
	orderv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/order/v1"
	swapv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/swap/v1"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/orderfactory"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/orderroot"
	"github.com/muhammadchandra19/limit-order-engine/pkg/logger"
)

// Engine wires the factory, its roots and the external collaborators into
// one running settlement engine and exposes the lifecycle operations.
type Engine struct {
	ledger    ledgerv1.Ledger
	factory   *orderfactory.Factory
	publisher eventsv1.Publisher
	journal   journalv1.Store
	logger    *logger.Logger
}

// NewEngine creates an engine with the provided dependencies.
func NewEngine(
	ledger ledgerv1.Ledger,
	publisher eventsv1.Publisher,
	journal journalv1.Store,
	log *logger.Logger,
	options *Options,
) *Engine {
	if options == nil {
		options = DefaultEngineOptions()
	}

	factory := orderfactory.New(orderfactory.Config{
		Address:      options.FactoryAddress,
		Owner:        options.FactoryOwner,
		Ledger:       ledger,
		Publisher:    publisher,
		Journal:      journal,
		Logger:       log,
		OrderOptions: options.OrderOptions,
	})

	return &Engine{
		ledger:    ledger,
		factory:   factory,
		publisher: publisher,
		journal:   journal,
		logger:    log,
	}
}

// Ledger returns the balance ledger the engine settles against.
func (e *Engine) Ledger() ledgerv1.Ledger {
	return e.ledger
}

// Factory returns the deployment and emergency authority.
func (e *Engine) Factory() *orderfactory.Factory {
	return e.factory
}

// CreateOrderRoot deploys (or returns) the root trading spentToken.
func (e *Engine) CreateOrderRoot(spentToken common.Address) *orderroot.Root {
	return e.factory.CreateOrderRoot(spentToken)
}

// RegisterPair makes a pool routable for swaps.
func (e *Engine) RegisterPair(p swapv1.Pair) {
	e.factory.RegisterPair(p)
}

// PlaceOrder deposits amount of spentToken from owner into the spent token's
// root with an order-creation payload attached. The deployed order's address
// arrives on the event stream.
func (e *Engine) PlaceOrder(ctx context.Context, owner, spentToken common.Address, amount *big.Int, p orderv1.RootPayload) error {
	ctx = logger.ContextWithRequestID(ctx, "")
	root := e.factory.CreateOrderRoot(spentToken)
	payload, err := root.BuildPayload(p)
	if err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "placing order",
		logger.NewField("owner", owner.Hex()),
		logger.NewField("spent_token", spentToken.Hex()),
		logger.NewField("amount", amount.String()),
	)
	return e.ledger.Transfer(ctx, spentToken, owner, root.Address(), amount, ledgerv1.TransferOptions{
		Notify:         true,
		Payload:        payload,
		RemainingGasTo: owner,
	})
}

// FillOrder deposits amount of the order's receive token from filler with a
// fill payload attached.
func (e *Engine) FillOrder(ctx context.Context, filler, orderAddr common.Address, amount *big.Int, callID uint64) error {
	ctx = logger.ContextWithRequestID(ctx, "")
	o, ok := e.factory.Order(orderAddr)
	if !ok {
		return orderv1.ErrOrderNotFound
	}
	payload, err := o.BuildPayload(orderv1.FillPayload{CallID: callID})
	if err != nil {
		return err
	}
	details := o.Details()
	return e.ledger.Transfer(ctx, details.ReceiveToken, filler, orderAddr, amount, ledgerv1.TransferOptions{
		Notify:         true,
		Payload:        payload,
		RemainingGasTo: filler,
	})
}

// Flush waits for every order mailbox to drain. Tests use it in place of
// sleeping on asynchronous settlement.
func (e *Engine) Flush(ctx context.Context) error {
	return e.factory.Flush(ctx)
}

// Stop shuts down every order mailbox.
func (e *Engine) Stop() {
	e.factory.Close()
	e.logger.Info("engine stopped")
}
