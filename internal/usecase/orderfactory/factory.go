package orderfactory

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	eventsv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/events/v1"
	journalv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/journal/v1"
	ledgerv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/ledger/v1"
	orderv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/order/v1"
	swapv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/swap/v1"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/order"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/orderroot"
	"github.com/muhammadchandra19/limit-order-engine/pkg/logger"
)

// Config holds everything the factory is deployed with.
type Config struct {
	Address      common.Address
	Owner        common.Address
	Ledger       ledgerv1.Ledger
	Publisher    eventsv1.Publisher
	Journal      journalv1.Store
	Logger       *logger.Logger
	OrderOptions *order.Options
}

// Factory is the deployment and emergency authority. It deploys one root per
// spent token, keeps the registry of every order those roots deploy, and is
// the only caller allowed to freeze or re-arm an order.
type Factory struct {
	address common.Address
	owner   common.Address

	ledger    ledgerv1.Ledger
	publisher eventsv1.Publisher
	journal   journalv1.Store
	logger    *logger.Logger
	orderOpts *order.Options

	mu     sync.Mutex
	roots  map[common.Address]*orderroot.Root // keyed by spent token
	orders map[common.Address]*order.Actor
	pairs  []swapv1.Pair
}

// New creates the factory. Its owner holds the emergency authority.
func New(cfg Config) *Factory {
	return &Factory{
		address:   cfg.Address,
		owner:     cfg.Owner,
		ledger:    cfg.Ledger,
		publisher: cfg.Publisher,
		journal:   cfg.Journal,
		logger:    cfg.Logger.WithFields(logger.NewField("factory", cfg.Address.Hex())),
		orderOpts: cfg.OrderOptions,
		roots:     make(map[common.Address]*orderroot.Root),
		orders:    make(map[common.Address]*order.Actor),
	}
}

// Address returns the factory's ledger address.
func (f *Factory) Address() common.Address {
	return f.address
}

// Owner returns the account holding the emergency authority.
func (f *Factory) Owner() common.Address {
	return f.owner
}

// CreateOrderRoot deploys the root trading spentToken. Creating the same root
// twice returns the existing one.
func (f *Factory) CreateOrderRoot(spentToken common.Address) *orderroot.Root {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r, ok := f.roots[spentToken]; ok {
		return r
	}

	r := orderroot.New(orderroot.Config{
		Address:    f.deriveRootAddress(spentToken),
		SpentToken: spentToken,
		Factory:    f.address,
		Ledger:     f.ledger,
		Pairs:      f,
		Registry:   f,
		Publisher:  f.publisher,
		Journal:    f.journal,
		Logger:     f.logger,
		Options:    f.orderOpts,
	})
	f.roots[spentToken] = r
	f.logger.Info("order root deployed",
		logger.NewField("root", r.Address().Hex()),
		logger.NewField("spent_token", spentToken.Hex()),
	)
	return r
}

// Root returns the deployed root for spentToken.
func (f *Factory) Root(spentToken common.Address) (*orderroot.Root, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roots[spentToken]
	return r, ok
}

// RegisterPair makes a pool routable for the pair of tokens it trades.
func (f *Factory) RegisterPair(p swapv1.Pair) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs = append(f.pairs, p)
}

// Pair resolves the routable pool for (left, right) in either orientation.
// Nil when no pool trades the pair.
func (f *Factory) Pair(left, right common.Address) swapv1.Pair {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pairs {
		a, b := p.Tokens()
		if (a == left && b == right) || (a == right && b == left) {
			return p
		}
	}
	return nil
}

// Attach records an order deployed by one of the factory's roots.
func (f *Factory) Attach(o *order.Actor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.Address()] = o
}

// Order returns a registered order by address.
func (f *Factory) Order(addr common.Address) (*order.Actor, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[addr]
	return o, ok
}

// SetEmergency freezes (enabled) or re-arms (disabled) one order. Only the
// factory owner may call it; manager names the key that will be allowed to
// move the frozen order's funds.
func (f *Factory) SetEmergency(caller common.Address, orderAddr common.Address, enabled bool, manager *big.Int, remainingGasTo common.Address) error {
	if caller != f.owner {
		return fmt.Errorf("%w: %s is not the factory owner", orderv1.ErrUnauthorized, caller)
	}

	f.mu.Lock()
	o, ok := f.orders[orderAddr]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", orderv1.ErrOrderNotFound, orderAddr)
	}

	return o.SetEmergency(orderv1.SetEmergency{
		Caller:         f.address,
		Enabled:        enabled,
		Manager:        manager,
		RemainingGasTo: remainingGasTo,
	})
}

// CancelOrder cancels one order on the factory owner's authority.
func (f *Factory) CancelOrder(caller common.Address, orderAddr common.Address, remainingGasTo common.Address) error {
	if caller != f.owner {
		return fmt.Errorf("%w: %s is not the factory owner", orderv1.ErrUnauthorized, caller)
	}

	f.mu.Lock()
	o, ok := f.orders[orderAddr]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", orderv1.ErrOrderNotFound, orderAddr)
	}

	return o.Cancel(orderv1.Cancel{
		Caller:         f.address,
		RemainingGasTo: remainingGasTo,
	})
}

// Flush waits for every registered order to drain its mailbox.
func (f *Factory) Flush(ctx context.Context) error {
	f.mu.Lock()
	orders := make([]*order.Actor, 0, len(f.orders))
	for _, o := range f.orders {
		orders = append(orders, o)
	}
	f.mu.Unlock()

	for _, o := range orders {
		if err := o.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down every registered order's mailbox.
func (f *Factory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		o.Close()
	}
}

func (f *Factory) deriveRootAddress(spentToken common.Address) common.Address {
	h := sha3.NewLegacyKeccak256()
	h.Write(f.address.Bytes())
	h.Write([]byte("order-root"))
	h.Write(spentToken.Bytes())
	return common.BytesToAddress(h.Sum(nil)[12:])
}
