package orderfactory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventsv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/events/v1"
	ledgerv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/ledger/v1"
	orderv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/order/v1"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/events"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/ledger"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/swap"
	"github.com/muhammadchandra19/limit-order-engine/pkg/logger"
)

var (
	tokenBAR     = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	tokenTST     = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	tokenFOO     = common.HexToAddress("0x00000000000000000000000000000000000000b3")
	poolAddr     = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	factoryAddr  = common.HexToAddress("0x00000000000000000000000000000000000000d3")
	factoryOwner = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	trader       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

type factoryFixture struct {
	ledger  *ledger.Ledger
	events  *events.Recorder
	factory *Factory
}

func newFactoryFixture(t *testing.T) *factoryFixture {
	t.Helper()
	log, err := logger.NewLogger()
	require.NoError(t, err)

	l := ledger.NewLedger(log)
	rec := &events.Recorder{}
	f := New(Config{
		Address:   factoryAddr,
		Owner:     factoryOwner,
		Ledger:    l,
		Publisher: rec,
		Logger:    log,
	})
	t.Cleanup(f.Close)
	return &factoryFixture{ledger: l, events: rec, factory: f}
}

// placeOrder deposits into the spent token's root and returns the deployed order address.
func (f *factoryFixture) placeOrder(t *testing.T, spentAmount, expectedAmount int64) common.Address {
	t.Helper()
	ctx := context.Background()

	root := f.factory.CreateOrderRoot(tokenBAR)
	payload, err := root.BuildPayload(orderv1.RootPayload{
		TokenReceive:        tokenTST,
		ExpectedTokenAmount: big.NewInt(expectedAmount),
	})
	require.NoError(t, err)

	require.NoError(t, f.ledger.Mint(tokenBAR, trader, big.NewInt(spentAmount)))
	before := len(f.events.ByKind(eventsv1.KindCreateOrder))
	require.NoError(t, f.ledger.Transfer(ctx, tokenBAR, trader, root.Address(), big.NewInt(spentAmount), ledgerv1.TransferOptions{
		Notify:         true,
		Payload:        payload,
		RemainingGasTo: trader,
	}))

	created := f.events.ByKind(eventsv1.KindCreateOrder)
	require.Len(t, created, before+1)
	return created[before].Order
}

// Test 1: One root per spent token, idempotently
func TestFactory_CreateOrderRoot(t *testing.T) {
	f := newFactoryFixture(t)

	r1 := f.factory.CreateOrderRoot(tokenBAR)
	r2 := f.factory.CreateOrderRoot(tokenBAR)
	r3 := f.factory.CreateOrderRoot(tokenTST)

	assert.Same(t, r1, r2)
	assert.NotSame(t, r1, r3)
	assert.NotEqual(t, r1.Address(), r3.Address())

	got, ok := f.factory.Root(tokenBAR)
	require.True(t, ok)
	assert.Same(t, r1, got)

	_, ok = f.factory.Root(tokenFOO)
	assert.False(t, ok)
}

// Test 2: Pair resolution works in both orientations
func TestFactory_PairResolution(t *testing.T) {
	f := newFactoryFixture(t)

	p, err := swap.NewPair(swap.Config{
		Address: poolAddr,
		Left:    tokenBAR,
		Right:   tokenTST,
		RateNum: big.NewInt(1),
		RateDen: big.NewInt(1),
	}, f.ledger)
	require.NoError(t, err)
	f.factory.RegisterPair(p)

	assert.NotNil(t, f.factory.Pair(tokenBAR, tokenTST))
	assert.NotNil(t, f.factory.Pair(tokenTST, tokenBAR))
	assert.Nil(t, f.factory.Pair(tokenBAR, tokenFOO))
}

// Test 3: Orders deployed through a root are registered with the factory
func TestFactory_OrderRegistry(t *testing.T) {
	f := newFactoryFixture(t)

	orderAddr := f.placeOrder(t, 10, 20)
	o, ok := f.factory.Order(orderAddr)
	require.True(t, ok)
	assert.Equal(t, orderAddr, o.Address())

	_, ok = f.factory.Order(poolAddr)
	assert.False(t, ok)
}

// Test 4: SetEmergency is owner-gated and requires a known order
func TestFactory_SetEmergency(t *testing.T) {
	f := newFactoryFixture(t)
	ctx := context.Background()

	orderAddr := f.placeOrder(t, 10, 20)

	err := f.factory.SetEmergency(trader, orderAddr, true, big.NewInt(999), trader)
	assert.True(t, errors.Is(err, orderv1.ErrUnauthorized))

	err = f.factory.SetEmergency(factoryOwner, poolAddr, true, big.NewInt(999), trader)
	assert.True(t, errors.Is(err, orderv1.ErrOrderNotFound))

	require.NoError(t, f.factory.SetEmergency(factoryOwner, orderAddr, true, big.NewInt(999), trader))
	require.NoError(t, f.factory.Flush(ctx))

	o, ok := f.factory.Order(orderAddr)
	require.True(t, ok)
	assert.Equal(t, orderv1.StatusEmergency, o.Status())

	require.NoError(t, f.factory.SetEmergency(factoryOwner, orderAddr, false, nil, trader))
	require.NoError(t, f.factory.Flush(ctx))
	assert.Equal(t, orderv1.StatusActive, o.Status())
}

// Test 5: The factory owner can cancel any registered order
func TestFactory_CancelOrder(t *testing.T) {
	f := newFactoryFixture(t)
	ctx := context.Background()

	orderAddr := f.placeOrder(t, 10, 20)

	err := f.factory.CancelOrder(trader, orderAddr, trader)
	assert.True(t, errors.Is(err, orderv1.ErrUnauthorized))

	require.NoError(t, f.factory.CancelOrder(factoryOwner, orderAddr, trader))
	require.NoError(t, f.factory.Flush(ctx))

	o, _ := f.factory.Order(orderAddr)
	assert.Equal(t, orderv1.StatusCancelled, o.Status())
	// the deposit went back to the order's owner
	assert.Zero(t, f.ledger.TokenBalance(tokenBAR, trader).Cmp(big.NewInt(10)))
}
