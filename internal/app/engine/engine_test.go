package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventsv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/events/v1"
	orderv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/order/v1"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/events"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/ledger"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/swap"
	"github.com/muhammadchandra19/limit-order-engine/pkg/logger"
)

var (
	tokenBAR = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	tokenTST = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	poolAddr = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob      = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	carol    = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	recovery = common.HexToAddress("0x00000000000000000000000000000000000000a4")
)

type engineFixture struct {
	engine *Engine
	ledger *ledger.Ledger
	events *events.Recorder
	owner  common.Address
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	log, err := logger.NewLogger()
	require.NoError(t, err)

	l := ledger.NewLedger(log)
	rec := &events.Recorder{}
	opts := DefaultEngineOptions()

	e := NewEngine(l, rec, nil, log, opts)
	t.Cleanup(e.Stop)

	return &engineFixture{engine: e, ledger: l, events: rec, owner: opts.FactoryOwner}
}

// placeOrder lets account sell spent BAR for an expected amount of TST and
// returns the deployed order's address, learned from the event stream.
func (f *engineFixture) placeOrder(t *testing.T, account common.Address, spent, expected int64) common.Address {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.ledger.Mint(tokenBAR, account, big.NewInt(spent)))
	before := len(f.events.ByKind(eventsv1.KindCreateOrder))

	err := f.engine.PlaceOrder(ctx, account, tokenBAR, big.NewInt(spent), orderv1.RootPayload{
		TokenReceive:        tokenTST,
		ExpectedTokenAmount: big.NewInt(expected),
	})
	require.NoError(t, err)

	created := f.events.ByKind(eventsv1.KindCreateOrder)
	require.Len(t, created, before+1)
	return created[before].Order
}

func (f *engineFixture) fill(t *testing.T, filler, orderAddr common.Address, amount int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.ledger.Mint(tokenTST, filler, big.NewInt(amount)))
	require.NoError(t, f.engine.FillOrder(ctx, filler, orderAddr, big.NewInt(amount), 1))
	require.NoError(t, f.engine.Flush(ctx))
}

func (f *engineFixture) status(t *testing.T, orderAddr common.Address) orderv1.Status {
	t.Helper()
	o, ok := f.engine.Factory().Order(orderAddr)
	require.True(t, ok)
	return o.Status()
}

func (f *engineFixture) balance(token, account common.Address) int64 {
	return f.ledger.TokenBalance(token, account).Int64()
}

// Test 1: Full lifecycle, two fillers splitting the order evenly
func TestEngine_FullLifecycle(t *testing.T) {
	f := newEngineFixture(t)

	orderAddr := f.placeOrder(t, alice, 10, 20)
	f.fill(t, bob, orderAddr, 10)
	f.fill(t, carol, orderAddr, 10)

	assert.Equal(t, orderv1.StatusFilled, f.status(t, orderAddr))
	assert.EqualValues(t, 5, f.balance(tokenBAR, bob))
	assert.EqualValues(t, 5, f.balance(tokenBAR, carol))
	assert.EqualValues(t, 20, f.balance(tokenTST, alice))

	// conservation: nothing stranded on the order or the root
	assert.Zero(t, f.balance(tokenBAR, orderAddr))
	assert.Zero(t, f.balance(tokenTST, orderAddr))
	root, ok := f.engine.Factory().Root(tokenBAR)
	require.True(t, ok)
	assert.Zero(t, f.balance(tokenBAR, root.Address()))
}

// Test 2: Cancel before any fill returns the full deposit
func TestEngine_CancelBeforeFill(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	orderAddr := f.placeOrder(t, alice, 10, 20)
	o, ok := f.engine.Factory().Order(orderAddr)
	require.True(t, ok)

	require.NoError(t, o.Cancel(orderv1.Cancel{Caller: alice, RemainingGasTo: alice}))
	require.NoError(t, f.engine.Flush(ctx))

	assert.Equal(t, orderv1.StatusCancelled, f.status(t, orderAddr))
	assert.EqualValues(t, 10, f.balance(tokenBAR, alice))
}

// Test 3: Partial fill then cancel; the partial exchange is final
func TestEngine_PartialThenCancel(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	orderAddr := f.placeOrder(t, alice, 10, 20)
	f.fill(t, bob, orderAddr, 10)

	o, _ := f.engine.Factory().Order(orderAddr)
	require.NoError(t, o.Cancel(orderv1.Cancel{Caller: alice, RemainingGasTo: alice}))
	require.NoError(t, f.engine.Flush(ctx))

	assert.Equal(t, orderv1.StatusCancelled, f.status(t, orderAddr))
	assert.EqualValues(t, 10, f.balance(tokenTST, alice))
	assert.EqualValues(t, 5, f.balance(tokenBAR, alice))
	assert.EqualValues(t, 5, f.balance(tokenBAR, bob))
}

// Test 4: A fill crossing the target is clipped to the exact remainder
func TestEngine_OverfillClipped(t *testing.T) {
	f := newEngineFixture(t)

	orderAddr := f.placeOrder(t, alice, 10, 20)
	f.fill(t, bob, orderAddr, 15)
	f.fill(t, carol, orderAddr, 15)

	assert.Equal(t, orderv1.StatusFilled, f.status(t, orderAddr))
	assert.EqualValues(t, 10, f.balance(tokenTST, carol)) // clipped excess returned
	assert.EqualValues(t, 20, f.balance(tokenTST, alice))

	// 15/20 and 5/20 of the 10 BAR deposit
	assert.EqualValues(t, 7, f.balance(tokenBAR, bob))
	assert.EqualValues(t, 3, f.balance(tokenBAR, carol))
}

// Test 5: Emergency freeze, manager recovery, unfreeze
func TestEngine_EmergencyRecovery(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	managerKey := big.NewInt(999)

	orderAddr := f.placeOrder(t, alice, 10, 20)
	factory := f.engine.Factory()

	require.NoError(t, factory.SetEmergency(f.owner, orderAddr, true, managerKey, f.owner))
	require.NoError(t, f.engine.Flush(ctx))
	assert.Equal(t, orderv1.StatusEmergency, f.status(t, orderAddr))

	// fills bounce while frozen
	f.fill(t, bob, orderAddr, 10)
	assert.EqualValues(t, 10, f.balance(tokenTST, bob))

	// the manager key moves the deposit out
	o, _ := factory.Order(orderAddr)
	require.NoError(t, o.ProxyTokensTransfer(orderv1.ProxyTokensTransfer{
		CallerKey: managerKey,
		Token:     tokenBAR,
		Amount:    big.NewInt(10),
		Recipient: recovery,
	}))
	require.NoError(t, f.engine.Flush(ctx))
	assert.EqualValues(t, 10, f.balance(tokenBAR, recovery))

	require.NoError(t, factory.SetEmergency(f.owner, orderAddr, false, nil, f.owner))
	require.NoError(t, f.engine.Flush(ctx))
	assert.Equal(t, orderv1.StatusActive, f.status(t, orderAddr))
}

// Test 6: Owner routes the remainder through a registered pool
func TestEngine_SwapRemainder(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	p, err := swap.NewPair(swap.Config{
		Address: poolAddr,
		Left:    tokenBAR,
		Right:   tokenTST,
		RateNum: big.NewInt(2),
		RateDen: big.NewInt(1),
	}, f.ledger)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Mint(tokenTST, poolAddr, big.NewInt(100)))
	f.engine.RegisterPair(p)

	orderAddr := f.placeOrder(t, alice, 10, 20)
	f.fill(t, bob, orderAddr, 10)

	o, _ := f.engine.Factory().Order(orderAddr)
	require.NoError(t, o.Swap(orderv1.Swap{Caller: alice, RemainingGasTo: alice}))
	require.NoError(t, f.engine.Flush(ctx))

	assert.Equal(t, orderv1.StatusFilled, f.status(t, orderAddr))
	assert.EqualValues(t, 20, f.balance(tokenTST, alice))
	assert.Zero(t, f.balance(tokenBAR, orderAddr))
}

// Test 7: Filling an unknown order fails cleanly
func TestEngine_FillUnknownOrder(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	err := f.engine.FillOrder(ctx, bob, recovery, big.NewInt(10), 1)
	assert.ErrorIs(t, err, orderv1.ErrOrderNotFound)
}

// Test 8: Native balances on engine contracts are zero at rest
func TestEngine_NoStrandedNativeValue(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.Fund(alice, big.NewInt(5)))
	require.NoError(t, f.ledger.Fund(bob, big.NewInt(5)))

	orderAddr := f.placeOrder(t, alice, 10, 20)
	f.fill(t, bob, orderAddr, 20)
	require.NoError(t, f.engine.Flush(ctx))

	root, ok := f.engine.Factory().Root(tokenBAR)
	require.True(t, ok)
	assert.Zero(t, f.ledger.NativeBalance(orderAddr).Sign())
	assert.Zero(t, f.ledger.NativeBalance(root.Address()).Sign())
	assert.Zero(t, f.ledger.NativeBalance(f.engine.Factory().Address()).Sign())
}
