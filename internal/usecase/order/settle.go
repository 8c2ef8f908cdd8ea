package order

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	eventsv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/events/v1"
	journalv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/journal/v1"
	ledgerv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/ledger/v1"
	orderv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/order/v1"
	"github.com/muhammadchandra19/limit-order-engine/pkg/logger"
)

// handleTransfer processes one incoming receive-token deposit: credit the
// contribution, pay the filler its pro-rata spent share immediately, forward
// the contribution to the owner, and finalize when the target is reached.
// A fill that would overshoot is clipped; the excess goes back to the sender
// in the same turn.
func (a *Actor) handleTransfer(ctx context.Context, msg orderv1.TokenTransfer) {
	defer a.refundGas(msg.RemainingGasTo, msg.Sender)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status == orderv1.StatusEmergency {
		a.bounce(ctx, msg, orderv1.ErrEmergencyLock)
		return
	}
	if a.status != orderv1.StatusActive {
		a.bounce(ctx, msg, orderv1.ErrWrongState)
		return
	}
	if msg.Token != a.params.ReceiveToken {
		a.bounce(ctx, msg, orderv1.ErrWrongToken)
		return
	}
	if msg.Amount == nil || msg.Amount.Sign() <= 0 {
		a.bounce(ctx, msg, orderv1.ErrZeroAmount)
		return
	}
	if _, err := orderv1.DecodeFillPayload(msg.Payload); err != nil {
		a.bounce(ctx, msg, err)
		return
	}

	remaining := new(big.Int).Sub(a.params.ExpectedReceiveAmount, a.currentReceive)
	credited := new(big.Int).Set(msg.Amount)
	if credited.Cmp(remaining) > 0 {
		credited.Set(remaining)
	}
	excess := new(big.Int).Sub(msg.Amount, credited)

	if excess.Sign() > 0 {
		if err := a.ledger.Transfer(ctx, msg.Token, a.address, msg.Sender, excess, ledgerv1.TransferOptions{}); err != nil {
			a.logger.Error(err, logger.NewField("transfer_id", msg.TransferID))
			return
		}
	}

	// The share is computed against the target at the moment the fill is
	// processed; the final fill takes whatever spent balance is left so the
	// rounding remainder cannot strand in the order.
	final := credited.Cmp(remaining) == 0
	var spentShare *big.Int
	if final {
		spentShare = new(big.Int).Set(a.spentRemaining)
	} else {
		spentShare = new(big.Int).Div(
			new(big.Int).Mul(a.params.SpentAmount, credited),
			a.params.ExpectedReceiveAmount,
		)
	}

	if spentShare.Sign() > 0 {
		if err := a.ledger.Transfer(ctx, a.params.SpentToken, a.address, msg.Sender, spentShare, ledgerv1.TransferOptions{}); err != nil {
			a.logger.Error(err, logger.NewField("transfer_id", msg.TransferID))
			return
		}
	}
	if err := a.ledger.Transfer(ctx, a.params.ReceiveToken, a.address, a.params.Owner, credited, ledgerv1.TransferOptions{}); err != nil {
		a.logger.Error(err, logger.NewField("transfer_id", msg.TransferID))
		return
	}

	a.currentReceive.Add(a.currentReceive, credited)
	a.spentRemaining.Sub(a.spentRemaining, spentShare)
	a.fillers = append(a.fillers, orderv1.Filler{
		Account:            msg.Sender,
		ReceiveContributed: credited,
		SpentPaid:          spentShare,
	})

	a.emit(ctx, eventsv1.Event{
		Kind:    eventsv1.KindPartExchange,
		Account: msg.Sender,
		Spent:   spentShare,
		Receive: credited,
	})

	if final {
		a.status = orderv1.StatusFilled
		a.emit(ctx, eventsv1.Event{Kind: eventsv1.KindStateFilled, Account: a.params.Owner})
	}
	a.record()
}

// handleCancel closes an active order. The remaining spent tokens go back to
// the owner; partial exchanges already executed are final.
func (a *Actor) handleCancel(ctx context.Context, msg orderv1.Cancel) {
	a.creditValue(msg.Caller, msg.AttachedValue)
	defer a.refundGas(msg.RemainingGasTo, msg.Caller)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status == orderv1.StatusEmergency {
		a.reject(ctx, orderv1.ErrEmergencyLock)
		return
	}
	if msg.Caller != a.params.Owner && msg.Caller != a.factory {
		a.reject(ctx, orderv1.ErrUnauthorized)
		return
	}
	if a.status != orderv1.StatusActive {
		a.reject(ctx, orderv1.ErrWrongState)
		return
	}

	if a.spentRemaining.Sign() > 0 {
		if err := a.ledger.Transfer(ctx, a.params.SpentToken, a.address, a.params.Owner, a.spentRemaining, ledgerv1.TransferOptions{}); err != nil {
			a.logger.Error(err)
			return
		}
		a.spentRemaining = new(big.Int)
	}

	a.status = orderv1.StatusCancelled
	a.emit(ctx, eventsv1.Event{Kind: eventsv1.KindStateCancelled, Account: a.params.Owner})
	a.record()
}

// handleSwap routes the remaining spent amount through the pool at the quoted
// price on the owner's authority. This is an owner-chosen exit: any shortfall
// against the expected receive amount is accepted and the order still fills.
func (a *Actor) handleSwap(ctx context.Context, msg orderv1.Swap) {
	a.creditValue(msg.Caller, msg.AttachedValue)
	defer a.refundGas(msg.RemainingGasTo, msg.Caller)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status == orderv1.StatusEmergency {
		a.reject(ctx, orderv1.ErrEmergencyLock)
		return
	}
	if msg.Caller != a.params.Owner {
		a.reject(ctx, orderv1.ErrUnauthorized)
		return
	}
	if a.status != orderv1.StatusActive {
		a.reject(ctx, orderv1.ErrWrongState)
		return
	}

	a.executeSwap(ctx, false)
}

// handleBackendSwap is the backend-authorized variant of handleSwap. The
// backend route only commits when the quote covers the full expected amount;
// the shortfall resolution is configured per Options.
func (a *Actor) handleBackendSwap(ctx context.Context, msg orderv1.BackendSwap) {
	defer a.refundGas(msg.RemainingGasTo, a.params.Owner)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status == orderv1.StatusEmergency {
		a.reject(ctx, orderv1.ErrEmergencyLock)
		return
	}
	backPK := orZero(a.params.BackendPublicKey)
	if backPK.Sign() == 0 || msg.CallerKey == nil || msg.CallerKey.Cmp(backPK) != 0 {
		a.reject(ctx, orderv1.ErrUnauthorized)
		return
	}
	if a.status != orderv1.StatusActive {
		a.reject(ctx, orderv1.ErrWrongState)
		return
	}

	a.executeSwap(ctx, true)
}

// executeSwap performs the pool exchange of the remaining spent amount.
// Callers hold the state lock and have verified status and authority.
func (a *Actor) executeSwap(ctx context.Context, backend bool) {
	if a.pair == nil {
		a.reject(ctx, orderv1.ErrNoPool)
		return
	}

	quote, err := a.pair.ExpectedExchange(ctx, a.params.SpentToken, a.spentRemaining)
	if err != nil {
		a.logger.Error(err)
		a.emit(ctx, eventsv1.Event{Kind: eventsv1.KindSwapCancel, Reason: err.Error()})
		return
	}

	if backend && quote.ExpectedAmount.Cmp(a.params.ExpectedReceiveAmount) < 0 {
		switch a.opts.BackendSwapShortfall {
		case ShortfallCancel:
			if err := a.ledger.Transfer(ctx, a.params.SpentToken, a.address, a.params.Owner, a.spentRemaining, ledgerv1.TransferOptions{}); err != nil {
				a.logger.Error(err)
				return
			}
			a.spentRemaining = new(big.Int)
			a.status = orderv1.StatusCancelled
			a.emit(ctx, eventsv1.Event{Kind: eventsv1.KindSwapCancel})
			a.emit(ctx, eventsv1.Event{Kind: eventsv1.KindStateCancelled, Account: a.params.Owner})
			a.record()
		default:
			a.emit(ctx, eventsv1.Event{Kind: eventsv1.KindSwapCancel})
		}
		return
	}

	proceeds, err := a.pair.Exchange(ctx, a.params.SpentToken, a.spentRemaining, a.address, a.params.Owner)
	if err != nil {
		a.logger.Error(err)
		a.emit(ctx, eventsv1.Event{Kind: eventsv1.KindSwapCancel, Reason: err.Error()})
		return
	}

	spent := new(big.Int).Set(a.spentRemaining)
	a.spentRemaining = new(big.Int)
	a.currentReceive.Add(a.currentReceive, proceeds)
	a.status = orderv1.StatusFilled
	a.emit(ctx, eventsv1.Event{
		Kind:    eventsv1.KindSwapSuccess,
		Account: a.params.Owner,
		Spent:   spent,
		Receive: proceeds,
	})
	a.emit(ctx, eventsv1.Event{Kind: eventsv1.KindStateFilled, Account: a.params.Owner})
	a.record()
}

// handleSetEmergency freezes or re-arms the order on the factory's authority.
func (a *Actor) handleSetEmergency(ctx context.Context, msg orderv1.SetEmergency) {
	a.creditValue(msg.Caller, msg.AttachedValue)
	defer a.refundGas(msg.RemainingGasTo, msg.Caller)

	a.mu.Lock()
	defer a.mu.Unlock()

	if msg.Caller != a.factory {
		a.reject(ctx, orderv1.ErrUnauthorized)
		return
	}

	if msg.Enabled {
		if a.status == orderv1.StatusEmergency {
			return // enabling twice must not duplicate state
		}
		if a.status != orderv1.StatusActive {
			a.reject(ctx, orderv1.ErrWrongState)
			return
		}
		a.statusBeforeFreeze = a.status
		a.emergencyManager = orZero(msg.Manager)
		a.status = orderv1.StatusEmergency
		a.emit(ctx, eventsv1.Event{Kind: eventsv1.KindEmergencyEnabled})
		a.record()
		return
	}

	if a.status != orderv1.StatusEmergency {
		return
	}
	a.status = a.statusBeforeFreeze
	a.emergencyManager = nil
	a.emit(ctx, eventsv1.Event{Kind: eventsv1.KindEmergencyDisabled})
	a.record()
}

// handleProxyTransfer moves an arbitrary token balance out of a frozen order
// on the manager's authority, bypassing settlement accounting.
func (a *Actor) handleProxyTransfer(ctx context.Context, msg orderv1.ProxyTokensTransfer) {
	defer a.refundGas(msg.RemainingGasTo, msg.Recipient)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != orderv1.StatusEmergency {
		a.reject(ctx, orderv1.ErrWrongState)
		return
	}
	if a.emergencyManager == nil || msg.CallerKey == nil || msg.CallerKey.Cmp(a.emergencyManager) != 0 {
		a.reject(ctx, orderv1.ErrUnauthorized)
		return
	}

	err := a.ledger.Transfer(ctx, msg.Token, a.address, msg.Recipient, msg.Amount, ledgerv1.TransferOptions{
		Notify:            msg.Notify,
		Payload:           msg.Payload,
		RemainingGasTo:    msg.RemainingGasTo,
		DeployWalletValue: msg.DeployWalletValue,
	})
	if err != nil {
		a.logger.Error(err)
	}
}

// bounce returns an unacceptable deposit to its sender in full. No state changes.
func (a *Actor) bounce(ctx context.Context, msg orderv1.TokenTransfer, reason error) {
	if err := a.ledger.Transfer(ctx, msg.Token, a.address, msg.Sender, msg.Amount, ledgerv1.TransferOptions{}); err != nil {
		a.logger.Error(err, logger.NewField("transfer_id", msg.TransferID))
		return
	}
	a.emit(ctx, eventsv1.Event{
		Kind:    eventsv1.KindOrderReject,
		Account: msg.Sender,
		Receive: msg.Amount,
		Reason:  reason.Error(),
	})
}

// reject records a refused command. Attached gas is refunded by the caller's
// deferred drain.
func (a *Actor) reject(ctx context.Context, reason error) {
	a.logger.Warn("command rejected",
		logger.NewField("reason", reason.Error()),
		logger.NewField("status", a.status.String()),
	)
	a.emit(ctx, eventsv1.Event{Kind: eventsv1.KindOrderReject, Reason: reason.Error()})
}

// creditValue moves a command's attached native value onto the order before
// the turn runs. Transfer notifications carry their value at delivery and
// never pass through here.
func (a *Actor) creditValue(from common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	if err := a.ledger.SendValue(from, a.address, amount); err != nil {
		a.logger.Error(err)
	}
}

// refundGas drains the order's entire native balance to gasTo at the end of
// every turn, keeping the balance at exactly zero at rest.
func (a *Actor) refundGas(gasTo, fallback common.Address) {
	target := gasTo
	if target == (common.Address{}) {
		target = fallback
	}
	balance := a.ledger.NativeBalance(a.address)
	if balance.Sign() == 0 {
		return
	}
	if err := a.ledger.SendValue(a.address, target, balance); err != nil {
		a.logger.Error(err)
	}
}

func (a *Actor) emit(ctx context.Context, ev eventsv1.Event) {
	if a.publisher == nil {
		return
	}
	ev.Order = a.address
	ev.Root = a.root
	if ev.CreatedAt == 0 {
		ev.CreatedAt = time.Now().Unix()
	}
	if err := a.publisher.Publish(ctx, ev); err != nil {
		a.logger.Error(err, logger.NewField("kind", string(ev.Kind)))
	}
}

func (a *Actor) record() {
	if a.journal == nil {
		return
	}
	err := a.journal.Record(a.address, journalv1.Entry{
		Status:         uint8(a.status),
		CurrentReceive: new(big.Int).Set(a.currentReceive),
		SpentRemaining: new(big.Int).Set(a.spentRemaining),
		UpdatedAt:      time.Now().Unix(),
	})
	if err != nil {
		a.logger.Error(err)
	}
}
