package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/oklog/ulid/v2"

	ledgerv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/ledger/v1"
	"github.com/muhammadchandra19/limit-order-engine/pkg/logger"
)

var (
	ErrInsufficientTokens = errors.New("insufficient token balance")
	ErrInsufficientValue  = errors.New("insufficient native balance")
	ErrInvalidAmount      = errors.New("amount must be positive")
)

// Ledger is an in-memory balance ledger with asynchronous transfer
// notifications. It stands in for the platform's token wallets and
// native-currency accounting at the engine boundary.
type Ledger struct {
	mu     sync.Mutex
	tokens map[common.Address]map[common.Address]*big.Int
	native map[common.Address]*big.Int
	sinks  map[common.Address]ledgerv1.NotificationSink
	logger *logger.Logger
}

// NewLedger creates an empty ledger.
func NewLedger(log *logger.Logger) *Ledger {
	return &Ledger{
		tokens: make(map[common.Address]map[common.Address]*big.Int),
		native: make(map[common.Address]*big.Int),
		sinks:  make(map[common.Address]ledgerv1.NotificationSink),
		logger: log,
	}
}

// RegisterSink attaches a notification sink to a contract address.
func (l *Ledger) RegisterSink(addr common.Address, sink ledgerv1.NotificationSink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks[addr] = sink
}

// Mint credits amount of token to an account out of thin air.
func (l *Ledger) Mint(token, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(token, to, amount)
	return nil
}

// Fund credits native currency to an account.
func (l *Ledger) Fund(account common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.creditNative(account, amount)
	return nil
}

// Transfer moves amount of token between accounts. Attached native value
// moves with it. When opts.Notify is set and the recipient has a registered
// sink, a notification is delivered after the balances settle; notifications
// from one sender preserve its transfer order.
func (l *Ledger) Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int, opts ledgerv1.TransferOptions) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	balance := l.balanceLocked(token, from)
	if balance.Cmp(amount) < 0 {
		l.mu.Unlock()
		return fmt.Errorf("%w: token %s account %s has %s, needs %s",
			ErrInsufficientTokens, token, from, balance, amount)
	}
	attached := opts.AttachedValue
	if attached != nil && attached.Sign() > 0 {
		if l.nativeLocked(from).Cmp(attached) < 0 {
			l.mu.Unlock()
			return fmt.Errorf("%w: account %s", ErrInsufficientValue, from)
		}
	}

	l.debit(token, from, amount)
	l.credit(token, to, amount)
	if attached != nil && attached.Sign() > 0 {
		l.debitNative(from, attached)
		l.creditNative(to, attached)
	}

	var sink ledgerv1.NotificationSink
	var notification ledgerv1.Notification
	if opts.Notify {
		if s, ok := l.sinks[to]; ok {
			sink = s
			notification = ledgerv1.Notification{
				ID:             ulid.Make().String(),
				Token:          token,
				Sender:         from,
				Recipient:      to,
				Amount:         new(big.Int).Set(amount),
				Payload:        opts.Payload,
				RemainingGasTo: opts.RemainingGasTo,
			}
		}
	}
	l.mu.Unlock()

	// Dispatch outside the lock: sinks may trigger further transfers.
	if sink != nil {
		sink.OnTokenTransfer(ctx, notification)
	}
	return nil
}

// SendValue moves native currency between accounts.
func (l *Ledger) SendValue(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.nativeLocked(from).Cmp(amount) < 0 {
		return fmt.Errorf("%w: account %s", ErrInsufficientValue, from)
	}
	l.debitNative(from, amount)
	l.creditNative(to, amount)
	return nil
}

// TokenBalance returns the current token balance of account.
func (l *Ledger) TokenBalance(token, account common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balanceLocked(token, account))
}

// NativeBalance returns the native-currency balance of account.
func (l *Ledger) NativeBalance(account common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.nativeLocked(account))
}

func (l *Ledger) balanceLocked(token, account common.Address) *big.Int {
	accounts, ok := l.tokens[token]
	if !ok {
		return new(big.Int)
	}
	balance, ok := accounts[account]
	if !ok {
		return new(big.Int)
	}
	return balance
}

func (l *Ledger) nativeLocked(account common.Address) *big.Int {
	balance, ok := l.native[account]
	if !ok {
		return new(big.Int)
	}
	return balance
}

func (l *Ledger) credit(token, account common.Address, amount *big.Int) {
	accounts, ok := l.tokens[token]
	if !ok {
		accounts = make(map[common.Address]*big.Int)
		l.tokens[token] = accounts
	}
	balance, ok := accounts[account]
	if !ok {
		balance = new(big.Int)
		accounts[account] = balance
	}
	balance.Add(balance, amount)
}

func (l *Ledger) debit(token, account common.Address, amount *big.Int) {
	balance := l.tokens[token][account]
	balance.Sub(balance, amount)
}

func (l *Ledger) creditNative(account common.Address, amount *big.Int) {
	balance, ok := l.native[account]
	if !ok {
		balance = new(big.Int)
		l.native[account] = balance
	}
	balance.Add(balance, amount)
}

func (l *Ledger) debitNative(account common.Address, amount *big.Int) {
	balance := l.native[account]
	balance.Sub(balance, amount)
}
