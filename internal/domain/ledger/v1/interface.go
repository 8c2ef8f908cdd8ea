package ledgerv1

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Notification is an asynchronous "incoming transfer" event delivered to a
// registered contract after tokens were credited to its address.
type Notification struct {
	// ID uniquely identifies the triggering transfer. Consumers that must be
	// idempotent per transfer key their deduplication on it.
	ID             string
	Token          common.Address
	Sender         common.Address
	Recipient      common.Address
	Amount         *big.Int
	Payload        []byte
	RemainingGasTo common.Address
}

// NotificationSink consumes transfer notifications for one contract address.
// Delivery order matches transfer order; implementations must not block.
type NotificationSink interface {
	OnTokenTransfer(ctx context.Context, n Notification)
}

// TransferOptions carries the optional parts of a token transfer.
type TransferOptions struct {
	// Notify requests delivery of a Notification to the recipient's sink.
	Notify bool
	// Payload is the opaque routing payload passed along with the notification.
	Payload []byte
	// AttachedValue is native currency moved from sender to recipient together
	// with the tokens.
	AttachedValue *big.Int
	// RemainingGasTo names the account leftover native value is refunded to.
	RemainingGasTo common.Address
	// DeployWalletValue is the native value reserved for deploying the
	// recipient's wallet, carried for compatibility with the wallet standard.
	DeployWalletValue *big.Int
}

// Ledger is the balance ledger the engine settles against. It is an external
// collaborator: the engine only moves balances through it and consumes its
// transfer notifications.
type Ledger interface {
	// Transfer moves amount of token from one account to another and, when
	// requested, notifies the recipient's sink.
	Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int, opts TransferOptions) error
	// TokenBalance returns the current token balance of account.
	TokenBalance(token, account common.Address) *big.Int
	// SendValue moves native currency between accounts.
	SendValue(from, to common.Address, amount *big.Int) error
	// NativeBalance returns the native-currency balance of account.
	NativeBalance(account common.Address) *big.Int
	// RegisterSink attaches a notification sink to a contract address.
	RegisterSink(addr common.Address, sink NotificationSink)
}
