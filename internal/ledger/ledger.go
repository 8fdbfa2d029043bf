package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound occurs when an operation requires a pre-existing
	// account and none exists for the wallet address.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds occurs when a debit exceeds the available balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrStorageUnavailable wraps failures of the underlying durable store.
	// The in-flight atomic unit is aborted entirely; nothing is retried here.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// InsufficientFundsError carries the available balance so callers can surface
// it to the client. It matches ErrInsufficientFunds under errors.Is.
type InsufficientFundsError struct {
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s", e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
// Every mutating call is one atomic unit: the balance change, counter change
// and transaction row commit together or not at all, and concurrent calls for
// the same wallet address are serialized with respect to the balance.
type Ledger interface {
	// GetOrCreateAccount resolves the account for a wallet address, inserting
	// a zero-balance record on first sight. At most one account ever exists
	// per address, even under concurrent first access.
	GetOrCreateAccount(ctx context.Context, walletAddress string) (Account, error)

	// GetAccount looks up an account without creating it.
	GetAccount(ctx context.Context, walletAddress string) (Account, error)

	// Deposit credits the account (creating it if needed), grows
	// total_deposited and appends a completed deposit transaction.
	Deposit(ctx context.Context, walletAddress string, amount decimal.Decimal, txHash string, metadata map[string]string) (Account, Transaction, error)

	// Withdraw debits the gross amount from an existing account, grows
	// total_withdrawn by the net amount and appends a pending withdrawal
	// transaction carrying the fee. Fails with InsufficientFundsError when
	// the balance cannot cover the gross amount.
	Withdraw(ctx context.Context, walletAddress string, amount, fee, netAmount decimal.Decimal, metadata map[string]string) (Account, Transaction, error)

	// Adjust applies a signed correction to an existing account's balance and
	// appends a completed adjustment transaction. The balance may not go
	// below zero.
	Adjust(ctx context.Context, walletAddress string, amount decimal.Decimal, metadata map[string]string) (Account, Transaction, error)

	// RecentTransactions lists up to limit transactions for the account,
	// newest first.
	RecentTransactions(ctx context.Context, userID int64, limit int) ([]Transaction, error)
}
