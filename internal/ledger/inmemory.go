package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type inMemoryLedger struct {
	mu            sync.Mutex
	accounts      map[string]*Account
	transactions  map[int64][]Transaction
	nextAccountID int64
	nextTxID      int64
}

// NewInMemory creates a concurrency-safe in-memory ledger used by unit tests
// and by development mode when no database is configured. A single mutex
// serializes all mutations, giving the same atomicity guarantees as the
// Postgres backend.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		accounts:     make(map[string]*Account),
		transactions: make(map[int64][]Transaction),
	}
}

func (l *inMemoryLedger) GetOrCreateAccount(_ context.Context, walletAddress string) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.resolve(walletAddress), nil
}

func (l *inMemoryLedger) GetAccount(_ context.Context, walletAddress string) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	account, ok := l.accounts[walletAddress]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return *account, nil
}

func (l *inMemoryLedger) Deposit(_ context.Context, walletAddress string, amount decimal.Decimal, txHash string, metadata map[string]string) (Account, Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account := l.resolve(walletAddress)
	account.Balance = account.Balance.Add(amount)
	account.TotalDeposited = account.TotalDeposited.Add(amount)
	account.UpdatedAt = time.Now().UTC()

	entry := l.append(Transaction{
		UserID:        account.ID,
		Type:          TypeDeposit,
		Amount:        amount,
		Fee:           decimal.Zero,
		Status:        StatusCompleted,
		WalletAddress: walletAddress,
		TxHash:        txHash,
		Metadata:      metadata,
	})
	return *account, entry, nil
}

func (l *inMemoryLedger) Withdraw(_ context.Context, walletAddress string, amount, fee, netAmount decimal.Decimal, metadata map[string]string) (Account, Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[walletAddress]
	if !ok {
		return Account{}, Transaction{}, ErrAccountNotFound
	}
	if account.Balance.LessThan(amount) {
		return Account{}, Transaction{}, &InsufficientFundsError{Available: account.Balance}
	}

	account.Balance = account.Balance.Sub(amount)
	account.TotalWithdrawn = account.TotalWithdrawn.Add(netAmount)
	account.UpdatedAt = time.Now().UTC()

	entry := l.append(Transaction{
		UserID:        account.ID,
		Type:          TypeWithdrawal,
		Amount:        amount,
		Fee:           fee,
		Status:        StatusPending,
		WalletAddress: walletAddress,
		Metadata:      metadata,
	})
	return *account, entry, nil
}

func (l *inMemoryLedger) Adjust(_ context.Context, walletAddress string, amount decimal.Decimal, metadata map[string]string) (Account, Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[walletAddress]
	if !ok {
		return Account{}, Transaction{}, ErrAccountNotFound
	}
	if account.Balance.Add(amount).IsNegative() {
		return Account{}, Transaction{}, &InsufficientFundsError{Available: account.Balance}
	}

	account.Balance = account.Balance.Add(amount)
	account.UpdatedAt = time.Now().UTC()

	entry := l.append(Transaction{
		UserID:        account.ID,
		Type:          TypeAdjustment,
		Amount:        amount,
		Fee:           decimal.Zero,
		Status:        StatusCompleted,
		WalletAddress: walletAddress,
		Metadata:      metadata,
	})
	return *account, entry, nil
}

func (l *inMemoryLedger) RecentTransactions(_ context.Context, userID int64, limit int) ([]Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.transactions[userID]
	if limit > len(history) {
		limit = len(history)
	}

	// History is stored in insertion order; return the newest entries first.
	result := make([]Transaction, 0, limit)
	for i := len(history) - 1; i >= len(history)-limit; i-- {
		result = append(result, history[i])
	}
	return result, nil
}

// resolve returns the account for the wallet address, creating a zero-balance
// record on first sight. Callers must hold the mutex.
func (l *inMemoryLedger) resolve(walletAddress string) *Account {
	if account, ok := l.accounts[walletAddress]; ok {
		return account
	}
	l.nextAccountID++
	now := time.Now().UTC()
	account := &Account{
		ID:             l.nextAccountID,
		WalletAddress:  walletAddress,
		Balance:        decimal.Zero,
		TotalDeposited: decimal.Zero,
		TotalWithdrawn: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	l.accounts[walletAddress] = account
	return account
}

// append assigns the next transaction id and records the entry. Callers must
// hold the mutex.
func (l *inMemoryLedger) append(t Transaction) Transaction {
	l.nextTxID++
	t.ID = l.nextTxID
	t.CreatedAt = time.Now().UTC()
	l.transactions[t.UserID] = append(l.transactions[t.UserID], t)
	return t
}
