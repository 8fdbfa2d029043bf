package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ton-vault/ton_vault/internal/inventory"
	"github.com/ton-vault/ton_vault/internal/ledger"
	"github.com/ton-vault/ton_vault/internal/notification"
)

var (
	// ErrInvalidRequest occurs when the wallet address is missing or the
	// amount is not positive.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrBelowMinimum occurs when a withdrawal is under the policy floor.
	ErrBelowMinimum = errors.New("amount below minimum withdrawal")
)

// BelowMinimumError carries the policy floor for client display. It matches
// ErrBelowMinimum under errors.Is.
type BelowMinimumError struct {
	Minimum decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("minimum withdrawal is %s", e.Minimum)
}

func (e *BelowMinimumError) Is(target error) bool {
	return target == ErrBelowMinimum
}

// Policy captures the withdrawal business rules.
type Policy struct {
	MinWithdraw  decimal.Decimal
	FeeRate      decimal.Decimal
	HistoryLimit int
}

// Service exposes the custodial ledger operations: deposits, withdrawals,
// balance adjustments and the account view. All validation happens here,
// before any mutation; the atomic balance+transaction unit is delegated to
// the ledger backend.
type Service struct {
	ledger    ledger.Ledger
	inventory inventory.Repository
	notifier  notification.Notifier
	policy    Policy
}

// NewService builds a wallet service instance.
func NewService(ledgerBackend ledger.Ledger, items inventory.Repository, notifier notification.Notifier, policy Policy) *Service {
	if policy.HistoryLimit <= 0 {
		policy.HistoryLimit = 50
	}
	return &Service{ledger: ledgerBackend, inventory: items, notifier: notifier, policy: policy}
}

// DepositInput captures a confirmed on-chain deposit.
type DepositInput struct {
	WalletAddress string
	Amount        decimal.Decimal
	TxHash        string
}

// DepositResult reports the credited balance.
type DepositResult struct {
	Balance   decimal.Decimal
	Deposited decimal.Decimal
}

// Deposit credits the wallet's account, creating it on first sight. Once the
// input validates there is no failure path besides storage errors.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (DepositResult, error) {
	if input.WalletAddress == "" || !input.Amount.IsPositive() {
		return DepositResult{}, ErrInvalidRequest
	}

	account, _, err := s.ledger.Deposit(ctx, input.WalletAddress, input.Amount, input.TxHash, map[string]string{
		"source": "ton_connect",
	})
	if err != nil {
		return DepositResult{}, err
	}

	return DepositResult{Balance: account.Balance, Deposited: input.Amount}, nil
}

// WithdrawInput captures a withdrawal request.
type WithdrawInput struct {
	WalletAddress string
	Amount        decimal.Decimal
}

// WithdrawResult reports the pending withdrawal created for the request.
type WithdrawResult struct {
	WithdrawalID     string
	TransactionID    int64
	Status           string
	Amount           decimal.Decimal
	Fee              decimal.Decimal
	NetAmount        decimal.Decimal
	WalletAddress    string
	RemainingBalance decimal.Decimal
	EstimatedTime    string
}

// Withdraw debits the gross amount and records a pending withdrawal owed to
// the user net of fees. Preconditions are checked in order: request validity,
// policy floor, account existence, then sufficient funds; the first failure
// wins and nothing is mutated.
func (s *Service) Withdraw(ctx context.Context, input WithdrawInput) (WithdrawResult, error) {
	if input.WalletAddress == "" || !input.Amount.IsPositive() {
		return WithdrawResult{}, ErrInvalidRequest
	}
	if input.Amount.LessThan(s.policy.MinWithdraw) {
		return WithdrawResult{}, &BelowMinimumError{Minimum: s.policy.MinWithdraw}
	}

	fee := s.withdrawalFee(input.Amount)
	netAmount := input.Amount.Sub(fee)
	withdrawalID := newWithdrawalID()

	account, entry, err := s.ledger.Withdraw(ctx, input.WalletAddress, input.Amount, fee, netAmount, map[string]string{
		"withdrawal_id": withdrawalID,
	})
	if err != nil {
		return WithdrawResult{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindWithdrawalRequested,
			Destination: input.WalletAddress,
			Body:        fmt.Sprintf("Withdrawal %s of %s (net %s) awaits settlement", withdrawalID, input.Amount, netAmount),
		})
	}

	return WithdrawResult{
		WithdrawalID:     withdrawalID,
		TransactionID:    entry.ID,
		Status:           entry.Status,
		Amount:           input.Amount,
		Fee:              fee,
		NetAmount:        netAmount,
		WalletAddress:    input.WalletAddress,
		RemainingBalance: account.Balance,
		EstimatedTime:    "5-15 minutes",
	}, nil
}

// AdjustInput captures a signed balance correction.
type AdjustInput struct {
	WalletAddress string
	Amount        decimal.Decimal
}

// AdjustResult reports the corrected balance.
type AdjustResult struct {
	Balance decimal.Decimal
}

// AdjustBalance applies a correction to an existing account. Unlike deposits
// it never creates the account. Every adjustment writes its own ledger row so
// the balance always reconciles against the transaction history.
func (s *Service) AdjustBalance(ctx context.Context, input AdjustInput) (AdjustResult, error) {
	if input.WalletAddress == "" || input.Amount.IsZero() {
		return AdjustResult{}, ErrInvalidRequest
	}

	account, _, err := s.ledger.Adjust(ctx, input.WalletAddress, input.Amount, map[string]string{
		"source": "manual_adjustment",
	})
	if err != nil {
		return AdjustResult{}, err
	}

	return AdjustResult{Balance: account.Balance}, nil
}

// View assembles an account with its inventory and recent transactions.
type View struct {
	Account      ledger.Account
	Inventory    []inventory.Item
	Transactions []ledger.Transaction
}

// AccountView resolves the account (creating it on first sight) and reads its
// inventory and up to the configured number of recent transactions, newest
// first. Any read failure after account resolution surfaces as an error, never
// a partial payload.
func (s *Service) AccountView(ctx context.Context, walletAddress string) (View, error) {
	if walletAddress == "" {
		return View{}, ErrInvalidRequest
	}

	account, err := s.ledger.GetOrCreateAccount(ctx, walletAddress)
	if err != nil {
		return View{}, err
	}

	items, err := s.inventory.ListByUser(ctx, account.ID)
	if err != nil {
		return View{}, fmt.Errorf("%w: list inventory: %v", ledger.ErrStorageUnavailable, err)
	}

	transactions, err := s.ledger.RecentTransactions(ctx, account.ID, s.policy.HistoryLimit)
	if err != nil {
		return View{}, err
	}

	return View{Account: account, Inventory: items, Transactions: transactions}, nil
}

// withdrawalFee computes max(1, floor(amount * rate)).
func (s *Service) withdrawalFee(amount decimal.Decimal) decimal.Decimal {
	fee := amount.Mul(s.policy.FeeRate).Floor()
	if one := decimal.NewFromInt(1); fee.LessThan(one) {
		return one
	}
	return fee
}

// newWithdrawalID produces a human-readable display label. The transaction
// row id remains the authoritative reference; the uuid fragment keeps labels
// distinct when requests land within the same second.
func newWithdrawalID() string {
	return fmt.Sprintf("WD-%d-%s", time.Now().Unix(), uuid.NewString()[:8])
}
