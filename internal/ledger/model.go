package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// TypeDeposit marks a credit from a confirmed on-chain deposit.
	TypeDeposit = "deposit"
	// TypeWithdrawal marks a debit owed to the user pending settlement.
	TypeWithdrawal = "withdrawal"
	// TypeAdjustment marks a manual balance correction.
	TypeAdjustment = "adjustment"
)

const (
	// StatusCompleted indicates the monetary event is final.
	StatusCompleted = "completed"
	// StatusPending indicates the event awaits settlement confirmation.
	StatusPending = "pending"
	// StatusFailed indicates settlement was rejected downstream.
	StatusFailed = "failed"
)

// Account is the durable balance record for one wallet address. The balance is
// the single source of truth for spendable funds; the total counters only ever
// grow and exist for audit.
type Account struct {
	ID             int64           `json:"id"`
	WalletAddress  string          `json:"wallet_address"`
	Balance        decimal.Decimal `json:"balance"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Transaction is an immutable audit record of one monetary event. Rows are
// never mutated or deleted after insertion; a settlement process outside this
// service may later advance the status of pending withdrawals.
type Transaction struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	Type          string            `json:"type"`
	Amount        decimal.Decimal   `json:"amount"`
	Fee           decimal.Decimal   `json:"fee"`
	Status        string            `json:"status"`
	WalletAddress string            `json:"wallet_address"`
	TxHash        string            `json:"tx_hash,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
