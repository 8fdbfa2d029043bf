package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresLedger persists accounts and transactions in PostgreSQL. Each
// mutating operation runs in a single transaction with the account row locked
// via SELECT ... FOR UPDATE, so concurrent operations on the same wallet
// address serialize while different wallets proceed independently.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const accountColumns = `id, wallet_address, balance, total_deposited, total_withdrawn, created_at, updated_at`

// GetOrCreateAccount resolves an account, inserting a zero-balance row on
// first sight. The uniqueness constraint on wallet_address guarantees at most
// one row per address under concurrent first access.
func (l *PostgresLedger) GetOrCreateAccount(ctx context.Context, walletAddress string) (Account, error) {
	_, err := l.db.Exec(ctx, `INSERT INTO users (wallet_address) VALUES ($1)
        ON CONFLICT (wallet_address) DO NOTHING`, walletAddress)
	if err != nil {
		return Account{}, storageError("create account", err)
	}
	return l.GetAccount(ctx, walletAddress)
}

// GetAccount looks up an account by wallet address without creating it.
func (l *PostgresLedger) GetAccount(ctx context.Context, walletAddress string) (Account, error) {
	row := l.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE wallet_address = $1`, walletAddress)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, storageError("get account", err)
	}
	return account, nil
}

// Deposit credits the account and appends a completed deposit transaction in
// one atomic unit. The account is created first if the wallet is unseen.
func (l *PostgresLedger) Deposit(ctx context.Context, walletAddress string, amount decimal.Decimal, txHash string, metadata map[string]string) (Account, Transaction, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Account{}, Transaction{}, storageError("begin deposit", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO users (wallet_address) VALUES ($1)
        ON CONFLICT (wallet_address) DO NOTHING`, walletAddress); err != nil {
		return Account{}, Transaction{}, storageError("ensure account", err)
	}

	account, err := lockAccount(ctx, tx, walletAddress)
	if err != nil {
		return Account{}, Transaction{}, err
	}

	row := tx.QueryRow(ctx, `UPDATE users
        SET balance = balance + $1, total_deposited = total_deposited + $1, updated_at = NOW()
        WHERE id = $2
        RETURNING `+accountColumns, amount, account.ID)
	account, err = scanAccount(row)
	if err != nil {
		return Account{}, Transaction{}, storageError("apply deposit", err)
	}

	entry, err := insertTransaction(ctx, tx, Transaction{
		UserID:        account.ID,
		Type:          TypeDeposit,
		Amount:        amount,
		Fee:           decimal.Zero,
		Status:        StatusCompleted,
		WalletAddress: walletAddress,
		TxHash:        txHash,
		Metadata:      metadata,
	})
	if err != nil {
		return Account{}, Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, Transaction{}, storageError("commit deposit", err)
	}
	return account, entry, nil
}

// Withdraw debits the gross amount from an existing account and appends a
// pending withdrawal transaction in one atomic unit.
func (l *PostgresLedger) Withdraw(ctx context.Context, walletAddress string, amount, fee, netAmount decimal.Decimal, metadata map[string]string) (Account, Transaction, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Account{}, Transaction{}, storageError("begin withdrawal", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	account, err := lockAccount(ctx, tx, walletAddress)
	if err != nil {
		return Account{}, Transaction{}, err
	}
	if account.Balance.LessThan(amount) {
		return Account{}, Transaction{}, &InsufficientFundsError{Available: account.Balance}
	}

	row := tx.QueryRow(ctx, `UPDATE users
        SET balance = balance - $1, total_withdrawn = total_withdrawn + $2, updated_at = NOW()
        WHERE id = $3
        RETURNING `+accountColumns, amount, netAmount, account.ID)
	account, err = scanAccount(row)
	if err != nil {
		return Account{}, Transaction{}, storageError("apply withdrawal", err)
	}

	entry, err := insertTransaction(ctx, tx, Transaction{
		UserID:        account.ID,
		Type:          TypeWithdrawal,
		Amount:        amount,
		Fee:           fee,
		Status:        StatusPending,
		WalletAddress: walletAddress,
		Metadata:      metadata,
	})
	if err != nil {
		return Account{}, Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, Transaction{}, storageError("commit withdrawal", err)
	}
	return account, entry, nil
}

// Adjust applies a signed correction to an existing account and appends a
// completed adjustment transaction in one atomic unit.
func (l *PostgresLedger) Adjust(ctx context.Context, walletAddress string, amount decimal.Decimal, metadata map[string]string) (Account, Transaction, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Account{}, Transaction{}, storageError("begin adjustment", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	account, err := lockAccount(ctx, tx, walletAddress)
	if err != nil {
		return Account{}, Transaction{}, err
	}
	if account.Balance.Add(amount).IsNegative() {
		return Account{}, Transaction{}, &InsufficientFundsError{Available: account.Balance}
	}

	row := tx.QueryRow(ctx, `UPDATE users
        SET balance = balance + $1, updated_at = NOW()
        WHERE id = $2
        RETURNING `+accountColumns, amount, account.ID)
	account, err = scanAccount(row)
	if err != nil {
		return Account{}, Transaction{}, storageError("apply adjustment", err)
	}

	entry, err := insertTransaction(ctx, tx, Transaction{
		UserID:        account.ID,
		Type:          TypeAdjustment,
		Amount:        amount,
		Fee:           decimal.Zero,
		Status:        StatusCompleted,
		WalletAddress: walletAddress,
		Metadata:      metadata,
	})
	if err != nil {
		return Account{}, Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, Transaction{}, storageError("commit adjustment", err)
	}
	return account, entry, nil
}

// RecentTransactions lists up to limit transactions for the account, newest first.
func (l *PostgresLedger) RecentTransactions(ctx context.Context, userID int64, limit int) ([]Transaction, error) {
	rows, err := l.db.Query(ctx, `SELECT id, user_id, type, amount, fee, status, wallet_address, COALESCE(tx_hash, ''), metadata, created_at
        FROM transactions
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2`, userID, limit)
	if err != nil {
		return nil, storageError("list transactions", err)
	}
	defer rows.Close()

	var result []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Fee, &t.Status, &t.WalletAddress, &t.TxHash, &t.Metadata, &t.CreatedAt); err != nil {
			return nil, storageError("scan transaction", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate transactions", err)
	}
	return result, nil
}

func lockAccount(ctx context.Context, tx pgx.Tx, walletAddress string) (Account, error) {
	row := tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE wallet_address = $1 FOR UPDATE`, walletAddress)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, storageError("lock account", err)
	}
	return account, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, t Transaction) (Transaction, error) {
	var txHash any
	if t.TxHash != "" {
		txHash = t.TxHash
	}
	row := tx.QueryRow(ctx, `INSERT INTO transactions (user_id, type, amount, fee, status, wallet_address, tx_hash, metadata)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at`, t.UserID, t.Type, t.Amount, t.Fee, t.Status, t.WalletAddress, txHash, t.Metadata)
	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		return Transaction{}, storageError("insert transaction", err)
	}
	return t, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.WalletAddress, &a.Balance, &a.TotalDeposited, &a.TotalWithdrawn, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Account{}, err
	}
	return a, nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
