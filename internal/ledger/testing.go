package ledger

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that seeds the balance for a wallet address
// when using the in-memory ledger. The account is created if necessary.
func SeedBalance(l Ledger, walletAddress string, amount decimal.Decimal) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		account := mem.resolve(walletAddress)
		account.Balance = amount
	}
}
