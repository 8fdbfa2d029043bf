package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ton-vault/ton_vault/internal/wallet"
)

// RegisterWalletRoutes wires the ledger operation endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/users", h.AccountView)
	r.Post("/deposits", h.Deposit)
	r.Post("/withdrawals", h.Withdraw)
	r.Post("/balance/adjust", h.Adjust)
}
