package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ton-vault/ton_vault/internal/inventory"
	"github.com/ton-vault/ton_vault/internal/ledger"
)

// Handler exposes the ledger operations over HTTP. It only parses requests
// and serializes results; every business rule lives in the service.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type depositRequest struct {
	WalletAddress string          `json:"wallet_address"`
	Amount        decimal.Decimal `json:"amount"`
	TxHash        string          `json:"tx_hash"`
}

type withdrawRequest struct {
	WalletAddress string          `json:"wallet_address"`
	Amount        decimal.Decimal `json:"amount"`
}

type adjustRequest struct {
	WalletAddress string          `json:"wallet_address"`
	Amount        decimal.Decimal `json:"amount"`
}

// Deposit credits a confirmed on-chain deposit.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request", err.Error())
	}

	result, err := h.service.Deposit(c.UserContext(), DepositInput{
		WalletAddress: req.WalletAddress,
		Amount:        req.Amount,
		TxHash:        req.TxHash,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":   true,
		"balance":   result.Balance,
		"deposited": result.Deposited,
		"message":   "Deposit completed successfully",
	})
}

// Withdraw creates a pending withdrawal request.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request", err.Error())
	}

	result, err := h.service.Withdraw(c.UserContext(), WithdrawInput{
		WalletAddress: req.WalletAddress,
		Amount:        req.Amount,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":          true,
		"withdrawalId":     result.WithdrawalID,
		"transactionId":    result.TransactionID,
		"status":           result.Status,
		"amount":           result.Amount,
		"fee":              result.Fee,
		"netAmount":        result.NetAmount,
		"walletAddress":    result.WalletAddress,
		"remainingBalance": result.RemainingBalance,
		"estimatedTime":    result.EstimatedTime,
		"message":          "Withdrawal request created successfully",
	})
}

// Adjust applies a signed balance correction to an existing account.
func (h *Handler) Adjust(c *fiber.Ctx) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request", err.Error())
	}

	result, err := h.service.AdjustBalance(c.UserContext(), AdjustInput{
		WalletAddress: req.WalletAddress,
		Amount:        req.Amount,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"balance": result.Balance})
}

// AccountView returns the account, its inventory and recent transactions.
func (h *Handler) AccountView(c *fiber.Ctx) error {
	walletAddress := c.Query("wallet")

	view, err := h.service.AccountView(c.UserContext(), walletAddress)
	if err != nil {
		return writeError(c, err)
	}

	// Keep empty collections as [] rather than null for browser clients.
	if view.Inventory == nil {
		view.Inventory = []inventory.Item{}
	}
	if view.Transactions == nil {
		view.Transactions = []ledger.Transaction{}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user":         view.Account,
		"inventory":    view.Inventory,
		"transactions": view.Transactions,
	})
}

func badRequest(c *fiber.Ctx, label, message string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": label, "message": message})
}

// writeError maps service errors to the HTTP contract. Validation failures
// are 400s, missing accounts 404, storage failures 503.
func writeError(c *fiber.Ctx, err error) error {
	var insufficient *ledger.InsufficientFundsError
	if errors.As(err, &insufficient) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error":     "Insufficient balance",
			"available": insufficient.Available,
		})
	}

	var belowMin *BelowMinimumError
	if errors.As(err, &belowMin) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error":   "Amount too small",
			"message": "Minimum withdrawal is " + belowMin.Minimum.String() + " TON",
		})
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return badRequest(c, "Invalid request", "Wallet address and valid amount required")
	case errors.Is(err, ledger.ErrAccountNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, ledger.ErrStorageUnavailable):
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage unavailable"})
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
