package wallet

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ton-vault/ton_vault/internal/inventory"
	"github.com/ton-vault/ton_vault/internal/ledger"
)

func setupApp() (*fiber.App, ledger.Ledger) {
	led := ledger.NewInMemory()
	svc := NewService(led, inventory.NewMemoryRepository(), nil, testPolicy())
	h := NewHandler(svc)

	app := fiber.New()
	app.Get("/users", h.AccountView)
	app.Post("/deposits", h.Deposit)
	app.Post("/withdrawals", h.Withdraw)
	app.Post("/balance/adjust", h.Adjust)
	return app, led
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode body %q: %v", payload, err)
	}
	return resp.StatusCode, decoded
}

func TestHandlerDeposit(t *testing.T) {
	app, _ := setupApp()

	status, body := postJSON(t, app, "/deposits", `{"wallet_address":"EQabc","amount":250,"tx_hash":"0xdead"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, body)
	}
	if body["success"] != true {
		t.Fatalf("expected success, got %v", body)
	}
	if body["balance"] != "250" {
		t.Fatalf("expected balance \"250\", got %v", body["balance"])
	}
}

func TestHandlerDepositRejectsBadAmount(t *testing.T) {
	app, _ := setupApp()

	status, body := postJSON(t, app, "/deposits", `{"wallet_address":"EQabc","amount":-5}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%v)", status, body)
	}
	if body["error"] != "Invalid request" {
		t.Fatalf("unexpected error payload: %v", body)
	}
}

func TestHandlerWithdrawErrors(t *testing.T) {
	app, led := setupApp()

	// Unknown account.
	status, body := postJSON(t, app, "/withdrawals", `{"wallet_address":"EQghost","amount":100}`)
	if status != fiber.StatusNotFound || body["error"] != "User not found" {
		t.Fatalf("expected 404 user not found, got %d (%v)", status, body)
	}

	ledger.SeedBalance(led, "EQuser", decimal.NewFromInt(80))

	// Below the policy floor.
	status, body = postJSON(t, app, "/withdrawals", `{"wallet_address":"EQuser","amount":50}`)
	if status != fiber.StatusBadRequest || body["error"] != "Amount too small" {
		t.Fatalf("expected below-minimum rejection, got %d (%v)", status, body)
	}

	// Exceeds balance; response carries the available balance.
	status, body = postJSON(t, app, "/withdrawals", `{"wallet_address":"EQuser","amount":100}`)
	if status != fiber.StatusBadRequest || body["error"] != "Insufficient balance" {
		t.Fatalf("expected insufficient balance, got %d (%v)", status, body)
	}
	if body["available"] != "80" {
		t.Fatalf("expected available \"80\", got %v", body["available"])
	}
}

func TestHandlerWithdrawSuccess(t *testing.T) {
	app, led := setupApp()
	ledger.SeedBalance(led, "EQrich", decimal.NewFromInt(500))

	status, body := postJSON(t, app, "/withdrawals", `{"wallet_address":"EQrich","amount":200}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, body)
	}
	if body["status"] != "pending" {
		t.Fatalf("expected pending status, got %v", body["status"])
	}
	if body["fee"] != "2" || body["netAmount"] != "198" || body["remainingBalance"] != "300" {
		t.Fatalf("unexpected amounts: %v", body)
	}
	withdrawalID, _ := body["withdrawalId"].(string)
	if !strings.HasPrefix(withdrawalID, "WD-") {
		t.Fatalf("expected WD- label, got %v", body["withdrawalId"])
	}
}

func TestHandlerAccountView(t *testing.T) {
	app, _ := setupApp()

	if status, body := postJSON(t, app, "/deposits", `{"wallet_address":"EQview","amount":"42.5"}`); status != fiber.StatusOK {
		t.Fatalf("deposit failed: %d (%v)", status, body)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/users?wallet=EQview", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var decoded struct {
		User struct {
			WalletAddress string `json:"wallet_address"`
			Balance       string `json:"balance"`
		} `json:"user"`
		Inventory    []any `json:"inventory"`
		Transactions []any `json:"transactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.User.WalletAddress != "EQview" || decoded.User.Balance != "42.5" {
		t.Fatalf("unexpected user: %+v", decoded.User)
	}
	if decoded.Inventory == nil || len(decoded.Transactions) != 1 {
		t.Fatalf("unexpected view: %+v", decoded)
	}
}

func TestHandlerAccountViewRequiresWallet(t *testing.T) {
	app, _ := setupApp()

	req := httptest.NewRequest(fiber.MethodGet, "/users", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
