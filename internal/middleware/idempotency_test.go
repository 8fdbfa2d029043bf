package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ton-vault/ton_vault/internal/inventory"
	"github.com/ton-vault/ton_vault/internal/ledger"
	"github.com/ton-vault/ton_vault/internal/logging"
	"github.com/ton-vault/ton_vault/internal/wallet"
)

func setupTestApp(t *testing.T) (*fiber.App, ledger.Ledger, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	led := ledger.NewInMemory()
	svc := wallet.NewService(led, inventory.NewMemoryRepository(), nil, wallet.Policy{
		MinWithdraw: decimal.NewFromInt(100),
		FeeRate:     decimal.NewFromFloat(0.01),
	})
	h := wallet.NewHandler(svc)

	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/deposits", h.Deposit)

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return app, led, cleanup
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	req := httptest.NewRequest(fiber.MethodPost, "/deposits", strings.NewReader(`{"wallet_address":"EQa","amount":100}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestIdempotencyReplayDoesNotDepositTwice(t *testing.T) {
	app, led, cleanup := setupTestApp(t)
	defer cleanup()

	send := func() (int, string) {
		req := httptest.NewRequest(fiber.MethodPost, "/deposits", strings.NewReader(`{"wallet_address":"EQa","amount":100}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(idempotencyKeyHeader, "dep-1")

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		defer resp.Body.Close()
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		return resp.StatusCode, string(payload)
	}

	status, first := send()
	if status != fiber.StatusOK {
		t.Fatalf("first request failed: %d %s", status, first)
	}

	status, second := send()
	if status != fiber.StatusOK {
		t.Fatalf("replay failed: %d %s", status, second)
	}
	if first != second {
		t.Fatalf("replay body differs: %q vs %q", first, second)
	}

	account, err := led.GetAccount(context.Background(), "EQa")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !account.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected single deposit of 100, balance is %s", account.Balance)
	}
}

func TestIdempotencyGetPassesThrough(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(fiber.MethodGet, "/ping", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected GET without key to pass, got %d", resp.StatusCode)
	}
}
