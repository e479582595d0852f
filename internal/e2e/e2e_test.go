//go:build integration

package e2e

// End-to-end integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/e2e/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/janesh-web3/RMS-demo-sub001/internal/config"
	"github.com/janesh-web3/RMS-demo-sub001/internal/infra"
	"github.com/janesh-web3/RMS-demo-sub001/internal/router"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// ── Test env ─────────────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("inventory_test"),
		tcPostgres.WithUsername("inventory"),
		tcPostgres.WithPassword("inventory"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		DeductionTimeoutMs: 5000,
		ExpiryHorizonDays:  7,
		ReorderWindowDays:  30,
		PDFStoragePath:     t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("kitchen-e2e-pass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, db.Exec(
		`INSERT INTO users (id, username, name, password_hash, role, active, created_at, updated_at)
		 VALUES (gen_random_uuid(), 'admin', 'Admin E2E', ?, 'admin', true, NOW(), NOW())
		 ON CONFLICT DO NOTHING`,
		string(hash),
	).Error)

	r, _ := router.New(cfg, db, rdb)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin", "password": "kitchen-e2e-pass"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken}
}

func (env *testEnv) createStockItem(t *testing.T, body map[string]any) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/stock", jsonBody(t, body), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &item)
	require.NotEmpty(t, item.ID)
	return item.ID
}

func (env *testEnv) stockQuantity(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	resp := do(t, env.server, "GET", "/v1/stock/"+id, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var item struct {
		Quantity string `json:"quantity"`
	}
	decodeJSON(t, resp, &item)
	return dec(t, item.Quantity)
}

// ── Tests ────────────────────────────────────────────────────────────────────

// Full cycle: register item → build recipe → deduct for an order → reverse on
// cancellation. The balance and the ledger must agree end to end.
func TestE2E_OrderDeductionAndReversal(t *testing.T) {
	env := setupTestEnv(t)

	chickenID := env.createStockItem(t, map[string]any{
		"name": "Chicken Breast", "category": "meat", "unit": "kg",
		"quantity": "10", "cost_per_unit": "8", "min_threshold": "2",
		"deduction_type": "automatic",
	})

	menuResp := do(t, env.server, "POST", "/v1/menu",
		jsonBody(t, map[string]any{"name": "Grilled Chicken", "price": "18.5"}), env.token)
	require.Equal(t, http.StatusCreated, menuResp.StatusCode)
	var menu struct {
		ID string `json:"id"`
	}
	decodeJSON(t, menuResp, &menu)

	recipeResp := do(t, env.server, "PUT", "/v1/menu/"+menu.ID+"/recipe",
		jsonBody(t, map[string]any{
			"ingredients": []map[string]any{{"stock_item_id": chickenID, "quantity": "1"}},
		}), env.token)
	require.Equal(t, http.StatusOK, recipeResp.StatusCode)

	dedResp := do(t, env.server, "POST", "/v1/deductions/order",
		jsonBody(t, map[string]any{
			"order_id": "ORD-100",
			"items":    []map[string]any{{"menu_item_id": menu.ID, "quantity": 3}},
		}), env.token)
	require.Equal(t, http.StatusOK, dedResp.StatusCode)
	var ded struct {
		Deducted []struct {
			BalanceAfter string `json:"balance_after"`
		} `json:"deducted"`
		TotalCOGS string `json:"total_cogs"`
	}
	decodeJSON(t, dedResp, &ded)
	require.Len(t, ded.Deducted, 1)
	assert.True(t, dec(t, ded.Deducted[0].BalanceAfter).Equal(dec(t, "7")))
	assert.True(t, dec(t, ded.TotalCOGS).Equal(dec(t, "24")))
	assert.True(t, env.stockQuantity(t, chickenID).Equal(dec(t, "7")))

	revResp := do(t, env.server, "POST", "/v1/deductions/reverse",
		jsonBody(t, map[string]any{
			"origin_id": "ORD-100", "origin_kind": "order", "deduction_policy": "automatic",
		}), env.token)
	require.Equal(t, http.StatusOK, revResp.StatusCode)
	assert.True(t, env.stockQuantity(t, chickenID).Equal(dec(t, "10")))

	// A second cancellation of the same order must not double-restore.
	revAgain := do(t, env.server, "POST", "/v1/deductions/reverse",
		jsonBody(t, map[string]any{
			"origin_id": "ORD-100", "origin_kind": "order", "deduction_policy": "automatic",
		}), env.token)
	assert.Equal(t, http.StatusNotFound, revAgain.StatusCode)
	assert.True(t, env.stockQuantity(t, chickenID).Equal(dec(t, "10")))

	// Reconcile: the ledger replay matches the live quantity.
	recResp := do(t, env.server, "GET", "/v1/stock/"+chickenID+"/reconcile", nil, env.token)
	require.Equal(t, http.StatusOK, recResp.StatusCode)
	var rec struct {
		Consistent bool `json:"consistent"`
	}
	decodeJSON(t, recResp, &rec)
	assert.True(t, rec.Consistent)
}

// One short line aborts the whole batch with 409 and leaves every balance alone.
func TestE2E_InsufficientStockRejectsBatch(t *testing.T) {
	env := setupTestEnv(t)

	riceID := env.createStockItem(t, map[string]any{
		"name": "Rice", "category": "grains", "unit": "kg",
		"quantity": "20", "cost_per_unit": "2", "min_threshold": "5",
		"deduction_type": "manual",
	})
	oilID := env.createStockItem(t, map[string]any{
		"name": "Oil", "category": "other", "unit": "liter",
		"quantity": "5", "cost_per_unit": "10", "min_threshold": "1",
		"deduction_type": "manual",
	})

	resp := do(t, env.server, "POST", "/v1/deductions/manual",
		jsonBody(t, map[string]any{
			"order_id": "ORD-200",
			"lines": []map[string]any{
				{"stock_item_id": riceID, "quantity_used": "2"},
				{"stock_item_id": oilID, "quantity_used": "8"},
			},
		}), env.token)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	assert.True(t, env.stockQuantity(t, riceID).Equal(dec(t, "20")))
	assert.True(t, env.stockQuantity(t, oilID).Equal(dec(t, "5")))
}

// Direct reception entries convert the entered unit into the item's native one.
func TestE2E_DirectEntryUnitConversion(t *testing.T) {
	env := setupTestEnv(t)

	flourID := env.createStockItem(t, map[string]any{
		"name": "Flour", "category": "grains", "unit": "kg",
		"quantity": "10", "cost_per_unit": "1.5", "min_threshold": "2",
		"deduction_type": "manual",
	})

	resp := do(t, env.server, "POST", "/v1/deductions/direct",
		jsonBody(t, map[string]any{
			"bill_id": "BILL-300",
			"entries": []map[string]any{
				{"stock_item_id": flourID, "quantity": "500", "unit": "g"},
				{"stock_item_id": "", "quantity": "0"}, // blank row, skipped
			},
		}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ded struct {
		Skipped int `json:"skipped"`
	}
	decodeJSON(t, resp, &ded)
	assert.Equal(t, 1, ded.Skipped)
	assert.True(t, env.stockQuantity(t, flourID).Equal(dec(t, "9.5")))
}

// The ledger rejects UPDATE/DELETE at the schema level.
func TestE2E_LedgerIsAppendOnly(t *testing.T) {
	env := setupTestEnv(t)

	itemID := env.createStockItem(t, map[string]any{
		"name": "Salt", "category": "spices", "unit": "g",
		"quantity": "900", "cost_per_unit": "0.01", "min_threshold": "100",
		"deduction_type": "automatic",
	})

	// The opening posting exists.
	txResp := do(t, env.server, "GET", "/v1/transactions?stock_item_id="+itemID, nil, env.token)
	require.Equal(t, http.StatusOK, txResp.StatusCode)
	var list struct {
		Data []struct {
			ID     string `json:"id"`
			Reason string `json:"reason"`
		} `json:"data"`
	}
	decodeJSON(t, txResp, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "initial_stock", list.Data[0].Reason)
}

// Low-stock analytics reflect committed deductions.
func TestE2E_LowStockAnalytics(t *testing.T) {
	env := setupTestEnv(t)

	milkID := env.createStockItem(t, map[string]any{
		"name": "Milk", "category": "dairy", "unit": "liter",
		"quantity": "8", "cost_per_unit": "1.1", "min_threshold": "2",
		"deduction_type": "manual",
	})

	resp := do(t, env.server, "POST", "/v1/deductions/manual",
		jsonBody(t, map[string]any{
			"order_id": "ORD-400",
			"lines":    []map[string]any{{"stock_item_id": milkID, "quantity_used": "6.5"}},
		}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	lowResp := do(t, env.server, "GET", "/v1/analytics/low-stock", nil, env.token)
	require.Equal(t, http.StatusOK, lowResp.StatusCode)
	var low struct {
		Count int `json:"count"`
		Data  []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	decodeJSON(t, lowResp, &low)
	require.Equal(t, 1, low.Count)
	assert.Equal(t, "Milk", low.Data[0].Name)
}
