package simulator_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/simulator"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	sim *simulator.Server
	srv *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sim, err := simulator.New(simulator.Config{
		JWTSecret:     "test-secret",
		TokenTTL:      time.Minute,
		AdminUser:     "admin",
		AdminPassword: "admin123",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, sim.Seed())

	srv := httptest.NewServer(sim.Handler())
	t.Cleanup(srv.Close)
	return &harness{sim: sim, srv: srv}
}

func (h *harness) call(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.srv.URL+simulator.BasePath+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (h *harness) userToken(t *testing.T) string {
	t.Helper()
	resp, body := h.call(t, http.MethodPost, "/user/login", "", domain.UserCredentials{
		Email: simulator.DemoEmail, Password: simulator.DemoPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["token"].(string)
}

func (h *harness) transfer(t *testing.T, token string, req domain.TransferRequest) (*http.Response, map[string]any) {
	t.Helper()
	return h.call(t, http.MethodPost, "/transaction/create", token, req)
}

func TestUserLogin(t *testing.T) {
	h := newHarness(t)

	resp, body := h.call(t, http.MethodPost, "/user/login", "", domain.UserCredentials{
		Email: simulator.DemoEmail, Password: simulator.DemoPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
	profile := body["user"].(map[string]any)
	assert.Equal(t, "Asha Rao", profile["fullName"])
	assert.Equal(t, float64(1), profile["userId"])

	resp, body = h.call(t, http.MethodPost, "/user/login", "", domain.UserCredentials{
		Email: simulator.DemoEmail, Password: "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid password", body["message"])

	resp, _ = h.call(t, http.MethodPost, "/user/login", "", domain.UserCredentials{
		Email: "ghost@banksim.dev", Password: "x",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	h := newHarness(t)

	resp, body := h.call(t, http.MethodPost, "/user/signup", "", map[string]string{
		"fullName": "Ravi", "email": strings.ToUpper(simulator.DemoEmail), "password": "pw",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Email already registered", body["message"])
}

func TestAdminLoginAndRoles(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.call(t, http.MethodPost, "/admin/login", "", domain.AdminCredentials{Username: "admin", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := h.call(t, http.MethodPost, "/admin/login", "", domain.AdminCredentials{Username: "admin", Password: "admin123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adminToken := body["token"].(string)

	resp, _ = h.call(t, http.MethodGet, "/admin/queries", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.call(t, http.MethodGet, "/admin/queries", h.userToken(t), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := newHarness(t)

	for _, token := range []string{"", "not-a-jwt"} {
		resp, body := h.call(t, http.MethodGet, "/account/getAll", token, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.NotEmpty(t, body["message"])
	}

	resp, _ := h.call(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCustomerByUser(t *testing.T) {
	h := newHarness(t)
	token := h.userToken(t)

	resp, body := h.call(t, http.MethodGet, "/customer/user/1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Asha Rao", body["name"])
	assert.NotContains(t, body, "customerPin")

	resp, _ = h.call(t, http.MethodGet, "/customer/user/99", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTransferRules(t *testing.T) {
	h := newHarness(t)
	token := h.userToken(t)

	cases := []struct {
		name    string
		req     domain.TransferRequest
		status  int
		message string
	}{
		{
			name:    "same account",
			req:     domain.TransferRequest{SenderAccountNumber: simulator.DemoSavings, ReceiverAccountNumber: simulator.DemoSavings, Amount: 10, Pin: simulator.DemoPin},
			status:  http.StatusBadRequest,
			message: "Sender and receiver account numbers must be different",
		},
		{
			name:    "wrong pin",
			req:     domain.TransferRequest{SenderAccountNumber: simulator.DemoSavings, ReceiverAccountNumber: simulator.DemoCurrent, Amount: 10, Pin: "000000"},
			status:  http.StatusBadRequest,
			message: "Incorrect PIN",
		},
		{
			name:    "insufficient balance",
			req:     domain.TransferRequest{SenderAccountNumber: simulator.DemoCurrent, ReceiverAccountNumber: simulator.DemoSavings, Amount: 1_000_000, Pin: simulator.DemoPin},
			status:  http.StatusBadRequest,
			message: "Insufficient balance in sender account",
		},
		{
			name:   "unknown receiver",
			req:    domain.TransferRequest{SenderAccountNumber: simulator.DemoSavings, ReceiverAccountNumber: "999999999999", Amount: 10, Pin: simulator.DemoPin},
			status: http.StatusNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := h.transfer(t, token, tc.req)
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.message != "" {
				assert.Equal(t, tc.message, body["message"])
			}
		})
	}

	assert.Empty(t, h.sim.Store().Transactions(), "refused transfers leave no trace")
}

func TestTransferMovesFunds(t *testing.T) {
	h := newHarness(t)
	token := h.userToken(t)
	before := h.sim.Store().TotalBalance()

	resp, body := h.transfer(t, token, domain.TransferRequest{
		SenderAccountNumber:   simulator.DemoSavings,
		ReceiverAccountNumber: simulator.DemoCurrent,
		Amount:                1500.25,
		Pin:                   simulator.DemoPin,
		Description:           "rent",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1500.25, body["amount"])
	assert.NotContains(t, body, "pin")

	savings, err := h.sim.Store().Account(simulator.DemoSavings)
	require.NoError(t, err)
	current, err := h.sim.Store().Account(simulator.DemoCurrent)
	require.NoError(t, err)
	assert.Equal(t, 48499.75, savings.Balance)
	assert.Equal(t, 14000.75, current.Balance)
	assert.True(t, before.Equal(h.sim.Store().TotalBalance()))

	assert.Len(t, h.sim.Store().TransactionsFor(simulator.DemoCurrent), 1)
}

func TestConcurrentTransfersConserveFunds(t *testing.T) {
	h := newHarness(t)
	store := h.sim.Store()
	before := store.TotalBalance()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := simulator.DemoSavings, simulator.DemoCurrent
			if i%2 == 1 {
				from, to = to, from
			}
			store.Transfer(domain.TransferRequest{
				SenderAccountNumber:   from,
				ReceiverAccountNumber: to,
				Amount:                999.99,
				Pin:                   simulator.DemoPin,
			})
		}(i)
	}
	wg.Wait()

	assert.True(t, before.Equal(store.TotalBalance()), "total %s != %s", store.TotalBalance(), before)
	for _, a := range store.Accounts() {
		assert.True(t, decimal.NewFromFloat(a.Balance).GreaterThanOrEqual(decimal.Zero))
	}
}

func TestAccountUpdateKeepsBalance(t *testing.T) {
	h := newHarness(t)
	token := h.userToken(t)

	resp, body := h.call(t, http.MethodPut, "/account/update/"+simulator.DemoSavings, token, domain.Account{
		AccountType: domain.AccountSavings, AccountName: "Renamed", BankName: "B", IFSCCode: "I", PhoneNumberLinked: "1", Balance: 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed", body["accountName"])
	assert.Equal(t, float64(50000), body["balance"])

	resp, _ = h.call(t, http.MethodDelete, "/account/delete/"+simulator.DemoSavings, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = h.call(t, http.MethodGet, "/account/get/"+simulator.DemoSavings, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDownloadStatement(t *testing.T) {
	h := newHarness(t)
	token := h.userToken(t)
	_, err := h.sim.Store().Transfer(domain.TransferRequest{
		SenderAccountNumber: simulator.DemoSavings, ReceiverAccountNumber: simulator.DemoCurrent, Amount: 10, Pin: simulator.DemoPin,
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, h.srv.URL+simulator.BasePath+"/transaction/"+simulator.DemoSavings+"/download", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "10.00")
}
