package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/banksim-client-go/internal/app"
	"github.com/boddenberg/banksim-client-go/internal/config"
	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/infra/observability"
	"github.com/boddenberg/banksim-client-go/internal/notify"
	"github.com/boddenberg/banksim-client-go/internal/session"
	"github.com/boddenberg/banksim-client-go/internal/simulator"
	"github.com/boddenberg/banksim-client-go/internal/transfer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type console struct {
	sim    *simulator.Server
	app    *app.App
	feed   *notify.Feed
	url    string
	client *http.Client
}

func newConsole(t *testing.T) *console {
	t.Helper()
	sim, err := simulator.New(simulator.Config{
		JWTSecret: "e2e-secret", TokenTTL: time.Minute, AdminUser: "admin", AdminPassword: "admin123",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, sim.Seed())
	api := httptest.NewServer(sim.Handler())
	t.Cleanup(api.Close)

	cfg := &config.Config{
		APIBaseURL:     api.URL + simulator.BasePath,
		HTTPTimeout:    5 * time.Second,
		MaxConcurrency: 4,
		ProbeRetries:   1,
		InitialBackoff: 10 * time.Millisecond,
	}
	feed := notify.NewFeed(50)
	a := app.New(cfg, session.NewMemoryStorage(), feed, observability.NewMetrics(), zap.NewNop())
	t.Cleanup(func() { a.Close() })

	srv := httptest.NewServer(a.Router(feed, nil))
	t.Cleanup(srv.Close)

	return &console{
		sim:  sim,
		app:  a,
		feed: feed,
		url:  srv.URL,
		client: &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}},
	}
}

func (c *console) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.url+path, &buf)
	require.NoError(t, err)
	resp, err := c.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (c *console) loginUser(t *testing.T) {
	t.Helper()
	resp, _ := c.do(t, http.MethodPost, "/user/login", domain.UserCredentials{
		Email: simulator.DemoEmail, Password: simulator.DemoPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c.feed.Drain()
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestConsole_GuardRedirects(t *testing.T) {
	c := newConsole(t)

	resp, _ := c.do(t, http.MethodGet, "/user/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/user/login", resp.Header.Get("Location"))

	c.loginUser(t)
	resp, _ = c.do(t, http.MethodGet, "/admin/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))
}

func TestConsole_InvalidLogin(t *testing.T) {
	c := newConsole(t)

	resp, data := c.do(t, http.MethodPost, "/user/login", domain.UserCredentials{
		Email: simulator.DemoEmail, Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(data), "Invalid password")

	_, ok := c.app.Sessions.Get()
	assert.False(t, ok)

	_, data = c.do(t, http.MethodGet, "/notifications", nil)
	got := decode[[]notify.Notification](t, data)
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelError, got[0].Level)
}

func TestConsole_UserJourney(t *testing.T) {
	c := newConsole(t)
	c.loginUser(t)

	resp, data := c.do(t, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "Asha Rao")

	resp, data = c.do(t, http.MethodGet, "/user/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dash := decode[map[string]any](t, data)
	assert.Equal(t, true, dash["hasCustomer"])
	assert.Equal(t, float64(2), dash["stats"].(map[string]any)["accounts"])

	// Transfer
	resp, data = c.do(t, http.MethodPost, "/user/transaction", transfer.Form{
		SenderAccountNumber:   simulator.DemoSavings,
		ReceiverAccountNumber: simulator.DemoCurrent,
		Amount:                "2500.50",
		Pin:                   simulator.DemoPin,
		Description:           "rent",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	out := decode[map[string]any](t, data)
	assert.Equal(t, "settled", out["state"])
	assert.Equal(t, "/user/dashboard", out["redirect"])

	savings, err := c.sim.Store().Account(simulator.DemoSavings)
	require.NoError(t, err)
	assert.Equal(t, 47499.5, savings.Balance)

	resp, data = c.do(t, http.MethodPost, "/user/transaction", transfer.Form{
		SenderAccountNumber:   simulator.DemoSavings,
		ReceiverAccountNumber: simulator.DemoCurrent,
		Amount:                "1",
		Pin:                   "999999",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "Incorrect PIN")

	// Statement
	resp, data = c.do(t, http.MethodGet, "/user/transactions/"+simulator.DemoSavings, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decode[map[string]any](t, data)["total"])

	resp, data = c.do(t, http.MethodGet, "/user/transactions/"+simulator.DemoSavings+"/download", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "transactions_"+simulator.DemoSavings+".csv")
	assert.Contains(t, string(data), "2500.50")

	// Second customer for the same user is refused before any create call.
	resp, _ = c.do(t, http.MethodPost, "/user/customer", domain.Customer{
		AadharNumber: "999988887777", Name: "Dup", PhoneNumber: "1", Email: "d@x.in", Address: "a", DOB: "1990-01-01", CustomerPin: "123456",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Query prefilled from the profile.
	resp, data = c.do(t, http.MethodPost, "/user/query", domain.Query{Message: "Please raise my limit"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	queries := c.sim.Store().Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, "Asha Rao", queries[0].Name)
	assert.Equal(t, simulator.DemoEmail, queries[0].Email)

	// Logout
	resp, _ = c.do(t, http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = c.do(t, http.MethodGet, "/session", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConsole_RejectedTokenEndsSession(t *testing.T) {
	c := newConsole(t)
	require.NoError(t, c.app.Sessions.Set("forged", domain.RoleUser, map[string]any{"userId": 1}))

	resp, _ := c.do(t, http.MethodGet, "/user/account/"+simulator.DemoSavings, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, ok := c.app.Sessions.Get()
	assert.False(t, ok, "a 401 clears the session")

	resp, _ = c.do(t, http.MethodGet, "/user/account/"+simulator.DemoSavings, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestConsole_AdminDashboard(t *testing.T) {
	c := newConsole(t)

	resp, _ := c.do(t, http.MethodPost, "/admin/login", domain.AdminCredentials{Username: "admin", Password: "admin123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := c.do(t, http.MethodGet, "/admin/dashboard?tab=accounts&q=SAVINGS", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	view := decode[map[string]any](t, data)
	assert.Equal(t, "accounts", view["tab"])
	assert.Equal(t, float64(2), view["total"])
	records := view["records"].([]any)
	require.Len(t, records, 1)
	assert.Equal(t, simulator.DemoSavings, records[0].(map[string]any)["accountNumber"])

	resp, _ = c.do(t, http.MethodGet, "/admin/dashboard?tab=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = c.do(t, http.MethodGet, "/admin/dashboard?tab=queries", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), decode[map[string]any](t, data)["total"])
}

func TestConsole_Readyz(t *testing.T) {
	c := newConsole(t)
	resp, data := c.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(data), `"reachable":true`))
}
