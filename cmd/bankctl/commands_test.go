package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cliFixture struct {
	apiURL      string
	sessionFile string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	sim, err := simulator.New(simulator.Config{JWTSecret: "cli-secret", AdminUser: "admin", AdminPassword: "admin123"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, sim.Seed())
	srv := httptest.NewServer(sim.Handler())
	t.Cleanup(srv.Close)

	return &cliFixture{
		apiURL:      srv.URL + simulator.BasePath,
		sessionFile: filepath.Join(t.TempDir(), "session.json"),
	}
}

// invoke runs one bankctl command as a fresh process would: a new client
// over the same session file.
func (f *cliFixture) invoke(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	storage, err := session.OpenFileStorage(f.sessionFile)
	require.NoError(t, err)

	cfg := &config.Config{
		APIBaseURL:     f.apiURL,
		HTTPTimeout:    5 * time.Second,
		MaxConcurrency: 4,
		ProbeRetries:   1,
		InitialBackoff: 10 * time.Millisecond,
	}
	client := app.New(cfg, storage, notify.Discard, observability.NewMetrics(), zap.NewNop())
	defer client.Close()

	var out bytes.Buffer
	c := &cli{app: client, out: &out, prompt: newPrompter(strings.NewReader(input), &bytes.Buffer{})}
	err = c.run(context.Background(), args[0], args[1:])
	return out.String(), err
}

func TestCLI_SessionSurvivesInvocations(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.invoke(t, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "not logged in\n", out)

	_, err = f.invoke(t, simulator.DemoPassword+"\n", "login", "user", simulator.DemoEmail)
	require.NoError(t, err)

	out, err = f.invoke(t, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao (user)\n", out)

	_, err = f.invoke(t, "", "logout")
	require.NoError(t, err)
	out, err = f.invoke(t, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "not logged in\n", out)
}

func TestCLI_TransferAndStatement(t *testing.T) {
	f := newCLIFixture(t)
	_, err := f.invoke(t, simulator.DemoPassword+"\n", "login", "user", simulator.DemoEmail)
	require.NoError(t, err)

	out, err := f.invoke(t, simulator.DemoPin+"\n", "transfer", simulator.DemoSavings, simulator.DemoCurrent, "1234.5", "school", "fees")
	require.NoError(t, err)
	assert.Equal(t, "transaction 1\n", out)

	out, err = f.invoke(t, "", "transactions", simulator.DemoSavings)
	require.NoError(t, err)
	assert.Contains(t, out, "₹1,234.50")
	assert.Contains(t, out, "school fees")

	dir := t.TempDir()
	out, err = f.invoke(t, "", "download", simulator.DemoSavings, dir)
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(dir, "transactions_"+simulator.DemoSavings+".csv"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1234.50")
}

func TestCLI_GuardAndUsage(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.invoke(t, "", "dashboard")
	var redirect *domain.ErrRedirect
	require.ErrorAs(t, err, &redirect)
	assert.Equal(t, "/user/login", redirect.Target)

	_, err = f.invoke(t, "", "frobnicate")
	assert.ErrorIs(t, err, errUsage)
	_, err = f.invoke(t, "", "admin", "bogus")
	assert.ErrorIs(t, err, errUsage)
}

func TestCLI_AdminFilter(t *testing.T) {
	f := newCLIFixture(t)
	_, err := f.invoke(t, "admin123\n", "login", "admin", "admin")
	require.NoError(t, err)

	out, err := f.invoke(t, "", "admin", "accounts", "current")
	require.NoError(t, err)
	assert.Contains(t, out, "accountNumber="+simulator.DemoCurrent)
	assert.Contains(t, out, "1 of 2 accounts")
}
