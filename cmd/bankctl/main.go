// Command bankctl is a terminal client for the Banking Simulator API.
// The session is kept in a file, so a login survives between invocations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/boddenberg/banksim-client-go/internal/app"
	"github.com/boddenberg/banksim-client-go/internal/config"
	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/infra/observability"
	"github.com/boddenberg/banksim-client-go/internal/notify"
	"github.com/boddenberg/banksim-client-go/internal/session"

	"go.uber.org/zap"
)

const usage = `usage: bankctl <command> [args]

commands:
  ping                                  check that the API answers
  login user|admin [email|username]     log in (password is prompted)
  logout                                end the session
  whoami                                show the current session
  dashboard                             user dashboard
  transfer <from> <to> <amount> [desc]  send money (PIN is prompted)
  transactions <account>                list an account's transactions
  download <account> [dir]              save an account statement
  account get|delete <number>           show or delete an account
  customer get <aadhar>                 show a customer
  query <message>                       send a support query
  admin <tab> [filter]                  admin dashboard tab (customers, accounts, transactions, queries)
`

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "help" {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	envErr := config.LoadDotEnv(".env")
	cfg := config.Load()
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "error"
	}

	logger := observability.NewLogger(cfg.LogLevel, "bankctl")
	defer logger.Sync()
	if envErr != nil {
		logger.Warn("failed to load .env", zap.Error(envErr))
	}

	storage, err := session.OpenFileStorage(cfg.SessionFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bankctl: open session file: %v\n", err)
		return 1
	}

	client := app.New(cfg, storage, notify.NewTerminal(os.Stderr), observability.NewMetrics(), logger)
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := &cli{app: client, out: os.Stdout, prompt: newPrompter(os.Stdin, os.Stderr)}
	if err := cli.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		return exitCode(err)
	}
	return 0
}

// exitCode prints what the notifications did not already say.
func exitCode(err error) int {
	var redirect *domain.ErrRedirect
	var apiErr *domain.APIError
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprint(os.Stderr, usage)
		return 2
	case errors.As(err, &redirect):
		fmt.Fprintf(os.Stderr, "bankctl: %s; log in first (%s)\n", redirect.Reason, redirect.Target)
	case errors.As(err, &apiErr):
		// Already announced by the notifier.
	default:
		fmt.Fprintf(os.Stderr, "bankctl: %v\n", err)
	}
	return 1
}
