package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/boddenberg/banksim-client-go/internal/app"
	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/transfer"
)

var errUsage = errors.New("usage")

type cli struct {
	app    *app.App
	out    io.Writer
	prompt *prompter
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "ping":
		return c.ping(ctx)
	case "login":
		return c.login(ctx, args)
	case "logout":
		_, err := c.app.Auth.Logout(ctx)
		return err
	case "whoami":
		return c.whoami()
	case "dashboard":
		return c.dashboard(ctx)
	case "transfer":
		return c.transfer(ctx, args)
	case "transactions":
		return c.transactions(ctx, args)
	case "download":
		return c.download(ctx, args)
	case "account":
		return c.account(ctx, args)
	case "customer":
		return c.customer(ctx, args)
	case "query":
		return c.query(ctx, args)
	case "admin":
		return c.admin(ctx, args)
	}
	return errUsage
}

func (c *cli) ping(ctx context.Context) error {
	res := c.app.Gateway.Probe(ctx)
	if !res.Reachable {
		return fmt.Errorf("%s not reachable after %d attempt(s): %w", c.app.Gateway.BaseURL(), res.Attempts, res.Err)
	}
	fmt.Fprintf(c.out, "%s answered %d in %s (%d attempt(s))\n", c.app.Gateway.BaseURL(), res.Status, res.Latency.Round(time.Millisecond), res.Attempts)
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	role, ok := domain.ParseRole(args[0])
	if !ok {
		return errUsage
	}

	label := "Email"
	if role == domain.RoleAdmin {
		label = "Username"
	}
	id := ""
	if len(args) > 1 {
		id = args[1]
	} else {
		var err error
		if id, err = c.prompt.line(label); err != nil {
			return err
		}
	}
	password, err := c.prompt.secret("Password")
	if err != nil {
		return err
	}

	if role == domain.RoleAdmin {
		_, err = c.app.Auth.LoginAdmin(ctx, id, password)
	} else {
		_, err = c.app.Auth.LoginUser(ctx, id, password)
	}
	return err
}

func (c *cli) whoami() error {
	sess, ok := c.app.Auth.Current()
	if !ok {
		fmt.Fprintln(c.out, "not logged in")
		return nil
	}
	name := sess.DisplayName()
	if name == "" {
		name = "-"
	}
	fmt.Fprintf(c.out, "%s (%s)\n", name, sess.Role)
	return nil
}

func (c *cli) dashboard(ctx context.Context) error {
	view, err := c.app.UserHome.Load(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Welcome, %s <%s>\n", view.Name, view.Email)
	if !view.HasCustomer {
		fmt.Fprintln(c.out, "No customer record yet.")
	}
	fmt.Fprintf(c.out, "Customers: %d  Accounts: %d  Transactions: %d\n",
		view.Stats.Customers, view.Stats.Accounts, view.Stats.Transactions)
	return nil
}

func (c *cli) transfer(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errUsage
	}
	pin, err := c.prompt.secret("PIN")
	if err != nil {
		return err
	}
	out, err := c.app.Transfer.Submit(ctx, transfer.Form{
		SenderAccountNumber:   args[0],
		ReceiverAccountNumber: args[1],
		Amount:                args[2],
		Pin:                   pin,
		Description:           strings.Join(args[3:], " "),
	})
	if err != nil {
		return err
	}
	if id, ok := out.Record["transactionId"]; ok {
		fmt.Fprintf(c.out, "transaction %v\n", id)
	}
	return nil
}

func (c *cli) transactions(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	txs, err := c.app.Transactions.Search(ctx, args[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFROM\tTO\tAMOUNT\tTIME\tDESCRIPTION")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			tx.TransactionID, tx.SenderAccountNumber, tx.ReceiverAccountNumber,
			domain.FormatINR(tx.Amount), tx.TransactionTime, tx.Description)
	}
	return tw.Flush()
}

func (c *cli) download(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	export, err := c.app.Transactions.Download(ctx, args[0])
	if err != nil {
		return err
	}
	dir := "."
	if len(args) == 2 {
		dir = args[1]
	}
	path := filepath.Join(dir, export.FileName())
	if err := os.WriteFile(path, export.Data, 0o644); err != nil {
		return fmt.Errorf("save statement: %w", err)
	}
	fmt.Fprintln(c.out, path)
	return nil
}

func (c *cli) account(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	switch args[0] {
	case "get":
		acct, err := c.app.Accounts.Get(ctx, args[1])
		if err != nil {
			return err
		}
		return c.printJSON(acct)
	case "delete":
		_, err := c.app.Accounts.Delete(ctx, args[1])
		return err
	}
	return errUsage
}

func (c *cli) customer(ctx context.Context, args []string) error {
	if len(args) != 2 || args[0] != "get" {
		return errUsage
	}
	cust, err := c.app.Customers.Get(ctx, args[1])
	if err != nil {
		return err
	}
	return c.printJSON(cust)
}

func (c *cli) query(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	_, err := c.app.Queries.Submit(ctx, &domain.Query{Message: strings.Join(args, " ")})
	return err
}

func (c *cli) admin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	tab, ok := domain.ParseEntityType(args[0])
	if !ok {
		return errUsage
	}
	view, err := c.app.Admin.Show(ctx, tab, strings.Join(args[1:], " "), false)
	if err != nil {
		return err
	}

	for _, rec := range view.Records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if rec[k] != nil {
				parts = append(parts, fmt.Sprintf("%s=%v", k, rec[k]))
			}
		}
		fmt.Fprintln(c.out, strings.Join(parts, " "))
	}
	fmt.Fprintf(c.out, "%d of %d %s\n", len(view.Records), view.Total, view.Tab)
	return nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
