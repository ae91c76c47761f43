package simulator

import (
	"fmt"

	"github.com/boddenberg/banksim-client-go/internal/domain"

	"go.uber.org/zap"
)

// Demo data loaded by Seed.
const (
	DemoEmail    = "asha.rao@banksim.dev"
	DemoPassword = "asha123"
	DemoPin      = "123456"
	DemoSavings  = "100000000001"
	DemoCurrent  = "100000000002"
	demoAadhar   = "123412341234"
)

// Seed loads a staff user who owns one customer with a savings and a
// current account, enough to try every workflow.
func (s *Server) Seed() error {
	u, err := s.store.Signup("Asha Rao", DemoEmail, DemoPassword)
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	if _, err := s.store.CreateCustomer(domain.Customer{
		UserID:       u.ID,
		AadharNumber: demoAadhar,
		Name:         "Asha Rao",
		PhoneNumber:  "9876543210",
		Email:        DemoEmail,
		Address:      "12 MG Road, Bengaluru",
		DOB:          "1990-04-12",
		CustomerPin:  DemoPin,
	}); err != nil {
		return fmt.Errorf("seed customer: %w", err)
	}

	for _, a := range []domain.Account{
		{AccountNumber: DemoSavings, AccountType: domain.AccountSavings, AccountName: "Asha Savings", Balance: 50000},
		{AccountNumber: DemoCurrent, AccountType: domain.AccountCurrent, AccountName: "Asha Current", Balance: 12500.50},
	} {
		a.AadharNumber = demoAadhar
		a.BankName = "Banking Simulator"
		a.IFSCCode = "BSIM0000001"
		a.PhoneNumberLinked = "9876543210"
		if _, err := s.store.CreateAccount(a); err != nil {
			return fmt.Errorf("seed account %s: %w", a.AccountNumber, err)
		}
	}

	s.logger.Info("simulator: demo data loaded",
		zap.String("email", DemoEmail),
		zap.Strings("accounts", []string{DemoSavings, DemoCurrent}),
	)
	return nil
}
