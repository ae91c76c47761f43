package domain_test

import (
	"errors"
	"testing"

	"github.com/boddenberg/banksim-client-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"500.00", "500", false},
		{" 12.5 ", "12.5", false},
		{"0", "", true},
		{"-3", "", true},
		{"abc", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := domain.ParseAmount(tt.in)
			if tt.wantErr {
				var verr *domain.ErrValidation
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, "amount", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestFormatINR(t *testing.T) {
	assert.Equal(t, "₹500.00", domain.FormatINR(500))
	assert.Equal(t, "₹1,000.00", domain.FormatINR(1000))
	assert.Equal(t, "₹1,23,456.50", domain.FormatINR(123456.5))
	assert.Equal(t, "₹12,34,56,789.00", domain.FormatINR(123456789))
	assert.Equal(t, "-₹1,500.25", domain.FormatINR(-1500.25))
}

func TestSession_UserID(t *testing.T) {
	tests := []struct {
		name    string
		profile map[string]any
		want    string
		wantErr bool
	}{
		{"json number", map[string]any{"userId": float64(42)}, "42", false},
		{"string", map[string]any{"userId": "42"}, "42", false},
		{"int", map[string]any{"userId": 42}, "42", false},
		{"missing", map[string]any{"email": "a@b.c"}, "", true},
		{"nil profile", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &domain.Session{Token: "t", Role: domain.RoleUser, Profile: tt.profile}
			got, err := s.UserID()
			if tt.wantErr {
				var serr *domain.ErrSession
				assert.True(t, errors.As(err, &serr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSession_DisplayName(t *testing.T) {
	s := &domain.Session{Profile: map[string]any{"full_name": "Asha Rao", "email": "asha@bank.in"}}
	assert.Equal(t, "Asha Rao", s.DisplayName())
	assert.Equal(t, "asha@bank.in", s.Email())

	s = &domain.Session{Profile: map[string]any{"fullName": "Ravi K"}}
	assert.Equal(t, "Ravi K", s.DisplayName())
	assert.Empty(t, (&domain.Session{}).DisplayName())
}

func TestRolePaths(t *testing.T) {
	assert.Equal(t, "/user/login", domain.RoleUser.LoginPath())
	assert.Equal(t, "/admin/dashboard", domain.RoleAdmin.HomePath())
	_, ok := domain.ParseRole("root")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	acc := &domain.Account{
		AccountNumber:     "123456789012",
		AadharNumber:      "111122223333",
		AccountType:       domain.AccountSavings,
		AccountName:       "Asha Rao",
		BankName:          "Sim Bank",
		IFSCCode:          "SIMB0000001",
		PhoneNumberLinked: "9876543210",
		Balance:           1000,
	}
	require.NoError(t, domain.Validate(acc))

	acc.AccountType = "fixed"
	var verr *domain.ErrValidation
	require.True(t, errors.As(domain.Validate(acc), &verr))
	assert.Equal(t, "accountType", verr.Field)
	assert.Equal(t, "must be one of: savings current", verr.Message)

	acc.AccountType = domain.AccountCurrent
	acc.AccountNumber = "12345"
	require.True(t, errors.As(domain.Validate(acc), &verr))
	assert.Equal(t, "accountNumber", verr.Field)
}

func TestExport_FileName(t *testing.T) {
	e := &domain.Export{AccountNumber: "123456789012"}
	assert.Equal(t, "transactions_123456789012.xlsx", e.FileName())
	e.ContentType = "text/csv"
	assert.Equal(t, "transactions_123456789012.csv", e.FileName())
}

func TestAPIError(t *testing.T) {
	inner := errors.New("dial tcp: refused")
	err := &domain.APIError{Kind: domain.KindNetworkUnreachable, Message: "x", Method: "GET", Path: "/a", Err: inner}
	assert.ErrorIs(t, err, inner)

	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindNetworkUnreachable, kind)
	assert.False(t, domain.IsStatus(err, 404))

	_, ok = domain.KindOf(errors.New("plain"))
	assert.False(t, ok)
}
