package repository

import (
	"context"
	"net/http"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/gateway"
	"github.com/boddenberg/banksim-client-go/internal/port"
)

// AuthRepo calls the login endpoints. A rejected login leaves the current
// session alone.
type AuthRepo struct {
	api port.Requester
}

// NewAuthRepo creates an AuthRepo.
func NewAuthRepo(api port.Requester) *AuthRepo {
	return &AuthRepo{api: api}
}

// LoginUser logs a staff user in with email and password.
func (r *AuthRepo) LoginUser(ctx context.Context, email, password string) (*port.LoginResult, error) {
	ctx, span := tracer.Start(ctx, "AuthRepo.LoginUser")
	defer span.End()

	creds := &domain.UserCredentials{Email: email, Password: password}
	if err := domain.Validate(creds); err != nil {
		return nil, err
	}
	return r.login(ctx, "/user/login", creds, "user", gateway.Operation("auth.login_user"))
}

// LoginAdmin logs an administrator in with username and password.
func (r *AuthRepo) LoginAdmin(ctx context.Context, username, password string) (*port.LoginResult, error) {
	ctx, span := tracer.Start(ctx, "AuthRepo.LoginAdmin")
	defer span.End()

	creds := &domain.AdminCredentials{Username: username, Password: password}
	if err := domain.Validate(creds); err != nil {
		return nil, err
	}
	return r.login(ctx, "/admin/login", creds, "admin", gateway.Operation("auth.login_admin"))
}

// login posts creds and splits the answer into token and profile. The
// profile is the response's profileKey object when present, else the
// whole body.
func (r *AuthRepo) login(ctx context.Context, path string, creds any, profileKey string, op gateway.CallOption) (*port.LoginResult, error) {
	resp, err := r.api.Do(ctx, http.MethodPost, path, creds, gateway.KeepSession(), op)
	if err != nil {
		return nil, err
	}

	body, err := decodeRecord(resp)
	if err != nil {
		return nil, err
	}

	res := &port.LoginResult{Profile: body}
	if tok, ok := body["token"].(string); ok {
		res.Token = tok
	}
	if msg, ok := body["message"].(string); ok {
		res.Message = msg
	}
	if nested, ok := body[profileKey].(map[string]any); ok {
		res.Profile = nested
	}
	return res, nil
}
