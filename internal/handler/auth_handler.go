package handler

import (
	"net/http"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Login / logout
// ============================================================

func userLoginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /user/login")
		defer span.End()

		var req domain.UserCredentials
		if !decodeBody(w, r, &req) {
			return
		}

		out, err := authSvc.LoginUser(ctx, req.Email, req.Password)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func adminLoginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /admin/login")
		defer span.End()

		var req domain.AdminCredentials
		if !decodeBody(w, r, &req) {
			return
		}

		out, err := authSvc.LoginAdmin(ctx, req.Username, req.Password)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func logoutHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /logout")
		defer span.End()

		target, err := authSvc.Logout(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, redirectResponse{Redirect: target})
	}
}

type sessionResponse struct {
	Role  domain.Role `json:"role"`
	Name  string      `json:"name,omitempty"`
	Email string      `json:"email,omitempty"`
	Home  string      `json:"home"`
}

// sessionHandler reports who is logged in, without the token.
func sessionHandler(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := authSvc.Current()
		if !ok {
			writeError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{
			Role:  sess.Role,
			Name:  sess.DisplayName(),
			Email: sess.Email(),
			Home:  sess.Role.HomePath(),
		})
	}
}
