package handler

import (
	"net/http"
	"strconv"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/service"

	"go.uber.org/zap"
)

func userDashboardHandler(svc *service.UserDashboard, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /user/dashboard")
		defer span.End()

		view, err := svc.Load(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// adminDashboardHandler serves one tab of the admin dashboard.
// Query parameters: tab (default customers), q (filter term), refresh.
func adminDashboardHandler(svc *service.AdminDashboard, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/dashboard")
		defer span.End()

		q := r.URL.Query()
		tab := domain.EntityCustomers
		if v := q.Get("tab"); v != "" {
			tab = domain.EntityType(v)
		}
		refresh, _ := strconv.ParseBool(q.Get("refresh"))

		view, err := svc.Show(ctx, tab, q.Get("q"), refresh)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
