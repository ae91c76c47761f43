package handler

import (
	"net/http"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func createCustomerHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /user/customer")
		defer span.End()

		var req domain.Customer
		if !decodeBody(w, r, &req) {
			return
		}

		res, err := svc.Create(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func getCustomerHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /user/customer/{aadhar}")
		defer span.End()

		c, err := svc.Get(ctx, chi.URLParam(r, "aadhar"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func updateCustomerHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /user/customer/{aadhar}")
		defer span.End()

		var req domain.Customer
		if !decodeBody(w, r, &req) {
			return
		}

		res, err := svc.Update(ctx, chi.URLParam(r, "aadhar"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
