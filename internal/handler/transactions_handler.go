package handler

import (
	"net/http"
	"strconv"

	"github.com/boddenberg/banksim-client-go/internal/service"
	"github.com/boddenberg/banksim-client-go/internal/transfer"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Transfers and statements
// ============================================================

func transferHandler(wf *transfer.Workflow, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /user/transaction")
		defer span.End()

		var form transfer.Form
		if !decodeBody(w, r, &form) {
			return
		}

		out, err := wf.Submit(ctx, form)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("transfer.state", string(out.State)))
		writeJSON(w, http.StatusCreated, out)
	}
}

func searchTransactionsHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /user/transactions/{accountNumber}")
		defer span.End()

		txs, err := svc.Search(ctx, chi.URLParam(r, "accountNumber"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"transactions": txs,
			"total":        len(txs),
		})
	}
}

func downloadTransactionsHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /user/transactions/{accountNumber}/download")
		defer span.End()

		export, err := svc.Download(ctx, chi.URLParam(r, "accountNumber"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName()+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
		w.WriteHeader(http.StatusOK)
		w.Write(export.Data)
	}
}
