package simulator

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/boddenberg/banksim-client-go/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "banking-simulator"})
}

// ============================================================
// Auth
// ============================================================

type signupRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := domain.Validate(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := s.store.Signup(req.FullName, req.Email, req.Password)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Signup successful", "userId": u.ID})
}

func (s *Server) handleUserLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.UserCredentials
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	token, err := s.signToken(strconv.Itoa(u.ID), domain.RoleUser)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.logger.Debug("simulator: user login", zap.Int("user_id", u.ID))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user": map[string]any{
			"userId":   u.ID,
			"fullName": u.FullName,
			"email":    u.Email,
		},
	})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.AdminCredentials
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Username != s.cfg.AdminUser || bcrypt.CompareHashAndPassword(s.adminHash, []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "Invalid credentials"})
		return
	}
	token, err := s.signToken(req.Username, domain.RoleAdmin)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Login successful",
		"token":   token,
		"admin":   map[string]any{"username": req.Username},
	})
}

// ============================================================
// Customers
// ============================================================

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c domain.Customer
	if !decodeBody(w, r, &c) {
		return
	}
	if err := domain.Validate(&c); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.store.CreateCustomer(c)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Customer(chi.URLParam(r, "aadhar"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var c domain.Customer
	if !decodeBody(w, r, &c) {
		return
	}
	c.AadharNumber = chi.URLParam(r, "aadhar")
	if err := domain.Validate(&c); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.store.UpdateCustomer(c.AadharNumber, c)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Customers())
}

func (s *Server) handleCustomerByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	c, err := s.store.CustomerByUser(userID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ============================================================
// Accounts
// ============================================================

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a domain.Account
	if !decodeBody(w, r, &a) {
		return
	}
	if err := domain.Validate(&a); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.store.CreateAccount(a)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Account(chi.URLParam(r, "accountNumber"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var a domain.Account
	if !decodeBody(w, r, &a) {
		return
	}

	updated, err := s.store.UpdateAccount(chi.URLParam(r, "accountNumber"), a)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "accountNumber")
	if err := s.store.DeleteAccount(number); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Account with number "+number+" deleted")
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Accounts())
}

// ============================================================
// Transactions
// ============================================================

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tx, err := s.store.Transfer(req)
	if err != nil {
		s.logger.Debug("simulator: transfer refused", zap.String("sender", req.SenderAccountNumber), zap.Error(err))
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.TransactionsFor(chi.URLParam(r, "accountNumber")))
}

// handleDownload writes the account's statement as CSV.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "accountNumber")
	txs := s.store.TransactionsFor(number)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions_`+number+`.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	cw.Write([]string{"Transaction ID", "Sender", "Receiver", "Amount", "Description", "Time"})
	for _, tx := range txs {
		cw.Write([]string{
			strconv.Itoa(tx.TransactionID),
			tx.SenderAccountNumber,
			tx.ReceiverAccountNumber,
			strconv.FormatFloat(tx.Amount, 'f', 2, 64),
			strings.ReplaceAll(tx.Description, "\n", " "),
			tx.TransactionTime,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Error("simulator: write statement", zap.String("account", number), zap.Error(err))
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Transactions())
}

// ============================================================
// Queries
// ============================================================

func (s *Server) handleCreateQuery(w http.ResponseWriter, r *http.Request) {
	var q domain.Query
	if !decodeBody(w, r, &q) {
		return
	}
	if err := domain.Validate(&q); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s.store.CreateQuery(q))
}

func (s *Server) handleListQueries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Queries())
}
