package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/thetz25/LendingManagement/pkg/assist"
	"github.com/thetz25/LendingManagement/pkg/auth"
	"github.com/thetz25/LendingManagement/pkg/ledger"
	"github.com/thetz25/LendingManagement/pkg/models"
	"github.com/thetz25/LendingManagement/pkg/store"
)

const dateLayout = "2006-01-02"

// Server holds the ledger instance and its collaborators.
type Server struct {
	ledger    *ledger.Ledger
	storage   store.Storage
	assistant *assist.Client
	auth      *auth.Manager
}

func NewServer(s store.Storage, assistant *assist.Client, authMgr *auth.Manager) *Server {
	return &Server{
		ledger:    ledger.NewLedger(s),
		storage:   s,
		assistant: assistant,
		auth:      authMgr,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleLedgerError maps not-found errors to 404 and everything else to 500.
func handleLedgerError(w http.ResponseWriter, err error) {
	switch err.Error() {
	case "loan not found", "borrower not found":
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// parseDateParam reads an optional ?date=YYYY-MM-DD query parameter,
// defaulting to now.
func parseDateParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), nil
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return date, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) createBorrowerHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	borrower, err := s.ledger.RegisterBorrower(req.Name, req.Phone, req.Address)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, borrower)
}

func (s *Server) listBorrowersHandler(w http.ResponseWriter, r *http.Request) {
	borrowers, err := s.ledger.GetAllBorrowers()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, borrowers)
}

func (s *Server) getBorrowerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid borrower ID", http.StatusBadRequest)
		return
	}

	borrower, err := s.ledger.GetBorrower(id)
	if err != nil {
		handleLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, borrower)
}

func (s *Server) updateBorrowerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid borrower ID", http.StatusBadRequest)
		return
	}

	var borrower models.Borrower
	if err := json.NewDecoder(r.Body).Decode(&borrower); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	borrower.ID = id // Ensure ID from URL is used

	if err := s.ledger.UpdateBorrower(&borrower); err != nil {
		handleLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, borrower)
}

func (s *Server) borrowerStandingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid borrower ID", http.StatusBadRequest)
		return
	}
	date, err := parseDateParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.ledger.BorrowerStanding(id, date)
	if err != nil {
		handleLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) borrowerNarrativeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid borrower ID", http.StatusBadRequest)
		return
	}

	result, err := s.ledger.BorrowerStanding(id, time.Now())
	if err != nil {
		handleLedgerError(w, err)
		return
	}
	summary, err := s.ledger.HistorySummary(id)
	if err != nil {
		handleLedgerError(w, err)
		return
	}

	narrative := s.assistant.RiskNarrative(string(result.Status), summary)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    string(result.Status),
		"reason":    result.Reason,
		"narrative": narrative,
	})
}

func (s *Server) issueLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BorrowerID   uuid.UUID               `json:"borrower_id"`
		Principal    decimal.Decimal         `json:"principal"`
		InterestRate decimal.Decimal         `json:"interest_rate"`
		StartDate    string                  `json:"start_date,omitempty"`
		TermDays     int                     `json:"term_days"`
		Frequency    models.PaymentFrequency `json:"payment_frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var start time.Time
	if req.StartDate != "" {
		var err error
		start, err = time.Parse(dateLayout, req.StartDate)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid start_date %q, want YYYY-MM-DD", req.StartDate), http.StatusBadRequest)
			return
		}
	}

	loan, err := s.ledger.IssueLoan(req.BorrowerID, req.Principal, req.InterestRate, start, req.TermDays, req.Frequency)
	if err != nil {
		slog.Error("Failed to issue loan", "error", err)
		http.Error(w, fmt.Sprintf("Failed to issue loan: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.ledger.GetAllLoans()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	loan, err := s.ledger.GetLoan(id)
	if err != nil {
		handleLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Amount      decimal.Decimal `json:"amount"`
		PaymentDate string          `json:"payment_date,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var paidAt time.Time
	if req.PaymentDate != "" {
		paidAt, err = time.Parse(dateLayout, req.PaymentDate)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid payment_date %q, want YYYY-MM-DD", req.PaymentDate), http.StatusBadRequest)
			return
		}
	}

	payment, err := s.ledger.RecordPayment(id, req.Amount, paidAt)
	if err != nil {
		switch err {
		case ledger.ErrInvalidAmount, ledger.ErrLoanNotActive:
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			handleLedgerError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, payment)
}

func (s *Server) defaultLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	loan, err := s.ledger.MarkDefaulted(id)
	if err != nil {
		if err == ledger.ErrLoanNotActive {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		handleLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) loanScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	date, err := parseDateParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := s.ledger.LoanSchedule(id, date)
	if err != nil {
		handleLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) collectionsHandler(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := s.ledger.CollectionWorklist(date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) reminderHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Tone string `json:"tone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loan, err := s.ledger.GetLoan(id)
	if err != nil {
		handleLedgerError(w, err)
		return
	}
	borrower, err := s.ledger.GetBorrower(loan.BorrowerID)
	if err != nil {
		handleLedgerError(w, err)
		return
	}

	dueDate, amountDue := s.ledger.NextDue(*loan, time.Now())
	text := s.assistant.DraftReminder(borrower.Name, amountDue, dueDate, req.Tone)

	writeJSON(w, http.StatusOK, map[string]string{
		"borrower": borrower.Name,
		"message":  text,
	})
}

// router wires all routes. Everything except login sits behind the auth
// middleware.
func (s *Server) router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/login", s.loginHandler).Methods("POST")

	api := router.PathPrefix("/").Subrouter()
	api.Use(s.auth.Middleware)

	api.HandleFunc("/borrowers", s.listBorrowersHandler).Methods("GET")
	api.HandleFunc("/borrowers", s.createBorrowerHandler).Methods("POST")
	api.HandleFunc("/borrowers/{id}", s.getBorrowerHandler).Methods("GET")
	api.HandleFunc("/borrowers/{id}", s.updateBorrowerHandler).Methods("PUT")
	api.HandleFunc("/borrowers/{id}/standing", s.borrowerStandingHandler).Methods("GET")
	api.HandleFunc("/borrowers/{id}/narrative", s.borrowerNarrativeHandler).Methods("POST")

	api.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	api.HandleFunc("/loans", s.issueLoanHandler).Methods("POST")
	api.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	api.HandleFunc("/loans/{id}/payments", s.recordPaymentHandler).Methods("POST")
	api.HandleFunc("/loans/{id}/default", s.defaultLoanHandler).Methods("POST")
	api.HandleFunc("/loans/{id}/schedule", s.loanScheduleHandler).Methods("GET")
	api.HandleFunc("/loans/{id}/reminder", s.reminderHandler).Methods("POST")

	api.HandleFunc("/collections", s.collectionsHandler).Methods("GET")

	return router
}
