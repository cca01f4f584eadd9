package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"treasury/internal/core"
	"treasury/internal/storage"
)

func (s *Server) handleIncomes(w http.ResponseWriter, r *http.Request) {
	s.handleLedgerCollection(w, r, core.KindIncome)
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	s.handleLedgerCollection(w, r, core.KindExpense)
}

func (s *Server) handleIncomeByID(w http.ResponseWriter, r *http.Request) {
	s.handleLedgerItem(w, r, core.KindIncome, "/api/incomes/")
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	s.handleLedgerItem(w, r, core.KindExpense, "/api/expenses/")
}

func (s *Server) handleLedgerCollection(w http.ResponseWriter, r *http.Request, kind core.Kind) {
	switch r.Method {
	case http.MethodGet:
		rng, err := dateRangeFromQuery(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		items, err := s.ledger.ListTransactions(r.Context(), kind, rng)
		if err != nil {
			slog.ErrorContext(r.Context(), "Ledger list error", "kind", kind, "error", err)
			httpError(w, http.StatusInternalServerError, "could not list transactions")
			return
		}
		out := make([]transactionResponse, len(items))
		for i, t := range items {
			out[i] = toTransactionResponse(t)
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var req transactionRequest
		if err := decodeRequest(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		t, err := req.toDomain(kind)
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		id, err := s.ledger.CreateTransaction(r.Context(), sessionFromContext(r.Context()), t)
		if err != nil {
			status := http.StatusUnprocessableEntity
			if !isDomainError(err) {
				slog.ErrorContext(r.Context(), "Transaction create error", "kind", kind, "error", err)
				status = http.StatusInternalServerError
			}
			httpError(w, status, err.Error())
			return
		}
		t.ID = id
		writeJSON(w, http.StatusCreated, toTransactionResponse(t))

	default:
		w.Header().Set("Allow", "GET, POST")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleLedgerItem(w http.ResponseWriter, r *http.Request, kind core.Kind, prefix string) {
	id, ok := idFromPath(r.URL.Path, prefix)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := s.ledger.GetTransaction(r.Context(), kind, id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "transaction not found")
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Transaction get error", "kind", kind, "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "could not load transaction")
			return
		}
		writeJSON(w, http.StatusOK, toTransactionResponse(t))

	case http.MethodPut:
		var req transactionRequest
		if err := decodeRequest(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		t, err := req.toDomain(kind)
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		t.ID = id
		err = s.ledger.UpdateTransaction(r.Context(), sessionFromContext(r.Context()), t)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "transaction not found")
			return
		}
		if err != nil {
			if isDomainError(err) {
				httpError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			slog.ErrorContext(r.Context(), "Transaction update error", "kind", kind, "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "could not update transaction")
			return
		}
		writeJSON(w, http.StatusOK, toTransactionResponse(t))

	case http.MethodDelete:
		err := s.ledger.DeleteTransaction(r.Context(), sessionFromContext(r.Context()), kind, id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "transaction not found")
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Transaction delete error", "kind", kind, "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "could not delete transaction")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// decodeRequest parses a JSON body and runs struct validation on it.
func decodeRequest(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid payload: " + err.Error())
	}
	if err := validate.Struct(v); err != nil {
		return err
	}
	return nil
}

func idFromPath(path, prefix string) (int64, bool) {
	rest := strings.TrimSuffix(strings.TrimPrefix(path, prefix), "/")
	if rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func dateRangeFromQuery(r *http.Request) (storage.DateRange, error) {
	var rng storage.DateRange
	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return rng, errors.New("invalid start date")
		}
		rng.Start = d
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return rng, errors.New("invalid end date")
		}
		rng.End = d
	}
	return rng, nil
}

// isDomainError separates validation failures from infrastructure failures.
func isDomainError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidKind) ||
		errors.Is(err, core.ErrEmptyCategory) ||
		errors.Is(err, core.ErrEmptyPayer) ||
		errors.Is(err, core.ErrEmptyName)
}
