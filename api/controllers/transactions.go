package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/nmartinez-dev/expensio-backend/api/middleware"
	"github.com/nmartinez-dev/expensio-backend/api/responses"
	"github.com/nmartinez-dev/expensio-backend/api/validators"
	"github.com/nmartinez-dev/expensio-backend/internal/transactions"
	pkgerrors "github.com/nmartinez-dev/expensio-backend/pkg/errors"
	"github.com/nmartinez-dev/expensio-backend/pkg/logger"
)

// createTransactionRequest is the create payload. Amount stays raw JSON so a
// number, a quoted number and garbage can be told apart: only the first two
// coerce, anything else falls into the canonical missing-fields error the
// clients match on.
type createTransactionRequest struct {
	UserID    string          `json:"user_id"`
	Email     *string         `json:"email"`
	Title     string          `json:"title"`
	Amount    json.RawMessage `json:"amount"`
	Category  *string         `json:"category"`
	Note      *string         `json:"note"`
	CreatedAt *time.Time      `json:"created_at"`
}

func (req createTransactionRequest) amount() *decimal.Decimal {
	raw := strings.TrimSpace(string(req.Amount))
	if raw == "" || raw == "null" {
		return nil
	}
	parsed, err := decimal.NewFromString(strings.Trim(raw, `"`))
	if err != nil {
		return nil
	}
	return &parsed
}

func (req createTransactionRequest) toInput(userID string) transactions.CreateInput {
	return transactions.CreateInput{
		UserID:    userID,
		Email:     req.Email,
		Title:     req.Title,
		Amount:    req.amount(),
		Category:  req.Category,
		Note:      req.Note,
		CreatedAt: req.CreatedAt,
	}
}

// TransactionsList returns the ledger rows for an explicitly addressed user.
func TransactionsList(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// TransactionsListMe returns the ledger rows for the resolved requester.
func TransactionsListMe(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// TransactionsCreate inserts a ledger row. The owner is the body's user_id
// when present; otherwise the requester headers fill it in, which lets thin
// clients omit their own id from every payload.
func TransactionsCreate(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := req.UserID
		if userID == "" {
			userID = middleware.RequesterID(r)
		}

		created, err := svc.Create(r.Context(), req.toInput(userID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, created)
	}
}

// TransactionsCreateMe inserts a ledger row owned by the resolved requester,
// ignoring any user_id in the body.
func TransactionsCreateMe(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), req.toInput(middleware.UserIDFromContext(r.Context())))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, created)
	}
}

// TransactionsDelete removes a row by numeric id and echoes the deleted row.
// The bodies here use a message field rather than the error envelope; the
// deployed clients parse these exact shapes.
func TransactionsDelete(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			responses.WriteJSON(w, http.StatusBadRequest, map[string]string{
				"message": "Invalid transaction ID",
			})
			return
		}

		deleted, err := svc.Delete(r.Context(), id)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				responses.WriteJSON(w, http.StatusNotFound, map[string]string{
					"message": "Transaction not found",
				})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"message": "Transaction deleted successfully",
			"deleted": deleted,
		})
	}
}

// TransactionsSummary returns balance/income/expenses for an explicit user.
func TransactionsSummary(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summarize(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// TransactionsSummaryMe returns the aggregates for the resolved requester.
func TransactionsSummaryMe(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summarize(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// TransactionsDebugUsers lists per-user row counts. The route is only
// registered outside production.
func TransactionsDebugUsers(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := svc.UserCounts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}
