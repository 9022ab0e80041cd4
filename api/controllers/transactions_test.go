package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/nmartinez-dev/expensio-backend/api/middleware"
	"github.com/nmartinez-dev/expensio-backend/internal/transactions"
	pkgerrors "github.com/nmartinez-dev/expensio-backend/pkg/errors"
)

type stubTxnService struct {
	list       func(ctx context.Context, userID string) ([]transactions.TransactionDTO, error)
	create     func(ctx context.Context, input transactions.CreateInput) (*transactions.TransactionDTO, error)
	deleteFn   func(ctx context.Context, id int64) (*transactions.TransactionDTO, error)
	summarize  func(ctx context.Context, userID string) (*transactions.SummaryDTO, error)
	userCounts func(ctx context.Context) ([]transactions.UserCountDTO, error)
}

func (s *stubTxnService) List(ctx context.Context, userID string) ([]transactions.TransactionDTO, error) {
	return s.list(ctx, userID)
}

func (s *stubTxnService) Create(ctx context.Context, input transactions.CreateInput) (*transactions.TransactionDTO, error) {
	return s.create(ctx, input)
}

func (s *stubTxnService) Delete(ctx context.Context, id int64) (*transactions.TransactionDTO, error) {
	return s.deleteFn(ctx, id)
}

func (s *stubTxnService) Summarize(ctx context.Context, userID string) (*transactions.SummaryDTO, error) {
	return s.summarize(ctx, userID)
}

func (s *stubTxnService) UserCounts(ctx context.Context) ([]transactions.UserCountDTO, error) {
	return s.userCounts(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestTransactionsListSuccess(t *testing.T) {
	svc := &stubTxnService{
		list: func(ctx context.Context, userID string) ([]transactions.TransactionDTO, error) {
			if userID != "u1" {
				t.Fatalf("expected userID u1 got %q", userID)
			}
			return []transactions.TransactionDTO{
				{ID: 2, UserID: "u1", Title: "Salary", Amount: decimal.RequireFromString("2500")},
				{ID: 1, UserID: "u1", Title: "Coffee", Amount: decimal.RequireFromString("-3.5")},
			}, nil
		},
	}
	handler := TransactionsList(svc, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/transactions/u1", nil), "userID", "u1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var rows []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&rows); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows got %d", len(rows))
	}
	// amounts serialize as bare numbers, not quoted strings
	if rows[1]["amount"] != -3.5 {
		t.Fatalf("expected amount -3.5 got %v", rows[1]["amount"])
	}
}

func TestTransactionsListMissingUser(t *testing.T) {
	svc := &stubTxnService{
		list: func(ctx context.Context, userID string) ([]transactions.TransactionDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing userId")
		},
	}
	handler := TransactionsList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/transactions/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "Missing userId" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestTransactionsCreateSuccess(t *testing.T) {
	var gotInput transactions.CreateInput
	svc := &stubTxnService{
		create: func(ctx context.Context, input transactions.CreateInput) (*transactions.TransactionDTO, error) {
			gotInput = input
			return &transactions.TransactionDTO{
				ID:     7,
				UserID: input.UserID,
				Title:  input.Title,
				Amount: *input.Amount,
			}, nil
		},
	}
	handler := TransactionsCreate(svc, nil)

	payload := []byte(`{"user_id":"u1","title":"Coffee","amount":-3.5,"category":"Food"}`)
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if gotInput.UserID != "u1" || gotInput.Title != "Coffee" {
		t.Fatalf("unexpected input: %+v", gotInput)
	}
	if gotInput.Amount == nil || !gotInput.Amount.Equal(decimal.RequireFromString("-3.5")) {
		t.Fatalf("unexpected amount: %v", gotInput.Amount)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["id"] != float64(7) {
		t.Fatalf("expected id 7 got %v", body["id"])
	}
	if body["amount"] != -3.5 {
		t.Fatalf("expected amount -3.5 got %v", body["amount"])
	}
}

func TestTransactionsCreateResolvesRequesterHeader(t *testing.T) {
	var gotUserID string
	svc := &stubTxnService{
		create: func(ctx context.Context, input transactions.CreateInput) (*transactions.TransactionDTO, error) {
			gotUserID = input.UserID
			return &transactions.TransactionDTO{ID: 1, UserID: input.UserID, Title: input.Title}, nil
		},
	}
	handler := TransactionsCreate(svc, nil)

	payload := []byte(`{"title":"Coffee","amount":-3.5}`)
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(payload))
	req.Header.Set("X-User-Id", "hdr-user")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if gotUserID != "hdr-user" {
		t.Fatalf("expected resolved user hdr-user got %q", gotUserID)
	}
}

func TestTransactionsCreateBodyUserIDWins(t *testing.T) {
	var gotUserID string
	svc := &stubTxnService{
		create: func(ctx context.Context, input transactions.CreateInput) (*transactions.TransactionDTO, error) {
			gotUserID = input.UserID
			return &transactions.TransactionDTO{ID: 1}, nil
		},
	}
	handler := TransactionsCreate(svc, nil)

	payload := []byte(`{"user_id":"body-user","title":"Coffee","amount":1}`)
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(payload))
	req.Header.Set("X-User-Id", "hdr-user")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotUserID != "body-user" {
		t.Fatalf("expected body user to win, got %q", gotUserID)
	}
}

func TestTransactionsCreateNonNumericAmount(t *testing.T) {
	svc := &stubTxnService{
		create: func(ctx context.Context, input transactions.CreateInput) (*transactions.TransactionDTO, error) {
			if input.Amount != nil {
				t.Fatalf("expected nil amount for garbage input, got %v", input.Amount)
			}
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				"Missing or invalid fields: user_id, title and numeric amount are required")
		},
	}
	handler := TransactionsCreate(svc, nil)

	payload := []byte(`{"user_id":"u1","title":"Coffee","amount":"not-a-number"}`)
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "Missing or invalid fields: user_id, title and numeric amount are required" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestTransactionsCreateQuotedAmountCoerces(t *testing.T) {
	var got *decimal.Decimal
	svc := &stubTxnService{
		create: func(ctx context.Context, input transactions.CreateInput) (*transactions.TransactionDTO, error) {
			got = input.Amount
			return &transactions.TransactionDTO{ID: 1}, nil
		},
	}
	handler := TransactionsCreate(svc, nil)

	payload := []byte(`{"user_id":"u1","title":"Coffee","amount":"-3.50"}`)
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got == nil || !got.Equal(decimal.RequireFromString("-3.5")) {
		t.Fatalf("expected quoted amount to coerce, got %v", got)
	}
}

func TestTransactionsCreateMeUsesContextIdentity(t *testing.T) {
	var gotUserID string
	svc := &stubTxnService{
		create: func(ctx context.Context, input transactions.CreateInput) (*transactions.TransactionDTO, error) {
			gotUserID = input.UserID
			return &transactions.TransactionDTO{ID: 1}, nil
		},
	}
	handler := TransactionsCreateMe(svc, nil)

	payload := []byte(`{"user_id":"spoofed","title":"Coffee","amount":1}`)
	req := httptest.NewRequest(http.MethodPost, "/transactions/me", bytes.NewReader(payload))
	req = req.WithContext(middleware.WithUserID(req.Context(), "resolved-user"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotUserID != "resolved-user" {
		t.Fatalf("expected resolved identity to win, got %q", gotUserID)
	}
}

func TestTransactionsDeleteInvalidID(t *testing.T) {
	handler := TransactionsDelete(&stubTxnService{}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/transactions/abc", nil), "id", "abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["message"] != "Invalid transaction ID" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestTransactionsDeleteNotFound(t *testing.T) {
	svc := &stubTxnService{
		deleteFn: func(ctx context.Context, id int64) (*transactions.TransactionDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Transaction not found")
		},
	}
	handler := TransactionsDelete(svc, nil)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/transactions/99", nil), "id", "99")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["message"] != "Transaction not found" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestTransactionsDeleteSuccess(t *testing.T) {
	svc := &stubTxnService{
		deleteFn: func(ctx context.Context, id int64) (*transactions.TransactionDTO, error) {
			if id != 42 {
				t.Fatalf("expected id 42 got %d", id)
			}
			return &transactions.TransactionDTO{ID: 42, UserID: "u1", Title: "Rent"}, nil
		},
	}
	handler := TransactionsDelete(svc, nil)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/transactions/42", nil), "id", "42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body struct {
		Message string                      `json:"message"`
		Deleted transactions.TransactionDTO `json:"deleted"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Message != "Transaction deleted successfully" {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if body.Deleted.ID != 42 {
		t.Fatalf("expected deleted id 42 got %d", body.Deleted.ID)
	}
}

func TestTransactionsSummarySuccess(t *testing.T) {
	svc := &stubTxnService{
		summarize: func(ctx context.Context, userID string) (*transactions.SummaryDTO, error) {
			return &transactions.SummaryDTO{
				Balance:  decimal.RequireFromString("-3.5"),
				Income:   decimal.Zero,
				Expenses: decimal.RequireFromString("-3.5"),
			}, nil
		},
	}
	handler := TransactionsSummary(svc, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/transactions/summary/u1", nil), "userID", "u1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["balance"] != -3.5 || body["income"] != float64(0) || body["expenses"] != -3.5 {
		t.Fatalf("unexpected summary body: %v", body)
	}
}

func TestTransactionsSummaryMeUsesContextIdentity(t *testing.T) {
	svc := &stubTxnService{
		summarize: func(ctx context.Context, userID string) (*transactions.SummaryDTO, error) {
			if userID != "resolved-user" {
				t.Fatalf("expected resolved-user got %q", userID)
			}
			return &transactions.SummaryDTO{}, nil
		},
	}
	handler := TransactionsSummaryMe(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/transactions/summary/me", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "resolved-user"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestTransactionsDebugUsers(t *testing.T) {
	svc := &stubTxnService{
		userCounts: func(ctx context.Context) ([]transactions.UserCountDTO, error) {
			return []transactions.UserCountDTO{{UserID: "busy", Count: 9}}, nil
		},
	}
	handler := TransactionsDebugUsers(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/transactions/__debug/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var rows []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&rows); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rows) != 1 || rows[0]["user_id"] != "busy" || rows[0]["cnt"] != float64(9) {
		t.Fatalf("unexpected rows: %v", rows)
	}
}
