package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tillbook/backend/internal/domain"
	"tillbook/backend/internal/service"
	"tillbook/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, nil, "test-till", time.Second)
	auth := NewAuthManager("test-secret-key", time.Hour, "739154", repo)

	return New(svc, auth, "*")
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "cashier",
		"password": "cashier123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.AccessToken == "" || body.Role != "cashier" {
		t.Fatalf("expected cashier token in response, got %+v", body)
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "cashier",
		"password": "wrongpassword",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleShifts_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shifts", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

// TestShiftSaleFlow walks the happy path a POS terminal follows: open a
// shift, ring a sale, read the expected drawer back.
func TestShiftSaleFlow(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, api, "cashier", "cashier123")
	csrf := fetchCSRFToken(t, api)

	shift := postJSON[struct {
		Shift domain.Shift `json:"shift"`
	}](t, handler, "/api/v1/shifts", token, csrf, domain.ShiftOpenRequest{
		CashierID:         "cashier",
		StartingCashCents: 10000,
	}, http.StatusCreated).Shift
	if shift.ID == "" || shift.Status != domain.ShiftStatusActive {
		t.Fatalf("unexpected shift %+v", shift)
	}

	tx := postJSON[struct {
		Transaction domain.Transaction `json:"transaction"`
	}](t, handler, "/api/v1/transactions", token, csrf, domain.SaleInput{
		ShiftID: shift.ID,
		Items: []domain.SaleItemInput{
			{ProductID: "prod-latte", ProductName: "Latte", Quantity: 2, UnitPriceCents: 550},
		},
		PaymentMethod: domain.PaymentCash,
		SubtotalCents: 1100,
		TotalCents:    1100,
	}, http.StatusCreated).Transaction
	if tx.Status != domain.TxStatusCompleted || tx.CashAmountCents != 1100 {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shifts/"+shift.ID+"/expected-cash", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected-cash returned %d: %s", rec.Code, rec.Body.String())
	}
	var expected domain.ExpectedCash
	if err := json.NewDecoder(rec.Body).Decode(&expected); err != nil {
		t.Fatalf("decode expected-cash: %v", err)
	}
	if expected.ExpectedAmountCents != 11100 {
		t.Fatalf("expected cash = %d, want 11100", expected.ExpectedAmountCents)
	}
}

func TestHandleReconcile_RequiresManagerRole(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, api, "cashier", "cashier123")
	csrf := fetchCSRFToken(t, api)

	payload, _ := json.Marshal(domain.ShiftReconcileRequest{ActualCashDrawerCents: 1000})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shifts/shift-x/reconcile", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier reconcile, got %d", rec.Code)
	}
}

func TestHandleManagerApproval(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, api, "cashier", "cashier123")
	csrf := fetchCSRFToken(t, api)

	approval := postJSON[domain.ManagerApproval](t, handler, "/api/v1/auth/manager-approval",
		token, csrf, domain.ManagerApprovalRequest{PIN: "739154"}, http.StatusOK)
	if !strings.HasPrefix(approval.ApprovalID, "appr") {
		t.Fatalf("unexpected approval id %q", approval.ApprovalID)
	}

	payload, _ := json.Marshal(domain.ManagerApprovalRequest{PIN: "000000"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/manager-approval", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong pin, got %d", rec.Code)
	}
}

func TestHandleVoid_RejectsUnmintedApprovalID(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, api, "cashier", "cashier123")
	csrf := fetchCSRFToken(t, api)

	payload, _ := json.Marshal(domain.VoidRequest{
		Reason:            "late void",
		ManagerApprovalID: "appr-forged",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/tx-any/void", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for an approval id that was never minted, got %d", rec.Code)
	}
}

func TestHandleTransactionLookup_NotFound(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, api, "cashier", "cashier123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/tx-nope", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

// postJSON posts a JSON payload with auth and CSRF headers, asserts the
// status and decodes the response body.
func postJSON[T any](t *testing.T, handler http.Handler, path string, token string, csrf string, payload any, wantStatus int) T {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != wantStatus {
		t.Fatalf("POST %s returned %d, want %d (body: %s)", path, rec.Code, wantStatus, rec.Body.String())
	}
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
	return out
}

func loginAs(t *testing.T, api *API, username string, password string) string {
	t.Helper()

	body, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = fmt.Sprintf("127.0.0.%d:4000", len(username))
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("%s login failed, status %d", username, res.Code)
	}

	var payload domain.LoginResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login response failed: %v", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		t.Fatalf("expected access token in login response")
	}
	return payload.AccessToken
}
