package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"despesas/internal/memory"
	"despesas/internal/services"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	ledger := services.NewLedgerService(memory.NewStore(), nil)
	s := NewServer(":0", ledger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
	return v
}

// Dates far in the future keep pending expenses from resolving to overdue,
// so assertions do not depend on the test run date.
func monthlyRent(amount string) transactionRequest {
	return transactionRequest{
		Description: "Rent",
		Category:    "Housing",
		Type:        "expense",
		Frequency:   "monthly",
		Amount:      amount,
		AnchorDate:  "2100-01-15",
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, target, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want %d", target, rec.Code, http.StatusOK)
		}
	}
}

func TestCreateAndMonthView(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", monthlyRent("850.00"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[masterResponse](t, rec)
	if created.ID == "" {
		t.Fatal("created transaction has no id")
	}
	if created.Status != "pending" {
		t.Errorf("Status = %q, want pending", created.Status)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transactions?year=2100&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("month view = %d, body %s", rec.Code, rec.Body.String())
	}
	view := decodeBody[monthResponse](t, rec)
	if view.MonthKey != "2100-03" {
		t.Errorf("MonthKey = %q, want 2100-03", view.MonthKey)
	}
	if len(view.Occurrences) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(view.Occurrences))
	}
	occ := view.Occurrences[0]
	if occ.Date != "2100-03-15" {
		t.Errorf("Date = %q, want 2100-03-15", occ.Date)
	}
	if occ.Status != "pending" {
		t.Errorf("Status = %q, want pending", occ.Status)
	}
	if view.Summary.PendingExpenses != "850.00" {
		t.Errorf("PendingExpenses = %q, want 850.00", view.Summary.PendingExpenses)
	}
	if view.Summary.Balance != "-850.00" {
		t.Errorf("Balance = %q, want -850.00", view.Summary.Balance)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*transactionRequest)
		want   int
	}{
		{"bad amount", func(r *transactionRequest) { r.Amount = "abc" }, http.StatusUnprocessableEntity},
		{"negative amount", func(r *transactionRequest) { r.Amount = "-5.00" }, http.StatusUnprocessableEntity},
		{"bad date format", func(r *transactionRequest) { r.AnchorDate = "15/01/2100" }, http.StatusUnprocessableEntity},
		{"unknown frequency", func(r *transactionRequest) { r.Frequency = "weekly" }, http.StatusUnprocessableEntity},
		{"empty description", func(r *transactionRequest) { r.Description = "" }, http.StatusUnprocessableEntity},
		{"unknown type", func(r *transactionRequest) { r.Type = "transfer" }, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			req := monthlyRent("850.00")
			tt.mutate(&req)

			rec := doJSON(t, s, http.MethodPost, "/api/transactions", req)
			if rec.Code != tt.want {
				t.Errorf("create = %d, want %d, body %s", rec.Code, tt.want, rec.Body.String())
			}
			resp := decodeBody[errorResponse](t, rec)
			if resp.Error == "" {
				t.Error("error response has empty message")
			}
		})
	}
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateTransaction(t *testing.T) {
	s := newTestServer(t)

	created := decodeBody[masterResponse](t,
		doJSON(t, s, http.MethodPost, "/api/transactions", monthlyRent("850.00")))

	updated := monthlyRent("900.00")
	rec := doJSON(t, s, http.MethodPut, "/api/transactions/"+created.ID, updated)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d, body %s", rec.Code, rec.Body.String())
	}
	got := decodeBody[masterResponse](t, rec)
	if got.Amount != "900.00" {
		t.Errorf("Amount = %q, want 900.00", got.Amount)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/transactions/missing", updated)
	if rec.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdateRoundTripsAllRecordKinds(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		payload transactionRequest
	}{
		{"once", transactionRequest{
			Description: "Concert tickets",
			Category:    "Leisure",
			Type:        "expense",
			Frequency:   "once",
			Amount:      "60.00",
			AnchorDate:  "2100-05-02",
		}},
		{"monthly", monthlyRent("850.00")},
		{"installment", transactionRequest{
			Description:       "Fridge",
			Category:          "Home",
			Type:              "expense",
			Frequency:         "installment",
			Amount:            "100.00",
			AnchorDate:        "2100-01-10",
			TotalAmount:       "300.00",
			TotalInstallments: 3,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := decodeBody[masterResponse](t,
				doJSON(t, s, http.MethodPost, "/api/transactions", tt.payload))

			// Putting the same payload back is a no-op edit and must succeed.
			rec := doJSON(t, s, http.MethodPut, "/api/transactions/"+created.ID, tt.payload)
			if rec.Code != http.StatusOK {
				t.Fatalf("update = %d, body %s", rec.Code, rec.Body.String())
			}
			got := decodeBody[masterResponse](t, rec)
			if got.Status != created.Status {
				t.Errorf("Status = %q, want %q", got.Status, created.Status)
			}
			if got.InstallmentGroupID != created.InstallmentGroupID {
				t.Errorf("InstallmentGroupID = %q, want %q",
					got.InstallmentGroupID, created.InstallmentGroupID)
			}
		})
	}
}

func TestMarkPaidInvalidatesCachedMonth(t *testing.T) {
	s := newTestServer(t)

	created := decodeBody[masterResponse](t,
		doJSON(t, s, http.MethodPost, "/api/transactions", monthlyRent("850.00")))

	// Prime the cache for March.
	view := decodeBody[monthResponse](t,
		doJSON(t, s, http.MethodGet, "/api/transactions?year=2100&month=3", nil))
	if view.Occurrences[0].Status != "pending" {
		t.Fatalf("Status = %q, want pending", view.Occurrences[0].Status)
	}

	rec := doJSON(t, s, http.MethodPost, "/api/transactions/"+created.ID+"/pay",
		map[string]string{"date": "2100-03-15"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("pay = %d, body %s", rec.Code, rec.Body.String())
	}

	view = decodeBody[monthResponse](t,
		doJSON(t, s, http.MethodGet, "/api/transactions?year=2100&month=3", nil))
	if view.Occurrences[0].Status != "paid" {
		t.Errorf("Status after pay = %q, want paid", view.Occurrences[0].Status)
	}
	if view.Summary.PaidExpenses != "850.00" {
		t.Errorf("PaidExpenses = %q, want 850.00", view.Summary.PaidExpenses)
	}

	// Other months stay unaffected by the March payment.
	view = decodeBody[monthResponse](t,
		doJSON(t, s, http.MethodGet, "/api/transactions?year=2100&month=4", nil))
	if view.Occurrences[0].Status != "pending" {
		t.Errorf("April status = %q, want pending", view.Occurrences[0].Status)
	}
}

func TestMarkPaidRejectsBadDate(t *testing.T) {
	s := newTestServer(t)

	created := decodeBody[masterResponse](t,
		doJSON(t, s, http.MethodPost, "/api/transactions", monthlyRent("850.00")))

	rec := doJSON(t, s, http.MethodPost, "/api/transactions/"+created.ID+"/pay",
		map[string]string{"date": "soon"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("pay = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t)

	created := decodeBody[masterResponse](t,
		doJSON(t, s, http.MethodPost, "/api/transactions", monthlyRent("850.00")))

	rec := doJSON(t, s, http.MethodDelete, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d, body %s", rec.Code, rec.Body.String())
	}

	view := decodeBody[monthResponse](t,
		doJSON(t, s, http.MethodGet, "/api/transactions?year=2100&month=3", nil))
	if len(view.Occurrences) != 0 {
		t.Errorf("got %d occurrences after delete, want 0", len(view.Occurrences))
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDeleteInstallmentGroup(t *testing.T) {
	s := newTestServer(t)

	plan := transactionRequest{
		Description:       "Fridge",
		Category:          "Home",
		Type:              "expense",
		Frequency:         "installment",
		Amount:            "100.00",
		AnchorDate:        "2100-01-10",
		TotalAmount:       "300.00",
		TotalInstallments: 3,
	}
	created := decodeBody[masterResponse](t,
		doJSON(t, s, http.MethodPost, "/api/transactions", plan))
	if created.InstallmentGroupID == "" {
		t.Fatal("installment plan has no group id")
	}

	rec := doJSON(t, s, http.MethodDelete, "/api/transactions/group/"+created.InstallmentGroupID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete group = %d, body %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[map[string]int](t, rec)
	if result["removed"] != 1 {
		t.Errorf("removed = %d, want 1", result["removed"])
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/group/"+created.InstallmentGroupID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete group = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestMonthViewTypeFilter(t *testing.T) {
	s := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/transactions", monthlyRent("850.00"))
	salary := transactionRequest{
		Description: "Salary",
		Category:    "Work",
		Type:        "income",
		Frequency:   "monthly",
		Amount:      "3000.00",
		AnchorDate:  "2100-01-01",
	}
	doJSON(t, s, http.MethodPost, "/api/transactions", salary)

	rec := doJSON(t, s, http.MethodGet, "/api/transactions?year=2100&month=3&type=income", nil)
	view := decodeBody[monthResponse](t, rec)
	if len(view.Occurrences) != 1 || view.Occurrences[0].Type != "income" {
		t.Fatalf("filtered occurrences = %+v, want single income", view.Occurrences)
	}
	// The summary still covers the whole month.
	if view.Summary.PendingExpenses != "850.00" {
		t.Errorf("PendingExpenses = %q, want 850.00", view.Summary.PendingExpenses)
	}
	if view.Summary.Balance != "2150.00" {
		t.Errorf("Balance = %q, want 2150.00", view.Summary.Balance)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transactions?year=2100&month=3&type=all", nil)
	view = decodeBody[monthResponse](t, rec)
	if len(view.Occurrences) != 2 {
		t.Errorf("type=all occurrences = %d, want 2", len(view.Occurrences))
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transactions?year=2100&month=3&type=transfer", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad filter = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestMonthViewRejectsBadMonth(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"/api/transactions?year=2100&month=13",
		"/api/transactions?year=2100&month=march",
		"/api/transactions?year=soon&month=3",
	} {
		rec := doJSON(t, s, http.MethodGet, target, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want %d", target, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/transactions?year=2100&month=3", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
