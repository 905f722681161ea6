package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"despesas/internal/core"
	"despesas/internal/services"
)

// transactionRequest is the JSON body for create and update. Amounts travel
// as decimal strings and dates as YYYY-MM-DD.
type transactionRequest struct {
	Description       string `json:"description"`
	Category          string `json:"category"`
	Type              string `json:"type"`
	Frequency         string `json:"frequency"`
	Amount            string `json:"amount"`
	AnchorDate        string `json:"anchorDate"`
	EndDate           string `json:"endDate,omitempty"`
	TotalAmount       string `json:"totalAmount,omitempty"`
	TotalInstallments int    `json:"totalInstallments,omitempty"`
}

type masterResponse struct {
	ID                 string   `json:"id"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	Type               string   `json:"type"`
	Frequency          string   `json:"frequency"`
	Amount             string   `json:"amount"`
	AnchorDate         string   `json:"anchorDate"`
	EndDate            string   `json:"endDate,omitempty"`
	TotalAmount        string   `json:"totalAmount,omitempty"`
	TotalInstallments  int      `json:"totalInstallments,omitempty"`
	InstallmentGroupID string   `json:"installmentGroupId,omitempty"`
	Status             string   `json:"status"`
	PaidMonths         []string `json:"paidMonths,omitempty"`
}

type occurrenceResponse struct {
	ID                 string `json:"id"`
	MasterID           string `json:"masterId"`
	Description        string `json:"description"`
	Category           string `json:"category"`
	Type               string `json:"type"`
	Frequency          string `json:"frequency"`
	Amount             string `json:"amount"`
	Date               string `json:"date"`
	Status             string `json:"status"`
	CurrentInstallment int    `json:"currentInstallment,omitempty"`
	TotalInstallments  int    `json:"totalInstallments,omitempty"`
	TotalAmount        string `json:"totalAmount,omitempty"`
	InstallmentGroupID string `json:"installmentGroupId,omitempty"`
}

type summaryResponse struct {
	Income          string `json:"income"`
	PaidExpenses    string `json:"paidExpenses"`
	PendingExpenses string `json:"pendingExpenses"`
	Balance         string `json:"balance"`
}

type monthResponse struct {
	Year        int                  `json:"year"`
	Month       int                  `json:"month"`
	MonthKey    string               `json:"monthKey"`
	Occurrences []occurrenceResponse `json:"occurrences"`
	Summary     summaryResponse      `json:"summary"`
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := sanitizeInput(r.URL.Query().Get("type"))
	if filter == "all" {
		filter = ""
	}

	key := s.monthCacheKey(year, month, filter)
	if view, found := s.monthCache.Get(key); found {
		slog.DebugContext(r.Context(), "Month view cache hit", "year", year, "month", month)
		writeJSON(w, http.StatusOK, toMonthResponse(view))
		return
	}

	view, err := s.ledger.Month(r.Context(), year, month, core.TransactionType(filter))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Month projection failed",
				"error", err, "year", year, "month", month)
		}
		writeError(w, status, err.Error())
		return
	}

	s.monthCache.Set(key, view)
	writeJSON(w, http.StatusOK, toMonthResponse(view))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	master, ok := s.decodeMaster(w, r, "")
	if !ok {
		return
	}

	created, err := s.ledger.Create(r.Context(), master)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.invalidateMonths()
	writeJSON(w, http.StatusCreated, toMasterResponse(created))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	master, ok := s.decodeMaster(w, r, id)
	if !ok {
		return
	}

	updated, err := s.ledger.Update(r.Context(), master)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.invalidateMonths()
	writeJSON(w, http.StatusOK, toMasterResponse(updated))
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	occurrence, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.ledger.MarkPaid(r.Context(), id, occurrence); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.invalidateMonths()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.invalidateMonths()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupId")

	removed, err := s.ledger.DeleteGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if removed == 0 {
		writeError(w, http.StatusNotFound, "no transactions in group "+groupID)
		return
	}

	s.invalidateMonths()
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// decodeMaster parses and validates the request body into a master record.
// On failure it writes the error response and returns ok=false.
func (s *Server) decodeMaster(w http.ResponseWriter, r *http.Request, id string) (core.MasterTransaction, bool) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return core.MasterTransaction{}, false
	}

	master := core.MasterTransaction{
		ID:                id,
		Description:       sanitizeInput(req.Description),
		Category:          sanitizeInput(req.Category),
		Type:              core.TransactionType(req.Type),
		Frequency:         core.Frequency(req.Frequency),
		TotalInstallments: req.TotalInstallments,
	}

	if !master.Frequency.Valid() {
		writeError(w, http.StatusUnprocessableEntity, core.ErrInvalidFrequency.Error())
		return core.MasterTransaction{}, false
	}

	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return core.MasterTransaction{}, false
	}
	master.Amount = amount

	master.AnchorDate, err = core.ParseDate(req.AnchorDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return core.MasterTransaction{}, false
	}

	if req.EndDate != "" {
		master.EndDate, err = core.ParseDate(req.EndDate)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return core.MasterTransaction{}, false
		}
	}

	if req.TotalAmount != "" {
		master.TotalAmount, err = core.ParseMoney(req.TotalAmount)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return core.MasterTransaction{}, false
		}
	}

	return master, true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var integrityErr *core.DataIntegrityError
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidMonth), errors.Is(err, core.ErrInvalidType):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidFrequency),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyCategory),
		errors.As(err, &integrityErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func toMonthResponse(view services.MonthView) monthResponse {
	resp := monthResponse{
		Year:        view.Month.Year,
		Month:       view.Month.Month,
		MonthKey:    view.Month.Key(),
		Occurrences: make([]occurrenceResponse, 0, len(view.Occurrences)),
		Summary: summaryResponse{
			Income:          view.Summary.Income.String(),
			PaidExpenses:    view.Summary.PaidExpenses.String(),
			PendingExpenses: view.Summary.PendingExpenses.String(),
			Balance:         view.Summary.Balance.String(),
		},
	}
	for _, occ := range view.Occurrences {
		item := occurrenceResponse{
			ID:                 occ.ID,
			MasterID:           occ.MasterID,
			Description:        occ.Description,
			Category:           occ.Category,
			Type:               string(occ.Type),
			Frequency:          string(occ.Frequency),
			Amount:             occ.Amount.String(),
			Date:               occ.Date.String(),
			Status:             string(occ.Status),
			CurrentInstallment: occ.CurrentInstallment,
			TotalInstallments:  occ.TotalInstallments,
			InstallmentGroupID: occ.InstallmentGroupID,
		}
		if !occ.TotalAmount.IsZero() {
			item.TotalAmount = occ.TotalAmount.String()
		}
		resp.Occurrences = append(resp.Occurrences, item)
	}
	return resp
}

func toMasterResponse(m core.MasterTransaction) masterResponse {
	resp := masterResponse{
		ID:                 m.ID,
		Description:        m.Description,
		Category:           m.Category,
		Type:               string(m.Type),
		Frequency:          string(m.Frequency),
		Amount:             m.Amount.String(),
		AnchorDate:         m.AnchorDate.String(),
		EndDate:            m.EndDate.String(),
		TotalInstallments:  m.TotalInstallments,
		InstallmentGroupID: m.InstallmentGroupID,
		Status:             string(m.Status),
	}
	if !m.TotalAmount.IsZero() {
		resp.TotalAmount = m.TotalAmount.String()
	}
	for key := range m.PaidOccurrences {
		resp.PaidMonths = append(resp.PaidMonths, key)
	}
	sort.Strings(resp.PaidMonths)
	return resp
}
