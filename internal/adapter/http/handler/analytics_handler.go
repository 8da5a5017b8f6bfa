package handler

import (
	"net/http"
	"time"

	"github.com/pmbank/settlement/internal/adapter/http/dto"
	"github.com/pmbank/settlement/internal/usecase"
)

const dayFormat = "2006-01-02"

// AnalyticsHandler handles analytics HTTP requests.
type AnalyticsHandler struct {
	analyticsUC *usecase.AnalyticsUseCase
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsUC *usecase.AnalyticsUseCase) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsUC: analyticsUC}
}

// Summary returns aggregate payment statistics.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analyticsUC.GetSummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute summary", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromDomain(summary))
}

// DailyVolume returns per-day payment volume for a date range. Both
// bounds are calendar days and the end date is inclusive.
func (h *AnalyticsHandler) DailyVolume(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(dayFormat, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date", "expected YYYY-MM-DD")
		return
	}

	to, err := time.Parse(dayFormat, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date", "expected YYYY-MM-DD")
		return
	}

	volumes, err := h.analyticsUC.GetDailyVolume(r.Context(), from, to)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to compute daily volume", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.DailyVolumesFromDomain(volumes))
}

// TopAccounts returns accounts ranked by combined payment volume.
func (h *AnalyticsHandler) TopAccounts(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 10)

	accounts, err := h.analyticsUC.GetTopAccounts(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to rank accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TopAccountsFromDomain(accounts))
}
