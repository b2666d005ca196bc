package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/glowlocal/lead-payments/internal/usecase"
)

type AdminHandler struct {
	StatsUC  *usecase.LeadStatsUseCase
	PolicyUC *usecase.UpdatePolicyUseCase
	Policy   usecase.PolicyRepositoryInterface
}

func NewAdminHandler(statsUC *usecase.LeadStatsUseCase, policyUC *usecase.UpdatePolicyUseCase, policy usecase.PolicyRepositoryInterface) *AdminHandler {
	return &AdminHandler{StatsUC: statsUC, PolicyUC: policyUC, Policy: policy}
}

// HandleStats serves lead statistics over a trailing window: ?days=30
func (h *AdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "days must be a number")
		return
	}

	out, err := h.StatsUC.Execute(r.Context(), days)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Policy.Latest(r.Context())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func (h *AdminHandler) HandleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdatePolicyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	policy, err := h.PolicyUC.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, policy)
}
