package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glowlocal/lead-payments/internal/entity"
	"github.com/glowlocal/lead-payments/internal/usecase"
)

type ProviderHandler struct {
	Providers usecase.ProviderRepositoryInterface
	OptOuts   usecase.OptOutRepositoryInterface
}

func NewProviderHandler(providers usecase.ProviderRepositoryInterface, optOuts usecase.OptOutRepositoryInterface) *ProviderHandler {
	return &ProviderHandler{Providers: providers, OptOuts: optOuts}
}

type createProviderRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Timezone string `json:"timezone"`
	Services string `json:"services"`
}

func (h *ProviderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	provider, err := entity.NewProvider(req.Name, req.Phone, req.Timezone, req.Services)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Providers.Create(r.Context(), provider); err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, provider)
}

func (h *ProviderHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "providerId")

	provider, err := h.Providers.FindByID(r.Context(), id)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	optedOut, err := h.OptOuts.Exists(r.Context(), id)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*entity.Provider
		OptedOut bool `json:"opted_out"`
	}{provider, optedOut})
}
