package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/glowlocal/lead-payments/internal/infra/http/middleware"
	"github.com/glowlocal/lead-payments/internal/usecase"
)

type LeadHandler struct {
	CreateUC    *usecase.CreateLeadUseCase
	DispatchUC  *usecase.DispatchTeaserUseCase
	Leads       usecase.LeadRepositoryInterface
	rateLimiter *RateLimiter
}

func NewLeadHandler(createUC *usecase.CreateLeadUseCase, dispatchUC *usecase.DispatchTeaserUseCase, leads usecase.LeadRepositoryInterface) *LeadHandler {
	return &LeadHandler{
		CreateUC:    createUC,
		DispatchUC:  dispatchUC,
		Leads:       leads,
		rateLimiter: NewRateLimiter(10, time.Minute), // 10 req/min per IP on intake
	}
}

// HandleCreate is the public intake endpoint.
func (h *LeadHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(getClientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "too many requests, try again later")
		return
	}

	var input usecase.CreateLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	output, err := h.CreateUC.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, output)
}

func (h *LeadHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Leads.FindByID(r.Context(), chi.URLParam(r, "leadId"))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	// Public view only: private fields are excluded by the entity's JSON tags.
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	summaries, err := h.Leads.ListActive(r.Context(), limit, offset)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

type notifyRequest struct {
	ProviderIDs []string `json:"provider_ids"`
}

// HandleNotify runs a synchronous teaser fan-out for one lead, bypassing the
// queue. Used by the admin surface for "notify now".
func (h *LeadHandler) HandleNotify(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadId")

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.ProviderIDs) == 0 {
		writeError(w, http.StatusBadRequest, "provider_ids is required")
		return
	}

	out := h.DispatchUC.ExecuteBatch(r.Context(), leadID, req.ProviderIDs)
	for _, res := range out.Results {
		middleware.RecordTeaserDispatch(string(res.Outcome))
	}
	writeJSON(w, http.StatusOK, out)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}
	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
