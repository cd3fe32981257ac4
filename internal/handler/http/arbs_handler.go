package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
	"github.com/cypherlabdev/arb-detection-service/internal/service"
)

// ArbsHandler handles HTTP requests for arbitrage opportunities
type ArbsHandler struct {
	service *service.DetectorService
	logger  zerolog.Logger
}

// NewArbsHandler creates a new arbitrage HTTP handler
func NewArbsHandler(svc *service.DetectorService, logger zerolog.Logger) *ArbsHandler {
	return &ArbsHandler{
		service: svc,
		logger:  logger.With().Str("component", "arbs_handler").Logger(),
	}
}

// RegisterRoutes registers HTTP routes with the provided mux
func (h *ArbsHandler) RegisterRoutes(mux *http.ServeMux) {
	// GET /api/v1/arbs - list opportunities, filtered
	mux.HandleFunc("/api/v1/arbs", h.handleGetArbs)

	// GET /api/v1/status - cache and source status
	mux.HandleFunc("/api/v1/status", h.handleStatus)

	// POST /api/v1/cache/invalidate - force the next request to recompute
	mux.HandleFunc("/api/v1/cache/invalidate", h.handleInvalidate)
}

// ArbsResponse is the payload for GET /api/v1/arbs
type ArbsResponse struct {
	Count         int                           `json:"count"`
	Opportunities []models.ArbitrageOpportunity `json:"opportunities"`
	Summary       models.DetectionSummary       `json:"summary"`
}

// handleGetArbs handles GET /api/v1/arbs
func (h *ArbsHandler) handleGetArbs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filters, err := parseFilters(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	opportunities, summary, err := h.service.GetOpportunities(r.Context(), filters)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get opportunities")
		h.errorResponse(w, http.StatusInternalServerError, "failed to get opportunities")
		return
	}

	h.jsonResponse(w, http.StatusOK, ArbsResponse{
		Count:         len(opportunities),
		Opportunities: opportunities,
		Summary:       summary,
	})
}

// handleStatus handles GET /api/v1/status
func (h *ArbsHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.jsonResponse(w, http.StatusOK, h.service.Status())
}

// handleInvalidate handles POST /api/v1/cache/invalidate
func (h *ArbsHandler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.service.Invalidate()
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// parseFilters builds engine filters from query parameters
func parseFilters(r *http.Request) (*models.Filters, error) {
	q := r.URL.Query()

	filters := &models.Filters{
		Sport:      q.Get("sport"),
		MarketType: models.MarketType(q.Get("market_type")),
		UseCache:   true,
	}

	if v := q.Get("use_cache"); v != "" {
		useCache, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errBadParam("use_cache", v)
		}
		filters.UseCache = useCache
	}

	if v := q.Get("live_only"); v != "" {
		liveOnly, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errBadParam("live_only", v)
		}
		filters.LiveOnly = &liveOnly
	}

	if v := q.Get("max_start_hours"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours < 0 {
			return nil, errBadParam("max_start_hours", v)
		}
		filters.MaxStartHours = hours
	}

	if v := q.Get("sources"); v != "" {
		filters.Sources = strings.Split(v, ",")
	}

	var err error
	if filters.MinArbPercentage, err = parseDecimalParam(q.Get("min_arb_percentage"), "min_arb_percentage"); err != nil {
		return nil, err
	}
	if filters.MinProfit, err = parseDecimalParam(q.Get("min_profit"), "min_profit"); err != nil {
		return nil, err
	}
	if filters.Bankroll, err = parseDecimalParam(q.Get("bankroll"), "bankroll"); err != nil {
		return nil, err
	}
	if filters.Bankroll.Valid && !filters.Bankroll.Decimal.IsPositive() {
		return nil, errBadParam("bankroll", q.Get("bankroll"))
	}

	return filters, nil
}

func parseDecimalParam(raw, name string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, errBadParam(name, raw)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

type paramError struct {
	name, value string
}

func (e paramError) Error() string {
	return "invalid value " + strconv.Quote(e.value) + " for parameter " + e.name
}

func errBadParam(name, value string) error {
	return paramError{name: name, value: value}
}

// jsonResponse writes a JSON response
func (h *ArbsHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h *ArbsHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
