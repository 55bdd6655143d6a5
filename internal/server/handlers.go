package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/payinhq/payin-calculator/internal/constants"
	"github.com/payinhq/payin-calculator/internal/observability"
	"github.com/payinhq/payin-calculator/internal/ratetable"
)

const tableNotLoadedMessage = "Rate table not loaded"

// instrument wraps a handler with a span, request metrics and debug logging.
func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx, span := s.tracer.StartSpan(r.Context(), "handle_request",
			attribute.String("http.method", r.Method),
			attribute.String("http.path", endpoint),
		)
		defer span.End()

		requestSize := r.ContentLength
		if requestSize < 0 {
			requestSize = 0
		}

		wrapped := &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		h(wrapped, r.WithContext(ctx))

		s.metrics.RecordRequest(r.Method, endpoint, wrapped.statusCode, time.Since(start), requestSize, wrapped.written)
		s.logger.Logger.Debug("Request processed",
			zap.String("method", r.Method),
			zap.String("endpoint", endpoint),
			zap.Int("status_code", wrapped.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// rootHandler serves the service banner.
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	s.sendJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Payin Calculator API",
		"status":  "running",
	})
}

type catalogData struct {
	Lenders  []string `json:"lenders"`
	Products []string `json:"products"`
	Regions  []string `json:"regions"`
}

// dataHandler serves all distinct lenders, products and regions.
func (s *Server) dataHandler(w http.ResponseWriter, r *http.Request) {
	table := s.store.Get()
	if table == nil {
		s.sendErrorResponse(w, http.StatusServiceUnavailable, tableNotLoadedMessage)
		return
	}

	s.sendCachedSuccess(w, "data", func() any {
		return catalogData{
			Lenders:  table.Lenders(),
			Products: table.Products(),
			Regions:  table.Regions(),
		}
	})
}

// productsHandler serves the products offered by one lender. An unknown
// lender yields an empty list, not an error.
func (s *Server) productsHandler(w http.ResponseWriter, r *http.Request) {
	table := s.store.Get()
	if table == nil {
		s.sendErrorResponse(w, http.StatusServiceUnavailable, tableNotLoadedMessage)
		return
	}

	lender := strings.TrimSpace(r.PathValue("lender"))

	type productsData struct {
		Lender   string   `json:"lender"`
		Products []string `json:"products"`
	}

	s.sendCachedSuccess(w, "products:"+lender, func() any {
		return productsData{
			Lender:   lender,
			Products: table.ProductsFor(lender),
		}
	})
}

// regionsHandler serves the regions for a lender and product pair.
func (s *Server) regionsHandler(w http.ResponseWriter, r *http.Request) {
	table := s.store.Get()
	if table == nil {
		s.sendErrorResponse(w, http.StatusServiceUnavailable, tableNotLoadedMessage)
		return
	}

	lender := strings.TrimSpace(r.PathValue("lender"))
	product := strings.TrimSpace(r.PathValue("product"))

	type regionsData struct {
		Lender  string   `json:"lender"`
		Product string   `json:"product"`
		Regions []string `json:"regions"`
	}

	s.sendCachedSuccess(w, "regions:"+lender+":"+product, func() any {
		return regionsData{
			Lender:  lender,
			Product: product,
			Regions: table.RegionsFor(lender, product),
		}
	})
}

type calculateRequest struct {
	Lender  string          `json:"lender"`
	Product string          `json:"product"`
	Region  string          `json:"region"`
	Amount  json.RawMessage `json:"amount"`
}

// parseAmount accepts a JSON number or a numeric string.
func parseAmount(raw json.RawMessage) (float64, error) {
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strconv.ParseFloat(strings.TrimSpace(str), 64)
	}

	return 0, fmt.Errorf("amount is not a number")
}

// calculateHandler resolves the payin for an amount.
func (s *Server) calculateHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(body) == 0 {
		s.sendErrorResponse(w, http.StatusBadRequest, "No data provided")
		return
	}

	var req calculateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	lender := strings.TrimSpace(req.Lender)
	product := strings.TrimSpace(req.Product)
	region := strings.TrimSpace(req.Region)

	if lender == "" || product == "" || region == "" {
		s.sendErrorResponse(w, http.StatusBadRequest, "Missing required parameters: lender, product, region")
		return
	}
	if len(req.Amount) == 0 || string(req.Amount) == "null" {
		s.sendErrorResponse(w, http.StatusBadRequest, "Missing required parameter: amount")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Amount must be a valid number")
		return
	}

	table := s.store.Get()
	if table == nil {
		s.metrics.RecordCalculation("error")
		s.sendErrorResponse(w, http.StatusServiceUnavailable, tableNotLoadedMessage)
		return
	}

	result, err := table.Calculate(lender, product, region, amount)
	switch {
	case errors.Is(err, ratetable.ErrNoData):
		s.metrics.RecordCalculation("no_data")
		s.sendErrorResponse(w, http.StatusNotFound,
			fmt.Sprintf("No data found for lender: %s, product: %s, region: %s", lender, product, region))
		return
	case errors.Is(err, ratetable.ErrNoSlab):
		s.metrics.RecordCalculation("no_slab")
		s.sendErrorResponse(w, http.StatusNotFound,
			fmt.Sprintf("No matching slab found for amount %v Cr", amount))
		return
	case err != nil:
		s.metrics.RecordCalculation("error")
		s.sendErrorResponse(w, http.StatusInternalServerError, "Error calculating payin amount")
		return
	}

	s.metrics.RecordCalculation("success")
	s.sendSuccessResponse(w, result)
}

// healthHandler reports liveness and table status. The status panel fetches
// this body and pretty-prints it verbatim.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	table := s.store.Get()

	status := observability.HealthStatusHealthy
	dataStatus := fmt.Sprintf("%d rows loaded", table.Len())
	statusCode := http.StatusOK
	if table == nil {
		status = observability.HealthStatusUnhealthy
		dataStatus = "No data loaded"
		statusCode = http.StatusServiceUnavailable
	}

	health := observability.HealthStatus{
		Status:     status,
		Message:    "Payin Calculator API",
		DataStatus: dataStatus,
		Timestamp:  time.Now(),
		Version:    constants.Version,
		Uptime:     time.Since(s.startTime).String(),
		Checks: map[string]bool{
			"table": table != nil,
			"rows":  table.Len() > 0,
		},
	}

	s.metrics.SetHealthStatus(table != nil)
	s.sendJSONResponse(w, statusCode, health)
}

// readinessHandler reports whether the service can answer catalog and
// calculation queries.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.store.Loaded() {
		s.sendJSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	s.sendJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}

// openapiHandler serves the API contract.
func (s *Server) openapiHandler(w http.ResponseWriter, r *http.Request) {
	s.sendRawJSON(w, http.StatusOK, s.openapi)
}

// metricsHandler serves Prometheus metrics on the main port.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	s.metrics.Handler().ServeHTTP(w, r)
}
