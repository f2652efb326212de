package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tournevent/lalamove/pkg/shipper"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// quotesRequest is the body of POST /v1/quotes.
type quotesRequest struct {
	Carriers []string              `json:"carriers,omitempty"`
	Request  *shipper.QuoteRequest `json:"request"`
}

type quotesResponse struct {
	Quotes []*shipper.QuoteResponse `json:"quotes"`
	Errors []errorBody              `json:"errors,omitempty"`
}

type priorityFeeBody struct {
	Amount float64 `json:"amount"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// badRequest marks client input the server could not accept.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func (s *Server) handleCarriers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"carriers": s.registry.Names()})
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body quotesRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.fail(w, r, "get_quotes", "", start, err)
		return
	}
	if body.Request == nil {
		s.fail(w, r, "get_quotes", "", start, &badRequest{msg: "request is required"})
		return
	}

	quotes, errs := s.registry.GetQuotes(r.Context(), body.Request, body.Carriers)
	if len(quotes) == 0 && len(errs) > 0 {
		s.fail(w, r, "get_quotes", "", start, errs[0])
		return
	}

	resp := quotesResponse{Quotes: quotes}
	for _, err := range errs {
		s.logger.Ctx(r.Context()).Warn("Carrier quote failed", zap.Error(err))
		resp.Errors = append(resp.Errors, errorBody{Code: errorCode(err), Message: err.Error()})
		s.metrics.RecordError(errorCarrier(err), errorCode(err))
	}
	for _, q := range quotes {
		s.metrics.RecordRequest("get_quote", q.Carrier, "ok", time.Since(start).Seconds())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	const op = "cities"
	start := time.Now()
	name := r.PathValue("carrier")
	ctx := r.Context()

	carrier, err := s.registry.Get(name)
	if err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}

	cities, ok, err := s.cities.Get(ctx, name)
	if err != nil {
		s.logger.Ctx(ctx).Warn("City cache read failed", zap.String("carrier", name), zap.Error(err))
	}
	s.metrics.RecordCacheLookup(name, ok)

	if !ok {
		cities, err = carrier.Cities(ctx)
		if err != nil {
			s.fail(w, r, op, name, start, err)
			return
		}
		if err := s.cities.Set(ctx, name, cities); err != nil {
			s.logger.Ctx(ctx).Warn("City cache write failed", zap.String("carrier", name), zap.Error(err))
		}
	}

	s.metrics.RecordRequest(op, name, "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, map[string][]shipper.City{"cities": cities})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	const op = "create_order"
	start := time.Now()
	name := r.PathValue("carrier")

	carrier, err := s.registry.Get(name)
	if err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}

	var req shipper.CreateOrderRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}
	if req.QuoteID == "" {
		s.fail(w, r, op, name, start, &badRequest{msg: "quoteId is required"})
		return
	}

	order, err := carrier.CreateOrder(r.Context(), &req)
	if err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}

	s.metrics.RecordRequest(op, name, "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	const op = "get_order"
	start := time.Now()
	name := r.PathValue("carrier")

	carrier, err := s.registry.Get(name)
	if err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}

	order, err := carrier.GetOrder(r.Context(), r.PathValue("orderID"))
	if err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}

	s.metrics.RecordRequest(op, name, "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	const op = "cancel_order"
	start := time.Now()
	name := r.PathValue("carrier")

	carrier, err := s.registry.Get(name)
	if err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}

	resp, err := carrier.CancelOrder(r.Context(), &shipper.CancelOrderRequest{
		OrderID: r.PathValue("orderID"),
		Reason:  r.URL.Query().Get("reason"),
	})
	if err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}

	s.metrics.RecordRequest(op, name, "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePriorityFee(w http.ResponseWriter, r *http.Request) {
	const op = "add_priority_fee"
	start := time.Now()
	name := r.PathValue("carrier")

	carrier, err := s.registry.Get(name)
	if err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}

	var body priorityFeeBody
	if err := decodeBody(w, r, &body); err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}

	order, err := carrier.AddPriorityFee(r.Context(), &shipper.PriorityFeeRequest{
		OrderID: r.PathValue("orderID"),
		Amount:  body.Amount,
	})
	if err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}

	s.metrics.RecordRequest(op, name, "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleGetDriver(w http.ResponseWriter, r *http.Request) {
	const op = "get_driver"
	start := time.Now()
	name := r.PathValue("carrier")

	carrier, err := s.registry.Get(name)
	if err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}

	driver, err := carrier.GetDriver(r.Context(), r.PathValue("orderID"), r.PathValue("driverID"))
	if err != nil {
		s.fail(w, r, op, name, start, err)
		return
	}

	s.metrics.RecordRequest(op, name, "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, driver)
}

// fail records metrics, logs and writes err as a JSON error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op, carrier string, start time.Time, err error) {
	status := errorStatus(err)
	code := errorCode(err)

	s.metrics.RecordRequest(op, carrier, "error", time.Since(start).Seconds())
	if status >= http.StatusInternalServerError {
		s.metrics.RecordError(carrier, code)
		s.logger.Ctx(r.Context()).Error("Request failed",
			zap.String("operation", op),
			zap.String("carrier", carrier),
			zap.String("code", code),
			zap.Error(err),
		)
	} else {
		s.logger.Ctx(r.Context()).Info("Request rejected",
			zap.String("operation", op),
			zap.String("carrier", carrier),
			zap.String("code", code),
			zap.Int("status", status),
		)
	}

	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: errorMessage(err)}})
}

// errorStatus maps an error to the HTTP status returned to the caller.
func errorStatus(err error) int {
	var bad *badRequest
	if errors.As(err, &bad) {
		return http.StatusBadRequest
	}
	if errors.Is(err, shipper.ErrCarrierNotFound) {
		return http.StatusNotFound
	}

	var shipperErr *shipper.ShipperError
	if errors.As(err, &shipperErr) {
		if shipperErr.StatusCode >= 400 && shipperErr.StatusCode < 500 {
			return shipperErr.StatusCode
		}
		if shipperErr.StatusCode == 0 && errors.Is(err, shipper.ErrInvalidRequest) {
			return http.StatusBadRequest
		}
	}
	return http.StatusBadGateway
}

func errorCode(err error) string {
	var bad *badRequest
	if errors.As(err, &bad) {
		return "INVALID_REQUEST"
	}
	var shipperErr *shipper.ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr.Code
	}
	if errors.Is(err, shipper.ErrCarrierNotFound) {
		return "CARRIER_NOT_FOUND"
	}
	return "INTERNAL"
}

func errorMessage(err error) string {
	var shipperErr *shipper.ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr.Message
	}
	return err.Error()
}

func errorCarrier(err error) string {
	var shipperErr *shipper.ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr.Carrier
	}
	return ""
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &badRequest{msg: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
