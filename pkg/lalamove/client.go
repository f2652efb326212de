// Package lalamove provides a client for the Lalamove v3 delivery API and
// its integration with the shipper abstraction.
//
// Requests are authenticated with an HMAC-SHA256 signature computed per
// request (see Sign). Non-2xx responses are returned as *APIError, whose
// Outcome tells client faults (4xx), server faults (5xx) and anything else
// apart.
package lalamove

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tournevent/lalamove/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const carrierName = "lalamove"

// Config holds Lalamove configuration.
type Config struct {
	APIKey      string
	APISecret   string
	Market      string
	Environment Environment
	Timeout     time.Duration
	Debug       bool // log every request and response at debug level
	UseMock     bool // When true, uses mock API client
}

// Client is the Lalamove shipper client.
// It implements the shipper.Shipper interface and delegates
// API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Lalamove client.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			APIKey:      cfg.APIKey,
			APISecret:   cfg.APISecret,
			Market:      cfg.Market,
			Environment: cfg.Environment,
			Timeout:     cfg.Timeout,
			Logger:      logger,
			Debug:       cfg.Debug,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Lalamove client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(carrierName)
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// API returns the underlying Lalamove API client.
func (c *Client) API() APIClient {
	return c.apiClient
}

// Cities lists the cities served in the configured market.
func (c *Client) Cities(ctx context.Context) ([]shipper.City, error) {
	ctx, span := c.startSpan(ctx, "Cities")
	defer span.End()

	cities, err := c.apiClient.Cities(ctx)
	if err != nil {
		return nil, c.fail(ctx, span, "Cities", err)
	}

	result := make([]shipper.City, len(cities))
	for i, city := range cities {
		result[i] = cityToShipper(city)
	}
	return result, nil
}

// GetQuote prices a delivery with Lalamove.
func (c *Client) GetQuote(ctx context.Context, req *shipper.QuoteRequest) (*shipper.QuoteResponse, error) {
	ctx, span := c.startSpan(ctx, "GetQuote",
		attribute.String("service_type", string(req.ServiceType)),
		attribute.Int("stop_count", len(req.Stops)),
	)
	defer span.End()

	c.logger.Ctx(ctx).Info("Getting Lalamove quotation",
		zap.String("service_type", string(req.ServiceType)),
		zap.Int("stop_count", len(req.Stops)),
	)

	if len(req.Stops) < 2 {
		err := shipper.NewShipperError(carrierName, "INVALID_STOPS", "at least a pickup and one drop-off are required").
			WithKind(shipper.ErrInvalidRequest)
		return nil, c.fail(ctx, span, "GetQuote", err)
	}

	quotation, err := c.apiClient.GetQuotation(ctx, quoteRequestToAPI(req))
	if err != nil {
		return nil, c.fail(ctx, span, "GetQuote", err)
	}

	span.SetAttributes(attribute.String("quotation_id", quotation.QuotationID))
	return quotationToShipper(quotation), nil
}

// CreateOrder books a delivery with Lalamove.
func (c *Client) CreateOrder(ctx context.Context, req *shipper.CreateOrderRequest) (*shipper.Order, error) {
	ctx, span := c.startSpan(ctx, "CreateOrder", attribute.String("quotation_id", req.QuoteID))
	defer span.End()

	c.logger.Ctx(ctx).Info("Creating Lalamove order",
		zap.String("quotation_id", req.QuoteID),
		zap.Int("recipient_count", len(req.Recipients)),
	)

	order, err := c.apiClient.CreateOrder(ctx, createOrderRequestToAPI(req))
	if err != nil {
		return nil, c.fail(ctx, span, "CreateOrder", err)
	}

	span.SetAttributes(attribute.String("order_id", order.OrderID))
	return orderToShipper(order), nil
}

// GetOrder retrieves a Lalamove order.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*shipper.Order, error) {
	ctx, span := c.startSpan(ctx, "GetOrder", attribute.String("order_id", orderID))
	defer span.End()

	order, err := c.apiClient.GetOrder(ctx, orderID)
	if err != nil {
		return nil, c.fail(ctx, span, "GetOrder", err)
	}
	return orderToShipper(order), nil
}

// GetDriver retrieves the driver assigned to a Lalamove order.
func (c *Client) GetDriver(ctx context.Context, orderID, driverID string) (*shipper.Driver, error) {
	ctx, span := c.startSpan(ctx, "GetDriver",
		attribute.String("order_id", orderID),
		attribute.String("driver_id", driverID),
	)
	defer span.End()

	driver, err := c.apiClient.GetDriverDetails(ctx, orderID, driverID)
	if err != nil {
		return nil, c.fail(ctx, span, "GetDriver", err)
	}
	return driverToShipper(driver), nil
}

// AddPriorityFee adds a priority fee to a Lalamove order.
func (c *Client) AddPriorityFee(ctx context.Context, req *shipper.PriorityFeeRequest) (*shipper.Order, error) {
	ctx, span := c.startSpan(ctx, "AddPriorityFee",
		attribute.String("order_id", req.OrderID),
		attribute.Float64("amount", req.Amount),
	)
	defer span.End()

	c.logger.Ctx(ctx).Info("Adding Lalamove priority fee",
		zap.String("order_id", req.OrderID),
		zap.Float64("amount", req.Amount),
	)

	if req.Amount <= 0 {
		err := shipper.NewShipperError(carrierName, "INVALID_AMOUNT", "priority fee must be positive").
			WithKind(shipper.ErrInvalidRequest)
		return nil, c.fail(ctx, span, "AddPriorityFee", err)
	}

	order, err := c.apiClient.AddPriorityFee(ctx, req.OrderID, req.Amount)
	if err != nil {
		return nil, c.fail(ctx, span, "AddPriorityFee", err)
	}
	return orderToShipper(order), nil
}

// CancelOrder cancels a Lalamove order. Lalamove has no cancellation reason
// field, so the reason is only logged.
func (c *Client) CancelOrder(ctx context.Context, req *shipper.CancelOrderRequest) (*shipper.CancelOrderResponse, error) {
	ctx, span := c.startSpan(ctx, "CancelOrder", attribute.String("order_id", req.OrderID))
	defer span.End()

	c.logger.Ctx(ctx).Info("Cancelling Lalamove order",
		zap.String("order_id", req.OrderID),
		zap.String("reason", req.Reason),
	)

	resp, err := c.apiClient.CancelOrder(ctx, req.OrderID)
	if err != nil {
		return nil, c.fail(ctx, span, "CancelOrder", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	return &shipper.CancelOrderResponse{
		OrderID: req.OrderID,
		Status:  shipper.StatusCancelled,
	}, nil
}

func (c *Client) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("carrier", carrierName),
		attribute.String("market", strings.ToUpper(c.config.Market)),
	)
	return c.tracer.Start(ctx, "lalamove."+op, trace.WithAttributes(attrs...))
}

// fail records err on the span, logs it and converts it to a *shipper.ShipperError.
func (c *Client) fail(ctx context.Context, span trace.Span, op string, err error) error {
	shipperErr := toShipperError(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, shipperErr.Code)
	c.logger.Ctx(ctx).Error("Lalamove API error",
		zap.String("operation", op),
		zap.String("code", shipperErr.Code),
		zap.Int("status", shipperErr.StatusCode),
		zap.Error(err),
	)
	return shipperErr
}

// ============================================================================
// Error mapping
// ============================================================================

func toShipperError(err error) *shipper.ShipperError {
	var shipperErr *shipper.ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return shipper.NewShipperError(carrierName, "TRANSPORT", "request failed").
			WithCause(err).
			WithRetryable(true).
			WithKind(shipper.ErrServiceUnavailable)
	}

	code := apiErr.Code()
	e := shipper.NewShipperError(carrierName, code, apiErr.Message()).
		WithStatusCode(apiErr.StatusCode).
		WithCause(apiErr)

	switch {
	case strings.Contains(code, "QUOTATION_EXPIRED"):
		e.WithKind(shipper.ErrQuoteExpired)
	case strings.Contains(code, "CANCELLATION_FORBIDDEN"):
		e.WithKind(shipper.ErrCancellationNotAllowed)
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		e.WithKind(shipper.ErrAuthenticationFailed)
	case apiErr.StatusCode == http.StatusNotFound:
		e.WithKind(shipper.ErrOrderNotFound)
	case apiErr.StatusCode == http.StatusTooManyRequests:
		e.WithKind(shipper.ErrRateLimitExceeded).WithRetryable(true)
	case apiErr.Outcome == OutcomeClientFault:
		e.WithKind(shipper.ErrInvalidRequest)
	case apiErr.Outcome == OutcomeServerFault:
		e.WithKind(shipper.ErrServiceUnavailable).WithRetryable(true)
	}
	return e
}

// ============================================================================
// Conversion helpers: Shipper models -> API models
// ============================================================================

func quoteRequestToAPI(req *shipper.QuoteRequest) *QuotationRequest {
	stops := make([]Stop, len(req.Stops))
	for i, loc := range req.Stops {
		stops[i] = Stop{
			Coordinates: Coordinates{Lat: formatCoordinate(loc.Latitude), Lng: formatCoordinate(loc.Longitude)},
			Address:     loc.Address,
		}
	}

	specialRequests := req.SpecialRequests
	if specialRequests == nil {
		specialRequests = []string{}
	}

	apiReq := &QuotationRequest{
		ServiceType:      string(req.ServiceType),
		SpecialRequests:  specialRequests,
		Language:         req.Language,
		Stops:            stops,
		IsRouteOptimized: req.OptimizeRoute,
	}
	if req.ScheduleAt != nil {
		apiReq.ScheduleAt = req.ScheduleAt.UTC().Format(time.RFC3339)
	}
	return apiReq
}

func createOrderRequestToAPI(req *shipper.CreateOrderRequest) *OrderRequest {
	recipients := make([]Recipient, len(req.Recipients))
	for i, r := range req.Recipients {
		recipients[i] = Recipient{
			StopID:  r.StopID,
			Name:    r.Contact.Name,
			Phone:   r.Contact.Phone,
			Remarks: r.Remarks,
		}
	}

	return &OrderRequest{
		QuotationID: req.QuoteID,
		Sender: Sender{
			StopID: req.SenderStopID,
			Name:   req.Sender.Name,
			Phone:  req.Sender.Phone,
		},
		Recipients:   recipients,
		IsPODEnabled: req.ProofOfDelivery,
		Partner:      req.Partner,
		Metadata:     req.Metadata,
	}
}

// ============================================================================
// Conversion helpers: API models -> Shipper models
// ============================================================================

func cityToShipper(city City) shipper.City {
	services := make([]shipper.ServiceType, len(city.Services))
	for i, s := range city.Services {
		services[i] = shipper.ServiceType(s.Key)
	}
	return shipper.City{
		Code:     city.Locode,
		Name:     city.Name,
		Services: services,
	}
}

func quotationToShipper(q *Quotation) *shipper.QuoteResponse {
	stops := make([]shipper.Stop, len(q.Stops))
	for i, s := range q.Stops {
		stops[i] = shipper.Stop{ID: s.StopID, Location: stopLocation(s.Coordinates, s.Address)}
	}

	expiresAt, _ := time.Parse(time.RFC3339, q.ExpiresAt)
	var scheduleAt *time.Time
	if t, err := time.Parse(time.RFC3339, q.ScheduleAt); err == nil {
		scheduleAt = &t
	}

	return &shipper.QuoteResponse{
		Carrier:        carrierName,
		QuoteID:        q.QuotationID,
		ServiceType:    shipper.ServiceType(q.ServiceType),
		Stops:          stops,
		Price:          priceToShipper(q.PriceBreakdown),
		DistanceMeters: distanceMeters(q.Distance),
		ScheduleAt:     scheduleAt,
		ExpiresAt:      expiresAt,
	}
}

func orderToShipper(o *Order) *shipper.Order {
	order := &shipper.Order{
		OrderID:     o.OrderID,
		QuoteID:     o.QuotationID,
		Carrier:     carrierName,
		Status:      mapStatus(o.Status),
		DriverID:    o.DriverID,
		TrackingURL: o.ShareLink,
	}
	if o.PriceBreakdown != nil {
		price := priceToShipper(*o.PriceBreakdown)
		order.Price = &price
	}
	if o.Distance != nil {
		order.DistanceMeters = distanceMeters(*o.Distance)
	}
	return order
}

func driverToShipper(d *Driver) *shipper.Driver {
	driver := &shipper.Driver{
		DriverID:    d.DriverID,
		Name:        d.Name,
		Phone:       d.Phone,
		PlateNumber: d.PlateNumber,
		PhotoURL:    d.PhotoURL,
	}
	if d.Coordinates != nil {
		loc := stopLocation(*d.Coordinates, "")
		driver.Location = &loc
	}
	return driver
}

func priceToShipper(p PriceBreakdown) shipper.PriceBreakdown {
	money := func(s string) shipper.Money {
		amount, _ := strconv.ParseFloat(s, 64)
		return shipper.Money{Amount: amount, Currency: p.Currency}
	}
	return shipper.PriceBreakdown{
		Base:         money(p.Base),
		ExtraMileage: money(p.ExtraMileage),
		Surcharge:    money(p.Surcharge),
		PriorityFee:  money(p.PriorityFee),
		Total:        money(p.Total),
	}
}

// ============================================================================
// Mapping helpers
// ============================================================================

func mapStatus(status string) shipper.ShipmentStatus {
	switch status {
	case StatusAssigningDriver:
		return shipper.StatusAssigningDriver
	case StatusOnGoing:
		return shipper.StatusAssigned
	case StatusPickedUp:
		return shipper.StatusPickedUp
	case StatusCompleted:
		return shipper.StatusDelivered
	case StatusCanceled:
		return shipper.StatusCancelled
	case StatusRejected:
		return shipper.StatusRejected
	case StatusExpired:
		return shipper.StatusExpired
	case "":
		return shipper.StatusPending
	default:
		return shipper.StatusException
	}
}

func stopLocation(c Coordinates, address string) shipper.Location {
	lat, _ := strconv.ParseFloat(c.Lat, 64)
	lng, _ := strconv.ParseFloat(c.Lng, 64)
	return shipper.Location{Latitude: lat, Longitude: lng, Address: address}
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// distanceMeters normalizes a Lalamove distance to meters.
func distanceMeters(m Measure) float64 {
	v, err := strconv.ParseFloat(m.Value, 64)
	if err != nil {
		return 0
	}
	if strings.EqualFold(m.Unit, "km") {
		return v * 1000
	}
	return v
}

// String implements fmt.Stringer for debugging output.
func (c Config) String() string {
	return fmt.Sprintf("lalamove(market=%s, environment=%s, mock=%t)", strings.ToUpper(c.Market), c.Environment, c.UseMock)
}

var _ shipper.Shipper = (*Client)(nil)
