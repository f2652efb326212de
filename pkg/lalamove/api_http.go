package lalamove

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// DefaultMarket is used when no market is configured.
const DefaultMarket = "MY"

// HTTPAPIClient is the production implementation of APIClient.
// Its fields are set once by NewHTTPAPIClient and never mutated, so a
// single client may be shared between goroutines.
type HTTPAPIClient struct {
	apiKey     string
	apiSecret  string
	market     string
	baseURL    string
	httpClient *http.Client
	logger     *otelzap.Logger
	debug      bool
	now        func() time.Time
	requestID  func() string
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	APIKey      string
	APISecret   string
	Market      string      // e.g. "MY", "SG"; sent upper-cased
	Environment Environment // Production unless set
	Timeout     time.Duration

	// HTTPClient overrides the default instrumented client. Redirects are
	// never followed: a client without CheckRedirect is copied and given one
	// returning http.ErrUseLastResponse, so 3xx responses reach Classify.
	HTTPClient *http.Client

	// Logger receives request diagnostics when Debug is set.
	Logger *otelzap.Logger
	Debug  bool

	// Now and RequestID are replaced in tests to make requests reproducible.
	Now       func() time.Time
	RequestID func() string
}

// NewHTTPAPIClient creates a new HTTP-based API client.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	market := cfg.Market
	if market == "" {
		market = DefaultMarket
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout:       timeout,
			Transport:     otelhttp.NewTransport(http.DefaultTransport),
			CheckRedirect: noRedirect,
		}
	} else if httpClient.CheckRedirect == nil {
		copied := *httpClient
		copied.CheckRedirect = noRedirect
		httpClient = &copied
	}

	logger := cfg.Logger
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	requestID := cfg.RequestID
	if requestID == nil {
		requestID = func() string { return uuid.New().String() }
	}

	return &HTTPAPIClient{
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		market:     strings.ToUpper(market),
		baseURL:    cfg.Environment.BaseURL(),
		httpClient: httpClient,
		logger:     logger,
		debug:      cfg.Debug,
		now:        now,
		requestID:  requestID,
	}
}

// Cities lists the cities served in the configured market.
// GET /v3/cities
func (c *HTTPAPIClient) Cities(ctx context.Context) ([]City, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v3/cities", nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]City](resp)
}

// GetQuotation requests a price for a delivery.
// POST /v3/quotations
func (c *HTTPAPIClient) GetQuotation(ctx context.Context, req *QuotationRequest) (*Quotation, error) {
	body, err := encodeData(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/v3/quotations", body)
	if err != nil {
		return nil, err
	}
	return decodeData[*Quotation](resp)
}

// CreateOrder places an order.
// POST /v3/orders
func (c *HTTPAPIClient) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	body, err := encodeData(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/v3/orders", body)
	if err != nil {
		return nil, err
	}
	return decodeData[*Order](resp)
}

// GetOrder retrieves an order.
// GET /v3/orders/{orderId}
func (c *HTTPAPIClient) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	resp, err := c.do(ctx, http.MethodGet, orderPath(orderID), nil)
	if err != nil {
		return nil, err
	}
	return decodeData[*Order](resp)
}

// GetDriverDetails retrieves the driver assigned to an order.
// GET /v3/orders/{orderId}/drivers/{driverId}
func (c *HTTPAPIClient) GetDriverDetails(ctx context.Context, orderID, driverID string) (*Driver, error) {
	path := orderPath(orderID) + "/drivers/" + url.PathEscape(driverID)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[*Driver](resp)
}

// AddPriorityFee adds a priority fee to an order. Lalamove expects the fee
// as a decimal string.
// POST /v3/orders/{orderId}/priority-fee
func (c *HTTPAPIClient) AddPriorityFee(ctx context.Context, orderID string, fee float64) (*Order, error) {
	body, err := encodeData(priorityFeeRequest{PriorityFee: FormatAmount(fee)})
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, orderPath(orderID)+"/priority-fee", body)
	if err != nil {
		return nil, err
	}
	return decodeData[*Order](resp)
}

// CancelOrder cancels an order and returns the raw response.
// DELETE /v3/orders/{orderId}
func (c *HTTPAPIClient) CancelOrder(ctx context.Context, orderID string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, orderPath(orderID), nil)
}

// do signs and sends a request, then classifies the response. Transport
// errors are returned unchanged; non-2xx responses become *APIError.
func (c *HTTPAPIClient) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	method = strings.ToUpper(method)
	timestamp := c.now().UnixMilli()
	signature := Sign(c.apiSecret, method, path, body, timestamp)

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", authorization(c.apiKey, timestamp, signature))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Request-ID", c.requestID())
	req.Header.Set("Market", c.market)

	if c.debug {
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("endpoint", path),
			zap.Any("headers", redactHeaders(req.Header)),
		}
		if body != nil {
			fields = append(fields, zap.ByteString("body", body))
		}
		c.logger.Ctx(ctx).Debug("Sending Lalamove request", fields...)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       raw,
		Outcome:    Classify(httpResp.StatusCode),
	}

	if c.debug {
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("endpoint", path),
			zap.Int("status", resp.StatusCode),
			zap.Stringer("outcome", resp.Outcome),
		}
		if resp.Outcome == OutcomeSuccess {
			fields = append(fields, zap.ByteString("body", raw))
		}
		c.logger.Ctx(ctx).Debug("Received Lalamove response", fields...)
	}

	if resp.Outcome != OutcomeSuccess {
		return nil, &APIError{
			Outcome:    resp.Outcome,
			StatusCode: resp.StatusCode,
			Body:       raw,
		}
	}
	return resp, nil
}

// FormatAmount renders a fee the way Lalamove expects it: shortest decimal,
// no exponent ("10", "12.5").
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// noRedirect hands 3xx responses back to the caller. A followed redirect
// would resend the request signed for the original path.
func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

func orderPath(orderID string) string {
	return "/v3/orders/" + url.PathEscape(orderID)
}

// encodeData wraps v in the {"data": ...} envelope.
func encodeData(v any) ([]byte, error) {
	body, err := json.Marshal(envelope[any]{Data: v})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return body, nil
}

// decodeData unwraps the "data" member of a successful response.
func decodeData[T any](resp *Response) (T, error) {
	var env envelope[T]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return env.Data, fmt.Errorf("failed to decode response: %w", err)
	}
	return env.Data, nil
}

// redactHeaders copies h with the signature removed from Authorization.
func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	if auth := out["Authorization"]; auth != "" {
		if i := strings.LastIndex(auth, ":"); i >= 0 {
			out["Authorization"] = auth[:i+1] + "[REDACTED]"
		}
	}
	return out
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
