package lalamove_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/lalamove/pkg/lalamove"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// capturedRequest is what the stub transport saw.
type capturedRequest struct {
	method string
	url    string
	header http.Header
	body   []byte
}

// stubTransport answers every request with status and body and records the request.
func stubTransport(status int, body string, captured *[]capturedRequest) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			var reqBody []byte
			if req.Body != nil {
				reqBody, _ = io.ReadAll(req.Body)
			}
			*captured = append(*captured, capturedRequest{
				method: req.Method,
				url:    req.URL.String(),
				header: req.Header.Clone(),
				body:   reqBody,
			})
			return &http.Response{
				StatusCode: status,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(bytes.NewBufferString(body)),
				Request:    req,
			}, nil
		}),
	}
}

func newTestAPIClient(httpClient *http.Client) *lalamove.HTTPAPIClient {
	return lalamove.NewHTTPAPIClient(lalamove.HTTPAPIClientConfig{
		APIKey:      "pk_test_key",
		APISecret:   "sk_test_secret",
		Market:      "my",
		Environment: lalamove.Sandbox,
		HTTPClient:  httpClient,
		Now:         func() time.Time { return time.UnixMilli(1700000000000) },
		RequestID:   func() string { return "req-fixed" },
	})
}

func TestHTTPAPIClient_GetOrder_Success(t *testing.T) {
	var captured []capturedRequest
	client := newTestAPIClient(stubTransport(http.StatusOK,
		`{"data":{"orderId":"abc123","status":"ASSIGNING_DRIVER"}}`, &captured))

	order, err := client.GetOrder(context.Background(), "abc123")

	require.NoError(t, err)
	assert.Equal(t, "abc123", order.OrderID)
	assert.Equal(t, "ASSIGNING_DRIVER", order.Status)

	require.Len(t, captured, 1)
	req := captured[0]
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "https://rest.sandbox.lalamove.com/v3/orders/abc123", req.url)
	assert.Empty(t, req.body)

	signature := lalamove.Sign("sk_test_secret", "GET", "/v3/orders/abc123", nil, 1700000000000)
	assert.Equal(t, "hmac pk_test_key:1700000000000:"+signature, req.header.Get("Authorization"))
	assert.Equal(t, "application/json", req.header.Get("Content-Type"))
	assert.Equal(t, "req-fixed", req.header.Get("Request-ID"))
	assert.Equal(t, "MY", req.header.Get("Market"))
}

func TestHTTPAPIClient_GetOrder_NotFound(t *testing.T) {
	var captured []capturedRequest
	client := newTestAPIClient(stubTransport(http.StatusNotFound, `{"message":"not found"}`, &captured))

	order, err := client.GetOrder(context.Background(), "abc123")

	assert.Nil(t, order)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lalamove.ErrClientFault))

	var apiErr *lalamove.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, lalamove.OutcomeClientFault, apiErr.Outcome)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, `{"message":"not found"}`, string(apiErr.Body))
}

func TestHTTPAPIClient_Classification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, lalamove.ErrClientFault},
		{http.StatusUnauthorized, lalamove.ErrClientFault},
		{http.StatusUnprocessableEntity, lalamove.ErrClientFault},
		{http.StatusInternalServerError, lalamove.ErrServerFault},
		{http.StatusServiceUnavailable, lalamove.ErrServerFault},
		{http.StatusNotModified, lalamove.ErrUnexpectedFault},
		{600, lalamove.ErrUnexpectedFault},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			var captured []capturedRequest
			client := newTestAPIClient(stubTransport(tt.status, `{"message":"boom"}`, &captured))

			_, err := client.Cities(context.Background())

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var apiErr *lalamove.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, `{"message":"boom"}`, string(apiErr.Body))
		})
	}
}

func TestHTTPAPIClient_TransportErrorNotClassified(t *testing.T) {
	boom := errors.New("connection refused")
	client := newTestAPIClient(&http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, boom
		}),
	})

	_, err := client.GetOrder(context.Background(), "abc123")

	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var apiErr *lalamove.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestHTTPAPIClient_Cities(t *testing.T) {
	var captured []capturedRequest
	client := newTestAPIClient(stubTransport(http.StatusOK,
		`{"data":[{"locode":"MY KUL","name":"Kuala Lumpur","services":[{"key":"MOTORCYCLE","description":"Motorcycle"}]}]}`,
		&captured))

	cities, err := client.Cities(context.Background())

	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "MY KUL", cities[0].Locode)
	assert.Equal(t, "MOTORCYCLE", cities[0].Services[0].Key)
	assert.Equal(t, "https://rest.sandbox.lalamove.com/v3/cities", captured[0].url)
}

func TestHTTPAPIClient_GetQuotation_WrapsBodyAndSignsIt(t *testing.T) {
	var captured []capturedRequest
	client := newTestAPIClient(stubTransport(http.StatusCreated,
		`{"data":{"quotationId":"q-1","stops":[{"stopId":"s-1"},{"stopId":"s-2"}],"priceBreakdown":{"base":"12","total":"15.5","currency":"MYR"}}}`,
		&captured))

	req := &lalamove.QuotationRequest{
		ServiceType:     "MOTORCYCLE",
		SpecialRequests: []string{},
		Language:        "en_MY",
		Stops: []lalamove.Stop{
			{Coordinates: lalamove.Coordinates{Lat: "3.118270", Lng: "101.676720"}, Address: "Mid Valley Megamall"},
			{Coordinates: lalamove.Coordinates{Lat: "3.148984", Lng: "101.713302"}, Address: "Pavilion KL"},
		},
	}

	quotation, err := client.GetQuotation(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "q-1", quotation.QuotationID)
	assert.Equal(t, "s-2", quotation.Stops[1].StopID)
	assert.Equal(t, "15.5", quotation.PriceBreakdown.Total)

	sent := captured[0]
	assert.Equal(t, http.MethodPost, sent.method)

	var wrapped struct {
		Data lalamove.QuotationRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(sent.body, &wrapped))
	assert.Equal(t, *req, wrapped.Data)

	signature := lalamove.Sign("sk_test_secret", "POST", "/v3/quotations", sent.body, 1700000000000)
	assert.Equal(t, "hmac pk_test_key:1700000000000:"+signature, sent.header.Get("Authorization"))
}

func TestHTTPAPIClient_CreateOrder(t *testing.T) {
	var captured []capturedRequest
	client := newTestAPIClient(stubTransport(http.StatusCreated,
		`{"data":{"orderId":"o-1","quotationId":"q-1","status":"ASSIGNING_DRIVER","shareLink":"https://share/o-1"}}`,
		&captured))

	order, err := client.CreateOrder(context.Background(), &lalamove.OrderRequest{
		QuotationID: "q-1",
		Sender:      lalamove.Sender{StopID: "s-1", Name: "Amir", Phone: "+60123456789"},
		Recipients: []lalamove.Recipient{
			{StopID: "s-2", Name: "Tan", Phone: "+60198765432", Remarks: "Please call upon arrival"},
		},
		IsPODEnabled: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "o-1", order.OrderID)
	assert.Equal(t, "https://share/o-1", order.ShareLink)

	sent := captured[0]
	assert.Equal(t, "https://rest.sandbox.lalamove.com/v3/orders", sent.url)

	var wrapped map[string]map[string]any
	require.NoError(t, json.Unmarshal(sent.body, &wrapped))
	assert.Equal(t, "q-1", wrapped["data"]["quotationId"])
	assert.Equal(t, true, wrapped["data"]["isPODEnabled"])
}

func TestHTTPAPIClient_GetDriverDetails(t *testing.T) {
	var captured []capturedRequest
	client := newTestAPIClient(stubTransport(http.StatusOK,
		`{"data":{"driverId":"d-9","name":"Rajesh","phone":"+60111111111","plateNumber":"VBA 1234"}}`,
		&captured))

	driver, err := client.GetDriverDetails(context.Background(), "o-1", "d-9")

	require.NoError(t, err)
	assert.Equal(t, "Rajesh", driver.Name)
	assert.Equal(t, "https://rest.sandbox.lalamove.com/v3/orders/o-1/drivers/d-9", captured[0].url)
	assert.Empty(t, captured[0].body)
}

func TestHTTPAPIClient_AddPriorityFee_StringifiesAmount(t *testing.T) {
	var captured []capturedRequest
	client := newTestAPIClient(stubTransport(http.StatusOK,
		`{"data":{"orderId":"o-1","status":"ASSIGNING_DRIVER","priceBreakdown":{"base":"12","priorityFee":"10","total":"25.5","currency":"MYR"}}}`,
		&captured))

	order, err := client.AddPriorityFee(context.Background(), "o-1", 10)

	require.NoError(t, err)
	assert.Equal(t, "10", order.PriceBreakdown.PriorityFee)

	sent := captured[0]
	assert.Equal(t, http.MethodPost, sent.method)
	assert.Equal(t, "https://rest.sandbox.lalamove.com/v3/orders/o-1/priority-fee", sent.url)
	assert.Equal(t, `{"data":{"priorityFee":"10"}}`, string(sent.body))
}

func TestHTTPAPIClient_CancelOrder_ReturnsRawResponse(t *testing.T) {
	var captured []capturedRequest
	client := newTestAPIClient(stubTransport(http.StatusNoContent, "", &captured))

	resp, err := client.CancelOrder(context.Background(), "o-1")

	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, lalamove.OutcomeSuccess, resp.Outcome)
	assert.Empty(t, resp.Body)
	assert.Equal(t, http.MethodDelete, captured[0].method)
	assert.Equal(t, "https://rest.sandbox.lalamove.com/v3/orders/o-1", captured[0].url)
}

func TestHTTPAPIClient_EscapesPathSegments(t *testing.T) {
	var captured []capturedRequest
	client := newTestAPIClient(stubTransport(http.StatusOK, `{"data":{"orderId":"a/b"}}`, &captured))

	_, err := client.GetOrder(context.Background(), "a/b")

	require.NoError(t, err)
	assert.Equal(t, "https://rest.sandbox.lalamove.com/v3/orders/a%2Fb", captured[0].url)
}

func TestHTTPAPIClient_Defaults(t *testing.T) {
	var captured []capturedRequest
	client := lalamove.NewHTTPAPIClient(lalamove.HTTPAPIClientConfig{
		APIKey:     "key",
		APISecret:  "secret",
		HTTPClient: stubTransport(http.StatusOK, `{"data":[]}`, &captured),
	})

	_, err := client.Cities(context.Background())
	require.NoError(t, err)
	_, err = client.Cities(context.Background())
	require.NoError(t, err)

	require.Len(t, captured, 2)
	assert.Equal(t, "https://rest.lalamove.com/v3/cities", captured[0].url, "production is the default")
	assert.Equal(t, lalamove.DefaultMarket, captured[0].header.Get("Market"))

	first := captured[0].header.Get("Request-ID")
	second := captured[1].header.Get("Request-ID")
	_, err = uuid.Parse(first)
	assert.NoError(t, err)
	assert.NotEqual(t, first, second, "request id must be fresh per call")
}

func TestHTTPAPIClient_DebugLogRedactsSignature(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var captured []capturedRequest
	client := lalamove.NewHTTPAPIClient(lalamove.HTTPAPIClientConfig{
		APIKey:     "pk_test_key",
		APISecret:  "sk_test_secret",
		HTTPClient: stubTransport(http.StatusOK, `{"data":{"orderId":"abc123"}}`, &captured),
		Logger:     otelzap.New(zap.New(core)),
		Debug:      true,
		Now:        func() time.Time { return time.UnixMilli(1700000000000) },
	})

	_, err := client.GetOrder(context.Background(), "abc123")
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Sending Lalamove request", entries[0].Message)
	assert.Equal(t, "Received Lalamove response", entries[1].Message)

	signature := lalamove.Sign("sk_test_secret", "GET", "/v3/orders/abc123", nil, 1700000000000)
	headers := fmt.Sprint(entries[0].ContextMap()["headers"])
	assert.Contains(t, headers, "hmac pk_test_key:1700000000000:[REDACTED]")
	assert.NotContains(t, headers, signature)
	assert.Equal(t, `{"data":{"orderId":"abc123"}}`, entries[1].ContextMap()["body"])
}

func TestHTTPAPIClient_NoLogsWithoutDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var captured []capturedRequest
	client := lalamove.NewHTTPAPIClient(lalamove.HTTPAPIClientConfig{
		APIKey:     "pk_test_key",
		APISecret:  "sk_test_secret",
		HTTPClient: stubTransport(http.StatusOK, `{"data":[]}`, &captured),
		Logger:     otelzap.New(zap.New(core)),
	})

	_, err := client.Cities(context.Background())
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestHTTPAPIClient_InjectedClientDoesNotFollowRedirects(t *testing.T) {
	var captured []capturedRequest
	httpClient := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			captured = append(captured, capturedRequest{method: req.Method, url: req.URL.String()})
			if req.Method == http.MethodPost {
				return &http.Response{
					StatusCode: http.StatusFound,
					Header:     http.Header{"Location": []string{"/elsewhere"}},
					Body:       io.NopCloser(bytes.NewBufferString("")),
					Request:    req,
				}, nil
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{"data":{"orderId":"x"}}`)),
				Request:    req,
			}, nil
		}),
	}
	client := newTestAPIClient(httpClient)

	_, err := client.CreateOrder(context.Background(), &lalamove.OrderRequest{QuotationID: "q-1"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, lalamove.ErrUnexpectedFault))
	require.Len(t, captured, 1)
	assert.Equal(t, http.MethodPost, captured[0].method)
	assert.Nil(t, httpClient.CheckRedirect, "the caller's client is left untouched")
}
