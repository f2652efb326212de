package lalamove

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCities           func(ctx context.Context) ([]City, error)
	OnGetQuotation     func(ctx context.Context, req *QuotationRequest) (*Quotation, error)
	OnCreateOrder      func(ctx context.Context, req *OrderRequest) (*Order, error)
	OnGetOrder         func(ctx context.Context, orderID string) (*Order, error)
	OnGetDriverDetails func(ctx context.Context, orderID, driverID string) (*Driver, error)
	OnAddPriorityFee   func(ctx context.Context, orderID string, fee float64) (*Order, error)
	OnCancelOrder      func(ctx context.Context, orderID string) (*Response, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return &APIError{
			Outcome:    OutcomeServerFault,
			StatusCode: http.StatusInternalServerError,
			Body:       []byte(`{"message":"Simulated API error"}`),
		}
	}
	return nil
}

// Cities returns a single mock city.
func (m *MockAPIClient) Cities(ctx context.Context) ([]City, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCities != nil {
		return m.OnCities(ctx)
	}

	return []City{
		{
			Locode: "MY KUL",
			Name:   "Kuala Lumpur",
			Services: []Service{
				{Key: "MOTORCYCLE", Description: "Motorcycle", Load: &Measure{Value: "10", Unit: "kg"}},
				{Key: "CAR", Description: "Car", Load: &Measure{Value: "100", Unit: "kg"}},
				{Key: "VAN", Description: "Van", Load: &Measure{Value: "500", Unit: "kg"}},
			},
		},
	}, nil
}

// GetQuotation returns a mock quotation with stop ids assigned.
func (m *MockAPIClient) GetQuotation(ctx context.Context, req *QuotationRequest) (*Quotation, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetQuotation != nil {
		return m.OnGetQuotation(ctx, req)
	}

	now := time.Now().UTC()
	stops := make([]Stop, len(req.Stops))
	for i, s := range req.Stops {
		s.StopID = uuid.New().String()[:8]
		stops[i] = s
	}

	return &Quotation{
		QuotationID:     "mock-quotation-" + uuid.New().String()[:8],
		ScheduleAt:      now.Format(time.RFC3339),
		ExpiresAt:       now.Add(5 * time.Minute).Format(time.RFC3339),
		ServiceType:     req.ServiceType,
		SpecialRequests: req.SpecialRequests,
		Language:        req.Language,
		Stops:           stops,
		PriceBreakdown: PriceBreakdown{
			Base:                    "12",
			ExtraMileage:            "3.5",
			TotalExcludePriorityFee: "15.5",
			Total:                   "15.5",
			Currency:                "MYR",
		},
		Distance: Measure{Value: "8240", Unit: "m"},
	}, nil
}

// CreateOrder returns a mock order awaiting a driver.
func (m *MockAPIClient) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateOrder != nil {
		return m.OnCreateOrder(ctx, req)
	}

	orderID := "mock-order-" + uuid.New().String()[:8]
	return &Order{
		OrderID:     orderID,
		QuotationID: req.QuotationID,
		PriceBreakdown: &PriceBreakdown{
			Base:     "12",
			Total:    "15.5",
			Currency: "MYR",
		},
		ShareLink: "https://share.sandbox.lalamove.com/?" + orderID,
		Status:    StatusAssigningDriver,
		Metadata:  req.Metadata,
	}, nil
}

// GetOrder returns a mock order that already has a driver.
func (m *MockAPIClient) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetOrder != nil {
		return m.OnGetOrder(ctx, orderID)
	}

	return &Order{
		OrderID:  orderID,
		DriverID: "mock-driver-1",
		Status:   StatusOnGoing,
		PriceBreakdown: &PriceBreakdown{
			Base:     "12",
			Total:    "15.5",
			Currency: "MYR",
		},
	}, nil
}

// GetDriverDetails returns a mock driver.
func (m *MockAPIClient) GetDriverDetails(ctx context.Context, orderID, driverID string) (*Driver, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetDriverDetails != nil {
		return m.OnGetDriverDetails(ctx, orderID, driverID)
	}

	return &Driver{
		DriverID:    driverID,
		Name:        "Mock Driver",
		Phone:       "+60123456789",
		PlateNumber: "WXY 1234",
		Coordinates: &Coordinates{Lat: "3.148984", Lng: "101.713302"},
	}, nil
}

// AddPriorityFee returns the mock order with the fee applied.
func (m *MockAPIClient) AddPriorityFee(ctx context.Context, orderID string, fee float64) (*Order, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnAddPriorityFee != nil {
		return m.OnAddPriorityFee(ctx, orderID, fee)
	}

	return &Order{
		OrderID: orderID,
		Status:  StatusAssigningDriver,
		PriceBreakdown: &PriceBreakdown{
			Base:                    "12",
			TotalExcludePriorityFee: "15.5",
			PriorityFee:             FormatAmount(fee),
			Total:                   FormatAmount(15.5 + fee),
			Currency:                "MYR",
		},
	}, nil
}

// CancelOrder answers 204 No Content.
func (m *MockAPIClient) CancelOrder(ctx context.Context, orderID string) (*Response, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelOrder != nil {
		return m.OnCancelOrder(ctx, orderID)
	}

	return &Response{
		StatusCode: http.StatusNoContent,
		Header:     http.Header{},
		Outcome:    OutcomeSuccess,
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
