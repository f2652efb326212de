// Package mock provides a mock shipper implementation for testing.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/tournevent/lalamove/pkg/shipper"
)

// Client is a mock shipper for testing.
type Client struct {
	name string

	// Total is the quoted total price. Defaults to 15.50.
	Total float64

	// Err, when set, is returned by every operation.
	Err error
}

// New creates a new mock shipper.
func New(name string) *Client {
	return &Client{name: name, Total: 15.50}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// Cities returns one mock city.
func (c *Client) Cities(ctx context.Context) ([]shipper.City, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return []shipper.City{
		{
			Code:     "MY KUL",
			Name:     "Kuala Lumpur",
			Services: []shipper.ServiceType{shipper.ServiceMotorcycle, shipper.ServiceCar},
		},
	}, nil
}

// GetQuote returns a mock quote with one stop per requested location.
func (c *Client) GetQuote(ctx context.Context, req *shipper.QuoteRequest) (*shipper.QuoteResponse, error) {
	if c.Err != nil {
		return nil, c.Err
	}

	now := time.Now()
	stops := make([]shipper.Stop, len(req.Stops))
	for i, loc := range req.Stops {
		stops[i] = shipper.Stop{ID: fmt.Sprintf("%s-stop-%d", c.name, i), Location: loc}
	}

	return &shipper.QuoteResponse{
		Carrier:     c.name,
		QuoteID:     fmt.Sprintf("%s-quote-%d", c.name, now.UnixNano()),
		ServiceType: req.ServiceType,
		Stops:       stops,
		Price: shipper.PriceBreakdown{
			Base:  shipper.Money{Amount: c.Total, Currency: "MYR"},
			Total: shipper.Money{Amount: c.Total, Currency: "MYR"},
		},
		DistanceMeters: 5000,
		ExpiresAt:      now.Add(5 * time.Minute),
	}, nil
}

// CreateOrder creates a mock order awaiting a driver.
func (c *Client) CreateOrder(ctx context.Context, req *shipper.CreateOrderRequest) (*shipper.Order, error) {
	if c.Err != nil {
		return nil, c.Err
	}

	orderID := fmt.Sprintf("%s-order-%d", c.name, time.Now().UnixNano())
	return &shipper.Order{
		OrderID:     orderID,
		QuoteID:     req.QuoteID,
		Carrier:     c.name,
		Status:      shipper.StatusAssigningDriver,
		TrackingURL: fmt.Sprintf("https://track.%s.mock/%s", c.name, orderID),
		Price: &shipper.PriceBreakdown{
			Total: shipper.Money{Amount: c.Total, Currency: "MYR"},
		},
	}, nil
}

// GetOrder returns a mock order with a driver assigned.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*shipper.Order, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return &shipper.Order{
		OrderID:  orderID,
		Carrier:  c.name,
		Status:   shipper.StatusAssigned,
		DriverID: c.name + "-driver-1",
	}, nil
}

// GetDriver returns a mock driver.
func (c *Client) GetDriver(ctx context.Context, orderID, driverID string) (*shipper.Driver, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return &shipper.Driver{
		DriverID:    driverID,
		Name:        "Mock Driver",
		Phone:       "+60123456789",
		PlateNumber: "MOCK 1",
	}, nil
}

// AddPriorityFee returns the mock order with the fee added to its total.
func (c *Client) AddPriorityFee(ctx context.Context, req *shipper.PriorityFeeRequest) (*shipper.Order, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return &shipper.Order{
		OrderID: req.OrderID,
		Carrier: c.name,
		Status:  shipper.StatusAssigningDriver,
		Price: &shipper.PriceBreakdown{
			PriorityFee: shipper.Money{Amount: req.Amount, Currency: "MYR"},
			Total:       shipper.Money{Amount: c.Total + req.Amount, Currency: "MYR"},
		},
	}, nil
}

// CancelOrder cancels a mock order.
func (c *Client) CancelOrder(ctx context.Context, req *shipper.CancelOrderRequest) (*shipper.CancelOrderResponse, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return &shipper.CancelOrderResponse{
		OrderID: req.OrderID,
		Status:  shipper.StatusCancelled,
	}, nil
}

var _ shipper.Shipper = (*Client)(nil)
