// Package shipper provides an abstraction layer for on-demand delivery carriers.
package shipper

import (
	"context"
)

// Shipper defines the interface that all delivery carriers must implement.
type Shipper interface {
	// Name returns the carrier identifier (e.g., "lalamove").
	Name() string

	// Cities lists the service areas the carrier operates in.
	Cities(ctx context.Context) ([]City, error)

	// GetQuote prices a delivery across the given stops.
	GetQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)

	// CreateOrder books a delivery from a previously obtained quote.
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error)

	// GetOrder returns the current state of an order.
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// GetDriver returns the driver assigned to an order.
	GetDriver(ctx context.Context, orderID, driverID string) (*Driver, error)

	// AddPriorityFee raises the price of an order to attract a driver sooner.
	AddPriorityFee(ctx context.Context, req *PriorityFeeRequest) (*Order, error)

	// CancelOrder cancels an existing order.
	CancelOrder(ctx context.Context, req *CancelOrderRequest) (*CancelOrderResponse, error)
}
