package lalamove

import (
	"context"
	"net/http"
)

// APIClient defines the Lalamove v3 operations.
// HTTPAPIClient talks to the real service; MockAPIClient is used in tests
// and when the bridge runs with mocks enabled.
type APIClient interface {
	// Cities lists the cities and services available in the configured market.
	Cities(ctx context.Context) ([]City, error)

	// GetQuotation prices a delivery. The returned quotation id and stop ids
	// are required by CreateOrder.
	GetQuotation(ctx context.Context, req *QuotationRequest) (*Quotation, error)

	// CreateOrder places an order against a quotation.
	CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error)

	// GetOrder fetches the current state of an order.
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// GetDriverDetails fetches the driver assigned to an order.
	GetDriverDetails(ctx context.Context, orderID, driverID string) (*Driver, error)

	// AddPriorityFee adds a tip to an order that is still looking for a driver.
	AddPriorityFee(ctx context.Context, orderID string, fee float64) (*Order, error)

	// CancelOrder cancels an order. The raw response is returned so callers
	// can check the status code (Lalamove answers 204 No Content).
	CancelOrder(ctx context.Context, orderID string) (*Response, error)
}

// Response is a classified Lalamove response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Outcome    Outcome
}

// ============================================================================
// API Request/Response Types (match Lalamove REST API v3)
// ============================================================================

// Order statuses reported by GET /v3/orders/{id}.
const (
	StatusAssigningDriver = "ASSIGNING_DRIVER"
	StatusOnGoing         = "ON_GOING"
	StatusPickedUp        = "PICKED_UP"
	StatusCompleted       = "COMPLETED"
	StatusCanceled        = "CANCELED"
	StatusRejected        = "REJECTED"
	StatusExpired         = "EXPIRED"
)

// envelope wraps every request and response body.
type envelope[T any] struct {
	Data T `json:"data"`
}

// City is an entry of GET /v3/cities.
type City struct {
	Locode   string    `json:"locode"`
	Name     string    `json:"name"`
	Services []Service `json:"services"`
}

// Service is a vehicle type offered in a city.
type Service struct {
	Key             string           `json:"key"`
	Description     string           `json:"description"`
	Load            *Measure         `json:"load,omitempty"`
	Dimensions      *Dimensions      `json:"dimensions,omitempty"`
	SpecialRequests []SpecialRequest `json:"specialRequests,omitempty"`
}

// SpecialRequest is an add-on available for a service.
type SpecialRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ParentType   string `json:"parent_type,omitempty"`
	MaxSelection int    `json:"max_selection,omitempty"`
}

// Dimensions of a vehicle's cargo space.
type Dimensions struct {
	Length Measure `json:"length"`
	Width  Measure `json:"width"`
	Height Measure `json:"height"`
}

// Measure is a value with a unit, e.g. {"value":"10","unit":"kg"}.
type Measure struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Coordinates are decimal degrees encoded as strings.
type Coordinates struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

// Stop is a pickup or drop-off point. StopID is assigned by Lalamove in the
// quotation response.
type Stop struct {
	StopID      string      `json:"stopId,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
	Address     string      `json:"address"`
}

// Item describes the goods being delivered.
type Item struct {
	Quantity             string   `json:"quantity,omitempty"`
	Weight               string   `json:"weight,omitempty"`
	Categories           []string `json:"categories,omitempty"`
	HandlingInstructions []string `json:"handlingInstructions,omitempty"`
}

// QuotationRequest is the payload of POST /v3/quotations.
type QuotationRequest struct {
	ScheduleAt       string   `json:"scheduleAt,omitempty"` // RFC3339, UTC
	ServiceType      string   `json:"serviceType"`
	SpecialRequests  []string `json:"specialRequests"`
	Language         string   `json:"language"`
	Stops            []Stop   `json:"stops"`
	IsRouteOptimized bool     `json:"isRouteOptimized,omitempty"`
	Item             *Item    `json:"item,omitempty"`
}

// PriceBreakdown amounts are decimal strings in Currency.
type PriceBreakdown struct {
	Base                    string `json:"base"`
	ExtraMileage            string `json:"extraMileage,omitempty"`
	Surcharge               string `json:"surcharge,omitempty"`
	TotalBeforeOptimization string `json:"totalBeforeOptimization,omitempty"`
	TotalExcludePriorityFee string `json:"totalExcludePriorityFee,omitempty"`
	PriorityFee             string `json:"priorityFee,omitempty"`
	Total                   string `json:"total"`
	Currency                string `json:"currency"`
}

// Quotation is the response of POST /v3/quotations.
type Quotation struct {
	QuotationID      string         `json:"quotationId"`
	ScheduleAt       string         `json:"scheduleAt"`
	ExpiresAt        string         `json:"expiresAt"`
	ServiceType      string         `json:"serviceType"`
	SpecialRequests  []string       `json:"specialRequests"`
	Language         string         `json:"language"`
	Stops            []Stop         `json:"stops"`
	IsRouteOptimized bool           `json:"isRouteOptimized"`
	PriceBreakdown   PriceBreakdown `json:"priceBreakdown"`
	Distance         Measure        `json:"distance"`
}

// Sender references the pickup stop of a quotation.
type Sender struct {
	StopID string `json:"stopId"`
	Name   string `json:"name"`
	Phone  string `json:"phone"` // E.164
}

// Recipient references a drop-off stop of a quotation.
type Recipient struct {
	StopID  string `json:"stopId"`
	Name    string `json:"name"`
	Phone   string `json:"phone"` // E.164
	Remarks string `json:"remarks,omitempty"`
}

// OrderRequest is the payload of POST /v3/orders.
type OrderRequest struct {
	QuotationID  string            `json:"quotationId"`
	Sender       Sender            `json:"sender"`
	Recipients   []Recipient       `json:"recipients"`
	IsPODEnabled bool              `json:"isPODEnabled,omitempty"`
	Partner      string            `json:"partner,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// OrderStop is a stop as reported on an order, with contact and proof of delivery.
type OrderStop struct {
	StopID      string      `json:"stopId"`
	Coordinates Coordinates `json:"coordinates"`
	Address     string      `json:"address"`
	Name        string      `json:"name,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	POD         *POD        `json:"POD,omitempty"`
}

// POD is proof of delivery for a drop-off stop.
type POD struct {
	Status      string `json:"status"`
	Image       string `json:"image,omitempty"`
	DeliveredAt string `json:"deliveredAt,omitempty"`
}

// Order is returned by order creation, retrieval and priority fee calls.
type Order struct {
	OrderID        string            `json:"orderId"`
	QuotationID    string            `json:"quotationId,omitempty"`
	PriceBreakdown *PriceBreakdown   `json:"priceBreakdown,omitempty"`
	DriverID       string            `json:"driverId,omitempty"`
	ShareLink      string            `json:"shareLink,omitempty"`
	Status         string            `json:"status"`
	Distance       *Measure          `json:"distance,omitempty"`
	Stops          []OrderStop       `json:"stops,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Driver is the response of GET /v3/orders/{orderId}/drivers/{driverId}.
type Driver struct {
	DriverID    string       `json:"driverId"`
	Name        string       `json:"name"`
	Phone       string       `json:"phone"`
	PlateNumber string       `json:"plateNumber"`
	PhotoURL    string       `json:"photo,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// priorityFeeRequest is the payload of POST /v3/orders/{orderId}/priority-fee.
type priorityFeeRequest struct {
	PriorityFee string `json:"priorityFee"`
}
