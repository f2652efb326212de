package shipper

import (
	"time"
)

// ShipmentStatus represents the normalized status of an order.
type ShipmentStatus string

const (
	StatusPending         ShipmentStatus = "pending"
	StatusAssigningDriver ShipmentStatus = "assigning_driver"
	StatusAssigned        ShipmentStatus = "assigned"
	StatusPickedUp        ShipmentStatus = "picked_up"
	StatusDelivered       ShipmentStatus = "delivered"
	StatusCancelled       ShipmentStatus = "cancelled"
	StatusRejected        ShipmentStatus = "rejected"
	StatusExpired         ShipmentStatus = "expired"
	StatusException       ShipmentStatus = "exception"
)

// ServiceType is the vehicle class requested for a delivery.
type ServiceType string

const (
	ServiceMotorcycle ServiceType = "MOTORCYCLE"
	ServiceCar        ServiceType = "CAR"
	ServiceMPV        ServiceType = "MPV"
	ServiceVan        ServiceType = "VAN"
	ServiceTruck      ServiceType = "TRUCK"
)

// Location is a geocoded address.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// Stop is a location the carrier has assigned an id to.
type Stop struct {
	ID       string   `json:"id"`
	Location Location `json:"location"`
}

// Contact represents sender or recipient contact info.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"` // E.164, e.g. "+60123456789"
}

// Money represents a monetary amount.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// PriceBreakdown itemizes the price of a delivery.
type PriceBreakdown struct {
	Base         Money `json:"base"`
	ExtraMileage Money `json:"extraMileage"`
	Surcharge    Money `json:"surcharge"`
	PriorityFee  Money `json:"priorityFee"`
	Total        Money `json:"total"`
}

// City is a carrier service area.
type City struct {
	Code     string        `json:"code"`
	Name     string        `json:"name"`
	Services []ServiceType `json:"services"`
}

// Driver is the courier assigned to an order.
type Driver struct {
	DriverID    string    `json:"driverId"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	PlateNumber string    `json:"plateNumber"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	Location    *Location `json:"location,omitempty"`
}

// ============================================================================
// Request/Response Types
// ============================================================================

// QuoteRequest is the request for pricing a delivery.
// The first stop is the pickup, the rest are drop-offs.
type QuoteRequest struct {
	ServiceType     ServiceType `json:"serviceType"`
	Stops           []Location  `json:"stops"`
	SpecialRequests []string    `json:"specialRequests,omitempty"`
	Language        string      `json:"language,omitempty"` // e.g. "en_MY"
	ScheduleAt      *time.Time  `json:"scheduleAt,omitempty"`
	OptimizeRoute   bool        `json:"optimizeRoute,omitempty"`
}

// QuoteResponse is the priced delivery.
type QuoteResponse struct {
	Carrier        string         `json:"carrier"`
	QuoteID        string         `json:"quoteId"`
	ServiceType    ServiceType    `json:"serviceType"`
	Stops          []Stop         `json:"stops"`
	Price          PriceBreakdown `json:"price"`
	DistanceMeters float64        `json:"distanceMeters"`
	ScheduleAt     *time.Time     `json:"scheduleAt,omitempty"`
	ExpiresAt      time.Time      `json:"expiresAt"`
}

// Recipient is a drop-off stop with its contact.
type Recipient struct {
	StopID  string  `json:"stopId"`
	Contact Contact `json:"contact"`
	Remarks string  `json:"remarks,omitempty"`
}

// CreateOrderRequest is the request for booking a delivery.
type CreateOrderRequest struct {
	QuoteID         string            `json:"quoteId"`
	SenderStopID    string            `json:"senderStopId"`
	Sender          Contact           `json:"sender"`
	Recipients      []Recipient       `json:"recipients"`
	ProofOfDelivery bool              `json:"proofOfDelivery,omitempty"`
	Partner         string            `json:"partner,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Order is the state of a booked delivery.
type Order struct {
	OrderID        string          `json:"orderId"`
	QuoteID        string          `json:"quoteId,omitempty"`
	Carrier        string          `json:"carrier"`
	Status         ShipmentStatus  `json:"status"`
	DriverID       string          `json:"driverId,omitempty"`
	TrackingURL    string          `json:"trackingUrl,omitempty"`
	Price          *PriceBreakdown `json:"price,omitempty"`
	DistanceMeters float64         `json:"distanceMeters,omitempty"`
}

// PriorityFeeRequest is the request for adding a priority fee to an order.
type PriorityFeeRequest struct {
	OrderID string  `json:"orderId"`
	Amount  float64 `json:"amount"`
}

// CancelOrderRequest is the request for cancelling an order.
type CancelOrderRequest struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason,omitempty"`
}

// CancelOrderResponse is the response from cancelling an order.
type CancelOrderResponse struct {
	OrderID string         `json:"orderId"`
	Status  ShipmentStatus `json:"status"`
}
