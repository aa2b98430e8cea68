package models

import "time"

// Delivery types a client may choose for a request.
const (
	DeliveryRegular = "Regular"
	DeliveryExpress = "Express"
)

// Request statuses. New requests always start as Pending; the others are
// set by project management outside the intake flow.
const (
	RequestStatusPending  = "Pending"
	RequestStatusApproved = "Approved"
	RequestStatusRejected = "Rejected"
)

// Request is a client's annotation request.
type Request struct {
	ID                    int64
	ClientID              int64
	Description           string
	SpecialRequirements   string
	DeliveryType          string
	Status                string
	ReasonForRejection    *string
	EstimatedDeliveryDate *time.Time
	CreatedAt             time.Time
}

// RequestView is a Request joined with its client's name, as listed on the
// dashboard.
type RequestView struct {
	ID                    int64      `json:"id"`
	ClientID              int64      `json:"client_id"`
	ClientName            string     `json:"client_name"`
	Description           string     `json:"description"`
	SpecialRequirements   *string    `json:"special_requirements"`
	DeliveryType          string     `json:"delivery_type"`
	Status                string     `json:"status"`
	ReasonForRejection    *string    `json:"reason_for_rejection"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
	CreatedAt             time.Time  `json:"created_at"`
}
