package domain

import "time"

// TradeInStatus enumerates lifecycle states for trade-in requests.
type TradeInStatus string

const (
	StatusPending        TradeInStatus = "pending"
	StatusReviewing      TradeInStatus = "reviewing"
	StatusOfferMade      TradeInStatus = "offerMade"
	StatusAccepted       TradeInStatus = "accepted"
	StatusRejected       TradeInStatus = "rejected"
	StatusDeviceReceived TradeInStatus = "deviceReceived"
	StatusInspected      TradeInStatus = "inspected"
	StatusCompleted      TradeInStatus = "completed"
	StatusCancelled      TradeInStatus = "cancelled"
)

// AllStatuses lists every known status in workflow order.
var AllStatuses = []TradeInStatus{
	StatusPending,
	StatusReviewing,
	StatusOfferMade,
	StatusAccepted,
	StatusRejected,
	StatusDeviceReceived,
	StatusInspected,
	StatusCompleted,
	StatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s TradeInStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transition is permitted from s.
func (s TradeInStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

// DeviceType enumerates supported device categories.
type DeviceType string

const (
	DeviceSmartphone DeviceType = "smartphone"
	DeviceTablet     DeviceType = "tablet"
	DeviceLaptop     DeviceType = "laptop"
	DeviceSmartwatch DeviceType = "smartwatch"
	DeviceOther      DeviceType = "other"
)

// Valid reports whether d is a supported device type.
func (d DeviceType) Valid() bool {
	switch d {
	case DeviceSmartphone, DeviceTablet, DeviceLaptop, DeviceSmartwatch, DeviceOther:
		return true
	}
	return false
}

// Condition describes the declared or inspected state of a device.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

// conditionVeryGood is an input alias for like_new.
const conditionVeryGood Condition = "very_good"

// Normalize maps input aliases onto the canonical condition values.
func (c Condition) Normalize() Condition {
	if c == conditionVeryGood {
		return ConditionLikeNew
	}
	return c
}

// Valid reports whether c (after normalization) is a canonical condition.
func (c Condition) Valid() bool {
	switch c.Normalize() {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// BankDetails is the payout target supplied by the owner.
type BankDetails struct {
	IBAN          string `json:"iban"`
	AccountHolder string `json:"accountHolder"`
}

// TradeInRequest is the aggregate for a device buy-back.
type TradeInRequest struct {
	ID                string
	UserID            string
	OwnerEmail        string
	DeviceType        DeviceType
	Brand             string
	Model             string
	Condition         Condition
	Specifications    Specifications
	Description       string
	EstimatedPrice    float64
	FinalPrice        *float64
	Images            []string
	Status            TradeInStatus
	AdminNotes        *string
	TrackingNumber    *string
	BankDetails       *BankDetails
	InspectionResults *InspectionReport
	History           []HistoryEntry
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ImageList returns the images, never nil.
func (r *TradeInRequest) ImageList() []string {
	if r.Images == nil {
		return []string{}
	}
	return r.Images
}

// LastHistory returns the most recent history entry, if any.
func (r *TradeInRequest) LastHistory() (HistoryEntry, bool) {
	if len(r.History) == 0 {
		return HistoryEntry{}, false
	}
	return r.History[len(r.History)-1], true
}
