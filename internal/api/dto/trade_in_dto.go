package dto

import (
	"time"

	"github.com/spec-kit/tradein-service/internal/domain"
)

// CreateTradeInRequest payload. Prices are computed server side; any price
// fields a client sends are ignored.
type CreateTradeInRequest struct {
	DeviceType     domain.DeviceType     `json:"deviceType"`
	Brand          string                `json:"brand"`
	Model          string                `json:"model"`
	Condition      domain.Condition      `json:"condition"`
	Specifications domain.Specifications `json:"specifications"`
	Description    string                `json:"description"`
	Images         []string              `json:"images"`
}

// UploadImagesRequest payload.
type UploadImagesRequest struct {
	Images  []string `json:"images"`
	Replace bool     `json:"replace"`
}

// BankDetailsRequest payload.
type BankDetailsRequest struct {
	IBAN          string `json:"iban"`
	AccountHolder string `json:"accountHolder"`
}

// StatusUpdateRequest payload.
type StatusUpdateRequest struct {
	Status         domain.TradeInStatus `json:"status"`
	FinalPrice     *float64             `json:"finalPrice"`
	Note           *string              `json:"note"`
	TrackingNumber *string              `json:"trackingNumber"`
	AdminNotes     *string              `json:"adminNotes"`
}

// InspectionRequest payload.
type InspectionRequest struct {
	Condition         domain.Condition  `json:"condition"`
	FunctionalityTest map[string]bool   `json:"functionalityTest"`
	Cosmetic          map[string]string `json:"cosmetic"`
	Accessories       []string          `json:"accessories"`
	Notes             string            `json:"notes"`
}

// HistoryEntryResponse is one audit trail entry.
type HistoryEntryResponse struct {
	Status    domain.TradeInStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	Note      *string              `json:"note"`
	UpdatedBy *string              `json:"updatedBy"`
}

// TradeInResponse represents a request. History is omitted in listings.
type TradeInResponse struct {
	ID                string                   `json:"id"`
	UserID            string                   `json:"userId"`
	DeviceType        domain.DeviceType        `json:"deviceType"`
	Brand             string                   `json:"brand"`
	Model             string                   `json:"model"`
	Condition         domain.Condition         `json:"condition"`
	Specifications    domain.Specifications    `json:"specifications"`
	Description       string                   `json:"description"`
	EstimatedPrice    float64                  `json:"estimatedPrice"`
	FinalPrice        *float64                 `json:"finalPrice"`
	Images            []string                 `json:"images"`
	Status            domain.TradeInStatus     `json:"status"`
	AdminNotes        *string                  `json:"adminNotes,omitempty"`
	TrackingNumber    *string                  `json:"trackingNumber"`
	BankDetails       *domain.BankDetails      `json:"bankDetails"`
	InspectionResults *domain.InspectionReport `json:"inspectionResults"`
	History           []HistoryEntryResponse   `json:"history,omitempty"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
}

// PaginationResponse describes the returned page.
type PaginationResponse struct {
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// StatsResponse aggregates the filtered set.
type StatsResponse struct {
	TotalRequests       int64            `json:"totalRequests"`
	TotalEstimatedValue float64          `json:"totalEstimatedValue"`
	AvgEstimatedValue   float64          `json:"avgEstimatedValue"`
	TotalFinalValue     float64          `json:"totalFinalValue"`
	DeviceTypes         []string         `json:"deviceTypes"`
	Brands              []string         `json:"brands"`
	StatusCounts        map[string]int64 `json:"statusCounts"`
}

// TradeInListResponse is a listing page. Stats is null when nothing matched.
type TradeInListResponse struct {
	Items      []TradeInResponse  `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
	Stats      *StatsResponse     `json:"stats"`
}
